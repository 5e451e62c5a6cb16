// Package bot is the composition root: it connects a platform client to the
// reply router and owns the subscription that keeps routing alive.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/metrics"
	"github.com/whisper/replybot/internal/platform"
)

// Router is the routing stage fed by the dispatcher.
type Router interface {
	Route(ctx context.Context, events <-chan chat.Event) error
	Wait()
}

// Dispatcher wires a platform client to a router.
type Dispatcher struct {
	client platform.Client
	router Router
	logf   func(format string, args ...any)
}

// New creates a Dispatcher.
func New(client platform.Client, router Router) *Dispatcher {
	return &Dispatcher{client: client, router: router, logf: log.Printf}
}

// Subscription represents active routing. Stop disposes it.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// Stop ends event consumption and waits for the pipeline to wind down.
// In-flight sends are left to finish on their own.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once routing has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the stream failure that ended routing, or nil if routing was
// stopped or the stream ended cleanly. Only valid after Done is closed.
func (s *Subscription) Err() error {
	return s.err
}

// Start begins routing and returns immediately.
func (d *Dispatcher) Start(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	raw := make(chan chat.Event)
	messages := make(chan chat.Event)

	var runErr error
	go func() {
		defer close(raw)
		if err := d.client.Run(ctx, raw); err != nil {
			runErr = fmt.Errorf("bot: platform stream: %w", err)
		}
	}()

	// Connection signals are consumed here; everything else flows on to the
	// router in arrival order.
	go func() {
		defer close(messages)
		for ev := range raw {
			if ev.Kind == chat.KindConnected {
				d.onConnected(ctx)
				continue
			}
			select {
			case messages <- ev:
			case <-ctx.Done():
				// Keep draining raw so Run can observe cancellation.
			}
		}
		metrics.Connected.Set(0)
	}()

	go func() {
		defer close(sub.done)
		defer cancel()

		if err := d.router.Route(ctx, messages); err != nil {
			d.logf("[bot] router stopped: %v", err)
		}
		cancel()
		for range messages {
		}
		d.router.Wait()

		sub.err = runErr
		if runErr != nil {
			d.logf("[bot] routing ended: %v", runErr)
		} else {
			d.logf("[bot] routing stopped")
		}
	}()

	return sub
}

// onConnected snapshots the bot's membership and logs it.
func (d *Dispatcher) onConnected(ctx context.Context) {
	metrics.Connected.Set(1)

	id := d.client.Identity()
	d.logf("Welcome. You are %s of %s", id.SelfName, id.TeamName)

	m, err := d.client.Membership(ctx)
	if err != nil {
		d.logf("[bot] membership snapshot failed: %v", err)
		return
	}
	for _, line := range membershipLines(m) {
		d.logf("%s", line)
	}
}

func membershipLines(m platform.Membership) []string {
	var lines []string
	if len(m.Channels) > 0 {
		lines = append(lines, "You are in: "+strings.Join(m.Channels, ", "))
	} else {
		lines = append(lines, "You are not in any channels.")
	}
	if len(m.Groups) > 0 {
		lines = append(lines, "As well as: "+strings.Join(m.Groups, ", "))
	}
	if len(m.DMs) > 0 {
		lines = append(lines, "Your open DM's: "+strings.Join(m.DMs, ", "))
	}
	return lines
}
