// Package router turns inbound chat events into replies. Each event passes
// through ordered stages: keep messages, keep those mentioning the bot, match
// the rule table, then select and send one reply per matching rule. Routing
// keeps no state between events.
package router

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/mention"
	"github.com/whisper/replybot/internal/metrics"
	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/rules"
)

// DefaultWorkers caps concurrent in-flight sends.
const DefaultWorkers = 64

// Identifier exposes the bot's own identity for mention detection.
type Identifier interface {
	Identity() platform.Identity
}

// Matcher returns the rules whose triggers match a message, in table order.
// *rules.Table is the production implementation.
type Matcher interface {
	Match(text string) []rules.Rule
}

// Option configures a Router.
type Option func(*Router)

// WithWorkers sets the maximum number of concurrent sends.
func WithWorkers(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.workers = make(chan struct{}, n)
		}
	}
}

// Router routes chat events to replies.
type Router struct {
	table    Matcher
	selector *rules.Selector
	resolver platform.Resolver
	self     Identifier
	workers  chan struct{} // semaphore limiting concurrent sends
	inflight sync.WaitGroup
}

// New creates a Router over an immutable rule table.
func New(table Matcher, selector *rules.Selector, resolver platform.Resolver, self Identifier, opts ...Option) *Router {
	r := &Router{
		table:    table,
		selector: selector,
		resolver: resolver,
		self:     self,
		workers:  make(chan struct{}, DefaultWorkers),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route consumes events in arrival order until the channel is closed or ctx
// is cancelled. Both end routing normally and return nil; per-event failures
// never stop the loop. Sends still in flight are not cancelled.
func (r *Router) Route(ctx context.Context, events <-chan chat.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(ctx, ev)
		}
	}
}

// Handle routes a single event and returns the number of replies it
// dispatched. Replies are sent asynchronously; use Wait to block until they
// complete.
func (r *Router) Handle(ctx context.Context, ev chat.Event) int {
	metrics.EventsTotal.WithLabelValues("received").Inc()
	if !ev.IsMessage() {
		return 0
	}
	metrics.EventsTotal.WithLabelValues("message").Inc()

	selfID := r.self.Identity().SelfID
	if !mention.IsMentioned(ev.Text, selfID) {
		return 0
	}
	metrics.EventsTotal.WithLabelValues("mention").Inc()

	matched := r.table.Match(ev.Text)
	if len(matched) == 0 {
		return 0
	}

	sendCtx := context.WithoutCancel(ctx)
	sent := 0
	for _, rule := range matched {
		metrics.RuleMatchesTotal.WithLabelValues(rule.Name).Inc()

		reply, err := r.selector.Select(rule.Responses)
		if err != nil {
			metrics.RepliesTotal.WithLabelValues(metrics.ResultNoResponses).Inc()
			log.Printf("[router] INVARIANT rule=%s event=%s: %v (reply skipped)", rule.Name, ev.ID, err)
			continue
		}

		r.dispatch(sendCtx, ev, rule.Name, reply)
		sent++
	}
	return sent
}

// dispatch resolves the event's conversation and sends reply on a worker
// goroutine. Errors are logged and counted.
func (r *Router) dispatch(ctx context.Context, ev chat.Event, ruleName, reply string) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		r.workers <- struct{}{}
		defer func() { <-r.workers }()

		start := time.Now()
		defer func() { metrics.SendLatency.Observe(time.Since(start).Seconds()) }()

		conv, err := r.resolver.Resolve(ctx, ev.ChannelID)
		if err != nil {
			metrics.RepliesTotal.WithLabelValues(metrics.ResultUnresolved).Inc()
			if errors.Is(err, platform.ErrConversationNotFound) {
				log.Printf("[router] unknown conversation channel=%s rule=%s event=%s", ev.ChannelID, ruleName, ev.ID)
			} else {
				log.Printf("[router] resolve channel=%s rule=%s event=%s: %v", ev.ChannelID, ruleName, ev.ID, err)
			}
			return
		}

		if err := conv.Send(ctx, reply); err != nil {
			metrics.RepliesTotal.WithLabelValues(metrics.ResultSendError).Inc()
			log.Printf("[router] send failed channel=%s rule=%s event=%s: %v", ev.ChannelID, ruleName, ev.ID, err)
			return
		}

		metrics.RepliesTotal.WithLabelValues(metrics.ResultSent).Inc()
		log.Printf("[router] replied channel=%s rule=%s event=%s", conv.ID(), ruleName, ev.ID)
	}()
}

// Wait blocks until every dispatched reply has completed.
func (r *Router) Wait() {
	r.inflight.Wait()
}
