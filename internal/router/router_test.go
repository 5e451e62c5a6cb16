package router

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/metrics"
	"github.com/whisper/replybot/internal/platform/platformtest"
	"github.com/whisper/replybot/internal/rules"
)

type firstSource struct{}

func (firstSource) IntN(int) int { return 0 }

func newTestRouter(t *testing.T) (*Router, *platformtest.Client) {
	t.Helper()
	client := platformtest.NewClient("BOT")
	for _, id := range []string{"C1", "C2", "C3"} {
		client.AddConversation(id, "chan-"+id)
	}
	r := New(rules.BuildRules(), rules.NewSelector(nil), client, client)
	return r, client
}

func message(text, channel string) chat.Event {
	return chat.Event{ID: "ev-" + channel, Kind: chat.KindMessage, Text: text, ChannelID: channel, AuthorID: "U1"}
}

func TestHandle_Hi(t *testing.T) {
	r, client := newTestRouter(t)

	n := r.Handle(context.Background(), message("<@BOT> hi", "C1"))
	r.Wait()

	assert.Equal(t, 1, n)
	assert.Equal(t, []platformtest.Sent{{ChannelID: "C1", Text: "Hi how are you?"}}, client.Sent())
}

func TestHandle_Fruit(t *testing.T) {
	r, client := newTestRouter(t)

	n := r.Handle(context.Background(), message("<@BOT> show me a fruit", "C2"))
	r.Wait()

	require.Equal(t, 1, n)
	sent := client.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "C2", sent[0].ChannelID)
	assert.Contains(t, rules.FruitResponses, sent[0].Text)
}

func TestHandle_NoMention(t *testing.T) {
	r, client := newTestRouter(t)

	n := r.Handle(context.Background(), message("hi", "C3"))
	r.Wait()

	assert.Equal(t, 0, n)
	assert.Empty(t, client.Sent())
	assert.Zero(t, client.Resolves())
}

func TestHandle_NotMessage(t *testing.T) {
	r, client := newTestRouter(t)
	before := testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("message"))

	n := r.Handle(context.Background(), chat.Event{Kind: chat.KindOther, Text: "<@BOT> hi", ChannelID: "C1"})
	r.Wait()

	assert.Equal(t, 0, n)
	assert.Empty(t, client.Sent())
	assert.Equal(t, before, testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("message")))
}

func TestHandle_EmptyText(t *testing.T) {
	r, client := newTestRouter(t)

	assert.Equal(t, 0, r.Handle(context.Background(), message("", "C1")))
	r.Wait()
	assert.Empty(t, client.Sent())
}

func TestHandle_SeveralRulesInTableOrder(t *testing.T) {
	client := platformtest.NewClient("BOT")
	client.AddConversation("C1", "general")
	r := New(rules.BuildRules(), rules.NewSelector(firstSource{}), client, client, WithWorkers(1))

	n := r.Handle(context.Background(), message("<@BOT> hi, fruit gif then bye", "C1"))
	r.Wait()

	require.Equal(t, 4, n)
	texts := make([]string, 0, 4)
	for _, s := range client.Sent() {
		texts = append(texts, s.Text)
	}
	assert.ElementsMatch(t, []string{"Apple", "Hi how are you?", "Bye! dude", "http://giphy.com/gifs/YFRoLKy1kiY00"}, texts)
}

func TestHandle_UnknownConversationIsIsolated(t *testing.T) {
	r, client := newTestRouter(t)
	before := testutil.ToFloat64(metrics.RepliesTotal.WithLabelValues(metrics.ResultUnresolved))

	assert.Equal(t, 1, r.Handle(context.Background(), message("<@BOT> hi", "C404")))
	assert.Equal(t, 1, r.Handle(context.Background(), message("<@BOT> hi", "C1")))
	r.Wait()

	assert.Equal(t, []platformtest.Sent{{ChannelID: "C1", Text: "Hi how are you?"}}, client.Sent())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RepliesTotal.WithLabelValues(metrics.ResultUnresolved)))
}

func TestHandle_SendErrorIsIsolated(t *testing.T) {
	r, client := newTestRouter(t)
	client.FailSendTo["C1"] = platformtest.ErrBoom
	before := testutil.ToFloat64(metrics.RepliesTotal.WithLabelValues(metrics.ResultSendError))

	r.Handle(context.Background(), message("<@BOT> hi", "C1"))
	r.Handle(context.Background(), message("<@BOT> hi", "C2"))
	r.Wait()

	assert.Equal(t, []platformtest.Sent{{ChannelID: "C2", Text: "Hi how are you?"}}, client.Sent())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RepliesTotal.WithLabelValues(metrics.ResultSendError)))
}

func TestRoute_StopsWhenStreamCloses(t *testing.T) {
	r, client := newTestRouter(t)

	events := make(chan chat.Event, 4)
	events <- message("<@BOT> hi", "C1")
	events <- chat.Event{Kind: chat.KindOther}
	events <- message("hi", "C3")
	events <- message("<@BOT> bye", "C2")
	close(events)

	require.NoError(t, r.Route(context.Background(), events))
	r.Wait()

	assert.ElementsMatch(t, []platformtest.Sent{
		{ChannelID: "C1", Text: "Hi how are you?"},
		{ChannelID: "C2", Text: "Bye! dude"},
	}, client.Sent())
}

func TestRoute_StopsOnCancel(t *testing.T) {
	r, _ := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Route(ctx, make(chan chat.Event)) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Route did not return after cancel")
	}
}

func TestHandle_MatchedSetIsDeterministic(t *testing.T) {
	ev := message("<@BOT> hi there, fruit and a gif", "C1")

	var counts []int
	for i := 0; i < 20; i++ {
		r, _ := newTestRouter(t)
		counts = append(counts, r.Handle(context.Background(), ev))
		r.Wait()
	}
	for _, n := range counts {
		assert.Equal(t, 3, n)
	}
}

// staticMatcher matches every message with a fixed rule list, bypassing
// table validation.
type staticMatcher []rules.Rule

func (m staticMatcher) Match(string) []rules.Rule { return m }

func TestHandle_EmptyResponsesSkipsRule(t *testing.T) {
	client := platformtest.NewClient("BOT")
	client.AddConversation("C1", "general")
	matcher := staticMatcher{
		{Name: "broken", Trigger: rules.Literal("hi")},
		{Name: "hi", Trigger: rules.Literal("hi"), Responses: []string{"Hi how are you?"}},
	}
	r := New(matcher, rules.NewSelector(firstSource{}), client, client)
	before := testutil.ToFloat64(metrics.RepliesTotal.WithLabelValues(metrics.ResultNoResponses))

	n := r.Handle(context.Background(), message("<@BOT> hi", "C1"))
	r.Wait()

	assert.Equal(t, 1, n)
	assert.Equal(t, []platformtest.Sent{{ChannelID: "C1", Text: "Hi how are you?"}}, client.Sent())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RepliesTotal.WithLabelValues(metrics.ResultNoResponses)))
}
