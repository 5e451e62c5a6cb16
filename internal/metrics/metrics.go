// Package metrics provides Prometheus instrumentation for the reply bot. It
// exposes counters for event and reply throughput, a histogram for send
// latency, and a gauge for the platform connection state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reply outcomes used as the "result" label of RepliesTotal.
const (
	ResultSent        = "sent"
	ResultUnresolved  = "unresolved"
	ResultSendError   = "send_error"
	ResultNoResponses = "no_responses"
)

var (
	// EventsTotal counts inbound events by routing stage reached:
	// "received", "message", "mention".
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replybot_events_total",
		Help: "Inbound platform events by routing stage",
	}, []string{"stage"})

	// RuleMatchesTotal counts rule firings, labeled by rule name.
	RuleMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replybot_rule_matches_total",
		Help: "Rule matches by rule name",
	}, []string{"rule"})

	// RepliesTotal counts reply attempts by outcome.
	RepliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replybot_replies_total",
		Help: "Reply attempts by outcome",
	}, []string{"result"})

	// SendLatency records resolve+send latency in seconds.
	SendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "replybot_send_latency_seconds",
		Help:    "Reply resolve and send latency in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// Connected is 1 while the platform connection is open.
	Connected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replybot_connected",
		Help: "Whether the platform connection is open",
	})
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		RuleMatchesTotal,
		RepliesTotal,
		SendLatency,
		Connected,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
