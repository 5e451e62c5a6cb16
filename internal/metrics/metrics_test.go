package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepliesTotal(t *testing.T) {
	before := testutil.ToFloat64(RepliesTotal.WithLabelValues(ResultSent))
	RepliesTotal.WithLabelValues(ResultSent).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RepliesTotal.WithLabelValues(ResultSent)))
}

func TestHandler(t *testing.T) {
	EventsTotal.WithLabelValues("received").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "replybot_events_total")
}
