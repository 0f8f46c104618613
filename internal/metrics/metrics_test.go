package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegisteredCounters(t *testing.T) {
	m := New("chronoclash_test")
	m.MessagesSent.Inc()
	m.SessionsActive.Set(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "chronoclash_test_messages_sent_total 1")
	require.Contains(t, body, "chronoclash_test_sessions_active 2")
}

func TestTwoInstancesDoNotCollide(t *testing.T) {
	a := New("chronoclash_a")
	b := New("chronoclash_b")
	a.EventsApplied.Inc()
	b.EventsApplied.Add(5)

	reqA := httptest.NewRequest("GET", "/metrics", nil)
	recA := httptest.NewRecorder()
	a.Handler().ServeHTTP(recA, reqA)
	require.Contains(t, recA.Body.String(), "chronoclash_a_events_applied_total 1")
	require.NotContains(t, recA.Body.String(), "chronoclash_b")
}
