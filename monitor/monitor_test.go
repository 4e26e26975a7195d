package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.ObserveGuess("correct")
	m.ObserveGuess("correct")
	m.ObserveGuess("wrong")
	m.ObserveRoundEnd("timeout")
	m.IncGamesCompleted()
	m.SetActiveRooms(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Guesses.WithLabelValues("correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Guesses.WithLabelValues("wrong")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rounds.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GamesCompleted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveRooms))
}

func TestMonitor_OnlinePlayers(t *testing.T) {
	mon := NewMonitor("test")
	mon.IncOnlinePlayers()
	mon.IncOnlinePlayers()
	mon.DecOnlinePlayers()
	mon.IncMessagesReceived()
	mon.IncRateLimited()
	mon.ObserveMessageLatency(5 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(mon.Metrics().OnlinePlayers))
	assert.Equal(t, 1.0, testutil.ToFloat64(mon.Metrics().MessagesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(mon.Metrics().RateLimited))
	assert.Equal(t, 1, testutil.CollectAndCount(mon.Metrics().MessageLatency))
}

func TestMonitor_Handler(t *testing.T) {
	mon := NewMonitor("sketch")
	mon.Metrics().ObserveGuess("close")

	rec := httptest.NewRecorder()
	mon.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `sketch_guesses_total{result="close"} 1`), text)
	assert.Contains(t, text, "sketch_uptime_seconds")
}

func TestMonitor_Independent(t *testing.T) {
	// two monitors in one process must not collide on registration
	assert.NotPanics(t, func() {
		NewMonitor("a")
		NewMonitor("a")
	})
}
