package netcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-job-acquirer/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct{ reloads int }

func (r *countingRefresher) Reload() error {
	r.reloads++
	return nil
}

func server(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIsReachable(t *testing.T) {
	down := server(t, http.StatusServiceUnavailable)
	up := server(t, http.StatusOK)

	tests := []struct {
		name      string
		endpoints []string
		want      bool
	}{
		{"first endpoint up", []string{up.URL, down.URL}, true},
		{"later endpoint up", []string{down.URL, "http://127.0.0.1:1", up.URL}, true},
		{"all down", []string{down.URL, "http://127.0.0.1:1"}, false},
		{"no endpoints", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(tt.endpoints, time.Second, time.Millisecond, logging.Discard())
			assert.Equal(t, tt.want, m.IsReachable(context.Background()))
		})
	}
}

func TestWaitUntilReachable_PollsUntilUpThenRefreshesOnce(t *testing.T) {
	m := NewMonitor(nil, time.Second, time.Millisecond, logging.Discard())

	results := []bool{false, false, true}
	polls := 0
	m.check = func(context.Context) bool {
		r := results[polls]
		polls++
		return r
	}

	page := &countingRefresher{}
	require.NoError(t, m.WaitUntilReachable(context.Background(), page))

	assert.GreaterOrEqual(t, polls, 3)
	assert.Equal(t, 1, page.reloads)
}

func TestWaitUntilReachable_Cancelled(t *testing.T) {
	m := NewMonitor(nil, time.Second, time.Hour, logging.Discard())
	m.check = func(context.Context) bool { return false }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &countingRefresher{}
	err := m.WaitUntilReachable(ctx, page)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, page.reloads)
}

func TestGate_SkipsRefreshWhenReachable(t *testing.T) {
	m := NewMonitor(nil, time.Second, time.Millisecond, logging.Discard())
	m.check = func(context.Context) bool { return true }

	page := &countingRefresher{}
	require.NoError(t, m.Gate(context.Background(), page))
	assert.Zero(t, page.reloads)
}
