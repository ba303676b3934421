package netcheck

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Refresher is whatever holds page state that goes stale while offline.
type Refresher interface {
	Reload() error
}

// Monitor probes a fixed list of independent endpoints. It keeps no state
// between calls.
type Monitor struct {
	endpoints []string
	client    *http.Client
	backoff   time.Duration
	logger    *log.Logger

	// check is IsReachable unless replaced in tests.
	check func(ctx context.Context) bool
}

func NewMonitor(endpoints []string, timeout, backoff time.Duration, logger *log.Logger) *Monitor {
	m := &Monitor{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		backoff:   backoff,
		logger:    logger.WithPrefix("netcheck"),
	}
	m.check = m.IsReachable
	return m
}

// IsReachable GETs each endpoint in order and returns true on the first
// HTTP 200. It returns false only when every endpoint failed.
func (m *Monitor) IsReachable(ctx context.Context) bool {
	for _, endpoint := range m.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			continue
		}
		resp, err := m.client.Do(req)
		if err != nil {
			m.logger.Debug("probe failed", "endpoint", endpoint, "err", err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
	}
	return false
}

// WaitUntilReachable polls with a fixed backoff until the network is back,
// then reloads r once. r may be nil when nothing needs refreshing.
func (m *Monitor) WaitUntilReachable(ctx context.Context, r Refresher) error {
	m.logger.Warn("❌ Internet connection lost. Waiting to reconnect...")
	for !m.check(ctx) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.backoff):
		}
	}
	m.logger.Info("✅ Internet reconnected.")

	if r == nil {
		return nil
	}
	return r.Reload()
}

// Gate is the step every network-sensitive action runs first: a no-op when
// reachable, otherwise a blocking wait followed by one refresh.
func (m *Monitor) Gate(ctx context.Context, r Refresher) error {
	if m.check(ctx) {
		return nil
	}
	return m.WaitUntilReachable(ctx, r)
}
