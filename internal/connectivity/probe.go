package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/logging"
)

// Prober performs a single reachability check against the backend.
type Prober interface {
	Ping(ctx context.Context) error
}

// ProbeMonitor derives connectivity from periodic probes. It starts
// optimistic (online) so the first real request decides, and flips state
// whenever a probe outcome disagrees with the current belief.
type ProbeMonitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	online atomic.Bool
	broadcaster
}

func NewProbeMonitor(p Prober, interval time.Duration, log logging.Logger) *ProbeMonitor {
	m := &ProbeMonitor{
		prober:   p,
		interval: interval,
		timeout:  3 * time.Second,
		log:      log,
	}
	m.online.Store(true)
	return m
}

func (m *ProbeMonitor) Online() bool { return m.online.Load() }

func (m *ProbeMonitor) Subscribe() <-chan bool { return m.subscribe() }

// Run probes until ctx is cancelled. Callers typically run it in a goroutine
// for the lifetime of the session.
func (m *ProbeMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(context.Background(), m.timeout)
			err := m.prober.Ping(probeCtx)
			cancel()

			m.set(ctx, err == nil)

		case <-ctx.Done():
			return
		}
	}
}

func (m *ProbeMonitor) set(ctx context.Context, online bool) {
	if m.online.Swap(online) != online {
		if online {
			m.log.Info(ctx, "connectivity restored")
		} else {
			m.log.Warn(ctx, "connectivity lost")
		}
		m.notify(online)
	}
}
