package shared

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Monitor wraps network reachability into a single boolean observable.
//
// It probes a configured URL on a paced loop and exposes the latest verdict
// via [Monitor.Online]. Consumers that need transition notifications register
// a callback with [Monitor.Subscribe]; callbacks fire only when the verdict
// changes, not on every probe.
//
// The monitor answers "can this workstation reach the backend at all", which
// is distinct from any individual request failing. The run gateway uses it to
// decide whether a failed fetch means "offline" or "online but erroring".
type Monitor struct {
	mu      sync.Mutex
	online  bool
	subs    map[int]func(bool)
	nextSub int

	probeURL string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *log.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewMonitor creates a Monitor that probes probeURL once per interval.
// The monitor starts offline until the first successful probe or SetOnline call.
func NewMonitor(probeURL string, interval time.Duration, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = NewLogger(nil)
	}

	return &Monitor{
		subs:     make(map[int]func(bool)),
		probeURL: probeURL,
		client:   &http.Client{Timeout: 3 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   WithLogger(logger, "component", "connectivity"),
		done:     make(chan struct{}),
	}
}

// Start begins the probe loop in a background goroutine. Calling Start on a
// monitor with no probe URL is a no-op; such a monitor only changes state via
// SetOnline (used by tests and by callers that observe request outcomes).
func (m *Monitor) Start() {
	if m.probeURL == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	for {
		if err := m.limiter.Wait(ctx); err != nil {
			return
		}
		m.SetOnline(m.probe(ctx))
	}
}

// probe issues a single HEAD request against the probe URL.
// Any response, including an error status, proves reachability.
func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		m.logger.Error("invalid probe URL", "url", m.probeURL, "error", err)
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	return true
}

// Online reports the most recent reachability verdict.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records an observed reachability verdict and notifies subscribers
// on transitions. Callers that just completed (or failed) a real request may
// feed the outcome here so the verdict stays fresh between probes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online

	var subs []func(bool)
	if changed {
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Info("connectivity changed", "online", online)
	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers a callback invoked on every online/offline transition.
// The returned cancel function removes the subscription.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close stops the probe loop. Safe to call multiple times.
func (m *Monitor) Close() {
	m.once.Do(func() {
		m.mu.Lock()
		cancel := m.cancel
		m.mu.Unlock()

		if cancel != nil {
			cancel()
			<-m.done
		}
	})
}
