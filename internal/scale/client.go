package scale

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deachawatss/pickbench/internal/models"
	"github.com/deachawatss/pickbench/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	defaultMaxAttempts   = 10
	defaultBackoffBase   = time.Second
	defaultBackoffCap    = 10 * time.Second
	defaultLatencyBudget = 200 * time.Millisecond
	defaultReadTimeout   = 30 * time.Second
	dialTimeout          = 10 * time.Second

	// replayWindow bounds the latency warning: frames older than this are
	// treated as replayed or cached on reconnect, not as live lag.
	replayWindow = 5 * time.Second
)

// Conn is the minimal framed-transport surface the client needs.
// *websocket.Conn satisfies it; tests substitute an in-memory fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer establishes a Conn. A non-nil Conn means the transport completed its
// protocol handshake and acknowledged readiness, not merely that a socket
// exists.
type Dialer func(ctx context.Context, url string) (Conn, error)

// websocketDialer dials the stream endpoint over websocket.
func websocketDialer(ctx context.Context, rawURL string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Options configures a handle. Zero values take the documented defaults.
type Options struct {
	BaseURL       string        // Stream endpoint base; the scale class is appended as the path
	Dialer        Dialer        // Transport dialer, websocket by default
	MaxAttempts   int           // Reconnect ceiling before entering the failed state (default 10)
	BackoffBase   time.Duration // First reconnect delay (default 1s)
	BackoffCap    time.Duration // Per-attempt delay ceiling (default 10s)
	LatencyBudget time.Duration // Weight frame lag before a warning is surfaced (default 200ms)
	ReadTimeout   time.Duration // Heartbeat budget; no frame within it is a transport error (default 30s)
	Logger        *log.Logger
}

func (o *Options) fill() {
	if o.Dialer == nil {
		o.Dialer = websocketDialer
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = defaultBackoffBase
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = defaultBackoffCap
	}
	if o.LatencyBudget <= 0 {
		o.LatencyBudget = defaultLatencyBudget
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
}

// Snapshot is the coalesced view a handle exposes regardless of connection churn.
type Snapshot struct {
	Class          models.ScaleClass
	Conn           models.ConnectionState
	Weight         float64              // Last processed weight, kilograms
	Stable         bool                 // Hardware stability flag of the last reading
	Online         bool                 // Hardware-level availability, independent of the network link
	Pending        bool                 // True while connecting or waiting out a backoff delay
	LatencyWarning bool                 // Last weight frame exceeded the latency budget
	Err            error                // Last surfaced error, nil after ClearError
	Reading        *models.ScaleReading // Last full reading, nil before the first frame
	Closed         bool
}

// Handle is one logical subscription to a single physical scale.
//
// All mutable state is owned by the handle and guarded by one mutex; inbound
// frames are applied by a single reader goroutine in arrival order, so the
// snapshot always reflects the most recently processed frame.
type Handle struct {
	class  models.ScaleClass
	opts   Options
	logger *log.Logger

	mu     sync.Mutex
	state  models.ConnectionState
	closed bool
	// gen identifies the current connection epoch. Dials, readers, and retry
	// timers carry the epoch they were started for; a mismatch means the
	// handle moved on and their outcome must be discarded.
	gen      int
	conn     Conn
	attempts int
	retry    *time.Timer

	weight      float64
	stable      bool
	online      bool
	latencyWarn bool
	lastErr     error
	reading     *models.ScaleReading

	updates chan struct{}
}

// Open begins connecting to the given scale's stream and returns immediately.
func Open(class models.ScaleClass, opts Options) *Handle {
	opts.fill()

	h := &Handle{
		class:   class,
		opts:    opts,
		logger:  shared.WithLogger(opts.Logger, "component", "scale", "class", class.String()),
		state:   models.StateConnecting,
		updates: make(chan struct{}, 1),
	}

	go h.dial(0)
	return h
}

// Updates returns a coalescing wakeup channel: it receives after state
// commits, collapsing bursts. Consumers re-read State after each wakeup.
func (h *Handle) Updates() <-chan struct{} {
	return h.updates
}

// State returns a synchronous snapshot of the handle.
func (h *Handle) State() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Snapshot{
		Class:          h.class,
		Conn:           h.state,
		Weight:         h.weight,
		Stable:         h.stable,
		Online:         h.online,
		Pending:        !h.closed && (h.state == models.StateConnecting || h.state == models.StateReconnecting),
		LatencyWarning: h.latencyWarn,
		Err:            h.lastErr,
		Reading:        h.reading,
		Closed:         h.closed,
	}
}

// ClearError clears the last reported error without affecting connection state.
func (h *Handle) ClearError() {
	h.mu.Lock()
	h.lastErr = nil
	h.mu.Unlock()
	h.notify()
}

// Reconnect cancels any pending backoff timer, resets the attempt counter,
// and forces an immediate fresh connection attempt. It is the only way out of
// the failed state.
func (h *Handle) Reconnect() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}

	if h.retry != nil {
		h.retry.Stop()
		h.retry = nil
	}
	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
	}

	h.attempts = 0
	h.lastErr = nil
	h.gen++
	gen := h.gen
	h.state = models.StateConnecting
	h.mu.Unlock()

	h.notify()
	go h.dial(gen)
}

// Close releases the connection and cancels any pending reconnect. Idempotent.
//
// A connection that finished its handshake is closed here; one still
// handshaking resolves naturally inside dial and is discarded there. Forcing
// a close mid-handshake produces spurious transport errors on some stacks.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}

	h.closed = true
	if h.retry != nil {
		h.retry.Stop()
		h.retry = nil
	}
	conn := h.conn
	h.conn = nil
	h.gen++
	h.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	h.notify()
}

// url builds the per-class stream endpoint.
func (h *Handle) url() string {
	return h.opts.BaseURL + "/" + h.class.String()
}

// dial performs one connection attempt for the given epoch.
func (h *Handle) dial(gen int) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := h.opts.Dialer(ctx, h.url())

	h.mu.Lock()
	if h.closed || gen != h.gen {
		h.mu.Unlock()
		// The handle was released or moved on while the handshake was in
		// flight; the outcome is a no-op and the connection is discarded.
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		h.logger.Warn("connect failed", "error", err)
		h.scheduleReconnectLocked(err)
		h.mu.Unlock()
		h.notify()
		return
	}

	h.conn = conn
	h.state = models.StateOpen
	h.attempts = 0
	h.mu.Unlock()

	h.logger.Info("stream open", "url", h.url())
	h.notify()

	sub := fmt.Sprintf(`{"type":"subscribe","scale":%q}`, h.class.String())
	if err := conn.WriteMessage(websocket.TextMessage, []byte(sub)); err != nil {
		h.transportError(gen, err)
		return
	}

	go h.readLoop(conn, gen)
}

// readLoop consumes frames until the connection dies or the handle moves on.
func (h *Handle) readLoop(conn Conn, gen int) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
			h.transportError(gen, err)
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			h.transportError(gen, err)
			return
		}

		if !h.handleFrame(gen, data) {
			return
		}
	}
}

// transportError tears down the current connection and schedules a reconnect.
// Stale epochs are ignored so an already-replaced reader cannot disturb the
// handle.
func (h *Handle) transportError(gen int, cause error) {
	h.mu.Lock()
	if h.closed || gen != h.gen {
		h.mu.Unlock()
		return
	}

	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
	}

	h.logger.Warn("stream lost", "error", cause)
	h.scheduleReconnectLocked(cause)
	h.mu.Unlock()
	h.notify()
}

// scheduleReconnectLocked advances the state machine after a failure.
// Caller holds h.mu.
func (h *Handle) scheduleReconnectLocked(cause error) {
	if h.attempts >= h.opts.MaxAttempts {
		h.state = models.StateFailed
		h.lastErr = fmt.Errorf("%w after %d attempts: %v", shared.ErrReconnectsExhausted, h.attempts, cause)
		h.logger.Error("giving up until manual reconnect", "attempts", h.attempts, "error", cause)
		return
	}

	delay := backoffDelay(h.opts.BackoffBase, h.opts.BackoffCap, h.attempts)
	h.attempts++
	h.state = models.StateReconnecting
	h.gen++
	gen := h.gen

	h.logger.Info("reconnecting", "attempt", h.attempts, "delay", delay)
	h.retry = time.AfterFunc(delay, func() { h.redial(gen) })
}

// redial fires when a backoff delay elapses.
func (h *Handle) redial(gen int) {
	h.mu.Lock()
	if h.closed || gen != h.gen || h.state != models.StateReconnecting {
		h.mu.Unlock()
		return
	}
	h.state = models.StateConnecting
	h.retry = nil
	h.mu.Unlock()

	h.notify()
	h.dial(gen)
}

// handleFrame applies one inbound frame. Returns false when the reader should
// stop because the handle closed or moved to a new connection epoch; readings
// observed after a close are discarded, never applied.
func (h *Handle) handleFrame(gen int, data []byte) bool {
	h.mu.Lock()

	if h.closed || gen != h.gen {
		h.mu.Unlock()
		return false
	}

	f, kind, err := decodeFrame(data)
	if err != nil {
		h.mu.Unlock()
		h.logger.Warn("skipping malformed frame", "error", err)
		return true
	}

	switch kind {
	case kindWeight:
		produced := f.producedAt()
		warn := false
		if !produced.IsZero() {
			lag := time.Since(produced)
			warn = lag > h.opts.LatencyBudget && lag < replayWindow
			if warn {
				h.logger.Warn("weight frame over latency budget", "lag", lag, "scale", f.ScaleID)
			}
		}
		h.weight = f.Weight
		h.stable = f.Stable
		h.latencyWarn = warn
		h.reading = &models.ScaleReading{
			ScaleID:    f.ScaleID,
			Class:      h.class,
			Weight:     f.Weight,
			Stable:     f.Stable,
			ProducedAt: produced,
		}

	case kindStatus:
		if *f.Connected {
			h.online = true
			h.lastErr = nil
			h.logger.Info("scale online", "comPort", f.ComPort)
		} else {
			h.online = false
			h.lastErr = fmt.Errorf("scale offline: %s", f.Reason)
			h.logger.Warn("scale offline", "reason", f.Reason)
		}

	case kindError:
		h.lastErr = fmt.Errorf("%s: %s", f.Code, f.Message)
		h.logger.Error("scale reported error", "code", f.Code, "message", f.Message)

	case kindUnknown:
		h.logger.Debug("ignoring unrecognized frame", "type", f.Type)
	}

	h.mu.Unlock()
	h.notify()
	return true
}

// notify performs a coalescing wakeup: at most one pending signal, never blocks.
func (h *Handle) notify() {
	select {
	case h.updates <- struct{}{}:
	default:
	}
}

// backoffDelay computes min(base << attempts, cap).
func backoffDelay(base, capDelay time.Duration, attempts int) time.Duration {
	if attempts > 30 {
		return capDelay
	}
	d := base << uint(attempts)
	if d <= 0 || d > capDelay {
		return capDelay
	}
	return d
}
