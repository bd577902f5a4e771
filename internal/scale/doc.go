// Package scale implements the real-time weight-stream client for the workstation's bench scales.
//
// # Handles
//
// [Open] returns a [Handle]: one logical subscription to a single physical
// scale. Two handles for different scale classes share no mutable state:
// backoff counters, error state, and weight values are all per handle. A
// failure on one scale never affects the other's readings.
//
// # Connection State Machine
//
// Each handle owns its [models.ConnectionState] and is its only writer:
//
//	connecting -> open          transport handshake acknowledged
//	open -> reconnecting        unexpected close, heartbeat loss, transport error
//	reconnecting -> connecting  after the computed backoff delay
//	connecting -> failed        attempt ceiling exceeded; manual Reconnect required
//
// Close is reachable from every state and terminal for the handle. A dial
// that resolves after Close is discarded without acting on the connection;
// the handle never transitions to open after a close was observed.
//
// # Backoff
//
// Reconnect delay is min(base << attempts, cap): 1s, 2s, 4s, 8s, then capped
// at 10s. The counter resets on reaching open and on [Handle.Reconnect]. The
// pending timer is an explicit [time.Timer] on the handle so Close and
// Reconnect cancel it deterministically.
//
// # Frames
//
// Inbound frames are JSON tagged records: weight reports, hardware status
// reports (scale online/offline, independent of the network link), error
// reports, and anything else (ignored for forward compatibility). Malformed
// frames are logged and skipped; they never tear down the connection.
//
// Within one handle frames are applied strictly in arrival order. The
// [Handle.Updates] channel is a coalescing wakeup: state commits are never
// dropped or reordered, only notifications are collapsed under burst load.
package scale
