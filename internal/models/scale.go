package models

import (
	"fmt"
	"time"
)

// ScaleClass identifies which physical bench scale a reading or connection belongs to.
type ScaleClass int

const (
	ScaleSmall ScaleClass = iota // Small precision scale
	ScaleBig                     // Large platform scale
)

func (c ScaleClass) String() string {
	switch c {
	case ScaleSmall:
		return "small"
	case ScaleBig:
		return "big"
	default:
		return "unknown"
	}
}

// ParseScaleClass converts a user-supplied class name to a [ScaleClass].
func ParseScaleClass(s string) (ScaleClass, error) {
	switch s {
	case "small":
		return ScaleSmall, nil
	case "big":
		return ScaleBig, nil
	default:
		return 0, fmt.Errorf("unknown scale class %q (want small or big)", s)
	}
}

// ConnectionState describes the lifecycle of one scale stream connection.
//
// Owned exclusively by the stream client; nothing else transitions it.
type ConnectionState int

const (
	StateConnecting   ConnectionState = iota // Dial in flight, not yet acknowledged
	StateOpen                                // Transport handshake confirmed, frames flowing
	StateReconnecting                        // Waiting out a backoff delay before redialing
	StateFailed                              // Attempt ceiling reached, manual reconnect required
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ScaleReading is a single weight report produced by the stream client on every inbound frame.
//
// A reading is meaningful only while its scale's connection is open; readings
// that arrive after a close is observed are discarded by the client.
type ScaleReading struct {
	ScaleID    string     // Opaque identity of the physical device
	Class      ScaleClass // Which bench scale produced it
	Weight     float64    // Signed weight in kilograms
	Stable     bool       // True only when the hardware reports a settled reading
	ProducedAt time.Time  // Timestamp assigned by the sender
}
