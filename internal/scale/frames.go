package scale

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frame type tags used by the scale stream.
//
// The stream historically used "weight"/"status" and later grew the more
// explicit "weightUpdate"/"scaleOnline"/"scaleOffline" tags; both generations
// are accepted.
const (
	frameWeightUpdate = "weightUpdate"
	frameWeight       = "weight"
	frameScaleOnline  = "scaleOnline"
	frameScaleOffline = "scaleOffline"
	frameStatus       = "status"
	frameError        = "error"
)

// frame is the superset wire shape of every inbound tagged record.
type frame struct {
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
	Unit      string  `json:"unit"`
	Stable    bool    `json:"stable"`
	ScaleID   string  `json:"scaleId"`
	Timestamp string  `json:"timestamp"`
	Connected *bool   `json:"connected,omitempty"`
	ComPort   string  `json:"comPort,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Code      string  `json:"code,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// frameKind classifies a decoded frame for the handle's transition function.
type frameKind int

const (
	kindWeight frameKind = iota
	kindStatus
	kindError
	kindUnknown
)

// decodeFrame parses raw bytes into a frame and classifies it.
func decodeFrame(data []byte) (*frame, frameKind, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, kindUnknown, fmt.Errorf("malformed frame: %w", err)
	}

	switch f.Type {
	case frameWeightUpdate, frameWeight:
		return &f, kindWeight, nil
	case frameScaleOnline:
		t := true
		f.Connected = &t
		return &f, kindStatus, nil
	case frameScaleOffline:
		t := false
		f.Connected = &t
		return &f, kindStatus, nil
	case frameStatus:
		if f.Connected == nil {
			return nil, kindUnknown, fmt.Errorf("status frame missing connected flag")
		}
		return &f, kindStatus, nil
	case frameError:
		return &f, kindError, nil
	default:
		return &f, kindUnknown, nil
	}
}

// producedAt parses the sender-assigned timestamp.
// Returns the zero time when the frame carries none or it does not parse.
func (f *frame) producedAt() time.Time {
	if f.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, f.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
