package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Backend API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRunNotFound        = fmt.Errorf("run not found")

	// Offline / cache fallback errors
	//
	// ErrUnavailableOffline is the distinct "not available offline" condition:
	// the network is down and the requested run was never cached. It is never
	// used for server-side failures while online; those propagate unchanged.
	ErrUnavailableOffline = fmt.Errorf("run not available offline")
	ErrCacheMiss          = fmt.Errorf("run not in cache")

	// Stream client errors
	ErrReconnectsExhausted = fmt.Errorf("reconnect attempts exhausted")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
