package core

import "errors"

var (
	// ErrConfig marks fatal configuration problems detected before replay starts.
	ErrConfig = errors.New("configuration error")
	// ErrStrategy wraps failures returned by the strategy.
	ErrStrategy = errors.New("strategy error")
	// ErrMalformedOrder marks orders that cannot be routed to a listing.
	ErrMalformedOrder = errors.New("malformed order")
)
