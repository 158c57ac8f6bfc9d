package config

import "errors"

var (
	// ErrNilConfig is returned when Load receives a nil pointer.
	ErrNilConfig = errors.New("config target must not be nil")

	// ErrFailedToParseConfig is returned when environment parsing fails.
	ErrFailedToParseConfig = errors.New("failed to parse config from environment")
)
