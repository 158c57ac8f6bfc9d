package codec

import "errors"

var (
	// ErrEncodeFailed is returned when an entity cannot be rendered as wire text.
	ErrEncodeFailed = errors.New("failed to encode entity")

	// ErrDecodeFailed is returned when wire text cannot be parsed into an entity.
	ErrDecodeFailed = errors.New("failed to decode entity")
)
