package ai

import "errors"

var (
	// ErrMalformedResponse is returned when a model answer cannot be used.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid ai config")
)
