package provider

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrUnknownRetailer is returned when a gateway is built for an unsupported retailer.
	ErrUnknownRetailer = errors.New("unknown retailer")
)
