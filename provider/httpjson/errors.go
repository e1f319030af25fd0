package httpjson

import "errors"

var (
	// ErrInvalidConfig is returned when a gateway is built with unusable settings.
	ErrInvalidConfig = errors.New("invalid http gateway configuration")

	// ErrBadStatus is returned when the search API answers with a non-2xx status.
	ErrBadStatus = errors.New("unexpected http status")

	// ErrBadPayload is returned when the search API answers with JSON the gateway cannot read.
	ErrBadPayload = errors.New("unreadable search payload")
)
