package membership

import "errors"

var (
	ErrInvalidProgram   = errors.New("invalid membership program")
	ErrDuplicateProgram = errors.New("duplicate membership program")
	ErrUnknownProgram   = errors.New("unknown membership program")
)
