package cache

import "errors"

var ErrInvalidConfig = errors.New("invalid cache configuration")
