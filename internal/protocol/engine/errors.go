package engine

import "errors"

var (
	ErrInvalidMessage = errors.New("engine: invalid message")
	ErrConfig         = errors.New("engine: dictionary config error")
	ErrFieldNotFound  = errors.New("engine: field not found")
)
