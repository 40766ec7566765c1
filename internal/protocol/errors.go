package protocol

import "errors"

var (
	ErrInvalidInput     = errors.New("protocol: message cannot be null or empty")
	ErrUnknownVersion   = errors.New("protocol: unknown version")
	ErrResourceNotFound = errors.New("protocol: resource not found")
)
