package converter

import (
	"errors"
	"fmt"
)

var (
	ErrConversionFailed    = errors.New("converter: conversion failed")
	ErrSerializationFailed = errors.New("converter: serialization failed")
)

// ConversionError carries the version and the underlying cause of a failed
// conversion. errors.Is matches both Kind and anything in Err's chain.
type ConversionError struct {
	Kind    error
	Version string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: version=%s: %v", e.Kind, e.Version, e.Err)
}

func (e *ConversionError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func conversionFailed(version string, err error) error {
	return &ConversionError{Kind: ErrConversionFailed, Version: version, Err: err}
}

func serializationFailed(version string, err error) error {
	return &ConversionError{Kind: ErrSerializationFailed, Version: version, Err: err}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSerializationFailed):
		return "serialization_failed"
	case errors.Is(err, ErrConversionFailed):
		return "conversion_failed"
	default:
		return "invalid"
	}
}
