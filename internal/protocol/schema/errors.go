package schema

import (
	"errors"
	"fmt"

	"github.com/danmuck/fixconv/internal/protocol"
)

var (
	ErrEmptyMessage         = errors.New("schema: empty message")
	ErrMissingVersionTag    = errors.New("schema: missing version tag")
	ErrIncompatibleVersion  = errors.New("schema: incompatible version")
	ErrUnknownVersion       = protocol.ErrUnknownVersion
	ErrMissingRequiredField = errors.New("schema: missing required field")
	ErrFieldValueMismatch   = errors.New("schema: field value mismatch")
	ErrInvalidCriterion     = errors.New("schema: invalid criterion")
)

// ValidationError describes the first violation found by Validate. Kind is one
// of the sentinels above and is what errors.Is matches against.
type ValidationError struct {
	Kind     error
	Tag      string
	Expected string
	Actual   string
	Reason   string
}

func (e ValidationError) Error() string {
	msg := e.Reason
	if e.Expected != "" || e.Actual != "" {
		msg = fmt.Sprintf("%s: expected=%s, actual=%s", msg, e.Expected, e.Actual)
	}
	if e.Tag == "" {
		return fmt.Sprintf("%v: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%v: tag=%s: %s", e.Kind, e.Tag, msg)
}

func (e ValidationError) Unwrap() error { return e.Kind }

// Code is a stable snake_case name for e.Kind.
func (e ValidationError) Code() string {
	switch e.Kind {
	case ErrEmptyMessage:
		return "empty_message"
	case ErrMissingVersionTag:
		return "missing_version_tag"
	case ErrIncompatibleVersion:
		return "incompatible_version"
	case ErrUnknownVersion:
		return "unknown_version"
	case ErrMissingRequiredField:
		return "missing_required_field"
	case ErrFieldValueMismatch:
		return "field_value_mismatch"
	case ErrInvalidCriterion:
		return "invalid_criterion"
	default:
		return "invalid"
	}
}
