// Package schema validates tokenized FIX fields against a protocol version and
// caller supplied criteria.
package schema

import (
	"fmt"

	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/rs/zerolog/log"
)

// TagBeginString identifies the protocol version of a message.
const TagBeginString = "8"

// Validate checks emptiness, then the version, then every criterion in tag
// order, and returns the first violation. Fields without a criterion are
// ignored.
func Validate(fields protocol.Fields, version protocol.Version, criteria Criteria) error {
	log.Debug().
		Str("version", version.ID()).
		Int("fields", len(fields)).
		Int("criteria", len(criteria)).
		Msg("schema.Validate")
	if len(fields) == 0 {
		return fail(ValidationError{Kind: ErrEmptyMessage, Reason: "the FIX message cannot be empty"})
	}
	if err := ValidateVersion(fields, version); err != nil {
		return err
	}
	for _, tag := range criteria.Tags() {
		if err := checkCriterion(fields, tag, criteria[tag]); err != nil {
			return fail(*err)
		}
	}
	log.Debug().Str("version", version.ID()).Msg("schema.Validate ok")
	return nil
}

// ValidateVersion checks that BeginString (tag 8) matches the version.
func ValidateVersion(fields protocol.Fields, version protocol.Version) error {
	actual, ok := fields[TagBeginString]
	if !ok {
		return fail(ValidationError{
			Kind:   ErrMissingVersionTag,
			Tag:    TagBeginString,
			Reason: "the FIX message does not contain the BeginString tag (8)",
		})
	}
	expected, err := version.BeginString()
	if err != nil {
		return fail(ValidationError{
			Kind:   ErrUnknownVersion,
			Tag:    TagBeginString,
			Reason: fmt.Sprintf("unknown FIX version %q", version.ID()),
		})
	}
	if actual != expected {
		return fail(ValidationError{
			Kind:     ErrIncompatibleVersion,
			Tag:      TagBeginString,
			Expected: expected,
			Actual:   actual,
			Reason:   "FIX message incompatible with version " + expected,
		})
	}
	return nil
}

func checkCriterion(fields protocol.Fields, tag string, c Criterion) *ValidationError {
	actual, ok := fields[tag]
	if !ok {
		return &ValidationError{
			Kind:   ErrMissingRequiredField,
			Tag:    tag,
			Reason: "the required field is missing: tag " + tag,
		}
	}
	switch c.Kind() {
	case CriterionExact:
		if !c.Matches(actual) {
			return &ValidationError{
				Kind:     ErrFieldValueMismatch,
				Tag:      tag,
				Expected: c.String(),
				Actual:   actual,
				Reason:   "the field has an invalid value",
			}
		}
	case CriterionOneOf:
		if !c.Matches(actual) {
			return &ValidationError{
				Kind:     ErrFieldValueMismatch,
				Tag:      tag,
				Expected: "one of " + c.String(),
				Actual:   actual,
				Reason:   "the field has an invalid value",
			}
		}
	default:
		return &ValidationError{
			Kind:   ErrInvalidCriterion,
			Tag:    tag,
			Reason: "invalid validation criterion for tag " + tag,
		}
	}
	return nil
}

func fail(e ValidationError) error {
	log.Warn().
		Str("tag", e.Tag).
		Str("expected", e.Expected).
		Str("actual", e.Actual).
		Msgf("schema.Validate %v", e.Kind)
	return e
}
