package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/testutil/testlog"
)

func TestValidateAcceptsMatchingCriteria(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4", "35": "D", "54": "1"}
	criteria := Criteria{
		"8":  Exact("FIX.4.4"),
		"35": OneOf("D", "G"),
		"54": OneOf("1", "2"),
	}
	if err := Validate(fields, protocol.FIX44, criteria); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateIgnoresFieldsWithoutCriteria(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4", "35": "D", "999": "TESTE"}
	if err := Validate(fields, protocol.FIX44, Criteria{"35": Exact("D")}); err != nil {
		t.Fatalf("validate with extra field: %v", err)
	}
	if err := Validate(fields, protocol.FIX44, nil); err != nil {
		t.Fatalf("validate with nil criteria: %v", err)
	}
}

func TestValidateMissingRequiredField(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4", "35": "D"}
	err := Validate(fields, protocol.FIX44, Criteria{"9": Exact("123")})
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Tag != "9" {
		t.Fatalf("unexpected tag: %q", verr.Tag)
	}
}

func TestValidateIncompatibleVersion(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.3", "35": "D"}
	err := Validate(fields, protocol.FIX44, nil)
	if !errors.Is(err, ErrIncompatibleVersion) {
		t.Fatalf("expected ErrIncompatibleVersion, got %v", err)
	}
	var verr ValidationError
	if !errors.As(err, &verr) || verr.Expected != "FIX.4.4" || verr.Actual != "FIX.4.3" {
		t.Fatalf("unexpected detail: %+v", verr)
	}
}

func TestValidateEmptyMessage(t *testing.T) {
	testlog.Start(t)
	if err := Validate(protocol.Fields{}, protocol.FIX44, nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if err := Validate(nil, protocol.FIX44, nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage for nil, got %v", err)
	}
}

func TestValidateMissingVersionTag(t *testing.T) {
	testlog.Start(t)
	err := Validate(protocol.Fields{"35": "D"}, protocol.FIX44, nil)
	if !errors.Is(err, ErrMissingVersionTag) {
		t.Fatalf("expected ErrMissingVersionTag, got %v", err)
	}
}

func TestValidateUnknownVersion(t *testing.T) {
	testlog.Start(t)
	err := Validate(protocol.Fields{"8": "FIX.4.3"}, protocol.NewVersion("43", "FIX43.xml"), nil)
	if !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
	if !errors.Is(err, protocol.ErrUnknownVersion) {
		t.Fatalf("schema and protocol must share the unknown version sentinel")
	}
}

func TestValidateFieldValueMismatch(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4", "35": "F", "54": "1"}

	err := Validate(fields, protocol.FIX44, Criteria{"35": OneOf("D", "G")})
	if !errors.Is(err, ErrFieldValueMismatch) {
		t.Fatalf("expected ErrFieldValueMismatch, got %v", err)
	}
	var verr ValidationError
	if !errors.As(err, &verr) || verr.Tag != "35" || verr.Actual != "F" || verr.Expected != "one of [D G]" {
		t.Fatalf("unexpected detail: %+v", verr)
	}

	err = Validate(fields, protocol.FIX44, Criteria{"54": Exact("2")})
	if !errors.Is(err, ErrFieldValueMismatch) {
		t.Fatalf("expected ErrFieldValueMismatch for exact, got %v", err)
	}
}

func TestValidateInvalidCriterion(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4", "35": "D"}
	for name, c := range map[string]Criterion{
		"number":     CriterionFrom(42),
		"empty list": OneOf(),
		"mixed list": CriterionFrom([]any{"D", 1}),
	} {
		err := Validate(fields, protocol.FIX44, Criteria{"35": c})
		if !errors.Is(err, ErrInvalidCriterion) {
			t.Fatalf("%s: expected ErrInvalidCriterion, got %v", name, err)
		}
	}
}

func TestValidateAbsentTagReportedBeforeInvalidCriterion(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4"}
	err := Validate(fields, protocol.FIX44, Criteria{"55": Invalid()})
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
}

func TestValidateFirstViolationInTagOrder(t *testing.T) {
	testlog.Start(t)
	fields := protocol.Fields{"8": "FIX.4.4", "35": "D"}
	criteria := Criteria{"100": Exact("x"), "11": Exact("y"), "9": Exact("z")}
	for i := 0; i < 10; i++ {
		var verr ValidationError
		if err := Validate(fields, protocol.FIX44, criteria); !errors.As(err, &verr) || verr.Tag != "9" {
			t.Fatalf("expected first violation on tag 9, got %v", err)
		}
	}
}

func TestParseCriteriaYAML(t *testing.T) {
	testlog.Start(t)
	data := []byte(`
"8": FIX.4.4
35: [D, G]
54:
  - 1
  - 2
58: ~
59: []
`)
	c, err := ParseCriteria(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c["8"].Kind() != CriterionExact || c["8"].String() != "FIX.4.4" {
		t.Fatalf("unexpected tag 8 criterion: %v", c["8"])
	}
	if c["35"].Kind() != CriterionOneOf || !c["35"].Matches("G") {
		t.Fatalf("unexpected tag 35 criterion: %v", c["35"])
	}
	if !c["54"].Matches("2") || c["54"].Matches("3") {
		t.Fatalf("numeric scalars must keep literal text: %v", c["54"])
	}
	if c["58"].Kind() != CriterionInvalid || c["59"].Kind() != CriterionInvalid {
		t.Fatalf("null and empty list must be invalid")
	}
}

func TestParseCriteriaRejectsNonMapping(t *testing.T) {
	testlog.Start(t)
	if _, err := ParseCriteria([]byte("- 35\n- 54\n")); err == nil {
		t.Fatalf("expected error for sequence document")
	}
	c, err := ParseCriteria(nil)
	if err != nil || len(c) != 0 {
		t.Fatalf("empty document = %v,%v", c, err)
	}
}

func TestLoadCriteriaFile(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	if err := os.WriteFile(path, []byte("35: D\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadCriteria(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c["35"].Matches("D") {
		t.Fatalf("unexpected criteria: %v", c)
	}
	if _, err := LoadCriteria(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCriteriaFromMap(t *testing.T) {
	testlog.Start(t)
	c := CriteriaFromMap(map[string]any{
		"35": []any{"D", "G"},
		"54": "1",
		"38": int64(100),
	})
	if c["35"].Kind() != CriterionOneOf || c["54"].Kind() != CriterionExact || c["38"].Kind() != CriterionInvalid {
		t.Fatalf("unexpected kinds: %v", c)
	}
	values := c["35"].Values()
	values[0] = "X"
	if !c["35"].Matches("D") {
		t.Fatalf("Values must return a copy")
	}
}

func TestValidationErrorCode(t *testing.T) {
	testlog.Start(t)
	err := Validate(protocol.Fields{"8": "FIX.4.4"}, protocol.FIX44, Criteria{"9": Exact("1")})
	var verr ValidationError
	if !errors.As(err, &verr) || verr.Code() != "missing_required_field" {
		t.Fatalf("unexpected code for %v", err)
	}
	if (ValidationError{Kind: ErrUnknownVersion}).Code() != "unknown_version" {
		t.Fatalf("unexpected code for unknown version")
	}
}
