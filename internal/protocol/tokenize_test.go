package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/fixconv/internal/testutil/testlog"
)

func TestParseSplitsPipeDelimitedMessage(t *testing.T) {
	testlog.Start(t)
	fields, err := Parse("8=FIX.4.4|9=123|35=D|49=SenderCompID|56=TargetCompID|")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Fields{"8": "FIX.4.4", "9": "123", "35": "D", "49": "SenderCompID", "56": "TargetCompID"}
	if !reflect.DeepEqual(fields, want) {
		t.Fatalf("unexpected fields: %#v", fields)
	}
}

func TestParseAcceptsSOHDelimiter(t *testing.T) {
	testlog.Start(t)
	fields, err := Parse("8=FIX.4.4\x0135=D\x0111=abc\x01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields["35"] != "D" || fields["11"] != "abc" {
		t.Fatalf("unexpected fields: %#v", fields)
	}
}

func TestParseDropsMalformedChunks(t *testing.T) {
	testlog.Start(t)
	res, err := ParseDetailed("8=FIX.4.4|9=123|35=D|||49=SenderCompID|garbage|=orphan|58= |")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := res.Fields[""]; ok {
		t.Fatalf("empty tag must never be stored")
	}
	for tag, want := range map[string]string{"8": "FIX.4.4", "35": "D", "49": "SenderCompID"} {
		if res.Fields[tag] != want {
			t.Fatalf("tag %s = %q want %q", tag, res.Fields[tag], want)
		}
	}
	if res.Fields.Has("58") {
		t.Fatalf("blank value must be dropped")
	}
	wantSkipped := []string{"", "", "garbage", "=orphan", "58= ", ""}
	if !reflect.DeepEqual(res.Skipped, wantSkipped) {
		t.Fatalf("unexpected skipped chunks: %#v", res.Skipped)
	}
}

func TestParseSplitsOnFirstEquals(t *testing.T) {
	testlog.Start(t)
	fields, err := Parse("58=a=b=c|")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields["58"] != "a=b=c" {
		t.Fatalf("unexpected value: %q", fields["58"])
	}
}

func TestParseTrimsMultilineInput(t *testing.T) {
	testlog.Start(t)
	raw := `
      8=FIX.4.4|9=123|35=XX|49=SenderCompID|56=TargetCompID|34=1|
      52=20231208-12:34:56|11=Order123|54=1|10=94|
        `
	fields, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields["8"] != "FIX.4.4" || fields["52"] != "20231208-12:34:56" || fields["10"] != "94" {
		t.Fatalf("unexpected fields: %#v", fields)
	}
}

func TestParseDuplicateTagLastWins(t *testing.T) {
	testlog.Start(t)
	fields, err := Parse("35=D|35=G|")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields["35"] != "G" {
		t.Fatalf("expected last value to win, got %q", fields["35"])
	}
}

func TestParseRejectsEmptyInput(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"", "   ", "\n\t"} {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Parse(%q) expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestParseDeterministicAndIdempotent(t *testing.T) {
	testlog.Start(t)
	raw := "8=FIX.4.4|35=D|11=Order123|54=1|38=100|55=AAPL|10=241|"
	first, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse is not deterministic")
	}
	again, err := Parse(first.Format(Pipe))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("reparse mismatch: %#v vs %#v", first, again)
	}
}

func TestFieldsTagsNumericOrder(t *testing.T) {
	fields := Fields{"10": "1", "8": "2", "35": "3", "9": "4", "abc": "5"}
	got := fields.Tags()
	want := []string{"8", "9", "10", "35", "abc"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %v", got)
	}
	if got := fields.Format(SOH); got != "8=2\x019=4\x0110=1\x0135=3\x01abc=5\x01" {
		t.Fatalf("unexpected format: %q", got)
	}
}
