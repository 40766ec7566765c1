package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/fixconv/internal/testutil/testlog"
)

func sampleRecord() Record {
	return Record{
		BeginString:  "FIX.4.4",
		BodyLength:   "104",
		MsgType:      "D",
		SenderCompID: "SenderCompID",
		TargetCompID: "TargetCompID",
		MsgSeqNum:    "1",
		SendingTime:  "20231208-12:34:56",
		Fields:       map[string]string{"8": "FIX.4.4", "35": "D", "11": "Order123", "55": "AAPL"},
		CheckSum:     "241",
	}
}

func TestDefaultSchemaFieldOrder(t *testing.T) {
	testlog.Start(t)
	var doc struct {
		Name   string `json:"name"`
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(DefaultSchema), &doc); err != nil {
		t.Fatalf("schema json: %v", err)
	}
	var names []string
	for _, f := range doc.Fields {
		names = append(names, f.Name)
	}
	want := []string{"beginString", "bodyLength", "msgType", "senderCompID", "targetCompID", "msgSeqNum", "sendingTime", "fields", "checkSum"}
	if doc.Name != "FixMessage" || !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected schema: %s %v", doc.Name, names)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	testlog.Start(t)
	codec, err := DefaultCodec()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	in := sampleRecord()
	b, err := codec.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("empty encoding")
	}
	out, err := codec.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	testlog.Start(t)
	codec, err := DefaultCodec()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	rec := sampleRecord()
	rec.Fields = map[string]string{"8": "FIX.4.4"}
	a, _ := codec.Encode(rec)
	b, _ := codec.Encode(rec)
	if !bytes.Equal(a, b) {
		t.Fatalf("single-entry map encoding must be stable")
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	testlog.Start(t)
	codec, _ := DefaultCodec()
	b, err := codec.Encode(sampleRecord())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := codec.Decode(append(b, 0x00)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if _, err := codec.Decode(b[:len(b)/2]); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode on truncated input, got %v", err)
	}
}

func TestEncodeRejectsSchemaMismatch(t *testing.T) {
	testlog.Start(t)
	codec, err := NewCodec(`{"type":"record","name":"Other","fields":[{"name":"id","type":"long"}]}`)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	if _, err := codec.Encode(sampleRecord()); !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}

func TestNewCodecInvalidSchema(t *testing.T) {
	testlog.Start(t)
	if _, err := NewCodec(`{"type":"nope"}`); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestFromNativeRejectsWrongShape(t *testing.T) {
	testlog.Start(t)
	if _, err := FromNative("x"); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	native := sampleRecord().Native()
	native["msgType"] = 35
	if _, err := FromNative(native); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for non-string attribute, got %v", err)
	}
	native = sampleRecord().Native()
	native["fields"] = map[string]any{"11": 7}
	if _, err := FromNative(native); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for non-string map value, got %v", err)
	}
}

func TestTextual(t *testing.T) {
	testlog.Start(t)
	codec, _ := DefaultCodec()
	rec := sampleRecord()
	b, err := codec.Textual(rec)
	if err != nil {
		t.Fatalf("textual: %v", err)
	}
	var got Record
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json: %v (%s)", err, b)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Fatalf("textual mismatch: %+v", got)
	}
}

func TestClone(t *testing.T) {
	rec := sampleRecord()
	c := rec.Clone()
	c.Fields["11"] = "changed"
	if rec.Fields["11"] != "Order123" {
		t.Fatalf("clone shares the field map")
	}
}

func TestContainerRoundTrip(t *testing.T) {
	testlog.Start(t)
	codec, _ := DefaultCodec()
	for _, compression := range []string{"null", "deflate", "snappy"} {
		var buf bytes.Buffer
		w, err := NewContainerWriter(&buf, codec, compression)
		if err != nil {
			t.Fatalf("%s: writer: %v", compression, err)
		}
		first := sampleRecord()
		second := sampleRecord()
		second.MsgType = "F"
		second.Fields = map[string]string{"35": "F"}
		if err := w.Append(first, second); err != nil {
			t.Fatalf("%s: append: %v", compression, err)
		}
		got, err := ReadContainer(&buf)
		if err != nil {
			t.Fatalf("%s: read: %v", compression, err)
		}
		if len(got) != 2 || !reflect.DeepEqual(got[0], first) || !reflect.DeepEqual(got[1], second) {
			t.Fatalf("%s: unexpected records: %+v", compression, got)
		}
	}
}

func TestContainerRejectsUnknownCompression(t *testing.T) {
	testlog.Start(t)
	codec, _ := DefaultCodec()
	if _, err := NewContainerWriter(&bytes.Buffer{}, codec, "lz4"); err == nil {
		t.Fatalf("expected compression error")
	}
	if ValidCompression("lz4") || !ValidCompression("deflate") {
		t.Fatalf("unexpected ValidCompression result")
	}
}

func TestDecodeAll(t *testing.T) {
	testlog.Start(t)
	codec, _ := DefaultCodec()
	first := sampleRecord()
	second := sampleRecord()
	second.MsgType = "F"
	a, _ := codec.Encode(first)
	b, _ := codec.Encode(second)

	got, err := codec.DecodeAll(append(a, b...))
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(got) != 2 || got[0].MsgType != "D" || got[1].MsgType != "F" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got, err := codec.DecodeAll(nil); err != nil || len(got) != 0 {
		t.Fatalf("empty input = %v,%v", got, err)
	}
	if _, err := codec.DecodeAll(append(a, b[:len(b)/2]...)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode on truncated stream, got %v", err)
	}
}
