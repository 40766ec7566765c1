package record

import (
	"fmt"
	"sync"

	"github.com/linkedin/goavro/v2"
)

// Codec encodes Records with one Avro schema.
type Codec struct {
	codec *goavro.Codec
}

func NewCodec(schema string) (*Codec, error) {
	c, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("record: compile schema: %w", err)
	}
	return &Codec{codec: c}, nil
}

var (
	defaultOnce  sync.Once
	defaultCodec *Codec
	defaultErr   error
)

// DefaultCodec is the shared codec for DefaultSchema.
func DefaultCodec() (*Codec, error) {
	defaultOnce.Do(func() {
		defaultCodec, defaultErr = NewCodec(DefaultSchema)
	})
	return defaultCodec, defaultErr
}

// Schema returns the canonical form of the codec's schema.
func (c *Codec) Schema() string {
	return c.codec.Schema()
}

// Encode writes r as Avro binary.
func (c *Codec) Encode(r Record) ([]byte, error) {
	b, err := c.codec.BinaryFromNative(nil, r.Native())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

// Decode reads exactly one record from b.
func (c *Codec) Decode(b []byte) (Record, error) {
	native, rest, err := c.codec.NativeFromBinary(b)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(rest) != 0 {
		return Record{}, fmt.Errorf("%w: %d trailing bytes", ErrDecode, len(rest))
	}
	return FromNative(native)
}

// Textual writes r in the Avro JSON encoding.
func (c *Codec) Textual(r Record) ([]byte, error) {
	b, err := c.codec.TextualFromNative(nil, r.Native())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

// DecodeAll reads back to back records until b is exhausted.
func (c *Codec) DecodeAll(b []byte) ([]Record, error) {
	var out []Record
	for len(b) > 0 {
		native, rest, err := c.codec.NativeFromBinary(b)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrDecode, len(out)+1, err)
		}
		rec, err := FromNative(native)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		b = rest
	}
	return out, nil
}
