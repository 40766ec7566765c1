package record

import (
	"fmt"
	"io"

	"github.com/linkedin/goavro/v2"
)

// ValidCompression reports whether name is an OCF block codec goavro supports.
func ValidCompression(name string) bool {
	switch name {
	case "", goavro.CompressionNullLabel, goavro.CompressionDeflateLabel, goavro.CompressionSnappyLabel:
		return true
	}
	return false
}

// ContainerWriter appends Records to an Avro object container file.
type ContainerWriter struct {
	ocf *goavro.OCFWriter
}

func NewContainerWriter(w io.Writer, codec *Codec, compression string) (*ContainerWriter, error) {
	if !ValidCompression(compression) {
		return nil, fmt.Errorf("record: unsupported compression %q", compression)
	}
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Schema:          codec.Schema(),
		CompressionName: compression,
	})
	if err != nil {
		return nil, fmt.Errorf("record: open container: %w", err)
	}
	return &ContainerWriter{ocf: ocf}, nil
}

// Append writes records as one block.
func (cw *ContainerWriter) Append(records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	natives := make([]any, len(records))
	for i, r := range records {
		natives[i] = r.Native()
	}
	if err := cw.ocf.Append(natives); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// ReadContainer returns every record in an object container file.
func ReadContainer(r io.Reader) ([]Record, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open container: %w", ErrDecode, err)
	}
	var out []Record
	for ocf.Scan() {
		native, err := ocf.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		rec, err := FromNative(native)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := ocf.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}
