package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/danmuck/fixconv/internal/record"
)

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	in := fs.String("in", "-", "input file (- for stdin)")
	format := fs.String("format", formatOCF, "input format: ocf|avro")
	if err := fs.Parse(args); err != nil {
		return err
	}
	src, closeIn, err := openInput(*in, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	codec, err := record.DefaultCodec()
	if err != nil {
		return err
	}

	var records []record.Record
	switch *format {
	case formatOCF:
		records, err = record.ReadContainer(src)
	case formatAvro:
		var b []byte
		if b, err = io.ReadAll(src); err == nil {
			records, err = codec.DecodeAll(b)
		}
	default:
		return fmt.Errorf("unknown format %q (want ocf or avro)", *format)
	}
	if err != nil {
		return err
	}

	for _, rec := range records {
		b, err := codec.Textual(rec)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(stdout, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}
