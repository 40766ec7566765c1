package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/fixconv/internal/converter"
	"github.com/danmuck/fixconv/internal/record"
	"github.com/danmuck/fixconv/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	formatJSON = "json"
	formatAvro = "avro"
	formatOCF  = "ocf"
)

var errItemsFailed = errors.New("some messages failed to convert")

func runConvert(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to fixconv.toml")
	versionID := fs.String("version", "", "FIX version id (defaults to config default_version)")
	in := fs.String("in", "-", "input file, one message per line (- for stdin)")
	out := fs.String("out", "-", "output file (- for stdout)")
	format := fs.String("format", formatJSON, "output format: json|avro|ocf")
	compression := fs.String("compression", "", "ocf block compression: null|deflate|snappy (defaults to config)")
	framed := fs.Bool("framed", false, "input is a raw SOH stream split by BodyLength instead of lines")
	databaseURL := fs.String("database-url", "", "also store records in Postgres (defaults to config/env)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	_, version, err := resolveVersion(cfg, *versionID)
	if err != nil {
		return err
	}
	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}

	var src io.Reader
	if fs.NArg() > 0 {
		src = strings.NewReader(strings.Join(fs.Args(), "\n"))
	} else {
		r, closeIn, err := openInput(*in, stdin)
		if err != nil {
			return err
		}
		defer closeIn()
		src = r
	}

	dst, closeOut, err := openOutput(*out, stdout)
	if err != nil {
		return err
	}

	if *compression == "" {
		*compression = cfg.Output.Compression
	}
	sink, flush, err := formatSink(*format, dst, conv.Codec(), *compression)
	if err != nil {
		_ = closeOut()
		return err
	}

	dbURL := *databaseURL
	if dbURL == "" {
		dbURL = cfg.Database.URL
	}
	if dbURL != "" {
		pool, err := store.Connect(ctx, dbURL, store.DefaultBackoff())
		if err != nil {
			_ = closeOut()
			return err
		}
		defer pool.Close()
		st := store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = closeOut()
			return err
		}
		sink = chainSinks(sink, st.Sink(ctx, version.ID()))
	}

	batch := conv.ConvertBatch
	if *framed {
		batch = conv.ConvertFrames
	}
	report, err := batch(ctx, src, version, sink)
	if ferr := flush(); err == nil {
		err = ferr
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	for _, item := range report.Errors {
		log.Warn().Int("item", item.Item).Err(item.Err).Msg("fixconv convert failed")
	}
	log.Info().
		Str("version", version.ID()).
		Str("format", *format).
		Int("converted", report.Converted).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("fixconv convert done")
	if report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errItemsFailed, report.Failed, report.Total-report.Skipped)
	}
	return nil
}

// formatSink returns the sink writing records to w in format and a flush to
// call once the batch is done.
func formatSink(format string, w io.Writer, codec *record.Codec, compression string) (converter.Sink, func() error, error) {
	noFlush := func() error { return nil }
	switch format {
	case formatJSON:
		return func(rec record.Record, _ []byte) error {
			b, err := codec.Textual(rec)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "%s\n", b)
			return err
		}, noFlush, nil
	case formatAvro:
		return func(_ record.Record, payload []byte) error {
			_, err := w.Write(payload)
			return err
		}, noFlush, nil
	case formatOCF:
		cw, err := record.NewContainerWriter(w, codec, compression)
		if err != nil {
			return nil, nil, err
		}
		// Records are buffered so the container gets one block per run. They
		// outlive the sink call, so each is cloned.
		var pending []record.Record
		return func(rec record.Record, _ []byte) error {
				pending = append(pending, rec.Clone())
				return nil
			}, func() error {
				return cw.Append(pending...)
			}, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %q (want json, avro or ocf)", format)
	}
}

func chainSinks(sinks ...converter.Sink) converter.Sink {
	return func(rec record.Record, payload []byte) error {
		for _, s := range sinks {
			if err := s(rec, payload); err != nil {
				return err
			}
		}
		return nil
	}
}
