package converter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/protocol/frame"
	"github.com/danmuck/fixconv/internal/record"
)

const maxLineBytes = 1 << 20

// Sink receives every converted record with its Avro encoding. A sink error
// stops the batch.
type Sink func(rec record.Record, payload []byte) error

// ItemError is the failure of one input message. Item is 1-based.
type ItemError struct {
	Item int
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Item, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

type BatchReport struct {
	Total     int
	Converted int
	Failed    int
	Skipped   int
	Errors    []ItemError
}

// ConvertBatch converts one message per line. Blank lines are skipped and a
// failed line is reported without stopping the batch.
func (c *Converter) ConvertBatch(ctx context.Context, r io.Reader, version protocol.Version, sink Sink) (BatchReport, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return c.run(ctx, version, sink, func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return scanner.Text(), nil
	})
}

// ConvertFrames converts a stream of SOH delimited messages, such as a FIX
// session log, using BodyLength to find message boundaries. A broken envelope
// stops the stream since the next boundary cannot be found.
func (c *Converter) ConvertFrames(ctx context.Context, r io.Reader, version protocol.Version, sink Sink) (BatchReport, error) {
	br := bufio.NewReader(r)
	limits := frame.DefaultLimits()
	return c.run(ctx, version, sink, func() (string, error) {
		f, err := frame.ReadFrame(br, limits)
		if err != nil {
			return "", err
		}
		return string(f.Raw), nil
	})
}

func (c *Converter) run(ctx context.Context, version protocol.Version, sink Sink, next func() (string, error)) (BatchReport, error) {
	var report BatchReport
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		raw, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("converter: read item %d: %w", report.Total+1, err)
		}
		report.Total++
		if strings.TrimSpace(raw) == "" {
			report.Skipped++
			continue
		}

		rec, err := c.Convert(raw, version)
		var payload []byte
		if err == nil {
			payload, err = c.codec.Encode(rec)
			if err != nil {
				err = serializationFailed(version.ID(), err)
			}
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, ItemError{Item: report.Total, Err: err})
			continue
		}
		if sink != nil {
			if err := sink(rec, payload); err != nil {
				return report, fmt.Errorf("converter: sink item %d: %w", report.Total, err)
			}
		}
		report.Converted++
	}

	c.logger.Info().
		Str("version", version.ID()).
		Int("total", report.Total).
		Int("converted", report.Converted).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("converter batch complete")
	return report, nil
}
