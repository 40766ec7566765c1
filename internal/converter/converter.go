// Package converter turns raw FIX text into record.Record values and Avro
// bytes using the engine and the default record codec.
package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/fixconv/internal/observability"
	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/protocol/engine"
	"github.com/danmuck/fixconv/internal/protocol/schema"
	"github.com/danmuck/fixconv/internal/record"
	"github.com/quickfixgo/quickfix"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	opConvert  = "convert"
	opBytes    = "bytes"
	opValidate = "validate"
)

type Converter struct {
	engine  *engine.Engine
	codec   *record.Codec
	logger  zerolog.Logger
	metrics bool
}

type Option func(*Converter)

func WithEngine(e *engine.Engine) Option {
	return func(c *Converter) { c.engine = e }
}

// WithCodec replaces the default record codec used by ConvertToBytes.
func WithCodec(codec *record.Codec) Option {
	return func(c *Converter) { c.codec = codec }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

func WithMetrics(enabled bool) Option {
	return func(c *Converter) { c.metrics = enabled }
}

func New(opts ...Option) (*Converter, error) {
	c := &Converter{logger: log.Logger, metrics: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = engine.New()
	}
	if c.codec == nil {
		codec, err := record.DefaultCodec()
		if err != nil {
			return nil, fmt.Errorf("converter: %w", err)
		}
		c.codec = codec
	}
	return c, nil
}

// Codec is the codec ConvertToBytes encodes with.
func (c *Converter) Codec() *record.Codec {
	return c.codec
}

// Convert parses raw with the version's active dictionary and maps it into
// a Record.
func (c *Converter) Convert(raw string, version protocol.Version) (record.Record, error) {
	start := time.Now()
	rec, err := c.convert(raw, version)
	c.observe(version, opConvert, start, err)
	return rec, err
}

// ConvertToBytes is Convert followed by an Avro binary encode.
func (c *Converter) ConvertToBytes(raw string, version protocol.Version) ([]byte, error) {
	start := time.Now()
	b, err := c.convertToBytes(raw, version)
	c.observe(version, opBytes, start, err)
	return b, err
}

// Validate tokenizes raw and checks it against version and criteria.
func (c *Converter) Validate(raw string, version protocol.Version, criteria schema.Criteria) error {
	fields, err := protocol.Parse(raw)
	if err != nil {
		return err
	}
	err = schema.Validate(fields, version, criteria)
	if c.metrics {
		label := "ok"
		if err != nil {
			label = "invalid"
		}
		observability.RecordValidation(version.ID(), label)
	}
	return err
}

// ValidateAndConvert runs Validate and then Convert. Validation errors are
// returned as is.
func (c *Converter) ValidateAndConvert(raw string, version protocol.Version, criteria schema.Criteria) (record.Record, error) {
	if err := c.Validate(raw, version, criteria); err != nil {
		c.logger.Warn().Err(err).Str("version", version.ID()).Str("op", opValidate).Msg("converter validation failed")
		return record.Record{}, err
	}
	return c.Convert(raw, version)
}

func (c *Converter) convertToBytes(raw string, version protocol.Version) ([]byte, error) {
	rec, err := c.convert(raw, version)
	if err != nil {
		return nil, err
	}
	b, err := c.codec.Encode(rec)
	if err != nil {
		return nil, serializationFailed(version.ID(), err)
	}
	return b, nil
}

func (c *Converter) convert(raw string, version protocol.Version) (record.Record, error) {
	if strings.TrimSpace(raw) == "" {
		return record.Record{}, conversionFailed(version.ID(), protocol.ErrInvalidInput)
	}
	ref, err := version.SchemaReference()
	if err != nil {
		return record.Record{}, conversionFailed(version.ID(), err)
	}
	msg, err := c.engine.Parse(protocol.Normalize(raw), ref)
	if err != nil {
		return record.Record{}, conversionFailed(version.ID(), err)
	}
	rec, err := buildRecord(msg)
	if err != nil {
		return record.Record{}, conversionFailed(version.ID(), err)
	}
	return rec, nil
}

func buildRecord(msg *quickfix.Message) (record.Record, error) {
	var rec record.Record
	header := []struct {
		tag quickfix.Tag
		dst *string
	}{
		{engine.TagBeginString, &rec.BeginString},
		{engine.TagBodyLength, &rec.BodyLength},
		{engine.TagMsgType, &rec.MsgType},
		{engine.TagSenderCompID, &rec.SenderCompID},
		{engine.TagTargetCompID, &rec.TargetCompID},
		{engine.TagMsgSeqNum, &rec.MsgSeqNum},
		{engine.TagSendingTime, &rec.SendingTime},
	}
	for _, h := range header {
		v, err := engine.HeaderString(msg, h.tag)
		if err != nil {
			return record.Record{}, err
		}
		*h.dst = v
	}
	cs, err := engine.TrailerString(msg, engine.TagCheckSum)
	if err != nil {
		return record.Record{}, err
	}
	rec.CheckSum = cs
	rec.Fields = engine.FieldMap(msg)
	return rec, nil
}

func (c *Converter) observe(version protocol.Version, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	if c.metrics {
		observability.RecordConversion(version.ID(), op, outcome(err), elapsed)
	}
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("version", version.ID()).
			Str("op", op).
			Dur("duration", elapsed).
			Msg("converter failed")
		return
	}
	c.logger.Debug().
		Str("version", version.ID()).
		Str("op", op).
		Dur("duration", elapsed).
		Msg("converter ok")
}
