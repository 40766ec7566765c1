// Package engine adapts quickfixgo for one-shot parsing of FIX messages
// against a data dictionary file.
package engine

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/danmuck/fixconv/internal/protocol"
	"github.com/danmuck/fixconv/internal/protocol/frame"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/datadictionary"
	"github.com/rs/zerolog/log"
)

type Engine struct {
	verifyChecksum   bool
	verifyBodyLength bool
	verifyMsgType    bool

	mu    sync.Mutex
	dicts map[string]*datadictionary.DataDictionary
}

type Option func(*Engine)

// WithVerifyChecksum toggles the CheckSum (10) comparison.
func WithVerifyChecksum(v bool) Option {
	return func(e *Engine) { e.verifyChecksum = v }
}

// WithVerifyBodyLength toggles the BodyLength (9) pre-check. quickfix still
// rejects a wrong length during parsing; this only controls the early,
// more specific error.
func WithVerifyBodyLength(v bool) Option {
	return func(e *Engine) { e.verifyBodyLength = v }
}

// WithVerifyMsgType toggles rejecting a MsgType the dictionary does not define.
// Off by default: an unknown type still converts using its raw fields.
func WithVerifyMsgType(v bool) Option {
	return func(e *Engine) { e.verifyMsgType = v }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		verifyChecksum:   true,
		verifyBodyLength: true,
		verifyMsgType:    false,
		dicts:            make(map[string]*datadictionary.DataDictionary),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dictionary loads and caches the data dictionary at ref.
func (e *Engine) Dictionary(ref string) (*datadictionary.DataDictionary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if dd, ok := e.dicts[ref]; ok {
		return dd, nil
	}
	dd, err := datadictionary.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrConfig, ref, err)
	}
	e.dicts[ref] = dd
	log.Info().
		Str("ref", ref).
		Str("fix", fmt.Sprintf("%s.%d.%d", dd.FIXType, dd.Major, dd.Minor)).
		Int("messages", len(dd.Messages)).
		Msg("engine dictionary loaded")
	return dd, nil
}

// Parse checks the envelope of raw and parses it with the dictionary at ref.
// Pipes are accepted in place of SOH.
func (e *Engine) Parse(raw, ref string) (*quickfix.Message, error) {
	dd, err := e.Dictionary(ref)
	if err != nil {
		return nil, err
	}

	data := Normalize(raw)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidMessage)
	}
	f, err := frame.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	checks := frame.Checks{BodyLength: e.verifyBodyLength, CheckSum: e.verifyChecksum}
	if err := f.Verify(checks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	msg := quickfix.NewMessage()
	if err := quickfix.ParseMessageWithDataDictionary(msg, bytes.NewBuffer(data), dd, dd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if e.verifyMsgType {
		msgType, rerr := msg.Header.GetString(TagMsgType)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, rerr)
		}
		if _, ok := dd.Messages[msgType]; !ok {
			return nil, fmt.Errorf("%w: msgtype %q is not defined in %s", ErrInvalidMessage, msgType, ref)
		}
	}

	log.Debug().
		Str("ref", ref).
		Str("begin_string", f.BeginString).
		Int("body_length", f.BodyLength).
		Msg("engine.Parse")
	return msg, nil
}

// Normalize converts pipes to SOH, trims surrounding whitespace and makes
// sure the message ends with SOH.
func Normalize(raw string) []byte {
	s := strings.TrimSpace(protocol.Normalize(raw))
	if s == "" {
		return nil
	}
	if s[len(s)-1] != frame.SOH {
		s += string(frame.SOH)
	}
	return []byte(s)
}
