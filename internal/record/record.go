// Package record defines the fixed output shape of a converted FIX message
// and its Avro encoding.
package record

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
)

//go:embed FixMessage.avsc
var DefaultSchema string

var (
	ErrEncode = errors.New("record: avro encode failed")
	ErrDecode = errors.New("record: avro decode failed")
)

// Record is one converted message. Fields holds every tag of the message,
// including the ones promoted to named attributes.
type Record struct {
	BeginString  string            `json:"beginString"`
	BodyLength   string            `json:"bodyLength"`
	MsgType      string            `json:"msgType"`
	SenderCompID string            `json:"senderCompID"`
	TargetCompID string            `json:"targetCompID"`
	MsgSeqNum    string            `json:"msgSeqNum"`
	SendingTime  string            `json:"sendingTime"`
	Fields       map[string]string `json:"fields"`
	CheckSum     string            `json:"checkSum"`
}

// Native is the goavro representation of r.
func (r Record) Native() map[string]any {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return map[string]any{
		"beginString":  r.BeginString,
		"bodyLength":   r.BodyLength,
		"msgType":      r.MsgType,
		"senderCompID": r.SenderCompID,
		"targetCompID": r.TargetCompID,
		"msgSeqNum":    r.MsgSeqNum,
		"sendingTime":  r.SendingTime,
		"fields":       fields,
		"checkSum":     r.CheckSum,
	}
}

// Clone returns a copy that shares nothing with r.
func (r Record) Clone() Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	return out
}

// FromNative rebuilds a Record from a decoded goavro datum.
func FromNative(v any) (Record, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("%w: datum is %T, not a record", ErrDecode, v)
	}
	var (
		r   Record
		err error
	)
	str := func(name string) string {
		if err != nil {
			return ""
		}
		s, ok := m[name].(string)
		if !ok {
			err = fmt.Errorf("%w: field %s is %T", ErrDecode, name, m[name])
		}
		return s
	}
	r.BeginString = str("beginString")
	r.BodyLength = str("bodyLength")
	r.MsgType = str("msgType")
	r.SenderCompID = str("senderCompID")
	r.TargetCompID = str("targetCompID")
	r.MsgSeqNum = str("msgSeqNum")
	r.SendingTime = str("sendingTime")
	r.CheckSum = str("checkSum")
	if err != nil {
		return Record{}, err
	}

	raw, ok := m["fields"].(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("%w: field fields is %T", ErrDecode, m["fields"])
	}
	r.Fields = make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return Record{}, fmt.Errorf("%w: fields[%s] is %T", ErrDecode, k, v)
		}
		r.Fields[k] = s
	}
	return r, nil
}
