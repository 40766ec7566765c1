package engine

import (
	"fmt"
	"strconv"

	"github.com/quickfixgo/quickfix"
)

const (
	TagBeginString  quickfix.Tag = 8
	TagBodyLength   quickfix.Tag = 9
	TagCheckSum     quickfix.Tag = 10
	TagMsgSeqNum    quickfix.Tag = 34
	TagMsgType      quickfix.Tag = 35
	TagSenderCompID quickfix.Tag = 49
	TagSendingTime  quickfix.Tag = 52
	TagTargetCompID quickfix.Tag = 56
)

// HeaderString reads a header field.
func HeaderString(msg *quickfix.Message, tag quickfix.Tag) (string, error) {
	v, err := msg.Header.GetString(tag)
	if err != nil {
		return "", fmt.Errorf("%w: header tag %d: %v", ErrFieldNotFound, tag, err)
	}
	return v, nil
}

// TrailerString reads a trailer field.
func TrailerString(msg *quickfix.Message, tag quickfix.Tag) (string, error) {
	v, err := msg.Trailer.GetString(tag)
	if err != nil {
		return "", fmt.Errorf("%w: trailer tag %d: %v", ErrFieldNotFound, tag, err)
	}
	return v, nil
}

// FieldMap flattens the header, body and trailer into tag to value. A tag
// present in more than one section keeps its first value, so header beats
// body beats trailer.
func FieldMap(msg *quickfix.Message) map[string]string {
	out := make(map[string]string)
	collect(out, &msg.Header.FieldMap)
	collect(out, &msg.Body.FieldMap)
	collect(out, &msg.Trailer.FieldMap)
	return out
}

func collect(out map[string]string, fm *quickfix.FieldMap) {
	for _, tag := range fm.Tags() {
		k := strconv.Itoa(int(tag))
		if _, ok := out[k]; ok {
			continue
		}
		v, err := fm.GetString(tag)
		if err != nil {
			continue
		}
		out[k] = v
	}
}
