// Package frame handles the FIX envelope: BeginString (8) and BodyLength (9)
// at the front and CheckSum (10) at the end of every SOH delimited message.
package frame

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const SOH byte = 0x01

var (
	ErrMissingBeginString = errors.New("frame: message must start with BeginString (8)")
	ErrMissingBodyLength  = errors.New("frame: BodyLength (9) must follow BeginString")
	ErrBadBodyLength      = errors.New("frame: BodyLength is not a non-negative integer")
	ErrMissingCheckSum    = errors.New("frame: message must end with CheckSum (10)")
	ErrBadCheckSum        = errors.New("frame: CheckSum is not a three digit number")
	ErrBodyLengthMismatch = errors.New("frame: body length mismatch")
	ErrCheckSumMismatch   = errors.New("frame: checksum mismatch")
	ErrBodyTooLarge       = errors.New("frame: body too large")
)

var (
	beginPrefix    = []byte("8=")
	lengthPrefix   = []byte("9=")
	checksumPrefix = []byte("10=")
	trailerMarker  = []byte("\x0110=")
)

// Frame is one complete message with its envelope values decoded.
type Frame struct {
	BeginString string
	BodyLength  int
	CheckSum    int
	Raw         []byte

	bodyStart    int
	trailerStart int
}

// Limits constrains how much ReadFrame will buffer for one message.
type Limits struct {
	MaxBodyBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxBodyBytes: 1 << 20}
}

// Checks selects what Verify enforces.
type Checks struct {
	BodyLength bool
	CheckSum   bool
}

// Body is the byte range counted by BodyLength.
func (f Frame) Body() []byte {
	return f.Raw[f.bodyStart:f.trailerStart]
}

// Verify compares the declared BodyLength and CheckSum against the bytes.
func (f Frame) Verify(c Checks) error {
	if c.BodyLength {
		if actual := f.trailerStart - f.bodyStart; actual != f.BodyLength {
			return fmt.Errorf("%w: declared %d, actual %d", ErrBodyLengthMismatch, f.BodyLength, actual)
		}
	}
	if c.CheckSum {
		if actual := Sum(f.Raw[:f.trailerStart]); actual != f.CheckSum {
			return fmt.Errorf("%w: declared %03d, actual %03d", ErrCheckSumMismatch, f.CheckSum, actual)
		}
	}
	return nil
}

// Sum is the FIX checksum of b: the byte sum modulo 256.
func Sum(b []byte) int {
	var total int
	for _, c := range b {
		total += int(c)
	}
	return total % 256
}

// Build wraps body with BeginString, a computed BodyLength and a computed
// CheckSum. body must already end with SOH.
func Build(beginString string, body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(body) + len(beginString) + 24)
	buf.Write(beginPrefix)
	buf.WriteString(beginString)
	buf.WriteByte(SOH)
	buf.Write(lengthPrefix)
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteByte(SOH)
	buf.Write(body)
	fmt.Fprintf(&buf, "10=%03d", Sum(buf.Bytes()))
	buf.WriteByte(SOH)
	return buf.Bytes()
}

// Decode locates the envelope fields of one complete message. It does not
// verify them; see Frame.Verify.
func Decode(raw []byte) (Frame, error) {
	if !bytes.HasPrefix(raw, beginPrefix) {
		return Frame{}, ErrMissingBeginString
	}
	end := bytes.IndexByte(raw, SOH)
	if end < 0 {
		return Frame{}, ErrMissingBodyLength
	}
	f := Frame{BeginString: string(raw[len(beginPrefix):end]), Raw: raw}

	rest := raw[end+1:]
	if !bytes.HasPrefix(rest, lengthPrefix) {
		return Frame{}, ErrMissingBodyLength
	}
	lenEnd := bytes.IndexByte(rest, SOH)
	if lenEnd < 0 {
		return Frame{}, ErrMissingBodyLength
	}
	n, err := parseLength(rest[len(lengthPrefix):lenEnd])
	if err != nil {
		return Frame{}, err
	}
	f.BodyLength = n
	f.bodyStart = end + 1 + lenEnd + 1

	marker := bytes.LastIndex(raw, trailerMarker)
	if marker < 0 || marker+1 < f.bodyStart || raw[len(raw)-1] != SOH {
		return Frame{}, ErrMissingCheckSum
	}
	f.trailerStart = marker + 1
	cs, err := parseCheckSum(raw[f.trailerStart+len(checksumPrefix) : len(raw)-1])
	if err != nil {
		return Frame{}, err
	}
	f.CheckSum = cs
	return f, nil
}

// ReadFrame reads the next message from a stream of SOH delimited messages.
// Whitespace between messages is skipped. io.EOF is returned only when the
// stream ends cleanly between messages.
func ReadFrame(r *bufio.Reader, limits Limits) (Frame, error) {
	if err := skipSpace(r); err != nil {
		return Frame{}, err
	}

	var raw bytes.Buffer
	begin, err := readField(r)
	if err != nil {
		return Frame{}, err
	}
	if !bytes.HasPrefix(begin, beginPrefix) {
		return Frame{}, ErrMissingBeginString
	}
	raw.Write(begin)

	length, err := readField(r)
	if err != nil {
		return Frame{}, err
	}
	if !bytes.HasPrefix(length, lengthPrefix) {
		return Frame{}, ErrMissingBodyLength
	}
	n, err := parseLength(length[len(lengthPrefix) : len(length)-1])
	if err != nil {
		return Frame{}, err
	}
	if limits.MaxBodyBytes > 0 && n > limits.MaxBodyBytes {
		return Frame{}, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, n, limits.MaxBodyBytes)
	}
	raw.Write(length)

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, unexpected(err)
	}
	raw.Write(body)

	trailer, err := readField(r)
	if err != nil {
		return Frame{}, err
	}
	if !bytes.HasPrefix(trailer, checksumPrefix) {
		return Frame{}, ErrMissingCheckSum
	}
	raw.Write(trailer)
	return Decode(raw.Bytes())
}

func readField(r *bufio.Reader) ([]byte, error) {
	b, err := r.ReadBytes(SOH)
	if err != nil {
		return nil, unexpected(err)
	}
	return b, nil
}

func skipSpace(r *bufio.Reader) error {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return r.UnreadByte()
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func parseLength(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadBodyLength, b)
	}
	return n, nil
}

func parseCheckSum(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("%w: %q", ErrBadCheckSum, b)
	}
	return n, nil
}
