package protocol

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// SOH is the FIX field separator.
	SOH = '\x01'
	// Pipe is the human readable stand-in for SOH.
	Pipe = '|'

	keyValueSeparator = "="
)

// Fields maps tag to value for one tokenized message.
type Fields map[string]string

// ParseResult is a tokenized message plus the chunks that were dropped.
type ParseResult struct {
	Fields  Fields
	Skipped []string
}

// Normalize replaces every pipe with SOH. A literal pipe inside a value is
// indistinguishable from a delimiter.
func Normalize(raw string) string {
	return strings.ReplaceAll(raw, string(Pipe), string(SOH))
}

// Parse tokenizes raw into a tag to value mapping. Malformed chunks are dropped
// and duplicate tags keep the last value.
func Parse(raw string) (Fields, error) {
	res, err := ParseDetailed(raw)
	if err != nil {
		return nil, err
	}
	return res.Fields, nil
}

// ParseDetailed is Parse with the dropped chunks reported in input order.
func ParseDetailed(raw string) (ParseResult, error) {
	if strings.TrimSpace(raw) == "" {
		return ParseResult{}, ErrInvalidInput
	}

	chunks := strings.Split(Normalize(raw), string(SOH))
	res := ParseResult{Fields: make(Fields, len(chunks))}
	for _, chunk := range chunks {
		tag, value, ok := parseField(chunk)
		if !ok {
			res.Skipped = append(res.Skipped, chunk)
			continue
		}
		res.Fields[tag] = value
	}

	log.Debug().
		Int("fields", len(res.Fields)).
		Int("skipped", len(res.Skipped)).
		Msg("protocol.Parse")
	return res, nil
}

func parseField(chunk string) (string, string, bool) {
	if chunk == "" {
		return "", "", false
	}
	tag, value, found := strings.Cut(chunk, keyValueSeparator)
	if !found {
		return "", "", false
	}
	tag = strings.TrimSpace(tag)
	value = strings.TrimSpace(value)
	if tag == "" || value == "" {
		return "", "", false
	}
	return tag, value, true
}

// Get returns the value for tag.
func (f Fields) Get(tag string) (string, bool) {
	v, ok := f[tag]
	return v, ok
}

// Has reports whether tag is present.
func (f Fields) Has(tag string) bool {
	_, ok := f[tag]
	return ok
}

// Tags returns the tags in ascending order. Numeric tags sort by value and come
// before non-numeric ones.
func (f Fields) Tags() []string {
	tags := make([]string, 0, len(f))
	for tag := range f {
		tags = append(tags, tag)
	}
	SortTags(tags)
	return tags
}

// Format serializes the fields as tag=value pairs, each followed by delim, in
// Tags order.
func (f Fields) Format(delim rune) string {
	var b strings.Builder
	for _, tag := range f.Tags() {
		b.WriteString(tag)
		b.WriteString(keyValueSeparator)
		b.WriteString(f[tag])
		b.WriteRune(delim)
	}
	return b.String()
}

// SortTags orders tags in place using the Tags ordering.
func SortTags(tags []string) {
	sort.Slice(tags, func(i, j int) bool {
		a, errA := strconv.Atoi(tags[i])
		b, errB := strconv.Atoi(tags[j])
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return tags[i] < tags[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return tags[i] < tags[j]
		}
	})
}
