package schema

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/danmuck/fixconv/internal/protocol"
	"gopkg.in/yaml.v3"
)

type CriterionKind uint8

const (
	CriterionInvalid CriterionKind = iota
	CriterionExact
	CriterionOneOf
)

func (k CriterionKind) String() string {
	switch k {
	case CriterionExact:
		return "exact"
	case CriterionOneOf:
		return "one_of"
	default:
		return "invalid"
	}
}

// Criterion is the expected value for one tag. Its kind is fixed when it is
// constructed.
type Criterion struct {
	kind   CriterionKind
	values []string
}

// Exact requires the field to equal value.
func Exact(value string) Criterion {
	return Criterion{kind: CriterionExact, values: []string{value}}
}

// OneOf requires the field to be a member of values. An empty set is invalid.
func OneOf(values ...string) Criterion {
	if len(values) == 0 {
		return Invalid()
	}
	return Criterion{kind: CriterionOneOf, values: slices.Clone(values)}
}

// Invalid is a criterion that never passes.
func Invalid() Criterion {
	return Criterion{kind: CriterionInvalid}
}

// CriterionFrom resolves a loosely typed value, such as one decoded from a
// config file. A string is Exact, a non-empty list of strings is OneOf and
// anything else is Invalid.
func CriterionFrom(v any) Criterion {
	switch x := v.(type) {
	case Criterion:
		return x
	case string:
		return Exact(x)
	case []string:
		return OneOf(x...)
	case []any:
		values := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return Invalid()
			}
			values = append(values, s)
		}
		return OneOf(values...)
	default:
		return Invalid()
	}
}

func (c Criterion) Kind() CriterionKind {
	return c.kind
}

// Values returns a copy of the accepted values.
func (c Criterion) Values() []string {
	return slices.Clone(c.values)
}

// Matches reports whether actual satisfies c.
func (c Criterion) Matches(actual string) bool {
	switch c.kind {
	case CriterionExact, CriterionOneOf:
		return slices.Contains(c.values, actual)
	default:
		return false
	}
}

func (c Criterion) String() string {
	switch c.kind {
	case CriterionExact:
		return c.values[0]
	case CriterionOneOf:
		return "[" + strings.Join(c.values, " ") + "]"
	default:
		return "<invalid>"
	}
}

// Criteria maps tag to its expected value.
type Criteria map[string]Criterion

// Tags returns the criteria tags in the protocol's tag order.
func (c Criteria) Tags() []string {
	tags := make([]string, 0, len(c))
	for tag := range c {
		tags = append(tags, tag)
	}
	protocol.SortTags(tags)
	return tags
}

// CriteriaFromMap resolves each entry with CriterionFrom.
func CriteriaFromMap(m map[string]any) Criteria {
	out := make(Criteria, len(m))
	for tag, v := range m {
		out[strings.TrimSpace(tag)] = CriterionFrom(v)
	}
	return out
}

// LoadCriteria reads a YAML criteria file.
func LoadCriteria(path string) (Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("criteria load failed (%s): %w", path, err)
	}
	c, err := ParseCriteria(data)
	if err != nil {
		return nil, fmt.Errorf("criteria parse failed (%s): %w", path, err)
	}
	return c, nil
}

// ParseCriteria decodes a YAML mapping of tag to a scalar or a sequence of
// scalars. Scalars keep their literal text, so 54: [1, 2] accepts "1" and "2".
func ParseCriteria(data []byte) (Criteria, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return Criteria{}, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.New("criteria must be a mapping of tag to expected value")
	}
	out := make(Criteria, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		tag := strings.TrimSpace(doc.Content[i].Value)
		if tag == "" {
			return nil, fmt.Errorf("criteria entry %d has an empty tag", i/2)
		}
		out[tag] = criterionFromNode(doc.Content[i+1])
	}
	return out, nil
}

func criterionFromNode(n *yaml.Node) Criterion {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return Invalid()
		}
		return criterionFromNode(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return Invalid()
		}
		return Exact(n.Value)
	case yaml.SequenceNode:
		values := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				return Invalid()
			}
			values = append(values, item.Value)
		}
		return OneOf(values...)
	default:
		return Invalid()
	}
}
