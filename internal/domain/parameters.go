package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parameters holds check parameters as an opaque literal value (mappings,
// sequences and scalars). Reconciliation moves it around without
// interpreting it.
type Parameters struct {
	value any
}

// NewParameters wraps a literal value. Maps with non-string keys are
// normalized to string keys.
func NewParameters(v any) Parameters {
	return Parameters{value: normalize(v)}
}

// ParseParameters decodes a literal in YAML flow or JSON syntax. Only data
// is decoded; tags that do not resolve to plain values are rejected by the
// decoder.
func ParseParameters(text string) (Parameters, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return Parameters{}, fmt.Errorf("%w: invalid parameters literal: %v", ErrConfiguration, err)
	}
	return NewParameters(v), nil
}

// Value returns the wrapped literal. Nil means "no parameters".
func (p Parameters) Value() any { return p.value }

// IsZero reports whether p carries no parameters. Nil is persisted as an
// empty mapping, so both count as zero.
func (p Parameters) IsZero() bool {
	if p.value == nil {
		return true
	}
	m, ok := p.value.(map[string]any)
	return ok && len(m) == 0
}

// Mapping returns the literal as a mapping when it is one.
func (p Parameters) Mapping() (map[string]any, bool) {
	m, ok := p.value.(map[string]any)
	return m, ok
}

// String renders the literal in YAML flow style.
func (p Parameters) String() string {
	var n yaml.Node
	if err := n.Encode(p.persisted()); err != nil {
		return fmt.Sprintf("%v", p.value)
	}
	setFlow(&n)
	out, err := yaml.Marshal(&n)
	if err != nil {
		return fmt.Sprintf("%v", p.value)
	}
	return string(bytes.TrimSpace(out))
}

// Equal compares the canonical encodings of both literals.
func (p Parameters) Equal(other Parameters) bool {
	a, errA := yaml.Marshal(p.persisted())
	b, errB := yaml.Marshal(other.persisted())
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

func (p Parameters) persisted() any {
	if p.value == nil {
		return map[string]any{}
	}
	return p.value
}

func (p Parameters) MarshalYAML() (any, error) {
	return p.persisted(), nil
}

func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	p.value = normalize(v)
	return nil
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.persisted())
}

func (p *Parameters) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.value = normalize(v)
	return nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func setFlow(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}
	for _, c := range n.Content {
		setFlow(c)
	}
}
