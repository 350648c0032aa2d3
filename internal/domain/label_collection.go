package domain

import (
	"fmt"
	"reflect"
	"sort"
)

// LabelCollection maps label names to labels. There is at most one label per
// name; later writes replace earlier ones.
type LabelCollection[L Label] struct {
	kind   LabelKind
	labels map[string]L
}

type (
	HostLabels    = LabelCollection[*HostLabel]
	ServiceLabels = LabelCollection[ServiceLabel]
)

// NewLabelCollection returns an empty collection.
func NewLabelCollection[L Label]() *LabelCollection[L] {
	return &LabelCollection[L]{kind: kindOf[L](), labels: make(map[string]L)}
}

// NewHostLabels returns an empty host label collection.
func NewHostLabels() *HostLabels { return NewLabelCollection[*HostLabel]() }

// NewServiceLabels returns an empty service label collection.
func NewServiceLabels() *ServiceLabels { return NewLabelCollection[ServiceLabel]() }

// LabelsFrom builds a collection. Duplicate names are not an error: the last
// one wins.
func LabelsFrom[L Label](labels ...L) *LabelCollection[L] {
	c := NewLabelCollection[L]()
	for _, l := range labels {
		c.Add(l)
	}
	return c
}

func kindOf[L Label]() LabelKind {
	var zero L
	switch any(zero).(type) {
	case *HostLabel:
		return HostLabelKind
	case ServiceLabel:
		return ServiceLabelKind
	default:
		return ""
	}
}

// Kind reports which label namespace the collection belongs to.
func (c *LabelCollection[L]) Kind() LabelKind { return c.kind }

// Add inserts or replaces the label with the same name.
func (c *LabelCollection[L]) Add(l L) {
	c.labels[l.Name()] = l
}

// Get returns the label with the given name.
func (c *LabelCollection[L]) Get(name string) (L, bool) {
	l, ok := c.labels[name]
	return l, ok
}

func (c *LabelCollection[L]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.labels)
}

func (c *LabelCollection[L]) IsEmpty() bool { return c.Len() == 0 }

// Names returns the label names in sorted order.
func (c *LabelCollection[L]) Names() []string {
	names := make([]string, 0, len(c.labels))
	for name := range c.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToList returns the labels sorted by name.
func (c *LabelCollection[L]) ToList() []L {
	out := make([]L, 0, len(c.labels))
	for _, name := range c.Names() {
		out = append(out, c.labels[name])
	}
	return out
}

// ToDict returns the persisted mapping form. Encoders emit map keys sorted,
// which keeps the serialized form ordered by label name.
func (c *LabelCollection[L]) ToDict() map[string]any {
	out := make(map[string]any, len(c.labels))
	for name, l := range c.labels {
		out[name] = l.Persisted()
	}
	return out
}

// Merge returns a new collection with the labels of both collections. Labels
// of other replace labels of c with the same name.
func (c *LabelCollection[L]) Merge(other *LabelCollection[L]) (*LabelCollection[L], error) {
	if other == nil {
		return c.Clone(), nil
	}
	if c.kind != other.kind {
		return nil, fmt.Errorf("%w: cannot merge %s labels with %s labels", ErrIdentityConflict, c.kind, other.kind)
	}
	out := c.Clone()
	for name, l := range other.labels {
		out.labels[name] = l
	}
	return out, nil
}

// Clone returns a shallow copy of the collection.
func (c *LabelCollection[L]) Clone() *LabelCollection[L] {
	out := &LabelCollection[L]{kind: c.kind, labels: make(map[string]L, len(c.labels))}
	for name, l := range c.labels {
		out.labels[name] = l
	}
	return out
}

// Erase widens the collection to plain labels while keeping its kind, so that
// code handling both namespaces can share one type.
func (c *LabelCollection[L]) Erase() *LabelCollection[Label] {
	out := &LabelCollection[Label]{kind: c.kind, labels: make(map[string]Label, len(c.labels))}
	for name, l := range c.labels {
		out.labels[name] = l
	}
	return out
}

// Equal compares both collections by their entry sets.
func (c *LabelCollection[L]) Equal(other *LabelCollection[L]) bool {
	if c == nil || other == nil {
		return c.Len() == other.Len()
	}
	if c.kind != other.kind || len(c.labels) != len(other.labels) {
		return false
	}
	for name, l := range c.labels {
		o, ok := other.labels[name]
		if !ok || !reflect.DeepEqual(l.Persisted(), o.Persisted()) {
			return false
		}
	}
	return true
}

// HostLabelsFromDict rebuilds host labels from {name: {value, plugin_name}}.
func HostLabelsFromDict(raw map[string]any) (*HostLabels, error) {
	c := NewHostLabels()
	for name, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w %q: expected mapping with value and plugin_name, got %T", ErrInvalidLabel, name, v)
		}
		l, err := HostLabelFromPersisted(name, entry)
		if err != nil {
			return nil, err
		}
		c.Add(l)
	}
	return c, nil
}

// ServiceLabelsFromDict rebuilds service labels from {name: value}.
func ServiceLabelsFromDict(raw map[string]any) (*ServiceLabels, error) {
	c := NewServiceLabels()
	for name, v := range raw {
		value, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w %q: value must be text, got %T", ErrInvalidLabel, name, v)
		}
		l, err := NewServiceLabel(name, value)
		if err != nil {
			return nil, err
		}
		c.Add(l)
	}
	return c, nil
}

// ServiceLabelsFromStrings is ServiceLabelsFromDict for string maps.
func ServiceLabelsFromStrings(raw map[string]string) (*ServiceLabels, error) {
	c := NewServiceLabels()
	for name, value := range raw {
		l, err := NewServiceLabel(name, value)
		if err != nil {
			return nil, err
		}
		c.Add(l)
	}
	return c, nil
}

// ServiceLabelStrings returns the {name: value} form of service labels.
func ServiceLabelStrings(c *ServiceLabels) map[string]string {
	out := make(map[string]string, c.Len())
	if c == nil {
		return out
	}
	for name, l := range c.labels {
		out[name] = l.Value()
	}
	return out
}
