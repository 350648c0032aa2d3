package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// LabelKind separates host level from service level labels.
type LabelKind string

const (
	HostLabelKind    LabelKind = "host"
	ServiceLabelKind LabelKind = "service"
)

// Label is a key/value pair attached to a host or a service by discovery.
type Label interface {
	Name() string
	Value() string
	Kind() LabelKind

	// Persisted returns the value stored under the label name in the
	// persisted mapping form.
	Persisted() any
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		return isPrintable(fl.Field().String())
	})
	return v
}

type labelFields struct {
	Name  string `validate:"required,printable"`
	Value string `validate:"required,printable"`
}

// ValidateLabel checks that name and value are non-empty printable text.
func ValidateLabel(name, value string) error {
	err := validate.Struct(labelFields{Name: name, Value: value})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidLabel, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			problems = append(problems, strings.ToLower(e.Field())+" is empty")
		case "printable":
			problems = append(problems, strings.ToLower(e.Field())+" contains non-printable characters")
		default:
			problems = append(problems, strings.ToLower(e.Field())+" failed "+e.Tag())
		}
	}
	return fmt.Errorf("%w %q=%q: %s", ErrInvalidLabel, name, value, strings.Join(problems, ", "))
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// HostLabel is a host level label. It remembers the discovery plugin that
// produced it.
type HostLabel struct {
	name       string
	value      string
	pluginName string
}

// NewHostLabel validates and builds a host label. pluginName may be empty.
func NewHostLabel(name, value, pluginName string) (*HostLabel, error) {
	if err := ValidateLabel(name, value); err != nil {
		return nil, err
	}
	return &HostLabel{name: name, value: value, pluginName: pluginName}, nil
}

// HostLabelFromPersisted rebuilds a host label from its persisted form
// {"value": ..., "plugin_name": ...}. plugin_name may be absent or null.
func HostLabelFromPersisted(name string, raw map[string]any) (*HostLabel, error) {
	value, ok := raw["value"].(string)
	if !ok {
		return nil, fmt.Errorf("%w %q: value must be text, got %T", ErrInvalidLabel, name, raw["value"])
	}

	var pluginName string
	switch p := raw["plugin_name"].(type) {
	case nil:
	case string:
		pluginName = p
	default:
		return nil, fmt.Errorf("%w %q: plugin_name must be text, got %T", ErrInvalidLabel, name, p)
	}

	return NewHostLabel(name, value, pluginName)
}

func (l *HostLabel) Name() string       { return l.name }
func (l *HostLabel) Value() string      { return l.value }
func (l *HostLabel) Kind() LabelKind    { return HostLabelKind }
func (l *HostLabel) PluginName() string { return l.pluginName }

// SetPluginName assigns the producing plugin once it is known. Callers set it
// at most once per label.
func (l *HostLabel) SetPluginName(name string) { l.pluginName = name }

func (l *HostLabel) Persisted() any {
	out := map[string]any{"value": l.value, "plugin_name": nil}
	if l.pluginName != "" {
		out["plugin_name"] = l.pluginName
	}
	return out
}

func (l *HostLabel) String() string {
	return l.name + ":" + l.value
}

// ServiceLabel is a service level label.
type ServiceLabel struct {
	name  string
	value string
}

// NewServiceLabel validates and builds a service label.
func NewServiceLabel(name, value string) (ServiceLabel, error) {
	if err := ValidateLabel(name, value); err != nil {
		return ServiceLabel{}, err
	}
	return ServiceLabel{name: name, value: value}, nil
}

func (l ServiceLabel) Name() string    { return l.name }
func (l ServiceLabel) Value() string   { return l.value }
func (l ServiceLabel) Kind() LabelKind { return ServiceLabelKind }
func (l ServiceLabel) Persisted() any  { return l.value }

func (l ServiceLabel) String() string {
	return l.name + ":" + l.value
}
