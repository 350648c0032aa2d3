package domain

import (
	"errors"
	"testing"
)

func TestNewServiceLabel(t *testing.T) {
	tests := []struct {
		name      string
		labelName string
		value     string
		wantErr   bool
	}{
		{name: "valid label", labelName: "cmk/os_family", value: "linux", wantErr: false},
		{name: "value with spaces", labelName: "location", value: "rack 12", wantErr: false},
		{name: "empty name", labelName: "", value: "linux", wantErr: true},
		{name: "empty value", labelName: "cmk/os_family", value: "", wantErr: true},
		{name: "non-printable value", labelName: "key", value: "a\tb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewServiceLabel(tt.labelName, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLabel) {
					t.Fatalf("NewServiceLabel() error = %v, want ErrInvalidLabel", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewServiceLabel() error = %v", err)
			}
			if l.Name() != tt.labelName || l.Value() != tt.value {
				t.Errorf("NewServiceLabel() = %s, want %s:%s", l, tt.labelName, tt.value)
			}
			if l.Kind() != ServiceLabelKind {
				t.Errorf("Kind() = %v, want %v", l.Kind(), ServiceLabelKind)
			}
		})
	}
}

func TestHostLabelFromPersisted(t *testing.T) {
	tests := []struct {
		name       string
		raw        map[string]any
		wantPlugin string
		wantErr    bool
	}{
		{
			name:       "with plugin name",
			raw:        map[string]any{"value": "linux", "plugin_name": "check_mk"},
			wantPlugin: "check_mk",
		},
		{
			name: "plugin name null",
			raw:  map[string]any{"value": "linux", "plugin_name": nil},
		},
		{
			name: "plugin name absent",
			raw:  map[string]any{"value": "linux"},
		},
		{
			name:    "value not text",
			raw:     map[string]any{"value": 42},
			wantErr: true,
		},
		{
			name:    "plugin name not text",
			raw:     map[string]any{"value": "linux", "plugin_name": []any{"x"}},
			wantErr: true,
		},
		{
			name:    "value missing",
			raw:     map[string]any{"plugin_name": "check_mk"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := HostLabelFromPersisted("cmk/os_family", tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLabel) {
					t.Fatalf("HostLabelFromPersisted() error = %v, want ErrInvalidLabel", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("HostLabelFromPersisted() error = %v", err)
			}
			if l.Value() != "linux" {
				t.Errorf("Value() = %q, want linux", l.Value())
			}
			if l.PluginName() != tt.wantPlugin {
				t.Errorf("PluginName() = %q, want %q", l.PluginName(), tt.wantPlugin)
			}
		})
	}
}

func TestHostLabelSetPluginName(t *testing.T) {
	l, err := NewHostLabel("cmk/device_type", "switch", "")
	if err != nil {
		t.Fatalf("NewHostLabel() error = %v", err)
	}

	persisted := l.Persisted().(map[string]any)
	if persisted["plugin_name"] != nil {
		t.Errorf("plugin_name = %v, want nil before assignment", persisted["plugin_name"])
	}

	l.SetPluginName("snmp_info")
	if l.PluginName() != "snmp_info" {
		t.Errorf("PluginName() = %q, want snmp_info", l.PluginName())
	}
	persisted = l.Persisted().(map[string]any)
	if persisted["plugin_name"] != "snmp_info" {
		t.Errorf("persisted plugin_name = %v, want snmp_info", persisted["plugin_name"])
	}
}
