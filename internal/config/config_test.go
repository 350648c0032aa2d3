package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.DiscoveryInterval != 2*time.Hour {
		t.Errorf("DiscoveryInterval = %v, want 2h", cfg.DiscoveryInterval)
	}
	if cfg.DiscoveryWorkers != 4 {
		t.Errorf("DiscoveryWorkers = %d, want 4", cfg.DiscoveryWorkers)
	}
	if cfg.RedisEnabled() {
		t.Error("RedisEnabled() = true without CMK_REDIS_ADDR")
	}
	if cfg.LockTTL != 5*time.Minute {
		t.Errorf("LockTTL = %v, want 5m", cfg.LockTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CMK_AUTOCHECKS_DIR", "/tmp/ac")
	t.Setenv("CMK_DISCOVERY_INTERVAL", "0s")
	t.Setenv("CMK_DISCOVERY_WORKERS", "16")
	t.Setenv("CMK_REDIS_ADDR", "redis:6379")
	t.Setenv("CMK_ALLOWED_CIDRS", "10.0.0.0/8, '127.0.0.1'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AutochecksDir != "/tmp/ac" {
		t.Errorf("AutochecksDir = %q", cfg.AutochecksDir)
	}
	if cfg.DiscoveryInterval != 0 {
		t.Errorf("DiscoveryInterval = %v, want 0", cfg.DiscoveryInterval)
	}
	if cfg.DiscoveryWorkers != 16 {
		t.Errorf("DiscoveryWorkers = %d, want 16", cfg.DiscoveryWorkers)
	}
	if !cfg.RedisEnabled() {
		t.Error("RedisEnabled() = false with CMK_REDIS_ADDR set")
	}
	want := []string{"10.0.0.0/8", "127.0.0.1"}
	if strings.Join(cfg.AllowedCIDRS, "|") != strings.Join(want, "|") {
		t.Errorf("AllowedCIDRS = %v, want %v", cfg.AllowedCIDRS, want)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero workers", env: map[string]string{"CMK_DISCOVERY_WORKERS": "0"}},
		{name: "unknown log level", env: map[string]string{"CMK_LOG_LEVEL": "verbose"}},
		{name: "negative interval", env: map[string]string{"CMK_DISCOVERY_INTERVAL": "-1m"}},
		{
			name: "redis password required",
			env: map[string]string{
				"CMK_REDIS_ADDR":              "redis:6379",
				"CMK_REDIS_PASSWORD_REQUIRED": "true",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{RedisPassword: "secret"}
	if got := cfg.Redacted().RedisPassword; got == "secret" {
		t.Errorf("Redacted() kept the password")
	}
	if cfg.RedisPassword != "secret" {
		t.Error("Redacted() modified the receiver")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if got := mustBool(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "a", want: []string{"a"}},
		{in: ` a , "b",, 'c' `, want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := splitAndTrim(tt.in)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
