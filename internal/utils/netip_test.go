package utils

import (
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.5 ", "::1", "", "not-an-ip"})

	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "10.1.2.3", want: true},
		{ip: "192.168.1.5", want: true},
		{ip: "192.168.1.6", want: false},
		{ip: "::1", want: true},
		{ip: "::ffff:10.0.0.1", want: true},
		{ip: "garbage", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := m.Allow(tt.ip); got != tt.want {
				t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}

	if inv := m.Invalid(); len(inv) != 1 || inv[0] != "not-an-ip" {
		t.Errorf("Invalid() = %v, want [not-an-ip]", inv)
	}
	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("NewIPMatcher(nil) should be empty")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "1.2.3.4:5555", want: "1.2.3.4"},
		{name: "xff ignored without trust", remote: "1.2.3.4:5555", xff: "9.9.9.9", want: "1.2.3.4"},
		{name: "xff left-most", remote: "1.2.3.4:5555", xff: "9.9.9.9, 8.8.8.8", trustProxy: true, want: "9.9.9.9"},
		{name: "real ip fallback", remote: "1.2.3.4:5555", realIP: "7.7.7.7", trustProxy: true, want: "7.7.7.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
