package logger

import (
	"log/slog"
	"strings"
	"testing"
)

func TestTruncateValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short", "bar", "bar"},
		{"exact limit", strings.Repeat("a", MaxValueLen), strings.Repeat("a", MaxValueLen)},
		{"one over", strings.Repeat("a", MaxValueLen+1), strings.Repeat("a", MaxValueLen) + "...(1 more bytes)"},
		{"large", strings.Repeat("b", 4096), strings.Repeat("b", MaxValueLen) + "...(4032 more bytes)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateValue(tt.input); got != tt.want {
				t.Errorf("TruncateValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeAttr(t *testing.T) {
	long := strings.Repeat("v", MaxValueLen*2)

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"value truncated", slog.String("value", long), TruncateValue(long)},
		{"message truncated", slog.String("message", long), TruncateValue(long)},
		{"key kept", slog.String("key", "user:1"), "user:1"},
		{"password redacted", slog.String("password", "hunter2"), redactedValue},
		{"auth token redacted", slog.String("auth_token", "abc"), redactedValue},
		{"empty secret kept", slog.String("secret", ""), ""},
		{"other kept", slog.String("remote", "127.0.0.1:5000"), "127.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeAttr(tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("sanitizeAttr(%s) = %q, want %q", tt.attr.Key, got.Value.String(), tt.want)
			}
		})
	}
}

func TestSanitizeAttr_Group(t *testing.T) {
	group := slog.Group("cmd", slog.String("value", strings.Repeat("z", MaxValueLen+5)), slog.String("key", "k"))

	got := sanitizeAttr(group)
	attrs := got.Value.Group()
	if len(attrs) != 2 {
		t.Fatalf("group has %d attrs, want 2", len(attrs))
	}
	if !strings.HasSuffix(attrs[0].Value.String(), "...(5 more bytes)") {
		t.Errorf("nested value = %q, want truncated", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "k" {
		t.Errorf("nested key = %q, want k", attrs[1].Value.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"api_secret", true},
		{"access_token", true},
		{"credentials", true},
		{"authorization", true},
		{"key", false},
		{"conn_id", false},
		{"value", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsSensitiveKey(tt.key); got != tt.want {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
