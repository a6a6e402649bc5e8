package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// MaxValueLen is the number of bytes of a stored value that reach the log.
const MaxValueLen = 64

// payloadKeys name attributes that carry client payloads.
var payloadKeys = map[string]bool{
	"value":   true,
	"message": true,
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// sanitizeAttr truncates client payloads and redacts secrets.
func sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		if payloadKeys[a.Key] {
			return slog.String(a.Key, TruncateValue(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = sanitizeAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// TruncateValue shortens s to MaxValueLen bytes and notes how much was cut.
func TruncateValue(s string) string {
	if len(s) <= MaxValueLen {
		return s
	}
	var b strings.Builder
	b.WriteString(s[:MaxValueLen])
	b.WriteString("...(")
	b.WriteString(strconv.Itoa(len(s) - MaxValueLen))
	b.WriteString(" more bytes)")
	return b.String()
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
