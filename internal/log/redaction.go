// Package log provides logging helpers shared by the bridge packages.
package log

import (
	"context"
	"log/slog"
	"strings"
)

// sensitiveKeys defines the list of keys whose values should be redacted.
// Keys are case-insensitive and matched by substring, so "privatekey" and
// "private_key" both hit "key".
var sensitiveKeys = map[string]struct{}{
	"password":   {},
	"passphrase": {},
	"secret":     {},
	"key":        {},
	"identity":   {},
	"response":   {},
	"cred":       {},
}

// RedactingHandler is a slog.Handler that redacts credential material before
// it reaches the underlying handler. The bridge wraps every configured logger
// with it so authentication attempts can be logged without leaking passwords
// or key material.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler creates a new RedactingHandler.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler. It redacts sensitive attributes before
// passing the record on.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, redactAttr(a))
		return true
	})

	newRecord := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	newRecord.AddAttrs(attrs...)

	return h.next.Handle(ctx, newRecord)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redactedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redactedAttrs[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redactedAttrs)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redactedGroup := make([]interface{}, len(attrs))
		for i, attr := range attrs {
			redactedGroup[i] = redactAttr(attr)
		}
		return slog.Group(a.Key, redactedGroup...)
	}

	lowerKey := strings.ToLower(a.Key)
	for sens := range sensitiveKeys {
		if strings.Contains(lowerKey, sens) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}

	return a
}
