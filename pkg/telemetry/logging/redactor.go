package logging

import (
	"context"
	"log/slog"
	"regexp"
)

// Redactor masks customer phone numbers in strings. WhatsApp MSISDNs are
// the one piece of PII this service handles on every code path, so they
// are masked wherever they appear in a log value, not only under a
// "phone" key.
type Redactor struct {
	phone *regexp.Regexp
}

// E.164 numbers as WhatsApp carries them, with or without the plus.
var phonePattern = regexp.MustCompile(`\+?\d{10,15}`)

// NewRedactor creates a Redactor with the default phone pattern.
func NewRedactor() *Redactor {
	return &Redactor{phone: phonePattern}
}

// RedactString masks every phone-shaped run of digits in value, keeping
// the country-code prefix and last two digits for correlation.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	return r.phone.ReplaceAllStringFunc(value, maskPhone)
}

// maskPhone keeps enough of the number to correlate log lines without
// exposing a dialable MSISDN.
func maskPhone(number string) string {
	digits := number
	prefix := ""
	if digits[0] == '+' {
		prefix = "+"
		digits = digits[1:]
	}

	// Keep up to 4 leading digits (country code and area hint) and the
	// final 2.
	head := 4
	if len(digits) < head+2 {
		head = len(digits) - 2
	}
	masked := make([]byte, 0, len(digits))
	masked = append(masked, digits[:head]...)
	for i := head; i < len(digits)-2; i++ {
		masked = append(masked, '*')
	}
	masked = append(masked, digits[len(digits)-2:]...)
	return prefix + string(masked)
}

// RedactHandler is a slog.Handler that masks phone numbers in record
// messages and string attribute values before delegating.
type RedactHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewRedactHandler wraps a handler with phone redaction.
func NewRedactHandler(inner slog.Handler, redactor *Redactor) *RedactHandler {
	return &RedactHandler{inner: inner, redactor: redactor}
}

// Enabled implements slog.Handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup implements slog.Handler.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *RedactHandler) redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.RedactString(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		redacted := make([]any, 0, len(group))
		for _, ga := range group {
			redacted = append(redacted, h.redactAttr(ga))
		}
		return slog.Group(a.Key, redacted...)
	default:
		return a
	}
}
