package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// ============================================================================
// Logger construction
// ============================================================================

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	if err == nil {
		t.Fatal("expected invalid level to be rejected")
	}
}

func TestNewRejectsInvalidFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	if err == nil {
		t.Fatal("expected invalid format to be rejected")
	}
}

func TestNewDefaultsToInfoJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("visible", "component", "gate")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message emitted at default info level")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "visible" {
		t.Errorf("unexpected message: %v", entry["msg"])
	}
	if entry["component"] != "gate" {
		t.Errorf("unexpected attr: %v", entry["component"])
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("sweep started", "claimed", 3)
	if !strings.Contains(buf.String(), "sweep started") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

// ============================================================================
// Phone redaction
// ============================================================================

func TestRedactStringMasksPhones(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "e164 with plus",
			input: "+5215512345678",
			want:  "+5215*******78",
		},
		{
			name:  "bare digits",
			input: "5215512345678",
			want:  "5215*******78",
		},
		{
			name:  "embedded in message",
			input: "follow-up for +5215512345678 deferred",
			want:  "follow-up for +5215*******78 deferred",
		},
		{
			name:  "short numbers untouched",
			input: "order TA-1001 qty 64",
			want:  "order TA-1001 qty 64",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactHandlerMasksAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, RedactPhones: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("follow-up sent", "phone", "+5215512345678", "attempts", 2)

	out := buf.String()
	if strings.Contains(out, "5512345678") {
		t.Errorf("full phone number leaked into log output: %s", out)
	}
	if !strings.Contains(out, "+5215*******78") {
		t.Errorf("expected masked phone in output: %s", out)
	}
	if !strings.Contains(out, `"attempts":2`) {
		t.Errorf("non-string attr mangled: %s", out)
	}
}

func TestRedactHandlerMasksWithAttrsAndMessage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf, RedactPhones: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.With("phone", "+5215512345678").Info("claimed job for +5215512345678")

	out := buf.String()
	if strings.Contains(out, "5512345678") {
		t.Errorf("phone leaked via With or message: %s", out)
	}
}
