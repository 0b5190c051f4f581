package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// capture redirects logs into a buffer for the duration of the test.
func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Fatal("expected verbose to be off")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("expected verbose to be on")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func(string, ...any)
		want    string
	}{
		{"debug verbose", true, Debug, "level=DEBUG msg=\"batch 3 of 7\"\n"},
		{"debug quiet", false, Debug, ""},
		{"info verbose", true, Info, "level=INFO msg=\"batch 3 of 7\"\n"},
		{"info quiet", false, Info, ""},
		{"warn quiet", false, Warn, "level=WARN msg=\"batch 3 of 7\"\n"},
		{"error quiet", false, Error, "level=ERROR msg=\"batch 3 of 7\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)

			tt.log("batch %d of %d", 3, 7)

			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, false)
	Section("Retrieval")
	if buf.Len() != 0 {
		t.Errorf("expected no section header when quiet, got %q", buf.String())
	}

	SetVerbose(true)
	Section("Retrieval")
	if got := buf.String(); got != "\n=== Retrieval ===\n" {
		t.Errorf("unexpected section header: %q", got)
	}
}

func TestSlog_UsesOutput(t *testing.T) {
	buf := capture(t, false)

	Slog().Info("upserted", "namespace", "kb", "count", 12)

	got := buf.String()
	if !strings.Contains(got, "namespace=kb") || !strings.Contains(got, "count=12") {
		t.Errorf("expected structured attributes, got %q", got)
	}
	if strings.Contains(got, "time=") {
		t.Errorf("expected no timestamp, got %q", got)
	}
}
