package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger
	l.Info("nothing %d", 1)
	l.Divider()
	l.Result("k", "v")
	Discard().Error("dropped")
}

func TestLoggerFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	l := New(a, b)

	l.Processing("Attempt %d: Using %s", 2, "publisher3")
	l.Result("Blob ID", "abc")
	l.Divider()

	for _, r := range []*Recorder{a, b} {
		entries := r.Entries()
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Category != CategoryProcessing || entries[0].Message != "Attempt 2: Using publisher3" {
			t.Errorf("unexpected first entry: %+v", entries[0])
		}
		if !strings.Contains(entries[1].Message, "Blob ID") || !strings.HasSuffix(entries[1].Message, ": abc") {
			t.Errorf("unexpected result entry: %q", entries[1].Message)
		}
		if entries[2].Message != DividerLine {
			t.Errorf("unexpected divider: %q", entries[2].Message)
		}
	}
}

func TestConsoleHandler(t *testing.T) {
	DisableColors()
	var buf bytes.Buffer
	l := New(NewConsole(&buf))

	l.Success("Successfully uploaded blob")
	l.Warning("Retrying in 5 seconds...")

	out := buf.String()
	if !strings.Contains(out, "✅ Successfully uploaded blob\n") {
		t.Errorf("missing success line in %q", out)
	}
	if !strings.Contains(out, "⚠️ Retrying in 5 seconds...\n") {
		t.Errorf("missing warning line in %q", out)
	}
}

func TestStructuredHandler(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewStructured(&buf, "run-1"))

	l.Error("Upload failed on attempt %d", 3)
	l.Divider()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 JSON line (divider skipped), got %d: %q", len(lines), buf.String())
	}

	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if ev["level"] != "error" || ev["category"] != "error" || ev["run_id"] != "run-1" {
		t.Errorf("unexpected event fields: %v", ev)
	}
	if ev["message"] != "Upload failed on attempt 3" {
		t.Errorf("unexpected message: %v", ev["message"])
	}
}

func TestRecorderCount(t *testing.T) {
	r := &Recorder{}
	l := New(r)
	l.Network("Using proxy: 1.2.3.4:80")
	l.Network("Using proxy: 5.6.7.8:80")
	l.Info("Using proxy: not network")

	if got := r.Count(CategoryNetwork, "Using proxy"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"Blob ID", "abc", "   Blob ID        : abc"},
		{"Rate", "100%", "   Rate           : 100%"},
		{"Note", "50%d %s", "   Note           : 50%d %s"},
	}
	for _, tt := range tests {
		r := &Recorder{}
		New(r).Result(tt.key, tt.value)
		entries := r.Entries()
		if len(entries) != 1 || entries[0].Category != CategoryResult || entries[0].Message != tt.want {
			t.Errorf("Result(%q, %q) = %+v, want %q", tt.key, tt.value, entries, tt.want)
		}
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"secret", "******"},
		{"suiprivkey1abcdef", "suip*********cdef"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTable(t *testing.T) {
	DisableColors()
	var buf bytes.Buffer
	RenderTable(&buf, "Summary", []string{"#", "Blob ID"}, [][]string{{"1", "abc"}, {"2", "xyz"}})

	out := buf.String()
	for _, want := range []string{"Summary", "Blob ID", "abc", "xyz"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
