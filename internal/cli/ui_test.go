package cli

import (
	"bytes"
	"strings"
	"testing"
)

func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := uiOut
	uiOut = &buf
	t.Cleanup(func() { uiOut = prev })
	return &buf
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		cached bool
		want   string
	}{
		{false, "fresh"},
		{true, "cached"},
	}
	for _, tt := range tests {
		buf := captureUI(t)
		printStats([]string{"3 packages", "0 missing"}, tt.cached)
		out := buf.String()
		if !strings.HasPrefix(out, "  ") || !strings.Contains(out, "3 packages") || !strings.Contains(out, tt.want) {
			t.Errorf("printStats(cached=%v) = %q", tt.cached, out)
		}
	}
}

func TestPrintChange(t *testing.T) {
	buf := captureUI(t)
	printChange(true, "local/mylib-1.0-py27_0")
	printChange(false, "stale-0.1-0")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], markLink) || !strings.HasSuffix(lines[0], "local/mylib-1.0-py27_0") {
		t.Errorf("link line = %q", lines[0])
	}
	if !strings.Contains(lines[1], markUnlink) || !strings.HasSuffix(lines[1], "stale-0.1-0") {
		t.Errorf("unlink line = %q", lines[1])
	}
}
