package logutil

import "testing"

func TestParseSlogLevel(t *testing.T) {
	for _, s := range []string{"", "info", "debug", "warn", "warning", "error", " INFO "} {
		if _, err := parseSlogLevel(s); err != nil {
			t.Fatalf("parseSlogLevel(%q): %v", s, err)
		}
	}
	if _, err := parseSlogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	for _, format := range []string{"", "text", "json", "JSON"} {
		if _, err := newLoggerFromConfig(loggerConfig{Format: format}); err != nil {
			t.Fatalf("format %q: %v", format, err)
		}
	}
	if _, err := newLoggerFromConfig(loggerConfig{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
