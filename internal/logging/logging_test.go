package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewHasComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Init("debug", "json", &buf); err != nil {
		t.Fatalf("Init err: %v", err)
	}

	logger := New("test-component")
	logger.Info().Msg("hello")

	output := buf.String()
	if !strings.Contains(output, `"component":"test-component"`) {
		t.Errorf("expected component field in output, got: %s", output)
	}
	if !strings.Contains(output, "hello") {
		t.Errorf("expected 'hello' in output, got: %s", output)
	}
}

func TestInitConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init("info", "console", &buf); err != nil {
		t.Fatalf("Init err: %v", err)
	}

	logger := New("fmt-test")
	logger.Info().Msg("console check")

	output := buf.String()
	if !strings.Contains(output, "INF") || !strings.Contains(output, "component=fmt-test") {
		t.Errorf("unexpected console output: %s", output)
	}
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	if err := Init("warn", "json", &buf); err != nil {
		t.Fatalf("Init err: %v", err)
	}
	defer Init("info", "json", &bytes.Buffer{})

	logger := New("level-test")
	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("info line should be filtered: %s", output)
	}
	if !strings.Contains(output, "kept") {
		t.Errorf("warn line missing: %s", output)
	}
}

func TestInitRejectsBadInput(t *testing.T) {
	if err := Init("loud", "json", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if err := Init("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid format")
	}
}
