package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewConsole(t *testing.T) {
	console := NewConsole()
	if console == nil {
		t.Fatal("NewConsole() returned nil")
	}
}

func TestConsole_PrintRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	console := &Console{out: &out, errOut: &errOut, useColors: false}

	console.PrintInfo("creating")
	console.PrintSuccess("done")
	console.PrintError("boom")
	console.PrintWarning("careful")

	gotOut := out.String()
	if !strings.Contains(gotOut, "creating\n") || !strings.Contains(gotOut, "done\n") {
		t.Errorf("Expected info and success on out, got %q", gotOut)
	}
	if strings.Contains(gotOut, "boom") || strings.Contains(gotOut, "careful") {
		t.Errorf("Expected no error output on out, got %q", gotOut)
	}

	gotErr := errOut.String()
	if !strings.Contains(gotErr, "Error: boom\n") {
		t.Errorf("Expected prefixed error on errOut, got %q", gotErr)
	}
	if !strings.Contains(gotErr, "Warning: careful\n") {
		t.Errorf("Expected prefixed warning on errOut, got %q", gotErr)
	}
}

func TestConsole_formatMessage(t *testing.T) {
	console := &Console{useColors: true}

	tests := []struct {
		style     ConsoleStyle
		message   string
		wantColor bool
	}{
		{StyleNormal, "test message", false},
		{StyleError, "error message", true},
		{StyleWarning, "warning message", true},
		{StyleSuccess, "success message", true},
		{StyleInfo, "info message", true},
	}

	for _, test := range tests {
		result := console.formatMessage(test.style, test.message)

		if !strings.Contains(result, test.message) {
			t.Errorf("formatMessage(%v, %q) should contain the original message", test.style, test.message)
		}
		if test.wantColor != strings.Contains(result, colorReset) {
			t.Errorf("formatMessage(%v, %q) = %q, wantColor=%v", test.style, test.message, result, test.wantColor)
		}
	}
}

func TestConsole_formatMessage_NoColors(t *testing.T) {
	console := &Console{useColors: false}

	result := console.formatMessage(StyleError, "test message")
	if result != "test message" {
		t.Errorf("formatMessage with useColors=false should return the original message, got %q", result)
	}
}

func TestColorsDisabledByNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if colorsEnabled() {
		t.Error("Expected colorsEnabled to be false when NO_COLOR is set")
	}
}

func TestConsole_FormatErrorMessage(t *testing.T) {
	console := NewConsole()

	tests := []struct {
		context    string
		cause      string
		suggestion string
		expected   []string
	}{
		{
			context:    "Test context",
			cause:      "Test cause",
			suggestion: "Test suggestion",
			expected:   []string{"Test context", "Cause: Test cause", "Suggestion: Test suggestion"},
		},
		{
			context:  "Only context",
			expected: []string{"Only context"},
		},
		{
			cause:    "Only cause",
			expected: []string{"Cause: Only cause"},
		},
		{
			suggestion: "Only suggestion",
			expected:   []string{"Suggestion: Only suggestion"},
		},
		{
			context:    "Context",
			suggestion: "Suggestion",
			expected:   []string{"Context", "Suggestion: Suggestion"},
		},
	}

	for _, test := range tests {
		result := console.FormatErrorMessage(test.context, test.cause, test.suggestion)

		for _, expected := range test.expected {
			if !strings.Contains(result, expected) {
				t.Errorf("FormatErrorMessage(%q, %q, %q) = %q, should contain %q",
					test.context, test.cause, test.suggestion, result, expected)
			}
		}

		lines := strings.Split(result, "\n")
		if len(lines) != len(test.expected) {
			t.Errorf("FormatErrorMessage(%q, %q, %q) returned %d lines, want %d",
				test.context, test.cause, test.suggestion, len(lines), len(test.expected))
		}
	}
}

func TestConsole_FormatErrorMessage_Empty(t *testing.T) {
	console := NewConsole()

	result := console.FormatErrorMessage("", "", "")
	if result != "" {
		t.Errorf("FormatErrorMessage with all empty strings should return empty string, got %q", result)
	}
}
