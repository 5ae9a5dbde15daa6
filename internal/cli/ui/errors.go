// Package ui renders CLI output: colored messages, tables and metadata trees.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a structured CLI message.
type Message struct {
	Level   Level
	Context string
	Problem string
	Detail  string
	// Suggestions are rendered as a "Did you mean" line.
	Suggestions []string
	// Hints are follow-up commands shown one per line.
	Hints   []string
	NoColor bool
}

func (m Message) colors() (header, body *color.Color, symbol string) {
	switch m.Level {
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case LevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "x"
	}
	if m.NoColor {
		header.DisableColor()
		body.DisableColor()
	}
	return header, body, symbol
}

// Format renders m.
//
// Example output:
//
//	x FIXTURE INVALID: fixtures/clock.yaml
//	   exports.now (line 4): unknown directive "$fun"
//
//	   → Check the format: mockgraph metadata --help
func Format(m Message) string {
	var b strings.Builder
	header, body, symbol := m.colors()

	if m.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Detail != "" {
		body.Fprintf(&b, "   %s\n", m.Detail)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if m.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Hints) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if m.NoColor {
			cyan.DisableColor()
		}
		for _, hint := range m.Hints {
			cyan.Fprintf(&b, "   → %s\n", hint)
		}
	}

	return b.String()
}

// Write writes the rendered message to w.
func Write(w io.Writer, m Message) {
	fmt.Fprint(w, Format(m))
}

// Success renders a one-line success message.
func Success(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// FixtureError describes a fixture that failed to load.
func FixtureError(path string, err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "fixture invalid",
		Problem: path,
		Detail:  err.Error(),
		Hints:   []string{"Check the format: mockgraph metadata --help"},
		NoColor: noColor,
	}
}

// ModuleNotFoundError describes a specifier with no registered fixture.
// known feeds the suggestions.
func ModuleNotFoundError(specifier string, known []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "module not found",
		Problem:     specifier,
		Suggestions: FindSimilar(specifier, known, nil),
		Hints:       []string{"List snapshots: mockgraph snapshot list"},
		NoColor:     noColor,
	}
}

// ConfigError describes an invalid configuration.
func ConfigError(err error, noColor bool) Message {
	return Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: err.Error(),
		Hints: []string{
			"Regenerate the file: mockgraph init",
			"Get help: mockgraph --help",
		},
		NoColor: noColor,
	}
}

// Warning renders a warning line.
func Warning(message string, noColor bool) string {
	return Format(Message{Level: LevelWarning, Problem: message, NoColor: noColor})
}
