// Package ui formats terminal output of the modelschema command.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

func levelColors(level ErrorLevel, noColor bool) (header, body *color.Color, symbol string) {
	switch level {
	case ErrorLevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
	if noColor {
		header.DisableColor()
		body.DisableColor()
	}
	return header, body, symbol
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a message with optional suggestions and help commands
//
// Example output:
//
//	❌ SCHEMA NOT FOUND: Transprt
//	   No application schema 'Transprt' in the model.
//
//	   Did you mean: Transport?
//
//	   → Get help: modelschema build --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder
	header, body, symbol := levelColors(opts.Level, opts.NoColor)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		if opts.Problem != "" {
			body.Fprintf(&b, "   %s\n", opts.Problem)
		}
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}
	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}
	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// SchemaNotFoundError reports a requested application schema missing from the model
func SchemaNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "SCHEMA NOT FOUND",
		Problem:     fmt.Sprintf("No application schema '%s' in the model.", name),
		Suggestions: suggestions,
		HelpCommands: []string{
			"Select schemas in modelschema.yml under 'schemas'",
			"Get help: modelschema build --help",
		},
		NoColor: noColor,
	})
}

// BuildError reports a failed compilation
func BuildError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "BUILD FAILED",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Show details: modelschema build --verbose",
			"Get help: modelschema build --help",
		},
		NoColor: noColor,
	})
}

// ConfigError reports an unusable configuration
func ConfigError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CONFIGURATION ERROR",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Create a configuration: modelschema init",
			"Configuration schema: modelschema config schema",
		},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	})
}

// Info creates an info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}

// WriteDiagnostics prints diagnostics one per line colored by severity, followed by a
// summary line. Warnings are skipped unless showWarnings is set.
func WriteDiagnostics(w io.Writer, list errors.DiagnosticList, showWarnings, noColor bool) {
	red := paint(noColor, color.FgRed)
	yellow := paint(noColor, color.FgYellow)
	gray := paint(noColor, color.FgHiBlack)

	for _, d := range list {
		c := red
		if d.Severity == errors.SeverityWarning {
			if !showWarnings {
				continue
			}
			c = yellow
		}
		c.Fprintln(w, errors.FormatCompact(d))
		if d.Suggestion != "" {
			gray.Fprintf(w, "   → %s\n", d.Suggestion)
		}
	}

	fatal, errs, warnings := list.Count()
	if fatal+errs+warnings == 0 {
		return
	}
	summary := fmt.Sprintf("%d error(s), %d warning(s)", fatal+errs, warnings)
	if fatal+errs > 0 {
		paint(noColor, color.FgRed, color.Bold).Fprintln(w, summary)
	} else {
		paint(noColor, color.FgYellow, color.Bold).Fprintln(w, summary)
	}
}
