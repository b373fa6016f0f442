// Package errors provides structured diagnostics for the schema compiler.
// It defines stable numeric codes, categories and severities, and formatting for both
// human-readable terminal output and machine-parseable JSON.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode is the stable numeric identifier of a diagnostic
type ErrorCode int

// String returns the code as printed in diagnostics (e.g. "MS101")
func (c ErrorCode) String() string {
	return fmt.Sprintf("MS%03d", int(c))
}

// ErrorCategory represents the compiler component that raised a diagnostic
type ErrorCategory string

const (
	// CategoryResolution represents type and value resolution (100-199)
	CategoryResolution ErrorCategory = "resolution"
	// CategoryEncoding represents encoding info propagation (200-299)
	CategoryEncoding ErrorCategory = "encoding"
	// CategoryAnnotation represents annotation rendering (300-399)
	CategoryAnnotation ErrorCategory = "annotation"
	// CategoryAssembly represents per-class schema assembly (400-499)
	CategoryAssembly ErrorCategory = "assembly"
	// CategoryCollection represents collection generation (500-599)
	CategoryCollection ErrorCategory = "collection"
	// CategoryOutput represents document output (900-999)
	CategoryOutput ErrorCategory = "output"
)

// ErrorSeverity indicates the severity level of a diagnostic
type ErrorSeverity string

const (
	// SeverityWarning is a recoverable, cosmetic issue; the offending value is omitted
	SeverityWarning ErrorSeverity = "warning"
	// SeverityError degrades a class or property but the run continues
	SeverityError ErrorSeverity = "error"
	// SeverityFatal aborts the run
	SeverityFatal ErrorSeverity = "fatal"
)

// Diagnostic is a single compiler finding attached to a model element
type Diagnostic struct {
	// Code is the stable numeric code
	Code ErrorCode `json:"code"`
	// Type is a machine-readable identifier of the diagnostic kind
	Type string `json:"type"`
	// Category is the component that raised the diagnostic
	Category ErrorCategory `json:"category"`
	// Severity is the severity level
	Severity ErrorSeverity `json:"severity"`
	// Message is the rendered message template
	Message string `json:"message"`
	// Element is the fully-qualified name of the offending model element
	Element string `json:"element,omitempty"`
	// Suggestion provides a hint for fixing the problem (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Documentation is a URL to detailed documentation of the code
	Documentation string `json:"documentation,omitempty"`
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	return FormatCompact(d)
}

// Format returns a human-readable message for terminal output
func (d *Diagnostic) Format() string {
	return FormatDiagnostic(d)
}

// ToJSON returns the diagnostic as a JSON string
func (d *Diagnostic) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithElement sets the offending element
func (d *Diagnostic) WithElement(element string) *Diagnostic {
	d.Element = element
	return d
}

// WithSuggestion sets a suggestion for fixing the problem
func (d *Diagnostic) WithSuggestion(suggestion string) *Diagnostic {
	d.Suggestion = suggestion
	return d
}

// WithDocumentation links further documentation of the problem
func (d *Diagnostic) WithDocumentation(url string) *Diagnostic {
	d.Documentation = url
	return d
}

// DiagnosticList is a collection of diagnostics
type DiagnosticList []*Diagnostic

// Error implements the error interface
func (dl DiagnosticList) Error() string {
	if len(dl) == 0 {
		return "no diagnostics"
	}
	return FormatList(dl)
}

// HasErrors returns true if the list contains errors or fatal diagnostics
func (dl DiagnosticList) HasErrors() bool {
	for _, d := range dl {
		if d.Severity == SeverityError || d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// HasFatal returns true if the list contains a fatal diagnostic
func (dl DiagnosticList) HasFatal() bool {
	for _, d := range dl {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// WithCode returns the diagnostics carrying the given code
func (dl DiagnosticList) WithCode(code ErrorCode) DiagnosticList {
	var out DiagnosticList
	for _, d := range dl {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// ToJSON returns all diagnostics as a JSON array
func (dl DiagnosticList) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(dl, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Count returns the number of diagnostics by severity
func (dl DiagnosticList) Count() (fatal, errors, warnings int) {
	for _, d := range dl {
		switch d.Severity {
		case SeverityFatal:
			fatal++
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return
}

// New creates a diagnostic for code, rendering its message template with args.
// Unknown codes produce an error-severity diagnostic with the raw arguments.
func New(code ErrorCode, element string, args ...any) *Diagnostic {
	def, ok := definitions[code]
	if !ok {
		return &Diagnostic{
			Code:     code,
			Type:     "unknown",
			Severity: SeverityError,
			Message:  fmt.Sprint(args...),
			Element:  element,
		}
	}
	return &Diagnostic{
		Code:     code,
		Type:     def.typ,
		Category: def.category,
		Severity: def.severity,
		Message:  fmt.Sprintf(def.format, args...),
		Element:  element,
	}
}
