package errors

import (
	"fmt"
	"strings"
)

// FormatDiagnostic returns a human-readable message for terminal output
func FormatDiagnostic(d *Diagnostic) string {
	var b strings.Builder

	element := d.Element
	if element == "" {
		element = "<model>"
	}

	fmt.Fprintf(&b, "%s %s [%s] in %s\n", severityIcon(d.Severity), categoryDisplayName(d.Category), d.Code, element)
	fmt.Fprintf(&b, "  %s\n", d.Message)

	if d.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", d.Suggestion)
	}

	if d.Documentation != "" {
		fmt.Fprintf(&b, "\nLearn more: %s\n", d.Documentation)
	}

	return b.String()
}

// FormatList returns a formatted string of all diagnostics
func FormatList(list DiagnosticList) string {
	if len(list) == 0 {
		return "no diagnostics"
	}

	var b strings.Builder

	fatal, errCount, warnCount := list.Count()
	fmt.Fprintf(&b, "Compilation finished with %d fatal, %d error(s), %d warning(s)\n\n",
		fatal, errCount, warnCount)

	for i, d := range list {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(d.Format())
	}

	return b.String()
}

// FormatCompact returns a compact one-line format
func FormatCompact(d *Diagnostic) string {
	element := d.Element
	if element == "" {
		element = "<model>"
	}
	return fmt.Sprintf("%s: %s: %s [%s]", element, d.Severity, d.Message, d.Code)
}

// severityIcon returns the emoji/icon for a severity level
func severityIcon(severity ErrorSeverity) string {
	switch severity {
	case SeverityFatal:
		return "⛔"
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	default:
		return "❓"
	}
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategoryResolution:
		return "Resolution"
	case CategoryEncoding:
		return "Encoding Info"
	case CategoryAnnotation:
		return "Annotation"
	case CategoryAssembly:
		return "Schema Assembly"
	case CategoryCollection:
		return "Collection"
	case CategoryOutput:
		return "Output"
	default:
		return "Compiler"
	}
}
