package errors

import (
	"go.uber.org/zap"
)

// Reporter accumulates diagnostics for one compilation run and mirrors them to a logger
type Reporter struct {
	logger      *zap.Logger
	diagnostics DiagnosticList
}

// NewReporter creates a reporter; a nil logger discards log output
func NewReporter(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger}
}

// Report records d and logs it at the level matching its severity
func (r *Reporter) Report(d *Diagnostic) *Diagnostic {
	r.diagnostics = append(r.diagnostics, d)

	fields := []zap.Field{
		zap.String("code", d.Code.String()),
		zap.String("element", d.Element),
		zap.String("category", string(d.Category)),
	}
	switch d.Severity {
	case SeverityWarning:
		r.logger.Warn(d.Message, fields...)
	default:
		r.logger.Error(d.Message, fields...)
	}
	return d
}

// Add creates and records a diagnostic for code
func (r *Reporter) Add(code ErrorCode, element string, args ...any) *Diagnostic {
	return r.Report(New(code, element, args...))
}

// Diagnostics returns everything recorded so far
func (r *Reporter) Diagnostics() DiagnosticList {
	return r.diagnostics
}
