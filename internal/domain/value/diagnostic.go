package value

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal problem recorded against a document.
// Diagnostics are immutable value objects.
type Diagnostic struct {
	Severity Severity  `json:"severity" msgpack:"severity"`
	Kind     ErrorKind `json:"kind" msgpack:"kind"`
	Path     string    `json:"path,omitempty" msgpack:"path"`
	Pos      Position  `json:"pos" msgpack:"pos"`
	Message  string    `json:"message" msgpack:"message"`
}

// NewDiagnostic creates a Diagnostic using the default severity of kind.
func NewDiagnostic(kind ErrorKind, path string, pos Position, message string) Diagnostic {
	return Diagnostic{
		Severity: kind.Severity(),
		Kind:     kind,
		Path:     path,
		Pos:      pos,
		Message:  message,
	}
}

// DiagnosticFromError converts an error into a Diagnostic. Errors that are not
// an *Error are reported as import-unreadable failures attributed to path.
func DiagnosticFromError(err error, path string) Diagnostic {
	var pe *Error
	if errors.As(err, &pe) {
		p := pe.Path
		if p == "" {
			p = path
		}
		msg := pe.Msg
		if pe.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, pe.Err)
		}
		return NewDiagnostic(pe.Kind, p, pe.Pos, msg)
	}
	return NewDiagnostic(ImportUnreadable, path, Position{}, err.Error())
}

// DiagnosticsFromError flattens an aggregated error into diagnostics.
func DiagnosticsFromError(err error, path string) []Diagnostic {
	errs := multierr.Errors(err)
	diags := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		diags = append(diags, DiagnosticFromError(e, path))
	}
	return diags
}

// Location returns a human-readable location string.
func (d Diagnostic) Location() string {
	if d.Pos.Line == 0 {
		return d.Path
	}
	if d.Path == "" {
		return d.Pos.String()
	}
	return fmt.Sprintf("%s:%s", d.Path, d.Pos)
}

// String implements the Stringer interface.
func (d Diagnostic) String() string {
	loc := d.Location()
	if loc == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", loc, d.Severity, d.Kind, d.Message)
}
