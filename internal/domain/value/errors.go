package value

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrorKind classifies a failure in the composition pipeline.
type ErrorKind int

const (
	// LexError is an invalid escape or an unterminated fence. Fatal to the document.
	LexError ErrorKind = iota + 1
	// MetadataSyntaxError is a malformed metadata block. Fatal to the element only.
	MetadataSyntaxError
	// ImportNotFound means the import target does not exist.
	ImportNotFound
	// ImportUnreadable means the import target exists but could not be read.
	ImportUnreadable
	// ImportInvalidEncoding means a textual import target is not valid UTF-8.
	ImportInvalidEncoding
	// ImportCycle means the import target is already on the current import chain.
	ImportCycle
	// ImportTypeMismatch means the target content does not match its declared type.
	ImportTypeMismatch
	// ReferenceResolutionError is a citation or glossary reference to an undefined key.
	ReferenceResolutionError
	// CacheError is a cache read or write failure. Never fatal.
	CacheError
	// ImportDuplicate means the import target was already spliced into the
	// composition. The directive is dropped.
	ImportDuplicate
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex-error"
	case MetadataSyntaxError:
		return "metadata-syntax-error"
	case ImportNotFound:
		return "import-not-found"
	case ImportUnreadable:
		return "import-unreadable"
	case ImportInvalidEncoding:
		return "import-invalid-encoding"
	case ImportCycle:
		return "import-cycle"
	case ImportTypeMismatch:
		return "import-type-mismatch"
	case ReferenceResolutionError:
		return "reference-resolution-error"
	case CacheError:
		return "cache-error"
	case ImportDuplicate:
		return "import-duplicate"
	default:
		return "unknown-error"
	}
}

// Severity returns the default diagnostic severity for errors of this kind.
func (k ErrorKind) Severity() Severity {
	switch k {
	case MetadataSyntaxError, ReferenceResolutionError, ImportDuplicate:
		return SeverityWarning
	case CacheError:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// Error is a located pipeline failure.
type Error struct {
	Kind ErrorKind
	Path string   // canonical path of the file the error belongs to, if any
	Pos  Position // zero when the error has no source location
	Msg  string
	Err  error // underlying cause, if any
}

// NewError creates a new Error.
func NewError(kind ErrorKind, path string, pos Position, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Path: path,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// WrapError creates a new Error around an underlying cause.
func WrapError(kind ErrorKind, path string, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Path: path,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteByte(':')
	}
	if e.Pos.Line > 0 {
		b.WriteString(e.Pos.String())
		b.WriteByte(':')
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithPath returns a copy of the error attributed to path.
func (e *Error) WithPath(path string) *Error {
	newErr := *e
	newErr.Path = path
	return &newErr
}

// IsKind reports whether err, or any error aggregated inside it, is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for _, e := range multierr.Errors(err) {
		var pe *Error
		if errors.As(e, &pe) && pe.Kind == kind {
			return true
		}
	}
	return false
}

// KindOf returns the kind of the first *Error found in err, or zero.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
