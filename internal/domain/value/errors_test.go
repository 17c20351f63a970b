package value

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestError_Error(t *testing.T) {
	err := NewError(ImportCycle, "/docs/a.md", NewPosition(3, 1, 20), "a.md -> b.md -> a.md")

	assert.Equal(t, "/docs/a.md:3:1: import-cycle: a.md -> b.md -> a.md", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapError(ImportUnreadable, "/docs/a.md", cause, "cannot read")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestIsKind(t *testing.T) {
	cycle := NewError(ImportCycle, "a.md", Position{}, "cycle")
	missing := NewError(ImportNotFound, "b.md", Position{}, "missing")
	combined := multierr.Combine(cycle, missing)

	assert.True(t, IsKind(combined, ImportCycle))
	assert.True(t, IsKind(combined, ImportNotFound))
	assert.False(t, IsKind(combined, LexError))
	assert.True(t, IsKind(fmt.Errorf("wrapped: %w", cycle), ImportCycle))
	assert.False(t, IsKind(nil, ImportCycle))
}

func TestDiagnosticsFromError(t *testing.T) {
	combined := multierr.Combine(
		NewError(ImportNotFound, "", NewPosition(2, 1, 5), "missing.md"),
		errors.New("plain failure"),
	)

	diags := DiagnosticsFromError(combined, "/root.md")

	assert.Len(t, diags, 2)
	assert.Equal(t, ImportNotFound, diags[0].Kind)
	assert.Equal(t, "/root.md", diags[0].Path, "missing path is filled from the importer")
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "plain failure", diags[1].Message)
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ImportCycle, "import-cycle"},
		{CacheError, "cache-error"},
		{ImportDuplicate, "import-duplicate"},
		{ErrorKind(0), "unknown-error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestErrorKind_Severity(t *testing.T) {
	assert.Equal(t, SeverityWarning, MetadataSyntaxError.Severity())
	assert.Equal(t, SeverityWarning, ReferenceResolutionError.Severity())
	assert.Equal(t, SeverityWarning, ImportDuplicate.Severity())
	assert.Equal(t, SeverityInfo, CacheError.Severity())
	assert.Equal(t, SeverityError, LexError.Severity())
}
