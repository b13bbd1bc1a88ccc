// Package errs defines the three disjoint error kinds from the constraint
// backend's error handling design: definition errors (schema construction),
// input errors (entry/action binding), and internal errors (evaluator bugs
// surfaced via the AST). Callers distinguish them with errors.As.
package errs

import (
	"fmt"

	"github.com/jafingerhut/p4-constraints/pkg/source"
)

// DefinitionError reports malformed program metadata discovered while
// building a ConstraintInfo. Fatal to that construction.
type DefinitionError struct {
	msg string
}

// NewDefinitionError constructs a definition error with the given message.
func NewDefinitionError(format string, args ...any) *DefinitionError {
	return &DefinitionError{fmt.Sprintf(format, args...)}
}

func (e *DefinitionError) Error() string { return "definition error: " + e.msg }

// InputError reports that an entry or action invocation fails to map onto
// the schema: an unknown field id, a missing required key, a malformed wire
// encoding, or a violated match-value invariant. The entry is rejected
// before evaluation.
type InputError struct {
	msg string
}

// NewInputError constructs an input error with the given message.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string { return "input error: " + e.msg }

// InternalError indicates a bug in the type-checker or parser: a malformed
// AST, a dynamic type tag mismatch, or an unresolved name. It optionally
// carries a source span so the caller can quote the offending constraint
// text, as §4.4.1/§7 require.
type InternalError struct {
	msg  string
	text *source.Text
	span *source.Span
}

// NewInternalError constructs an internal error with no source span.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{msg: fmt.Sprintf(format, args...)}
}

// NewInternalErrorAt constructs an internal error located at span within
// text, so Error() can quote the offending subexpression.
func NewInternalErrorAt(text *source.Text, span source.Span, format string, args ...any) *InternalError {
	return &InternalError{msg: fmt.Sprintf(format, args...), text: text, span: &span}
}

func (e *InternalError) Error() string {
	if e.text == nil || e.span == nil {
		return "internal error: " + e.msg
	}

	return "internal error: " + source.NewSyntaxError(e.text, *e.span, e.msg).Error()
}
