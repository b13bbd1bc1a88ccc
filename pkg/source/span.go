// Package source provides byte-offset spans into constraint source text and
// a syntax error type that can locate its own enclosing line, for use when
// quoting the offending subexpression in a diagnostic.
package source

import "fmt"

// Span represents a contiguous slice of a constraint's source text. We keep
// physical offsets rather than a string slice so we can later recover the
// enclosing line (FindFirstEnclosingLine scans the text from its start).
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span, checking that start <= end.
func NewSpan(start, end int) Span {
	if start > end {
		panic("invalid span")
	}

	return Span{start, end}
}

// Start returns the first byte offset of this span in the source text.
func (s Span) Start() int { return s.start }

// End returns one past the last byte offset of this span in the source text.
func (s Span) End() int { return s.end }

// Length returns the number of bytes covered by this span.
func (s Span) Length() int { return s.end - s.start }

// Union returns the smallest span enclosing both s and other.
func (s Span) Union(other Span) Span {
	start := s.start
	if other.start < start {
		start = other.start
	}

	end := s.end
	if other.end > end {
		end = other.end
	}

	return Span{start, end}
}

// Text is a constraint's source text, held by reference for the duration of
// an evaluation (§4.4's EvaluationContext borrows it; no copies are made).
type Text struct {
	contents string
}

// NewText wraps a constraint's source text for span lookups and quoting.
func NewText(contents string) *Text {
	return &Text{contents}
}

// Contents returns the full source text.
func (t *Text) Contents() string { return t.contents }

// Quote returns the substring of the source text covered by span, clamped to
// the bounds of the text (defensive against a malformed span reaching here
// from an internal error path).
func (t *Text) Quote(span Span) string {
	start, end := span.start, span.end
	if start < 0 {
		start = 0
	}

	if end > len(t.contents) {
		end = len(t.contents)
	}

	if start > end {
		return ""
	}

	return t.contents[start:end]
}

// Line describes one physical line of a source text: its 1-based line
// number, and its span within the text.
type Line struct {
	number int
	span   Span
}

// Number returns the 1-based line number.
func (l Line) Number() int { return l.number }

// FindFirstEnclosingLine determines the first line in t which encloses the
// start of span. If span starts beyond the end of the text, the last line is
// returned. The returned line is not guaranteed to enclose the entire span,
// since a span may cross multiple lines.
func (t *Text) FindFirstEnclosingLine(span Span) Line {
	index := span.start
	num := 1
	start := 0

	for i := 0; i < len(t.contents); i++ {
		if i == index {
			return Line{num, Span{start, findEndOfLine(index, t.contents)}}
		} else if t.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}

	return Line{num, Span{start, len(t.contents)}}
}

// Column computes the 1-based column of offset within its enclosing line.
func (t *Text) Column(offset int) int {
	line := t.FindFirstEnclosingLine(Span{offset, offset})
	return offset - line.span.start + 1
}

func findEndOfLine(index int, text string) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}

	return len(text)
}

// SyntaxError is a structured error which retains the span in the original
// constraint text where it arose, along with a message. Used by pkg/errs to
// render the located-and-quoted diagnostics required by §4.4.3/§7.
type SyntaxError struct {
	text *Text
	span Span
	msg  string
}

// NewSyntaxError constructs a syntax error for a given span of text.
func NewSyntaxError(text *Text, span Span, msg string) *SyntaxError {
	return &SyntaxError{text, span, msg}
}

// Span returns the span this error is reported against.
func (e *SyntaxError) Span() Span { return e.span }

// Message returns the bare message, without position information.
func (e *SyntaxError) Message() string { return e.msg }

// Error implements the error interface, rendering "line:col: msg" followed
// by a quote of the offending source text when available.
func (e *SyntaxError) Error() string {
	if e.text == nil {
		return e.msg
	}

	line := e.text.FindFirstEnclosingLine(e.span)
	col := e.text.Column(e.span.Start())

	return fmt.Sprintf("%d:%d: %s (%q)", line.Number(), col, e.msg, e.text.Quote(e.span))
}
