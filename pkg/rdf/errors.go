package rdf

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedFormat is returned when no adapter exists for a media type
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDepthExceeded is wrapped in a ParseError when nested blank nodes,
	// collections or XML elements go deeper than the configured limit
	ErrDepthExceeded = errors.New("nesting depth exceeded")
)

// ParseError reports malformed input detected by a format adapter
type ParseError struct {
	Format Format
	// Line is the 1-based input line, or 0 when the decoder does not track lines
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format Format, line int, err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return &ParseError{Format: format, Line: line, Err: err}
}
