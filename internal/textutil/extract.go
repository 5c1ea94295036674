// Package textutil provides delimiter-based slicing used to pull key tokens
// and bodies out of template files and file names.
//
// Absent text is represented by a nil *string. An absent input propagates to
// an absent result, a delimiter that does not occur yields an absent result,
// and an empty delimiter is an argument error.
package textutil

import (
	"github.com/conneroisu/hotsnip/internal/errors"
)

// ErrInvalidDelimiter is returned when the delimiter is empty.
var ErrInvalidDelimiter = errors.NewValidationError(errors.ErrCodeInvalidArgument, "delimiter must not be empty")

// Before returns the part of s preceding the first occurrence of delim.
func Before(s *string, delim string, cmp Comparison) (*string, error) {
	before, _, err := BeforeAndAfter(s, delim, cmp)
	return before, err
}

// After returns the part of s following the first occurrence of delim.
func After(s *string, delim string, cmp Comparison) (*string, error) {
	_, after, err := BeforeAndAfter(s, delim, cmp)
	return after, err
}

// BeforeAndAfter splits s around the first occurrence of delim. Both halves
// come from the same match; both are nil when there is none.
func BeforeAndAfter(s *string, delim string, cmp Comparison) (before, after *string, err error) {
	if delim == "" {
		return nil, nil, ErrInvalidDelimiter
	}
	if s == nil {
		return nil, nil, nil
	}

	start, end, ok := cmp.index(*s, delim)
	if !ok {
		return nil, nil, nil
	}

	b, a := (*s)[:start], (*s)[end:]
	return &b, &a, nil
}

// Ptr returns a pointer to s, for passing literals to the extractors.
func Ptr(s string) *string {
	return &s
}

// Value dereferences p, treating nil as "".
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
