// Package snippet turns template files into Templates: a key combination,
// a body to insert and enough provenance to explain what went wrong.
//
// A template's key comes from a YAML front matter header when one is
// present, otherwise from a bracketed token in the file name:
//
//	Signature [Ctrl+Alt+S].snip
//
//	---
//	key: Ctrl+Alt+S
//	title: Signature
//	---
//	Kind regards,
package snippet

import (
	"path/filepath"
	"strings"

	"github.com/conneroisu/hotsnip/internal/hotkey"
)

// DefaultExtension is the file extension of template files.
const DefaultExtension = ".snip"

// Template is one parsed snippet definition. Templates are rebuilt on every
// reconciliation pass and never mutated after parsing.
type Template struct {
	// Key is the combination that inserts Body; nil means the file is not a hotkey.
	Key *hotkey.Combo `json:"key" yaml:"key"`
	// Body is the literal text to insert.
	Body string `json:"body" yaml:"body"`
	// SourcePath is the file the template came from.
	SourcePath string `json:"source_path" yaml:"source_path"`
	// Title is a human label for listings and logs.
	Title string `json:"title" yaml:"title"`
	// Reason explains why the template is not eligible.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Err is set when the file is malformed rather than simply not a hotkey.
	Err error `json:"-" yaml:"-"`
}

// Eligible reports whether t should be registered.
func (t *Template) Eligible() bool {
	return t != nil && t.Key != nil && t.Body != ""
}

// KeyString returns the canonical key, or "" when there is none.
func (t *Template) KeyString() string {
	if t == nil || t.Key == nil {
		return ""
	}
	return t.Key.String()
}

// HasExtension reports whether name ends in ext, ignoring case.
func HasExtension(name, ext string) bool {
	return ext != "" && strings.EqualFold(filepath.Ext(name), ext)
}
