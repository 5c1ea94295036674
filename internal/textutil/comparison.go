package textutil

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Comparison selects how a delimiter is matched against text.
//
// Ordinal comparisons look at code points only. Linguistic comparisons treat
// canonically equivalent sequences as equal (é written precomposed or as
// e + combining accent) and never match part of a combining sequence. With
// IgnoreCase they lowercase using the casing rules of Language.
type Comparison struct {
	Linguistic bool
	IgnoreCase bool
	Language   language.Tag
}

var (
	// Ordinal matches bytes exactly.
	Ordinal = Comparison{}
	// OrdinalIgnoreCase matches after Unicode case folding.
	OrdinalIgnoreCase = Comparison{IgnoreCase: true}
	// InvariantCulture matches canonically equivalent text, case-sensitively.
	InvariantCulture = Comparison{Linguistic: true, Language: language.Und}
	// InvariantCultureIgnoreCase matches canonically equivalent text regardless of case.
	InvariantCultureIgnoreCase = Comparison{Linguistic: true, IgnoreCase: true, Language: language.Und}
)

// CultureComparison returns a linguistic comparison for a specific language.
func CultureComparison(tag language.Tag, ignoreCase bool) Comparison {
	return Comparison{Linguistic: true, IgnoreCase: ignoreCase, Language: tag}
}

// ParseComparison maps a configuration name to a Comparison. Culture modes
// use tag for language-specific casing; invariant modes ignore it.
func ParseComparison(name string, tag language.Tag) (Comparison, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ordinal":
		return Ordinal, nil
	case "ordinal-ignore-case":
		return OrdinalIgnoreCase, nil
	case "culture":
		return CultureComparison(tag, false), nil
	case "culture-ignore-case":
		return CultureComparison(tag, true), nil
	case "invariant-culture":
		return InvariantCulture, nil
	case "invariant-culture-ignore-case":
		return InvariantCultureIgnoreCase, nil
	default:
		return Comparison{}, fmt.Errorf("unknown comparison %q (supported: ordinal, ordinal-ignore-case, "+
			"culture, culture-ignore-case, invariant-culture, invariant-culture-ignore-case)", name)
	}
}

// String returns the configuration name of the comparison.
func (c Comparison) String() string {
	switch {
	case !c.Linguistic && !c.IgnoreCase:
		return "ordinal"
	case !c.Linguistic:
		return "ordinal-ignore-case"
	case c.Language == language.Und && !c.IgnoreCase:
		return "invariant-culture"
	case c.Language == language.Und:
		return "invariant-culture-ignore-case"
	case !c.IgnoreCase:
		return "culture"
	default:
		return "culture-ignore-case"
	}
}

func (c Comparison) transformer() transform.Transformer {
	switch {
	case !c.Linguistic && !c.IgnoreCase:
		return nil
	case !c.Linguistic:
		return cases.Fold()
	case !c.IgnoreCase:
		return norm.NFD
	default:
		return transform.Chain(norm.NFD, cases.Lower(c.Language))
	}
}

// index finds the first match of delim in s and returns its byte range in s.
// The range always falls on rune boundaries of s.
func (c Comparison) index(s, delim string) (start, end int, ok bool) {
	t := c.transformer()
	if t == nil {
		i := strings.Index(s, delim)
		if i < 0 {
			return 0, 0, false
		}
		return i, i + len(delim), true
	}

	target, _, err := transform.String(t, delim)
	if err != nil || target == "" {
		return 0, 0, false
	}

	// Grow a window from every rune start until its transformed form either
	// equals the target or can no longer become it. Linguistic matches must
	// not split a base character from its combining marks.
	for i := 0; i < len(s); {
		if !c.Linguistic || c.boundary(s, i) {
			for j := i; j < len(s); {
				_, size := utf8.DecodeRuneInString(s[j:])
				j += size

				window, _, err := transform.String(t, s[i:j])
				if err != nil {
					break
				}
				if window == target && (!c.Linguistic || c.boundary(s, j)) {
					return i, j, true
				}
				if len(window) > len(target) || !strings.HasPrefix(target, window) {
					break
				}
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return 0, 0, false
}

func (c Comparison) boundary(s string, i int) bool {
	return i >= len(s) || norm.NFD.FirstBoundaryInString(s[i:]) == 0
}
