package textutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var allComparisons = []Comparison{
	Ordinal,
	OrdinalIgnoreCase,
	InvariantCulture,
	InvariantCultureIgnoreCase,
}

func TestNilInputReturnsNil(t *testing.T) {
	for _, cmp := range allComparisons {
		t.Run(cmp.String(), func(t *testing.T) {
			before, err := Before(nil, "foo", cmp)
			require.NoError(t, err)
			assert.Nil(t, before)

			after, err := After(nil, "foo", cmp)
			require.NoError(t, err)
			assert.Nil(t, after)
		})
	}
}

func TestEmptyDelimiterIsArgumentError(t *testing.T) {
	_, err := Before(Ptr("foo"), "", Ordinal)
	assert.True(t, errors.Is(err, ErrInvalidDelimiter))

	_, err = After(Ptr("foo"), "", Ordinal)
	assert.True(t, errors.Is(err, ErrInvalidDelimiter))

	// The argument check comes before the absence check.
	_, _, err = BeforeAndAfter(nil, "", OrdinalIgnoreCase)
	assert.True(t, errors.Is(err, ErrInvalidDelimiter))
}

func TestNotFoundReturnsNil(t *testing.T) {
	for _, cmp := range allComparisons {
		t.Run(cmp.String(), func(t *testing.T) {
			before, err := Before(Ptr("foo"), "bar", cmp)
			require.NoError(t, err)
			assert.Nil(t, before)

			after, err := After(Ptr("foo"), "bar", cmp)
			require.NoError(t, err)
			assert.Nil(t, after)

			b, a, err := BeforeAndAfter(Ptr("foo"), "bar", cmp)
			require.NoError(t, err)
			assert.Nil(t, b)
			assert.Nil(t, a)
		})
	}
}

func TestCaseSensitivity(t *testing.T) {
	s := Ptr("fooFooFOO")

	tests := []struct {
		name       string
		cmp        Comparison
		wantBefore string
		wantAfter  string
	}{
		{"ordinal", Ordinal, "foo", "FOO"},
		{"culture", InvariantCulture, "foo", "FOO"},
		{"ordinal ignore case", OrdinalIgnoreCase, "", "FooFOO"},
		{"culture ignore case", InvariantCultureIgnoreCase, "", "FooFOO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := Before(s, "Foo", tt.cmp)
			require.NoError(t, err)
			require.NotNil(t, before)
			assert.Equal(t, tt.wantBefore, *before)

			after, err := After(s, "Foo", tt.cmp)
			require.NoError(t, err)
			require.NotNil(t, after)
			assert.Equal(t, tt.wantAfter, *after)
		})
	}
}

func TestBoundaries(t *testing.T) {
	for _, cmp := range allComparisons {
		t.Run(cmp.String(), func(t *testing.T) {
			s := Ptr("abc")

			assert.Equal(t, Ptr(""), mustBefore(t, s, "a", cmp))
			assert.Equal(t, Ptr("bc"), mustAfter(t, s, "a", cmp))
			assert.Equal(t, Ptr("ab"), mustBefore(t, s, "c", cmp))
			assert.Equal(t, Ptr(""), mustAfter(t, s, "c", cmp))
		})
	}
}

func TestBeforeAndAfter(t *testing.T) {
	before, after, err := BeforeAndAfter(Ptr("abc;;AZ;;def"), ";;AZ;;", InvariantCultureIgnoreCase)
	require.NoError(t, err)
	require.NotNil(t, before)
	require.NotNil(t, after)
	assert.Equal(t, "abc", *before)
	assert.Equal(t, "def", *after)
}

func TestBeforeAndAfterUsesFirstMatch(t *testing.T) {
	before, after, err := BeforeAndAfter(Ptr("a|b|c"), "|", Ordinal)
	require.NoError(t, err)
	assert.Equal(t, "a", Value(before))
	assert.Equal(t, "b|c", Value(after))
}

func TestCanonicalEquivalence(t *testing.T) {
	decomposed := Ptr("cafe\u0301 [x]")

	// Precomposed é finds the decomposed form only in linguistic modes.
	before, err := Before(decomposed, "\u00e9", InvariantCulture)
	require.NoError(t, err)
	assert.Equal(t, Ptr("caf"), before)

	before, err = Before(decomposed, "\u00e9", Ordinal)
	require.NoError(t, err)
	assert.Nil(t, before)

	// A linguistic match never stops between e and its combining accent.
	before, err = Before(decomposed, "e", InvariantCulture)
	require.NoError(t, err)
	assert.Nil(t, before)
}

func TestTurkishCasing(t *testing.T) {
	s := Ptr("dosya[KISA]yol")

	// In Turkish, I lowercases to dotless ı, so it does not match i.
	after, err := After(s, "[kisa]", CultureComparison(language.Turkish, true))
	require.NoError(t, err)
	assert.Nil(t, after)

	after, err = After(s, "[kısa]", CultureComparison(language.Turkish, true))
	require.NoError(t, err)
	assert.Equal(t, Ptr("yol"), after)

	after, err = After(s, "[kisa]", InvariantCultureIgnoreCase)
	require.NoError(t, err)
	assert.Equal(t, Ptr("yol"), after)
}

func TestMultibyteSlicingKeepsRunesWhole(t *testing.T) {
	s := Ptr("日本語SEP文字")
	before, after, err := BeforeAndAfter(s, "sep", OrdinalIgnoreCase)
	require.NoError(t, err)
	assert.Equal(t, "日本語", Value(before))
	assert.Equal(t, "文字", Value(after))
}

func TestParseComparison(t *testing.T) {
	tests := []struct {
		name string
		want Comparison
	}{
		{"ordinal", Ordinal},
		{"Ordinal-Ignore-Case", OrdinalIgnoreCase},
		{"culture", InvariantCulture},
		{"culture-ignore-case", InvariantCultureIgnoreCase},
		{"invariant-culture-ignore-case", InvariantCultureIgnoreCase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseComparison(tt.name, language.Und)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}

	_, err := ParseComparison("fuzzy", language.Und)
	assert.Error(t, err)
}

func TestInvariantComparisonIgnoresLanguage(t *testing.T) {
	named, err := ParseComparison("invariant-culture-ignore-case", language.Turkish)
	require.NoError(t, err)
	assert.Equal(t, InvariantCultureIgnoreCase, named)
	assert.Equal(t, "invariant-culture-ignore-case", named.String())

	before, err := Before(Ptr("TITLE"), "ti", named)
	require.NoError(t, err)
	assert.Equal(t, Ptr(""), before)

	named, err = ParseComparison("invariant-culture", language.Turkish)
	require.NoError(t, err)
	assert.Equal(t, InvariantCulture, named)
	assert.Equal(t, "invariant-culture", named.String())

	// Culture modes keep the configured language.
	turkish, err := ParseComparison("culture-ignore-case", language.Turkish)
	require.NoError(t, err)
	assert.Equal(t, "culture-ignore-case", turkish.String())
	before, err = Before(Ptr("TITLE"), "ti", turkish)
	require.NoError(t, err)
	assert.Nil(t, before)
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "x", Value(Ptr("x")))
}

func mustBefore(t *testing.T, s *string, d string, cmp Comparison) *string {
	t.Helper()
	r, err := Before(s, d, cmp)
	require.NoError(t, err)
	return r
}

func mustAfter(t *testing.T, s *string, d string, cmp Comparison) *string {
	t.Helper()
	r, err := After(s, d, cmp)
	require.NoError(t, err)
	return r
}
