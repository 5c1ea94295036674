package snippet

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/hotkey"
	"github.com/conneroisu/hotsnip/internal/textutil"
)

const (
	frontMatterFence = "---"
	byteOrderMark    = "\ufeff"
)

// Options configures how key tokens are located in file names.
type Options struct {
	OpenMarker  string
	CloseMarker string
	Comparison  textutil.Comparison
}

// DefaultOptions returns the bracket markers with case-insensitive matching.
func DefaultOptions() Options {
	return Options{
		OpenMarker:  "[",
		CloseMarker: "]",
		Comparison:  textutil.OrdinalIgnoreCase,
	}
}

// Parser converts file contents into Templates.
type Parser struct {
	opts Options
}

// NewParser creates a parser. Both markers are required.
func NewParser(opts Options) (*Parser, error) {
	if opts.OpenMarker == "" || opts.CloseMarker == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument,
			"key token markers must not be empty")
	}
	return &Parser{opts: opts}, nil
}

type frontMatter struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
}

// Parse builds a Template from contents read from fileName. Content that is
// not a usable template yields a Template with a nil Key or an empty Body and
// a Reason, plus Err when the content is malformed. The returned error is
// reserved for invalid parser configuration.
func (p *Parser) Parse(contents, fileName string) (*Template, error) {
	contents = strings.TrimPrefix(contents, byteOrderMark)
	tmpl := &Template{SourcePath: fileName}

	stem := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	title, token, err := p.nameToken(stem)
	if err != nil {
		return nil, err
	}
	tmpl.Title = title

	header, body, found, fmErr := splitFrontMatter(contents)
	if fmErr != nil {
		tmpl.Err = fmErr
		tmpl.Reason = fmErr.Message
		return tmpl, nil
	}
	tmpl.Body = body

	if found {
		var fm frontMatter
		if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
			tmpl.Body = ""
			tmpl.Err = errors.NewParseError(errors.ErrCodeFrontMatter, "invalid front matter", err)
			tmpl.Reason = "invalid front matter: " + err.Error()
			return tmpl, nil
		}
		if fm.Title != "" {
			tmpl.Title = fm.Title
		}
		if fm.Key != "" {
			token = &fm.Key
		}
	}

	switch {
	case token == nil:
		tmpl.Reason = "no key token"
	default:
		combo, err := hotkey.ParseCombo(*token)
		if err != nil {
			tmpl.Err = err
			tmpl.Reason = "invalid key " + strconv.Quote(*token)
			break
		}
		tmpl.Key = &combo
		if tmpl.Body == "" {
			tmpl.Reason = "empty body"
		}
	}

	return tmpl, nil
}

// ParseFile reads path from fsys and parses it.
func (p *Parser) ParseFile(fsys afero.Fs, path string) (*Template, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.ErrFileUnreadable(path, err)
	}

	tmpl, err := p.Parse(string(data), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	tmpl.SourcePath = path
	return tmpl, nil
}

// nameToken splits a file stem into its title and key token. The token is
// nil when the stem carries no complete marker pair.
func (p *Parser) nameToken(stem string) (string, *string, error) {
	cmp := p.opts.Comparison

	inner, err := textutil.After(&stem, p.opts.OpenMarker, cmp)
	if err != nil {
		return "", nil, err
	}
	token, err := textutil.Before(inner, p.opts.CloseMarker, cmp)
	if err != nil {
		return "", nil, err
	}
	if token == nil {
		return strings.TrimSpace(stem), nil, nil
	}

	head, err := textutil.Before(&stem, p.opts.OpenMarker, cmp)
	if err != nil {
		return "", nil, err
	}
	title := strings.TrimSpace(textutil.Value(head))
	if title == "" {
		tail, _ := textutil.After(inner, p.opts.CloseMarker, cmp)
		title = strings.TrimSpace(textutil.Value(tail))
	}
	if title == "" {
		title = strings.TrimSpace(stem)
	}

	trimmed := strings.TrimSpace(*token)
	return title, &trimmed, nil
}

// splitFrontMatter separates a leading "---" fenced header from the body.
// found is false when contents has no header; an error is returned when a
// header is opened but never closed.
func splitFrontMatter(contents string) (header, body string, found bool, err *errors.HotsnipError) {
	rest, ok := cutLine(contents, frontMatterFence)
	if !ok {
		return "", contents, false, nil
	}

	// Prefix a newline so an empty header still matches the closing fence.
	framed := "\n" + rest
	offset := 0
	for {
		window := framed[offset:]
		before, after, _ := textutil.BeforeAndAfter(&window, "\n"+frontMatterFence, textutil.Ordinal)
		if before == nil {
			break
		}
		// A fence must be alone on its line; "----" or "--- x" is header text.
		if tail, ok := cutLine(frontMatterFence+*after, frontMatterFence); ok {
			end := offset + len(*before)
			return strings.TrimPrefix(framed[:end], "\n"), tail, true, nil
		}
		offset = len(framed) - len(*after)
	}

	return "", "", false, errors.NewParseError(errors.ErrCodeFrontMatter, "unterminated front matter", nil)
}

// cutLine reports whether s starts with a line consisting of exactly line,
// and returns the text after that line's terminator.
func cutLine(s, line string) (string, bool) {
	if !strings.HasPrefix(s, line) {
		return "", false
	}
	rest := s[len(line):]
	switch {
	case rest == "":
		return "", true
	case strings.HasPrefix(rest, "\r\n"):
		return rest[2:], true
	case strings.HasPrefix(rest, "\n"):
		return rest[1:], true
	}
	return "", false
}
