// Package scaffolding creates template files and the template folder from
// built-in text/templates, checking that what it writes parses back.
package scaffolding

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/hotkey"
	"github.com/conneroisu/hotsnip/internal/snippet"
)

// ReadmeName is the file written into a new template folder.
const ReadmeName = "README.txt"

// Generator writes template files into one folder.
type Generator struct {
	fs        afero.Fs
	folder    string
	extension string
	options   snippet.Options
	parser    *snippet.Parser
	templates map[string]FileTemplate
}

// GenerateOptions holds options for template generation
type GenerateOptions struct {
	Title     string
	Key       string
	Body      string
	Layout    Layout
	Overwrite bool
}

// NewGenerator creates a generator for folder.
func NewGenerator(fs afero.Fs, folder, extension string, opts snippet.Options) (*Generator, error) {
	parser, err := snippet.NewParser(opts)
	if err != nil {
		return nil, err
	}
	return &Generator{
		fs:        fs,
		folder:    folder,
		extension: extension,
		options:   opts,
		parser:    parser,
		templates: GetBuiltinTemplates(),
	}, nil
}

// InitFolder creates the template folder and its README. It reports
// whether the folder had to be created.
func (g *Generator) InitFolder() (bool, error) {
	exists, err := afero.DirExists(g.fs, g.folder)
	if err != nil {
		return false, errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to inspect template folder").WithFile(g.folder)
	}
	if !exists {
		if err := g.fs.MkdirAll(g.folder, 0o755); err != nil {
			return false, errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to create template folder").WithFile(g.folder)
		}
	}

	readme := filepath.Join(g.folder, ReadmeName)
	if ok, _ := afero.Exists(g.fs, readme); !ok {
		if err := g.generateFile(readme, "readme", g.context(GenerateOptions{})); err != nil {
			return !exists, err
		}
	}
	return !exists, nil
}

// Generate writes a new template file and returns its path.
func (g *Generator) Generate(opts GenerateOptions) (string, error) {
	if opts.Layout == "" {
		opts.Layout = LayoutFileName
	}
	if _, ok := g.templates[string(opts.Layout)]; !ok {
		return "", errors.NewValidationError(errors.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown layout %q", opts.Layout))
	}
	if err := g.ValidateTitle(opts.Title); err != nil {
		return "", err
	}
	if opts.Body == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidArgument, "template body cannot be empty")
	}

	combo, err := hotkey.ParseCombo(opts.Key)
	if err != nil {
		return "", err
	}
	opts.Key = combo.String()

	path := filepath.Join(g.folder, g.fileName(opts))
	if exists, _ := afero.Exists(g.fs, path); exists && !opts.Overwrite {
		return "", errors.NewValidationError(errors.ErrCodeInvalidArgument, "template already exists").
			WithFile(path)
	}

	if err := g.generateFile(path, string(opts.Layout), g.context(opts)); err != nil {
		return "", err
	}

	tmpl, err := g.parser.ParseFile(g.fs, path)
	if err != nil {
		return path, err
	}
	if !tmpl.Eligible() || *tmpl.Key != combo {
		return path, errors.NewInternalError(errors.ErrCodeInternalError,
			"generated template does not parse back: "+tmpl.Reason, tmpl.Err).WithFile(path)
	}
	return path, nil
}

// ListTemplates returns the available layouts.
func (g *Generator) ListTemplates() []FileTemplate {
	return []FileTemplate{
		g.templates[string(LayoutFileName)],
		g.templates[string(LayoutFrontMatter)],
	}
}

// ValidateTitle checks that title can be used in a file name.
func (g *Generator) ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidArgument, "template title cannot be empty")
	}
	if strings.ContainsAny(title, `/\:*?"<>|`) {
		return errors.NewValidationError(errors.ErrCodeInvalidArgument,
			"template title cannot contain path or reserved characters").WithContext("title", title)
	}
	if strings.Contains(title, g.options.OpenMarker) || strings.Contains(title, g.options.CloseMarker) {
		return errors.NewValidationError(errors.ErrCodeInvalidArgument,
			"template title cannot contain the key markers").WithContext("title", title)
	}
	if strings.HasPrefix(title, ".") {
		return errors.NewValidationError(errors.ErrCodeInvalidArgument, "template title cannot start with a dot")
	}
	return nil
}

func (g *Generator) fileName(opts GenerateOptions) string {
	title := strings.TrimSpace(opts.Title)
	if opts.Layout == LayoutFrontMatter {
		return title + g.extension
	}
	return title + " " + g.options.OpenMarker + opts.Key + g.options.CloseMarker + g.extension
}

func (g *Generator) context(opts GenerateOptions) TemplateContext {
	return TemplateContext{
		Title:     strings.TrimSpace(opts.Title),
		Key:       opts.Key,
		Body:      opts.Body,
		Extension: g.extension,
		Open:      g.options.OpenMarker,
		Close:     g.options.CloseMarker,
	}
}

// generateFile renders the named template into filename.
func (g *Generator) generateFile(filename, name string, ctx TemplateContext) error {
	tmpl, err := template.New(name).Parse(g.templates[name].Content)
	if err != nil {
		return errors.WrapInternal(err, errors.ErrCodeInternalError, "failed to parse template "+name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return errors.WrapInternal(err, errors.ErrCodeInternalError, "failed to execute template "+name)
	}

	if err := g.fs.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to create folder").WithFile(filename)
	}
	if err := afero.WriteFile(g.fs, filename, buf.Bytes(), 0o644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to write file").WithFile(filename)
	}
	return nil
}
