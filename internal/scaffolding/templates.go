package scaffolding

// Layout selects where a generated template keeps its key.
type Layout string

const (
	// LayoutFileName puts the key in the file name: "Title [Ctrl+Alt+S].snip".
	LayoutFileName Layout = "file-name"
	// LayoutFrontMatter puts key and title in a YAML header.
	LayoutFrontMatter Layout = "front-matter"
)

// FileTemplate is a text/template used to render a generated file.
type FileTemplate struct {
	Name        string
	Description string
	Content     string
}

// TemplateContext holds the values available to a FileTemplate.
type TemplateContext struct {
	Title     string
	Key       string
	Body      string
	Extension string
	Open      string
	Close     string
}

// GetBuiltinTemplates returns the built-in file templates keyed by name.
func GetBuiltinTemplates() map[string]FileTemplate {
	return map[string]FileTemplate{
		string(LayoutFileName): {
			Name:        string(LayoutFileName),
			Description: "Body only; the key lives in the file name",
			Content:     `{{.Body}}`,
		},
		string(LayoutFrontMatter): {
			Name:        string(LayoutFrontMatter),
			Description: "YAML header with key and title, then the body",
			Content: `---
key: {{printf "%q" .Key}}
title: {{printf "%q" .Title}}
---
{{.Body}}`,
		},
		"readme": {
			Name:        "readme",
			Description: "Explains the folder format to whoever opens it",
			Content: `Every *{{.Extension}} file in this folder becomes a global hotkey.

Name a file with the key between {{.Open}} and {{.Close}}:

    Signature {{.Open}}Ctrl+Alt+S{{.Close}}{{.Extension}}

or start it with a YAML header:

    ---
    key: Ctrl+Alt+S
    title: Signature
    ---

The rest of the file is inserted verbatim when the key is pressed.
Modifiers: Ctrl, Alt, Shift, Win. Keys: A-Z, 0-9, F1-F24, Space, Tab,
Enter, Esc, Delete, Insert, Home, End, PageUp, PageDown, arrows, 0xNN.
Files without a key or with an empty body are ignored. Changes are
picked up as soon as a file is saved, renamed or deleted.
`,
		},
	}
}
