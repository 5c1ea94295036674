package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/hotsnip/internal/scaffolding"
)

var newCmd = &cobra.Command{
	Use:     "new <title>",
	Aliases: []string{"n"},
	Short:   "Create a template file",
	Long: `Create a template in the configured folder bound to --key. The body comes
from --body, from --from, or from standard input.

Examples:
  hotsnip new Signature -k Ctrl+Alt+S -b "Kind regards"
  hotsnip new Address -k Ctrl+Alt+A --from address.txt
  echo "TODO: " | hotsnip new Todo -k Win+T --front-matter`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var (
	newKey         string
	newBody        string
	newFrom        string
	newFrontMatter bool
	newForce       bool
)

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVarP(&newKey, "key", "k", "", "Hotkey, e.g. Ctrl+Alt+S")
	newCmd.Flags().StringVarP(&newBody, "body", "b", "", "Template body")
	newCmd.Flags().StringVar(&newFrom, "from", "", "Read the body from a file")
	newCmd.Flags().BoolVar(&newFrontMatter, "front-matter", false, "Keep the key in a YAML header instead of the file name")
	newCmd.Flags().BoolVar(&newForce, "force", false, "Overwrite an existing template")
	_ = newCmd.MarkFlagRequired("key")
	newCmd.MarkFlagsMutuallyExclusive("body", "from")
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	body, err := readBody(cmd, fs)
	if err != nil {
		return err
	}

	opts, err := cfg.Templates.ParserOptions()
	if err != nil {
		return err
	}
	gen, err := scaffolding.NewGenerator(fs, cfg.Templates.Folder, cfg.Templates.Extension, opts)
	if err != nil {
		return err
	}

	layout := scaffolding.LayoutFileName
	if newFrontMatter {
		layout = scaffolding.LayoutFrontMatter
	}
	path, err := gen.Generate(scaffolding.GenerateOptions{
		Title:     args[0],
		Key:       newKey,
		Body:      body,
		Layout:    layout,
		Overwrite: newForce,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout(cmd), "Created %s\n", path)
	return err
}

func readBody(cmd *cobra.Command, fs afero.Fs) (string, error) {
	switch {
	case newBody != "":
		return strings.ReplaceAll(newBody, `\n`, "\n"), nil
	case newFrom != "":
		data, err := afero.ReadFile(fs, newFrom)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", newFrom, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return string(data), nil
	}
}
