package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/hotsnip/internal/config"
	"github.com/conneroisu/hotsnip/internal/scaffolding"
)

var initCmd = &cobra.Command{
	Use:     "init [folder]",
	Aliases: []string{"i"},
	Short:   "Create a config file and the template folder",
	Long: `Write .hotsnip.yml in the working directory (or the file given by
--config) and create the template folder with a README and an example
template.

Examples:
  hotsnip init                    # ./AutoTemplates
  hotsnip init ~/snippets         # Use another folder
  hotsnip init --no-example       # Skip the example template`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initForce     bool
	initNoExample bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&initNoExample, "no-example", false, "Do not create the example template")
}

func runInit(cmd *cobra.Command, args []string) error {
	// The file named by --config is the one about to be written.
	if stderrors.Is(configErr, os.ErrNotExist) {
		configErr = nil
	}

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Templates.Folder = args[0]
	}

	fs := afero.NewOsFs()
	out := stdout(cmd)

	target := cfgFile
	if target == "" {
		target = config.DefaultFileName
	}
	if err := config.WriteFile(fs, target, cfg, initForce); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", target)

	opts, err := cfg.Templates.ParserOptions()
	if err != nil {
		return err
	}
	gen, err := scaffolding.NewGenerator(fs, cfg.Templates.Folder, cfg.Templates.Extension, opts)
	if err != nil {
		return err
	}

	created, err := gen.InitFolder()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created %s\n", cfg.Templates.Folder)
	}

	if !initNoExample {
		path, err := gen.Generate(scaffolding.GenerateOptions{
			Title: "Signature",
			Key:   "Ctrl+Alt+S",
			Body:  "Kind regards,\n",
		})
		if err != nil {
			// An existing example is fine; anything else is reported.
			logger.Warn(cmd.Context(), err, "Example template not written")
		} else {
			fmt.Fprintf(out, "Created %s\n", path)
		}
	}

	fmt.Fprintln(out, "Run 'hotsnip watch' to register the hotkeys.")
	return nil
}
