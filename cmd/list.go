package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/hotsnip/internal/reconcile"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List the templates in the folder and their hotkeys",
	Long: `Read the template folder the same way watch does and list every template
file with its hotkey and status. Nothing is registered with the system.

Examples:
  hotsnip list                 # Table of every file
  hotsnip list --registered    # Only files that would get a hotkey
  hotsnip list -f json         # Output as JSON`,
	RunE: runList,
}

var (
	listFormat     string
	listRegistered bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&listRegistered, "registered", false, "Only show templates that would be registered")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validateFormat(listFormat); err != nil {
		return err
	}

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	report, err := dryRun(cmd.Context(), cfg, afero.NewOsFs(), logger)
	if err != nil {
		return err
	}

	var include func(reconcile.Outcome) bool
	if listRegistered {
		include = func(o reconcile.Outcome) bool { return o.Status == reconcile.StatusRegistered }
	}
	return renderEntries(stdout(cmd), listFormat, entries(report, include))
}
