package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/hotsnip/internal/reconcile"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"validate"},
	Short:   "Report template files that would fail to register",
	Long: `Run one pass over the template folder without registering anything and
report files whose key or front matter is malformed, or whose key is
claimed twice. Exits non-zero when any file fails.

Hotkeys held by other applications can only be detected by watch.`,
	RunE: runCheck,
}

var (
	checkFormat  string
	checkSkipped bool
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "table", "Output format (table, json, yaml)")
	checkCmd.Flags().BoolVar(&checkSkipped, "skipped", false, "Also report files without a key or body")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := validateFormat(checkFormat); err != nil {
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

	rows := entries(report, func(o reconcile.Outcome) bool {
		return o.Status.Failed() || (checkSkipped && o.Status == reconcile.StatusSkipped)
	})
	if len(rows) > 0 {
		if err := renderEntries(stdout(cmd), checkFormat, rows); err != nil {
			return err
		}
	}
	if err := renderSummary(cmd.ErrOrStderr(), report); err != nil {
		return err
	}

	if failed := len(report.Failures()); failed > 0 {
		return fmt.Errorf("%d template file(s) failed", failed)
	}
	return nil
}
