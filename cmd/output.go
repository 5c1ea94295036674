package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/hotsnip/internal/config"
	"github.com/conneroisu/hotsnip/internal/hotkey"
	"github.com/conneroisu/hotsnip/internal/logging"
	"github.com/conneroisu/hotsnip/internal/reconcile"
)

var outputFormats = []string{"table", "json", "yaml"}

// dryBackend accepts every binding without touching the OS, so list and
// check can run a real pass next to a running watcher.
type dryBackend struct{}

func (dryBackend) Bind(hotkey.Combo, func()) error { return nil }
func (dryBackend) Unbind(hotkey.Combo) error       { return nil }
func (dryBackend) Close() error                    { return nil }

// dryRun performs one reconciliation pass of fs without registering
// anything system-wide.
func dryRun(ctx context.Context, cfg *config.Config, fs afero.Fs, logger logging.Logger) (*reconcile.Report, error) {
	registry := hotkey.NewRegistry(dryBackend{}, logger)
	defer registry.Close()

	mgr, err := newManager(cfg, fs, registry, nil, logger, nil)
	if err != nil {
		return nil, err
	}
	defer mgr.Stop()

	report := mgr.Reconcile(ctx)
	if report.Err != nil {
		return report, report.Err
	}
	return report, nil
}

// entry is one row of list and check output.
type entry struct {
	File   string `json:"file" yaml:"file"`
	Key    string `json:"key,omitempty" yaml:"key,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func entries(report *reconcile.Report, include func(reconcile.Outcome) bool) []entry {
	rows := make([]entry, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		if include != nil && !include(o) {
			continue
		}
		row := entry{File: filepath.Base(o.Path), Status: string(o.Status)}
		if o.Template != nil {
			row.Key = o.Template.KeyString()
			row.Title = o.Template.Title
			if o.Err == nil && o.Template.Reason != "" {
				row.Error = o.Template.Reason
			}
		}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

func renderEntries(w io.Writer, format string, rows []entry) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(rows)
	case "table":
		return renderTable(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(outputFormats, ", "))
	}
}

func renderTable(w io.Writer, rows []entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tFILE\tSTATUS\tDETAIL")
	fmt.Fprintln(tw, "---\t-----\t----\t------\t------")
	for _, row := range rows {
		key := row.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", key, row.Title, row.File, row.Status, row.Error)
	}
	return tw.Flush()
}

// renderSummary prints the one-line result of a pass.
func renderSummary(w io.Writer, report *reconcile.Report) error {
	if report == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "%d hotkey(s) registered, %d skipped, %d failed (%d file(s) in %s)\n",
		report.Count(reconcile.StatusRegistered),
		report.Count(reconcile.StatusSkipped),
		len(report.Failures()),
		report.FilesSeen,
		report.Duration.Round(time.Millisecond),
	)
	return err
}

// validateFormat rejects unknown --format values, suggesting a close match.
func validateFormat(format string) error {
	lower := strings.ToLower(format)
	for _, f := range outputFormats {
		if lower == f {
			return nil
		}
	}
	for _, f := range outputFormats {
		if lower != "" && strings.HasPrefix(f, lower) {
			return fmt.Errorf("unsupported format %q, did you mean %q?", format, f)
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(outputFormats, ", "))
}
