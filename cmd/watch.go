package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/hotsnip/internal/config"
	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/hotkey"
	"github.com/conneroisu/hotsnip/internal/logging"
	"github.com/conneroisu/hotsnip/internal/reconcile"
	"github.com/conneroisu/hotsnip/internal/snippet"
	"github.com/conneroisu/hotsnip/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Register hotkeys for the template folder and follow changes",
	Long: `Register a global hotkey for every template in the folder, then keep the
registrations in step with the folder until interrupted. Every change
triggers a full pass: all hotkeys are released and the folder is re-read.

When a hotkey is pressed the template body is written to standard output,
or copied to the clipboard with --deliver clipboard.

Examples:
  hotsnip watch                        # Use the configured folder
  hotsnip watch --folder ~/snippets    # Watch another folder
  hotsnip watch --once                 # Register, report and exit
  hotsnip watch --deliver clipboard    # Copy bodies instead of printing`,
	RunE: runWatch,
}

var (
	watchOnce    bool
	watchDeliver string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Run the initial pass, print the report and exit")
	watchCmd.Flags().StringVar(&watchDeliver, "deliver", deliverStdout, "Where a pressed template goes (stdout, clipboard)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	deliver, err := newDeliverer(watchDeliver, stdout(cmd))
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := hotkey.NewSystemBackend(logger)
	if err != nil {
		return err
	}
	registry := hotkey.NewRegistry(backend, logger)
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn(ctx, err, "Failed to close hotkey backend")
		}
	}()

	var source reconcile.EventSource
	var fw *watcher.FileWatcher
	if !watchOnce {
		fw, err = watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
		if err != nil {
			return err
		}
		fw.AddFilter(watcher.NoHiddenFilter)
		source = fw
	}

	mgr, err := newManager(cfg, afero.NewOsFs(), registry, source, logger, func(t *snippet.Template) {
		logger.Info(ctx, "Hotkey pressed", "key", t.KeyString(), "title", t.Title)
		if err := deliver(t.Body); err != nil {
			logger.Warn(ctx, err, "Failed to deliver template", "key", t.KeyString(), "deliver", watchDeliver)
		}
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Stop(); err != nil {
			logger.Warn(ctx, err, "Failed to release hotkeys")
		}
	}()

	if err := mgr.Start(ctx); err != nil {
		if errors.Code(err) == errors.ErrCodeFolderMissing {
			// Disabled, not fatal: there is simply nothing to register.
			fmt.Fprintf(cmd.ErrOrStderr(), "Template folder %s not found; hotkeys disabled. Run 'hotsnip init' to create it.\n", mgr.Folder())
			return nil
		}
		return err
	}

	if err := renderSummary(cmd.ErrOrStderr(), mgr.LastReport()); err != nil {
		return err
	}
	if watchOnce {
		return nil
	}

	reports := mgr.Subscribe()
	go func() {
		for report := range reports {
			_ = renderSummary(cmd.ErrOrStderr(), report)
		}
	}()

	fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes... (Press Ctrl+C to stop)")
	if err := mgr.Run(ctx, fw.Events()); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newManager wires a reconciliation manager from the configuration.
func newManager(cfg *config.Config, fs afero.Fs, registrar reconcile.Registrar, source reconcile.EventSource,
	logger logging.Logger, onFire reconcile.FireFunc,
) (*reconcile.Manager, error) {
	opts, err := cfg.Templates.ParserOptions()
	if err != nil {
		return nil, err
	}
	parser, err := snippet.NewParser(opts)
	if err != nil {
		return nil, err
	}

	mgrOpts := reconcile.Options{
		Folder:    cfg.Templates.Folder,
		Extension: cfg.Templates.Extension,
		Fs:        fs,
		Parser:    parser,
		Registrar: registrar,
		Watcher:   source,
		OnFire:    onFire,
		Logger:    logger,
	}
	return reconcile.New(mgrOpts)
}

const (
	deliverStdout    = "stdout"
	deliverClipboard = "clipboard"
)

// newDeliverer returns the function that hands a pressed template's body
// to the user.
func newDeliverer(mode string, out io.Writer) (func(body string) error, error) {
	switch mode {
	case deliverStdout:
		return func(body string) error {
			_, err := fmt.Fprint(out, body)
			return err
		}, nil
	case deliverClipboard:
		if clipboard.Unsupported {
			return nil, errors.NewEnvironmentError(errors.ErrCodeBackend, "no clipboard utility available", nil)
		}
		return clipboard.WriteAll, nil
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument,
			fmt.Sprintf("unsupported --deliver %q (supported: %s, %s)", mode, deliverStdout, deliverClipboard))
	}
}
