// Package reconcile keeps the set of registered hotkeys consistent with the
// template folder.
//
// Every pass releases every hotkey the previous pass registered, re-reads
// the whole folder and registers every eligible template again. A file that
// cannot be parsed or registered is reported and skipped; it never stops the
// pass. Passes are serialized, so outside a pass the registrar holds exactly
// the keys of the active set.
package reconcile

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/hotkey"
	"github.com/conneroisu/hotsnip/internal/logging"
	"github.com/conneroisu/hotsnip/internal/snippet"
	"github.com/conneroisu/hotsnip/internal/watcher"
)

// Registrar is the part of hotkey.Registry the manager drives.
type Registrar interface {
	Register(c hotkey.Combo, h hotkey.Handler) error
	Unregister(c hotkey.Combo) error
}

// EventSource delivers change batches for the folder. *watcher.FileWatcher
// satisfies it.
type EventSource interface {
	AddFilter(filter watcher.FileFilter)
	AddPath(path string) error
	Start(ctx context.Context) error
	Events() <-chan []watcher.ChangeEvent
	Stop() error
}

// FireFunc receives the template whose hotkey was pressed.
type FireFunc func(t *snippet.Template)

// Options configures a Manager.
type Options struct {
	// Folder is the template folder. Required.
	Folder string
	// Extension selects template files; defaults to snippet.DefaultExtension.
	Extension string
	// Fs is the filesystem the folder is read from; defaults to the OS.
	Fs afero.Fs
	// Parser turns files into templates; defaults to snippet.DefaultOptions.
	Parser *snippet.Parser
	// Registrar receives registrations. Required.
	Registrar Registrar
	// Watcher is started by Start when set. Without it the manager stays Idle.
	Watcher EventSource
	// OnFire is called when a registered hotkey is pressed.
	OnFire FireFunc
	Logger logging.Logger
}

// Manager owns the active registration set.
type Manager struct {
	folder    string
	extension string
	fs        afero.Fs
	parser    *snippet.Parser
	registrar Registrar
	watcher   EventSource
	onFire    FireFunc
	logger    logging.Logger
	errs      *errors.ErrorHandler

	// passMu serializes passes and lifecycle transitions.
	passMu  sync.Mutex
	started bool

	// mu guards the fields below for readers outside a pass.
	mu      sync.RWMutex
	state   State
	resting State
	active  map[hotkey.Combo]*snippet.Template
	last    *Report

	subMu       sync.Mutex
	subscribers []chan *Report
	subsClosed  bool
}

// New creates a manager in the Idle state.
func New(opts Options) (*Manager, error) {
	if opts.Folder == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument, "template folder is required")
	}
	if opts.Registrar == nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument, "hotkey registrar is required")
	}
	if opts.Extension == "" {
		opts.Extension = snippet.DefaultExtension
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Parser == nil {
		parser, err := snippet.NewParser(snippet.DefaultOptions())
		if err != nil {
			return nil, err
		}
		opts.Parser = parser
	}
	if opts.OnFire == nil {
		opts.OnFire = func(*snippet.Template) {}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}

	logger := opts.Logger.WithComponent("reconcile")
	return &Manager{
		folder:    filepath.Clean(opts.Folder),
		extension: opts.Extension,
		fs:        opts.Fs,
		parser:    opts.Parser,
		registrar: opts.Registrar,
		watcher:   opts.Watcher,
		onFire:    opts.OnFire,
		logger:    logger,
		errs:      errors.NewErrorHandler(logger),
		state:     StateIdle,
		resting:   StateIdle,
		active:    make(map[hotkey.Combo]*snippet.Template),
	}, nil
}

// Start checks the folder, starts the watcher and performs the initial
// pass. When the folder is missing the manager is Disabled and the
// environment error is returned; callers are expected to carry on without
// templates.
func (m *Manager) Start(ctx context.Context) error {
	m.passMu.Lock()

	if state := m.State(); m.started || state != StateIdle {
		m.passMu.Unlock()
		return errors.NewValidationError(errors.ErrCodeInvalidArgument,
			"manager already started, state "+state.String())
	}
	m.started = true

	if err := m.checkFolder(); err != nil {
		m.disable(ctx, err)
		m.passMu.Unlock()
		return err
	}

	if m.watcher != nil {
		m.watcher.AddFilter(watcher.ExtensionFilter(m.extension))
		if err := m.watcher.AddPath(m.folder); err != nil {
			m.disable(ctx, err)
			m.passMu.Unlock()
			return err
		}
		if err := m.watcher.Start(ctx); err != nil {
			m.disable(ctx, err)
			m.passMu.Unlock()
			return err
		}
		m.setResting(StateWatching)
		m.logger.Info(ctx, "Watching template folder", "folder", m.folder, "extension", m.extension)
	}
	m.passMu.Unlock()

	// No event arrives for files that already exist.
	m.Reconcile(ctx)
	return nil
}

// Run performs one pass per batch until ctx is done, the channel closes or
// the manager stops. It is the single consumer of the watcher's batches.
func (m *Manager) Run(ctx context.Context, events <-chan []watcher.ChangeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			if state := m.State(); state == StateStopped || state == StateDisabled {
				return nil
			}
			m.logBatch(ctx, batch)
			m.Reconcile(ctx)
		}
	}
}

// Reconcile runs one full pass and returns its report. It returns nil once
// the manager is Stopped or Disabled.
func (m *Manager) Reconcile(ctx context.Context) *Report {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	if state := m.State(); state == StateStopped || state == StateDisabled {
		m.logger.Debug(ctx, "Pass skipped", "state", state.String())
		return nil
	}

	report := &Report{PassID: uuid.NewString(), StartedAt: time.Now()}
	perf := logging.StartOperation(m.logger, "reconcile", "pass_id", report.PassID)

	m.setState(StateReconciling)
	defer m.setState(m.restingState())

	m.releaseActive(ctx, report.PassID)

	paths, err := m.listTemplates()
	if err != nil {
		report.Err = err
	}
	report.FilesSeen = len(paths)

	next := make(map[hotkey.Combo]*snippet.Template)
	for _, path := range paths {
		outcome := m.reconcileFile(ctx, report.PassID, path, next)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	fields := []interface{}{
		"files", report.FilesSeen,
		"registered", report.Count(StatusRegistered),
		"skipped", report.Count(StatusSkipped),
		"failed", len(report.Failures()),
	}
	if report.Err != nil {
		report.Duration = perf.EndWithError(ctx, report.Err, append(fields, "folder", m.folder)...)
	} else {
		report.Duration = perf.End(ctx, fields...)
	}

	m.mu.Lock()
	m.active = next
	m.last = report
	m.mu.Unlock()

	m.publish(report)
	return report
}

// Stop stops the watcher and releases every active hotkey. It waits for a
// pass in progress to finish.
func (m *Manager) Stop() error {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	if m.State() == StateStopped {
		return nil
	}

	var errs []error
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, m.releaseActive(context.Background(), "")...)

	m.mu.Lock()
	m.state = StateStopped
	m.resting = StateStopped
	m.mu.Unlock()
	m.closeSubscribers()

	m.logger.Info(context.Background(), "Template manager stopped")
	return stderrors.Join(errs...)
}

// Active returns a copy of the active registration set.
func (m *Manager) Active() map[hotkey.Combo]*snippet.Template {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make(map[hotkey.Combo]*snippet.Template, len(m.active))
	for c, t := range m.active {
		active[c] = t
	}
	return active
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastReport returns the report of the most recent pass, or nil.
func (m *Manager) LastReport() *Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Folder returns the cleaned template folder path.
func (m *Manager) Folder() string {
	return m.folder
}

func (m *Manager) checkFolder() error {
	info, err := m.fs.Stat(m.folder)
	if err != nil {
		return errors.ErrFolderMissing(m.folder, err)
	}
	if !info.IsDir() {
		return errors.ErrFolderMissing(m.folder, fmt.Errorf("%s is not a directory", m.folder))
	}
	return nil
}

func (m *Manager) disable(ctx context.Context, err error) {
	m.mu.Lock()
	m.state = StateDisabled
	m.resting = StateDisabled
	m.mu.Unlock()

	m.errs.Handle(ctx, err, "folder", m.folder)
}

// releaseActive unregisters every key of the active set and clears it. A
// failed release is logged and the key is still dropped.
func (m *Manager) releaseActive(ctx context.Context, passID string) []error {
	m.mu.Lock()
	active := m.active
	m.active = make(map[hotkey.Combo]*snippet.Template)
	m.mu.Unlock()

	combos := make([]hotkey.Combo, 0, len(active))
	for c := range active {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool { return combos[i].Less(combos[j]) })

	var errs []error
	for _, c := range combos {
		if err := m.registrar.Unregister(c); err != nil {
			errs = append(errs, err)
			m.logger.Warn(ctx, err, "Hotkey release failed",
				"key", c.String(), "path", active[c].SourcePath, "pass_id", passID)
		}
	}
	return errs
}

// listTemplates returns the template files in the folder sorted by name.
func (m *Manager) listTemplates() ([]string, error) {
	entries, err := afero.ReadDir(m.fs, m.folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrFolderMissing(m.folder, err)
		}
		return nil, errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to list template folder").WithFile(m.folder)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !snippet.HasExtension(entry.Name(), m.extension) {
			continue
		}
		paths = append(paths, filepath.Join(m.folder, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

type stage int

const (
	stageParse stage = iota
	stageRegister
)

// reconcileFile parses and registers one file, adding it to next on success.
// A panic is converted into a failed outcome and any half-made registration
// is released.
func (m *Manager) reconcileFile(ctx context.Context, passID, path string, next map[hotkey.Combo]*snippet.Template) (outcome Outcome) {
	outcome.Path = path
	current := stageParse

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		outcome.Status = StatusParseFailed
		if current == stageRegister {
			outcome.Status = StatusRegisterFailed
			if err := m.registrar.Unregister(*outcome.Template.Key); err != nil {
				m.logger.Warn(ctx, err, "Hotkey release after panic failed", "path", path)
			}
		}
		outcome.Err = errors.NewInternalError(errors.ErrCodeInternalError,
			fmt.Sprintf("panic while handling template: %v", r), nil).WithFile(path)
		m.report(ctx, passID, outcome)
	}()

	tmpl, err := m.parser.ParseFile(m.fs, path)
	if err != nil {
		outcome.Status = StatusParseFailed
		outcome.Err = err
		m.report(ctx, passID, outcome)
		return outcome
	}
	outcome.Template = tmpl

	if tmpl.Err != nil {
		outcome.Status = StatusParseFailed
		outcome.Err = tmpl.Err
		m.report(ctx, passID, outcome)
		return outcome
	}

	if !tmpl.Eligible() {
		outcome.Status = StatusSkipped
		m.report(ctx, passID, outcome)
		return outcome
	}

	combo := *tmpl.Key
	if owner, taken := next[combo]; taken {
		outcome.Status = StatusRegisterFailed
		outcome.Err = errors.ErrHotkeyConflict(combo.String(), nil).
			WithContext("owner", owner.SourcePath).
			WithFile(path)
		m.report(ctx, passID, outcome)
		return outcome
	}

	current = stageRegister
	if err := m.registrar.Register(combo, func() { m.fire(tmpl) }); err != nil {
		outcome.Status = StatusRegisterFailed
		outcome.Err = err
		m.report(ctx, passID, outcome)
		return outcome
	}

	next[combo] = tmpl
	outcome.Status = StatusRegistered
	m.report(ctx, passID, outcome)
	return outcome
}

func (m *Manager) report(ctx context.Context, passID string, o Outcome) {
	key := ""
	if o.Template != nil {
		key = o.Template.KeyString()
	}

	switch o.Status {
	case StatusRegistered:
		m.logger.Debug(ctx, "Template registered",
			"path", o.Path, "key", key, "title", o.Template.Title, "pass_id", passID)
	case StatusSkipped:
		m.logger.Debug(ctx, "Template has no key or body, ignoring",
			"path", o.Path, "key", key, "reason", o.Template.Reason, "pass_id", passID)
	default:
		m.errs.Handle(ctx, o.Err,
			"path", o.Path, "key", key, "status", string(o.Status), "pass_id", passID)
	}
}

// fire hands a pressed template to the caller, containing any panic.
func (m *Manager) fire(t *snippet.Template) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(context.Background(), fmt.Errorf("%v", r), "Hotkey handler panicked",
				"key", t.KeyString(), "path", t.SourcePath)
		}
	}()
	m.logger.Debug(context.Background(), "Hotkey pressed", "key", t.KeyString(), "path", t.SourcePath)
	m.onFire(t)
}

func (m *Manager) logBatch(ctx context.Context, batch []watcher.ChangeEvent) {
	kinds := make([]string, 0, len(batch))
	for _, event := range batch {
		kinds = append(kinds, event.Type.String())
	}
	m.logger.Debug(ctx, "Template folder changed", "events", len(batch), "kinds", kinds)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) setResting(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.resting = s
}

func (m *Manager) restingState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resting
}
