// Package watcher turns fsnotify events for the template folder into
// debounced batches delivered on a channel.
//
// Batches only signal that something changed; consumers are expected to
// re-read the folder rather than act on individual events.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
)

const (
	rawBufferSize   = 100
	batchBufferSize = 10
)

// FileWatcher watches a folder for template changes with debouncing.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	logger    logging.Logger
	mutex     sync.RWMutex
	stopOnce  sync.Once
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a file should be watched
type FileFilter func(path string) bool

// Debouncer groups rapid file changes together. A zero delay disables
// grouping and every event becomes its own batch.
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	done    chan struct{}
	closed  bool
	mutex   sync.Mutex
}

func newDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		events:  make(chan ChangeEvent, rawBufferSize),
		output:  make(chan []ChangeEvent, batchBufferSize),
		pending: make([]ChangeEvent, 0),
		done:    make(chan struct{}),
	}
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	if debounceDelay < 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidArgument,
			fmt.Sprintf("debounce delay must not be negative, got %s", debounceDelay))
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewEnvironmentError(errors.ErrCodeBackend, "file watching is unavailable", err)
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: newDebouncer(debounceDelay),
		filters:   make([]FileFilter, 0),
		logger:    logger.WithComponent("watcher"),
	}

	return fw, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddPath adds a directory to watch. The directory must exist.
func (fw *FileWatcher) AddPath(path string) error {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return errors.ErrFolderMissing(cleanPath, err)
	}
	if !info.IsDir() {
		return errors.ErrFolderMissing(cleanPath, fmt.Errorf("%s is not a directory", cleanPath))
	}

	if err := fw.watcher.Add(cleanPath); err != nil {
		return errors.WrapIO(err, errors.ErrCodeBackend, "failed to watch "+cleanPath)
	}
	fw.logger.Debug(context.Background(), "Watching folder", "path", cleanPath)
	return nil
}

// Events returns the channel batches are delivered on. It is closed by Stop.
func (fw *FileWatcher) Events() <-chan []ChangeEvent {
	return fw.debouncer.output
}

// Start starts the file watcher
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.start(ctx)
	go fw.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher, closes the Events channel and releases the
// underlying fsnotify watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		err = fw.watcher.Close()
		fw.debouncer.close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	changeEvent := newChangeEvent(event)
	fw.logger.Debug(context.Background(), "File change observed",
		"path", changeEvent.Path, "type", changeEvent.Type.String())

	// A full buffer means undelivered events are already queued, and the
	// batch they produce is flushed after this event happened.
	select {
	case fw.debouncer.events <- changeEvent:
	default:
	}
}

func newChangeEvent(event fsnotify.Event) ChangeEvent {
	var modTime time.Time
	var size int64
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
		size = info.Size()
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Op.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Op.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Op.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// Chmod and anything newer count as a modification.
		eventType = EventTypeModified
	}

	return ChangeEvent{
		Type:    eventType,
		Path:    event.Name,
		ModTime: modTime,
		Size:    size,
	}
}

// start runs until ctx is done or the debouncer is closed.
func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return
	}

	if d.delay == 0 {
		d.emitLocked([]ChangeEvent{event})
		return
	}

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.flush()
	})
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed || len(d.pending) == 0 {
		return
	}

	// Keep the latest event per path.
	eventMap := make(map[string]ChangeEvent)
	for _, event := range d.pending {
		eventMap[event.Path] = event
	}

	events := make([]ChangeEvent, 0, len(eventMap))
	for _, event := range eventMap {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	d.emitLocked(events)
	d.pending = d.pending[:0]
}

// emitLocked delivers a batch without blocking. A full channel already holds
// a batch whose consumer will observe this change, so the batch is dropped.
func (d *Debouncer) emitLocked(events []ChangeEvent) {
	select {
	case d.output <- events:
	default:
	}
}

func (d *Debouncer) close() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
	close(d.done)
	close(d.output)
}

// ExtensionFilter accepts paths ending in ext, ignoring case.
func ExtensionFilter(ext string) FileFilter {
	return func(path string) bool {
		return strings.EqualFold(filepath.Ext(path), ext)
	}
}

// NoHiddenFilter rejects dotfiles, which editors use for swap and lock files.
func NoHiddenFilter(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}
