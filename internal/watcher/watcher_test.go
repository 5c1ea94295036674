package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/hotsnip/internal/errors"
)

func newTestDebouncer(delay time.Duration) *Debouncer {
	return newDebouncer(delay)
}

func receiveBatch(t *testing.T, ch <-chan []ChangeEvent, timeout time.Duration) []ChangeEvent {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "events channel closed")
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a batch")
		return nil
	}
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.NotNil(t, watcher.Events())
}

func TestNewFileWatcherRejectsNegativeDebounce(t *testing.T) {
	_, err := NewFileWatcher(-time.Second, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidArgument, errors.Code(err))
}

func TestFileWatcherAddFilter(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(ExtensionFilter(".snip"))
	assert.Len(t, watcher.filters, 1)

	watcher.AddFilter(NoHiddenFilter)
	assert.Len(t, watcher.filters, 2)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))

	err = watcher.AddPath(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsEnvironment(err))
	assert.Equal(t, errors.ErrCodeFolderMissing, errors.Code(err))

	file := filepath.Join(dir, "plain.snip")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err = watcher.AddPath(file)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFolderMissing, errors.Code(err))
}

func TestFileWatcherDeliversBatches(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddFilter(ExtensionFilter(".snip"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	// Files with other extensions are filtered out.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Sig [Ctrl+S].snip"), []byte("x"), 0o644))

	batch := receiveBatch(t, watcher.Events(), 2*time.Second)
	require.NotEmpty(t, batch)
	for _, event := range batch {
		assert.Equal(t, ".snip", filepath.Ext(event.Path))
	}
}

func TestFileWatcherStopClosesEvents(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())

	select {
	case _, ok := <-watcher.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel was not closed")
	}
}

func TestDebouncer(t *testing.T) {
	debouncer := newTestDebouncer(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "b.snip", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "a.snip", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "b.snip", Type: EventTypeDeleted}

	batch := receiveBatch(t, debouncer.output, time.Second)

	// Latest event per path, sorted by path.
	require.Len(t, batch, 2)
	assert.Equal(t, "a.snip", batch[0].Path)
	assert.Equal(t, "b.snip", batch[1].Path)
	assert.Equal(t, EventTypeDeleted, batch[1].Type)
}

func TestDebouncerZeroDelayPassesThrough(t *testing.T) {
	debouncer := newTestDebouncer(0)

	debouncer.addEvent(ChangeEvent{Path: "a.snip"})
	debouncer.addEvent(ChangeEvent{Path: "a.snip"})

	first := receiveBatch(t, debouncer.output, time.Second)
	second := receiveBatch(t, debouncer.output, time.Second)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestDebouncerDropsWhenConsumerIsBehind(t *testing.T) {
	debouncer := newTestDebouncer(0)

	for i := 0; i < batchBufferSize+5; i++ {
		debouncer.addEvent(ChangeEvent{Path: "a.snip"})
	}
	assert.Len(t, debouncer.output, batchBufferSize)
}

func TestDebouncerIgnoresEventsAfterClose(t *testing.T) {
	debouncer := newTestDebouncer(time.Hour)
	debouncer.addEvent(ChangeEvent{Path: "a.snip"})
	debouncer.close()
	debouncer.close()

	debouncer.addEvent(ChangeEvent{Path: "b.snip"})
	debouncer.flush()

	_, ok := <-debouncer.output
	assert.False(t, ok)
}

func TestDebouncerStartReturnsAfterClose(t *testing.T) {
	debouncer := newTestDebouncer(time.Hour)

	finished := make(chan struct{})
	go func() {
		debouncer.start(context.Background())
		close(finished)
	}()

	debouncer.close()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("debouncer kept running after close")
	}
}

func TestFileWatcherStopEndsDebouncerWithoutCancel(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		watcher.debouncer.start(context.Background())
		close(finished)
	}()

	require.NoError(t, watcher.Stop())

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("debouncer kept running after Stop")
	}
}

func TestNewChangeEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.snip")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	tests := []struct {
		op   fsnotify.Op
		want EventType
	}{
		{fsnotify.Create, EventTypeCreated},
		{fsnotify.Write, EventTypeModified},
		{fsnotify.Remove, EventTypeDeleted},
		{fsnotify.Rename, EventTypeRenamed},
		{fsnotify.Chmod, EventTypeModified},
		{fsnotify.Create | fsnotify.Write, EventTypeCreated},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			event := newChangeEvent(fsnotify.Event{Name: path, Op: tt.op})
			assert.Equal(t, tt.want, event.Type)
			assert.Equal(t, path, event.Path)
			assert.Equal(t, int64(5), event.Size)
		})
	}

	gone := newChangeEvent(fsnotify.Event{Name: filepath.Join(dir, "gone.snip"), Op: fsnotify.Remove})
	assert.True(t, gone.ModTime.IsZero())
	assert.Zero(t, gone.Size)
}

func TestExtensionFilter(t *testing.T) {
	filter := ExtensionFilter(".snip")

	assert.True(t, filter("/t/Sig [Ctrl+S].snip"))
	assert.True(t, filter("/t/UPPER.SNIP"))
	assert.False(t, filter("/t/notes.txt"))
	assert.False(t, filter("/t/backup.snip~"))
	assert.False(t, filter("/t"))
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("/t/a.snip"))
	assert.False(t, NoHiddenFilter("/t/.a.snip.swp"))
	assert.False(t, NoHiddenFilter(".#lock.snip"))
}
