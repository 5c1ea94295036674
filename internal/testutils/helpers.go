// Package testutils holds fixtures shared by the package tests: template
// folders on disk or in memory and a scriptable hotkey backend.
package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/hotkey"
)

// DefaultFolder is the template folder used by in-memory fixtures.
const DefaultFolder = "/templates"

// CreateTempFolder creates an empty template folder on disk.
func CreateTempFolder(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "AutoTemplates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// WriteTemplate writes a template file into dir on disk.
func WriteTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// NewMemFolder returns an in-memory filesystem holding DefaultFolder
// populated with files.
func NewMemFolder(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(DefaultFolder, 0o755))
	for name, content := range files {
		WriteMemTemplate(t, fs, name, content)
	}
	return fs
}

// WriteMemTemplate writes or replaces a template in DefaultFolder.
func WriteMemTemplate(t *testing.T, fs afero.Fs, name, content string) string {
	t.Helper()
	path := filepath.Join(DefaultFolder, name)
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	return path
}

// RemoveMemTemplate deletes a template from DefaultFolder.
func RemoveMemTemplate(t *testing.T, fs afero.Fs, name string) {
	t.Helper()
	require.NoError(t, fs.Remove(filepath.Join(DefaultFolder, name)))
}

// FakeBackend is an in-memory hotkey.Backend. Combos listed in Foreign
// behave as if another application owns them.
type FakeBackend struct {
	mu        sync.Mutex
	bound     map[hotkey.Combo]func()
	foreign   map[hotkey.Combo]bool
	binds     int
	unbinds   int
	closed    bool
	FailBind  map[hotkey.Combo]error
	// PanicBind combos are bound and then panic, like a backend that
	// fails after the OS accepted the registration.
	PanicBind map[hotkey.Combo]bool
}

// NewFakeBackend creates a backend with the given foreign registrations.
func NewFakeBackend(foreign ...hotkey.Combo) *FakeBackend {
	b := &FakeBackend{
		bound:     make(map[hotkey.Combo]func()),
		foreign:   make(map[hotkey.Combo]bool),
		FailBind:  make(map[hotkey.Combo]error),
		PanicBind: make(map[hotkey.Combo]bool),
	}
	for _, c := range foreign {
		b.foreign[c] = true
	}
	return b
}

func (b *FakeBackend) Bind(c hotkey.Combo, fire func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err, ok := b.FailBind[c]; ok {
		return err
	}
	if b.foreign[c] {
		return errors.ErrHotkeyConflict(c.String(), nil).WithContext("owner", "another application")
	}
	if _, exists := b.bound[c]; exists {
		return errors.ErrHotkeyConflict(c.String(), nil)
	}
	b.bound[c] = fire
	b.binds++
	if b.PanicBind[c] {
		panic("backend failed after binding " + c.String())
	}
	return nil
}

func (b *FakeBackend) Unbind(c hotkey.Combo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bound, c)
	b.unbinds++
	return nil
}

func (b *FakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Claim makes c look owned by another application from now on.
func (b *FakeBackend) Claim(c hotkey.Combo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.foreign[c] = true
}

// Press simulates the user pressing c. It reports whether anything fired.
func (b *FakeBackend) Press(c hotkey.Combo) bool {
	b.mu.Lock()
	fire, ok := b.bound[c]
	b.mu.Unlock()
	if ok {
		fire()
	}
	return ok
}

// Bound returns the live bindings in a stable order.
func (b *FakeBackend) Bound() []hotkey.Combo {
	b.mu.Lock()
	defer b.mu.Unlock()
	combos := make([]hotkey.Combo, 0, len(b.bound))
	for c := range b.bound {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool { return combos[i].Less(combos[j]) })
	return combos
}

// Counts returns the number of successful binds and of unbinds.
func (b *FakeBackend) Counts() (binds, unbinds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds, b.unbinds
}

// Closed reports whether Close was called.
func (b *FakeBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
