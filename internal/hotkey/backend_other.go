//go:build !windows

package hotkey

import (
	"context"
	"sync"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
)

// processBackend validates and tracks bindings in memory. There is no
// OS-wide hotkey primitive on this platform, so handlers never fire.
type processBackend struct {
	mu     sync.Mutex
	bound  map[Combo]func()
	warned sync.Once
	logger logging.Logger
}

// NewSystemBackend returns the backend for this platform.
func NewSystemBackend(logger logging.Logger) (Backend, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &processBackend{
		bound:  make(map[Combo]func()),
		logger: logger.WithComponent("hotkey"),
	}, nil
}

func (b *processBackend) Bind(c Combo, fire func()) error {
	b.warned.Do(func() {
		b.logger.Warn(context.Background(), nil,
			"Global hotkeys are not supported on this platform; bindings are validated but will never fire")
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.bound[c]; exists {
		return errors.ErrHotkeyConflict(c.String(), nil)
	}
	b.bound[c] = fire
	return nil
}

func (b *processBackend) Unbind(c Combo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bound, c)
	return nil
}

func (b *processBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = make(map[Combo]func())
	return nil
}
