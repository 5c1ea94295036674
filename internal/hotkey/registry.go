// Package hotkey parses key combinations and keeps track of the OS-wide
// hotkeys this process has registered.
//
// A Registry owns at most one OS registration per Combo. Registrations are
// global side effects outside the process, so every Register must be paired
// with an Unregister (or a final UnregisterAll) by the caller.
package hotkey

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
)

// Handler is invoked when a registered combination is pressed.
type Handler func()

// Backend is the OS primitive behind a Registry.
type Backend interface {
	// Bind asks the OS to deliver presses of c to fire. It fails when the
	// combination is already bound anywhere on the system or is not supported.
	Bind(c Combo, fire func()) error
	// Unbind releases a combination previously bound by Bind.
	Unbind(c Combo) error
	// Close releases backend resources.
	Close() error
}

// Registry enforces one OS registration per combination and surfaces every
// conflict the backend reports.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	bound   map[Combo]struct{}
	logger  logging.Logger
}

// NewRegistry creates a registry over backend.
func NewRegistry(backend Backend, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Registry{
		backend: backend,
		bound:   make(map[Combo]struct{}),
		logger:  logger.WithComponent("hotkey"),
	}
}

// Register binds c to h. It returns a conflict error when c is already
// registered, by this registry or by anything else on the system, or when
// c is not a supported combination. Typed backend failures that are not
// conflicts, such as an exhausted backend, are returned unchanged.
func (r *Registry) Register(c Combo, h Handler) error {
	if h == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidArgument, "hotkey handler is required")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bound[c]; exists {
		return errors.ErrHotkeyConflict(c.String(), nil).WithContext("owner", "this process")
	}

	if err := r.bind(c, h); err != nil {
		var typed *errors.HotsnipError
		if errors.IsConflict(err) || stderrors.As(err, &typed) {
			return err
		}
		return errors.ErrHotkeyConflict(c.String(), err)
	}

	r.bound[c] = struct{}{}
	r.logger.Debug(context.Background(), "Hotkey registered", "key", c.String())
	return nil
}

// bind calls the backend, turning a panic into an error. The OS may have
// accepted the binding before the panic, so it is released again.
func (r *Registry) bind(c Combo, h Handler) (err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if unbindErr := r.backend.Unbind(c); unbindErr != nil {
			r.logger.Warn(context.Background(), unbindErr, "Hotkey release after backend panic failed", "key", c.String())
		}
		err = errors.NewInternalError(errors.ErrCodeBackend,
			fmt.Sprintf("hotkey backend panicked binding %s: %v", c, p), nil)
	}()
	return r.backend.Bind(c, h)
}

// Unregister releases c. Unknown combinations are ignored.
func (r *Registry) Unregister(c Combo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterLocked(c)
}

func (r *Registry) unregisterLocked(c Combo) error {
	if _, exists := r.bound[c]; !exists {
		return nil
	}

	// Forget the binding first so a failed release is never retried against
	// a registration the OS may already have dropped.
	delete(r.bound, c)

	if err := r.backend.Unbind(c); err != nil {
		r.logger.Warn(context.Background(), err, "Hotkey release failed", "key", c.String())
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.ErrCodeBackend,
			"failed to release hotkey "+c.String())
	}

	r.logger.Debug(context.Background(), "Hotkey unregistered", "key", c.String())
	return nil
}

// UnregisterAll releases every combination held by the registry.
func (r *Registry) UnregisterAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, c := range r.boundLocked() {
		if err := r.unregisterLocked(c); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close releases every registration and the backend.
func (r *Registry) Close() error {
	unregErr := r.UnregisterAll()
	closeErr := r.backend.Close()
	return stderrors.Join(unregErr, closeErr)
}

// Bound returns the registered combinations in a stable order.
func (r *Registry) Bound() []Combo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundLocked()
}

// IsBound reports whether c is currently registered.
func (r *Registry) IsBound(c Combo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bound[c]
	return ok
}

func (r *Registry) boundLocked() []Combo {
	combos := make([]Combo, 0, len(r.bound))
	for c := range r.bound {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool { return combos[i].Less(combos[j]) })
	return combos
}
