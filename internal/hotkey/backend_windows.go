//go:build windows

package hotkey

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	wmHotkey    = 0x0312
	wmQuit      = 0x0012
	pmNoRemove  = 0x0000
	modNoRepeat = 0x4000

	stopTimeout = 2 * time.Second
)

// binding is one live registration. Its message loop runs on a goroutine
// locked to the OS thread that called RegisterHotKey, because WM_HOTKEY is
// only delivered to that thread's queue.
type binding struct {
	hotkeyID int32
	threadID uint32
	doneCh   chan struct{}
}

type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct; the layout must not change.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type loopReady struct {
	threadID uint32
	err      error
}

type systemBackend struct {
	mu       sync.Mutex
	bindings map[Combo]*binding
	ids      *idPool
	logger   logging.Logger
}

// NewSystemBackend returns the Win32 RegisterHotKey backend.
func NewSystemBackend(logger logging.Logger) (Backend, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if err := user32.Load(); err != nil {
		return nil, errors.NewEnvironmentError(errors.ErrCodeBackend, "user32.dll is unavailable", err)
	}
	return &systemBackend{
		bindings: make(map[Combo]*binding),
		ids:      newIDPool(minHotkeyID, maxHotkeyID),
		logger:   logger.WithComponent("hotkey-win32"),
	}, nil
}

func (b *systemBackend) Bind(c Combo, fire func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.bindings[c]; exists {
		return errors.ErrHotkeyConflict(c.String(), nil)
	}

	hotkeyID, err := b.ids.acquire()
	if err != nil {
		return err
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})

	go b.runLoop(hotkeyID, c, fire, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		b.ids.release(hotkeyID)
		if stderrors.Is(ready.err, windows.ERROR_HOTKEY_ALREADY_REGISTERED) {
			return errors.ErrHotkeyConflict(c.String(), ready.err)
		}
		return errors.WrapConflict(ready.err, errors.ErrCodeUnsupportedKey,
			"RegisterHotKey rejected "+c.String())
	}

	b.bindings[c] = &binding{
		hotkeyID: hotkeyID,
		threadID: ready.threadID,
		doneCh:   doneCh,
	}
	return nil
}

func (b *systemBackend) Unbind(c Combo) error {
	b.mu.Lock()
	bd, exists := b.bindings[c]
	delete(b.bindings, c)
	b.mu.Unlock()

	if !exists {
		return nil
	}
	return b.stop(c, bd)
}

func (b *systemBackend) Close() error {
	b.mu.Lock()
	bindings := b.bindings
	b.bindings = make(map[Combo]*binding)
	b.mu.Unlock()

	var errs []error
	for c, bd := range bindings {
		if err := b.stop(c, bd); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (b *systemBackend) stop(c Combo, bd *binding) error {
	stopErr := postQuit(bd.threadID)
	if stopErr != nil {
		if unregErr := unregisterHotKey(bd.hotkeyID); unregErr != nil {
			b.logger.Warn(context.Background(), unregErr, "UnregisterHotKey fallback failed (cross-thread; may be expected)",
				"key", c.String(), "hotkey_id", bd.hotkeyID)
		}
	}

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-bd.doneCh:
	case <-timer.C:
		timeoutErr := fmt.Errorf("hotkey message loop stop timed out (hotkeyID=%d)", bd.hotkeyID)
		b.logger.Warn(context.Background(), timeoutErr, "Message loop did not exit, thread may leak",
			"key", c.String())
		// The loop may still own the registration; keep its ID out of the pool.
		return stderrors.Join(stopErr, timeoutErr)
	}

	b.ids.release(bd.hotkeyID)
	return stopErr
}

func (b *systemBackend) runLoop(hotkeyID int32, c Combo, fire func(), readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID := windows.GetCurrentThreadId()

	// PeekMessageW creates the thread message queue so that PostThreadMessageW
	// in stop can deliver WM_QUIT. It returns 0 when the queue is empty.
	var qmsg winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	if err := registerHotKey(hotkeyID, uint32(c.Mods)|modNoRepeat, uint32(c.Key)); err != nil {
		readyCh <- loopReady{err: err}
		return
	}
	defer func() {
		if err := unregisterHotKey(hotkeyID); err != nil {
			b.logger.Error(context.Background(), err, "UnregisterHotKey on loop exit failed (registration leaked)",
				"key", c.String(), "hotkey_id", hotkeyID)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			b.logger.Warn(context.Background(), lastErr, "GetMessageW failed, exiting loop", "key", c.String())
			return
		case 0:
			return
		}

		if msg.message == wmHotkey && int32(msg.wParam) == hotkeyID {
			go fire()
		}
	}
}

func registerHotKey(hotkeyID int32, modifiers uint32, key uint32) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(hotkeyID), uintptr(modifiers), uintptr(key))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return stderrors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(hotkeyID int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(hotkeyID))
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return stderrors.New("UnregisterHotKey failed")
	}
	return err
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return stderrors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	if err == syscall.Errno(0) {
		return stderrors.New("PostThreadMessageW failed")
	}
	return err
}
