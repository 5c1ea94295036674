package hotkey

import (
	"fmt"
	"sync"

	"github.com/conneroisu/hotsnip/internal/errors"
)

// Application-defined hotkey IDs must fall in [0x0000, 0xBFFF]. The lower
// quarter is left to hosts that embed their own registrations.
const (
	minHotkeyID int32 = 0x4000
	maxHotkeyID int32 = 0xBFFF
)

// idPool hands out hotkey IDs and takes them back when a registration ends,
// so a long-running watcher never runs out while its live set stays small.
type idPool struct {
	mu   sync.Mutex
	min  int32
	max  int32
	next int32
	free []int32
	used map[int32]struct{}
}

func newIDPool(lo, hi int32) *idPool {
	return &idPool{
		min:  lo,
		max:  hi,
		next: lo,
		used: make(map[int32]struct{}),
	}
}

// acquire returns an unused ID. Released IDs are reused before fresh ones.
func (p *idPool) acquire() (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		p.used[id] = struct{}{}
		return id, nil
	}
	if p.next > p.max {
		return 0, errors.NewInternalError(errors.ErrCodeBackend,
			fmt.Sprintf("hotkey ID range exhausted (%d live)", len(p.used)), nil)
	}
	id := p.next
	p.next++
	p.used[id] = struct{}{}
	return id, nil
}

// release returns id to the pool. Unknown or already released IDs are ignored.
func (p *idPool) release(id int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.used[id]; !ok {
		return
	}
	delete(p.used, id)
	p.free = append(p.free, id)
}

func (p *idPool) inUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}
