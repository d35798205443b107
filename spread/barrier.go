package spread

import (
	"sync"
)

// barrier is a reusable rendezvous for the members of one tiled worker
// group. Every member must arrive before any proceeds, which is what
// separates the coefficient-load, accumulate, and writeback phases.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	arrived int
	gen     int
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all n members have called Wait for the current
// generation.
func (b *barrier) Wait() {
	b.mu.Lock()
	gen := b.gen
	b.arrived++
	if b.arrived == b.n {
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
	} else {
		for gen == b.gen {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
}
