package host

import "sync"

// barrier is a reusable workgroup barrier. Lanes that finish call leave so
// the remaining lanes are not left waiting for them.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation uint64
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until every live party has called wait.
func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++
	if b.waiting >= b.parties {
		b.trip()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// leave removes one party.
func (b *barrier) leave() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.parties--
	if b.waiting > 0 && b.waiting >= b.parties {
		b.trip()
	}
}

// trip releases the current generation (must hold mu).
func (b *barrier) trip() {
	b.waiting = 0
	b.generation++
	b.cond.Broadcast()
}
