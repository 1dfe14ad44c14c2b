// Package msgring implements the bounded per-channel message pool that
// decouples asynchronous message arrival from synchronous reads.
//
// A Ring holds a fixed number of fixed-size slots, allocated once. Exactly
// one producer (the transport rx callback) and one consumer (the read path)
// may operate on it concurrently without locks. When the consumer falls
// behind, the oldest pending message is overwritten: freshness wins over
// completeness under overload. Overwrites are counted, never reported as
// errors.
package msgring

import "sync/atomic"

type Ring struct {
	slots     [][]byte
	sizes     []uint32
	processed []atomic.Bool

	n        uint32
	slotSize int

	free    atomic.Uint32 // next slot to write, always < n
	pending atomic.Uint32 // filled-but-unread slots, saturates at n
	dropped atomic.Uint32 // messages lost to overwrite

	readable chan struct{} // coalesced empty->non-empty edge
}

// New allocates a ring of slots fixed-size buffers. It panics on a
// non-positive slot count or slot size; configuration validation rejects
// both before a ring is ever built.
func New(slots, slotSize int) *Ring {
	if slots < 1 || slotSize < 1 {
		panic("msgring: slots and slotSize must be positive")
	}
	r := &Ring{
		n:        uint32(slots),
		slotSize: slotSize,
		readable: make(chan struct{}, 1),
	}
	pool := make([]byte, slots*slotSize)
	r.slots = make([][]byte, slots)
	for i := range r.slots {
		r.slots[i] = pool[i*slotSize : (i+1)*slotSize]
	}
	r.sizes = make([]uint32, slots)
	r.processed = make([]atomic.Bool, slots)
	r.Reset()
	return r
}

// Reset returns the ring to its initial state: nothing pending, every slot
// marked processed. It must not race a concurrent Push or Pop; it exists to
// guard against stale state from a previous activation cycle.
func (r *Ring) Reset() {
	for i := range r.processed {
		r.processed[i].Store(true)
		r.sizes[i] = 0
	}
	r.free.Store(0)
	r.pending.Store(0)
}

func (r *Ring) Cap() int      { return int(r.n) }
func (r *Ring) SlotSize() int { return r.slotSize }

// Pending reports how many messages are buffered but not yet popped.
func (r *Ring) Pending() int { return int(r.pending.Load()) }

// Dropped reports how many messages have been lost to overwrite since the
// last Reset.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

// Readable delivers one token each time the ring goes from empty to
// non-empty. Tokens are coalesced; consumers drain and re-check.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

// Push copies p into the next free slot and reports false iff p exceeds the
// slot size, in which case the ring is not touched. A full ring overwrites
// its oldest pending slot; the loss is silent apart from Dropped.
func (r *Ring) Push(p []byte) bool {
	if len(p) > r.slotSize {
		return false
	}
	f := r.free.Load()
	copy(r.slots[f], p)
	r.sizes[f] = uint32(len(p))
	r.processed[f].Store(false)

	// Saturate pending at capacity; staying at capacity means the oldest
	// slot was just overwritten.
	var was uint32
	for {
		was = r.pending.Load()
		next := was + 1
		if next > r.n {
			next = r.n
		}
		if r.pending.CompareAndSwap(was, next) {
			break
		}
	}
	if was == r.n {
		r.dropped.Add(1)
	}

	// The free index moves last so a racing Pop never addresses a slot the
	// producer has not finished publishing.
	r.free.Store((f + 1) % r.n)

	if was == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return true
}

// oldest returns the index of the oldest pending slot given a pending count
// in [1, n]. free always sits one past the newest write.
func (r *Ring) oldest(pending uint32) uint32 {
	f := r.free.Load()
	return (f + r.n - pending%r.n) % r.n
}

// Pop claims the oldest pending message. The returned view is valid until
// the slot is overwritten; callers copy out before the producer can lap the
// ring. ok is false when nothing is pending, or when the oldest slot was
// already reclaimed by an overwrite racing a stalled consumer; stale data
// is never returned.
func (r *Ring) Pop() ([]byte, bool) {
	p := r.pending.Load()
	if p == 0 {
		return nil, false
	}
	idx := r.oldest(p)
	if !r.processed[idx].CompareAndSwap(false, true) {
		return nil, false
	}
	for {
		cur := r.pending.Load()
		if cur == 0 {
			break
		}
		if r.pending.CompareAndSwap(cur, cur-1) {
			break
		}
	}
	return r.slots[idx][:r.sizes[idx]], true
}

// PeekSize reports the size of the oldest pending message without consuming
// it, so a reader can check fit before committing to a Pop.
func (r *Ring) PeekSize() (int, bool) {
	p := r.pending.Load()
	if p == 0 {
		return 0, false
	}
	idx := r.oldest(p)
	if r.processed[idx].Load() {
		return 0, false
	}
	return int(r.sizes[idx]), true
}
