// Package ranking implements the bounded per-offer stake ranking.
//
// A Board is a fixed-capacity ordered mapping from customer to stake. Slots
// live in parallel arrays and are chained into an ascending doubly linked
// list through packed 16-bit indexes, so updates relink slots without any
// per-entry allocation. Unused slots hold model.ZeroStake and sit at the
// head of the chain, which makes the chain head the eviction candidate.
//
// A Board performs no internal synchronization. Every Board is owned by
// exactly one repository shard and must only be touched from that shard.
package ranking

import (
	"iter"

	"github.com/okhandani/highstakes/internal/domain/model"
)

// Capacity bounds. The ceiling follows from the 16-bit link encoding kept
// deliberately small so a whole board stays cache-resident; widen the links
// before raising it.
const (
	DefaultCapacity = 20
	MaxCapacity     = 64
)

// noSlot is the link-encoded nil index.
const noSlot = -1

// Board holds the top stakes for one offer, ascending from min to max.
type Board struct {
	capacity int
	keys     []model.CustomerID
	stakes   []model.Stake

	// links packs prev (high 16 bits) and next (low 16 bits) per slot.
	links []uint32

	// index maps a live customer to its slot.
	index map[model.CustomerID]int

	// min is the chain head (lowest stake or an unused slot); max is the
	// chain tail (highest stake). noSlot only while a slot is in flight.
	min int
	max int
}

// New creates an empty board. Capacity must be in [1, MaxCapacity].
func New(capacity int) (*Board, error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	b := &Board{
		capacity: capacity,
		keys:     make([]model.CustomerID, capacity),
		stakes:   make([]model.Stake, capacity),
		links:    make([]uint32, capacity),
		index:    make(map[model.CustomerID]int, capacity),
		min:      0,
		max:      capacity - 1,
	}
	for i := 0; i < capacity; i++ {
		b.stakes[i] = model.ZeroStake
		b.setPrev(i, i-1)
		b.setNext(i, i+1)
	}
	b.setNext(capacity-1, noSlot)
	return b, nil
}

// Capacity returns the fixed slot count.
func (b *Board) Capacity() int { return b.capacity }

// Len returns the number of live entries.
func (b *Board) Len() int { return len(b.index) }

// AddOrUpdate stores stake for customer and returns true, or returns false
// without mutating anything when the stake does not strictly beat the
// relevant stored value: the customer's own previous stake, or the current
// minimum when the customer is new and the board is full.
func (b *Board) AddOrUpdate(customer model.CustomerID, stake model.Stake) bool {
	slot, ok := b.index[customer]
	if !ok {
		slot = b.min
	}
	if stake <= b.stakes[slot] {
		return false
	}

	if slot == b.min {
		// The head slot is being reused; whoever held it is evicted.
		if b.stakes[slot] != model.ZeroStake {
			delete(b.index, b.keys[slot])
		}
		b.min = b.next(slot)
	}

	// Updates usually move a short distance upward, so the sorted-position
	// scan starts from the slot's former neighborhood instead of an end.
	start := b.prev(slot)
	if start == noSlot {
		start = b.next(slot)
	}
	b.unlink(slot)
	b.splice(slot, b.findPos(start, stake))

	b.keys[slot] = customer
	b.stakes[slot] = stake
	b.index[customer] = slot
	return true
}

// TopN returns a fresh view of up to n entries in strictly descending stake
// order. The view is restartable; it walks the chain backward from the tail
// and never yields sentinel slots. The board must not be mutated while a
// returned view is being consumed.
func (b *Board) TopN(n int) iter.Seq2[model.CustomerID, model.Stake] {
	first := b.max
	count := min(n, len(b.index))
	return func(yield func(model.CustomerID, model.Stake) bool) {
		slot := first
		for i := 0; i < count && slot != noSlot; i++ {
			if !yield(b.keys[slot], b.stakes[slot]) {
				return
			}
			slot = b.prev(slot)
		}
	}
}

// unlink detaches slot from the chain, fixing min/max when slot is an end.
func (b *Board) unlink(slot int) {
	p, n := b.prev(slot), b.next(slot)
	if p != noSlot {
		b.setNext(p, n)
	} else if b.min == slot {
		b.min = n
	}
	if n != noSlot {
		b.setPrev(n, p)
	} else if b.max == slot {
		b.max = p
	}
	b.setPrev(slot, noSlot)
	b.setNext(slot, noSlot)
}

// findPos returns the slot after which a stake belongs, or noSlot for a new
// head. start may be anywhere in the chain; the scan walks toward whichever
// end the stake sorts to. Equal stakes insert after existing ones.
func (b *Board) findPos(start int, stake model.Stake) int {
	if start == noSlot {
		return noSlot
	}
	after := start
	if b.stakes[after] > stake {
		for after != noSlot && b.stakes[after] > stake {
			after = b.prev(after)
		}
		return after
	}
	for n := b.next(after); n != noSlot && b.stakes[n] <= stake; n = b.next(after) {
		after = n
	}
	return after
}

// splice links slot back in immediately after the given position.
func (b *Board) splice(slot, after int) {
	if after == noSlot {
		head := b.min
		b.setPrev(slot, noSlot)
		b.setNext(slot, head)
		if head != noSlot {
			b.setPrev(head, slot)
		}
		b.min = slot
		if b.max == noSlot {
			b.max = slot
		}
		return
	}
	n := b.next(after)
	b.setPrev(slot, after)
	b.setNext(slot, n)
	b.setNext(after, slot)
	if n != noSlot {
		b.setPrev(n, slot)
	} else {
		b.max = slot
	}
	if b.min == noSlot {
		b.min = after
	}
}

func (b *Board) prev(slot int) int {
	return int(int16(b.links[slot] >> 16))
}

func (b *Board) next(slot int) int {
	return int(int16(b.links[slot] & 0xFFFF))
}

func (b *Board) setPrev(slot, prev int) {
	b.links[slot] = uint32(uint16(prev))<<16 | b.links[slot]&0xFFFF
}

func (b *Board) setNext(slot, next int) {
	b.links[slot] = b.links[slot]&0xFFFF0000 | uint32(uint16(next))
}
