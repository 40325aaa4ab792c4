package resource

import (
	"github.com/wippyai/autocleanup/errors"
)

// Stack is a LIFO of pending releases stored in an index-addressed slab.
// Order is kept by prev/next links threaded through slot indices, so an
// entry can be spliced out from anywhere in O(1).
//
// Stack is not safe for concurrent use.
type Stack struct {
	slots    []slot
	freeList []uint32
	top      uint32 // index+1 of the top slot, 0 when empty
	count    int
	max      int
}

type slot struct {
	rec   Record
	level int
	prev  uint32 // index+1, 0 = bottom
	next  uint32 // index+1, 0 = top
	gen   uint32
	kind  Kind
	caps  Caps
	live  bool
}

// NewStack creates an empty stack. capacity preallocates slots; maxEntries
// caps the number of live entries (0 means unlimited).
func NewStack(capacity, maxEntries int) *Stack {
	if capacity < 0 {
		capacity = 0
	}
	return &Stack{
		slots:    make([]slot, 0, capacity),
		freeList: make([]uint32, 0, capacity/4),
		max:      maxEntries,
	}
}

// Push places an entry on top and returns its handle.
func (s *Stack) Push(e Entry) (Handle, error) {
	if s.max > 0 && s.count >= s.max {
		return 0, errors.ErrExhausted
	}

	var idx uint32
	if n := len(s.freeList); n > 0 {
		idx = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
	} else {
		s.slots = append(s.slots, slot{gen: 1})
		idx = uint32(len(s.slots) - 1)
	}

	sl := &s.slots[idx]
	sl.rec = e.Record
	sl.level = e.Level
	sl.kind = e.Kind
	sl.caps = e.Caps
	sl.prev = s.top
	sl.next = 0
	sl.live = true

	if s.top != 0 {
		s.slots[s.top-1].next = idx + 1
	}
	s.top = idx + 1
	s.count++

	return makeHandle(idx, sl.gen), nil
}

func (s *Stack) lookup(h Handle) (uint32, bool) {
	idx, gen, ok := h.split()
	if !ok || int(idx) >= len(s.slots) {
		return 0, false
	}
	sl := &s.slots[idx]
	if !sl.live || sl.gen != gen {
		return 0, false
	}
	return idx, true
}

// Contains reports whether h addresses a live entry.
func (s *Stack) Contains(h Handle) bool {
	_, ok := s.lookup(h)
	return ok
}

// Get returns the entry addressed by h.
func (s *Stack) Get(h Handle) (Entry, bool) {
	idx, ok := s.lookup(h)
	if !ok {
		return Entry{}, false
	}
	return s.slots[idx].entry(), true
}

// Set replaces the record, kind, capabilities and level of a live entry.
// Its position in the stack does not change.
func (s *Stack) Set(h Handle, e Entry) bool {
	idx, ok := s.lookup(h)
	if !ok {
		return false
	}
	sl := &s.slots[idx]
	sl.rec = e.Record
	sl.level = e.Level
	sl.kind = e.Kind
	sl.caps = e.Caps
	return true
}

// Unlink splices the entry out of the stack without releasing it.
func (s *Stack) Unlink(h Handle) (Entry, bool) {
	idx, ok := s.lookup(h)
	if !ok {
		return Entry{}, false
	}
	return s.unlink(idx), true
}

// Release splices the entry out and runs its release function.
func (s *Stack) Release(h Handle) bool {
	e, ok := s.Unlink(h)
	if !ok {
		return false
	}
	e.Drop()
	return true
}

func (s *Stack) unlink(idx uint32) Entry {
	sl := &s.slots[idx]
	e := sl.entry()

	if sl.prev != 0 {
		s.slots[sl.prev-1].next = sl.next
	}
	if sl.next != 0 {
		s.slots[sl.next-1].prev = sl.prev
	} else {
		s.top = sl.prev
	}

	gen := sl.gen + 1
	if gen == 0 {
		gen = 1
	}
	*sl = slot{gen: gen}
	s.freeList = append(s.freeList, idx)
	s.count--

	return e
}

// Unwind releases, in LIFO order, every entry from the top down to and
// including mark whose level is at least level. Entries below that level
// were yielded to an outer scope: they are skipped and stay linked in their
// original relative order. A zero mark unwinds the whole stack.
//
// Victims are collected before any release runs, and each one is unlinked
// before its release function is called, so release functions may push to
// or release from this stack. Unwind reports the number of entries released
// and false if mark is not a live entry.
func (s *Stack) Unwind(mark Handle, level int) (int, bool) {
	var stop uint32
	if mark != 0 {
		idx, ok := s.lookup(mark)
		if !ok {
			return 0, false
		}
		stop = s.slots[idx].prev
	}

	var buf [16]Handle
	victims := buf[:0]
	for cur := s.top; cur != stop && cur != 0; cur = s.slots[cur-1].prev {
		sl := &s.slots[cur-1]
		if sl.level >= level {
			victims = append(victims, makeHandle(cur-1, sl.gen))
		}
	}

	released := 0
	for _, h := range victims {
		if s.Release(h) {
			released++
		}
	}
	return released, true
}

// Drain releases every entry regardless of level.
func (s *Stack) Drain() int {
	n, _ := s.Unwind(0, minLevel)
	return n
}

const minLevel = -1 << 31

// Top returns the handle of the top entry, or 0 when empty.
func (s *Stack) Top() Handle {
	if s.top == 0 {
		return 0
	}
	return makeHandle(s.top-1, s.slots[s.top-1].gen)
}

// Len returns the number of live entries.
func (s *Stack) Len() int {
	return s.count
}

// Each iterates over live entries from top to bottom.
func (s *Stack) Each(fn func(Handle, Entry) bool) {
	for cur := s.top; cur != 0; cur = s.slots[cur-1].prev {
		sl := &s.slots[cur-1]
		if !fn(makeHandle(cur-1, sl.gen), sl.entry()) {
			return
		}
	}
}

func (sl *slot) entry() Entry {
	return Entry{
		Record: sl.rec,
		Level:  sl.level,
		Kind:   sl.kind,
		Caps:   sl.caps,
	}
}
