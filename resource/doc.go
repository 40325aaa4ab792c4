// Package resource provides the record types and the cleanup stack used by
// the autocleanup engine.
//
// A Record is a managed value plus the function that frees it. An Entry adds
// the variant Kind, the capability bitset and the scope level the entry
// belongs to. Entries live in a Stack:
//
//	s := resource.NewStack(64, 0)
//
//	h, err := s.Push(resource.Entry{
//	    Record: resource.Record{Value: f, Release: func(v any) { v.(*os.File).Close() }},
//	    Kind:   resource.KindOwned,
//	    Caps:   resource.CapAll,
//	    Level:  1,
//	})
//
//	// Release everything pushed at level 1 or deeper, newest first.
//	s.Unwind(0, 1)
//
// # Handles
//
// The stack is a slab of slots with a free list. Handles carry the slot
// index and a generation counter that is bumped every time the slot is
// freed, so a handle kept after its entry was released never addresses the
// slot's next occupant:
//
//	s.Release(h)
//	_, ok := s.Get(h) // ok == false, even after the slot is reused
//
// Handle 0 is reserved and always invalid.
//
// # Scope Levels
//
// Unwind drains from the top down to a mark, skipping entries whose level is
// below the level being left. Those entries were yielded to an outer scope
// and remain linked in their original order until that scope unwinds.
//
// Stack is not safe for concurrent use; it belongs to one goroutine, or its
// owner must serialize access.
package resource
