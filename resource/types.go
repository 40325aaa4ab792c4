package resource

import "strings"

// Handle is a generational reference to a slot in a Stack.
// The low 32 bits hold index+1, the high 32 bits the slot generation.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(idx, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx+1))
}

func (h Handle) split() (idx, gen uint32, ok bool) {
	low := uint32(h)
	if low == 0 {
		return 0, 0, false
	}
	return low - 1, uint32(h >> 32), true
}

// Kind is the closed set of entry variants.
type Kind uint8

const (
	KindEmpty  Kind = iota // reserved slot, nothing to release
	KindOwned              // owns its value directly
	KindStrong             // strong forward link to a shared object
	KindWeak               // weak forward link to a shared object
	KindMarker             // scope boundary
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindOwned:
		return "owned"
	case KindStrong:
		return "strong"
	case KindWeak:
		return "weak"
	case KindMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Caps is the capability bitset that gates ownership operations.
type Caps uint8

const (
	CapTransfer Caps = 1 << iota
	CapShare
	CapSubmit

	CapAll  = CapTransfer | CapShare | CapSubmit
	CapNone = Caps(0)
)

// Has reports whether all capabilities in c are set.
func (c Caps) Has(want Caps) bool {
	return c&want == want
}

func (c Caps) String() string {
	if c == CapNone {
		return "none"
	}
	var parts []string
	if c.Has(CapTransfer) {
		parts = append(parts, "transfer")
	}
	if c.Has(CapShare) {
		parts = append(parts, "share")
	}
	if c.Has(CapSubmit) {
		parts = append(parts, "submit")
	}
	return strings.Join(parts, "|")
}

// Record is one managed value plus the function that frees it.
// A nil Release means there is nothing to do.
type Record struct {
	Value   any
	Release func(any)
}

// Drop runs the release function, if any.
func (r Record) Drop() {
	if r.Release != nil {
		r.Release(r.Value)
	}
}

// Entry is the caller-visible state of a stack slot.
type Entry struct {
	Record
	Level int
	Kind  Kind
	Caps  Caps
}

// Dropper is optionally implemented by values that free themselves.
// ReleaseDropper adapts it to a Record release function.
type Dropper interface {
	Drop()
}

// ReleaseDropper calls Drop on v when it implements Dropper.
func ReleaseDropper(v any) {
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
}
