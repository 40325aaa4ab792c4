package cleanup

import "github.com/wippyai/autocleanup/resource"

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReleased
	EventUpdated
	EventTransferred
	EventYielded
	EventSwapped
	EventShared
	EventSubmitted
	EventLocked
	EventScopeEnter
	EventScopeLeave
)

var eventNames = [...]string{
	EventRegistered:  "registered",
	EventReleased:    "released",
	EventUpdated:     "updated",
	EventTransferred: "transferred",
	EventYielded:     "yielded",
	EventSwapped:     "swapped",
	EventShared:      "shared",
	EventSubmitted:   "submitted",
	EventLocked:      "locked",
	EventScopeEnter:  "scope-enter",
	EventScopeLeave:  "scope-leave",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event describes one engine operation. Released is set for
// EventScopeLeave and counts the entries drained by that boundary.
type Event struct {
	Value    any
	Handle   Handle
	Level    int
	Released int
	Kind     resource.Kind
	Type     EventType
}

// Observer receives notifications about engine operations.
type Observer interface {
	OnCleanupEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnCleanupEvent(e Event) { f(e) }
