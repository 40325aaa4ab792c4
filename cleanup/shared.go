package cleanup

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/autocleanup/errors"
	"github.com/wippyai/autocleanup/resource"
)

// Shared is a reference-counted owner of one value and of a private stack
// of sub-resources submitted to it.
//
// Lifecycle: live while strong > 0. When the last strong reference is
// released the private stack is drained, the value is released and the
// implicit weak slot is dropped. The record is dead once weak reaches 0.
// Every strong reference keeps weak >= 1.
//
// Shared is safe for concurrent use. The private stack is guarded by a
// mutex that is only taken once the object has been exposed through
// NewStrong or NewWeak.
type Shared struct {
	rec      resource.Record
	tail     *resource.Stack
	log      *zap.Logger
	mu       sync.Mutex
	strong   atomic.Int32
	weak     atomic.Int32
	exposed  atomic.Bool
	released atomic.Bool
	dead     atomic.Bool
}

func newShared(rec resource.Record, log *zap.Logger) *Shared {
	s := &Shared{
		rec:  rec,
		tail: resource.NewStack(0, 0),
		log:  log,
	}
	s.strong.Store(1)
	s.weak.Store(1)
	return s
}

// Value returns the shared value. It is only meaningful while the caller
// holds a strong reference.
func (s *Shared) Value() any {
	return s.rec.Value
}

// Strong returns the current strong reference count.
func (s *Shared) Strong() int {
	return int(s.strong.Load())
}

// Weak returns the current weak reference count.
func (s *Shared) Weak() int {
	return int(s.weak.Load())
}

// Alive reports whether the value has not been released yet.
func (s *Shared) Alive() bool {
	return s.strong.Load() > 0
}

// Dead reports whether both counts reached zero.
func (s *Shared) Dead() bool {
	return s.dead.Load()
}

// Pending returns the number of submitted entries awaiting release.
func (s *Shared) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tail.Len()
}

func (s *Shared) lockTail() func() {
	if !s.exposed.Load() {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// acquire increments strong unless it is zero. A zero count is never
// touched, so a losing promotion has no observable effect.
func (s *Shared) acquire() bool {
	for {
		old := s.strong.Load()
		if old <= 0 {
			return false
		}
		if s.strong.CompareAndSwap(old, old+1) {
			return true
		}
	}
}

// dropStrong is the release function of strong forward links.
func (s *Shared) dropStrong(any) {
	if s.strong.Add(-1) != 0 {
		return
	}

	unlock := s.lockTail()
	n := s.tail.Drain()
	unlock()

	if s.released.CompareAndSwap(false, true) {
		s.rec.Drop()
		s.log.Debug("shared value released", zap.Int("sub_resources", n))
	}
	s.dropWeak(nil)
}

// dropWeak is the release function of weak forward links.
func (s *Shared) dropWeak(any) {
	if s.weak.Add(-1) != 0 {
		return
	}
	s.dead.Store(true)
	s.log.Debug("shared record freed")
}

// link builds a forward link entry. Strong links may be submitted into
// another object's private stack; weak links may only be moved.
func (s *Shared) link(kind resource.Kind, level int) resource.Entry {
	release, caps := s.dropStrong, resource.CapTransfer|resource.CapSubmit
	if kind == resource.KindWeak {
		release, caps = s.dropWeak, resource.CapTransfer
	}
	return resource.Entry{
		Record: resource.Record{Value: s, Release: release},
		Level:  level,
		Kind:   kind,
		Caps:   caps,
	}
}

// Share promotes an owned entry to a shared object with one strong and one
// weak count. The entry becomes the owner's strong forward link to it and
// can no longer be shared or submitted; further strong references from
// NewStrong or Lock can be submitted.
func (c *Context) Share(h Handle) (*Shared, error) {
	c.latest = 0
	e, err := c.operand(errors.OpShare, h)
	if err != nil {
		return nil, err
	}
	if !e.Caps.Has(resource.CapShare) {
		return nil, errors.Capability(errors.OpShare, uint64(h), e.Kind.String(), "share")
	}

	s := newShared(e.Record, c.log)
	link := s.link(resource.KindStrong, e.Level)
	link.Caps = resource.CapTransfer
	c.stack.Set(h, link)
	c.log.Debug("entry shared", zap.Uint64("handle", uint64(h)))
	c.notify(EventShared, h, link)
	return s, nil
}

// NewStrong registers a new strong reference to s in the current scope.
// A transition from zero re-arms the implicit weak slot; the value itself
// is never released twice.
func (c *Context) NewStrong(s *Shared) Handle {
	s.exposed.Store(true)
	if s.strong.Add(1) == 1 {
		s.weak.Add(1)
		c.log.Warn("strong reference created on expired shared object")
	}
	e := s.link(resource.KindStrong, c.level)
	h := c.push(e)
	c.latest = h
	c.notify(EventRegistered, h, e)
	return h
}

// NewWeak registers a new weak reference to s in the current scope.
func (c *Context) NewWeak(s *Shared) Handle {
	s.exposed.Store(true)
	s.weak.Add(1)
	e := s.link(resource.KindWeak, c.level)
	h := c.push(e)
	c.latest = h
	c.notify(EventRegistered, h, e)
	return h
}

// Lock promotes a weak reference to a strong one. It reports false when
// the value was already released. On success the strong reference is
// yielded to the enclosing scope so it outlives the locking call.
func (c *Context) Lock(weak Handle) (Handle, bool, error) {
	return c.lock(weak, outerLevel(c.level))
}

// Lock promotes a weak reference like Context.Lock, yielding the strong
// reference to the scope enclosing s.
func (s *Scope) Lock(weak Handle) (Handle, bool, error) {
	return s.ctx.lock(weak, outerLevel(s.level))
}

func (c *Context) lock(weak Handle, level int) (Handle, bool, error) {
	e, err := c.operand(errors.OpLock, weak)
	if err != nil {
		return 0, false, err
	}
	if e.Kind != resource.KindWeak {
		return 0, false, errors.Capability(errors.OpLock, uint64(weak), e.Kind.String(), "lock")
	}

	s := e.Value.(*Shared)
	if !s.acquire() {
		return 0, false, nil
	}
	link := s.link(resource.KindStrong, level)
	h := c.push(link)
	c.latest = h
	c.notify(EventLocked, h, link)
	return h, true, nil
}

// Submit moves an entry from the stack into s's private stack without
// releasing it. The entry is released when s's last strong reference goes
// away, before s's own value.
func (c *Context) Submit(h Handle, s *Shared) error {
	c.latest = 0
	e, err := c.operand(errors.OpSubmit, h)
	if err != nil {
		return err
	}
	if !e.Caps.Has(resource.CapSubmit) {
		return errors.Capability(errors.OpSubmit, uint64(h), e.Kind.String(), "submit")
	}
	if ref, ok := e.Value.(*Shared); ok && ref == s {
		// A reference to s in its own stack would keep it alive forever.
		return errors.Capability(errors.OpSubmit, uint64(h), e.Kind.String(), "submit into its own shared object")
	}

	unlock := s.lockTail()
	if s.strong.Load() <= 0 {
		unlock()
		return errors.Expired(errors.OpSubmit, "shared object has no strong references")
	}
	moved := resource.Entry{Record: e.Record, Kind: e.Kind, Caps: e.Caps}
	_, err = s.tail.Push(moved)
	unlock()
	if err != nil {
		return errors.Wrap(errors.OpSubmit, errors.KindExhausted, err, "push to shared stack")
	}

	c.stack.Unlink(h)
	c.notify(EventSubmitted, h, e)
	return nil
}
