package cleanup

import (
	"github.com/gomlx/exceptions"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/autocleanup/errors"
	"github.com/wippyai/autocleanup/resource"
)

// Scope is a dynamic extent bounded by Enter and Leave. Entries registered
// inside it are released when it is left, unless they were yielded.
type Scope struct {
	ctx   *Context
	mark  Handle
	level int
	done  bool
}

// Enter opens a nested scope and records the current top of the stack as
// its boundary.
func (c *Context) Enter() *Scope {
	c.level++
	e := resource.Entry{Kind: resource.KindMarker, Level: c.level}
	mark := c.push(e)
	c.latest = 0
	c.notify(EventScopeEnter, mark, e)
	return &Scope{ctx: c, mark: mark, level: c.level}
}

// Level returns the nesting depth of the scope.
func (s *Scope) Level() int {
	return s.level
}

// Leave drains every entry registered since Enter, newest first, skipping
// yielded entries, and restores the enclosing level. Entries left behind by
// abandoned inner scopes are drained too.
//
// If an outer scope already drained this scope's boundary, Leave does
// nothing. Calling Leave more than once is allowed.
func (s *Scope) Leave() {
	if s.done {
		return
	}
	s.done = true

	c := s.ctx
	n, ok := c.stack.Unwind(s.mark, s.level)
	if !ok {
		return
	}
	c.level = s.level - 1
	c.latest = 0

	c.log.Debug("scope left",
		zap.Int("level", s.level),
		zap.Int("released", n),
		zap.Int("remaining", c.stack.Len()))

	if len(c.observers) > 0 {
		ev := Event{Type: EventScopeLeave, Handle: s.mark, Kind: resource.KindMarker, Level: s.level, Released: n}
		for _, o := range c.observers {
			o.OnCleanupEvent(ev)
		}
	}
}

// Run executes fn inside a new scope. The scope is drained however fn exits:
// normal return, error return or panic.
func (c *Context) Run(fn func() error) error {
	s := c.Enter()
	defer s.Leave()
	return fn()
}

// Try executes fn inside a new scope and catches any error it throws with
// panic. The scope is drained before Try returns the caught error. Panics
// carrying values that are not errors propagate after the drain.
func (c *Context) Try(fn func()) error {
	s := c.Enter()
	defer s.Leave()
	return exceptions.TryCatch[error](fn)
}

// Close drains the whole stack regardless of scopes and resets the level.
// It is the teardown hook for a worker or the process. A release function
// that panics does not stop the drain; its panic is returned as an error.
func (c *Context) Close() error {
	var err error
	for c.stack.Len() > 0 {
		before := c.stack.Len()
		if ex := exceptions.Try(func() { c.stack.Drain() }); ex != nil {
			err = multierr.Append(err, errors.ReleaseFailed(errors.OpLeave, ex))
			continue
		}
		if c.stack.Len() >= before {
			break
		}
	}
	c.level = 0
	c.latest = 0

	if err != nil {
		c.log.Warn("release failed during close", zap.Error(err))
	}
	return err
}

// Do runs fn with a fresh Context and closes it when fn returns.
// The error from fn and any release failure are combined.
func Do(opts Options, fn func(*Context) error) (err error) {
	c := New(opts)
	defer func() {
		err = multierr.Append(err, c.Close())
	}()
	return fn(c)
}
