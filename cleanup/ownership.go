package cleanup

import (
	"go.uber.org/zap"

	"github.com/wippyai/autocleanup/errors"
	"github.com/wippyai/autocleanup/resource"
)

// Release immediately releases exactly one entry, wherever it sits in the
// stack. A second Release of the same handle reports a stale handle.
func (c *Context) Release(h Handle) error {
	c.latest = 0
	e, err := c.operand(errors.OpRelease, h)
	if err != nil {
		return err
	}
	c.stack.Release(h)
	c.log.Debug("entry released",
		zap.Uint64("handle", uint64(h)),
		zap.Stringer("kind", e.Kind))
	c.notify(EventReleased, h, e)
	return nil
}

// Update replaces the managed value without changing ownership, the
// sanctioned pattern for reallocation. Forward links cannot be updated:
// weak links never own the value and shared values may be held by others.
func (c *Context) Update(h Handle, value any) error {
	e, err := c.operand(errors.OpUpdate, h)
	if err != nil {
		return err
	}
	if e.Kind != resource.KindOwned && e.Kind != resource.KindEmpty {
		return errors.Capability(errors.OpUpdate, uint64(h), e.Kind.String(), "update")
	}
	e.Value = value
	if e.Kind == resource.KindEmpty && value != nil {
		e.Kind = resource.KindOwned
	}
	c.stack.Set(h, e)
	c.notify(EventUpdated, h, e)
	return nil
}

// Transfer moves the record, kind and capabilities of from into to, then
// removes from as an empty shell. Whatever to held before is released after
// the move. from must be transferable.
func (c *Context) Transfer(from, to Handle) error {
	c.latest = 0
	fe, err := c.operand(errors.OpTransfer, from)
	if err != nil {
		return err
	}
	te, err := c.operand(errors.OpTransfer, to)
	if err != nil {
		return err
	}
	if !fe.Caps.Has(resource.CapTransfer) {
		return errors.Capability(errors.OpTransfer, uint64(from), fe.Kind.String(), "transfer")
	}
	if from == to {
		return nil
	}

	moved := resource.Entry{
		Record: fe.Record,
		Level:  te.Level,
		Kind:   fe.Kind,
		Caps:   fe.Caps,
	}
	c.stack.Set(to, moved)
	c.stack.Unlink(from)
	c.notify(EventTransferred, to, moved)

	te.Drop()
	return nil
}

// Yield marks the entry to survive the innermost scope's drain, handing it
// to the enclosing scope. An entry already owned by an outer scope keeps its
// level.
//
// The innermost scope is tracked by the Context's level, which an abandoned
// inner scope leaves raised until an outer boundary drains it. Code that
// calls helpers which may return without Leave should yield through its own
// Scope instead.
func (c *Context) Yield(h Handle) error {
	return c.yieldTo(h, outerLevel(c.level))
}

// Yield hands the entry to the scope enclosing s, whatever the Context's
// current level is.
func (s *Scope) Yield(h Handle) error {
	return s.ctx.yieldTo(h, outerLevel(s.level))
}

func (c *Context) yieldTo(h Handle, target int) error {
	e, err := c.operand(errors.OpYield, h)
	if err != nil {
		return err
	}
	if !e.Caps.Has(resource.CapTransfer) {
		return errors.Capability(errors.OpYield, uint64(h), e.Kind.String(), "yield")
	}
	if e.Level > target {
		e.Level = target
		c.stack.Set(h, e)
	}
	c.notify(EventYielded, h, e)
	return nil
}

// Swap exchanges record, kind and capabilities of two entries in place.
// Both must be transferable.
func (c *Context) Swap(a, b Handle) error {
	ae, err := c.operand(errors.OpSwap, a)
	if err != nil {
		return err
	}
	be, err := c.operand(errors.OpSwap, b)
	if err != nil {
		return err
	}
	if !ae.Caps.Has(resource.CapTransfer) {
		return errors.Capability(errors.OpSwap, uint64(a), ae.Kind.String(), "swap")
	}
	if !be.Caps.Has(resource.CapTransfer) {
		return errors.Capability(errors.OpSwap, uint64(b), be.Kind.String(), "swap")
	}

	ae.Record, be.Record = be.Record, ae.Record
	ae.Kind, be.Kind = be.Kind, ae.Kind
	ae.Caps, be.Caps = be.Caps, ae.Caps
	c.stack.Set(a, ae)
	c.stack.Set(b, be)
	c.notify(EventSwapped, a, ae)
	return nil
}

func outerLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return level - 1
}
