package cleanup

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/autocleanup/errors"
	"github.com/wippyai/autocleanup/resource"
)

// Handle addresses an entry in a Context's cleanup stack.
type Handle = resource.Handle

// Context holds one worker's cleanup stack together with the latest
// register and the current scope level.
//
// A Context is NOT thread-safe and must be confined to a single goroutine.
// Shared objects are the only structures meant to cross goroutines.
type Context struct {
	stack     *resource.Stack
	log       *zap.Logger
	observers []Observer
	latest    Handle
	level     int
}

// New creates a Context with the given options.
func New(opts Options) *Context {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	return &Context{
		stack:     resource.NewStack(opts.Capacity, opts.MaxEntries),
		log:       log,
		observers: append([]Observer(nil), opts.Observers...),
	}
}

// NewWithDefaults creates a Context with default options.
func NewWithDefaults() *Context {
	return New(DefaultOptions())
}

type contextKey struct{}

// WithContext returns a context with the cleanup Context attached.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext extracts the cleanup Context, or nil if not present.
func FromContext(ctx context.Context) *Context {
	if c, ok := ctx.Value(contextKey{}).(*Context); ok {
		return c
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (c *Context) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

// Level returns the current scope nesting depth.
func (c *Context) Level() int {
	return c.level
}

// Len returns the number of registered entries, scope markers included.
func (c *Context) Len() int {
	return c.stack.Len()
}

// Each iterates over registered entries from newest to oldest.
func (c *Context) Each(fn func(Handle, resource.Entry) bool) {
	c.stack.Each(fn)
}

// Entry returns the current state of the entry addressed by h.
func (c *Context) Entry(h Handle) (resource.Entry, bool) {
	return c.stack.Get(h)
}

// Register pushes a new owned entry at the current scope level and makes it
// the latest registration. Callers register only after a successful
// allocation. If the stack cannot take the entry, value is released and
// errors.ErrExhausted is thrown.
func (c *Context) Register(value any, release func(any)) Handle {
	kind := resource.KindOwned
	if value == nil && release == nil {
		kind = resource.KindEmpty
	}
	e := resource.Entry{
		Record: resource.Record{Value: value, Release: release},
		Level:  c.level,
		Kind:   kind,
		Caps:   resource.CapAll,
	}
	h := c.push(e)
	c.latest = h
	c.notify(EventRegistered, h, e)
	return h
}

// Reserve registers an empty entry, typically the target of a Transfer.
func (c *Context) Reserve() Handle {
	return c.Register(nil, nil)
}

// Latest returns and clears the latest registration.
func (c *Context) Latest() (Handle, error) {
	h := c.latest
	c.latest = 0
	if h == 0 || !c.stack.Contains(h) {
		return 0, errors.NoLatest(errors.OpLatest)
	}
	return h, nil
}

// Value dereferences an entry, following a strong forward link to the
// shared value. Weak links must be locked first.
func (c *Context) Value(h Handle) (any, error) {
	e, err := c.operand(errors.OpValue, h)
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case resource.KindStrong:
		return e.Value.(*Shared).Value(), nil
	case resource.KindWeak:
		return nil, errors.Capability(errors.OpValue, uint64(h), e.Kind.String(), "dereference without lock")
	default:
		return e.Value, nil
	}
}

// push places e on the stack or, when bookkeeping is exhausted, releases
// e's record and throws the static failure object.
func (c *Context) push(e resource.Entry) Handle {
	h, err := c.stack.Push(e)
	if err != nil {
		c.log.Error("cleanup stack exhausted",
			zap.Int("entries", c.stack.Len()),
			zap.Stringer("kind", e.Kind))
		e.Drop()
		panic(err)
	}
	return h
}

// operand resolves h to a live entry that may be used as an operand.
func (c *Context) operand(op errors.Op, h Handle) (resource.Entry, error) {
	e, ok := c.stack.Get(h)
	if !ok {
		return e, errors.StaleHandle(op, uint64(h))
	}
	if e.Kind == resource.KindMarker {
		return e, errors.Capability(op, uint64(h), e.Kind.String(), string(op))
	}
	return e, nil
}

func (c *Context) notify(t EventType, h Handle, e resource.Entry) {
	if len(c.observers) == 0 {
		return
	}
	ev := Event{
		Type:   t,
		Handle: h,
		Kind:   e.Kind,
		Level:  e.Level,
		Value:  e.Value,
	}
	for _, o := range c.observers {
		o.OnCleanupEvent(ev)
	}
}
