// Package cleanup implements scope-based lifetime management and reference
// counting on top of the resource stack.
//
// A Context is one worker's cleanup engine. Resources are registered with
// their release function; scopes release them newest first when left:
//
//	c := cleanup.NewWithDefaults()
//	defer c.Close()
//
//	err := c.Run(func() error {
//	    f, err := os.Open(name)
//	    if err != nil {
//	        return err
//	    }
//	    c.Register(f, func(v any) { v.(*os.File).Close() })
//	    return parse(f)
//	}) // f is closed here, whichever way the function returned
//
// # Ownership
//
// Every registration is a unique entry addressed by a Handle. The latest
// registration can be picked up once with Latest:
//
//	c.Register(buf, release)
//	h, _ := c.Latest()
//
//	c.Yield(h)         // survive this scope, owned by the caller's scope
//	c.Transfer(h, dst) // move into an entry reserved by an outer scope
//	c.Release(h)       // release early
//
// # Sharing
//
// Share turns an entry into a strong reference to a Shared object. More
// strong and weak references can be registered in any Context, from any
// goroutine. The value is released exactly once, when the last strong
// reference goes away:
//
//	s, _ := c.Share(h)
//	w := c.NewWeak(s)
//	...
//	if sh, ok, _ := c.Lock(w); ok {
//	    v, _ := c.Value(sh)
//	}
//
// Submit moves an entry into a Shared object's private stack so it lives
// exactly as long as the shared value.
//
// # Abandoned Scopes
//
// A scope that is never left, for example after a return that skipped its
// Leave, keeps its entries registered. The next scope boundary crossed
// normally releases them, so release is delayed but never lost. Close
// drains everything and is the teardown hook for a worker or process.
//
// # Conditions
//
// Try runs a function in its own scope and catches errors thrown with
// panic, draining the scope first:
//
//	err := c.Try(func() {
//	    h := must.M1(c.Latest())
//	    ...
//	})
//
// # Thread Safety
//
// Context is NOT thread-safe; give each goroutine its own (see Do) and
// attach it to a context.Context with WithContext. Shared objects are safe
// for concurrent use.
package cleanup
