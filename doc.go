// Package autocleanup provides scope-based lifetime management and reference
// counting for Go resources that the garbage collector does not reclaim on
// its own: files, descriptors, locks, wasm runtimes and anything else with a
// release function.
//
// Resources are registered on a per-goroutine cleanup stack as soon as they
// are acquired. Scopes release what was registered inside them, newest
// first, on every exit path. Ownership can be handed to an enclosing scope,
// moved into a reserved entry, or shared between goroutines with strong and
// weak references.
//
// # Architecture Overview
//
//	autocleanup/
//	├── resource/        Slab-backed LIFO stack with generational handles
//	├── cleanup/         Context, scopes, ownership operations, Shared refcounts
//	├── std/             Registration helpers for files, fds, buffers, locks, wazero
//	├── errors/          Structured error types for engine failures
//	└── cmd/acu/         Walkthrough CLI with an interactive stack viewer
//
// # Quick Start
//
//	err := cleanup.Do(cleanup.DefaultOptions(), func(c *cleanup.Context) error {
//	    return c.Run(func() error {
//	        f, _, err := std.Open(c, "input.txt")
//	        if err != nil {
//	            return err
//	        }
//	        return parse(f)
//	    })
//	})
//
// # Sharing Across Goroutines
//
// A Context belongs to one goroutine. To hand a value to workers, share it
// and give each worker its own Context holding a strong reference:
//
//	s, _ := c.Share(h)
//	g.Go(func() error {
//	    return cleanup.Do(opts, func(wc *cleanup.Context) error {
//	        ref := wc.NewStrong(s)
//	        v, _ := wc.Value(ref)
//	        return work(v)
//	    })
//	})
//
// The value is released exactly once, by whichever goroutine drops the last
// strong reference.
package autocleanup
