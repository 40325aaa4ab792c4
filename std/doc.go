// Package std registers common Go resources with a cleanup Context.
//
// Each helper acquires the resource first and registers it only on success,
// so a failed acquisition leaves nothing on the stack:
//
//	err := c.Run(func() error {
//	    f, _, err := std.Open(c, "input.txt")
//	    if err != nil {
//	        return err
//	    }
//	    return process(f)
//	})
//
// Helpers return the entry handle so the caller can yield, transfer, share
// or release the resource like any other registration.
package std
