package std

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wippyai/autocleanup/cleanup"
	acuerrors "github.com/wippyai/autocleanup/errors"
	"github.com/wippyai/autocleanup/resource"
)

// Closer registers v so that it is closed on release. Close errors cannot
// be returned from a drain; they are logged.
func Closer(c *cleanup.Context, v io.Closer) cleanup.Handle {
	return c.Register(v, closeValue)
}

// Drop registers a value that frees itself.
func Drop(c *cleanup.Context, d resource.Dropper) cleanup.Handle {
	return c.Register(d, resource.ReleaseDropper)
}

func closeValue(v any) {
	if err := v.(io.Closer).Close(); err != nil {
		cleanup.Logger().Warn("close on release failed", zap.Error(err))
	}
}

// Open opens the named file for reading and registers it.
func Open(c *cleanup.Context, name string) (*os.File, cleanup.Handle, error) {
	return OpenFile(c, name, os.O_RDONLY, 0)
}

// Create creates or truncates the named file and registers it.
func Create(c *cleanup.Context, name string) (*os.File, cleanup.Handle, error) {
	return OpenFile(c, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// OpenFile is the generalized open call; see os.OpenFile.
func OpenFile(c *cleanup.Context, name string, flag int, perm os.FileMode) (*os.File, cleanup.Handle, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "open %s", name)
	}
	return f, Closer(c, f), nil
}

// Alloc registers a zeroed buffer of n bytes. The buffer is wiped on
// release.
func Alloc(c *cleanup.Context, n int) ([]byte, cleanup.Handle) {
	buf := make([]byte, n)
	return buf, c.Register(buf, wipe)
}

// Realloc resizes the buffer held by h, keeping its contents up to the
// smaller size. The old buffer is wiped and the entry now holds the new one.
func Realloc(c *cleanup.Context, h cleanup.Handle, n int) ([]byte, error) {
	v, err := c.Value(h)
	if err != nil {
		return nil, err
	}
	old, ok := v.([]byte)
	if !ok {
		return nil, acuerrors.Capability(acuerrors.OpUpdate, uint64(h), "non-buffer", "realloc")
	}

	buf := make([]byte, n)
	copy(buf, old)
	if err := c.Update(h, buf); err != nil {
		return nil, err
	}
	clear(old)
	return buf, nil
}

func wipe(v any) {
	clear(v.([]byte))
}

// Lock acquires l and registers its release. The lock is held until the
// enclosing scope is left or the entry is released.
func Lock(c *cleanup.Context, l sync.Locker) cleanup.Handle {
	l.Lock()
	return c.Register(l, unlock)
}

func unlock(v any) {
	v.(sync.Locker).Unlock()
}
