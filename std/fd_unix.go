//go:build unix

package std

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/wippyai/autocleanup/cleanup"
)

// OpenFD opens path with the raw open(2) call and registers the descriptor.
// O_CLOEXEC is always added.
func OpenFD(c *cleanup.Context, path string, flags int, mode uint32) (int, cleanup.Handle, error) {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, mode)
	if err != nil {
		return -1, 0, errors.Wrapf(err, "open %s", path)
	}
	return fd, c.Register(fd, closeFD), nil
}

func closeFD(v any) {
	_ = unix.Close(v.(int))
}
