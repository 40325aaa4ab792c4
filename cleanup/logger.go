package cleanup

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var pkgLogger atomic.Pointer[zap.Logger]

// Logger returns the logger new Contexts and std release adapters write to.
// Until SetLogger is called it discards everything.
func Logger() *zap.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger routes cleanup diagnostics to l under the "cleanup" name.
// A Context keeps the logger it was created with, so call SetLogger before
// New. A nil l restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		pkgLogger.Store(nil)
		return
	}
	pkgLogger.Store(l.Named("cleanup"))
}
