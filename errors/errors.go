package errors

import (
	"fmt"
	"strings"
)

// Op names the engine operation that produced the error
type Op string

const (
	OpRegister Op = "register"
	OpLatest   Op = "latest"
	OpValue    Op = "value"
	OpRelease  Op = "release"
	OpUpdate   Op = "update"
	OpTransfer Op = "transfer"
	OpYield    Op = "yield"
	OpSwap     Op = "swap"
	OpShare    Op = "share"
	OpLock     Op = "lock"
	OpSubmit   Op = "submit"
	OpLeave    Op = "leave"
)

// Kind categorizes the error
type Kind string

const (
	KindCapability    Kind = "capability"     // entry lacks the flag the operation needs
	KindNoLatest      Kind = "no_latest"      // nothing registered since the last consuming call
	KindStaleHandle   Kind = "stale_handle"   // handle released or never issued
	KindExpired       Kind = "expired"        // shared object already reached strong zero
	KindExhausted     Kind = "exhausted"      // bookkeeping could not be allocated
	KindReleaseFailed Kind = "release_failed" // a release function panicked
)

// Sentinels for errors.Is. They carry no Op so they match every operation.
var (
	ErrCapability    = &Error{Kind: KindCapability}
	ErrNoLatest      = &Error{Kind: KindNoLatest}
	ErrStaleHandle   = &Error{Kind: KindStaleHandle}
	ErrExpired       = &Error{Kind: KindExpired}
	ErrReleaseFailed = &Error{Kind: KindReleaseFailed}

	// ErrExhausted is the static failure object for bookkeeping allocation.
	ErrExhausted = &Error{
		Op:     OpRegister,
		Kind:   KindExhausted,
		Detail: "cleanup stack entry limit reached",
	}
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Op     Op
	Kind   Kind
	Entry  string
	Detail string
	Handle uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Op))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " at handle %#x", e.Handle)
	}

	if e.Entry != "" {
		b.WriteString(" (")
		b.WriteString(e.Entry)
		b.WriteString(" entry)")
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without an Op matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(op Op, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Op:   op,
			Kind: kind,
		},
	}
}

// Handle sets the offending handle
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
	return b
}

// Entry sets the kind of entry the operation addressed
func (b *Builder) Entry(kind string) *Builder {
	b.err.Entry = kind
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Capability creates a capability violation error
func Capability(op Op, handle uint64, entry, need string) *Error {
	return New(op, KindCapability).
		Handle(handle).
		Entry(entry).
		Detail("entry does not support %s", need).
		Build()
}

// NoLatest creates the protocol violation raised when no registration is pending
func NoLatest(op Op) *Error {
	return New(op, KindNoLatest).
		Detail("no entry registered since the last consuming call").
		Build()
}

// StaleHandle creates a stale handle error
func StaleHandle(op Op, handle uint64) *Error {
	return New(op, KindStaleHandle).
		Handle(handle).
		Detail("handle does not address a live entry").
		Build()
}

// Expired creates an error for operations on a shared object with no strong references left
func Expired(op Op, detail string) *Error {
	return New(op, KindExpired).Detail("%s", detail).Build()
}

// ReleaseFailed reports a release function that panicked during a drain.
// An error panic value becomes the cause.
func ReleaseFailed(op Op, recovered any) *Error {
	b := New(op, KindReleaseFailed)
	if err, ok := recovered.(error); ok {
		return b.Cause(err).Detail("release function panicked").Build()
	}
	return b.Detail("release function panicked: %v", recovered).Build()
}

// Wrap wraps an existing error with additional context
func Wrap(op Op, kind Kind, cause error, detail string) *Error {
	return New(op, kind).Cause(cause).Detail("%s", detail).Build()
}
