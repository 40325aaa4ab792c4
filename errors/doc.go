// Package errors provides structured error types for the autocleanup library.
//
// Errors are categorized by Op (the engine operation that failed) and Kind
// (error category). The Error type carries the offending handle, the kind of
// entry it addressed and an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.OpTransfer, errors.KindCapability).
//		Handle(uint64(h)).
//		Entry("weak").
//		Detail("entry is not transferable").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Capability(errors.OpUpdate, uint64(h), "weak", "update")
//	err := errors.NoLatest(errors.OpLatest)
//
// Matching works with errors.Is against the package sentinels, which carry
// only a Kind and therefore match any Op:
//
//	if errors.Is(err, errors.ErrNoLatest) { ... }
//
// ErrExhausted is allocated at package init. It is the failure object thrown
// when the engine cannot allocate its own bookkeeping, so reporting it never
// needs memory.
package errors
