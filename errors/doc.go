// Package errors provides structured error types for the math kernel.
//
// Errors are categorized by Phase (where in the pipeline the error occurred)
// and Kind (error category). The Error type carries the operation or section
// path, Go/WIT type names, and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
//		Path("lerp", "t").
//		GoType("string").
//		WitType("f64").
//		Detail("cannot lower argument").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unavailable("sin")
//	err := errors.KernelUnavailable(cause)
//
// Numeric domain errors (negative factorial, ln of a non-positive value) are
// never reported through this package; operations return NaN or Inf.
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Is matches on Phase and Kind, so the exported sentinels
// (ErrUnavailable, ErrKernelUnavailable, ErrNotReady) can be used as targets.
package errors
