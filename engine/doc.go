// Package engine loads kernel modules into a wazero sandbox and exposes
// their exports as a typed execution surface.
//
// # Loading
//
//	eng, err := engine.New(ctx, &engine.Config{MemoryLimitPages: 16})
//	surface, err := eng.Load(ctx, engine.Binary{Bytes: bin, Variant: engine.VariantFull}, opset.All())
//	v, err := surface.Call(ctx, "sin", 1.0)
//
// Load checks each export against the lowered WIT signature of its op.
// Ops the module does not export are simply missing from the surface, which
// is how the fallback module presents a reduced table.
//
// # Value mapping
//
//	WIT     Core    Go argument / result
//	──────────────────────────────────────
//	f64     f64     float64
//	s32     i32     int32
//	s64     i64     int64
//	bool    i32     bool
//
// Arguments are converted with opset.Convert, so untyped Go constants work.
//
// # Errors
//
// Calling an op the surface lacks returns an error matching
// errors.ErrUnavailable. Integer division by zero traps inside the sandbox
// and surfaces as a KindTrap error; floating-point domain errors are NaN or
// ±Inf results, not errors.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Surface calls are serialized by a
// mutex, so the module's random seed has a single writer at a time.
package engine
