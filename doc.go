// Package mathkernel provides a deterministic numeric kernel that runs inside
// a WebAssembly sandbox.
//
// The kernel trades library-grade accuracy for determinism and a fixed cost
// per call: every transcendental function is a truncated Taylor series, so
// results are reproducible bit for bit across hosts.
//
// # Architecture Overview
//
//	mathkernel/          Provider capability and the Math host facade
//	├── approx/          Go renditions of the kernel algorithms and LCG
//	├── opset/           The operation table: names, WIT signatures, WAT bodies
//	├── assemble/        Operation table to WAT module and WIT interface
//	├── toolchain/       WAT to binary compilation (builtin or wat2wasm)
//	├── fallback/        Embedded reduced module, derived by subsetting
//	├── engine/          wazero loading and the callable surface
//	├── kernel/          Lifecycle state machine with fallback degradation
//	├── config/          YAML/TOML/.env configuration
//	├── wasm/            Core wasm binary decode, encode, validate, subset
//	├── wat/             WAT text format to wasm binary compiler
//	└── errors/          Structured error types
//
// # Quick Start
//
//	k := kernel.New(nil)
//	if err := k.Init(ctx); err != nil {
//		return err
//	}
//	defer k.Close(ctx)
//
//	m := mathkernel.NewMath(k)
//	s, err := m.SinDeg(ctx, 30)
//
// When the full module cannot be compiled the kernel serves the eleven
// fallback operations (add, sub, mul, div, sqrt, abs, floor, ceil, round,
// min, max); other calls return errors.ErrUnavailable.
//
// # Accuracy
//
// sin and cos use six series terms after reducing the angle into (-π, π];
// error near ±π is on the order of 1e-4. ln uses ten terms of the atanh
// series and exp twenty terms without range reduction, so large arguments
// lose precision. Domain errors are values: ln(0) is NaN, factorial(-1) is
// NaN, 1/0 is +Inf. Only integer division by zero is reported as an error.
package mathkernel
