// Package wasm provides WebAssembly binary format parsing, encoding and
// validation for self-contained numeric modules.
//
// The supported surface is the core subset a pure numeric kernel needs:
//
//	Sections:     type, function, memory, global, export, code, custom
//	Value types:  i32, i64, f64 (f32 is decoded but has no arithmetic)
//	Instructions: structured control flow, calls, locals, globals,
//	              i32/i64/f64 arithmetic and comparisons, conversions
//
// Imports, tables, start functions, element and data segments are rejected
// with ErrUnsupported.
//
// # Parsing
//
//	module, err := wasm.ParseModule(data)
//
// Parse with validation enabled:
//
//	module, err := wasm.ParseModuleValidate(data)
//
// # Encoding
//
// Encoding is deterministic; a canonically encoded binary survives a
// parse/encode round trip byte for byte:
//
//	encoded := module.Encode()
//
// # Validation
//
// Validate checks index bounds, memory limits, global initializers and
// export names, then type-checks every function body with an operand and
// control stack.
//
// # Subsets
//
// Subset derives a smaller standalone module that exports only the named
// functions plus whatever they call:
//
//	small, err := module.Subset([]string{"add", "sqrt"})
package wasm
