// Package fallback embeds the reduced module the kernel loads when no
// toolchain can compile the full one.
//
// The module exports add, sub, mul, div, sqrt, abs, floor, ceil, round, min
// and max plus the linear memory. It is not written by hand: cmd/kernelgen
// derives it from the full module with wasm.Module.Subset, so each fallback
// function has the same signature and body as its full counterpart.
// Regenerate with:
//
//	go generate ./fallback
package fallback
