// Package approx holds the Go renditions of the kernel's numeric algorithms.
//
// Every function uses the same constants, series lengths and operation order
// as the WAT bodies in package opset, so a Native provider and a loaded
// wasm module return bit-identical results for the same inputs. The
// transcendental functions trade accuracy for a fixed cost:
//
//	Sin, Cos   6 Taylor terms around the angle reduced to [-π, π]
//	Ln         10 terms of 2·atanh((x-1)/(x+1))
//	Exp        20 Taylor terms, no range reduction
//
// Domain errors are values: NaN and ±Inf are returned, never Go errors.
// The only errors Native produces are integer traps, unknown operations and
// argument type mismatches.
package approx
