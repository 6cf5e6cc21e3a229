// Package wat compiles the WebAssembly Text format into binary WASM.
//
// The accepted language covers what a self-contained numeric module needs:
//
//	wasm, err := wat.Compile(`(module
//		(memory (export "memory") 1)
//		(func (export "lerp") (param $a f64) (param $b f64) (param $t f64) (result f64)
//			(f64.add
//				(f64.mul (local.get $a) (f64.sub (f64.const 1) (local.get $t)))
//				(f64.mul (local.get $b) (local.get $t)))))`)
//
// Supported:
//   - Functions with named or indexed params, results and locals
//   - Type declarations and (type $t) references
//   - Memory and global declarations with inline or standalone exports
//   - Flat and folded instructions, including block/loop/if with labels,
//     then/else and single-value results
//   - i32/i64/f64 arithmetic, comparisons and conversions; f64.const accepts
//     decimal, hex float, inf and nan forms
//   - Comments: line (;;) and nested block (; ;)
//
// Not supported: imports, tables, data and element segments, load/store,
// multi-value blocks.
package wat
