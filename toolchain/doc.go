// Package toolchain turns assembled WAT into a validated wasm binary.
//
// A Provider hands out a Toolchain; Build runs acquire, compile, decode and
// validate and reports the failing step as the Phase of an *errors.Error:
//
//	art, err := toolchain.Build(ctx, toolchain.Chain{&toolchain.External{}, toolchain.Builtin{}}, src)
//	if err != nil {
//		// the kernel treats any error here as a reason to load the fallback
//	}
//
// Providers:
//   - Builtin: the in-tree compiler from package wat
//   - External: a wat2wasm executable on PATH or at a configured path
//   - Chain: the first provider that succeeds
//   - Unavailable: always fails
package toolchain
