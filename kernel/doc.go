// Package kernel manages the lifecycle of the sandboxed numeric kernel.
//
// A Kernel assembles the operation set, compiles it with the configured
// toolchain and loads it into a wazero sandbox. If any compiler step fails
// it loads the embedded fallback module instead and keeps serving the basic
// arithmetic ops; only a failure to load the fallback is fatal.
//
//	k := kernel.New(nil)
//	if err := k.Init(ctx); err != nil {
//		return err // errors.ErrKernelUnavailable
//	}
//	defer k.Close(ctx)
//	v, err := k.Call(ctx, "sin", 1.0)
//
// Each kernel carries a random instance ID included in every log line, and
// records per-operation call counts and cumulative time (Stats).
package kernel
