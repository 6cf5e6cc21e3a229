package mathkernel

import (
	"context"

	"github.com/wippyai/mathkernel/approx"
	"github.com/wippyai/mathkernel/kernel"
)

// Provider supplies numeric operations by name. Hosts pick an implementation
// at composition time: a sandboxed *kernel.Kernel or the in-process
// *approx.Native.
type Provider interface {
	// Call evaluates the named operation. Results are float64, int32, bool,
	// or nil for operations without a result.
	Call(ctx context.Context, name string, args ...any) (any, error)

	// Has reports whether the operation can be called right now.
	Has(name string) bool
}

var (
	_ Provider = (*kernel.Kernel)(nil)
	_ Provider = (*approx.Native)(nil)
)
