//go:generate go run ../cmd/kernelgen -o binary_gen.go

package fallback

import (
	"context"
	"fmt"

	"github.com/wippyai/mathkernel/assemble"
	"github.com/wippyai/mathkernel/opset"
	"github.com/wippyai/mathkernel/toolchain"
)

// Binary returns a copy of the embedded fallback module.
func Binary() []byte {
	return append([]byte(nil), binary...)
}

// Names lists the operations the fallback module exports, in export order.
func Names() []string {
	return append([]string(nil), names...)
}

// Derive rebuilds the fallback module from the operation set: it assembles
// and compiles the full module with the builtin toolchain, then keeps only
// the fallback ops and what they reference.
func Derive(ctx context.Context) ([]byte, []string, error) {
	src, err := assemble.WAT(opset.All())
	if err != nil {
		return nil, nil, err
	}
	art, err := toolchain.Build(ctx, toolchain.Builtin{}, src)
	if err != nil {
		return nil, nil, err
	}
	want := opset.FallbackNames()
	sub, err := art.Module.Subset(want)
	if err != nil {
		return nil, nil, fmt.Errorf("derive fallback: %w", err)
	}
	if err := sub.Validate(); err != nil {
		return nil, nil, fmt.Errorf("derive fallback: %w", err)
	}
	return sub.Encode(), sub.FuncExports(), nil
}
