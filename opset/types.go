package opset

import (
	"fmt"
	"math"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/wasm"
)

// TypeName returns the WIT spelling of the kernel's value types.
func TypeName(t wit.Type) string {
	switch t.(type) {
	case wit.F64:
		return "f64"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.Bool:
		return "bool"
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// Lower maps a WIT type to its core wasm value type. Bool lowers to i32.
func Lower(t wit.Type) (wasm.ValType, error) {
	switch t.(type) {
	case wit.F64:
		return wasm.ValF64, nil
	case wit.S32, wit.Bool:
		return wasm.ValI32, nil
	case wit.S64:
		return wasm.ValI64, nil
	default:
		return 0, errors.Unsupported(errors.PhaseAssemble, "WIT type "+TypeName(t))
	}
}

// LowerAll lowers a list of WIT types.
func LowerAll(types []wit.Type) ([]wasm.ValType, error) {
	out := make([]wasm.ValType, len(types))
	for i, t := range types {
		vt, err := Lower(t)
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}

// Convert coerces a Go argument to the canonical Go type of t: float64 for
// f64, int32 for s32, int64 for s64, bool for bool. Integers convert to f64
// freely; floats convert to integer types only when integral and in range.
func Convert(t wit.Type, v any) (any, error) {
	switch t.(type) {
	case wit.F64:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case uint32:
			return float64(x), nil
		}
	case wit.S32:
		if n, ok := toInt64(v); ok && n >= math.MinInt32 && n <= math.MaxInt32 {
			return int32(n), nil
		}
	case wit.S64:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case wit.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, errors.TypeMismatch(errors.PhaseRuntime, nil, fmt.Sprintf("%T", v), TypeName(t))
}

// ConvertArgs converts args against an op's parameter list. The error path
// names the op and parameter.
func ConvertArgs(op *Op, args []any) ([]any, error) {
	if len(args) != len(op.Params) {
		return nil, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("%s expects %d arguments, got %d", op.Name, len(op.Params), len(args)))
	}
	out := make([]any, len(args))
	for i, p := range op.Params {
		v, err := Convert(p.Type, args[i])
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = []string{op.Name, p.Name}
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float64:
		if x == math.Trunc(x) && x >= -(1<<63) && x < 1<<63 {
			return int64(x), true
		}
	}
	return 0, false
}
