package approx

import (
	"context"
	stderrors "errors"
	"math"
	"sort"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/opset"
)

// Integer traps raised by div_i32 and mod_i32, matching the sandbox.
var (
	ErrIntegerDivideByZero = stderrors.New("integer divide by zero")
	ErrIntegerOverflow     = stderrors.New("integer overflow")
)

type nativeFunc func(n *Native, args []any) (any, error)

func f1(fn func(float64) float64) nativeFunc {
	return func(_ *Native, a []any) (any, error) {
		return fn(a[0].(float64)), nil
	}
}

func f2(fn func(a, b float64) float64) nativeFunc {
	return func(_ *Native, a []any) (any, error) {
		return fn(a[0].(float64), a[1].(float64)), nil
	}
}

func f3(fn func(a, b, c float64) float64) nativeFunc {
	return func(_ *Native, a []any) (any, error) {
		return fn(a[0].(float64), a[1].(float64), a[2].(float64)), nil
	}
}

func cmp(fn func(a, b float64) bool) nativeFunc {
	return func(_ *Native, a []any) (any, error) {
		return fn(a[0].(float64), a[1].(float64)), nil
	}
}

func i2(name string, fn func(a, b int32) (int32, error)) nativeFunc {
	return func(_ *Native, a []any) (any, error) {
		v, err := fn(a[0].(int32), a[1].(int32))
		if err != nil {
			return nil, errors.Trap(name, err)
		}
		return v, nil
	}
}

var natives = map[string]nativeFunc{
	"add":      f2(func(a, b float64) float64 { return a + b }),
	"sub":      f2(func(a, b float64) float64 { return a - b }),
	"mul":      f2(func(a, b float64) float64 { return a * b }),
	"div":      f2(func(a, b float64) float64 { return a / b }),
	"sqrt":     f1(math.Sqrt),
	"abs":      f1(math.Abs),
	"floor":    f1(math.Floor),
	"ceil":     f1(math.Ceil),
	"trunc":    f1(math.Trunc),
	"round":    f1(math.RoundToEven),
	"min":      f2(Min),
	"max":      f2(Max),
	"neg":      f1(func(x float64) float64 { return -x }),
	"copysign": f2(math.Copysign),

	"add_i32": i2("add_i32", func(a, b int32) (int32, error) { return a + b, nil }),
	"sub_i32": i2("sub_i32", func(a, b int32) (int32, error) { return a - b, nil }),
	"mul_i32": i2("mul_i32", func(a, b int32) (int32, error) { return a * b, nil }),
	"div_i32": i2("div_i32", func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, ErrIntegerDivideByZero
		}
		if a == math.MinInt32 && b == -1 {
			return 0, ErrIntegerOverflow
		}
		return a / b, nil
	}),
	"mod_i32": i2("mod_i32", func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, ErrIntegerDivideByZero
		}
		return a % b, nil
	}),

	"deg_to_rad": f1(ToRadians),
	"rad_to_deg": f1(ToDegrees),
	"sin":        f1(Sin),
	"cos":        f1(Cos),
	"tan":        f1(Tan),
	"ln":         f1(Ln),
	"log10":      f1(Log10),
	"exp":        f1(Exp),
	"pow":        f2(Pow),
	"factorial": func(_ *Native, a []any) (any, error) {
		return Factorial(a[0].(int32)), nil
	},
	"quotient": f2(Quotient),
	"mod":      f2(Mod),
	"clamp":    f3(Clamp),
	"lerp":     f3(Lerp),
	"distance": func(_ *Native, a []any) (any, error) {
		return Distance(a[0].(float64), a[1].(float64), a[2].(float64), a[3].(float64)), nil
	},
	"move_x": f3(MoveX),
	"move_y": f3(MoveY),

	"eq": cmp(func(a, b float64) bool { return a == b }),
	"ne": cmp(func(a, b float64) bool { return a != b }),
	"lt": cmp(func(a, b float64) bool { return a < b }),
	"le": cmp(func(a, b float64) bool { return a <= b }),
	"gt": cmp(func(a, b float64) bool { return a > b }),
	"ge": cmp(func(a, b float64) bool { return a >= b }),

	"set_random_seed": func(n *Native, a []any) (any, error) {
		n.rng.SetSeed(a[0].(int64))
		return nil, nil
	},
	"random": func(n *Native, _ []any) (any, error) {
		return n.rng.Next(), nil
	},
	"random_range": func(n *Native, a []any) (any, error) {
		return n.rng.Range(a[0].(float64), a[1].(float64)), nil
	},
}

// Native serves the operation set with the Go renditions in this package.
// It holds its own generator state, independent of any wasm kernel.
type Native struct {
	rng *Generator
}

// NewNative returns a provider seeded with DefaultSeed.
func NewNative() *Native {
	return &Native{rng: NewGenerator(DefaultSeed)}
}

// Generator exposes the provider's random state.
func (n *Native) Generator() *Generator {
	return n.rng
}

// Has reports whether name is a known operation.
func (n *Native) Has(name string) bool {
	_, ok := natives[name]
	return ok
}

// Names lists the available operations, sorted.
func (n *Native) Names() []string {
	names := make([]string, 0, len(natives))
	for name := range natives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call converts args to the op's parameter types and evaluates it. Results
// use the same Go types as the wasm surface: float64, int32, bool, or nil.
func (n *Native) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := natives[name]
	op, known := opset.Lookup(name)
	if !ok || !known {
		return nil, errors.Unavailable(name)
	}
	vals, err := opset.ConvertArgs(&op, args)
	if err != nil {
		return nil, err
	}
	return fn(n, vals)
}
