package mathkernel

import (
	"context"
	"fmt"
	"math"

	"github.com/wippyai/mathkernel/errors"
)

// Math adapts a Provider to the typed helpers a block-based host expects.
// Angles are in degrees.
type Math struct {
	p Provider
}

// NewMath wraps p.
func NewMath(p Provider) *Math {
	return &Math{p: p}
}

// Provider returns the wrapped provider.
func (m *Math) Provider() Provider {
	return m.p
}

// Float calls an operation that produces an f64.
func (m *Math) Float(ctx context.Context, name string, args ...any) (float64, error) {
	v, err := m.p.Call(ctx, name, args...)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, resultMismatch(name, v, "f64")
	}
	return f, nil
}

// Bool calls an operation that produces a bool.
func (m *Math) Bool(ctx context.Context, name string, args ...any) (bool, error) {
	v, err := m.p.Call(ctx, name, args...)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, resultMismatch(name, v, "bool")
	}
	return b, nil
}

func resultMismatch(name string, v any, want string) error {
	return errors.TypeMismatch(errors.PhaseRuntime, []string{name, "result"}, fmt.Sprintf("%T", v), want)
}

func (m *Math) Add(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "add", a, b)
}

func (m *Math) Sub(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "sub", a, b)
}

func (m *Math) Mul(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "mul", a, b)
}

func (m *Math) Div(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "div", a, b)
}

func (m *Math) Sqrt(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "sqrt", x)
}

func (m *Math) Abs(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "abs", x)
}

func (m *Math) Floor(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "floor", x)
}

func (m *Math) Ceil(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "ceil", x)
}

func (m *Math) Round(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "round", x)
}

func (m *Math) Min(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "min", a, b)
}

func (m *Math) Max(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "max", a, b)
}

// SinDeg returns the sine of an angle given in degrees.
func (m *Math) SinDeg(ctx context.Context, deg float64) (float64, error) {
	return m.degrees(ctx, "sin", deg)
}

// CosDeg returns the cosine of an angle given in degrees.
func (m *Math) CosDeg(ctx context.Context, deg float64) (float64, error) {
	return m.degrees(ctx, "cos", deg)
}

// TanDeg returns the tangent of an angle given in degrees.
func (m *Math) TanDeg(ctx context.Context, deg float64) (float64, error) {
	return m.degrees(ctx, "tan", deg)
}

func (m *Math) degrees(ctx context.Context, name string, deg float64) (float64, error) {
	if !m.p.Has(name) {
		return 0, errors.Unavailable(name)
	}
	rad, err := m.Float(ctx, "deg_to_rad", deg)
	if err != nil {
		return 0, err
	}
	return m.Float(ctx, name, rad)
}

func (m *Math) Ln(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "ln", x)
}

func (m *Math) Log10(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "log10", x)
}

func (m *Math) Exp(ctx context.Context, x float64) (float64, error) {
	return m.Float(ctx, "exp", x)
}

func (m *Math) Pow(ctx context.Context, x, y float64) (float64, error) {
	return m.Float(ctx, "pow", x, y)
}

// Factorial floors n before evaluating. Inputs outside the s32 range yield
// NaN below zero and +Inf above.
func (m *Math) Factorial(ctx context.Context, n float64) (float64, error) {
	f := math.Floor(n)
	switch {
	case math.IsNaN(f):
		return math.NaN(), nil
	case f < math.MinInt32:
		return math.NaN(), nil
	case f > math.MaxInt32:
		return math.Inf(1), nil
	}
	return m.Float(ctx, "factorial", int32(f))
}

func (m *Math) Quotient(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "quotient", a, b)
}

func (m *Math) Mod(ctx context.Context, a, b float64) (float64, error) {
	return m.Float(ctx, "mod", a, b)
}

// Fraction returns the distance from x to the integer below it, mirrored
// for negative x.
func (m *Math) Fraction(ctx context.Context, x float64) (float64, error) {
	fl, err := m.Floor(ctx, x)
	if err != nil {
		return 0, err
	}
	r := x - fl
	if x < 0 {
		return 1 - r, nil
	}
	return r, nil
}

func (m *Math) Clamp(ctx context.Context, v, lo, hi float64) (float64, error) {
	return m.Float(ctx, "clamp", v, lo, hi)
}

func (m *Math) Lerp(ctx context.Context, a, b, t float64) (float64, error) {
	return m.Float(ctx, "lerp", a, b, t)
}

func (m *Math) Distance(ctx context.Context, x1, y1, x2, y2 float64) (float64, error) {
	return m.Float(ctx, "distance", x1, y1, x2, y2)
}

// MoveX returns x advanced by distance along a heading in degrees.
func (m *Math) MoveX(ctx context.Context, x, angleDeg, distance float64) (float64, error) {
	return m.Float(ctx, "move_x", x, angleDeg, distance)
}

// MoveY returns y advanced by distance along a heading in degrees.
func (m *Math) MoveY(ctx context.Context, y, angleDeg, distance float64) (float64, error) {
	return m.Float(ctx, "move_y", y, angleDeg, distance)
}

// Random returns a value in [min, max) from the provider's generator.
func (m *Math) Random(ctx context.Context, min, max float64) (float64, error) {
	return m.Float(ctx, "random_range", min, max)
}

// RandomInt returns an integer in [lo, hi] with the bounds taken in either
// order.
func (m *Math) RandomInt(ctx context.Context, a, b int64) (int64, error) {
	lo, hi := min(a, b), max(a, b)
	v, err := m.Random(ctx, float64(lo), float64(hi+1))
	if err != nil {
		return 0, err
	}
	n := int64(math.Floor(v))
	if n > hi {
		n = hi
	}
	return n, nil
}

// SetSeed resets the provider's generator.
func (m *Math) SetSeed(ctx context.Context, seed int64) error {
	_, err := m.p.Call(ctx, "set_random_seed", seed)
	return err
}

func (m *Math) Eq(ctx context.Context, a, b float64) (bool, error) { return m.Bool(ctx, "eq", a, b) }
func (m *Math) Ne(ctx context.Context, a, b float64) (bool, error) { return m.Bool(ctx, "ne", a, b) }
func (m *Math) Lt(ctx context.Context, a, b float64) (bool, error) { return m.Bool(ctx, "lt", a, b) }
func (m *Math) Le(ctx context.Context, a, b float64) (bool, error) { return m.Bool(ctx, "le", a, b) }
func (m *Math) Gt(ctx context.Context, a, b float64) (bool, error) { return m.Bool(ctx, "gt", a, b) }
func (m *Math) Ge(ctx context.Context, a, b float64) (bool, error) { return m.Bool(ctx, "ge", a, b) }
