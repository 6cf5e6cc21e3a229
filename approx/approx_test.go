package approx

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/mathkernel/errors"
)

const tolerance = 1e-4

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{Pi, Pi},
		{-Pi, -Pi},
		{4, 4 - TwoPi},
		{-7, -7 + TwoPi},
		{100, 100 - 16*TwoPi},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		if !near(got, tt.want, 1e-9) {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < -Pi || got > Pi {
			t.Errorf("Normalize(%v) = %v outside [-π, π]", tt.in, got)
		}
	}

	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), MaxAngle, -MaxAngle * 4} {
		if got := Normalize(x); !math.IsNaN(got) {
			t.Errorf("Normalize(%v) = %v, want NaN", x, got)
		}
	}
}

func TestTrigonometry(t *testing.T) {
	for _, x := range []float64{-3, -1.5, -0.5, 0, 0.25, 1, 2, 3} {
		if got := Sin(x); !near(got, math.Sin(x), 1e-3) {
			t.Errorf("Sin(%v) = %v, math.Sin = %v", x, got, math.Sin(x))
		}
		if got := Cos(x); !near(got, math.Cos(x), 2e-3) {
			t.Errorf("Cos(%v) = %v, math.Cos = %v", x, got, math.Cos(x))
		}
	}

	t.Run("periodicity", func(t *testing.T) {
		for _, x := range []float64{0.5, 1, 2.5, -2} {
			for _, k := range []float64{1, 2, 5, -3} {
				y := x + k*TwoPi
				if !near(Sin(y), Sin(x), tolerance) {
					t.Errorf("Sin(%v) = %v, Sin(%v) = %v", y, Sin(y), x, Sin(x))
				}
			}
		}
	})

	t.Run("exact_points", func(t *testing.T) {
		if Sin(0) != 0 {
			t.Errorf("Sin(0) = %v", Sin(0))
		}
		if Cos(0) != 1 {
			t.Errorf("Cos(0) = %v", Cos(0))
		}
		if Tan(0) != 0 {
			t.Errorf("Tan(0) = %v", Tan(0))
		}
	})

	if !math.IsNaN(Sin(math.Inf(1))) {
		t.Error("Sin(+Inf) should be NaN")
	}
}

func TestLogExp(t *testing.T) {
	if Ln(1) != 0 {
		t.Errorf("Ln(1) = %v", Ln(1))
	}
	for _, x := range []float64{0, -1, math.Inf(-1), math.NaN()} {
		if !math.IsNaN(Ln(x)) {
			t.Errorf("Ln(%v) = %v, want NaN", x, Ln(x))
		}
	}
	if got := Ln(2); !near(got, math.Ln2, 1e-6) {
		t.Errorf("Ln(2) = %v", got)
	}
	if got := Log10(10); !near(got, 1, 1e-2) {
		t.Errorf("Log10(10) = %v", got)
	}
	if Exp(0) != 1 {
		t.Errorf("Exp(0) = %v", Exp(0))
	}
	if got := Exp(1); !near(got, math.E, 1e-12) {
		t.Errorf("Exp(1) = %v", got)
	}
}

func TestPow(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"zero_exponent", 5, 0, 1},
		{"zero_to_zero", 0, 0, 1},
		{"nan_to_zero", math.NaN(), 0, 1},
		{"zero_base", 0, 3, 0},
		{"zero_base_negative_exponent", 0, -2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pow(tt.x, tt.y); got != tt.want {
				t.Errorf("Pow(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if got := Pow(2, 3); !near(got, 8, 1e-3) {
		t.Errorf("Pow(2, 3) = %v", got)
	}
	if !math.IsNaN(Pow(-2, 2)) {
		t.Error("Pow(-2, 2) should be NaN")
	}
}

func TestFactorial(t *testing.T) {
	tests := []struct {
		n    int32
		want float64
	}{
		{0, 1},
		{1, 1},
		{5, 120},
		{10, 3628800},
		{171, math.Inf(1)},
		{math.MaxInt32, math.Inf(1)},
	}
	for _, tt := range tests {
		if got := Factorial(tt.n); got != tt.want {
			t.Errorf("Factorial(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
	if !math.IsNaN(Factorial(-1)) {
		t.Error("Factorial(-1) should be NaN")
	}
	if math.IsInf(Factorial(MaxFactorial), 0) {
		t.Error("Factorial(170) should be finite")
	}
}

func TestUtilities(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"quotient", Quotient(7, 2), 3},
		{"quotient_negative", Quotient(-7, 2), -4},
		{"mod", Mod(7, 2), 1},
		{"mod_negative_dividend", Mod(-7, 2), 1},
		{"mod_negative_divisor", Mod(7, -2), -1},
		{"clamp_inside", Clamp(5, 0, 10), 5},
		{"clamp_low", Clamp(-1, 0, 10), 0},
		{"clamp_high", Clamp(11, 0, 10), 10},
		{"clamp_inverted_bounds", Clamp(5, 10, 1), 1},
		{"lerp_mid", Lerp(0, 10, 0.5), 5},
		{"lerp_extrapolate", Lerp(0, 10, 2), 20},
		{"distance", Distance(0, 0, 3, 4), 5},
		{"move_x_zero", MoveX(1, 0, 2), 3},
		{"move_y_zero", MoveY(1, 0, 2), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if !math.IsNaN(Clamp(math.NaN(), 0, math.Inf(1))) {
		t.Error("Clamp(NaN, 0, +Inf) should be NaN")
	}
	if !math.IsNaN(Max(math.Inf(1), math.NaN())) {
		t.Error("Max(+Inf, NaN) should be NaN")
	}
	if got := MoveY(0, 90, 10); !near(got, 10, 1e-3) {
		t.Errorf("MoveY(0, 90, 10) = %v", got)
	}
}

func TestAngleConversion(t *testing.T) {
	for _, x := range []float64{0, 0.5, 1, Pi, -2.75, 100} {
		if got := ToRadians(ToDegrees(x)); !near(got, x, 1e-12) {
			t.Errorf("ToRadians(ToDegrees(%v)) = %v", x, got)
		}
	}
	if got := ToDegrees(Pi); !near(got, 180, 1e-12) {
		t.Errorf("ToDegrees(π) = %v", got)
	}
}

func TestGenerator(t *testing.T) {
	g := NewGenerator(DefaultSeed)
	state := int64(DefaultSeed)
	for i := 0; i < 5; i++ {
		state = Step(state)
		want := float64(state) / LCGMask
		if got := g.Next(); got != want {
			t.Fatalf("step %d: got %v, want %v", i, got, want)
		}
	}

	first := NewGenerator(DefaultSeed).Next()
	if want := float64((int64(DefaultSeed)*LCGMultiplier+LCGIncrement)&LCGMask) / LCGMask; first != want {
		t.Errorf("first value = %v, want %v", first, want)
	}

	t.Run("reseed_reproduces", func(t *testing.T) {
		g := NewGenerator(42)
		a := []float64{g.Next(), g.Next(), g.Next()}
		g.SetSeed(42)
		b := []float64{g.Next(), g.Next(), g.Next()}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("value %d differs after reseed: %v vs %v", i, a[i], b[i])
			}
		}
	})

	t.Run("unit_range", func(t *testing.T) {
		g := NewGenerator(7)
		for i := 0; i < 1000; i++ {
			v := g.Next()
			if v < 0 || v > 1 {
				t.Fatalf("Next() = %v outside [0, 1]", v)
			}
		}
		if Unit(LCGMask) != 1 {
			t.Errorf("Unit(mask) = %v", Unit(LCGMask))
		}
	})

	t.Run("range", func(t *testing.T) {
		g := NewGenerator(DefaultSeed)
		r := NewGenerator(DefaultSeed).Next()
		want := float64(r*10) + 10
		if got := g.Range(10, 20); got != want {
			t.Errorf("Range(10, 20) = %v, want %v", got, want)
		}
	})
}

func TestNative(t *testing.T) {
	ctx := context.Background()
	n := NewNative()

	tests := []struct {
		op   string
		args []any
		want any
	}{
		{"add", []any{2.0, 3.0}, 5.0},
		{"add", []any{2, 3}, 5.0},
		{"round", []any{2.5}, 2.0},
		{"round", []any{3.5}, 4.0},
		{"trunc", []any{-2.7}, -2.0},
		{"copysign", []any{3.0, -1.0}, -3.0},
		{"add_i32", []any{int32(math.MaxInt32), 1}, int32(math.MinInt32)},
		{"mod_i32", []any{-7, 2}, int32(-1)},
		{"div_i32", []any{7, 2}, int32(3)},
		{"factorial", []any{5}, 120.0},
		{"quotient", []any{7.0, 2.0}, 3.0},
		{"clamp", []any{5.0, 10.0, 1.0}, 1.0},
		{"lt", []any{1.0, 2.0}, true},
		{"eq", []any{math.NaN(), math.NaN()}, false},
		{"set_random_seed", []any{int64(12345)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := n.Call(ctx, tt.op, tt.args...)
			if err != nil {
				t.Fatalf("Call(%s): %v", tt.op, err)
			}
			if got != tt.want {
				t.Errorf("Call(%s) = %#v, want %#v", tt.op, got, tt.want)
			}
		})
	}

	t.Run("traps", func(t *testing.T) {
		for _, args := range [][]any{{1, 0}, {math.MinInt32, -1}} {
			_, err := n.Call(ctx, "div_i32", args...)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindTrap}) {
				t.Errorf("div_i32%v: expected trap, got %v", args, err)
			}
		}
		if _, err := n.Call(ctx, "mod_i32", 1, 0); !stderrors.Is(err, ErrIntegerDivideByZero) {
			t.Errorf("mod_i32(1, 0): %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if n.Has("atan2") {
			t.Error("Has(atan2) = true")
		}
		_, err := n.Call(ctx, "atan2", 1.0, 2.0)
		if !stderrors.Is(err, errors.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("seeded_sequence", func(t *testing.T) {
		if _, err := n.Call(ctx, "set_random_seed", 12345); err != nil {
			t.Fatal(err)
		}
		got, _ := n.Call(ctx, "random")
		if want := NewGenerator(DefaultSeed).Next(); got != want {
			t.Errorf("random() = %v, want %v", got, want)
		}
	})

	if len(n.Names()) != 45 {
		t.Errorf("Names() has %d ops", len(n.Names()))
	}
}
