package opset

import (
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"
)

var (
	f64     wit.Type = wit.F64{}
	s32     wit.Type = wit.S32{}
	s64     wit.Type = wit.S64{}
	boolean wit.Type = wit.Bool{}
)

func params(t wit.Type, names ...string) []Param {
	out := make([]Param, len(names))
	for i, n := range names {
		out[i] = Param{Name: n, Type: t}
	}
	return out
}

func binary(name, instr, doc string, fallback bool) Op {
	return Op{
		Name:     name,
		Params:   params(f64, "a", "b"),
		Result:   f64,
		Body:     "(" + instr + " (local.get $a) (local.get $b))",
		Doc:      doc,
		Fallback: fallback,
	}
}

func unary(name, instr, doc string, fallback bool) Op {
	return Op{
		Name:     name,
		Params:   params(f64, "x"),
		Result:   f64,
		Body:     "(" + instr + " (local.get $x))",
		Doc:      doc,
		Fallback: fallback,
	}
}

func integer(name, instr, doc string) Op {
	return Op{
		Name:   name,
		Params: params(s32, "a", "b"),
		Result: s32,
		Body:   "(" + instr + " (local.get $a) (local.get $b))",
		Doc:    doc,
	}
}

func compare(name, instr, doc string) Op {
	return Op{
		Name:   name,
		Params: params(f64, "a", "b"),
		Result: boolean,
		Body:   "(" + instr + " (local.get $a) (local.get $b))",
		Doc:    doc,
	}
}

// taylor unrolls term = term*x2/d; result += term for each divisor.
func taylor(divisors ...float64) string {
	var b strings.Builder
	for _, d := range divisors {
		b.WriteString("(local.set $term (f64.div (f64.mul (local.get $term) (local.get $x2)) (f64.const ")
		b.WriteString(strconv.FormatFloat(d, 'g', -1, 64))
		b.WriteString(")))\n")
		b.WriteString("(local.set $result (f64.add (local.get $result) (local.get $term)))\n")
	}
	return b.String()
}

// Helper functions emitted ahead of the ops. Not exported.
const normalizeAngle = `(func $normalize_angle (param $x f64) (result f64)
    (if (i32.or
          (f64.ne (local.get $x) (local.get $x))
          (f64.ge (f64.abs (local.get $x)) (f64.const 9007199254740992)))
      (then (return (f64.const nan))))
    (block $reduced_high
      (loop $sub
        (br_if $reduced_high (f64.le (local.get $x) (global.get $PI)))
        (local.set $x (f64.sub (local.get $x) (global.get $TWO_PI)))
        (br $sub)))
    (block $reduced_low
      (loop $add
        (br_if $reduced_low (f64.ge (local.get $x) (f64.neg (global.get $PI))))
        (local.set $x (f64.add (local.get $x) (global.get $TWO_PI)))
        (br $add)))
    (local.get $x))`

// Helpers returns the WAT of the internal functions the op bodies call.
func Helpers() []string {
	return []string{normalizeAngle}
}

// Global is a module-level global the op bodies reference by name.
type Global struct {
	Name    string
	Type    wit.Type
	Init    string // WAT constant expression
	Mutable bool
}

// Globals returns the module globals in declaration order.
func Globals() []Global {
	return []Global{
		{Name: "PI", Type: f64, Init: "(f64.const 3.141592653589793)"},
		{Name: "TWO_PI", Type: f64, Init: "(f64.const 6.283185307179586)"},
		{Name: "DEG_TO_RAD", Type: f64, Init: "(f64.const 0.017453292519943295)"},
		{Name: "RAD_TO_DEG", Type: f64, Init: "(f64.const 57.29577951308232)"},
		{Name: "random_seed", Type: s64, Init: "(i64.const 12345)", Mutable: true},
	}
}

// The fallback-compatible ops come first so the full module and the
// fallback share type numbering for them.
var ops = []Op{
	binary("add", "f64.add", "a + b", true),
	binary("sub", "f64.sub", "a - b", true),
	binary("mul", "f64.mul", "a * b", true),
	binary("div", "f64.div", "a / b; IEEE division, x/0 is ±Inf or NaN", true),
	unary("sqrt", "f64.sqrt", "square root; negative input yields NaN", true),
	unary("abs", "f64.abs", "absolute value", true),
	unary("floor", "f64.floor", "round toward -Inf", true),
	unary("ceil", "f64.ceil", "round toward +Inf", true),
	unary("trunc", "f64.trunc", "round toward zero", false),
	unary("round", "f64.nearest", "round half to even", true),
	binary("min", "f64.min", "smaller operand; NaN if either is NaN", true),
	binary("max", "f64.max", "larger operand; NaN if either is NaN", true),
	unary("neg", "f64.neg", "negation", false),
	binary("copysign", "f64.copysign", "magnitude of a with the sign of b", false),

	integer("add_i32", "i32.add", "wrapping 32-bit addition"),
	integer("sub_i32", "i32.sub", "wrapping 32-bit subtraction"),
	integer("mul_i32", "i32.mul", "wrapping 32-bit multiplication"),
	integer("div_i32", "i32.div_s", "signed division; traps on zero divisor and on overflow"),
	integer("mod_i32", "i32.rem_s", "signed remainder; traps on zero divisor"),

	{
		Name:   "deg_to_rad",
		Params: params(f64, "deg"),
		Result: f64,
		Body:   "(f64.mul (local.get $deg) (global.get $DEG_TO_RAD))",
		Doc:    "degrees to radians",
	},
	{
		Name:   "rad_to_deg",
		Params: params(f64, "rad"),
		Result: f64,
		Body:   "(f64.mul (local.get $rad) (global.get $RAD_TO_DEG))",
		Doc:    "radians to degrees",
	},
	{
		Name:   "sin",
		Params: params(f64, "x"),
		Result: f64,
		Locals: params(f64, "n", "x2", "term", "result"),
		Body: `(local.set $n (call $normalize_angle (local.get $x)))
(local.set $x2 (f64.mul (local.get $n) (local.get $n)))
(local.set $term (local.get $n))
(local.set $result (local.get $n))
` + taylor(-6, -20, -42, -72, -110) + `(local.get $result)`,
		Doc: "sine via six Taylor terms around the normalized angle; error up to a few 1e-4 near ±π",
	},
	{
		Name:   "cos",
		Params: params(f64, "x"),
		Result: f64,
		Locals: params(f64, "n", "x2", "term", "result"),
		Body: `(local.set $n (call $normalize_angle (local.get $x)))
(local.set $x2 (f64.mul (local.get $n) (local.get $n)))
(local.set $term (f64.const 1))
(local.set $result (f64.const 1))
` + taylor(-2, -12, -30, -56, -90) + `(local.get $result)`,
		Doc: "cosine via six Taylor terms around the normalized angle",
	},
	{
		Name:   "tan",
		Params: params(f64, "x"),
		Result: f64,
		Body:   "(f64.div (call $sin (local.get $x)) (call $cos (local.get $x)))",
		Doc:    "sin/cos; ±Inf or NaN where cos is zero",
	},
	{
		Name:   "ln",
		Params: params(f64, "x"),
		Result: f64,
		Locals: append(params(f64, "y", "y2", "term", "result"), Param{Name: "n", Type: s32}),
		Body: `(if (f64.le (local.get $x) (f64.const 0))
  (then (return (f64.const nan))))
(local.set $y (f64.div
  (f64.sub (local.get $x) (f64.const 1))
  (f64.add (local.get $x) (f64.const 1))))
(local.set $y2 (f64.mul (local.get $y) (local.get $y)))
(local.set $result (local.get $y))
(local.set $term (local.get $y))
(local.set $n (i32.const 1))
(block $done
  (loop $next
    (br_if $done (i32.ge_s (local.get $n) (i32.const 10)))
    (local.set $term (f64.mul (local.get $term) (local.get $y2)))
    (local.set $result (f64.add (local.get $result)
      (f64.div (local.get $term)
        (f64.convert_i32_s (i32.add (i32.mul (local.get $n) (i32.const 2)) (i32.const 1))))))
    (local.set $n (i32.add (local.get $n) (i32.const 1)))
    (br $next)))
(f64.mul (local.get $result) (f64.const 2))`,
		Doc: "natural log as 2·atanh((x-1)/(x+1)) with ten terms; x <= 0 yields NaN",
	},
	{
		Name:   "log10",
		Params: params(f64, "x"),
		Result: f64,
		Body:   "(f64.div (call $ln (local.get $x)) (f64.const 2.302585092994046))",
		Doc:    "ln(x)/ln(10)",
	},
	{
		Name:   "exp",
		Params: params(f64, "x"),
		Result: f64,
		Locals: append(params(f64, "term", "result"), Param{Name: "n", Type: s32}),
		Body: `(local.set $result (f64.const 1))
(local.set $term (f64.const 1))
(local.set $n (i32.const 1))
(block $done
  (loop $next
    (br_if $done (i32.ge_s (local.get $n) (i32.const 20)))
    (local.set $term (f64.div
      (f64.mul (local.get $term) (local.get $x))
      (f64.convert_i32_s (local.get $n))))
    (local.set $result (f64.add (local.get $result) (local.get $term)))
    (local.set $n (i32.add (local.get $n) (i32.const 1)))
    (br $next)))
(local.get $result)`,
		Doc: "e^x via twenty Taylor terms, no range reduction",
	},
	{
		Name:   "pow",
		Params: params(f64, "x", "y"),
		Result: f64,
		Body: `(if (f64.eq (local.get $y) (f64.const 0))
  (then (return (f64.const 1))))
(if (f64.eq (local.get $x) (f64.const 0))
  (then (return (f64.const 0))))
(call $exp (f64.mul (local.get $y) (call $ln (local.get $x))))`,
		Doc: "exp(y·ln x); y == 0 gives 1, x == 0 gives 0, negative x gives NaN",
	},
	{
		Name:   "factorial",
		Params: params(s32, "n"),
		Result: f64,
		Locals: []Param{{Name: "result", Type: f64}, {Name: "i", Type: s32}},
		Body: `(if (i32.lt_s (local.get $n) (i32.const 0))
  (then (return (f64.const nan))))
(if (i32.eqz (local.get $n))
  (then (return (f64.const 1))))
(if (i32.gt_s (local.get $n) (i32.const 170))
  (then (return (f64.const inf))))
(local.set $result (f64.const 1))
(local.set $i (i32.const 1))
(block $done
  (loop $next
    (br_if $done (i32.gt_s (local.get $i) (local.get $n)))
    (local.set $result (f64.mul (local.get $result) (f64.convert_i32_s (local.get $i))))
    (local.set $i (i32.add (local.get $i) (i32.const 1)))
    (br $next)))
(local.get $result)`,
		Doc: "float64 product 1·2···n; n < 0 yields NaN, n > 170 yields +Inf",
	},
	{
		Name:   "quotient",
		Params: params(f64, "a", "b"),
		Result: f64,
		Body:   "(f64.floor (f64.div (local.get $a) (local.get $b)))",
		Doc:    "floor(a/b)",
	},
	{
		Name:   "mod",
		Params: params(f64, "a", "b"),
		Result: f64,
		Body: `(f64.sub (local.get $a)
  (f64.mul (local.get $b) (f64.floor (f64.div (local.get $a) (local.get $b)))))`,
		Doc: "floored modulo; the sign follows b",
	},
	{
		Name:   "clamp",
		Params: params(f64, "value", "min", "max"),
		Result: f64,
		Body:   "(f64.min (f64.max (local.get $value) (local.get $min)) (local.get $max))",
		Doc:    "min(max(value, min), max); bounds are not reordered",
	},
	{
		Name:   "lerp",
		Params: params(f64, "a", "b", "t"),
		Result: f64,
		Body: `(f64.add
  (f64.mul (local.get $a) (f64.sub (f64.const 1) (local.get $t)))
  (f64.mul (local.get $b) (local.get $t)))`,
		Doc: "a·(1-t) + b·t; t is not clamped",
	},
	{
		Name:   "distance",
		Params: params(f64, "x1", "y1", "x2", "y2"),
		Result: f64,
		Locals: params(f64, "dx", "dy"),
		Body: `(local.set $dx (f64.sub (local.get $x1) (local.get $x2)))
(local.set $dy (f64.sub (local.get $y1) (local.get $y2)))
(f64.sqrt (f64.add
  (f64.mul (local.get $dx) (local.get $dx))
  (f64.mul (local.get $dy) (local.get $dy))))`,
		Doc: "Euclidean distance between two points",
	},
	{
		Name:   "move_x",
		Params: params(f64, "x", "angle", "distance"),
		Result: f64,
		Body: `(f64.add (local.get $x)
  (f64.mul (local.get $distance)
    (call $cos (f64.mul (local.get $angle) (global.get $DEG_TO_RAD)))))`,
		Doc: "x advanced by distance along a heading in degrees",
	},
	{
		Name:   "move_y",
		Params: params(f64, "y", "angle", "distance"),
		Result: f64,
		Body: `(f64.add (local.get $y)
  (f64.mul (local.get $distance)
    (call $sin (f64.mul (local.get $angle) (global.get $DEG_TO_RAD)))))`,
		Doc: "y advanced by distance along a heading in degrees",
	},

	compare("eq", "f64.eq", "a == b"),
	compare("ne", "f64.ne", "a != b; true when either is NaN"),
	compare("lt", "f64.lt", "a < b"),
	compare("le", "f64.le", "a <= b"),
	compare("gt", "f64.gt", "a > b"),
	compare("ge", "f64.ge", "a >= b"),

	{
		Name:   "set_random_seed",
		Params: params(s64, "seed"),
		Body:   "(global.set $random_seed (local.get $seed))",
		Doc:    "replace the generator state",
	},
	{
		Name:   "random",
		Result: f64,
		Body: `(global.set $random_seed
  (i64.and
    (i64.add (i64.mul (global.get $random_seed) (i64.const 1103515245)) (i64.const 12345))
    (i64.const 2147483647)))
(f64.div (f64.convert_i64_u (global.get $random_seed)) (f64.const 2147483647))`,
		Doc: "next LCG value scaled into [0, 1]; not cryptographically secure",
	},
	{
		Name:   "random_range",
		Params: params(f64, "min", "max"),
		Result: f64,
		Body: `(f64.add
  (f64.mul (call $random) (f64.sub (local.get $max) (local.get $min)))
  (local.get $min))`,
		Doc: "random()·(max-min) + min",
	},
}
