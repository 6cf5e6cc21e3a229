package approx

import "math"

// Constants shared with the assembled module. Changing any of them changes
// the results of both renditions.
const (
	Pi       = 3.141592653589793
	TwoPi    = 6.283185307179586
	DegToRad = 0.017453292519943295
	RadToDeg = 57.29577951308232
	Ln10     = 2.302585092994046

	// MaxAngle bounds the inputs Normalize will reduce. At 2^53 and above
	// subtracting 2π no longer reliably changes the value.
	MaxAngle = 9007199254740992.0

	// MaxFactorial is the largest n whose factorial is finite in float64.
	MaxFactorial = 170

	// Series lengths.
	SinTerms = 6
	CosTerms = 6
	LnTerms  = 10
	ExpTerms = 20
)

// Recurrence divisors: term_k = term_{k-1} * x² / d_k.
var (
	sinDivisors = [SinTerms - 1]float64{-6, -20, -42, -72, -110}
	cosDivisors = [CosTerms - 1]float64{-2, -12, -30, -56, -90}
)

// Normalize reduces x into [-π, π] by repeated subtraction then addition
// of 2π. Cost grows linearly with |x|. NaN, ±Inf and |x| >= MaxAngle
// yield NaN.
func Normalize(x float64) float64 {
	if math.IsNaN(x) || math.Abs(x) >= MaxAngle {
		return math.NaN()
	}
	for x > Pi {
		x -= TwoPi
	}
	for x < -Pi {
		x += TwoPi
	}
	return x
}

// Sin evaluates six Taylor terms (through x¹¹/11!) around the normalized
// angle. Error grows toward |x| ≈ π, reaching a few 1e-4 there; fine for
// animation, not for science.
func Sin(x float64) float64 {
	n := Normalize(x)
	x2 := n * n
	term, result := n, n
	for _, d := range sinDivisors {
		term = term * x2 / d
		result += term
	}
	return result
}

// Cos evaluates six Taylor terms (through x¹⁰/10!) around the normalized angle.
func Cos(x float64) float64 {
	n := Normalize(x)
	x2 := n * n
	term, result := 1.0, 1.0
	for _, d := range cosDivisors {
		term = term * x2 / d
		result += term
	}
	return result
}

// Tan is Sin/Cos and inherits both errors. A zero cosine yields ±Inf or NaN.
func Tan(x float64) float64 {
	return Sin(x) / Cos(x)
}

// Ln uses ln(x) = 2·atanh((x-1)/(x+1)) with ten series terms. x <= 0
// yields NaN. Accuracy degrades as x moves away from 1.
func Ln(x float64) float64 {
	if x <= 0 {
		return math.NaN()
	}
	y := (x - 1) / (x + 1)
	y2 := y * y
	result, term := y, y
	for n := int32(1); n < LnTerms; n++ {
		term *= y2
		result += term / float64(2*n+1)
	}
	return result * 2
}

// Log10 is Ln(x)/ln(10).
func Log10(x float64) float64 {
	return Ln(x) / Ln10
}

// Exp sums twenty Taylor terms around 0 without range reduction, so large
// |x| loses precision or overflows.
func Exp(x float64) float64 {
	result, term := 1.0, 1.0
	for n := int32(1); n < ExpTerms; n++ {
		term = term * x / float64(n)
		result += term
	}
	return result
}

// Pow computes Exp(y·Ln(x)). y == 0 gives 1 (including 0⁰), x == 0 gives 0.
// Negative x propagates NaN from Ln.
func Pow(x, y float64) float64 {
	if y == 0 {
		return 1
	}
	if x == 0 {
		return 0
	}
	return Exp(y * Ln(x))
}

// Factorial is the float64 product 1·2···n. n < 0 yields NaN. Results are
// inexact once the product exceeds 2^53 and +Inf past MaxFactorial.
func Factorial(n int32) float64 {
	if n < 0 {
		return math.NaN()
	}
	if n == 0 {
		return 1
	}
	if n > MaxFactorial {
		return math.Inf(1)
	}
	result := 1.0
	for i := int32(1); i <= n; i++ {
		result *= float64(i)
	}
	return result
}

// Quotient is floor(a/b).
func Quotient(a, b float64) float64 {
	return math.Floor(a / b)
}

// Mod is the floored modulo a - b·floor(a/b); the sign follows b.
func Mod(a, b float64) float64 {
	q := math.Floor(a / b)
	return a - float64(b*q)
}

// Min returns the smaller of a and b. Unlike math.Min, a NaN operand always
// yields NaN, so Min(NaN, -Inf) is NaN. -0 is smaller than +0.
func Min(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return math.Min(a, b)
}

// Max returns the larger of a and b with the NaN rule of Min.
func Max(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return math.Max(a, b)
}

// Clamp applies Max(v, lo) then Min(that, hi). The bounds are not
// reordered: Clamp(5, 10, 1) == 1.
func Clamp(v, lo, hi float64) float64 {
	return Min(Max(v, lo), hi)
}

// Lerp interpolates a·(1-t) + b·t without clamping t.
func Lerp(a, b, t float64) float64 {
	return float64(a*(1-t)) + float64(b*t)
}

// Distance is the Euclidean distance between (x1, y1) and (x2, y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(float64(dx*dx) + float64(dy*dy))
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * DegToRad
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return rad * RadToDeg
}

// MoveX advances x by dist along a heading given in degrees.
func MoveX(x, angleDeg, dist float64) float64 {
	return x + float64(dist*Cos(float64(angleDeg*DegToRad)))
}

// MoveY advances y by dist along a heading given in degrees.
func MoveY(y, angleDeg, dist float64) float64 {
	return y + float64(dist*Sin(float64(angleDeg*DegToRad)))
}
