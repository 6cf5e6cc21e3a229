package approx

import "sync/atomic"

// LCG parameters.
const (
	LCGMultiplier = 1103515245
	LCGIncrement  = 12345
	LCGMask       = 0x7FFFFFFF
	DefaultSeed   = 12345
)

// Step advances an LCG state by one.
func Step(state int64) int64 {
	return (state*LCGMultiplier + LCGIncrement) & LCGMask
}

// Unit maps an LCG state onto [0, 1]. The state LCGMask itself maps to
// exactly 1.
func Unit(state int64) float64 {
	return float64(uint64(state)) / LCGMask
}

// Generator is a linear congruential generator with an owned seed. It is
// safe for concurrent use; concurrent callers observe a single interleaved
// sequence. Not suitable where unpredictability matters.
type Generator struct {
	state atomic.Int64
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	g := &Generator{}
	g.state.Store(seed)
	return g
}

// SetSeed replaces the state unconditionally.
func (g *Generator) SetSeed(seed int64) {
	g.state.Store(seed)
}

// State returns the current state.
func (g *Generator) State() int64 {
	return g.state.Load()
}

// Next advances the state and returns it scaled into [0, 1].
func (g *Generator) Next() float64 {
	for {
		old := g.state.Load()
		next := Step(old)
		if g.state.CompareAndSwap(old, next) {
			return Unit(next)
		}
	}
}

// Range returns Next()·(max-min) + min.
func (g *Generator) Range(min, max float64) float64 {
	r := g.Next()
	return float64(r*(max-min)) + min
}
