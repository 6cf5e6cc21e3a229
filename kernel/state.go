package kernel

// State is the kernel's availability.
//
//	Uninitialized -> Compiling -> ReadyFull | ReadyFallback | Failed
//
// Ready and Failed are terminal.
type State int32

const (
	StateUninitialized State = iota
	StateCompiling
	StateReadyFull
	StateReadyFallback
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCompiling:
		return "compiling"
	case StateReadyFull:
		return "ready-full"
	case StateReadyFallback:
		return "ready-fallback"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ready reports whether calls can be served.
func (s State) Ready() bool {
	return s == StateReadyFull || s == StateReadyFallback
}
