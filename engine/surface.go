package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/opset"
)

// Func is an exported operation bound to its op definition.
type Func struct {
	fn api.Function
	op opset.Op
}

// Op returns the operation definition the export was checked against.
func (f *Func) Op() opset.Op { return f.op }

// Surface is the callable view of one instantiated module. Calls are
// serialized: the module's mutable state (the random seed) has a single
// owner at a time.
type Surface struct {
	module  api.Module
	memory  *Memory
	funcs   map[string]*Func
	names   []string
	stack   []uint64
	variant Variant
	mu      sync.Mutex
	closed  bool
}

// Variant reports which module the surface was loaded from.
func (s *Surface) Variant() Variant { return s.variant }

// Has reports whether name is callable on this surface.
func (s *Surface) Has(name string) bool {
	_, ok := s.funcs[name]
	return ok
}

// Names lists the callable ops in op-set order.
func (s *Surface) Names() []string {
	return append([]string(nil), s.names...)
}

// Func returns the bound export for name.
func (s *Surface) Func(name string) (*Func, bool) {
	f, ok := s.funcs[name]
	return f, ok
}

// Memory returns the exported linear memory, or nil if there is none.
func (s *Surface) Memory() *Memory { return s.memory }

// Call invokes an op. Arguments are converted by the op's WIT parameter
// types; results come back as float64, int32, int64, bool, or nil for ops
// without a result. A trap inside the module is returned as a KindTrap error.
func (s *Surface) Call(ctx context.Context, name string, args ...any) (any, error) {
	f, ok := s.funcs[name]
	if !ok {
		return nil, errors.Unavailable(name)
	}
	vals, err := opset.ConvertArgs(&f.op, args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.PhaseRuntime, errors.KindUnavailable).
			Path(name).Detail("surface closed").Build()
	}

	stack := s.stack
	for i, v := range vals {
		stack[i] = lower(f.op.Params[i].Type, v)
	}
	if err := f.fn.CallWithStack(ctx, stack); err != nil {
		return nil, errors.Trap(name, err)
	}
	if f.op.Result == nil {
		return nil, nil
	}
	return lift(f.op.Result, stack[0]), nil
}

// Close releases the module instance.
func (s *Surface) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.module.Close(ctx)
}

// lower encodes a converted argument for the wasm stack.
func lower(t wit.Type, v any) uint64 {
	switch t.(type) {
	case wit.F64:
		return api.EncodeF64(v.(float64))
	case wit.S32:
		return api.EncodeI32(v.(int32))
	case wit.S64:
		return api.EncodeI64(v.(int64))
	case wit.Bool:
		if v.(bool) {
			return 1
		}
		return 0
	}
	return 0
}

// lift decodes a result from the wasm stack.
func lift(t wit.Type, v uint64) any {
	switch t.(type) {
	case wit.F64:
		return api.DecodeF64(v)
	case wit.S32:
		return api.DecodeI32(v)
	case wit.S64:
		return int64(v)
	case wit.Bool:
		return uint32(v) != 0
	}
	return v
}
