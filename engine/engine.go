package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/opset"
)

// Variant identifies which module a surface was loaded from.
type Variant int

const (
	VariantNone Variant = iota
	VariantFull
	VariantFallback
)

func (v Variant) String() string {
	switch v {
	case VariantFull:
		return "full"
	case VariantFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Binary is a module ready to load.
type Binary struct {
	Bytes   []byte
	Variant Variant
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages caps linear memory per instance in 64KiB pages.
	// 0 means the wazero default (65536 pages).
	MemoryLimitPages uint32

	// Interpreter selects the wazero interpreter instead of the compiler.
	Interpreter bool

	// CloseOnContextDone aborts running calls when their context is done.
	CloseOnContextDone bool
}

// Engine wraps a wazero runtime. Closing it closes every surface it loaded.
type Engine struct {
	runtime wazero.Runtime
}

// New creates an engine. A nil cfg uses defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	var runtimeCfg wazero.RuntimeConfig
	if cfg != nil && cfg.Interpreter {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	} else {
		runtimeCfg = wazero.NewRuntimeConfig()
	}

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}, nil
}

// Load compiles and instantiates bin and binds every op in ops that the
// module exports. Exports outside ops are ignored; ops the module lacks are
// absent from the surface. An export whose signature disagrees with its op
// fails the load.
func (e *Engine) Load(ctx context.Context, bin Binary, ops []opset.Op) (*Surface, error) {
	if len(bin.Bytes) == 0 {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{bin.Variant.String()}, "empty module")
	}
	compiled, err := e.runtime.CompileModule(ctx, bin.Bytes)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("compile %s module", bin.Variant), err)
	}

	// Anonymous, so full and fallback modules can coexist in one runtime.
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	s := &Surface{
		module:  mod,
		funcs:   make(map[string]*Func, len(ops)),
		variant: bin.Variant,
	}
	if m := mod.Memory(); m != nil {
		s.memory = &Memory{mem: m}
	}

	stackSize := 1
	for i := range ops {
		op := ops[i]
		fn := mod.ExportedFunction(op.Name)
		if fn == nil {
			continue
		}
		if err := checkSignature(&op, fn.Definition()); err != nil {
			_ = mod.Close(ctx)
			return nil, err
		}
		s.funcs[op.Name] = &Func{op: op, fn: fn}
		s.names = append(s.names, op.Name)
		stackSize = max(stackSize, len(op.Params))
	}
	s.stack = make([]uint64, stackSize)

	Logger().Info("module loaded",
		zap.Stringer("variant", bin.Variant),
		zap.Int("bytes", len(bin.Bytes)),
		zap.Int("ops", len(s.names)))
	return s, nil
}

// Close releases the runtime and every module it instantiated.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func checkSignature(op *opset.Op, def api.FunctionDefinition) error {
	params, err := opset.LowerAll(op.ParamTypes())
	if err != nil {
		return err
	}
	var results []wit.Type
	if op.Result != nil {
		results = []wit.Type{op.Result}
	}
	lowered, err := opset.LowerAll(results)
	if err != nil {
		return err
	}

	if !sameTypes(def.ParamTypes(), params) || !sameTypes(def.ResultTypes(), lowered) {
		return errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
			Path(op.Name).
			WitType(op.Signature()).
			Detail("export has params %v results %v", typeNames(def.ParamTypes()), typeNames(def.ResultTypes())).
			Build()
	}
	return nil
}

func sameTypes[T ~byte](got []api.ValueType, want []T) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != api.ValueType(want[i]) {
			return false
		}
	}
	return true
}

func typeNames(types []api.ValueType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return names
}
