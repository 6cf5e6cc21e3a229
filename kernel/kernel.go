package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/mathkernel/assemble"
	"github.com/wippyai/mathkernel/engine"
	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/fallback"
	"github.com/wippyai/mathkernel/opset"
	"github.com/wippyai/mathkernel/toolchain"
)

// Config holds configuration for kernel creation
type Config struct {
	// Toolchain compiles the full module. Nil means toolchain.Builtin.
	Toolchain toolchain.Provider

	// Ops is the operation set. Nil means opset.All().
	Ops []opset.Op

	// Fallback is the reduced module loaded when the full module cannot be
	// built. Nil means fallback.Binary().
	Fallback []byte

	// Seed, when set, replaces the default random seed after loading.
	Seed *int64

	Engine engine.Config
}

// DefaultConfig returns the configuration used by New(nil).
func DefaultConfig() Config {
	return Config{
		Toolchain: toolchain.Builtin{},
		Engine: engine.Config{
			MemoryLimitPages:   1,
			CloseOnContextDone: true,
		},
	}
}

// Info summarizes an initialized kernel.
type Info struct {
	ID        string
	Toolchain string
	State     State
	Variant   engine.Variant
	InitTime  time.Duration
	Ops       int
}

// Kernel owns one execution surface and its lifecycle. It is safe for
// concurrent use; Init runs the build pipeline once and every caller
// observes the same outcome.
type Kernel struct {
	err       error
	failErr   error // set before StateFailed is published
	engine    *engine.Engine
	surface   *engine.Surface
	stats     *statsTable
	log       *zap.Logger
	source    assemble.Source
	toolchain string
	cfg       Config
	id        string
	initTime  time.Duration
	once      sync.Once
	state     atomic.Int32
}

// New creates an uninitialized kernel. A nil cfg uses DefaultConfig.
func New(cfg *Config) *Kernel {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.Toolchain == nil {
		c.Toolchain = toolchain.Builtin{}
	}
	if c.Ops == nil {
		c.Ops = opset.All()
	}
	if c.Fallback == nil {
		c.Fallback = fallback.Binary()
	}

	id := uuid.New().String()
	return &Kernel{
		cfg:   c,
		id:    id,
		stats: newStatsTable(),
		log:   Logger().With(zap.String("kernel", id)),
	}
}

// ID returns the kernel's instance identifier.
func (k *Kernel) ID() string { return k.id }

// State returns the current lifecycle state.
func (k *Kernel) State() State { return State(k.state.Load()) }

// Init builds and loads the full module, degrading to the fallback module
// when any compiler step fails. It returns ErrKernelUnavailable only when
// neither module could be loaded. Later calls return the first outcome.
func (k *Kernel) Init(ctx context.Context) error {
	k.once.Do(func() {
		k.err = k.initialize(ctx)
	})
	return k.err
}

func (k *Kernel) initialize(ctx context.Context) error {
	start := time.Now()
	k.state.Store(int32(StateCompiling))
	k.log.Info("kernel initializing", zap.Int("ops", len(k.cfg.Ops)))

	eng, err := engine.New(ctx, &k.cfg.Engine)
	if err != nil {
		return k.fail(err)
	}
	k.engine = eng

	surface, err := k.loadFull(ctx)
	next := StateReadyFull
	if err != nil {
		k.log.Warn("full module unavailable, loading fallback", zap.Error(err))
		surface, err = eng.Load(ctx, engine.Binary{Bytes: k.cfg.Fallback, Variant: engine.VariantFallback}, k.cfg.Ops)
		if err != nil {
			_ = eng.Close(ctx)
			k.engine = nil
			return k.fail(err)
		}
		next = StateReadyFallback
	}
	k.surface = surface

	if k.cfg.Seed != nil && surface.Has("set_random_seed") {
		if _, err := surface.Call(ctx, "set_random_seed", *k.cfg.Seed); err != nil {
			k.log.Warn("seed not applied", zap.Error(err))
		}
	}

	k.initTime = time.Since(start)
	k.state.Store(int32(next))
	k.log.Info("kernel ready",
		zap.Stringer("state", next),
		zap.String("toolchain", k.toolchain),
		zap.Int("ops", len(surface.Names())),
		zap.Duration("elapsed", k.initTime))
	return nil
}

func (k *Kernel) loadFull(ctx context.Context) (*engine.Surface, error) {
	src, err := assemble.Build(k.cfg.Ops)
	if err != nil {
		return nil, err
	}
	k.source = src

	art, err := toolchain.Build(ctx, k.cfg.Toolchain, src.WAT)
	if err != nil {
		return nil, err
	}
	k.toolchain = art.Toolchain

	return k.engine.Load(ctx, engine.Binary{Bytes: art.Bytes, Variant: engine.VariantFull}, k.cfg.Ops)
}

func (k *Kernel) fail(cause error) error {
	k.failErr = errors.KernelUnavailable(cause)
	k.state.Store(int32(StateFailed))
	k.log.Error("kernel unavailable", zap.Error(cause))
	return k.failErr
}

// Call invokes an operation on the active surface and records its timing.
func (k *Kernel) Call(ctx context.Context, name string, args ...any) (any, error) {
	switch s := k.State(); {
	case s == StateFailed:
		return nil, k.failErr
	case !s.Ready():
		return nil, errors.NotInitialized(errors.PhaseRuntime, "kernel")
	}

	start := time.Now()
	v, err := k.surface.Call(ctx, name, args...)
	k.stats.record(name, time.Since(start), err != nil)
	return v, err
}

// Has reports whether name is callable now.
func (k *Kernel) Has(name string) bool {
	if !k.State().Ready() {
		return false
	}
	return k.surface.Has(name)
}

// Names lists the callable operations in op-set order.
func (k *Kernel) Names() []string {
	if !k.State().Ready() {
		return nil
	}
	return k.surface.Names()
}

// Signature returns the WIT signature of a callable operation.
func (k *Kernel) Signature(name string) (string, bool) {
	if !k.Has(name) {
		return "", false
	}
	f, _ := k.surface.Func(name)
	op := f.Op()
	return op.Signature(), true
}

// Variant reports which module is loaded.
func (k *Kernel) Variant() engine.Variant {
	if !k.State().Ready() {
		return engine.VariantNone
	}
	return k.surface.Variant()
}

// Source returns the assembled module text. Empty until Init finishes.
func (k *Kernel) Source() assemble.Source {
	if s := k.State(); !s.Ready() && s != StateFailed {
		return assemble.Source{}
	}
	return k.source
}

// Surface exposes the loaded surface, or nil when not ready.
func (k *Kernel) Surface() *engine.Surface {
	if !k.State().Ready() {
		return nil
	}
	return k.surface
}

// Stats returns per-operation call records sorted by name.
func (k *Kernel) Stats() []OpStats {
	return k.stats.snapshot()
}

// ResetStats clears the call records.
func (k *Kernel) ResetStats() {
	k.stats.reset()
}

// Info summarizes the kernel.
func (k *Kernel) Info() Info {
	state := k.State()
	info := Info{ID: k.id, State: state, Variant: engine.VariantNone}
	if state.Ready() {
		info.Toolchain = k.toolchain
		info.Variant = k.surface.Variant()
		info.InitTime = k.initTime
		info.Ops = len(k.surface.Names())
	}
	return info
}

// Close releases the sandbox. The kernel must not be used afterwards.
func (k *Kernel) Close(ctx context.Context) error {
	if !k.State().Ready() || k.engine == nil {
		return nil
	}
	k.log.Info("kernel closing", zap.Int("ops_called", len(k.stats.snapshot())))
	return k.engine.Close(ctx)
}
