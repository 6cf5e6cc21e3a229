package toolchain

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/wasm"
)

// SourceName is the file name the kernel module is compiled under.
const SourceName = "mathkernel.wat"

// Artifact is a compiled and validated module.
type Artifact struct {
	Module    *wasm.Module
	Toolchain string
	Bytes     []byte
	Elapsed   time.Duration
}

// Build acquires a toolchain from p, compiles src, then decodes and
// validates the output. Every failure is an *errors.Error whose Phase names
// the step that failed: compile for acquisition and compilation, decode for
// malformed output, validate for type errors.
func Build(ctx context.Context, p Provider, src string) (*Artifact, error) {
	start := time.Now()

	tc, err := p.Acquire(ctx)
	if err != nil {
		return nil, asError(errors.PhaseCompile, errors.KindUnavailable, err, "acquire toolchain")
	}
	Logger().Debug("toolchain acquired", zap.String("toolchain", tc.Name()))

	bin, err := tc.Compile(ctx, SourceName, src)
	if err != nil {
		return nil, asError(errors.PhaseCompile, errors.KindInvalidData, err, "compile with "+tc.Name())
	}

	mod, err := wasm.ParseModule(bin)
	if err != nil {
		return nil, asError(errors.PhaseDecode, errors.KindInvalidData, err, "decode compiler output")
	}
	if err := mod.Validate(); err != nil {
		return nil, asError(errors.PhaseValidate, errors.KindInvalidData, err, "validate compiler output")
	}

	a := &Artifact{
		Module:    mod,
		Toolchain: tc.Name(),
		Bytes:     bin,
		Elapsed:   time.Since(start),
	}
	Logger().Info("module built",
		zap.String("toolchain", a.Toolchain),
		zap.Int("bytes", len(bin)),
		zap.Int("functions", len(mod.Funcs)),
		zap.Duration("elapsed", a.Elapsed))
	return a, nil
}

// asError keeps structured errors from providers and wraps everything else.
func asError(phase errors.Phase, kind errors.Kind, err error, detail string) *errors.Error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Phase == phase {
		return e
	}
	return errors.Wrap(phase, kind, err, detail)
}
