package toolchain

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/wat"
)

// Toolchain compiles WAT text to a wasm binary.
type Toolchain interface {
	Name() string
	Compile(ctx context.Context, name, src string) ([]byte, error)
}

// Provider acquires a toolchain. Acquisition may block (locating or
// starting an external compiler) and is the only suspension point of the
// build.
type Provider interface {
	Acquire(ctx context.Context) (Toolchain, error)
}

// Provider names accepted by FromName.
const (
	NameBuiltin  = "builtin"
	NameExternal = "external"
	NameAuto     = "auto"
	NameNone     = "none"
)

// FromName returns the provider for a configuration name. path applies to
// the external compiler; empty means look up wat2wasm on PATH.
func FromName(name, path string) (Provider, error) {
	switch name {
	case NameBuiltin, "":
		return Builtin{}, nil
	case NameExternal:
		return &External{Path: path}, nil
	case NameAuto:
		return Chain{&External{Path: path}, Builtin{}}, nil
	case NameNone:
		return Unavailable{Reason: "disabled by configuration"}, nil
	default:
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("toolchain").Value(name).
			Detail("unknown toolchain %q (want %s, %s, %s or %s)", name, NameBuiltin, NameExternal, NameAuto, NameNone).
			Build()
	}
}

// Builtin provides the in-tree WAT compiler. Acquisition never fails.
type Builtin struct{}

// Acquire returns the builtin toolchain.
func (Builtin) Acquire(context.Context) (Toolchain, error) {
	return builtinToolchain{}, nil
}

type builtinToolchain struct{}

func (builtinToolchain) Name() string { return NameBuiltin }

func (builtinToolchain) Compile(ctx context.Context, name, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mod, err := wat.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return mod.Encode(), nil
}

// DefaultExecutable is the compiler External looks up on PATH.
const DefaultExecutable = "wat2wasm"

// External runs a wabt-compatible wat2wasm executable.
type External struct {
	// Path to the executable. Empty means DefaultExecutable on PATH.
	Path string
	// Timeout bounds a single compilation. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Acquire resolves the executable.
func (e *External) Acquire(ctx context.Context) (Toolchain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exe := e.Path
	if exe == "" {
		exe = DefaultExecutable
	}
	resolved, err := exec.LookPath(exe)
	if err != nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnavailable).
			Path(NameExternal).Cause(err).Detail("locate %s", exe).Build()
	}
	return &externalToolchain{path: resolved, timeout: e.Timeout}, nil
}

type externalToolchain struct {
	path    string
	timeout time.Duration
}

func (t *externalToolchain) Name() string { return NameExternal + ":" + t.path }

func (t *externalToolchain) Compile(ctx context.Context, name, src string) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "mathkernel-wat-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, sanitize(name)+".wat")
	out := filepath.Join(dir, sanitize(name)+".wasm")
	if err := os.WriteFile(in, []byte(src), 0o600); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, t.path, in, "-o", out)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", filepath.Base(t.path), err, msg)
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(t.path), err)
	}
	return os.ReadFile(out)
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSuffix(name, ".wat"))
	if name == "" {
		return "module"
	}
	return name
}

// Chain acquires from the first provider that succeeds.
type Chain []Provider

// Acquire tries each provider in order and joins the failures.
func (c Chain) Acquire(ctx context.Context) (Toolchain, error) {
	var errs []error
	for _, p := range c {
		tc, err := p.Acquire(ctx)
		if err == nil {
			return tc, nil
		}
		Logger().Debug("toolchain provider failed", zap.Error(err))
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.New(errors.PhaseCompile, errors.KindUnavailable).
		Cause(stderrors.Join(errs...)).Detail("no toolchain available").Build()
}

// Unavailable never yields a toolchain. It forces the fallback path.
type Unavailable struct {
	Reason string
}

// Acquire always fails.
func (u Unavailable) Acquire(context.Context) (Toolchain, error) {
	reason := u.Reason
	if reason == "" {
		reason = "no toolchain"
	}
	return nil, errors.New(errors.PhaseCompile, errors.KindUnavailable).
		Detail("%s", reason).Build()
}
