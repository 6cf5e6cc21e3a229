package toolchain

import (
	"context"
	stderrors "errors"
	"os/exec"
	"testing"

	"github.com/wippyai/mathkernel/assemble"
	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/opset"
)

const addWAT = `(module
	(func (export "add") (param f64 f64) (result f64)
		(f64.add (local.get 0) (local.get 1))))`

type fakeToolchain struct {
	out []byte
	err error
}

func (f fakeToolchain) Name() string { return "fake" }

func (f fakeToolchain) Compile(context.Context, string, string) ([]byte, error) {
	return f.out, f.err
}

type fakeProvider struct {
	tc  Toolchain
	err error
}

func (f fakeProvider) Acquire(context.Context) (Toolchain, error) {
	return f.tc, f.err
}

func isPhase(err error, phase errors.Phase, kind errors.Kind) bool {
	return stderrors.Is(err, &errors.Error{Phase: phase, Kind: kind})
}

func TestBuildBuiltin(t *testing.T) {
	ctx := context.Background()

	art, err := Build(ctx, Builtin{}, addWAT)
	if err != nil {
		t.Fatal(err)
	}
	if art.Toolchain != NameBuiltin {
		t.Errorf("toolchain = %q", art.Toolchain)
	}
	if _, ok := art.Module.ExportedFunc("add"); !ok {
		t.Error("add not exported")
	}

	src, err := assemble.WAT(opset.All())
	if err != nil {
		t.Fatal(err)
	}
	full, err := Build(ctx, Builtin{}, src)
	if err != nil {
		t.Fatalf("full module: %v", err)
	}
	if got := len(full.Module.FuncExports()); got != len(opset.Names()) {
		t.Errorf("full module exports %d funcs", got)
	}
}

func TestBuildFailures(t *testing.T) {
	// f64.add applied to an i32 operand decodes fine but fails validation
	badTypes := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7c,
		0x03, 0x02, 0x01, 0x00,
		0x0a, 0x10, 0x01, 0x0e, 0x00, 0x41, 0x01, 0x44, 0, 0, 0, 0, 0, 0, 0xf0, 0x3f, 0xa0, 0x0b,
	}

	tests := []struct {
		name     string
		provider Provider
		src      string
		phase    errors.Phase
		kind     errors.Kind
	}{
		{"unavailable", Unavailable{}, addWAT, errors.PhaseCompile, errors.KindUnavailable},
		{"acquire_plain_error", fakeProvider{err: stderrors.New("boom")}, addWAT, errors.PhaseCompile, errors.KindUnavailable},
		{"syntax", Builtin{}, "(module (func (bogus)))", errors.PhaseCompile, errors.KindInvalidData},
		{"compiler_error", fakeProvider{tc: fakeToolchain{err: stderrors.New("crashed")}}, addWAT, errors.PhaseCompile, errors.KindInvalidData},
		{"garbage_output", fakeProvider{tc: fakeToolchain{out: []byte("not wasm")}}, addWAT, errors.PhaseDecode, errors.KindInvalidData},
		{"invalid_output", fakeProvider{tc: fakeToolchain{out: badTypes}}, addWAT, errors.PhaseValidate, errors.KindInvalidData},
		{"missing_executable", &External{Path: "/nonexistent/wat2wasm"}, addWAT, errors.PhaseCompile, errors.KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.provider, tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !isPhase(err, tt.phase, tt.kind) {
				t.Errorf("got %v, want %s/%s", err, tt.phase, tt.kind)
			}
		})
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	tc, err := Chain{Unavailable{Reason: "first"}, Builtin{}}.Acquire(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tc.Name() != NameBuiltin {
		t.Errorf("got %s", tc.Name())
	}

	_, err = Chain{Unavailable{Reason: "a"}, Unavailable{Reason: "b"}}.Acquire(ctx)
	if !isPhase(err, errors.PhaseCompile, errors.KindUnavailable) {
		t.Fatalf("got %v", err)
	}

	_, err = Chain{}.Acquire(ctx)
	if err == nil {
		t.Error("empty chain should fail")
	}
}

func TestFromName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{NameBuiltin, false},
		{NameExternal, false},
		{NameAuto, false},
		{NameNone, false},
		{"emscripten", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromName(tt.name, "")
			if tt.wantErr {
				if !isPhase(err, errors.PhaseConfig, errors.KindInvalidInput) {
					t.Errorf("got %v", err)
				}
				return
			}
			if err != nil || p == nil {
				t.Fatalf("FromName(%q) = %v, %v", tt.name, p, err)
			}
		})
	}

	p, _ := FromName(NameAuto, "/nonexistent/wat2wasm")
	if _, err := Build(context.Background(), p, addWAT); err != nil {
		t.Errorf("auto should fall through to builtin: %v", err)
	}
}

func TestExternal(t *testing.T) {
	if _, err := exec.LookPath(DefaultExecutable); err != nil {
		t.Skip("wat2wasm not on PATH")
	}
	art, err := Build(context.Background(), &External{}, addWAT)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := art.Module.ExportedFunc("add"); !ok {
		t.Error("add not exported")
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, Builtin{}, addWAT); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"mathkernel.wat": "mathkernel",
		"a b/c":          "a_b_c",
		"":               "module",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
