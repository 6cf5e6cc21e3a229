package assemble

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/opset"
	"github.com/wippyai/mathkernel/wasm"
	"github.com/wippyai/mathkernel/wat"
)

func TestDeterministic(t *testing.T) {
	a, err := Build(opset.All())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		b, err := Build(opset.All())
		if err != nil {
			t.Fatal(err)
		}
		if a != b {
			t.Fatal("assembled source differs between runs")
		}
	}

	binA, err := wat.Compile(a.WAT)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	binB, _ := wat.Compile(a.WAT)
	if string(binA) != string(binB) {
		t.Error("compiled bytes differ between runs")
	}
}

func TestFullModuleValidates(t *testing.T) {
	src, err := WAT(opset.All())
	if err != nil {
		t.Fatal(err)
	}
	bin, err := wat.Compile(src)
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, src)
	}
	mod, err := wasm.ParseModuleValidate(bin)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	exports := mod.FuncExports()
	if got, want := len(exports), len(opset.Names()); got != want {
		t.Fatalf("exported %d funcs, want %d", got, want)
	}

	for _, op := range opset.All() {
		t.Run(op.Name, func(t *testing.T) {
			idx, ok := mod.ExportedFunc(op.Name)
			if !ok {
				t.Fatal("not exported")
			}
			ft := mod.GetFuncType(idx)
			params, err := opset.LowerAll(op.ParamTypes())
			if err != nil {
				t.Fatal(err)
			}
			want := wasm.FuncType{Params: params}
			if op.Result != nil {
				rt, _ := opset.Lower(op.Result)
				want.Results = []wasm.ValType{rt}
			}
			if !ft.Equal(want) {
				t.Errorf("signature %s, want %s", ft, want)
			}
		})
	}

	var memory bool
	for _, e := range mod.Exports {
		if e.Name == "memory" && e.Kind == wasm.KindMemory {
			memory = true
		}
	}
	if !memory || len(mod.Memories) != 1 || mod.Memories[0].Limits.Min != MemoryPages {
		t.Error("missing exported memory")
	}
	if len(mod.Globals) != len(opset.Globals()) {
		t.Errorf("got %d globals", len(mod.Globals))
	}
}

func TestFallbackSubsetShape(t *testing.T) {
	bin, err := wat.Compile(mustWAT(t, opset.All()))
	if err != nil {
		t.Fatal(err)
	}
	mod, err := wasm.ParseModule(bin)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := mod.Subset(opset.FallbackNames())
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(sub.Globals) != 0 {
		t.Errorf("fallback kept %d globals", len(sub.Globals))
	}
	if len(sub.Types) != 2 {
		t.Errorf("fallback has %d types, want 2", len(sub.Types))
	}
	want := []uint32{0, 0, 0, 0, 1, 1, 1, 1, 1, 0, 0}
	if len(sub.Funcs) != len(want) {
		t.Fatalf("fallback has %d funcs", len(sub.Funcs))
	}
	for i := range want {
		if sub.Funcs[i] != want[i] {
			t.Errorf("func %d uses type %d, want %d", i, sub.Funcs[i], want[i])
		}
	}

	// transcendental ops pull in their helpers and globals
	trig, err := mod.Subset([]string{"tan"})
	if err != nil {
		t.Fatal(err)
	}
	if len(trig.Funcs) != 4 || len(trig.Globals) != 2 {
		t.Errorf("tan subset: %d funcs, %d globals", len(trig.Funcs), len(trig.Globals))
	}
}

func TestWIT(t *testing.T) {
	ops := []opset.Op{mustOp(t, "add"), mustOp(t, "factorial"), mustOp(t, "set_random_seed")}
	got, err := WIT(ops)
	if err != nil {
		t.Fatal(err)
	}
	want := `interface kernel {
  add: func(a: f64, b: f64) -> f64;
  factorial: func(n: s32) -> f64;
  set_random_seed: func(seed: s64);
}
`
	if got != want {
		t.Errorf("WIT =\n%s\nwant\n%s", got, want)
	}
}

func TestWATLayout(t *testing.T) {
	src := mustWAT(t, []opset.Op{mustOp(t, "add")})
	for _, frag := range []string{
		`(memory (export "memory") 1)`,
		`(global $random_seed (mut i64) (i64.const 12345))`,
		`(func $add (export "add") (param $a f64) (param $b f64) (result f64)`,
		`(func $normalize_angle`,
	} {
		if !strings.Contains(src, frag) {
			t.Errorf("missing %q in\n%s", frag, src)
		}
	}
	if strings.Index(src, "$add") > strings.Index(src, "$normalize_angle") {
		t.Error("ops must precede helpers")
	}
}

func TestCheckErrors(t *testing.T) {
	add := mustOp(t, "add")
	tests := []struct {
		name string
		ops  []opset.Op
		kind errors.Kind
	}{
		{"duplicate", []opset.Op{add, add}, errors.KindDuplicate},
		{"reserved_memory", []opset.Op{{Name: "memory", Body: "nop"}}, errors.KindDuplicate},
		{"bad_name", []opset.Op{{Name: "Add me", Body: "nop"}}, errors.KindInvalidInput},
		{"leading_digit", []opset.Op{{Name: "2x", Body: "nop"}}, errors.KindInvalidInput},
		{"empty_body", []opset.Op{{Name: "noop"}}, errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.ops)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseAssemble, Kind: tt.kind}) {
				t.Errorf("got %v, want assemble/%s", err, tt.kind)
			}
		})
	}
}

func mustOp(t *testing.T, name string) opset.Op {
	t.Helper()
	op, ok := opset.Lookup(name)
	if !ok {
		t.Fatalf("unknown op %s", name)
	}
	return op
}

func mustWAT(t *testing.T, ops []opset.Op) string {
	t.Helper()
	src, err := WAT(ops)
	if err != nil {
		t.Fatal(err)
	}
	return src
}
