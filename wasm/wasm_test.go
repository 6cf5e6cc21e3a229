package wasm_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/mathkernel/wasm"
)

var (
	f64  = []wasm.ValType{wasm.ValF64}
	f64s = []wasm.ValType{wasm.ValF64, wasm.ValF64}
)

func code(instrs ...wasm.Instruction) []byte {
	return append(wasm.EncodeInstructions(instrs), wasm.OpEnd)
}

func op(o byte) wasm.Instruction { return wasm.Instruction{Opcode: o} }

func local(o byte, idx uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: o, Imm: wasm.LocalImm{LocalIdx: idx}}
}

func call(idx uint32) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: idx}}
}

func f64const(v float64) wasm.Instruction {
	return wasm.Instruction{Opcode: wasm.OpF64Const, Imm: wasm.F64Imm{Value: v}}
}

// sampleModule exports add, sqrt, neg_add (which calls add) and memory.
func sampleModule() *wasm.Module {
	return &wasm.Module{
		Types: []wasm.FuncType{
			{Params: f64s, Results: f64},
			{Params: f64, Results: f64},
		},
		Funcs:    []uint32{0, 1, 0},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValType: wasm.ValF64}, Init: []wasm.Instruction{f64const(3.5)}},
		},
		Exports: []wasm.Export{
			{Name: "memory", Kind: wasm.KindMemory, Idx: 0},
			{Name: "add", Kind: wasm.KindFunc, Idx: 0},
			{Name: "sqrt", Kind: wasm.KindFunc, Idx: 1},
			{Name: "neg_add", Kind: wasm.KindFunc, Idx: 2},
		},
		Code: []wasm.FuncBody{
			{Code: code(local(wasm.OpLocalGet, 0), local(wasm.OpLocalGet, 1), op(wasm.OpF64Add))},
			{Code: code(local(wasm.OpLocalGet, 0), op(wasm.OpF64Sqrt))},
			{Code: code(local(wasm.OpLocalGet, 0), local(wasm.OpLocalGet, 1), call(0), op(wasm.OpF64Neg))},
		},
	}
}

func TestEncodeEmptyModule(t *testing.T) {
	data := (&wasm.Module{}).Encode()
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Errorf("empty module = %x, want %x", data, want)
	}
}

func TestRoundTrip(t *testing.T) {
	data := sampleModule().Encode()
	parsed, err := wasm.ParseModuleValidate(data)
	if err != nil {
		t.Fatalf("ParseModuleValidate: %v", err)
	}
	if len(parsed.Funcs) != 3 || len(parsed.Types) != 2 || len(parsed.Globals) != 1 {
		t.Fatalf("unexpected module shape: %+v", parsed)
	}
	if !bytes.Equal(parsed.Encode(), data) {
		t.Error("re-encoded module differs from original")
	}
	if got := parsed.FuncExports(); strings.Join(got, ",") != "add,sqrt,neg_add" {
		t.Errorf("FuncExports = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	valid := sampleModule().Encode()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"bad magic", []byte{0x00, 0x61, 0x73, 0x00, 0x01, 0x00, 0x00, 0x00}, wasm.ErrInvalidMagic},
		{"bad version", []byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0x00, 0x00, 0x00}, wasm.ErrInvalidVersion},
		{"import section", append(valid[:8:8], 0x02, 0x01, 0x00), wasm.ErrUnsupported},
		{"data section", append(append([]byte(nil), valid...), 0x0b, 0x01, 0x00), wasm.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wasm.ParseModule(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseModule error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := wasm.ParseModule(valid[:len(valid)-3]); err == nil {
		t.Error("expected error for truncated module")
	}
}

func TestSectionOrder(t *testing.T) {
	// function section before type section
	data := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x03, 0x01, 0x00,
		0x01, 0x01, 0x00}
	if _, err := wasm.ParseModule(data); err == nil || !strings.Contains(err.Error(), "out of order") {
		t.Errorf("expected out of order error, got %v", err)
	}
}

func TestValidateFunctionBodies(t *testing.T) {
	i32 := []wasm.ValType{wasm.ValI32}
	block := func(o byte, bt int32) wasm.Instruction {
		return wasm.Instruction{Opcode: o, Imm: wasm.BlockImm{Type: bt}}
	}
	br := func(o byte, depth uint32) wasm.Instruction {
		return wasm.Instruction{Opcode: o, Imm: wasm.BranchImm{LabelIdx: depth}}
	}

	tests := []struct {
		name    string
		typ     wasm.FuncType
		body    []byte
		wantErr string
	}{
		{
			name: "if else with result",
			typ:  wasm.FuncType{Params: f64, Results: f64},
			body: code(
				local(wasm.OpLocalGet, 0), f64const(0), op(wasm.OpF64Lt),
				block(wasm.OpIf, wasm.BlockTypeF64),
				f64const(-1),
				op(wasm.OpElse),
				local(wasm.OpLocalGet, 0),
				op(wasm.OpEnd),
			),
		},
		{
			name: "loop with br_if",
			typ:  wasm.FuncType{Params: f64, Results: f64},
			body: code(
				block(wasm.OpLoop, wasm.BlockTypeVoid),
				local(wasm.OpLocalGet, 0), f64const(1), op(wasm.OpF64Sub), local(wasm.OpLocalSet, 0),
				local(wasm.OpLocalGet, 0), f64const(0), op(wasm.OpF64Gt),
				br(wasm.OpBrIf, 0),
				op(wasm.OpEnd),
				local(wasm.OpLocalGet, 0),
			),
		},
		{
			name: "return makes stack polymorphic",
			typ:  wasm.FuncType{Params: f64, Results: f64},
			body: code(local(wasm.OpLocalGet, 0), op(wasm.OpReturn), op(wasm.OpF64Add)),
		},
		{
			name:    "type mismatch",
			typ:     wasm.FuncType{Params: i32, Results: f64},
			body:    code(local(wasm.OpLocalGet, 0), op(wasm.OpF64Sqrt)),
			wantErr: "type mismatch",
		},
		{
			name:    "stack underflow",
			typ:     wasm.FuncType{Results: f64},
			body:    code(op(wasm.OpF64Neg)),
			wantErr: "underflow",
		},
		{
			name:    "leftover values",
			typ:     wasm.FuncType{Params: f64},
			body:    code(local(wasm.OpLocalGet, 0)),
			wantErr: "left on stack",
		},
		{
			name:    "bad local",
			typ:     wasm.FuncType{Results: f64},
			body:    code(local(wasm.OpLocalGet, 3)),
			wantErr: "invalid local index",
		},
		{
			name:    "bad label",
			typ:     wasm.FuncType{},
			body:    code(br(wasm.OpBr, 4)),
			wantErr: "invalid label depth",
		},
		{
			name:    "if without else produces value",
			typ:     wasm.FuncType{Params: i32, Results: f64},
			body:    code(local(wasm.OpLocalGet, 0), block(wasm.OpIf, wasm.BlockTypeF64), f64const(1), op(wasm.OpEnd)),
			wantErr: "if without else",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &wasm.Module{
				Types: []wasm.FuncType{tt.typ},
				Funcs: []uint32{0},
				Code:  []wasm.FuncBody{{Code: tt.body}},
			}
			err := m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateModuleStructure(t *testing.T) {
	t.Run("immutable global set", func(t *testing.T) {
		m := sampleModule()
		m.Types = append(m.Types, wasm.FuncType{})
		m.Funcs = append(m.Funcs, 2)
		m.Code = append(m.Code, wasm.FuncBody{Code: code(
			f64const(1),
			wasm.Instruction{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{GlobalIdx: 0}},
		)})
		if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "immutable") {
			t.Errorf("expected immutable global error, got %v", err)
		}
	})

	t.Run("duplicate export", func(t *testing.T) {
		m := sampleModule()
		m.Exports = append(m.Exports, wasm.Export{Name: "add", Kind: wasm.KindFunc, Idx: 1})
		if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("expected duplicate export error, got %v", err)
		}
	})

	t.Run("global initializer type", func(t *testing.T) {
		m := sampleModule()
		m.Globals[0].Type.ValType = wasm.ValI64
		if err := m.Validate(); err == nil {
			t.Error("expected initializer type error")
		}
	})

	t.Run("memory limits", func(t *testing.T) {
		m := sampleModule()
		max := uint32(0)
		m.Memories[0].Limits.Max = &max
		if err := m.Validate(); err == nil {
			t.Error("expected limits error")
		}
	})
}

func TestSubset(t *testing.T) {
	m := sampleModule()

	sub, err := m.Subset([]string{"neg_add"})
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if err := sub.Validate(); err != nil {
		t.Fatalf("subset does not validate: %v", err)
	}
	if got := sub.FuncExports(); len(got) != 1 || got[0] != "neg_add" {
		t.Errorf("FuncExports = %v, want [neg_add]", got)
	}
	// add is retained as a dependency and renumbered before neg_add
	if len(sub.Funcs) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(sub.Funcs))
	}
	if len(sub.Types) != 1 {
		t.Errorf("expected unused sqrt type to be dropped, got %d types", len(sub.Types))
	}
	if len(sub.Globals) != 0 {
		t.Errorf("expected unreferenced global to be dropped")
	}
	if _, ok := sub.ExportedFunc("add"); ok {
		t.Error("dependency must not be exported")
	}
	if len(sub.Memories) != 1 || sub.Exports[0].Name != "memory" {
		t.Error("memory export must be preserved")
	}

	instrs, err := wasm.DecodeInstructions(sub.Code[1].Code)
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := instrs[2].Imm.(wasm.CallImm); !ok || c.FuncIdx != 0 {
		t.Errorf("call not remapped: %+v", instrs[2])
	}
}

func TestSubsetOrderAndDeterminism(t *testing.T) {
	m := sampleModule()
	a, err := m.Subset([]string{"sqrt", "add"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Subset([]string{"add", "sqrt"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Encode(), b.Encode()) {
		t.Error("subset must not depend on name order")
	}
	if got := a.FuncExports(); got[0] != "add" || got[1] != "sqrt" {
		t.Errorf("exports must keep original order, got %v", got)
	}
}

func TestSubsetUnknownName(t *testing.T) {
	if _, err := sampleModule().Subset([]string{"cbrt"}); err == nil {
		t.Error("expected error for unknown export")
	}
}

func TestLookupName(t *testing.T) {
	info, ok := wasm.LookupName("f64.nearest")
	if !ok || info.Opcode != wasm.OpF64Nearest {
		t.Errorf("LookupName(f64.nearest) = %+v, %v", info, ok)
	}
	info, ok = wasm.LookupOpcode(wasm.OpF64Ceil)
	if !ok || info.Name != "f64.ceil" {
		t.Errorf("LookupOpcode(0x9b) = %+v, %v", info, ok)
	}
	if _, ok := wasm.LookupName("f64.cbrt"); ok {
		t.Error("unexpected instruction f64.cbrt")
	}
}
