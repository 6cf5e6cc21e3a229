package wasm

import (
	"fmt"
	"strings"
)

// ValType is a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case valUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

// Module is a decoded core WebAssembly module restricted to the sections a
// pure numeric kernel needs: types, functions, memory, globals, exports and
// code. Imports, tables, element and data segments are rejected.
type Module struct {
	Types          []FuncType
	Funcs          []uint32 // type index per function
	Memories       []MemoryType
	Globals        []Global
	Exports        []Export
	Code           []FuncBody
	CustomSections []CustomSection
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if other.Params[i] != p {
			return false
		}
	}
	for i, r := range ft.Results {
		if other.Results[i] != r {
			return false
		}
	}
	return true
}

func (ft FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range ft.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> (")
	for i, r := range ft.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Limits bounds a memory in pages.
type Limits struct {
	Max *uint32
	Min uint32
}

// MemoryType describes a linear memory.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a module-defined global with its constant initializer.
// Init holds the initializer instructions without the trailing end.
type Global struct {
	Init []Instruction
	Type GlobalType
}

// Export names a module item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is a function's locals and raw instruction bytes, including the
// final end opcode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// CustomSection is an uninterpreted named section.
type CustomSection struct {
	Name string
	Data []byte
}

// AddType returns the index of ft, appending it when not already present.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// GetFuncType returns the signature of function funcIdx, or nil if out of range.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	if int(funcIdx) >= len(m.Funcs) {
		return nil
	}
	typeIdx := m.Funcs[funcIdx]
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}

// ExportedFunc returns the function index exported under name.
func (m *Module) ExportedFunc(name string) (uint32, bool) {
	for _, e := range m.Exports {
		if e.Kind == KindFunc && e.Name == name {
			return e.Idx, true
		}
	}
	return 0, false
}

// FuncExports returns the names of all exported functions in export order.
func (m *Module) FuncExports() []string {
	var names []string
	for _, e := range m.Exports {
		if e.Kind == KindFunc {
			names = append(names, e.Name)
		}
	}
	return names
}

// LocalTypes expands a body's local declarations, prefixed with the params.
func (m *Module) LocalTypes(funcIdx uint32) []ValType {
	ft := m.GetFuncType(funcIdx)
	if ft == nil || int(funcIdx) >= len(m.Code) {
		return nil
	}
	locals := append([]ValType(nil), ft.Params...)
	for _, e := range m.Code[funcIdx].Locals {
		for i := uint32(0); i < e.Count; i++ {
			locals = append(locals, e.ValType)
		}
	}
	return locals
}

func blockTypeResults(m *Module, bt int32) ([]ValType, []ValType, error) {
	switch bt {
	case BlockTypeVoid:
		return nil, nil, nil
	case BlockTypeI32:
		return nil, []ValType{ValI32}, nil
	case BlockTypeI64:
		return nil, []ValType{ValI64}, nil
	case BlockTypeF32:
		return nil, []ValType{ValF32}, nil
	case BlockTypeF64:
		return nil, []ValType{ValF64}, nil
	}
	if bt < 0 || int(bt) >= len(m.Types) {
		return nil, nil, fmt.Errorf("invalid block type %d", bt)
	}
	ft := m.Types[bt]
	return ft.Params, ft.Results, nil
}
