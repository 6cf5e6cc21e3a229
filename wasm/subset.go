package wasm

import (
	"fmt"
	"sort"
)

// Subset derives a standalone module exporting only the named functions.
// Functions reachable through call are retained but not exported. Kept
// functions, globals and exports preserve their original relative order;
// types are renumbered in first-use order. Memories are kept unchanged.
func (m *Module) Subset(names []string) (*Module, error) {
	want := make(map[string]bool, len(names))
	var roots []uint32
	for _, name := range names {
		idx, ok := m.ExportedFunc(name)
		if !ok {
			return nil, fmt.Errorf("subset: no exported function %q", name)
		}
		want[name] = true
		roots = append(roots, idx)
	}

	decoded := make(map[uint32][]Instruction)
	keep := make(map[uint32]bool)
	globals := make(map[uint32]bool)
	for len(roots) > 0 {
		idx := roots[len(roots)-1]
		roots = roots[:len(roots)-1]
		if keep[idx] {
			continue
		}
		if int(idx) >= len(m.Code) {
			return nil, fmt.Errorf("subset: function index %d out of range", idx)
		}
		keep[idx] = true
		instrs, err := DecodeInstructions(m.Code[idx].Code)
		if err != nil {
			return nil, fmt.Errorf("subset: function %d: %w", idx, err)
		}
		decoded[idx] = instrs
		for _, in := range instrs {
			switch imm := in.Imm.(type) {
			case CallImm:
				roots = append(roots, imm.FuncIdx)
			case GlobalImm:
				globals[imm.GlobalIdx] = true
			}
		}
	}

	funcOrder := sortedKeys(keep)
	funcMap := make(map[uint32]uint32, len(funcOrder))
	for i, old := range funcOrder {
		funcMap[old] = uint32(i)
	}
	globalOrder := sortedKeys(globals)
	globalMap := make(map[uint32]uint32, len(globalOrder))
	for i, old := range globalOrder {
		globalMap[old] = uint32(i)
	}

	out := &Module{Memories: append([]MemoryType(nil), m.Memories...)}
	for _, old := range globalOrder {
		if int(old) >= len(m.Globals) {
			return nil, fmt.Errorf("subset: global index %d out of range", old)
		}
		out.Globals = append(out.Globals, m.Globals[old])
	}

	for _, old := range funcOrder {
		out.Funcs = append(out.Funcs, out.AddType(m.Types[m.Funcs[old]]))
		instrs := decoded[old]
		remapped := make([]Instruction, len(instrs))
		for i, in := range instrs {
			switch imm := in.Imm.(type) {
			case CallImm:
				in.Imm = CallImm{FuncIdx: funcMap[imm.FuncIdx]}
			case GlobalImm:
				in.Imm = GlobalImm{GlobalIdx: globalMap[imm.GlobalIdx]}
			case BlockImm:
				if imm.Type >= 0 {
					in.Imm = BlockImm{Type: int32(out.AddType(m.Types[imm.Type]))}
				}
			}
			remapped[i] = in
		}
		out.Code = append(out.Code, FuncBody{
			Locals: append([]LocalEntry(nil), m.Code[old].Locals...),
			Code:   EncodeInstructions(remapped),
		})
	}

	for _, e := range m.Exports {
		switch e.Kind {
		case KindFunc:
			if want[e.Name] {
				out.Exports = append(out.Exports, Export{Name: e.Name, Kind: KindFunc, Idx: funcMap[e.Idx]})
			}
		case KindMemory:
			out.Exports = append(out.Exports, e)
		case KindGlobal:
			if newIdx, ok := globalMap[e.Idx]; ok {
				out.Exports = append(out.Exports, Export{Name: e.Name, Kind: KindGlobal, Idx: newIdx})
			}
		}
	}
	return out, nil
}

func sortedKeys(set map[uint32]bool) []uint32 {
	keys := make([]uint32, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
