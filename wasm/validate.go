package wasm

import "fmt"

// Validate checks the module for structural validity and type-checks every
// function body.
func (m *Module) Validate() error {
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if err := m.validateCodeCount(); err != nil {
		return err
	}
	if err := m.validateMemoryLimits(); err != nil {
		return err
	}
	if err := m.validateGlobals(); err != nil {
		return err
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	for i := range m.Code {
		if err := m.validateFunc(uint32(i)); err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
	}
	return nil
}

// ParseModuleValidate parses a WebAssembly binary and validates it.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))
	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return fmt.Errorf("function %d references invalid type index %d", i, typeIdx)
		}
	}
	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Funcs) != len(m.Code) {
		return fmt.Errorf("function count %d does not match code count %d", len(m.Funcs), len(m.Code))
	}
	return nil
}

func (m *Module) validateMemoryLimits() error {
	if len(m.Memories) > 1 {
		return fmt.Errorf("multiple memories: %w", ErrUnsupported)
	}
	for i, mem := range m.Memories {
		l := mem.Limits
		if l.Min > MaxMemoryPages {
			return fmt.Errorf("memory %d: min %d exceeds %d pages", i, l.Min, MaxMemoryPages)
		}
		if l.Max != nil {
			if *l.Max > MaxMemoryPages {
				return fmt.Errorf("memory %d: max %d exceeds %d pages", i, *l.Max, MaxMemoryPages)
			}
			if *l.Max < l.Min {
				return fmt.Errorf("memory %d: max %d below min %d", i, *l.Max, l.Min)
			}
		}
	}
	return nil
}

func (m *Module) validateGlobals() error {
	for i, g := range m.Globals {
		if len(g.Init) != 1 {
			return fmt.Errorf("global %d: initializer must be a single constant", i)
		}
		var got ValType
		switch g.Init[0].Opcode {
		case OpI32Const:
			got = ValI32
		case OpI64Const:
			got = ValI64
		case OpF32Const:
			got = ValF32
		case OpF64Const:
			got = ValF64
		default:
			return fmt.Errorf("global %d: non-constant initializer %s", i, g.Init[0].Name())
		}
		if got != g.Type.ValType {
			return fmt.Errorf("global %d: initializer type %s does not match %s", i, got, g.Type.ValType)
		}
	}
	return nil
}

func (m *Module) validateExports() error {
	seen := make(map[string]bool, len(m.Exports))
	for _, e := range m.Exports {
		if seen[e.Name] {
			return fmt.Errorf("duplicate export name %q", e.Name)
		}
		seen[e.Name] = true
		var limit int
		switch e.Kind {
		case KindFunc:
			limit = len(m.Funcs)
		case KindMemory:
			limit = len(m.Memories)
		case KindGlobal:
			limit = len(m.Globals)
		default:
			return fmt.Errorf("export %q: kind %d: %w", e.Name, e.Kind, ErrUnsupported)
		}
		if int(e.Idx) >= limit {
			return fmt.Errorf("export %q references invalid index %d", e.Name, e.Idx)
		}
	}
	return nil
}

type ctrlFrame struct {
	start       []ValType
	end         []ValType
	height      int
	opcode      byte
	unreachable bool
}

// funcValidator type-checks one function body with an operand stack and a
// control stack.
type funcValidator struct {
	m      *Module
	locals []ValType
	vals   []ValType
	ctrls  []ctrlFrame
}

func (m *Module) validateFunc(funcIdx uint32) error {
	ft := m.GetFuncType(funcIdx)
	if ft == nil {
		return fmt.Errorf("missing type")
	}
	instrs, err := DecodeInstructions(m.Code[funcIdx].Code)
	if err != nil {
		return err
	}
	v := &funcValidator{m: m, locals: m.LocalTypes(funcIdx)}
	v.pushCtrl(OpBlock, nil, ft.Results)

	for pc, in := range instrs {
		if len(v.ctrls) == 0 {
			return fmt.Errorf("instruction %d (%s) after final end", pc, in.Name())
		}
		if err := v.step(in); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", pc, in.Name(), err)
		}
	}
	if len(v.ctrls) != 0 {
		return fmt.Errorf("unterminated block")
	}
	return nil
}

func (v *funcValidator) pushVal(t ValType) {
	v.vals = append(v.vals, t)
}

func (v *funcValidator) popVal() (ValType, error) {
	top := &v.ctrls[len(v.ctrls)-1]
	if len(v.vals) == top.height {
		if top.unreachable {
			return valUnknown, nil
		}
		return 0, fmt.Errorf("operand stack underflow")
	}
	t := v.vals[len(v.vals)-1]
	v.vals = v.vals[:len(v.vals)-1]
	return t, nil
}

func (v *funcValidator) popExpect(want ValType) (ValType, error) {
	got, err := v.popVal()
	if err != nil {
		return 0, err
	}
	if got != want && got != valUnknown && want != valUnknown {
		return 0, fmt.Errorf("type mismatch: expected %s, got %s", want, got)
	}
	if got == valUnknown {
		return want, nil
	}
	return got, nil
}

func (v *funcValidator) popVals(types []ValType) error {
	for i := len(types) - 1; i >= 0; i-- {
		if _, err := v.popExpect(types[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *funcValidator) pushVals(types []ValType) {
	for _, t := range types {
		v.pushVal(t)
	}
}

func (v *funcValidator) pushCtrl(op byte, in, out []ValType) {
	v.ctrls = append(v.ctrls, ctrlFrame{opcode: op, start: in, end: out, height: len(v.vals)})
	v.pushVals(in)
}

func (v *funcValidator) popCtrl() (ctrlFrame, error) {
	frame := v.ctrls[len(v.ctrls)-1]
	if err := v.popVals(frame.end); err != nil {
		return frame, err
	}
	if len(v.vals) != frame.height {
		return frame, fmt.Errorf("%d values left on stack at end of block", len(v.vals)-frame.height)
	}
	v.ctrls = v.ctrls[:len(v.ctrls)-1]
	return frame, nil
}

func (v *funcValidator) setUnreachable() {
	top := &v.ctrls[len(v.ctrls)-1]
	v.vals = v.vals[:top.height]
	top.unreachable = true
}

func labelTypes(f ctrlFrame) []ValType {
	if f.opcode == OpLoop {
		return f.start
	}
	return f.end
}

func (v *funcValidator) label(depth uint32) (ctrlFrame, error) {
	if int(depth) >= len(v.ctrls) {
		return ctrlFrame{}, fmt.Errorf("invalid label depth %d", depth)
	}
	return v.ctrls[len(v.ctrls)-1-int(depth)], nil
}

func (v *funcValidator) step(in Instruction) error {
	switch in.Opcode {
	case OpUnreachable:
		v.setUnreachable()
	case OpNop:
	case OpBlock, OpLoop, OpIf:
		params, results, err := blockTypeResults(v.m, in.Imm.(BlockImm).Type)
		if err != nil {
			return err
		}
		if in.Opcode == OpIf {
			if _, err := v.popExpect(ValI32); err != nil {
				return err
			}
		}
		if err := v.popVals(params); err != nil {
			return err
		}
		v.pushCtrl(in.Opcode, params, results)
	case OpElse:
		frame, err := v.popCtrl()
		if err != nil {
			return err
		}
		if frame.opcode != OpIf {
			return fmt.Errorf("else without if")
		}
		v.pushCtrl(OpElse, frame.start, frame.end)
	case OpEnd:
		frame, err := v.popCtrl()
		if err != nil {
			return err
		}
		if frame.opcode == OpIf && len(frame.start) != len(frame.end) {
			return fmt.Errorf("if without else must not produce values")
		}
		v.pushVals(frame.end)
	case OpBr:
		frame, err := v.label(in.Imm.(BranchImm).LabelIdx)
		if err != nil {
			return err
		}
		if err := v.popVals(labelTypes(frame)); err != nil {
			return err
		}
		v.setUnreachable()
	case OpBrIf:
		frame, err := v.label(in.Imm.(BranchImm).LabelIdx)
		if err != nil {
			return err
		}
		if _, err := v.popExpect(ValI32); err != nil {
			return err
		}
		types := labelTypes(frame)
		if err := v.popVals(types); err != nil {
			return err
		}
		v.pushVals(types)
	case OpReturn:
		if err := v.popVals(v.ctrls[0].end); err != nil {
			return err
		}
		v.setUnreachable()
	case OpCall:
		ft := v.m.GetFuncType(in.Imm.(CallImm).FuncIdx)
		if ft == nil {
			return fmt.Errorf("call to unknown function %d", in.Imm.(CallImm).FuncIdx)
		}
		if err := v.popVals(ft.Params); err != nil {
			return err
		}
		v.pushVals(ft.Results)
	case OpDrop:
		if _, err := v.popVal(); err != nil {
			return err
		}
	case OpSelect:
		if _, err := v.popExpect(ValI32); err != nil {
			return err
		}
		t1, err := v.popVal()
		if err != nil {
			return err
		}
		t2, err := v.popExpect(t1)
		if err != nil {
			return err
		}
		if t1 == valUnknown {
			t1 = t2
		}
		v.pushVal(t1)
	case OpLocalGet, OpLocalSet, OpLocalTee:
		idx := in.Imm.(LocalImm).LocalIdx
		if int(idx) >= len(v.locals) {
			return fmt.Errorf("invalid local index %d", idx)
		}
		t := v.locals[idx]
		switch in.Opcode {
		case OpLocalGet:
			v.pushVal(t)
		case OpLocalSet:
			if _, err := v.popExpect(t); err != nil {
				return err
			}
		case OpLocalTee:
			if _, err := v.popExpect(t); err != nil {
				return err
			}
			v.pushVal(t)
		}
	case OpGlobalGet, OpGlobalSet:
		idx := in.Imm.(GlobalImm).GlobalIdx
		if int(idx) >= len(v.m.Globals) {
			return fmt.Errorf("invalid global index %d", idx)
		}
		g := v.m.Globals[idx]
		if in.Opcode == OpGlobalGet {
			v.pushVal(g.Type.ValType)
			return nil
		}
		if !g.Type.Mutable {
			return fmt.Errorf("global %d is immutable", idx)
		}
		if _, err := v.popExpect(g.Type.ValType); err != nil {
			return err
		}
	default:
		info, ok := opsByCode[in.Opcode]
		if !ok {
			return fmt.Errorf("opcode 0x%02x: %w", in.Opcode, ErrUnsupported)
		}
		if info.Imm == ImmMemory && len(v.m.Memories) == 0 {
			return fmt.Errorf("%s without memory", info.Name)
		}
		if err := v.popVals(info.Params); err != nil {
			return err
		}
		v.pushVals(info.Results)
	}
	return nil
}
