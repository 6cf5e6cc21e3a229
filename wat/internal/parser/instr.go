package parser

import (
	"fmt"

	"github.com/wippyai/mathkernel/wasm"
	"github.com/wippyai/mathkernel/wat/internal/token"
)

// parseInstrs parses flat and folded instructions until ')' or end of input
// (left unconsumed) or a flat 'else'/'end' keyword (consumed and returned).
func (p *Parser) parseInstrs(localMap map[string]uint32) ([]wasm.Instruction, string, error) {
	var instrs []wasm.Instruction

	for {
		t := p.peek()
		if t == nil || t.Type == token.RParen {
			return instrs, "", nil
		}

		if t.Type == token.LParen {
			p.next()
			folded, err := p.parseFolded(localMap)
			if err != nil {
				return nil, "", err
			}
			instrs = append(instrs, folded...)
			continue
		}

		if t.Type != token.Ident {
			return nil, "", fmt.Errorf("line %d: expected instruction, got %v %q", t.Line, t.Type, t.Value)
		}
		p.next()

		switch t.Value {
		case "end", "else":
			return instrs, t.Value, nil

		case "block", "loop":
			label, bt, err := p.parseBlockHeader()
			if err != nil {
				return nil, "", err
			}
			p.pushLabel(label)
			body, term, err := p.parseInstrs(localMap)
			p.popLabel()
			if err != nil {
				return nil, "", err
			}
			if term != "end" {
				return nil, "", fmt.Errorf("line %d: %s missing 'end'", t.Line, t.Value)
			}
			p.skipLabelRepeat(label)
			instrs = append(instrs, wasm.Instruction{Opcode: blockOpcode(t.Value), Imm: wasm.BlockImm{Type: bt}})
			instrs = append(instrs, body...)
			instrs = append(instrs, wasm.Instruction{Opcode: wasm.OpEnd})

		case "if":
			label, bt, err := p.parseBlockHeader()
			if err != nil {
				return nil, "", err
			}
			p.pushLabel(label)
			thenBody, term, err := p.parseInstrs(localMap)
			if err != nil {
				p.popLabel()
				return nil, "", err
			}
			var elseBody []wasm.Instruction
			hasElse := term == "else"
			if hasElse {
				p.skipLabelRepeat(label)
				elseBody, term, err = p.parseInstrs(localMap)
				if err != nil {
					p.popLabel()
					return nil, "", err
				}
			}
			p.popLabel()
			if term != "end" {
				return nil, "", fmt.Errorf("line %d: if missing 'end'", t.Line)
			}
			p.skipLabelRepeat(label)
			instrs = append(instrs, assembleIf(bt, nil, thenBody, elseBody, hasElse)...)

		default:
			in, err := p.parsePlain(t, localMap)
			if err != nil {
				return nil, "", err
			}
			instrs = append(instrs, in)
		}
	}
}

// parseFolded parses a folded expression after its opening '(' and
// consumes the closing ')'.
func (p *Parser) parseFolded(localMap map[string]uint32) ([]wasm.Instruction, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	switch t.Value {
	case "block", "loop":
		label, bt, err := p.parseBlockHeader()
		if err != nil {
			return nil, err
		}
		p.pushLabel(label)
		body, term, err := p.parseInstrs(localMap)
		p.popLabel()
		if err != nil {
			return nil, err
		}
		if term != "" {
			return nil, fmt.Errorf("line %d: unexpected '%s' in folded %s", t.Line, term, t.Value)
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		out := []wasm.Instruction{{Opcode: blockOpcode(t.Value), Imm: wasm.BlockImm{Type: bt}}}
		out = append(out, body...)
		return append(out, wasm.Instruction{Opcode: wasm.OpEnd}), nil

	case "if":
		return p.parseFoldedIf(t, localMap)

	case "then", "else", "end":
		return nil, fmt.Errorf("line %d: unexpected '%s'", t.Line, t.Value)
	}

	in, err := p.parsePlain(t, localMap)
	if err != nil {
		return nil, err
	}
	var operands []wasm.Instruction
	for {
		nt := p.peek()
		if nt == nil {
			return nil, fmt.Errorf("unexpected end of input")
		}
		if nt.Type != token.LParen {
			break
		}
		p.next()
		op, err := p.parseFolded(localMap)
		if err != nil {
			return nil, err
		}
		operands = append(operands, op...)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return append(operands, in), nil
}

func (p *Parser) parseFoldedIf(t *token.Token, localMap map[string]uint32) ([]wasm.Instruction, error) {
	label, bt, err := p.parseBlockHeader()
	if err != nil {
		return nil, err
	}

	var cond []wasm.Instruction
	for !p.peekKeyword("then") {
		nt := p.peek()
		if nt == nil || nt.Type != token.LParen {
			return nil, fmt.Errorf("line %d: if requires (then ...)", t.Line)
		}
		p.next()
		c, err := p.parseFolded(localMap)
		if err != nil {
			return nil, err
		}
		cond = append(cond, c...)
	}

	p.pushLabel(label)
	defer p.popLabel()

	p.pos += 2
	thenBody, term, err := p.parseInstrs(localMap)
	if err != nil {
		return nil, err
	}
	if term != "" {
		return nil, fmt.Errorf("line %d: unexpected '%s' in then", t.Line, term)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	var elseBody []wasm.Instruction
	hasElse := p.peekKeyword("else")
	if hasElse {
		p.pos += 2
		elseBody, term, err = p.parseInstrs(localMap)
		if err != nil {
			return nil, err
		}
		if term != "" {
			return nil, fmt.Errorf("line %d: unexpected '%s' in else", t.Line, term)
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return assembleIf(bt, cond, thenBody, elseBody, hasElse), nil
}

func assembleIf(bt int32, cond, thenBody, elseBody []wasm.Instruction, hasElse bool) []wasm.Instruction {
	out := append([]wasm.Instruction(nil), cond...)
	out = append(out, wasm.Instruction{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: bt}})
	out = append(out, thenBody...)
	if hasElse {
		out = append(out, wasm.Instruction{Opcode: wasm.OpElse})
		out = append(out, elseBody...)
	}
	return append(out, wasm.Instruction{Opcode: wasm.OpEnd})
}

func blockOpcode(name string) byte {
	if name == "loop" {
		return wasm.OpLoop
	}
	return wasm.OpBlock
}

// parseBlockHeader reads an optional label and an optional single result.
func (p *Parser) parseBlockHeader() (string, int32, error) {
	label := p.parseOptionalName()
	bt := wasm.BlockTypeVoid
	if p.peekKeyword("result") {
		p.pos += 2
		vts, err := p.parseValTypes()
		if err != nil {
			return "", 0, err
		}
		switch len(vts) {
		case 0:
		case 1:
			bt = int32(int8(byte(vts[0]) | 0x80)) // 0x7F..0x7C as negative s33
		default:
			return "", 0, fmt.Errorf("line %d: multi-value blocks are not supported", p.line())
		}
	}
	return label, bt, nil
}

func (p *Parser) skipLabelRepeat(label string) {
	if t := p.peek(); t != nil && t.IsName() && t.Value == label {
		p.next()
	}
}

func (p *Parser) parsePlain(t *token.Token, localMap map[string]uint32) (wasm.Instruction, error) {
	info, ok := wasm.LookupName(t.Value)
	if !ok {
		return wasm.Instruction{}, fmt.Errorf("line %d: unknown instruction: %s", t.Line, t.Value)
	}
	in := wasm.Instruction{Opcode: info.Opcode}

	switch info.Imm {
	case wasm.ImmNone:
	case wasm.ImmLabel:
		depth, err := p.parseLabelRef()
		if err != nil {
			return in, err
		}
		in.Imm = wasm.BranchImm{LabelIdx: depth}
	case wasm.ImmFunc:
		idx, err := p.parseIdx(p.funcMap, "function")
		if err != nil {
			return in, err
		}
		in.Imm = wasm.CallImm{FuncIdx: idx}
	case wasm.ImmLocal:
		idx, err := p.parseIdx(localMap, "local")
		if err != nil {
			return in, err
		}
		in.Imm = wasm.LocalImm{LocalIdx: idx}
	case wasm.ImmGlobal:
		idx, err := p.parseIdx(p.globalMap, "global")
		if err != nil {
			return in, err
		}
		in.Imm = wasm.GlobalImm{GlobalIdx: idx}
	case wasm.ImmMemory:
		var idx uint32
		if nt := p.peek(); nt != nil && (nt.Type == token.Number || nt.IsName()) {
			var err error
			if idx, err = p.parseIdx(p.memMap, "memory"); err != nil {
				return in, err
			}
		}
		in.Imm = wasm.MemoryImm{MemIdx: idx}
	case wasm.ImmI32:
		v, err := p.parseI32()
		if err != nil {
			return in, err
		}
		in.Imm = wasm.I32Imm{Value: v}
	case wasm.ImmI64:
		v, err := p.parseI64()
		if err != nil {
			return in, err
		}
		in.Imm = wasm.I64Imm{Value: v}
	case wasm.ImmF32:
		v, err := p.parseF32()
		if err != nil {
			return in, err
		}
		in.Imm = wasm.F32Imm{Value: v}
	case wasm.ImmF64:
		v, err := p.parseF64()
		if err != nil {
			return in, err
		}
		in.Imm = wasm.F64Imm{Value: v}
	default:
		return in, fmt.Errorf("line %d: %s cannot be used here", t.Line, t.Value)
	}
	return in, nil
}

func (p *Parser) parseLabelRef() (uint32, error) {
	t := p.peek()
	if t == nil {
		return 0, fmt.Errorf("unexpected end of input")
	}
	if t.IsName() {
		p.next()
		if depth, ok := p.resolveLabel(t.Value); ok {
			return depth, nil
		}
		return 0, fmt.Errorf("line %d: unknown label: %s", t.Line, t.Value)
	}
	return p.parseU32()
}
