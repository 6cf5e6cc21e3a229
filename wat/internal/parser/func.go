package parser

import (
	"fmt"

	"github.com/wippyai/mathkernel/wasm"
	"github.com/wippyai/mathkernel/wat/internal/token"
)

func (p *Parser) parseFunc() error {
	funcIdx := uint32(len(p.mod.Funcs))
	line := p.line()
	p.parseOptionalName()
	if err := p.parseInlineExports(wasm.KindFunc, funcIdx); err != nil {
		return err
	}

	localMap := make(map[string]uint32)
	var ft wasm.FuncType
	var locals []wasm.ValType
	typeIdx := -1

	bindName := func(name string, idx uint32) error {
		if _, dup := localMap[name]; dup {
			return fmt.Errorf("line %d: duplicate local %s", p.line(), name)
		}
		localMap[name] = idx
		return nil
	}

header:
	for {
		switch {
		case p.peekKeyword("type"):
			p.pos += 2
			idx, err := p.parseIdx(p.typeMap, "type")
			if err != nil {
				return err
			}
			if int(idx) >= len(p.mod.Types) {
				return fmt.Errorf("line %d: type index %d out of range", line, idx)
			}
			if _, err := p.expect(token.RParen); err != nil {
				return err
			}
			typeIdx = int(idx)
		case p.peekKeyword("param"):
			if len(locals) > 0 || len(ft.Results) > 0 {
				return fmt.Errorf("line %d: param must precede result and local", p.line())
			}
			p.pos += 2
			if name := p.parseOptionalName(); name != "" {
				if err := bindName(name, uint32(len(ft.Params))); err != nil {
					return err
				}
				vt, err := p.parseValType()
				if err != nil {
					return err
				}
				if _, err := p.expect(token.RParen); err != nil {
					return err
				}
				ft.Params = append(ft.Params, vt)
				continue
			}
			vts, err := p.parseValTypes()
			if err != nil {
				return err
			}
			ft.Params = append(ft.Params, vts...)
		case p.peekKeyword("result"):
			if len(locals) > 0 {
				return fmt.Errorf("line %d: result must precede local", p.line())
			}
			p.pos += 2
			vts, err := p.parseValTypes()
			if err != nil {
				return err
			}
			ft.Results = append(ft.Results, vts...)
		case p.peekKeyword("local"):
			p.pos += 2
			if name := p.parseOptionalName(); name != "" {
				params := len(ft.Params)
				if typeIdx >= 0 && params == 0 {
					params = len(p.mod.Types[typeIdx].Params)
				}
				if err := bindName(name, uint32(params+len(locals))); err != nil {
					return err
				}
				vt, err := p.parseValType()
				if err != nil {
					return err
				}
				if _, err := p.expect(token.RParen); err != nil {
					return err
				}
				locals = append(locals, vt)
				continue
			}
			vts, err := p.parseValTypes()
			if err != nil {
				return err
			}
			locals = append(locals, vts...)
		default:
			break header
		}
	}

	if typeIdx >= 0 {
		declared := p.mod.Types[typeIdx]
		if (len(ft.Params) > 0 || len(ft.Results) > 0) && !declared.Equal(ft) {
			return fmt.Errorf("line %d: inline signature %s does not match type %d", line, ft, typeIdx)
		}
		if len(ft.Params) == 0 {
			ft.Params = declared.Params
		}
	} else {
		typeIdx = int(p.mod.AddType(ft))
	}

	p.labels = p.labels[:0]
	instrs, term, err := p.parseInstrs(localMap)
	if err != nil {
		return err
	}
	if term != "" {
		return fmt.Errorf("line %d: unexpected '%s' outside block", p.line(), term)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}

	code := append(wasm.EncodeInstructions(instrs), wasm.OpEnd)
	p.mod.Funcs = append(p.mod.Funcs, uint32(typeIdx))
	p.mod.Code = append(p.mod.Code, wasm.FuncBody{Locals: groupLocals(locals), Code: code})
	return nil
}

// groupLocals run-length encodes local declarations.
func groupLocals(types []wasm.ValType) []wasm.LocalEntry {
	var out []wasm.LocalEntry
	for _, t := range types {
		if n := len(out); n > 0 && out[n-1].ValType == t {
			out[n-1].Count++
			continue
		}
		out = append(out, wasm.LocalEntry{Count: 1, ValType: t})
	}
	return out
}
