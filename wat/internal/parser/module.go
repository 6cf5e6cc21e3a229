package parser

import (
	"fmt"

	"github.com/wippyai/mathkernel/wasm"
	"github.com/wippyai/mathkernel/wat/internal/token"
)

func (p *Parser) parseModule() (*wasm.Module, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}
	if t.Type != token.Ident || t.Value != "module" {
		return nil, fmt.Errorf("line %d: expected 'module', got %q", t.Line, t.Value)
	}
	p.parseOptionalName()

	if err := p.prescanNames(); err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t == nil {
			return nil, fmt.Errorf("unexpected end of input: unclosed module")
		}
		if t.Type == token.RParen {
			p.next()
			break
		}
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		kw, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		switch kw.Value {
		case "type":
			// declared types were registered by prescanNames
			if err := p.skipRest(); err != nil {
				return nil, err
			}
		case "func":
			err = p.parseFunc()
		case "memory":
			err = p.parseMemory()
		case "global":
			err = p.parseGlobal()
		case "export":
			err = p.parseExportField()
		case "import", "table", "elem", "data", "start", "tag":
			return nil, fmt.Errorf("line %d: unsupported module field: %s", kw.Line, kw.Value)
		default:
			return nil, fmt.Errorf("line %d: unknown module field: %s", kw.Line, kw.Value)
		}
		if err != nil {
			return nil, err
		}
	}

	if t := p.peek(); t != nil {
		return nil, fmt.Errorf("line %d: unexpected %q after module", t.Line, t.Value)
	}
	return p.mod, nil
}

// prescanNames registers func, global and memory names and all declared
// types before the main pass so bodies may reference later definitions.
func (p *Parser) prescanNames() error {
	saved := p.pos
	defer func() { p.pos = saved }()

	var funcIdx, globalIdx, memIdx uint32
	for {
		t := p.peek()
		if t == nil || t.Type != token.LParen {
			return nil
		}
		start := p.pos
		p.next()
		if kw := p.peek(); kw != nil && kw.Type == token.Ident {
			p.next()
			name := ""
			if n := p.peek(); n != nil && n.IsName() {
				name = n.Value
			}
			var err error
			switch kw.Value {
			case "func":
				err = register(p.funcMap, name, funcIdx, "function", kw.Line)
				funcIdx++
			case "global":
				err = register(p.globalMap, name, globalIdx, "global", kw.Line)
				globalIdx++
			case "memory":
				err = register(p.memMap, name, memIdx, "memory", kw.Line)
				memIdx++
			case "type":
				err = p.prescanType(name)
			}
			if err != nil {
				return err
			}
		}
		p.pos = start
		if err := p.skipForm(); err != nil {
			return err
		}
	}
}

func register(names map[string]uint32, name string, idx uint32, what string, line int) error {
	if name == "" {
		return nil
	}
	if _, dup := names[name]; dup {
		return fmt.Errorf("line %d: duplicate %s name %s", line, what, name)
	}
	names[name] = idx
	return nil
}

func (p *Parser) prescanType(name string) error {
	line := p.line()
	if name != "" {
		p.next()
		if _, dup := p.typeMap[name]; dup {
			return fmt.Errorf("line %d: duplicate type name %s", line, name)
		}
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	if err := p.expectKeyword("func"); err != nil {
		return err
	}
	var ft wasm.FuncType
	for {
		switch {
		case p.peekKeyword("param"):
			p.pos += 2
			p.parseOptionalName()
			vts, err := p.parseValTypes()
			if err != nil {
				return err
			}
			ft.Params = append(ft.Params, vts...)
		case p.peekKeyword("result"):
			p.pos += 2
			vts, err := p.parseValTypes()
			if err != nil {
				return err
			}
			ft.Results = append(ft.Results, vts...)
		default:
			if _, err := p.expect(token.RParen); err != nil {
				return err
			}
			if name != "" {
				p.typeMap[name] = uint32(len(p.mod.Types))
			}
			p.mod.Types = append(p.mod.Types, ft)
			return nil
		}
	}
}

// parseValTypes reads value types up to and including the closing ')'.
func (p *Parser) parseValTypes() ([]wasm.ValType, error) {
	var out []wasm.ValType
	for {
		t := p.peek()
		if t == nil {
			return nil, fmt.Errorf("unexpected end of input")
		}
		if t.Type == token.RParen {
			p.next()
			return out, nil
		}
		vt, err := p.parseValType()
		if err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
}

// skipForm consumes one balanced parenthesized form starting at '('.
func (p *Parser) skipForm() error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	return p.skipRest()
}

// skipRest consumes tokens up to and including the ')' that closes the
// current form.
func (p *Parser) skipRest() error {
	depth := 1
	for depth > 0 {
		t := p.next()
		if t == nil {
			return fmt.Errorf("unexpected end of input")
		}
		switch t.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		}
	}
	return nil
}

// parseInlineExports consumes (export "name") clauses.
func (p *Parser) parseInlineExports(kind byte, idx uint32) error {
	for p.peekKeyword("export") {
		p.pos += 2
		name, err := p.expect(token.String)
		if err != nil {
			return err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
		if err := p.addExport(name.Value, kind, idx, name.Line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseMemory() error {
	idx := uint32(len(p.mod.Memories))
	p.parseOptionalName()
	if err := p.parseInlineExports(wasm.KindMemory, idx); err != nil {
		return err
	}
	min, err := p.parseU32()
	if err != nil {
		return err
	}
	limits := wasm.Limits{Min: min}
	if t := p.peek(); t != nil && t.Type == token.Number {
		max, err := p.parseU32()
		if err != nil {
			return err
		}
		limits.Max = &max
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.mod.Memories = append(p.mod.Memories, wasm.MemoryType{Limits: limits})
	return nil
}

func (p *Parser) parseGlobal() error {
	idx := uint32(len(p.mod.Globals))
	p.parseOptionalName()
	if err := p.parseInlineExports(wasm.KindGlobal, idx); err != nil {
		return err
	}

	var gt wasm.GlobalType
	if p.peekKeyword("mut") {
		p.pos += 2
		vt, err := p.parseValType()
		if err != nil {
			return err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
		gt = wasm.GlobalType{ValType: vt, Mutable: true}
	} else {
		vt, err := p.parseValType()
		if err != nil {
			return err
		}
		gt = wasm.GlobalType{ValType: vt}
	}

	init, term, err := p.parseInstrs(nil)
	if err != nil {
		return err
	}
	if term != "" {
		return fmt.Errorf("line %d: unexpected %s in global initializer", p.line(), term)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.mod.Globals = append(p.mod.Globals, wasm.Global{Type: gt, Init: init})
	return nil
}

func (p *Parser) parseExportField() error {
	name, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	var kind byte
	var idx uint32
	switch kw.Value {
	case "func":
		kind = wasm.KindFunc
		idx, err = p.parseIdx(p.funcMap, "function")
	case "memory":
		kind = wasm.KindMemory
		idx, err = p.parseIdx(p.memMap, "memory")
	case "global":
		kind = wasm.KindGlobal
		idx, err = p.parseIdx(p.globalMap, "global")
	default:
		return fmt.Errorf("line %d: unsupported export kind: %s", kw.Line, kw.Value)
	}
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	return p.addExport(name.Value, kind, idx, name.Line)
}
