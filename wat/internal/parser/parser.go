package parser

import (
	"fmt"

	"github.com/wippyai/mathkernel/wasm"
	"github.com/wippyai/mathkernel/wat/internal/token"
)

type Parser struct {
	mod       *wasm.Module
	typeMap   map[string]uint32
	funcMap   map[string]uint32
	globalMap map[string]uint32
	memMap    map[string]uint32
	exported  map[string]bool
	tokens    []token.Token
	labels    []string
	pos       int
}

func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens:    tokens,
		mod:       &wasm.Module{},
		typeMap:   make(map[string]uint32),
		funcMap:   make(map[string]uint32),
		globalMap: make(map[string]uint32),
		memMap:    make(map[string]uint32),
		exported:  make(map[string]bool),
	}
}

// Parse parses a complete (module ...) form.
func (p *Parser) Parse() (*wasm.Module, error) {
	return p.parseModule()
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

// peekKeyword reports whether the next tokens are '(' followed by kw.
func (p *Parser) peekKeyword(kw string) bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.pos].Type == token.LParen &&
		p.tokens[p.pos+1].Type == token.Ident && p.tokens[p.pos+1].Value == kw
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}
	if t.Type == token.Illegal {
		return nil, fmt.Errorf("line %d: %s %q", t.Line, t.Type, t.Value)
	}
	if t.Type != typ {
		return nil, fmt.Errorf("line %d: expected %v, got %q", t.Line, typ, t.Value)
	}
	return t, nil
}

func (p *Parser) expectKeyword(kw string) error {
	t, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if t.Value != kw {
		return fmt.Errorf("line %d: expected '%s', got %q", t.Line, kw, t.Value)
	}
	return nil
}

func (p *Parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 0
}

func (p *Parser) pushLabel(name string) {
	p.labels = append(p.labels, name)
}

func (p *Parser) popLabel() {
	if len(p.labels) > 0 {
		p.labels = p.labels[:len(p.labels)-1]
	}
}

func (p *Parser) resolveLabel(name string) (uint32, bool) {
	for i := len(p.labels) - 1; i >= 0; i-- {
		if p.labels[i] == name {
			return uint32(len(p.labels) - 1 - i), true
		}
	}
	return 0, false
}

func (p *Parser) parseValType() (wasm.ValType, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return 0, err
	}
	switch t.Value {
	case "i32":
		return wasm.ValI32, nil
	case "i64":
		return wasm.ValI64, nil
	case "f32":
		return wasm.ValF32, nil
	case "f64":
		return wasm.ValF64, nil
	default:
		return 0, fmt.Errorf("line %d: unknown value type: %s", t.Line, t.Value)
	}
}

// parseOptionalName consumes a $name if present.
func (p *Parser) parseOptionalName() string {
	if t := p.peek(); t != nil && t.IsName() {
		p.next()
		return t.Value
	}
	return ""
}

func (p *Parser) parseIdx(nameMap map[string]uint32, what string) (uint32, error) {
	t := p.peek()
	if t == nil {
		return 0, fmt.Errorf("expected %s index", what)
	}
	if t.IsName() {
		p.next()
		if idx, ok := nameMap[t.Value]; ok {
			return idx, nil
		}
		return 0, fmt.Errorf("line %d: unknown %s: %s", t.Line, what, t.Value)
	}
	return p.parseU32()
}

func (p *Parser) addExport(name string, kind byte, idx uint32, line int) error {
	if p.exported[name] {
		return fmt.Errorf("line %d: duplicate export %q", line, name)
	}
	p.exported[name] = true
	p.mod.Exports = append(p.mod.Exports, wasm.Export{Name: name, Kind: kind, Idx: idx})
	return nil
}
