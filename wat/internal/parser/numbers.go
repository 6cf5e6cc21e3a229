package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/mathkernel/wat/internal/token"
)

func (p *Parser) parseU32() (uint32, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return 0, err
	}
	s := strings.ReplaceAll(t.Value, "_", "")
	val, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid number: %s", t.Line, t.Value)
	}
	return uint32(val), nil
}

// parseI32 accepts the signed and unsigned 32-bit ranges; unsigned values
// above MaxInt32 wrap to their two's complement form.
func (p *Parser) parseI32() (int32, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return 0, err
	}
	s := strings.ReplaceAll(t.Value, "_", "")
	if v, err := strconv.ParseInt(s, 0, 32); err == nil {
		return int32(v), nil
	}
	if u, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 32); err == nil {
		return int32(uint32(u)), nil
	}
	return 0, fmt.Errorf("line %d: i32 constant out of range: %s", t.Line, t.Value)
}

func (p *Parser) parseI64() (int64, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return 0, err
	}
	s := strings.ReplaceAll(t.Value, "_", "")
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	if u, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 64); err == nil {
		return int64(u), nil
	}
	return 0, fmt.Errorf("line %d: i64 constant out of range: %s", t.Line, t.Value)
}

func (p *Parser) parseF32() (float32, error) {
	v, err := p.parseFloat(32)
	return float32(v), err
}

func (p *Parser) parseF64() (float64, error) {
	return p.parseFloat(64)
}

func (p *Parser) parseFloat(bits int) (float64, error) {
	t := p.next()
	if t == nil {
		return 0, fmt.Errorf("unexpected end of input")
	}
	if t.Type == token.Ident {
		if v, ok := specialFloat(t.Value); ok {
			return v, nil
		}
	}
	if t.Type != token.Number {
		return 0, fmt.Errorf("line %d: expected float, got %q", t.Line, t.Value)
	}
	s := strings.ReplaceAll(t.Value, "_", "")
	lower := strings.ToLower(s)
	if strings.Contains(lower, "0x") && !strings.Contains(lower, "p") {
		s += "p0"
	}
	val, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid f%d: %s", t.Line, bits, t.Value)
	}
	return val, nil
}

func specialFloat(s string) (float64, bool) {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")
	switch {
	case s == "inf":
		if neg {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	case s == "nan":
		if neg {
			return math.Float64frombits(0xFFF8000000000000), true
		}
		return math.NaN(), true
	case strings.HasPrefix(s, "nan:0x"):
		payload, err := strconv.ParseUint(strings.ReplaceAll(s[6:], "_", ""), 16, 52)
		if err != nil || payload == 0 {
			return 0, false
		}
		bits := uint64(0x7FF0000000000000) | payload
		if neg {
			bits |= 1 << 63
		}
		return math.Float64frombits(bits), true
	}
	return 0, false
}
