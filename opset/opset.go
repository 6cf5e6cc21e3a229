package opset

import (
	"strings"

	"go.bytecodealliance.org/wit"
)

// Param is a named, WIT-typed function parameter or local.
type Param struct {
	Type wit.Type
	Name string
}

// Op is one exported kernel operation. Body is the WAT instruction sequence
// of the function; params and locals are addressed by name ($a, $x, ...).
type Op struct {
	Result   wit.Type // nil when the op returns nothing
	Name     string
	Body     string
	Doc      string
	Params   []Param
	Locals   []Param
	Fallback bool
}

// Signature renders the op as a WIT function type, e.g.
// "func(a: f64, b: f64) -> f64".
func (o *Op) Signature() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range o.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(TypeName(p.Type))
	}
	b.WriteByte(')')
	if o.Result != nil {
		b.WriteString(" -> ")
		b.WriteString(TypeName(o.Result))
	}
	return b.String()
}

// ParamTypes returns the WIT parameter types in order.
func (o *Op) ParamTypes() []wit.Type {
	types := make([]wit.Type, len(o.Params))
	for i, p := range o.Params {
		types[i] = p.Type
	}
	return types
}

var (
	index    map[string]int
	fallback []string
)

func init() {
	index = make(map[string]int, len(ops))
	for i := range ops {
		index[ops[i].Name] = i
		if ops[i].Fallback {
			fallback = append(fallback, ops[i].Name)
		}
	}
}

// All returns a copy of the operation set in export order.
func All() []Op {
	out := make([]Op, len(ops))
	copy(out, ops)
	return out
}

// Lookup returns the op with the given name.
func Lookup(name string) (Op, bool) {
	i, ok := index[name]
	if !ok {
		return Op{}, false
	}
	return ops[i], true
}

// Names returns every op name in export order.
func Names() []string {
	names := make([]string, len(ops))
	for i := range ops {
		names[i] = ops[i].Name
	}
	return names
}

// FallbackNames returns the ops carried by the fallback module, in export
// order.
func FallbackNames() []string {
	out := make([]string, len(fallback))
	copy(out, fallback)
	return out
}
