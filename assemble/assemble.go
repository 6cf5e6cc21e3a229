package assemble

import (
	"strconv"
	"strings"

	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/opset"
)

// MemoryPages is the initial size of the exported linear memory.
const MemoryPages = 1

// Source is the assembled text of a kernel module.
type Source struct {
	WAT string
	WIT string
}

// Build renders both the WAT module and the WIT listing for ops.
func Build(ops []opset.Op) (Source, error) {
	watText, err := WAT(ops)
	if err != nil {
		return Source{}, err
	}
	witText, err := WIT(ops)
	if err != nil {
		return Source{}, err
	}
	return Source{WAT: watText, WIT: witText}, nil
}

// WAT renders ops as a module: the exported memory, the globals, one
// exported function per op in the given order, then the internal helpers.
// Bodies may call other ops by $name; a call to an op missing from ops
// surfaces as a compile error.
func WAT(ops []opset.Op) (string, error) {
	if err := check(ops); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("(module\n")
	b.WriteString("  (memory (export \"memory\") ")
	b.WriteString(strconv.Itoa(MemoryPages))
	b.WriteString(")\n\n")

	for _, g := range opset.Globals() {
		vt, err := opset.Lower(g.Type)
		if err != nil {
			return "", errors.New(errors.PhaseAssemble, errors.KindUnsupported).
				Path("global", g.Name).Cause(err).Build()
		}
		b.WriteString("  (global $")
		b.WriteString(g.Name)
		b.WriteByte(' ')
		if g.Mutable {
			b.WriteString("(mut ")
			b.WriteString(vt.String())
			b.WriteByte(')')
		} else {
			b.WriteString(vt.String())
		}
		b.WriteByte(' ')
		b.WriteString(g.Init)
		b.WriteString(")\n")
	}

	for i := range ops {
		b.WriteByte('\n')
		if err := writeFunc(&b, &ops[i]); err != nil {
			return "", err
		}
	}

	for _, h := range opset.Helpers() {
		b.WriteString("\n  ")
		b.WriteString(h)
		b.WriteByte('\n')
	}

	b.WriteString(")\n")
	return b.String(), nil
}

func writeFunc(b *strings.Builder, op *opset.Op) error {
	b.WriteString("  ;; ")
	b.WriteString(op.Doc)
	b.WriteString("\n  (func $")
	b.WriteString(op.Name)
	b.WriteString(" (export \"")
	b.WriteString(op.Name)
	b.WriteString("\")")

	for _, p := range op.Params {
		if err := writeDecl(b, "param", op.Name, p); err != nil {
			return err
		}
	}
	if op.Result != nil {
		vt, err := opset.Lower(op.Result)
		if err != nil {
			return errors.New(errors.PhaseAssemble, errors.KindUnsupported).
				Path(op.Name, "result").Cause(err).Build()
		}
		b.WriteString(" (result ")
		b.WriteString(vt.String())
		b.WriteByte(')')
	}
	if len(op.Locals) > 0 {
		b.WriteString("\n   ")
		for _, l := range op.Locals {
			if err := writeDecl(b, "local", op.Name, l); err != nil {
				return err
			}
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(op.Body), "\n") {
		b.WriteString("\n    ")
		b.WriteString(line)
	}
	b.WriteString(")\n")
	return nil
}

func writeDecl(b *strings.Builder, kw, op string, p opset.Param) error {
	vt, err := opset.Lower(p.Type)
	if err != nil {
		return errors.New(errors.PhaseAssemble, errors.KindUnsupported).
			Path(op, p.Name).Cause(err).Build()
	}
	b.WriteString(" (")
	b.WriteString(kw)
	b.WriteString(" $")
	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(vt.String())
	b.WriteByte(')')
	return nil
}

// WIT renders the signatures of ops as a WIT interface.
func WIT(ops []opset.Op) (string, error) {
	if err := check(ops); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("interface kernel {\n")
	for i := range ops {
		b.WriteString("  ")
		b.WriteString(ops[i].Name)
		b.WriteString(": ")
		b.WriteString(ops[i].Signature())
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// check rejects malformed op definitions. These are build defects, not
// runtime conditions.
func check(ops []opset.Op) error {
	seen := make(map[string]bool, len(ops))
	for i := range ops {
		name := ops[i].Name
		if !validName(name) {
			return errors.New(errors.PhaseAssemble, errors.KindInvalidInput).
				Path(name).Detail("invalid operation name").Build()
		}
		if seen[name] || name == "memory" {
			return errors.New(errors.PhaseAssemble, errors.KindDuplicate).
				Path(name).Detail("duplicate export name").Build()
		}
		seen[name] = true
		if strings.TrimSpace(ops[i].Body) == "" {
			return errors.New(errors.PhaseAssemble, errors.KindInvalidInput).
				Path(name).Detail("empty body").Build()
		}
	}
	return nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
