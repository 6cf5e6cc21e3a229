package wasm

import (
	"errors"
	"fmt"
	"io"

	"github.com/wippyai/mathkernel/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
	ErrUnsupported    = errors.New("unsupported feature")
)

// ParseModule parses a WebAssembly binary module. Only the sections a
// self-contained numeric module uses are accepted; imports, tables, start
// functions, element and data segments are reported as ErrUnsupported.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var lastSection byte

	for {
		sectionID, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, r.WrapError("section header", err)
		}

		// custom sections can appear anywhere
		if sectionID != SectionCustom {
			if sectionID <= lastSection {
				return nil, fmt.Errorf("section %d appears out of order", sectionID)
			}
			lastSection = sectionID
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		sectionData, err := r.ReadBytes(int(sectionSize))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}
		sr := binary.NewReader(sectionData)

		switch sectionID {
		case SectionCustom:
			if err := parseCustomSection(sr, m); err != nil {
				return nil, fmt.Errorf("custom section: %w", err)
			}
			continue
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionGlobal:
			err = parseGlobalSection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionCode:
			err = parseCodeSection(sr, m)
		case SectionImport, SectionTable, SectionStart, SectionElement, SectionData, SectionDataCount:
			return nil, fmt.Errorf("%s section: %w", sectionName(sectionID), ErrUnsupported)
		default:
			return nil, fmt.Errorf("unknown section ID: 0x%02x", sectionID)
		}
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", sectionName(sectionID), err)
		}
		if sr.Len() != 0 {
			return nil, fmt.Errorf("%s section: %d trailing bytes", sectionName(sectionID), sr.Len())
		}
	}

	if len(m.Funcs) != len(m.Code) {
		return nil, fmt.Errorf("function and code section have inconsistent lengths: %d vs %d", len(m.Funcs), len(m.Code))
	}
	return m, nil
}

func sectionName(id byte) string {
	switch id {
	case SectionCustom:
		return "custom"
	case SectionType:
		return "type"
	case SectionImport:
		return "import"
	case SectionFunction:
		return "function"
	case SectionTable:
		return "table"
	case SectionMemory:
		return "memory"
	case SectionGlobal:
		return "global"
	case SectionExport:
		return "export"
	case SectionStart:
		return "start"
	case SectionElement:
		return "element"
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	case SectionDataCount:
		return "data count"
	}
	return fmt.Sprintf("section(%d)", id)
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: append([]byte(nil), r.ReadRemaining()...),
	})
	return nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, 0, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("read type form at index %d: %w", i, err)
		}
		if form != FuncTypeByte {
			return fmt.Errorf("expected functype (0x60), got 0x%02x: %w", form, ErrUnsupported)
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(count) > r.Len() {
		return nil, r.WrapError("valtypes", io.ErrUnexpectedEOF)
	}
	types := make([]ValType, count)
	for i := range types {
		vt, err := readValType(r)
		if err != nil {
			return nil, err
		}
		types[i] = vt
	}
	return types, nil
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64:
		return ValType(b), nil
	}
	return 0, fmt.Errorf("value type 0x%02x: %w", b, ErrUnsupported)
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Funcs = append(m.Funcs, idx)
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		limits, err := readLimits(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, MemoryType{Limits: limits})
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	var l Limits
	switch flag {
	case 0x00:
		l.Min, err = r.ReadU32()
	case 0x01:
		if l.Min, err = r.ReadU32(); err != nil {
			return l, err
		}
		var max uint32
		max, err = r.ReadU32()
		l.Max = &max
	default:
		return l, fmt.Errorf("limits flag 0x%02x: %w", flag, ErrUnsupported)
	}
	return l, err
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		vt, err := readValType(r)
		if err != nil {
			return err
		}
		mut, err := r.ReadByte()
		if err != nil {
			return err
		}
		if mut > 1 {
			return fmt.Errorf("global %d: invalid mutability 0x%02x", i, mut)
		}
		init, err := readConstExpr(r)
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		m.Globals = append(m.Globals, Global{
			Type: GlobalType{ValType: vt, Mutable: mut == 1},
			Init: init,
		})
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return fmt.Errorf("export %q: invalid kind 0x%02x", name, kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, 0, count)
	for i := uint32(0); i < count; i++ {
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		data, err := r.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		body, err := parseFuncBody(data)
		if err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
		m.Code = append(m.Code, body)
	}
	return nil
}

func parseFuncBody(data []byte) (FuncBody, error) {
	br := binary.NewReader(data)
	groups, err := br.ReadU32()
	if err != nil {
		return FuncBody{}, err
	}
	var body FuncBody
	var total uint64
	for j := uint32(0); j < groups; j++ {
		n, err := br.ReadU32()
		if err != nil {
			return FuncBody{}, err
		}
		total += uint64(n)
		if total > 50000 {
			return FuncBody{}, errors.New("too many locals")
		}
		vt, err := readValType(br)
		if err != nil {
			return FuncBody{}, err
		}
		body.Locals = append(body.Locals, LocalEntry{Count: n, ValType: vt})
	}
	body.Code = append([]byte(nil), br.ReadRemaining()...)
	if len(body.Code) == 0 || body.Code[len(body.Code)-1] != OpEnd {
		return FuncBody{}, errors.New("function body must end with end opcode")
	}
	return body, nil
}
