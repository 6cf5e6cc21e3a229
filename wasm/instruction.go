package wasm

import (
	"fmt"
	"io"

	"github.com/wippyai/mathkernel/wasm/internal/binary"
)

// Instruction is a decoded instruction. Imm holds one of the *Imm types
// below, or nil for instructions without immediates.
type Instruction struct {
	Imm    interface{}
	Opcode byte
}

// BlockImm is the block type of block, loop and if.
type BlockImm struct {
	Type int32
}

// BranchImm is the relative label depth of br and br_if.
type BranchImm struct {
	LabelIdx uint32
}

// CallImm is the callee of call.
type CallImm struct {
	FuncIdx uint32
}

// LocalImm indexes a local.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm indexes a global.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm is the reserved memory index of memory.size and memory.grow.
type MemoryImm struct {
	MemIdx uint32
}

// I32Imm is the operand of i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm is the operand of i64.const.
type I64Imm struct {
	Value int64
}

// F32Imm is the operand of f32.const.
type F32Imm struct {
	Value float32
}

// F64Imm is the operand of f64.const.
type F64Imm struct {
	Value float64
}

// Name returns the text-format mnemonic of the instruction.
func (in Instruction) Name() string {
	if info, ok := opsByCode[in.Opcode]; ok {
		return info.Name
	}
	return fmt.Sprintf("op(0x%02x)", in.Opcode)
}

// DecodeInstructions decodes a complete instruction sequence.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	var out []Instruction
	for r.Len() > 0 {
		in, err := decodeInstruction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func decodeInstruction(r *binary.Reader) (Instruction, error) {
	op, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	info, ok := opsByCode[op]
	if !ok {
		return Instruction{}, r.WrapError("code", fmt.Errorf("%w: opcode 0x%02x", ErrUnsupported, op))
	}
	in := Instruction{Opcode: op}
	switch info.Imm {
	case ImmNone:
	case ImmBlock:
		v, err := r.ReadS64()
		if err != nil {
			return in, err
		}
		in.Imm = BlockImm{Type: int32(v)}
	case ImmLabel:
		v, err := r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Imm = BranchImm{LabelIdx: v}
	case ImmFunc:
		v, err := r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Imm = CallImm{FuncIdx: v}
	case ImmLocal:
		v, err := r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Imm = LocalImm{LocalIdx: v}
	case ImmGlobal:
		v, err := r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Imm = GlobalImm{GlobalIdx: v}
	case ImmMemory:
		v, err := r.ReadU32()
		if err != nil {
			return in, err
		}
		in.Imm = MemoryImm{MemIdx: v}
	case ImmI32:
		v, err := r.ReadS32()
		if err != nil {
			return in, err
		}
		in.Imm = I32Imm{Value: v}
	case ImmI64:
		v, err := r.ReadS64()
		if err != nil {
			return in, err
		}
		in.Imm = I64Imm{Value: v}
	case ImmF32:
		v, err := r.ReadF32()
		if err != nil {
			return in, err
		}
		in.Imm = F32Imm{Value: v}
	case ImmF64:
		v, err := r.ReadF64()
		if err != nil {
			return in, err
		}
		in.Imm = F64Imm{Value: v}
	}
	return in, nil
}

// EncodeInstructions encodes an instruction sequence.
func EncodeInstructions(instrs []Instruction) []byte {
	w := binary.NewWriter()
	for _, in := range instrs {
		encodeInstruction(w, in)
	}
	return w.Bytes()
}

func encodeInstruction(w *binary.Writer, in Instruction) {
	w.Byte(in.Opcode)
	switch imm := in.Imm.(type) {
	case BlockImm:
		w.WriteS64(int64(imm.Type))
	case BranchImm:
		w.WriteU32(imm.LabelIdx)
	case CallImm:
		w.WriteU32(imm.FuncIdx)
	case LocalImm:
		w.WriteU32(imm.LocalIdx)
	case GlobalImm:
		w.WriteU32(imm.GlobalIdx)
	case MemoryImm:
		w.WriteU32(imm.MemIdx)
	case I32Imm:
		w.WriteS32(imm.Value)
	case I64Imm:
		w.WriteS64(imm.Value)
	case F32Imm:
		w.WriteF32(imm.Value)
	case F64Imm:
		w.WriteF64(imm.Value)
	}
}

// readConstExpr reads instructions up to and including the terminating end.
// The returned slice excludes the end.
func readConstExpr(r *binary.Reader) ([]Instruction, error) {
	var out []Instruction
	for {
		in, err := decodeInstruction(r)
		if err != nil {
			if err == io.EOF {
				return nil, r.WrapError("const expr", io.ErrUnexpectedEOF)
			}
			return nil, err
		}
		if in.Opcode == OpEnd {
			return out, nil
		}
		out = append(out, in)
	}
}
