package wasm

// ImmKind describes the immediate operand that follows an opcode.
type ImmKind uint8

const (
	ImmNone   ImmKind = iota
	ImmBlock          // block type (s33)
	ImmLabel          // br, br_if
	ImmFunc           // call
	ImmLocal          // local.get/set/tee
	ImmGlobal         // global.get/set
	ImmMemory         // memory.size/grow reserved index
	ImmI32            // i32.const
	ImmI64            // i64.const
	ImmF32            // f32.const
	ImmF64            // f64.const
)

// OpInfo describes an opcode in the subset this package understands.
// Params and Results give the fixed stack signature; control and variable
// instructions leave them nil and are handled individually by the validator.
type OpInfo struct {
	Name    string
	Params  []ValType
	Results []ValType
	Imm     ImmKind
	Opcode  byte
}

var (
	opsByCode = map[byte]OpInfo{}
	opsByName = map[string]OpInfo{}
)

// LookupOpcode returns the metadata for a binary opcode.
func LookupOpcode(op byte) (OpInfo, bool) {
	info, ok := opsByCode[op]
	return info, ok
}

// LookupName returns the metadata for a text-format instruction name.
func LookupName(name string) (OpInfo, bool) {
	info, ok := opsByName[name]
	return info, ok
}

func def(op byte, name string, imm ImmKind, params, results []ValType) {
	info := OpInfo{Opcode: op, Name: name, Imm: imm, Params: params, Results: results}
	opsByCode[op] = info
	opsByName[name] = info
}

func vt(types ...ValType) []ValType { return types }

func init() {
	i32, i64, f64 := ValI32, ValI64, ValF64

	def(OpUnreachable, "unreachable", ImmNone, nil, nil)
	def(OpNop, "nop", ImmNone, nil, nil)
	def(OpBlock, "block", ImmBlock, nil, nil)
	def(OpLoop, "loop", ImmBlock, nil, nil)
	def(OpIf, "if", ImmBlock, nil, nil)
	def(OpElse, "else", ImmNone, nil, nil)
	def(OpEnd, "end", ImmNone, nil, nil)
	def(OpBr, "br", ImmLabel, nil, nil)
	def(OpBrIf, "br_if", ImmLabel, nil, nil)
	def(OpReturn, "return", ImmNone, nil, nil)
	def(OpCall, "call", ImmFunc, nil, nil)
	def(OpDrop, "drop", ImmNone, nil, nil)
	def(OpSelect, "select", ImmNone, nil, nil)

	def(OpLocalGet, "local.get", ImmLocal, nil, nil)
	def(OpLocalSet, "local.set", ImmLocal, nil, nil)
	def(OpLocalTee, "local.tee", ImmLocal, nil, nil)
	def(OpGlobalGet, "global.get", ImmGlobal, nil, nil)
	def(OpGlobalSet, "global.set", ImmGlobal, nil, nil)

	def(OpMemorySize, "memory.size", ImmMemory, nil, vt(i32))
	def(OpMemoryGrow, "memory.grow", ImmMemory, vt(i32), vt(i32))

	def(OpI32Const, "i32.const", ImmI32, nil, vt(i32))
	def(OpI64Const, "i64.const", ImmI64, nil, vt(i64))
	def(OpF32Const, "f32.const", ImmF32, nil, vt(ValF32))
	def(OpF64Const, "f64.const", ImmF64, nil, vt(f64))

	def(OpI32Eqz, "i32.eqz", ImmNone, vt(i32), vt(i32))
	for i, name := range []string{"eq", "ne", "lt_s", "lt_u", "gt_s", "gt_u", "le_s", "le_u", "ge_s", "ge_u"} {
		def(OpI32Eq+byte(i), "i32."+name, ImmNone, vt(i32, i32), vt(i32))
		def(OpI64Eq+byte(i), "i64."+name, ImmNone, vt(i64, i64), vt(i32))
	}
	def(OpI64Eqz, "i64.eqz", ImmNone, vt(i64), vt(i32))

	for i, name := range []string{"eq", "ne", "lt", "gt", "le", "ge"} {
		def(OpF64Eq+byte(i), "f64."+name, ImmNone, vt(f64, f64), vt(i32))
	}

	for i, name := range []string{"clz", "ctz", "popcnt"} {
		def(OpI32Clz+byte(i), "i32."+name, ImmNone, vt(i32), vt(i32))
		def(OpI64Clz+byte(i), "i64."+name, ImmNone, vt(i64), vt(i64))
	}
	for i, name := range []string{"add", "sub", "mul", "div_s", "div_u", "rem_s", "rem_u",
		"and", "or", "xor", "shl", "shr_s", "shr_u", "rotl", "rotr"} {
		def(OpI32Add+byte(i), "i32."+name, ImmNone, vt(i32, i32), vt(i32))
		def(OpI64Add+byte(i), "i64."+name, ImmNone, vt(i64, i64), vt(i64))
	}

	for i, name := range []string{"abs", "neg", "ceil", "floor", "trunc", "nearest", "sqrt"} {
		def(OpF64Abs+byte(i), "f64."+name, ImmNone, vt(f64), vt(f64))
	}
	for i, name := range []string{"add", "sub", "mul", "div", "min", "max", "copysign"} {
		def(OpF64Add+byte(i), "f64."+name, ImmNone, vt(f64, f64), vt(f64))
	}

	def(OpI32WrapI64, "i32.wrap_i64", ImmNone, vt(i64), vt(i32))
	def(OpI32TruncF64S, "i32.trunc_f64_s", ImmNone, vt(f64), vt(i32))
	def(OpI32TruncF64U, "i32.trunc_f64_u", ImmNone, vt(f64), vt(i32))
	def(OpI64ExtendI32S, "i64.extend_i32_s", ImmNone, vt(i32), vt(i64))
	def(OpI64ExtendI32U, "i64.extend_i32_u", ImmNone, vt(i32), vt(i64))
	def(OpI64TruncF64S, "i64.trunc_f64_s", ImmNone, vt(f64), vt(i64))
	def(OpI64TruncF64U, "i64.trunc_f64_u", ImmNone, vt(f64), vt(i64))
	def(OpF64ConvertI32S, "f64.convert_i32_s", ImmNone, vt(i32), vt(f64))
	def(OpF64ConvertI32U, "f64.convert_i32_u", ImmNone, vt(i32), vt(f64))
	def(OpF64ConvertI64S, "f64.convert_i64_s", ImmNone, vt(i64), vt(f64))
	def(OpF64ConvertI64U, "f64.convert_i64_u", ImmNone, vt(i64), vt(f64))
	def(OpI64ReinterpretF64, "i64.reinterpret_f64", ImmNone, vt(f64), vt(i64))
	def(OpF64ReinterpretI64, "f64.reinterpret_i64", ImmNone, vt(i64), vt(f64))
}
