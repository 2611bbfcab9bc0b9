// Package bytecode defines Sif's stack-oriented instruction format: the
// instruction stream, constant pool, and the per-instruction and
// per-call-site debug tables.
package bytecode

// Opcode identifies a single VM instruction.
type Opcode byte

const (
	Constant Opcode = iota // u16 idx: push constants[idx] (copy if Copyable)
	Short                  // u16: push small integer
	True
	False
	Empty
	GetIt
	SetIt
	Pop
	Jump          // u16 offset: ip += offset
	JumpIfFalse   // u16: peek bool; jump if matches; else fall through
	JumpIfTrue
	JumpIfAtEnd // u16: peek Enumerator; jump if exhausted
	Repeat      // u16 offset: ip -= offset
	PushJump    // u16: push try-handler (stack depth + target ip)
	PopJump
	Negate
	Not
	Increment
	Add
	Subtract
	Multiply
	Divide
	Modulo
	Exponent
	Equal
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	OpenRange   // pop end, start; push Range (half-open)
	ClosedRange // pop end, start; push Range (closed)
	List        // u16 count
	Dictionary  // u16 count: pop count key/value pairs
	UnpackList  // u16 count: pop List, push elements; error if size != count
	Subscript
	SetSubscript
	GetEnumerator
	Enumerate
	GetGlobal // u16 name-const
	SetGlobal
	GetLocal // u16 slot
	SetLocal
	GetCapture // u16 slot
	SetCapture
	Call // u16 argCount
	Return
	ToString
	Show
)

var names = map[Opcode]string{
	Constant: "CONSTANT", Short: "SHORT", True: "TRUE", False: "FALSE", Empty: "EMPTY",
	GetIt: "GET_IT", SetIt: "SET_IT", Pop: "POP",
	Jump: "JUMP", JumpIfFalse: "JUMP_IF_FALSE", JumpIfTrue: "JUMP_IF_TRUE",
	JumpIfAtEnd: "JUMP_IF_AT_END", Repeat: "REPEAT",
	PushJump: "PUSH_JUMP", PopJump: "POP_JUMP",
	Negate: "NEGATE", Not: "NOT", Increment: "INCREMENT",
	Add: "ADD", Subtract: "SUBTRACT", Multiply: "MULTIPLY", Divide: "DIVIDE",
	Modulo: "MODULO", Exponent: "EXPONENT",
	Equal: "EQUAL", NotEqual: "NOT_EQUAL", LessThan: "LESS_THAN",
	LessThanOrEqual: "LESS_THAN_OR_EQUAL", GreaterThan: "GREATER_THAN",
	GreaterThanOrEqual: "GREATER_THAN_OR_EQUAL",
	OpenRange:          "OPEN_RANGE", ClosedRange: "CLOSED_RANGE",
	List: "LIST", Dictionary: "DICTIONARY", UnpackList: "UNPACK_LIST",
	Subscript: "SUBSCRIPT", SetSubscript: "SET_SUBSCRIPT",
	GetEnumerator: "GET_ENUMERATOR", Enumerate: "ENUMERATE",
	GetGlobal: "GET_GLOBAL", SetGlobal: "SET_GLOBAL",
	GetLocal: "GET_LOCAL", SetLocal: "SET_LOCAL",
	GetCapture: "GET_CAPTURE", SetCapture: "SET_CAPTURE",
	Call: "CALL", Return: "RETURN", ToString: "TO_STRING", Show: "SHOW",
}

func (op Opcode) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return "UNKNOWN"
}

// operandWidths gives the number of operand bytes following each opcode,
// consulted by the disassembler and by jump-patching.
var operandWidths = map[Opcode]int{
	Constant: 2, Short: 2,
	Jump: 2, JumpIfFalse: 2, JumpIfTrue: 2, JumpIfAtEnd: 2, Repeat: 2, PushJump: 2,
	List: 2, Dictionary: 2, UnpackList: 2,
	GetGlobal: 2, SetGlobal: 2, GetLocal: 2, SetLocal: 2, GetCapture: 2, SetCapture: 2,
	Call: 2,
}

// OperandWidth returns how many bytes of operand follow op (0 if none).
func OperandWidth(op Opcode) int { return operandWidths[op] }
