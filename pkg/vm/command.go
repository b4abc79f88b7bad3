package vm

import "fmt"

// Segment names a push/pop address space.
type Segment int

const (
	Argument Segment = iota
	Local
	Static
	Constant
	This
	That
	Pointer
	Temp
)

var segmentNames = [...]string{
	Argument: "argument",
	Local:    "local",
	Static:   "static",
	Constant: "constant",
	This:     "this",
	That:     "that",
	Pointer:  "pointer",
	Temp:     "temp",
}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return fmt.Sprintf("segment(%d)", int(s))
	}
	return segmentNames[s]
}

// Valid reports whether s is one of the eight known segments.
func (s Segment) Valid() bool {
	return s >= Argument && s <= Temp
}

// Op is a stack-only arithmetic or logical command.
type Op int

const (
	Add Op = iota
	Sub
	Neg
	Eq
	Gt
	Lt
	And
	Or
	Not
)

var opNames = [...]string{
	Add: "add",
	Sub: "sub",
	Neg: "neg",
	Eq:  "eq",
	Gt:  "gt",
	Lt:  "lt",
	And: "and",
	Or:  "or",
	Not: "not",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return opNames[o]
}

// Unary reports whether the op consumes a single operand.
func (o Op) Unary() bool {
	return o == Neg || o == Not
}

// Command is implemented by every VM IR command.
// A stream of commands is produced once by the code generator and
// consumed once by the translator.
type Command interface {
	vmCommand()
	String() string
}

// Push copies segment[index] onto the stack.
//
//	push local 2
type Push struct {
	Segment Segment
	Index   uint16
}

func (Push) vmCommand() {}
func (c Push) String() string {
	return fmt.Sprintf("push %s %d", c.Segment, c.Index)
}

// Pop moves the top of the stack into segment[index].
type Pop struct {
	Segment Segment
	Index   uint16
}

func (Pop) vmCommand() {}
func (c Pop) String() string {
	return fmt.Sprintf("pop %s %d", c.Segment, c.Index)
}

// Arithmetic is one of add, sub, neg, eq, gt, lt, and, or, not.
type Arithmetic struct {
	Op Op
}

func (Arithmetic) vmCommand()       {}
func (c Arithmetic) String() string { return c.Op.String() }

// Label marks a branch target inside the enclosing function.
type Label struct {
	Name string
}

func (Label) vmCommand()       {}
func (c Label) String() string { return "label " + c.Name }

// Goto is an unconditional jump to a label of the enclosing function.
type Goto struct {
	Name string
}

func (Goto) vmCommand()       {}
func (c Goto) String() string { return "goto " + c.Name }

// IfGoto pops the stack and jumps when the value is non-zero.
type IfGoto struct {
	Name string
}

func (IfGoto) vmCommand()       {}
func (c IfGoto) String() string { return "if-goto " + c.Name }

// Function starts a function body with NLocals local slots.
type Function struct {
	Name    string
	NLocals uint16
}

func (Function) vmCommand() {}
func (c Function) String() string {
	return fmt.Sprintf("function %s %d", c.Name, c.NLocals)
}

// Call invokes Name with the NArgs values on top of the stack.
type Call struct {
	Name  string
	NArgs uint16
}

func (Call) vmCommand() {}
func (c Call) String() string {
	return fmt.Sprintf("call %s %d", c.Name, c.NArgs)
}

// Return leaves the current function, replacing its arguments with the
// value on top of the stack.
type Return struct{}

func (Return) vmCommand()     {}
func (Return) String() string { return "return" }

// Shorthands used by the code generator and tests.

func PushConst(v uint16) Push { return Push{Segment: Constant, Index: v} }

var (
	AddCmd = Arithmetic{Op: Add}
	SubCmd = Arithmetic{Op: Sub}
	NegCmd = Arithmetic{Op: Neg}
	EqCmd  = Arithmetic{Op: Eq}
	GtCmd  = Arithmetic{Op: Gt}
	LtCmd  = Arithmetic{Op: Lt}
	AndCmd = Arithmetic{Op: And}
	OrCmd  = Arithmetic{Op: Or}
	NotCmd = Arithmetic{Op: Not}
)
