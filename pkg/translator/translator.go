package translator

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"hackc/pkg/asm"
	"hackc/pkg/cpu"
	"hackc/pkg/vm"
)

// ErrUnsupported is returned for VM commands, segments or ops that have no
// lowering.
var ErrUnsupported = errors.New("unsupported vm command")

var log = commonlog.GetLogger("hackc.translator")

var comparisonJumps = map[vm.Op]cpu.Jump{
	vm.Eq: cpu.JEQ,
	vm.Gt: cpu.JGT,
	vm.Lt: cpu.JLT,
}

var binaryComps = map[vm.Op]cpu.Comp{
	vm.Add: cpu.CompDPlusM,
	vm.Sub: cpu.CompMMinusD,
	vm.And: cpu.CompDAndM,
	vm.Or:  cpu.CompDOrM,
}

// Translator lowers VM commands to assembly. One Translator should be used
// for a whole program: its label counter is what keeps return-address and
// comparison labels unique across units.
type Translator struct {
	layout Layout

	counter   int
	namespace string
	function  string
	out       []asm.Instruction
}

func NewTranslator(layout Layout) *Translator {
	return &Translator{layout: layout}
}

// Translate lowers a single unit with the default layout.
func Translate(cmds []vm.Command, namespace string) ([]asm.Instruction, error) {
	return NewTranslator(DefaultLayout()).Translate(cmds, namespace)
}

// Translate lowers cmds. namespace names the unit's static segment: static i
// becomes the assembly variable "{namespace}.{i}".
func (t *Translator) Translate(cmds []vm.Command, namespace string) ([]asm.Instruction, error) {
	t.namespace = namespace
	t.function = ""
	t.out = nil

	for i, cmd := range cmds {
		if err := t.translate(cmd); err != nil {
			t.out = nil
			return nil, fmt.Errorf("%s: command %d (%v): %w", namespace, i, cmd, err)
		}
	}

	out := t.out
	t.out = nil
	log.Debugf("translated %s: %d vm commands, %d instructions", namespace, len(cmds), len(out))
	return out, nil
}

// Bootstrap sets SP to the stack base and jumps to entry.
func (t *Translator) Bootstrap(entry string) []asm.Instruction {
	return []asm.Instruction{
		asm.Imm(t.layout.StackBase),
		asm.Cmp(cpu.DestD, cpu.CompA),
		asm.At(t.layout.StackPointer),
		asm.Cmp(cpu.DestM, cpu.CompD),
		asm.At(entry),
		asm.Jmp(cpu.CompZero, cpu.JMP),
	}
}

func (t *Translator) translate(cmd vm.Command) error {
	switch c := cmd.(type) {
	case vm.Push:
		return t.push(c.Segment, c.Index)
	case vm.Pop:
		return t.pop(c.Segment, c.Index)
	case vm.Arithmetic:
		return t.arithmetic(c.Op)
	case vm.Label:
		t.emit(asm.L{Name: t.scopedLabel(c.Name)})
	case vm.Goto:
		t.emit(asm.At(t.scopedLabel(c.Name)), asm.Jmp(cpu.CompZero, cpu.JMP))
	case vm.IfGoto:
		t.popD()
		t.emit(asm.At(t.scopedLabel(c.Name)), asm.Jmp(cpu.CompD, cpu.JNE))
	case vm.Function:
		t.writeFunction(c.Name, c.NLocals)
	case vm.Call:
		return t.writeCall(c.Name, c.NArgs)
	case vm.Return:
		t.writeReturn()
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, cmd)
	}
	return nil
}

func (t *Translator) emit(instrs ...asm.Instruction) {
	t.out = append(t.out, instrs...)
}

// pushD stores D at RAM[SP] and increments SP.
func (t *Translator) pushD() {
	sp := t.layout.StackPointer
	t.emit(
		asm.At(sp),
		asm.Cmp(cpu.DestA, cpu.CompM),
		asm.Cmp(cpu.DestM, cpu.CompD),
		asm.At(sp),
		asm.Cmp(cpu.DestM, cpu.CompMPlus1),
	)
}

// popD decrements SP and loads the popped value into D.
func (t *Translator) popD() {
	t.emit(
		asm.At(t.layout.StackPointer),
		asm.Cmp(cpu.DestAM, cpu.CompMMinus1),
		asm.Cmp(cpu.DestD, cpu.CompM),
	)
}

func (t *Translator) push(seg vm.Segment, index uint16) error {
	switch seg {
	case vm.Constant:
		t.emit(asm.Imm(index), asm.Cmp(cpu.DestD, cpu.CompA))
	case vm.Static:
		t.emit(asm.At(t.staticSymbol(index)), asm.Cmp(cpu.DestD, cpu.CompM))
	case vm.Pointer, vm.Temp:
		addr, err := t.layout.directAddress(seg, index)
		if err != nil {
			return err
		}
		t.emit(asm.Imm(addr), asm.Cmp(cpu.DestD, cpu.CompM))
	default:
		base, ok := t.layout.baseRegister(seg)
		if !ok {
			return fmt.Errorf("%w: push %v", ErrUnsupported, seg)
		}
		t.emit(
			asm.Imm(index),
			asm.Cmp(cpu.DestD, cpu.CompA),
			asm.At(base),
			asm.Cmp(cpu.DestA, cpu.CompDPlusM),
			asm.Cmp(cpu.DestD, cpu.CompM),
		)
	}
	t.pushD()
	return nil
}

func (t *Translator) pop(seg vm.Segment, index uint16) error {
	sp := t.layout.StackPointer
	switch seg {
	case vm.Constant:
		t.emit(asm.At(sp), asm.Cmp(cpu.DestM, cpu.CompMMinus1))
	case vm.Static:
		t.popD()
		t.emit(asm.At(t.staticSymbol(index)), asm.Cmp(cpu.DestM, cpu.CompD))
	case vm.Pointer, vm.Temp:
		addr, err := t.layout.directAddress(seg, index)
		if err != nil {
			return err
		}
		t.popD()
		t.emit(asm.Imm(addr), asm.Cmp(cpu.DestM, cpu.CompD))
	default:
		base, ok := t.layout.baseRegister(seg)
		if !ok {
			return fmt.Errorf("%w: pop %v", ErrUnsupported, seg)
		}
		// The target address is parked in the free slot at RAM[SP] before
		// the value below it is read.
		t.emit(
			asm.Imm(index),
			asm.Cmp(cpu.DestD, cpu.CompA),
			asm.At(base),
			asm.Cmp(cpu.DestD, cpu.CompDPlusM),
			asm.At(sp),
			asm.Cmp(cpu.DestA, cpu.CompM),
			asm.Cmp(cpu.DestM, cpu.CompD),
			asm.Cmp(cpu.DestA, cpu.CompAMinus1),
			asm.Cmp(cpu.DestD, cpu.CompM),
			asm.At(sp),
			asm.Cmp(cpu.DestA, cpu.CompM),
			asm.Cmp(cpu.DestA, cpu.CompM),
			asm.Cmp(cpu.DestM, cpu.CompD),
			asm.At(sp),
			asm.Cmp(cpu.DestM, cpu.CompMMinus1),
		)
	}
	return nil
}

func (t *Translator) arithmetic(op vm.Op) error {
	switch op {
	case vm.Neg, vm.Not:
		comp := cpu.CompNegD
		if op == vm.Not {
			comp = cpu.CompNotD
		}
		t.popD()
		t.emit(asm.Cmp(cpu.DestD, comp))
		t.pushD()
		return nil
	}

	if comp, ok := binaryComps[op]; ok {
		t.popLeft()
		t.emit(asm.Cmp(cpu.DestD, comp))
		t.pushD()
		return nil
	}

	jump, ok := comparisonJumps[op]
	if !ok {
		return fmt.Errorf("%w: op %v", ErrUnsupported, op)
	}
	n := t.next()
	prefix := t.scope()
	trueLabel := fmt.Sprintf("%s$%s_TRUE.%d", prefix, op, n)
	endLabel := fmt.Sprintf("%s$%s_END.%d", prefix, op, n)

	t.popLeft()
	t.emit(
		asm.Cmp(cpu.DestD, cpu.CompMMinusD),
		asm.At(trueLabel),
		asm.Jmp(cpu.CompD, jump),
		asm.Cmp(cpu.DestD, cpu.CompZero),
		asm.At(endLabel),
		asm.Jmp(cpu.CompZero, cpu.JMP),
		asm.L{Name: trueLabel},
		asm.Cmp(cpu.DestD, cpu.CompMinusOne),
		asm.L{Name: endLabel},
	)
	t.pushD()
	return nil
}

// popLeft pops the right operand into D and leaves A pointing at the left
// operand, which is popped as well.
func (t *Translator) popLeft() {
	t.popD()
	t.emit(
		asm.At(t.layout.StackPointer),
		asm.Cmp(cpu.DestAM, cpu.CompMMinus1),
	)
}

func (t *Translator) writeFunction(name string, nLocals uint16) {
	t.function = name
	sp := t.layout.StackPointer
	t.emit(
		asm.L{Name: name},
		asm.At(sp),
		asm.Cmp(cpu.DestD, cpu.CompM),
		asm.At(t.layout.Local),
		asm.Cmp(cpu.DestM, cpu.CompD),
	)
	for i := uint16(0); i < nLocals; i++ {
		t.emit(
			asm.At(sp),
			asm.Cmp(cpu.DestA, cpu.CompM),
			asm.Cmp(cpu.DestM, cpu.CompZero),
			asm.At(sp),
			asm.Cmp(cpu.DestM, cpu.CompMPlus1),
		)
	}
}

func (t *Translator) writeCall(name string, nArgs uint16) error {
	// The frame offset is an immediate, so it must fit in 15 bits.
	offset := int(nArgs) + len(t.layout.savedFrame()) + 1
	if offset > cpu.MaxAddress {
		return fmt.Errorf("%w: call %s %d", asm.ErrEncodingOverflow, name, nArgs)
	}
	ret := fmt.Sprintf("%s$ret.%d", t.scope(), t.next())
	sp := t.layout.StackPointer

	t.emit(asm.At(ret), asm.Cmp(cpu.DestD, cpu.CompA))
	t.pushD()
	for _, reg := range t.layout.savedFrame() {
		t.emit(asm.At(reg), asm.Cmp(cpu.DestD, cpu.CompM))
		t.pushD()
	}

	// ARG = SP - nArgs - 5
	t.emit(
		asm.At(sp),
		asm.Cmp(cpu.DestD, cpu.CompM),
		asm.Imm(uint16(offset)),
		asm.Cmp(cpu.DestD, cpu.CompDMinusA),
		asm.At(t.layout.Argument),
		asm.Cmp(cpu.DestM, cpu.CompD),
	)
	// LCL = SP
	t.emit(
		asm.At(sp),
		asm.Cmp(cpu.DestD, cpu.CompM),
		asm.At(t.layout.Local),
		asm.Cmp(cpu.DestM, cpu.CompD),
	)
	t.emit(
		asm.At(name),
		asm.Jmp(cpu.CompZero, cpu.JMP),
		asm.L{Name: ret},
	)
	return nil
}

func (t *Translator) writeReturn() {
	l := t.layout
	sp := l.StackPointer

	t.popD()
	t.emit(asm.At(l.ReturnValue), asm.Cmp(cpu.DestM, cpu.CompD))

	t.emit(
		asm.At(l.Argument),
		asm.Cmp(cpu.DestD, cpu.CompM),
		asm.At(l.FrameArg),
		asm.Cmp(cpu.DestM, cpu.CompD),
	)

	// Unwind to the saved frame and pop it in reverse order.
	t.emit(
		asm.At(l.Local),
		asm.Cmp(cpu.DestD, cpu.CompM),
		asm.At(sp),
		asm.Cmp(cpu.DestM, cpu.CompD),
	)
	frame := l.savedFrame()
	for i := len(frame) - 1; i >= 0; i-- {
		t.popD()
		t.emit(asm.At(frame[i]), asm.Cmp(cpu.DestM, cpu.CompD))
	}
	t.popD()
	t.emit(asm.At(l.ReturnAddress), asm.Cmp(cpu.DestM, cpu.CompD))

	t.emit(
		asm.At(l.FrameArg),
		asm.Cmp(cpu.DestD, cpu.CompM),
		asm.At(sp),
		asm.Cmp(cpu.DestM, cpu.CompD),
		asm.At(l.ReturnValue),
		asm.Cmp(cpu.DestD, cpu.CompM),
	)
	t.pushD()

	t.emit(
		asm.At(l.ReturnAddress),
		asm.Cmp(cpu.DestA, cpu.CompM),
		asm.Jmp(cpu.CompZero, cpu.JMP),
	)
}

func (t *Translator) next() int {
	n := t.counter
	t.counter++
	return n
}

// scope is the enclosing function, or the unit namespace for commands that
// precede any function.
func (t *Translator) scope() string {
	if t.function != "" {
		return t.function
	}
	return t.namespace
}

func (t *Translator) scopedLabel(name string) string {
	return t.scope() + "." + name
}

func (t *Translator) staticSymbol(index uint16) string {
	return fmt.Sprintf("%s.%d", t.namespace, index)
}
