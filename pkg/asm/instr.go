package asm

import (
	"fmt"

	"hackc/pkg/cpu"
)

// Instruction is one assembly command.
type Instruction interface {
	asmInstruction()
	String() string
}

// AImm loads a literal into A.
//
//	@17
type AImm struct {
	Value uint16
}

func (AImm) asmInstruction()  {}
func (i AImm) String() string { return fmt.Sprintf("@%d", i.Value) }

// ASymbol loads the address bound to Name into A. The name is resolved by
// the assembler: a label, a predefined register, or a fresh variable.
//
//	@LOOP
type ASymbol struct {
	Name string
}

func (ASymbol) asmInstruction()  {}
func (i ASymbol) String() string { return "@" + i.Name }

// C is a compute instruction.
//
//	AM=M-1
//	D;JNE
type C struct {
	Dest cpu.Dest
	Comp cpu.Comp
	Jump cpu.Jump
}

func (C) asmInstruction() {}
func (i C) String() string {
	return cpu.Instruction{Dest: i.Dest, Comp: i.Comp, Jump: i.Jump}.String()
}

// L binds Name to the address of the next real instruction. It occupies no
// ROM word.
//
//	(LOOP)
type L struct {
	Name string
}

func (L) asmInstruction()  {}
func (i L) String() string { return "(" + i.Name + ")" }

// At is shorthand for ASymbol.
func At(symbol string) Instruction { return ASymbol{Name: symbol} }

// Imm is shorthand for AImm.
func Imm(v uint16) Instruction { return AImm{Value: v} }

// Cmp builds a C-instruction without a jump.
func Cmp(dest cpu.Dest, comp cpu.Comp) Instruction {
	return C{Dest: dest, Comp: comp}
}

// Jmp builds a C-instruction that only jumps.
func Jmp(comp cpu.Comp, jump cpu.Jump) Instruction {
	return C{Comp: comp, Jump: jump}
}
