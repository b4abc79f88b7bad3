package cpu

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

const (
	RAMSize = 32768
	ROMSize = 32768

	// Memory map.
	ScreenBase  uint16 = 16384
	ScreenWords        = 8192
	KBD         uint16 = 24576
)

// ErrProgramTooLarge is returned by Load for images that do not fit in ROM.
var ErrProgramTooLarge = errors.New("program does not fit in ROM")

var log = commonlog.GetLogger("hackc.cpu")

// CPU is a Hack machine: two registers, a program counter, a 32K word data
// memory with the screen and keyboard mapped into it, and a read-only
// instruction memory.
type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	RAM [RAMSize]uint16
	ROM []uint16

	// Halted is set when PC runs off the end of ROM or the program enters
	// the canonical end loop (@k; 0;JMP at address k).
	Halted bool

	Cycles uint64
}

// NewCPU creates a CPU with program loaded into ROM.
func NewCPU(program ...uint16) *CPU {
	c := &CPU{}
	if err := c.Load(program); err != nil {
		log.Errorf("%s", err)
	}
	return c
}

// Load replaces ROM with program and resets the registers. RAM is kept.
func (c *CPU) Load(program []uint16) error {
	if len(program) > ROMSize {
		return fmt.Errorf("%w: %d words", ErrProgramTooLarge, len(program))
	}
	c.ROM = append(c.ROM[:0], program...)
	c.Reset()
	return nil
}

// Reset models the reset pin: registers and PC go to zero, memory survives.
func (c *CPU) Reset() {
	c.A, c.D, c.PC = 0, 0, 0
	c.Halted = false
	c.Cycles = 0
}

// PushKey sets the keyboard register to the code of the key held down.
// Zero means no key.
func (c *CPU) PushKey(val uint16) {
	c.RAM[KBD] = val
}

// ReadMem and WriteMem address RAM with the top bit ignored, as the
// hardware does.
func (c *CPU) ReadMem(addr uint16) uint16 {
	return c.RAM[addr&MaxAddress]
}

func (c *CPU) WriteMem(addr uint16, val uint16) {
	c.RAM[addr&MaxAddress] = val
}

func (c *CPU) Step() {
	if c.Halted {
		return
	}
	if int(c.PC) >= len(c.ROM) {
		c.halt("PC left ROM")
		return
	}

	pc := c.PC
	instr := c.ROM[pc]
	c.Cycles++

	if instr&0x8000 == 0 {
		c.A = instr
		c.PC++
		return
	}

	comp := Comp((instr >> 6) & 0x7F)
	dest := Dest((instr >> 3) & 7)
	jump := Jump(instr & 7)

	// Stores and the jump target all see A as it was before this cycle.
	addr := c.A
	y := addr
	if comp.UsesM() {
		y = c.ReadMem(addr)
	}
	out := ALU(c.D, y, comp)

	if dest.StoresM() {
		c.WriteMem(addr, out)
	}
	if dest.StoresA() {
		c.A = out
	}
	if dest.StoresD() {
		c.D = out
	}

	if !jump.Taken(out) {
		c.PC++
		return
	}
	c.PC = addr
	// Only an unconditional jump back onto itself or its own @addr is the
	// end loop. A conditional self jump is an ordinary countdown.
	if jump == JMP && (addr == pc || (pc > 0 && addr == pc-1 && c.ROM[addr] == addr)) {
		c.halt("end loop")
	}
}

func (c *CPU) halt(reason string) {
	c.Halted = true
	log.Debugf("halted at pc=%d after %d cycles: %s", c.PC, c.Cycles, reason)
}

// ALU evaluates the six control bits of comp on x (always D) and y (A or M).
func ALU(x, y uint16, comp Comp) uint16 {
	if comp&0x20 != 0 { // zx
		x = 0
	}
	if comp&0x10 != 0 { // nx
		x = ^x
	}
	if comp&0x08 != 0 { // zy
		y = 0
	}
	if comp&0x04 != 0 { // ny
		y = ^y
	}
	var out uint16
	if comp&0x02 != 0 { // f
		out = x + y
	} else {
		out = x & y
	}
	if comp&0x01 != 0 { // no
		out = ^out
	}
	return out
}

// Run steps until the CPU halts.
func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// RunFor executes at most n instructions and returns how many ran.
func (c *CPU) RunFor(n int) int {
	i := 0
	for ; i < n && !c.Halted; i++ {
		c.Step()
	}
	return i
}

// RunUntilDone runs with a cycle budget so a program that never reaches
// its end loop cannot hang the caller.
func (c *CPU) RunUntilDone(budget int) error {
	c.RunFor(budget)
	if !c.Halted {
		return fmt.Errorf("no halt after %d cycles (pc=%d)", budget, c.PC)
	}
	return nil
}

// SP and the other base registers are plain RAM cells; these accessors keep
// tests and tools readable.
func (c *CPU) SP() uint16 { return c.RAM[0] }

// Top returns the word just below the stack pointer.
func (c *CPU) Top() uint16 { return c.RAM[(c.RAM[0]-1)&MaxAddress] }
