package translator

import (
	"fmt"

	"hackc/pkg/asm"
	"hackc/pkg/cpu"
	"hackc/pkg/vm"
)

// Layout fixes where each VM segment lives in RAM. The defaults are the
// standard Hack conventions; tests can retarget pointer/temp or the stack.
type Layout struct {
	// Base registers holding the segment base address.
	Argument string
	Local    string
	This     string
	That     string

	// Direct segments: pointer i is PointerBase+i, temp i is TempBase+i.
	PointerBase uint16
	TempBase    uint16

	// Scratch cells used by return.
	ReturnValue   string // saved return value
	FrameArg      string // ARG snapshot, the caller's SP after return
	ReturnAddress string

	StackPointer string
	StackBase    uint16
}

// DefaultLayout is SP=0, LCL=1, ARG=2, THIS=3, THAT=4, temp at 5..12 and
// R13-R15 as scratch.
func DefaultLayout() Layout {
	return Layout{
		Argument:      "ARG",
		Local:         "LCL",
		This:          "THIS",
		That:          "THAT",
		PointerBase:   3,
		TempBase:      5,
		ReturnValue:   "R13",
		FrameArg:      "R14",
		ReturnAddress: "R15",
		StackPointer:  "SP",
		StackBase:     256,
	}
}

// baseRegister returns the register for segments addressed through a base
// pointer.
func (l Layout) baseRegister(seg vm.Segment) (string, bool) {
	switch seg {
	case vm.Argument:
		return l.Argument, true
	case vm.Local:
		return l.Local, true
	case vm.This:
		return l.This, true
	case vm.That:
		return l.That, true
	}
	return "", false
}

// directAddress returns the fixed RAM address for pointer and temp slots.
// An index that carries the address past RAM is an encoding overflow.
func (l Layout) directAddress(seg vm.Segment, index uint16) (uint16, error) {
	var base uint16
	switch seg {
	case vm.Pointer:
		base = l.PointerBase
	case vm.Temp:
		base = l.TempBase
	default:
		return 0, fmt.Errorf("%w: %v has no fixed address", ErrUnsupported, seg)
	}
	addr := int(base) + int(index)
	if addr > cpu.MaxAddress {
		return 0, fmt.Errorf("%w: %v %d", asm.ErrEncodingOverflow, seg, index)
	}
	return uint16(addr), nil
}

// savedFrame is the order Call pushes the caller's registers after the
// return address. Return restores them in reverse.
func (l Layout) savedFrame() []string {
	return []string{l.Local, l.Argument, l.This, l.That}
}
