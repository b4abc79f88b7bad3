package asm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"hackc/pkg/cpu"
)

var (
	// ErrEncodingOverflow is returned for immediates and variable addresses
	// that do not fit in 15 bits.
	ErrEncodingOverflow = errors.New("encoding overflow")
	// ErrUnsupported is returned for instructions with no encoding.
	ErrUnsupported = errors.New("unsupported instruction")
	// ErrDuplicateLabel is returned when a label is bound twice.
	ErrDuplicateLabel = errors.New("duplicate label")
)

// VariableBase is the first RAM address handed out to variables.
const VariableBase uint16 = 16

var log = commonlog.GetLogger("hackc.asm")

var predefinedSymbols = func() map[string]uint16 {
	m := map[string]uint16{
		"SP":     0,
		"LCL":    1,
		"ARG":    2,
		"THIS":   3,
		"THAT":   4,
		"SCREEN": cpu.ScreenBase,
		"KBD":    cpu.KBD,
	}
	for i := uint16(0); i < 16; i++ {
		m[fmt.Sprintf("R%d", i)] = i
	}
	return m
}()

// Predefined reports the address of a built-in symbol.
func Predefined(name string) (uint16, bool) {
	v, ok := predefinedSymbols[name]
	return v, ok
}

// Assembler resolves symbols and encodes one program. The symbol table is
// rebuilt on every call to Assemble.
type Assembler struct {
	symbols   map[string]uint16
	labels    map[string]bool
	variables []string
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble encodes instrs with a fresh Assembler.
func Assemble(instrs []Instruction) ([]uint16, error) {
	return NewAssembler().Assemble(instrs)
}

// AssembleText parses and assembles assembly source.
func AssembleText(code string) ([]uint16, error) {
	instrs, err := Parse(code)
	if err != nil {
		return nil, err
	}
	return Assemble(instrs)
}

func (a *Assembler) Assemble(instrs []Instruction) ([]uint16, error) {
	a.symbols = make(map[string]uint16, len(predefinedSymbols))
	for k, v := range predefinedSymbols {
		a.symbols[k] = v
	}
	a.labels = make(map[string]bool)
	a.variables = nil

	if err := a.bindLabels(instrs); err != nil {
		return nil, err
	}
	if err := a.bindVariables(instrs); err != nil {
		return nil, err
	}
	words, err := a.encode(instrs)
	if err != nil {
		return nil, err
	}
	log.Debugf("assembled %d words, %d labels, %d variables", len(words), len(a.labels), len(a.variables))
	return words, nil
}

func (a *Assembler) bindLabels(instrs []Instruction) error {
	var pc int
	for _, in := range instrs {
		l, ok := in.(L)
		if !ok {
			pc++
			continue
		}
		if _, exists := a.symbols[l.Name]; exists {
			return fmt.Errorf("%w: '%s' at address %d", ErrDuplicateLabel, l.Name, pc)
		}
		if pc > cpu.MaxAddress {
			return fmt.Errorf("%w: label '%s' points past ROM", ErrEncodingOverflow, l.Name)
		}
		a.symbols[l.Name] = uint16(pc)
		a.labels[l.Name] = true
	}
	return nil
}

func (a *Assembler) bindVariables(instrs []Instruction) error {
	next := VariableBase
	for _, in := range instrs {
		s, ok := in.(ASymbol)
		if !ok {
			continue
		}
		if _, exists := a.symbols[s.Name]; exists {
			continue
		}
		if next > cpu.MaxAddress {
			return fmt.Errorf("%w: no address left for variable '%s'", ErrEncodingOverflow, s.Name)
		}
		a.symbols[s.Name] = next
		a.variables = append(a.variables, s.Name)
		next++
	}
	return nil
}

func (a *Assembler) encode(instrs []Instruction) ([]uint16, error) {
	program := make([]uint16, 0, len(instrs))
	for i, in := range instrs {
		switch in := in.(type) {
		case L:
		case AImm:
			if in.Value > cpu.MaxAddress {
				return nil, fmt.Errorf("%w: immediate %d at instruction %d", ErrEncodingOverflow, in.Value, i)
			}
			program = append(program, cpu.EncodeAddress(in.Value))
		case ASymbol:
			addr, ok := a.symbols[in.Name]
			if !ok {
				return nil, fmt.Errorf("unresolved symbol '%s' at instruction %d", in.Name, i)
			}
			program = append(program, cpu.EncodeAddress(addr))
		case C:
			if !in.Comp.Valid() || in.Dest > cpu.DestAMD || in.Jump > cpu.JMP {
				return nil, fmt.Errorf("%w: %s at instruction %d", ErrUnsupported, in, i)
			}
			program = append(program, cpu.EncodeInstruction(in.Dest, in.Comp, in.Jump))
		default:
			return nil, fmt.Errorf("%w: %T at instruction %d", ErrUnsupported, in, i)
		}
	}
	return program, nil
}

// Symbols returns the table built by the last Assemble call, including the
// predefined symbols.
func (a *Assembler) Symbols() map[string]uint16 {
	out := make(map[string]uint16, len(a.symbols))
	for k, v := range a.symbols {
		out[k] = v
	}
	return out
}

// Labels returns the label names of the last program, sorted.
func (a *Assembler) Labels() []string {
	out := make([]string, 0, len(a.labels))
	for k := range a.labels {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Variables returns variable names in allocation order; the i-th one lives
// at VariableBase+i.
func (a *Assembler) Variables() []string {
	return append([]string(nil), a.variables...)
}
