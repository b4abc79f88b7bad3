package translator

import (
	"errors"
	"fmt"

	"hackc/pkg/asm"
	"hackc/pkg/vm"
)

// ErrMissingEntry is returned when a bootstrap is requested but no unit
// defines the entry function.
var ErrMissingEntry = errors.New("entry function not defined")

// DefaultEntry is the function the bootstrap jumps to.
const DefaultEntry = "Sys.init"

// Options control how units are linked into one program.
type Options struct {
	Layout Layout
	// Bootstrap prepends the SP initialisation and the jump to Entry.
	Bootstrap bool
	Entry     string
}

// DefaultOptions links with the standard layout and a bootstrap into
// Sys.init.
func DefaultOptions() Options {
	return Options{
		Layout:    DefaultLayout(),
		Bootstrap: true,
		Entry:     DefaultEntry,
	}
}

// Link orders units with Sys first and translates them into a single
// assembly program. Each unit's name is its static namespace.
func Link(units []vm.Unit, opts Options) ([]asm.Instruction, error) {
	if opts.Entry == "" {
		opts.Entry = DefaultEntry
	}
	if opts.Bootstrap && !definesFunction(units, opts.Entry) {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntry, opts.Entry)
	}
	t := NewTranslator(opts.Layout)

	var program []asm.Instruction
	if opts.Bootstrap {
		program = append(program, t.Bootstrap(opts.Entry)...)
	}
	ordered := vm.OrderUnits(units)
	for _, u := range ordered {
		out, err := t.Translate(u.Commands, u.Name)
		if err != nil {
			return nil, err
		}
		program = append(program, out...)
	}
	log.Infof("linked %d units into %d instructions", len(ordered), len(program))
	return program, nil
}

func definesFunction(units []vm.Unit, name string) bool {
	for _, u := range units {
		for _, c := range u.Commands {
			if f, ok := c.(vm.Function); ok && f.Name == name {
				return true
			}
		}
	}
	return false
}
