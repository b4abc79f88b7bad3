// Package compiler lowers Jack class ASTs to VM commands and drives the
// rest of the toolchain down to Hack machine words.
//
// Pipeline: Class AST → Generate → VM units → translator.Link → assembly → asm.Assemble → words
package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"hackc/pkg/asm"
	"hackc/pkg/translator"
	"hackc/pkg/utils"
	"hackc/pkg/vm"
)

var log = commonlog.GetLogger("hackc.compiler")

// Parser turns Jack source into a class AST. No parser ships with this
// package; callers plug one in.
type Parser interface {
	Parse(source string) (*Class, error)
}

type Options struct {
	Link translator.Options
	// Parallel generates classes concurrently. Labels are per class, so
	// the output does not depend on it.
	Parallel bool
	// Library units are linked after the compiled classes, e.g. OS code.
	Library []vm.Unit
	// Parser is used by BuildFiles for .jack inputs.
	Parser Parser
}

func DefaultOptions() Options {
	return Options{
		Link:     translator.DefaultOptions(),
		Parallel: true,
	}
}

// Program is the output of every stage of one build.
type Program struct {
	Units   []vm.Unit
	Asm     []asm.Instruction
	Words   []uint16
	Symbols map[string]uint16
	Entry   string
}

// Image packs the program for asm.MarshalImage.
func (p *Program) Image() *asm.Image {
	img := &asm.Image{Words: p.Words, Symbols: p.Symbols, Entry: p.Entry}
	for _, u := range vm.OrderUnits(p.Units) {
		img.Units = append(img.Units, u.Name)
	}
	return img
}

// GenerateAll lowers each class into a unit named after it. The result
// keeps the input order.
func GenerateAll(classes []*Class, parallel bool) ([]vm.Unit, error) {
	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		if c == nil {
			return nil, fmt.Errorf("%w: nil class", ErrUnsupported)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: class %s", ErrDuplicateSymbol, c.Name)
		}
		seen[c.Name] = true
	}

	units := make([]vm.Unit, len(classes))
	var g errgroup.Group
	if parallel {
		g.SetLimit(runtime.NumCPU())
	} else {
		g.SetLimit(1)
	}
	for i, c := range classes {
		g.Go(func() error {
			cmds, err := Generate(c)
			if err != nil {
				return err
			}
			units[i] = vm.Unit{Name: c.Name, Commands: cmds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// Compile generates, links and assembles classes into one program.
func Compile(classes []*Class, opts Options) (*Program, error) {
	units, err := GenerateAll(classes, opts.Parallel)
	if err != nil {
		return nil, err
	}
	return Link(append(units, opts.Library...), opts)
}

// Link translates VM units and assembles the result.
func Link(units []vm.Unit, opts Options) (*Program, error) {
	instrs, err := translator.Link(units, opts.Link)
	if err != nil {
		return nil, err
	}
	a := asm.NewAssembler()
	words, err := a.Assemble(instrs)
	if err != nil {
		return nil, fmt.Errorf("assembly error: %w", err)
	}
	p := &Program{
		Units:   units,
		Asm:     instrs,
		Words:   words,
		Symbols: a.Symbols(),
	}
	if opts.Link.Bootstrap {
		p.Entry = opts.Link.Entry
		if p.Entry == "" {
			p.Entry = translator.DefaultEntry
		}
	}
	log.Infof("program: %d units, %d instructions, %d words", len(units), len(instrs), len(words))
	return p, nil
}

// CompileSources parses each source with p and compiles the classes.
// Sources are processed in name order so builds are reproducible.
func CompileSources(p Parser, sources map[string]string, opts Options) (*Program, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no parser configured", ErrUnsupported)
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	classes := make([]*Class, 0, len(names))
	for _, name := range names {
		class, err := p.Parse(sources[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		classes = append(classes, class)
	}
	return Compile(classes, opts)
}

// BuildFiles builds a program from files and directories. .vm files become
// units named after the file, .jack files go through opts.Parser, and a
// single .asm file is assembled as is.
func BuildFiles(paths []string, opts Options) (*Program, error) {
	files, err := utils.ExpandInputs(paths, ".vm", ".jack", ".asm")
	if err != nil {
		return nil, err
	}

	var units []vm.Unit
	var classes []*Class
	var asmFiles []string
	for _, path := range files {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".vm":
			u, err := readUnit(path)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		case ".jack":
			if opts.Parser == nil {
				return nil, fmt.Errorf("%s: %w: no parser configured", path, ErrUnsupported)
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			class, err := opts.Parser.Parse(string(src))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			classes = append(classes, class)
		case ".asm":
			asmFiles = append(asmFiles, path)
		default:
			return nil, fmt.Errorf("%s: %w: unknown file type", path, ErrUnsupported)
		}
	}

	if len(asmFiles) > 0 {
		if len(files) != 1 {
			return nil, errors.New("an .asm input must be the only input")
		}
		return assembleFile(asmFiles[0])
	}

	generated, err := GenerateAll(classes, opts.Parallel)
	if err != nil {
		return nil, err
	}
	units = append(units, generated...)
	return Link(append(units, opts.Library...), opts)
}

func assembleFile(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	instrs, err := asm.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a := asm.NewAssembler()
	words, err := a.Assemble(instrs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Program{Asm: instrs, Words: words, Symbols: a.Symbols()}, nil
}

// LoadLibrary reads .vm files, or directories of them, into units for
// Options.Library.
func LoadLibrary(paths []string) ([]vm.Unit, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	files, err := utils.ExpandInputs(paths, ".vm")
	if err != nil {
		return nil, err
	}
	units := make([]vm.Unit, 0, len(files))
	for _, path := range files {
		u, err := readUnit(path)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	log.Debugf("loaded %d library units", len(units))
	return units, nil
}

// LoadImage reads a built program (.hack or image) or builds one from
// sources.
func LoadImage(path string, opts Options) (*asm.Image, error) {
	img, _, err := LoadProgram(path, opts)
	return img, err
}

// LoadProgram is LoadImage that also hands back the build, so callers can
// show the intermediate stages without building twice. The program is nil
// when path was already built.
func LoadProgram(path string, opts Options) (*asm.Image, *Program, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hack", asm.ImageExt:
		img, err := asm.ReadProgram(path)
		return img, nil, err
	}
	p, err := BuildFiles([]string{path}, opts)
	if err != nil {
		return nil, nil, err
	}
	return p.Image(), p, nil
}

// readUnit parses a .vm file into a unit named after the file.
func readUnit(path string) (vm.Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return vm.Unit{}, err
	}
	cmds, err := vm.Parse(string(src))
	if err != nil {
		return vm.Unit{}, fmt.Errorf("%s: %w", path, err)
	}
	return vm.Unit{Name: utils.Stem(path), Commands: cmds}, nil
}
