package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/logrusorgru/aurora"

	"hackc/pkg/asm"
	"hackc/pkg/compiler"
	"hackc/pkg/cpu"
	"hackc/pkg/vm"
)

// listing prints the assembly with the ROM address of each instruction.
// Labels take no address and are printed on their own line.
func listing(w io.Writer, instrs []asm.Instruction, words []uint16, au aurora.Aurora) {
	pc := 0
	for _, in := range instrs {
		if l, ok := in.(asm.L); ok {
			fmt.Fprintln(w, au.Cyan("("+l.Name+")"))
			continue
		}
		word := uint16(0)
		if pc < len(words) {
			word = words[pc]
		}
		text := in.String()
		switch in.(type) {
		case asm.AImm, asm.ASymbol:
			text = au.Blue(text).String()
		default:
			text = au.Brown(text).String()
		}
		fmt.Fprintf(w, "%5d  %016b  %s\n", pc, word, text)
		pc++
	}
}

// disassemble prints a program with no symbols, one word per line.
func disassemble(w io.Writer, words []uint16, au aurora.Aurora) {
	for pc, word := range words {
		fmt.Fprintf(w, "%5d  %016b  %s\n", pc, word, au.Brown(cpu.Disassemble(word)))
	}
}

func dumpSymbols(w io.Writer, symbols map[string]uint16, au aurora.Aurora) {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		if _, predefined := asm.Predefined(name); !predefined {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if symbols[names[i]] != symbols[names[j]] {
			return symbols[names[i]] < symbols[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Fprintf(w, "%s %5d\n", au.Magenta(fmt.Sprintf("%-40s", name)), symbols[name])
	}
}

func dumpUnits(w io.Writer, units []vm.Unit, au aurora.Aurora) {
	for _, u := range vm.OrderUnits(units) {
		fmt.Fprintln(w, au.Green("// unit "+u.Name))
		io.WriteString(w, vm.Format(u.Commands))
	}
}

func main() {
	stage := flag.String("stage", "all", "what to print: vm, asm, bin, symbols or all")
	color := flag.Bool("color", true, "colourise output")
	noBootstrap := flag.Bool("no-bootstrap", false, "link without the SP init and Sys.init jump")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: hackdump [flags] <files or directories>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	au := aurora.NewAurora(*color)
	out := os.Stdout

	// A built program can only be disassembled.
	if flag.NArg() == 1 {
		switch strings.ToLower(filepath.Ext(flag.Arg(0))) {
		case ".hack", asm.ImageExt:
			img, err := asm.ReadProgram(flag.Arg(0))
			if err != nil {
				fail(err)
			}
			disassemble(out, img.Words, au)
			if len(img.Symbols) > 0 && (*stage == "all" || *stage == "symbols") {
				fmt.Fprintln(out)
				dumpSymbols(out, img.Symbols, au)
			}
			return
		}
	}

	opts := compiler.DefaultOptions()
	opts.Link.Bootstrap = !*noBootstrap
	prog, err := compiler.BuildFiles(flag.Args(), opts)
	if err != nil {
		fail(err)
	}

	show := func(name string) bool { return *stage == "all" || *stage == name }
	if show("vm") && len(prog.Units) > 0 {
		dumpUnits(out, prog.Units, au)
		fmt.Fprintln(out)
	}
	if show("asm") {
		listing(out, prog.Asm, prog.Words, au)
		fmt.Fprintln(out)
	}
	if show("bin") {
		io.WriteString(out, asm.FormatBinary(prog.Words))
		fmt.Fprintln(out)
	}
	if show("symbols") {
		dumpSymbols(out, prog.Symbols, au)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, aurora.Red("error:"), err)
	os.Exit(1)
}
