package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"hackc/pkg/asm"
	"hackc/pkg/compiler"
	"hackc/pkg/config"
	"hackc/pkg/cpu"
)

// dumpFrame prints the registers, the saved segment pointers and the top
// of the stack.
func dumpFrame(vm *cpu.CPU, symbols map[string]uint16) {
	status := aurora.Green("halted")
	if !vm.Halted {
		status = aurora.Yellow("running")
	}
	fmt.Printf("%s after %d cycles\n", status, vm.Cycles)

	next := "-"
	if int(vm.PC) < len(vm.ROM) {
		next = cpu.Disassemble(vm.ROM[vm.PC])
	}
	fmt.Printf("PC=%-5d A=%-5d D=%-6d next: %s\n", vm.PC, vm.A, int16(vm.D), aurora.Blue(next))
	fmt.Printf("SP=%d LCL=%d ARG=%d THIS=%d THAT=%d\n", vm.RAM[0], vm.RAM[1], vm.RAM[2], vm.RAM[3], vm.RAM[4])

	sp := int(vm.SP())
	for addr := sp - 1; addr >= 256 && addr >= sp-8; addr-- {
		fmt.Printf("  stack[%d] = %d\n", addr, int16(vm.RAM[addr]))
	}

	var statics []string
	for name, addr := range symbols {
		if addr >= asm.VariableBase && addr < 256 && isStatic(name) {
			statics = append(statics, name)
		}
	}
	sort.Strings(statics)
	for _, name := range statics {
		fmt.Printf("  %s = %d\n", aurora.Cyan(name), int16(vm.RAM[symbols[name]]))
	}
}

// isStatic matches the Class.N symbols of static segments. Generated
// labels carry a '$' and function labels do not end in a number.
func isStatic(name string) bool {
	if strings.Contains(name, "$") {
		return false
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return false
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func main() {
	cycles := flag.Int("cycles", 0, "cycle budget (default from hackc.toml)")
	restore := flag.String("restore", "", "resume from a snapshot instead of loading a program")
	snapshot := flag.String("snapshot", "", "write a snapshot after the run")
	screenshot := flag.String("screenshot", "", "write the screen to a .png or .bmp file")
	showAsm := flag.Bool("show-asm", false, "print the generated assembly")
	verbose := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	commonlog.Configure(*verbose, nil)

	var vm *cpu.CPU
	var symbols map[string]uint16
	budget := *cycles

	switch {
	case *restore != "":
		vm = cpu.NewCPU()
		if err := vm.RestoreFromFile(*restore); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
	case flag.NArg() == 1:
		filename := flag.Arg(0)
		cfg, err := config.FindAndLoad(filepath.Dir(filename))
		if err != nil {
			log.Fatalf("Config: %v", err)
		}
		if budget <= 0 {
			budget = cfg.Run.Cycles
		}

		opts := cfg.CompileOptions()
		if opts.Library, err = compiler.LoadLibrary(cfg.Build.Library); err != nil {
			log.Fatalf("Library: %v", err)
		}
		img, prog, err := compiler.LoadProgram(filename, opts)
		if err != nil {
			log.Fatalf("Build failed: %v", err)
		}
		if *showAsm && prog != nil {
			fmt.Print("Generated Assembly:\n", asm.Format(prog.Asm), "\n")
		}
		symbols = img.Symbols
		vm = cpu.NewCPU()
		if err := vm.Load(img.Words); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: console [flags] <program.vm|dir|.asm|.hack|.hackimg>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if budget <= 0 {
		budget = config.Default().Run.Cycles
	}

	runErr := vm.RunUntilDone(budget)
	dumpFrame(vm, symbols)

	if *screenshot != "" {
		if err := vm.SaveScreenshot(*screenshot); err != nil {
			log.Fatalf("Screenshot failed: %v", err)
		}
	}
	if *snapshot != "" {
		if err := vm.HibernateToFile(*snapshot); err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		fmt.Println("snapshot ->", *snapshot)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(runErr.Error()))
		os.Exit(1)
	}
}
