//go:build !js

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"hackc/pkg/asm"
	"hackc/pkg/compiler"
	"hackc/pkg/config"
	"hackc/pkg/cpu"
	"hackc/pkg/utils"
	"hackc/pkg/vm"
)

var formatExt = map[string]string{
	"vm":    ".vm",
	"asm":   ".asm",
	"hack":  ".hack",
	"image": asm.ImageExt,
}

func main() {
	inPath := flag.String("in", "", "comma-separated .vm/.asm files or directories to build")
	outPath := flag.String("out", "", "output file path (default: input with the format's extension)")
	format := flag.String("format", "", "output format: vm, asm, hack or image (default from hackc.toml)")
	configPath := flag.String("config", "", "path to hackc.toml (default: search upwards from the input)")
	runProgram := flag.Bool("run", false, "run the built program on the emulator")
	runBinPath := flag.String("run-bin", "", "run an existing .hack, image or .asm file on the emulator")
	cycles := flag.Int("cycles", 0, "emulator cycle budget (default from hackc.toml)")
	screenshot := flag.String("screenshot", "", "write the screen to a .png or .bmp file after running")
	verbose := flag.Int("v", -1, "log verbosity (default from hackc.toml)")
	flag.Parse()

	if *runProgram && *runBinPath != "" {
		fail(2, errors.New("use either -run or -run-bin, not both"))
	}
	if *inPath == "" && *runBinPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to build, or -run-bin <file> to run an existing program")
		flag.Usage()
		os.Exit(2)
	}

	start := "."
	inputs := splitInputs(*inPath)
	if len(inputs) > 0 {
		start = inputs[0]
		if info, err := os.Stat(start); err == nil && !info.IsDir() {
			start = filepath.Dir(start)
		}
	}
	cfg, err := loadConfig(*configPath, start)
	if err != nil {
		fail(1, err)
	}
	if *format != "" {
		cfg.Build.Format = *format
	}
	if *cycles > 0 {
		cfg.Run.Cycles = *cycles
	}
	if *screenshot != "" {
		cfg.Run.Screenshot = *screenshot
	}
	if *verbose >= 0 {
		cfg.Log.Verbosity = *verbose
	}
	if err := cfg.Validate(); err != nil {
		fail(2, err)
	}
	configureLogging(cfg.Log)

	var img *asm.Image
	if len(inputs) > 0 {
		prog, err := build(inputs, cfg)
		if err != nil {
			fail(1, fmt.Errorf("build failed: %w", err))
		}
		output := *outPath
		if output == "" {
			output = defaultOutputPath(inputs[0], cfg.Build.Format)
		}
		if isInput(output, inputs) {
			fail(1, fmt.Errorf("refusing to overwrite input %s", output))
		}
		if err := writeOutput(output, cfg.Build.Format, prog); err != nil {
			fail(1, fmt.Errorf("failed to write %q: %w", output, err))
		}
		fmt.Printf("built %d words -> %s\n", len(prog.Words), aurora.Green(output))
		img = prog.Image()
	}

	switch {
	case *runBinPath != "":
		img, err = asm.ReadProgram(*runBinPath)
		if err != nil {
			fail(1, err)
		}
	case *runProgram:
		if img == nil {
			fail(2, errors.New("-run requires -in"))
		}
	default:
		return
	}

	if err := runImage(img, cfg.Run); err != nil {
		fail(1, fmt.Errorf("run failed: %w", err))
	}
}

func loadConfig(path, start string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.FindAndLoad(start)
}

func configureLogging(l config.Log) {
	var path *string
	if l.File != "" {
		path = &l.File
	}
	commonlog.Configure(l.Verbosity, path)
}

func splitInputs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func build(inputs []string, cfg *config.Config) (*compiler.Program, error) {
	opts := cfg.CompileOptions()
	lib, err := compiler.LoadLibrary(cfg.Build.Library)
	if err != nil {
		return nil, err
	}
	opts.Library = lib
	return compiler.BuildFiles(inputs, opts)
}

// defaultOutputPath names the output after the input file, or after the
// directory for a directory input: prog/ -> prog/prog.hack.
func defaultOutputPath(input, format string) string {
	ext := formatExt[format]
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		clean := filepath.Clean(input)
		return filepath.Join(clean, filepath.Base(clean)+ext)
	}
	return utils.ReplaceExt(input, ext)
}

func isInput(output string, inputs []string) bool {
	abs, err := filepath.Abs(output)
	if err != nil {
		return false
	}
	for _, in := range inputs {
		if a, err := filepath.Abs(in); err == nil && a == abs {
			return true
		}
	}
	return false
}

func writeOutput(path, format string, prog *compiler.Program) error {
	switch format {
	case "vm":
		var sb strings.Builder
		for _, u := range vm.OrderUnits(prog.Units) {
			fmt.Fprintf(&sb, "// %s\n", u.Name)
			sb.WriteString(vm.Format(u.Commands))
		}
		return os.WriteFile(path, []byte(sb.String()), 0o644)
	case "asm":
		return os.WriteFile(path, []byte(asm.Format(prog.Asm)), 0o644)
	case "image":
		return asm.WriteProgram(path, prog.Image())
	}
	return os.WriteFile(path, []byte(asm.FormatBinary(prog.Words)), 0o644)
}

func runImage(img *asm.Image, run config.Run) error {
	c := cpu.NewCPU()
	if err := c.Load(img.Words); err != nil {
		return err
	}
	runErr := c.RunUntilDone(run.Cycles)

	fmt.Printf(
		"run complete: PC=%d A=%d D=%d SP=%d LCL=%d ARG=%d THIS=%d THAT=%d cycles=%d\n",
		c.PC, c.A, c.D, c.RAM[0], c.RAM[1], c.RAM[2], c.RAM[3], c.RAM[4], c.Cycles,
	)
	if run.Screenshot != "" {
		if err := c.SaveScreenshot(run.Screenshot); err != nil {
			return err
		}
		fmt.Printf("screenshot -> %s\n", aurora.Green(run.Screenshot))
	}
	return runErr
}

func fail(code int, err error) {
	fmt.Fprintln(os.Stderr, aurora.Red("error:"), err)
	os.Exit(code)
}
