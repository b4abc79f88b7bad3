package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hackc/pkg/asm"
	"hackc/pkg/config"
)

const sysVM = `function Sys.init 0
push constant 6
push constant 7
add
pop static 0
label END
goto END
`

func TestDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	if got := defaultOutputPath(filepath.Join(dir, "Prog.vm"), "asm"); got != filepath.Join(dir, "Prog.asm") {
		t.Errorf("file input: %s", got)
	}
	if got := defaultOutputPath(dir, "image"); got != filepath.Join(dir, filepath.Base(dir)+asm.ImageExt) {
		t.Errorf("dir input: %s", got)
	}
}

func TestSplitInputs(t *testing.T) {
	got := splitInputs(" a.vm, ,b ")
	if !reflect.DeepEqual(got, []string{"a.vm", "b"}) {
		t.Errorf("splitInputs = %v", got)
	}
	if isInput("x.vm", []string{"./x.vm"}) != true || isInput("y.vm", []string{"x.vm"}) {
		t.Error("isInput mismatch")
	}
}

func TestBuildAndWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Sys.vm")
	if err := os.WriteFile(src, []byte(sysVM), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	prog, err := build([]string{src}, cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for format, ext := range formatExt {
		out := filepath.Join(dir, "out"+ext)
		if err := writeOutput(out, format, prog); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		switch format {
		case "vm":
			if !strings.HasPrefix(string(data), "// Sys\nfunction Sys.init 0\n") {
				t.Errorf("vm output:\n%s", data)
			}
		case "asm":
			if !strings.Contains(string(data), "(Sys.init)") {
				t.Errorf("asm output:\n%s", data)
			}
		default:
			img, err := asm.ReadProgram(out)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(img.Words, prog.Words) {
				t.Errorf("%s output words differ", format)
			}
		}
	}

	shot := filepath.Join(dir, "screen.png")
	if err := runImage(prog.Image(), config.Run{Cycles: 10000, Screenshot: shot}); err != nil {
		t.Fatalf("runImage: %v", err)
	}
	if _, err := os.Stat(shot); err != nil {
		t.Errorf("screenshot missing: %v", err)
	}
	if err := runImage(prog.Image(), config.Run{Cycles: 3}); err == nil {
		t.Error("expected a cycle budget error")
	}
}
