package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/logrusorgru/aurora"

	"hackc/pkg/asm"
	"hackc/pkg/vm"
)

func TestListing(t *testing.T) {
	instrs, err := asm.Parse("(LOOP)\n@LOOP\n0;JMP\n")
	if err != nil {
		t.Fatal(err)
	}
	words, err := asm.Assemble(instrs)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	listing(&buf, instrs, words, aurora.NewAurora(false))
	want := "(LOOP)\n" +
		"    0  0000000000000000  @LOOP\n" +
		"    1  1110101010000111  0;JMP\n"
	if buf.String() != want {
		t.Errorf("listing:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestDisassembleAndSymbols(t *testing.T) {
	var buf bytes.Buffer
	au := aurora.NewAurora(false)
	disassemble(&buf, []uint16{0x0002, 0xEC10}, au)
	if !strings.Contains(buf.String(), "    1  1110110000010000  D=A\n") {
		t.Errorf("disassembly:\n%s", buf.String())
	}

	buf.Reset()
	dumpSymbols(&buf, map[string]uint16{"SP": 0, "Main.0": 16, "LOOP": 4}, au)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "LOOP") || !strings.HasPrefix(lines[1], "Main.0") {
		t.Errorf("symbols:\n%s", buf.String())
	}

	buf.Reset()
	dumpUnits(&buf, []vm.Unit{
		{Name: "Main", Commands: []vm.Command{vm.Return{}}},
		{Name: "Sys", Commands: []vm.Command{vm.Function{Name: "Sys.init"}}},
	}, au)
	if !strings.HasPrefix(buf.String(), "// unit Sys\nfunction Sys.init 0\n") {
		t.Errorf("units:\n%s", buf.String())
	}
}
