package main

import (
	"path/filepath"
	"testing"

	"hackc/pkg/asm"
	"hackc/pkg/compiler"
	"hackc/pkg/cpu"
	"hackc/pkg/vm"
)

// sysUnit calls Main.main, keeps the result in static Sys.0 and parks in
// the end loop.
func sysUnit(t *testing.T) vm.Unit {
	t.Helper()
	cmds, err := vm.Parse(`
function Sys.init 0
call Main.main 0
pop static 0
label END
goto END
`)
	if err != nil {
		t.Fatal(err)
	}
	return vm.Unit{Name: "Sys", Commands: cmds}
}

func build(t *testing.T, classes ...*compiler.Class) *compiler.Program {
	t.Helper()
	opts := compiler.DefaultOptions()
	opts.Library = []vm.Unit{sysUnit(t)}
	prog, err := compiler.Compile(classes, opts)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	t.Logf("%d instructions, %d words", len(prog.Asm), len(prog.Words))
	return prog
}

func ref(name string) compiler.Expr { return &compiler.VarRef{Name: name} }
func num(v uint16) compiler.Expr { return &compiler.IntConst{Value: v} }

func intType() *compiler.Type {
	t := compiler.IntType
	return &t
}

func call(recv, name string, args ...compiler.Expr) *compiler.SubroutineCall {
	return &compiler.SubroutineCall{Receiver: recv, Name: name, Args: args}
}

// fibClass computes fib(n) recursively:
//
//	function int fib(int n) { if (n < 2) { return n; } return Main.fib(n-1) + Main.fib(n-2); }
//	function int main() { return Main.fib(<n>); }
func fibClass(n uint16) *compiler.Class {
	return &compiler.Class{
		Name: "Main",
		Subroutines: []*compiler.SubroutineDec{
			{
				Kind:       compiler.Function,
				ReturnType: intType(),
				Name:       "fib",
				Params:     []compiler.Param{{Type: compiler.IntType, Name: "n"}},
				Body: []compiler.Stmt{
					&compiler.IfStmt{
						Cond: &compiler.BinaryExpr{Op: compiler.Less, Left: ref("n"), Right: num(2)},
						Then: []compiler.Stmt{&compiler.ReturnStmt{Value: ref("n")}},
					},
					&compiler.ReturnStmt{Value: &compiler.BinaryExpr{
						Op:    compiler.Plus,
						Left:  call("Main", "fib", &compiler.BinaryExpr{Op: compiler.Minus, Left: ref("n"), Right: num(1)}),
						Right: call("Main", "fib", &compiler.BinaryExpr{Op: compiler.Minus, Left: ref("n"), Right: num(2)}),
					}},
				},
			},
			{
				Kind:       compiler.Function,
				ReturnType: intType(),
				Name:       "main",
				Body:       []compiler.Stmt{&compiler.ReturnStmt{Value: call("Main", "fib", num(n))}},
			},
		},
	}
}

func TestCompilerAndCPU(t *testing.T) {
	prog := build(t, fibClass(10))

	// Go through the on-disk .hack form like the CLI does.
	path := filepath.Join(t.TempDir(), "fib.hack")
	if err := asm.WriteProgram(path, prog.Image()); err != nil {
		t.Fatal(err)
	}
	img, err := asm.ReadProgram(path)
	if err != nil {
		t.Fatal(err)
	}

	machine := cpu.NewCPU(img.Words...)
	if err := machine.RunUntilDone(5_000_000); err != nil {
		t.Fatal(err)
	}

	if got := machine.RAM[prog.Symbols["Sys.0"]]; got != 55 {
		t.Errorf("Expected fib(10) = 55, got %d", got)
	}
	// Sys.init has no frame, so after the pop SP is back at the base.
	if machine.SP() != 256 {
		t.Errorf("Expected SP to be 256, got %d", machine.SP())
	}
}

func TestHibernateMidRun(t *testing.T) {
	prog := build(t, fibClass(8))

	straight := cpu.NewCPU(prog.Words...)
	if err := straight.RunUntilDone(5_000_000); err != nil {
		t.Fatal(err)
	}

	first := cpu.NewCPU(prog.Words...)
	first.RunFor(1000)
	if first.Halted {
		t.Fatal("program finished before the snapshot")
	}
	snapshot, err := first.HibernateToBytes()
	if err != nil {
		t.Fatal(err)
	}

	resumed := cpu.NewCPU()
	if err := resumed.RestoreFromBytes(snapshot); err != nil {
		t.Fatal(err)
	}
	if err := resumed.RunUntilDone(5_000_000); err != nil {
		t.Fatal(err)
	}

	addr := prog.Symbols["Sys.0"]
	if resumed.RAM[addr] != 21 || resumed.RAM[addr] != straight.RAM[addr] {
		t.Errorf("resumed result %d, straight %d; want 21", resumed.RAM[addr], straight.RAM[addr])
	}
	if resumed.Cycles != straight.Cycles {
		t.Errorf("cycle counts differ: %d vs %d", resumed.Cycles, straight.Cycles)
	}
}

func TestDrawToScreen(t *testing.T) {
	// var Array screen; var int i;
	// let screen = 16384; while (i < 16) { let screen[i] = -1; let i = i + 1; }
	main := &compiler.Class{
		Name: "Main",
		Subroutines: []*compiler.SubroutineDec{{
			Kind:       compiler.Function,
			ReturnType: intType(),
			Name:       "main",
			Locals: []compiler.VarDec{
				{Type: compiler.ClassType("Array"), Names: []string{"screen"}},
				{Type: compiler.IntType, Names: []string{"i"}},
			},
			Body: []compiler.Stmt{
				&compiler.LetStmt{Name: "screen", Value: num(16384)},
				&compiler.WhileStmt{
					Cond: &compiler.BinaryExpr{Op: compiler.Less, Left: ref("i"), Right: num(16)},
					Body: []compiler.Stmt{
						&compiler.LetStmt{Name: "screen", Index: ref("i"),
							Value: &compiler.UnaryExpr{Op: compiler.Negate, Operand: num(1)}},
						&compiler.LetStmt{Name: "i", Value: &compiler.BinaryExpr{Op: compiler.Plus, Left: ref("i"), Right: num(1)}},
					},
				},
				&compiler.ReturnStmt{Value: ref("i")},
			},
		}},
	}
	prog := build(t, main)

	machine := cpu.NewCPU(prog.Words...)
	if err := machine.RunUntilDone(1_000_000); err != nil {
		t.Fatal(err)
	}

	pixels := machine.ScreenRGBA()
	pixel := func(x, y int) byte { return pixels[(y*cpu.ScreenWidth+x)*4] }
	if pixel(0, 0) != 0 || pixel(255, 0) != 0 {
		t.Error("expected the first 256 pixels of row 0 to be black")
	}
	if pixel(256, 0) != 0xFF || pixel(0, 1) != 0xFF {
		t.Error("expected pixels outside the painted run to be white")
	}

	shot := filepath.Join(t.TempDir(), "screen.bmp")
	if err := machine.SaveScreenshot(shot); err != nil {
		t.Fatal(err)
	}
}
