package compiler

import (
	"errors"
	"strings"
	"testing"

	"hackc/pkg/vm"
)

func TestSymbolTable(t *testing.T) {
	t.Run("IndicesPerKind", func(t *testing.T) {
		s := NewSymbolTable()
		x, _ := s.DefineClassVar("x", IntType, KindField)
		count, _ := s.DefineClassVar("count", IntType, KindStatic)
		y, _ := s.DefineClassVar("y", IntType, KindField)

		if x.Index != 0 || y.Index != 1 {
			t.Errorf("field indices = %d, %d; want 0, 1", x.Index, y.Index)
		}
		if count.Index != 0 {
			t.Errorf("static index = %d; want 0", count.Index)
		}
		if got := s.CountOf(ScopeClass, KindField); got != 2 {
			t.Errorf("CountOf(class, field) = %d; want 2", got)
		}
	})

	t.Run("MethodShadowsClass", func(t *testing.T) {
		s := NewSymbolTable()
		s.DefineClassVar("x", IntType, KindField)
		s.DefineMethodVar("x", CharType, KindLocal)

		sym, ok := s.Lookup("x")
		if !ok {
			t.Fatal("x not found")
		}
		if sym.Kind != KindLocal || sym.Type != CharType {
			t.Errorf("Lookup(x) = %+v; want the local", sym)
		}

		s.StartSubroutine()
		sym, _ = s.Lookup("x")
		if sym.Kind != KindField {
			t.Errorf("after StartSubroutine Lookup(x) kind = %s; want field", sym.Kind)
		}
	})

	t.Run("StartSubroutineResetsIndices", func(t *testing.T) {
		s := NewSymbolTable()
		s.DefineMethodVar("a", IntType, KindArgument)
		s.DefineMethodVar("i", IntType, KindLocal)
		s.StartSubroutine()
		b, _ := s.DefineMethodVar("b", IntType, KindArgument)
		if b.Index != 0 {
			t.Errorf("b index = %d; want 0", b.Index)
		}
		if _, ok := s.Lookup("i"); ok {
			t.Error("i survived StartSubroutine")
		}
	})

	t.Run("Duplicates", func(t *testing.T) {
		s := NewSymbolTable()
		s.DefineClassVar("x", IntType, KindField)
		if _, err := s.DefineClassVar("x", IntType, KindStatic); !errors.Is(err, ErrDuplicateSymbol) {
			t.Errorf("duplicate class var err = %v; want ErrDuplicateSymbol", err)
		}
		s.DefineMethodVar("a", IntType, KindArgument)
		if _, err := s.DefineMethodVar("a", IntType, KindLocal); !errors.Is(err, ErrDuplicateSymbol) {
			t.Errorf("duplicate method var err = %v; want ErrDuplicateSymbol", err)
		}
		if got := s.VarCount(KindLocal); got != 0 {
			t.Errorf("rejected definition counted: VarCount(local) = %d", got)
		}
	})

	t.Run("WrongScopeKind", func(t *testing.T) {
		s := NewSymbolTable()
		if _, err := s.DefineClassVar("a", IntType, KindLocal); !errors.Is(err, ErrUnsupported) {
			t.Errorf("local in class scope err = %v", err)
		}
		if _, err := s.DefineMethodVar("a", IntType, KindField); !errors.Is(err, ErrUnsupported) {
			t.Errorf("field in method scope err = %v", err)
		}
	})

	t.Run("Literals", func(t *testing.T) {
		s := NewSymbolTable()
		s.DefineMethodVar("i", IntType, KindLocal)
		hi := s.DefineLiteral("hi")
		again := s.DefineLiteral("hi")
		s.DefineMethodVar("hi", StringType, KindLocal)

		if hi.Index != 1 || again.Index != 1 {
			t.Errorf("literal index = %d, %d; want 1", hi.Index, again.Index)
		}
		if got := len(s.Literals()); got != 1 {
			t.Errorf("len(Literals()) = %d; want 1", got)
		}
		if sym, _ := s.Lookup("hi"); sym.Literal {
			t.Error("declared variable hi resolved to the literal")
		}
		if got := s.VarCount(KindLocal); got != 3 {
			t.Errorf("VarCount(local) = %d; want 3", got)
		}
	})

	t.Run("Segments", func(t *testing.T) {
		want := map[Kind]vm.Segment{
			KindStatic:   vm.Static,
			KindField:    vm.This,
			KindArgument: vm.Argument,
			KindLocal:    vm.Local,
		}
		for k, seg := range want {
			if k.Segment() != seg {
				t.Errorf("%s.Segment() = %s; want %s", k, k.Segment(), seg)
			}
		}
	})

	t.Run("Dump", func(t *testing.T) {
		s := NewSymbolTable()
		s.DefineClassVar("x", IntType, KindField)
		dump := s.String()
		if !strings.Contains(dump, "field 0") || !strings.Contains(dump, "Method: (empty)") {
			t.Errorf("unexpected dump:\n%s", dump)
		}
	})
}
