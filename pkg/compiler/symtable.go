package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"hackc/pkg/vm"
)

// Kind is the storage kind of a symbol.
type Kind int

const (
	KindStatic Kind = iota
	KindField
	KindArgument
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindField:
		return "field"
	case KindArgument:
		return "argument"
	case KindLocal:
		return "local"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Segment maps a storage kind to the VM segment that holds it.
func (k Kind) Segment() vm.Segment {
	switch k {
	case KindStatic:
		return vm.Static
	case KindField:
		return vm.This
	case KindArgument:
		return vm.Argument
	}
	return vm.Local
}

type ScopeType int

const (
	ScopeClass ScopeType = iota
	ScopeMethod
)

type Symbol struct {
	Name  string
	Type  Type
	Kind  Kind
	Index uint16
	Scope ScopeType

	// Literal marks the implicit local holding a string constant. Value is
	// the constant itself.
	Literal bool
	Value   string
}

// scope keeps entries in definition order so counts and dumps are stable.
type scope struct {
	entries map[string]Symbol
	order   []string
}

func newScope() *scope {
	return &scope{entries: make(map[string]Symbol)}
}

func (s *scope) count(kind Kind) int {
	n := 0
	for _, name := range s.order {
		if s.entries[name].Kind == kind {
			n++
		}
	}
	return n
}

func (s *scope) define(sym Symbol) (Symbol, error) {
	if _, ok := s.entries[sym.Name]; ok {
		return Symbol{}, fmt.Errorf("%w: %s", ErrDuplicateSymbol, sym.Name)
	}
	sym.Index = uint16(s.count(sym.Kind))
	s.entries[sym.Name] = sym
	s.order = append(s.order, sym.Name)
	return sym, nil
}

// SymbolTable resolves identifiers to a storage kind and index.
// Class-scope entries live for one class; method-scope entries are
// rebuilt by StartSubroutine and shadow class-scope names on lookup.
type SymbolTable struct {
	class  *scope
	method *scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{class: newScope(), method: newScope()}
}

// StartSubroutine clears the method scope.
func (s *SymbolTable) StartSubroutine() {
	s.method = newScope()
}

// DefineClassVar adds a static or field variable.
func (s *SymbolTable) DefineClassVar(name string, typ Type, kind Kind) (Symbol, error) {
	if kind != KindStatic && kind != KindField {
		return Symbol{}, fmt.Errorf("%w: %s %s in class scope", ErrUnsupported, kind, name)
	}
	return s.class.define(Symbol{Name: name, Type: typ, Kind: kind, Scope: ScopeClass})
}

// DefineMethodVar adds an argument or local variable.
func (s *SymbolTable) DefineMethodVar(name string, typ Type, kind Kind) (Symbol, error) {
	if kind != KindArgument && kind != KindLocal {
		return Symbol{}, fmt.Errorf("%w: %s %s in method scope", ErrUnsupported, kind, name)
	}
	return s.method.define(Symbol{Name: name, Type: typ, Kind: kind, Scope: ScopeMethod})
}

// literalKey is the quoted constant. Quotes never appear in identifiers,
// so literal entries cannot collide with declared names.
func literalKey(value string) string {
	return strconv.Quote(value)
}

// DefineLiteral returns the local that holds the string constant value,
// adding it on first use.
func (s *SymbolTable) DefineLiteral(value string) Symbol {
	key := literalKey(value)
	if sym, ok := s.method.entries[key]; ok {
		return sym
	}
	sym, _ := s.method.define(Symbol{
		Name:    key,
		Type:    StringType,
		Kind:    KindLocal,
		Scope:   ScopeMethod,
		Literal: true,
		Value:   value,
	})
	return sym
}

// LookupLiteral finds the local holding a string constant.
func (s *SymbolTable) LookupLiteral(value string) (Symbol, bool) {
	sym, ok := s.method.entries[literalKey(value)]
	return sym, ok && sym.Literal
}

// Literals lists the string-literal locals in definition order.
func (s *SymbolTable) Literals() []Symbol {
	var out []Symbol
	for _, name := range s.method.order {
		if sym := s.method.entries[name]; sym.Literal {
			out = append(out, sym)
		}
	}
	return out
}

// Lookup searches the method scope, then the class scope.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	if sym, ok := s.method.entries[name]; ok {
		return sym, true
	}
	sym, ok := s.class.entries[name]
	return sym, ok
}

// CountOf returns how many entries of kind exist in the given scope.
func (s *SymbolTable) CountOf(scope ScopeType, kind Kind) int {
	if scope == ScopeClass {
		return s.class.count(kind)
	}
	return s.method.count(kind)
}

// VarCount counts kind in the scope that owns it.
func (s *SymbolTable) VarCount(kind Kind) int {
	if kind == KindStatic || kind == KindField {
		return s.CountOf(ScopeClass, kind)
	}
	return s.CountOf(ScopeMethod, kind)
}

// String dumps both scopes sorted by name.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	dump := func(title string, sc *scope) {
		if len(sc.entries) == 0 {
			fmt.Fprintf(&sb, "%s: (empty)\n", title)
			return
		}
		fmt.Fprintf(&sb, "%s:\n", title)
		names := make([]string, 0, len(sc.entries))
		for name := range sc.entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sym := sc.entries[name]
			fmt.Fprintf(&sb, "  %-20s  %s %d (Type: %s)\n", name, sym.Kind, sym.Index, sym.Type)
		}
	}
	dump("Class", s.class)
	dump("Method", s.method)
	return sb.String()
}
