package compiler

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"hackc/pkg/asm"
	"hackc/pkg/cpu"
	"hackc/pkg/vm"
)

// OS routines the generated code calls into.
const (
	memoryAlloc      = "Memory.alloc"
	stringNew        = "String.new"
	stringAppendChar = "String.appendChar"
	stringDispose    = "String.dispose"
	mathMultiply     = "Math.multiply"
	mathDivide       = "Math.divide"
)

var binaryOps = map[BinaryOp]vm.Op{
	Plus:    vm.Add,
	Minus:   vm.Sub,
	BitAnd:  vm.And,
	BitOr:   vm.Or,
	Less:    vm.Lt,
	Greater: vm.Gt,
	Equal:   vm.Eq,
}

// CodeGen walks one class and emits VM commands.
type CodeGen struct {
	class     *Class
	syms      *SymbolTable
	nextLabel int
	sub       *SubroutineDec
	out       []vm.Command
}

func newCodeGen(class *Class) *CodeGen {
	return &CodeGen{class: class, syms: NewSymbolTable()}
}

// newLabels returns a fresh label pair. The counter is per class and the
// class name is the prefix, so classes can be generated independently.
func (cg *CodeGen) newLabels(first, second string) (string, string) {
	n := cg.nextLabel
	cg.nextLabel++
	return fmt.Sprintf("%s.%s%d", cg.class.Name, first, n),
		fmt.Sprintf("%s.%s%d", cg.class.Name, second, n)
}

func (cg *CodeGen) emit(cmds ...vm.Command) {
	cg.out = append(cg.out, cmds...)
}

func (cg *CodeGen) call(name string, nArgs int) {
	cg.emit(vm.Call{Name: name, NArgs: uint16(nArgs)})
}

func (cg *CodeGen) push(sym Symbol) {
	cg.emit(vm.Push{Segment: sym.Kind.Segment(), Index: sym.Index})
}

func (cg *CodeGen) pop(sym Symbol) {
	cg.emit(vm.Pop{Segment: sym.Kind.Segment(), Index: sym.Index})
}

func (cg *CodeGen) lookup(name string) (Symbol, error) {
	sym, ok := cg.syms.Lookup(name)
	if !ok {
		return Symbol{}, fmt.Errorf("%w: %q in %s", ErrUnresolvedSymbol, name, cg.where())
	}
	return sym, nil
}

func (cg *CodeGen) where() string {
	if cg.sub == nil {
		return cg.class.Name
	}
	return cg.class.Name + "." + cg.sub.Name
}

func (cg *CodeGen) genClass() error {
	for _, dec := range cg.class.Vars {
		for _, name := range dec.Names {
			if _, err := cg.syms.DefineClassVar(name, dec.Type, dec.Kind); err != nil {
				return fmt.Errorf("class %s: %w", cg.class.Name, err)
			}
		}
	}
	for _, sub := range cg.class.Subroutines {
		if err := cg.genSubroutine(sub); err != nil {
			return err
		}
	}
	log.Debugf("class %s symbols:\n%s", cg.class.Name, cg.syms)
	return nil
}

func (cg *CodeGen) genSubroutine(sub *SubroutineDec) error {
	cg.sub = sub
	cg.syms.StartSubroutine()

	if sub.Kind == Method {
		if _, err := cg.syms.DefineMethodVar("this", ClassType(cg.class.Name), KindArgument); err != nil {
			return err
		}
	}
	for _, p := range sub.Params {
		if _, err := cg.syms.DefineMethodVar(p.Name, p.Type, KindArgument); err != nil {
			return fmt.Errorf("%s: %w", cg.where(), err)
		}
	}
	for _, dec := range sub.Locals {
		for _, name := range dec.Names {
			if _, err := cg.syms.DefineMethodVar(name, dec.Type, KindLocal); err != nil {
				return fmt.Errorf("%s: %w", cg.where(), err)
			}
		}
	}
	// Every return disposes every literal, so they are all registered
	// before the body is lowered.
	for _, s := range collectStrings(sub.Body, nil) {
		cg.syms.DefineLiteral(normalize(s))
	}

	// The body goes first: the header needs the final local count.
	header := cg.out
	cg.out = nil
	if err := cg.genStmts(sub.Body); err != nil {
		return err
	}
	body := cg.out
	cg.out = header

	nLocals := cg.syms.VarCount(KindLocal)
	cg.emit(vm.Function{Name: cg.class.Name + "." + sub.Name, NLocals: uint16(nLocals)})
	for range nLocals {
		cg.emit(vm.PushConst(0))
	}

	switch sub.Kind {
	case Method:
		cg.emit(vm.Push{Segment: vm.Argument, Index: 0}, vm.Pop{Segment: vm.Pointer, Index: 0})
	case Constructor:
		cg.emit(vm.PushConst(uint16(cg.syms.VarCount(KindField))))
		cg.call(memoryAlloc, 1)
		cg.emit(vm.Pop{Segment: vm.Pointer, Index: 0})
	}

	for _, lit := range cg.syms.Literals() {
		if err := cg.genStringLiteral(lit); err != nil {
			return err
		}
	}

	cg.emit(body...)
	cg.sub = nil
	return nil
}

// genStringLiteral builds the constant with String.new and appendChar and
// stores it in its local.
func (cg *CodeGen) genStringLiteral(lit Symbol) error {
	cg.emit(vm.PushConst(uint16(utf8.RuneCountInString(lit.Value))))
	cg.call(stringNew, 1)
	for _, r := range lit.Value {
		if r > cpu.MaxAddress {
			return fmt.Errorf("%w: character %U in %s", asm.ErrEncodingOverflow, r, lit.Name)
		}
		cg.emit(vm.PushConst(uint16(r)))
		cg.call(stringAppendChar, 2)
	}
	cg.pop(lit)
	return nil
}

func (cg *CodeGen) genStmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {

	case *LetStmt:
		if err := cg.genExpr(n.Value); err != nil {
			return err
		}
		sym, err := cg.lookup(n.Name)
		if err != nil {
			return err
		}
		if n.Index == nil {
			cg.pop(sym)
			return nil
		}
		if err := cg.genExpr(n.Index); err != nil {
			return err
		}
		cg.push(sym)
		cg.emit(vm.AddCmd,
			vm.Pop{Segment: vm.Pointer, Index: 1},
			vm.Pop{Segment: vm.That, Index: 0})

	case *IfStmt:
		thenLabel, endLabel := cg.newLabels("IF_TRUE", "IF_END")
		if err := cg.genExpr(n.Cond); err != nil {
			return err
		}
		cg.emit(vm.IfGoto{Name: thenLabel})
		if err := cg.genStmts(n.Else); err != nil {
			return err
		}
		cg.emit(vm.Goto{Name: endLabel}, vm.Label{Name: thenLabel})
		if err := cg.genStmts(n.Then); err != nil {
			return err
		}
		cg.emit(vm.Label{Name: endLabel})

	case *WhileStmt:
		loopLabel, endLabel := cg.newLabels("WHILE_EXP", "WHILE_END")
		cg.emit(vm.Label{Name: loopLabel})
		if err := cg.genExpr(n.Cond); err != nil {
			return err
		}
		cg.emit(vm.NotCmd, vm.IfGoto{Name: endLabel})
		if err := cg.genStmts(n.Body); err != nil {
			return err
		}
		cg.emit(vm.Goto{Name: loopLabel}, vm.Label{Name: endLabel})

	case *DoStmt:
		if n.Call == nil {
			return fmt.Errorf("%w: do without a call in %s", ErrUnsupported, cg.where())
		}
		if err := cg.genCall(n.Call); err != nil {
			return err
		}
		cg.emit(vm.Pop{Segment: vm.Temp, Index: 0})

	case *ReturnStmt:
		return cg.genReturn(n)

	default:
		return fmt.Errorf("%w: statement %T in %s", ErrUnsupported, s, cg.where())
	}
	return nil
}

// genReturn frees the string literals, except one being returned, then
// returns the value or 0.
func (cg *CodeGen) genReturn(n *ReturnStmt) error {
	keep := ""
	if sc, ok := n.Value.(*StringConst); ok {
		keep = literalKey(normalize(sc.Value))
	}
	for _, lit := range cg.syms.Literals() {
		if lit.Name == keep {
			continue
		}
		cg.push(lit)
		cg.call(stringDispose, 1)
		cg.emit(vm.Pop{Segment: vm.Temp, Index: 0})
	}
	if n.Value == nil {
		cg.emit(vm.PushConst(0))
	} else if err := cg.genExpr(n.Value); err != nil {
		return err
	}
	cg.emit(vm.Return{})
	return nil
}

func (cg *CodeGen) genExpr(e Expr) error {
	switch n := e.(type) {

	case *IntConst:
		if n.Value > cpu.MaxAddress {
			return fmt.Errorf("%w: integer constant %d", asm.ErrEncodingOverflow, n.Value)
		}
		cg.emit(vm.PushConst(n.Value))

	case *StringConst:
		sym, ok := cg.syms.LookupLiteral(normalize(n.Value))
		if !ok {
			return fmt.Errorf("%w: string %q in %s", ErrUnresolvedSymbol, n.Value, cg.where())
		}
		cg.push(sym)

	case *KeywordConst:
		switch n.Keyword {
		case True:
			cg.emit(vm.PushConst(0), vm.NotCmd)
		case False, Null:
			cg.emit(vm.PushConst(0))
		case This:
			cg.emit(vm.Push{Segment: vm.Pointer, Index: 0})
		default:
			return fmt.Errorf("%w: keyword %d", ErrUnsupported, n.Keyword)
		}

	case *VarRef:
		sym, err := cg.lookup(n.Name)
		if err != nil {
			return err
		}
		cg.push(sym)

	case *IndexExpr:
		if err := cg.genExpr(n.Index); err != nil {
			return err
		}
		sym, err := cg.lookup(n.Name)
		if err != nil {
			return err
		}
		cg.push(sym)
		cg.emit(vm.AddCmd,
			vm.Pop{Segment: vm.Pointer, Index: 1},
			vm.Push{Segment: vm.That, Index: 0})

	case *UnaryExpr:
		if err := cg.genExpr(n.Operand); err != nil {
			return err
		}
		switch n.Op {
		case Negate:
			cg.emit(vm.NegCmd)
		case Invert:
			cg.emit(vm.NotCmd)
		default:
			return fmt.Errorf("%w: unary operator %q", ErrUnsupported, n.Op)
		}

	case *BinaryExpr:
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		switch n.Op {
		case Times:
			cg.call(mathMultiply, 2)
		case Div:
			cg.call(mathDivide, 2)
		default:
			op, ok := binaryOps[n.Op]
			if !ok {
				return fmt.Errorf("%w: binary operator %q", ErrUnsupported, n.Op)
			}
			cg.emit(vm.Arithmetic{Op: op})
		}

	case *SubroutineCall:
		return cg.genCall(n)

	default:
		return fmt.Errorf("%w: expression %T in %s", ErrUnsupported, e, cg.where())
	}
	return nil
}

// genCall lowers the three call shapes:
//
//	draw()          push pointer 0, args, call Class.draw n+1
//	p.dist(q)       push p, args, call Point.dist n+1
//	Math.max(a, b)  args, call Math.max n
func (cg *CodeGen) genCall(c *SubroutineCall) error {
	nArgs := len(c.Args)
	var target string

	switch {
	case c.Receiver == "":
		cg.emit(vm.Push{Segment: vm.Pointer, Index: 0})
		target = cg.class.Name + "." + c.Name
		nArgs++
	default:
		sym, ok := cg.syms.Lookup(c.Receiver)
		if !ok {
			target = c.Receiver + "." + c.Name
			break
		}
		if sym.Type.Kind != TypeClass {
			return fmt.Errorf("%w: calling %s on %s of type %s in %s",
				ErrUnsupported, c.Name, c.Receiver, sym.Type, cg.where())
		}
		cg.push(sym)
		target = sym.Type.Class + "." + c.Name
		nArgs++
	}

	for _, a := range c.Args {
		if err := cg.genExpr(a); err != nil {
			return err
		}
	}
	cg.call(target, nArgs)
	return nil
}

// normalize folds compatibility characters so equal-looking constants
// share one local and build the same code points.
func normalize(s string) string {
	return norm.NFKC.String(s)
}

// collectStrings appends every string constant in stmts, in source order.
func collectStrings(stmts []Stmt, acc []string) []string {
	for _, s := range stmts {
		switch n := s.(type) {
		case *LetStmt:
			acc = collectExprStrings(n.Index, acc)
			acc = collectExprStrings(n.Value, acc)
		case *IfStmt:
			acc = collectExprStrings(n.Cond, acc)
			acc = collectStrings(n.Then, acc)
			acc = collectStrings(n.Else, acc)
		case *WhileStmt:
			acc = collectExprStrings(n.Cond, acc)
			acc = collectStrings(n.Body, acc)
		case *DoStmt:
			if n.Call != nil {
				acc = collectExprStrings(n.Call, acc)
			}
		case *ReturnStmt:
			acc = collectExprStrings(n.Value, acc)
		}
	}
	return acc
}

func collectExprStrings(e Expr, acc []string) []string {
	switch n := e.(type) {
	case *StringConst:
		acc = append(acc, n.Value)
	case *IndexExpr:
		acc = collectExprStrings(n.Index, acc)
	case *UnaryExpr:
		acc = collectExprStrings(n.Operand, acc)
	case *BinaryExpr:
		acc = collectExprStrings(n.Left, acc)
		acc = collectExprStrings(n.Right, acc)
	case *SubroutineCall:
		for _, a := range n.Args {
			acc = collectExprStrings(a, acc)
		}
	}
	return acc
}

// Generate lowers one class to VM commands. Nothing is returned on error.
func Generate(class *Class) ([]vm.Command, error) {
	if class == nil {
		return nil, fmt.Errorf("%w: nil class", ErrUnsupported)
	}
	cg := newCodeGen(class)
	if err := cg.genClass(); err != nil {
		return nil, err
	}
	log.Debugf("class %s: %d VM commands", class.Name, len(cg.out))
	return cg.out, nil
}
