package compiler

import (
	"fmt"
	"strings"
)

//  Types

// TypeKind is the value kind of a declared variable.
type TypeKind int

const (
	TypeInt TypeKind = iota
	TypeChar
	TypeBoolean
	TypeClass
)

// Type is a declared variable type. Class is only set for TypeClass.
type Type struct {
	Kind  TypeKind
	Class string
}

var (
	IntType     = Type{Kind: TypeInt}
	CharType    = Type{Kind: TypeChar}
	BooleanType = Type{Kind: TypeBoolean}
)

// ClassType is a reference to an instance of the named class.
func ClassType(name string) Type { return Type{Kind: TypeClass, Class: name} }

// StringType is the type of implicit string-literal locals.
var StringType = ClassType("String")

func (t Type) String() string {
	switch t.Kind {
	case TypeInt:
		return "int"
	case TypeChar:
		return "char"
	case TypeBoolean:
		return "boolean"
	}
	return t.Class
}

//  Declarations

// Class is the root of one compilation unit.
//
//	class Point { field int x, y; ... }
type Class struct {
	Name        string
	Vars        []ClassVarDec
	Subroutines []*SubroutineDec
}

// ClassVarDec declares one or more static or field variables.
//
//	field int x, y;
//	      ^^^ ^^^^  ClassVarDec{Kind: KindField, Type: IntType, Names: ["x", "y"]}
type ClassVarDec struct {
	Kind  Kind
	Type  Type
	Names []string
}

// SubroutineKind distinguishes constructors, functions and methods.
type SubroutineKind int

const (
	Function SubroutineKind = iota
	Method
	Constructor
)

func (k SubroutineKind) String() string {
	switch k {
	case Method:
		return "method"
	case Constructor:
		return "constructor"
	}
	return "function"
}

// Param is one formal parameter.
type Param struct {
	Type Type
	Name string
}

// VarDec declares local variables at the top of a subroutine body.
//
//	var int i, sum;
type VarDec struct {
	Type  Type
	Names []string
}

// SubroutineDec is a constructor, function or method. A nil ReturnType
// means void.
type SubroutineDec struct {
	Kind       SubroutineKind
	ReturnType *Type
	Name       string
	Params     []Param
	Locals     []VarDec
	Body       []Stmt
}

//  Expression nodes

// Expr is implemented by every node that produces a value.
// genExpr always leaves the result on top of the VM stack.
type Expr interface {
	exprNode()
	String() string
}

// IntConst is an integer constant in 0..32767.
type IntConst struct {
	Value uint16
}

func (*IntConst) exprNode()        {}
func (c *IntConst) String() string { return fmt.Sprintf("%d", c.Value) }

// StringConst is a string constant "...".
type StringConst struct {
	Value string
}

func (*StringConst) exprNode()        {}
func (s *StringConst) String() string { return fmt.Sprintf("%q", s.Value) }

// Keyword is one of the keyword constants.
type Keyword int

const (
	True Keyword = iota
	False
	Null
	This
)

func (k Keyword) String() string {
	switch k {
	case True:
		return "true"
	case False:
		return "false"
	case Null:
		return "null"
	}
	return "this"
}

// KeywordConst is true, false, null or this.
type KeywordConst struct {
	Keyword Keyword
}

func (*KeywordConst) exprNode()        {}
func (k *KeywordConst) String() string { return k.Keyword.String() }

// VarRef is a read of a named variable.
//
//	return x;
//	       ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// IndexExpr reads an array element.
//
//	a[i + 1]
type IndexExpr struct {
	Name  string
	Index Expr
}

func (*IndexExpr) exprNode() {}
func (e *IndexExpr) String() string {
	return fmt.Sprintf("%s[%s]", e.Name, e.Index)
}

// UnaryOp is '-' or '~'.
type UnaryOp byte

const (
	Negate UnaryOp = '-'
	Invert UnaryOp = '~'
)

// UnaryExpr is Op Operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}
func (e *UnaryExpr) String() string {
	return fmt.Sprintf("(%c%s)", e.Op, e.Operand)
}

// BinaryOp is one of + - * / & | < > =.
type BinaryOp byte

const (
	Plus    BinaryOp = '+'
	Minus   BinaryOp = '-'
	Times   BinaryOp = '*'
	Div     BinaryOp = '/'
	BitAnd  BinaryOp = '&'
	BitOr   BinaryOp = '|'
	Less    BinaryOp = '<'
	Greater BinaryOp = '>'
	Equal   BinaryOp = '='
)

// BinaryExpr represents a binary operation: Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | +-- Right: IntConst{1}
//	| +---- Op: Plus
//	+------ Left: VarRef{x}
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %c %s)", e.Left, e.Op, e.Right)
}

// SubroutineCall invokes a subroutine. Receiver is empty for a call on
// this, a variable name for a method call, or a class name for a
// function or constructor call.
//
//	p.dist(q)         SubroutineCall{Receiver: "p", Name: "dist", Args: [q]}
//	Math.max(a, b)    SubroutineCall{Receiver: "Math", Name: "max", Args: [a, b]}
//	draw()            SubroutineCall{Name: "draw"}
type SubroutineCall struct {
	Receiver string
	Name     string
	Args     []Expr
}

func (*SubroutineCall) exprNode() {}
func (c *SubroutineCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	name := c.Name
	if c.Receiver != "" {
		name = c.Receiver + "." + c.Name
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

//  Statement nodes

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
}

// LetStmt assigns Value to Name, or to Name[Index] when Index is set.
type LetStmt struct {
	Name  string
	Index Expr
	Value Expr
}

func (*LetStmt) stmtNode() {}

// IfStmt has an optional Else branch.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*IfStmt) stmtNode() {}

// WhileStmt loops while Cond is non-zero.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) stmtNode() {}

// DoStmt calls a subroutine and discards its result.
type DoStmt struct {
	Call *SubroutineCall
}

func (*DoStmt) stmtNode() {}

// ReturnStmt returns Value, or 0 when Value is nil.
type ReturnStmt struct {
	Value Expr
}

func (*ReturnStmt) stmtNode() {}
