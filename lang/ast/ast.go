// Package ast defines the surface abstract syntax tree of the source
// language: integers, booleans, variables, primitive operators, sequential
// let-bindings, conditionals, and groups of mutually recursive first-order
// function definitions.
//
// The tree is parameterized by an annotation type, following Design Note 9.1:
// before semantic checking every node is annotated with its token.Span; after
// uniquify (and every later pass) the annotation collapses to Unit, since
// diagnostics are only ever produced against the original, pre-uniquify tree.
package ast

import "fmt"

// Unit is the annotation type used once a tree no longer needs to carry
// source spans (after uniquify and later passes).
type Unit = struct{}

// Exp is the surface expression grammar, polymorphic in its annotation type
// A. Every concrete node is a *pointer* to one of the structs below.
type Exp[A any] interface {
	exprNode()
	// Annotation returns the per-node annotation (a token.Span before
	// checking, ast.Unit afterwards).
	Annotation() A
}

// Num is an integer literal.
type Num[A any] struct {
	Val int64
	Ann A
}

// Bool is a boolean literal.
type Bool[A any] struct {
	Val bool
	Ann A
}

// Var is a reference to a bound name (a variable, or — before checking
// rejects it — possibly a function name).
type Var[A any] struct {
	Name string
	Ann  A
}

// Prim is the application of a primitive operator to its operands. Arity
// (1 for unary ops, 2 for binary ops) is implied by Op and validated by the
// lang/surfacetext parser, not by this type; the checker does not check it.
type Prim[A any] struct {
	Op   Op
	Args []Exp[A]
	Ann  A
}

// Binding is a single name = value pair inside a Let.
type Binding[A any] struct {
	Name  string
	Value Exp[A]
}

// Let represents `let b1, b2, ... in body`. Bindings are sequential: later
// bindings and the body see earlier bindings in the same Let, but two
// bindings in the same Let may not share a name.
type Let[A any] struct {
	Bindings []Binding[A]
	Body     Exp[A]
	Ann      A
}

// If is a conditional expression.
type If[A any] struct {
	Cond, Then, Else Exp[A]
	Ann              A
}

// FunDecl is a single function declaration: a name, its parameter list
// (whose length is the function's arity), and its body.
type FunDecl[A any] struct {
	Name   string
	Params []string
	Body   Exp[A]
	Ann    A
}

// FunDefs introduces a group of mutually recursive local function
// definitions, visible to each other and to Body.
type FunDefs[A any] struct {
	Decls []*FunDecl[A]
	Body  Exp[A]
	Ann   A
}

// Call is an unresolved application of a function known by name, as produced
// by the front end. The checker resolves every Call's arity and existence;
// lambda-lifting keeps Call nodes (appending captured arguments), and
// sequentialization lowers each one to a seq.ECall marked tail or non-tail.
type Call[A any] struct {
	Name string
	Args []Exp[A]
	Ann  A
}

// InternalTailCall is a tail call to a sibling function in the same FunDefs
// group that was not lifted to the top level. No pass in this module
// constructs it; it never appears in a front-end tree.
type InternalTailCall[A any] struct {
	Name string
	Args []Exp[A]
	Ann  A
}

// ExternalCall is a call to a top-level (lifted) function, explicitly marked
// as being in tail position or not. No pass in this module constructs it;
// calls reach codegen as seq.ECall instead.
type ExternalCall[A any] struct {
	Name   string
	Args   []Exp[A]
	IsTail bool
	Ann    A
}

func (n *Num[A]) exprNode()              {}
func (n *Bool[A]) exprNode()             {}
func (n *Var[A]) exprNode()              {}
func (n *Prim[A]) exprNode()             {}
func (n *Let[A]) exprNode()              {}
func (n *If[A]) exprNode()               {}
func (n *FunDefs[A]) exprNode()          {}
func (n *Call[A]) exprNode()             {}
func (n *InternalTailCall[A]) exprNode() {}
func (n *ExternalCall[A]) exprNode()     {}

func (n *Num[A]) Annotation() A              { return n.Ann }
func (n *Bool[A]) Annotation() A             { return n.Ann }
func (n *Var[A]) Annotation() A              { return n.Ann }
func (n *Prim[A]) Annotation() A             { return n.Ann }
func (n *Let[A]) Annotation() A              { return n.Ann }
func (n *If[A]) Annotation() A               { return n.Ann }
func (n *FunDefs[A]) Annotation() A          { return n.Ann }
func (n *Call[A]) Annotation() A             { return n.Ann }
func (n *InternalTailCall[A]) Annotation() A { return n.Ann }
func (n *ExternalCall[A]) Annotation() A     { return n.Ann }

// Op identifies one of the closed set of primitive operators.
type Op uint8

const (
	// Unary operators.
	Add1 Op = iota
	Sub1
	Not
	Print
	IsBool
	IsNum

	// Binary operators. Arity returns 2 for every Op >= Add.
	Add
	Sub
	Mul
	And
	Or
	Lt
	Gt
	Le
	Ge
	Eq
	Neq
)

var opNames = [...]string{
	Add1: "add1", Sub1: "sub1", Not: "not", Print: "print", IsBool: "isbool", IsNum: "isnum",
	Add: "+", Sub: "-", Mul: "*", And: "&&", Or: "||",
	Lt: "<", Gt: ">", Le: "<=", Ge: ">=", Eq: "==", Neq: "!=",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// IsUnary reports whether o takes exactly one operand.
func (o Op) IsUnary() bool { return o <= IsNum }

// Arity returns the number of operands o expects.
func (o Op) Arity() int {
	if o.IsUnary() {
		return 1
	}
	return 2
}
