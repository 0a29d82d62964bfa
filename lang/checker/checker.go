// Package checker implements spec.md §4.2: a top-down walk of the surface
// AST that validates scope, function arity, and integer overflow, producing
// at most one structured Error — the first violation encountered in
// left-to-right order, per spec.md §4.2 and §7.
package checker

import (
	"fmt"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/token"
)

// Representable source integer range (spec.md §4.2, §6): 63-bit signed.
const (
	MaxNum int64 = 1<<62 - 1
	MinNum int64 = -(1 << 62)
)

// Check walks e and returns the first semantic error found, or nil if e is
// well-formed. e must not contain InternalTailCall or ExternalCall nodes —
// those are only ever introduced by later passes.
func Check(e ast.Exp[token.Span]) *Error {
	c := &checker{}
	return c.expr(e, newScope(nil))
}

type checker struct{}

func (c *checker) expr(e ast.Exp[token.Span], sc *scope) *Error {
	switch n := e.(type) {
	case *ast.Num[token.Span]:
		if n.Val > MaxNum || n.Val < MinNum {
			return &Error{Kind: Overflow, Span: n.Ann, NumVal: n.Val}
		}
		return nil

	case *ast.Bool[token.Span]:
		return nil

	case *ast.Var[token.Span]:
		sym, ok := sc.lookup(n.Name)
		if !ok {
			return &Error{Kind: UnboundVariable, Span: n.Ann, Name: n.Name}
		}
		if sym.kind == symFunc {
			return &Error{Kind: FunctionUsedAsValue, Span: n.Ann, Name: n.Name}
		}
		return nil

	case *ast.Prim[token.Span]:
		for _, a := range n.Args {
			if err := c.expr(a, sc); err != nil {
				return err
			}
		}
		return nil

	case *ast.Let[token.Span]:
		child := newScope(sc)
		seen := newNameSet()
		for _, b := range n.Bindings {
			if seen.add(b.Name) {
				return &Error{Kind: DuplicateBinding, Span: n.Ann, Name: b.Name}
			}
			if err := c.expr(b.Value, child); err != nil {
				return err
			}
			child.define(b.Name, symbol{kind: symVar})
		}
		return c.expr(n.Body, child)

	case *ast.If[token.Span]:
		if err := c.expr(n.Cond, sc); err != nil {
			return err
		}
		if err := c.expr(n.Then, sc); err != nil {
			return err
		}
		return c.expr(n.Else, sc)

	case *ast.FunDefs[token.Span]:
		child := newScope(sc)
		seen := newNameSet()
		for _, d := range n.Decls {
			if seen.add(d.Name) {
				return &Error{Kind: DuplicateFunName, Span: n.Ann, Name: d.Name}
			}
			child.define(d.Name, symbol{kind: symFunc, arity: len(d.Params)})
		}
		for _, d := range n.Decls {
			pseen := newNameSet()
			for _, p := range d.Params {
				if pseen.add(p) {
					return &Error{Kind: DuplicateArgName, Span: d.Ann, Name: p}
				}
			}
			fnScope := newScope(child)
			for _, p := range d.Params {
				fnScope.define(p, symbol{kind: symVar})
			}
			if err := c.expr(d.Body, fnScope); err != nil {
				return err
			}
		}
		return c.expr(n.Body, child)

	case *ast.Call[token.Span]:
		sym, ok := sc.lookup(n.Name)
		if !ok {
			return &Error{Kind: UndefinedFunction, Span: n.Ann, Name: n.Name}
		}
		if sym.kind != symFunc {
			return &Error{Kind: ValueUsedAsFunction, Span: n.Ann, Name: n.Name}
		}
		if len(n.Args) != sym.arity {
			return &Error{
				Kind: FunctionCalledWrongArity, Span: n.Ann, Name: n.Name,
				Expected: sym.arity, Got: len(n.Args),
			}
		}
		for _, a := range n.Args {
			if err := c.expr(a, sc); err != nil {
				return err
			}
		}
		return nil

	default:
		panic(fmt.Sprintf("checker: unexpected node type %T", e))
	}
}
