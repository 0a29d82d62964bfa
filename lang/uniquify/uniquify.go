// Package uniquify implements spec.md §4.3: alpha-renaming. Every bound
// name (let-binding, function name, function parameter) is replaced by a
// fresh, globally distinct name, so that later passes never need to reason
// about shadowing.
package uniquify

import (
	"strconv"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/token"
)

// Uniquify renames every bound identifier in e to a fresh name and drops
// source-span annotations, producing the Unit-annotated tree every later
// pass operates on. e must already have passed checker.Check — Uniquify
// panics on an unbound variable, since that can only happen on malformed
// input the checker should have rejected.
func Uniquify(e ast.Exp[token.Span]) ast.Exp[ast.Unit] {
	u := &uniquifier{}
	return u.expr(e, map[string]string{})
}

// uniquifier holds the fresh-name counter. Each call to fresh mutates it, so
// a single uniquifier must not be shared across concurrent compiles.
type uniquifier struct {
	counter int
}

// fresh returns a new globally-unique name derived from base, purely for
// readability in printed output — uniqueness comes entirely from the
// counter, not from base.
func (u *uniquifier) fresh(base string) string {
	u.counter++
	return base + "$" + strconv.Itoa(u.counter)
}

// mapping is cloned at every Let and FunDefs boundary, mirroring the
// reference uniquify pass's scoped-copy-on-recursion behavior: each nested
// scope sees its own view of bound names without mutating an enclosing
// scope's view. A plain Go map is the right tool here — the pattern is a
// point-in-time snapshot copy at each scope boundary, not an
// insertion-heavy accumulation that would benefit from swiss.Map.
func cloneMapping(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (u *uniquifier) expr(e ast.Exp[token.Span], mapping map[string]string) ast.Exp[ast.Unit] {
	switch n := e.(type) {
	case *ast.Num[token.Span]:
		return &ast.Num[ast.Unit]{Val: n.Val}

	case *ast.Bool[token.Span]:
		return &ast.Bool[ast.Unit]{Val: n.Val}

	case *ast.Var[token.Span]:
		name, ok := mapping[n.Name]
		if !ok {
			panic("uniquify: unbound variable " + n.Name + " — checker should have rejected this")
		}
		return &ast.Var[ast.Unit]{Name: name}

	case *ast.Prim[token.Span]:
		args := make([]ast.Exp[ast.Unit], len(n.Args))
		for i, a := range n.Args {
			args[i] = u.expr(a, mapping)
		}
		return &ast.Prim[ast.Unit]{Op: n.Op, Args: args}

	case *ast.Let[token.Span]:
		scoped := cloneMapping(mapping)
		bindings := make([]ast.Binding[ast.Unit], len(n.Bindings))
		for i, b := range n.Bindings {
			value := u.expr(b.Value, scoped)
			freshName := u.fresh(b.Name)
			scoped[b.Name] = freshName
			bindings[i] = ast.Binding[ast.Unit]{Name: freshName, Value: value}
		}
		return &ast.Let[ast.Unit]{Bindings: bindings, Body: u.expr(n.Body, scoped)}

	case *ast.If[token.Span]:
		return &ast.If[ast.Unit]{
			Cond: u.expr(n.Cond, mapping),
			Then: u.expr(n.Then, mapping),
			Else: u.expr(n.Else, mapping),
		}

	case *ast.FunDefs[token.Span]:
		scoped := cloneMapping(mapping)
		for _, d := range n.Decls {
			scoped[d.Name] = u.fresh(d.Name)
		}
		decls := make([]*ast.FunDecl[ast.Unit], len(n.Decls))
		for i, d := range n.Decls {
			fnScope := cloneMapping(scoped)
			params := make([]string, len(d.Params))
			for j, p := range d.Params {
				freshParam := u.fresh(p)
				fnScope[p] = freshParam
				params[j] = freshParam
			}
			decls[i] = &ast.FunDecl[ast.Unit]{
				Name:   scoped[d.Name],
				Params: params,
				Body:   u.expr(d.Body, fnScope),
			}
		}
		return &ast.FunDefs[ast.Unit]{Decls: decls, Body: u.expr(n.Body, scoped)}

	case *ast.Call[token.Span]:
		name, ok := mapping[n.Name]
		if !ok {
			panic("uniquify: call to unbound function " + n.Name + " — checker should have rejected this")
		}
		args := make([]ast.Exp[ast.Unit], len(n.Args))
		for i, a := range n.Args {
			args[i] = u.expr(a, mapping)
		}
		return &ast.Call[ast.Unit]{Name: name, Args: args}

	default:
		panic("uniquify: unexpected node type in front-end tree")
	}
}
