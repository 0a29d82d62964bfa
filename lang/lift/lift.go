// Package lift implements spec.md §4.4: lambda-lifting. Nested function
// groups (ast.FunDefs) are flattened into a set of top-level function
// declarations, each rewritten to take its free variables as extra
// trailing parameters, and every call site is rewritten to pass those
// variables along explicitly.
package lift

import (
	"github.com/dolthub/swiss"
	"github.com/snake-lang/snakec/lang/ast"
)

// Program is the flat result of lifting: a set of top-level function
// declarations plus the top-level expression that drives them. When Lift
// is called with forceGlobal, every ast.Call remaining in Globals or Main
// targets a name in Globals; without it, a call may also target a
// closure-free function kept in a FunDefs that survived lifting.
type Program struct {
	Globals []*ast.FunDecl[ast.Unit]
	Main    ast.Exp[ast.Unit]
}

// globalEntry is what lifting records for a function it promotes to the
// top level: its rewritten declaration (original parameters plus captured
// free variables appended, in first-insertion order) and the captured
// names alone, so call sites know exactly which extra arguments to append.
type globalEntry struct {
	decl     *ast.FunDecl[ast.Unit]
	captured []string
}

// globalsTable is an insertion-ordered map: swiss.Map gives O(1) lookup,
// but its iteration order is unspecified, and spec.md requires the emitted
// top-level function order to be deterministic, so a parallel slice
// records first-insertion order.
type globalsTable struct {
	byName *swiss.Map[string, *globalEntry]
	order  []string
}

func newGlobalsTable() *globalsTable {
	return &globalsTable{byName: swiss.NewMap[string, *globalEntry](8)}
}

func (g *globalsTable) put(name string, e *globalEntry) {
	if _, exists := g.byName.Get(name); !exists {
		g.order = append(g.order, name)
	}
	g.byName.Put(name, e)
}

func (g *globalsTable) get(name string) (*globalEntry, bool) {
	return g.byName.Get(name)
}

// Lift lambda-lifts e. When forceGlobal is true every declared function is
// promoted to the top level regardless of whether it captures anything —
// required before codegen, which only ever targets flat top-level
// functions (SPEC_FULL.md §9). When false, a function that captures no
// free variables is left nested, closer to the source program's shape,
// which the lift CLI command exposes for debugging.
func Lift(e ast.Exp[ast.Unit], forceGlobal bool) Program {
	globals := newGlobalsTable()
	main := liftInner(e, globals, forceGlobal)

	decls := make([]*ast.FunDecl[ast.Unit], len(globals.order))
	for i, name := range globals.order {
		entry, _ := globals.get(name)
		decls[i] = entry.decl
	}
	for i, d := range decls {
		decls[i] = &ast.FunDecl[ast.Unit]{
			Name:   d.Name,
			Params: d.Params,
			Body:   rewriteCalls(d.Body, globals),
		}
	}
	return Program{Globals: decls, Main: rewriteCalls(main, globals)}
}

func liftInner(e ast.Exp[ast.Unit], globals *globalsTable, forceGlobal bool) ast.Exp[ast.Unit] {
	switch n := e.(type) {
	case *ast.Num[ast.Unit]:
		return n
	case *ast.Bool[ast.Unit]:
		return n
	case *ast.Var[ast.Unit]:
		return n

	case *ast.Prim[ast.Unit]:
		args := make([]ast.Exp[ast.Unit], len(n.Args))
		for i, a := range n.Args {
			args[i] = liftInner(a, globals, forceGlobal)
		}
		return &ast.Prim[ast.Unit]{Op: n.Op, Args: args}

	case *ast.Let[ast.Unit]:
		bindings := make([]ast.Binding[ast.Unit], len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = ast.Binding[ast.Unit]{Name: b.Name, Value: liftInner(b.Value, globals, forceGlobal)}
		}
		return &ast.Let[ast.Unit]{Bindings: bindings, Body: liftInner(n.Body, globals, forceGlobal)}

	case *ast.If[ast.Unit]:
		return &ast.If[ast.Unit]{
			Cond: liftInner(n.Cond, globals, forceGlobal),
			Then: liftInner(n.Then, globals, forceGlobal),
			Else: liftInner(n.Else, globals, forceGlobal),
		}

	case *ast.FunDefs[ast.Unit]:
		var keptLocal []*ast.FunDecl[ast.Unit]
		for _, d := range n.Decls {
			captured := freeVars(d)
			if len(captured) == 0 && !forceGlobal {
				keptLocal = append(keptLocal, d)
				continue
			}
			params := append(append([]string{}, d.Params...), captured...)
			globals.put(d.Name, &globalEntry{
				decl:     &ast.FunDecl[ast.Unit]{Name: d.Name, Params: params, Body: liftInner(d.Body, globals, forceGlobal)},
				captured: captured,
			})
		}
		newBody := liftInner(n.Body, globals, forceGlobal)
		if len(keptLocal) == 0 {
			return newBody
		}
		for i, d := range keptLocal {
			keptLocal[i] = &ast.FunDecl[ast.Unit]{Name: d.Name, Params: d.Params, Body: liftInner(d.Body, globals, forceGlobal)}
		}
		return &ast.FunDefs[ast.Unit]{Decls: keptLocal, Body: newBody}

	case *ast.Call[ast.Unit]:
		args := make([]ast.Exp[ast.Unit], len(n.Args))
		for i, a := range n.Args {
			args[i] = liftInner(a, globals, forceGlobal)
		}
		return &ast.Call[ast.Unit]{Name: n.Name, Args: args}

	default:
		panic("lift: unexpected node type in uniquified tree")
	}
}

// freeVars returns d's captured variables: names referenced in its body
// that are neither its own parameters nor bound within the body itself, in
// first-insertion order (spec.md §9: insertion order, lexicographic only as
// a tiebreak when insertion order itself is ambiguous — it never is here,
// since this is a single deterministic linear walk).
func freeVars(d *ast.FunDecl[ast.Unit]) []string {
	locals := swiss.NewMap[string, struct{}](8)
	for _, p := range d.Params {
		locals.Put(p, struct{}{})
	}
	captured := newOrderedSet()
	searchUnbound(d.Body, locals, captured)
	return captured.ordered()
}

func searchUnbound(e ast.Exp[ast.Unit], locals *swiss.Map[string, struct{}], captured *orderedSet) {
	switch n := e.(type) {
	case *ast.Num[ast.Unit], *ast.Bool[ast.Unit]:
		// no variables

	case *ast.Var[ast.Unit]:
		if _, ok := locals.Get(n.Name); !ok {
			captured.add(n.Name)
		}

	case *ast.Prim[ast.Unit]:
		for _, a := range n.Args {
			searchUnbound(a, locals, captured)
		}

	case *ast.Let[ast.Unit]:
		for _, b := range n.Bindings {
			searchUnbound(b.Value, locals, captured)
			locals.Put(b.Name, struct{}{})
		}
		searchUnbound(n.Body, locals, captured)

	case *ast.If[ast.Unit]:
		searchUnbound(n.Cond, locals, captured)
		searchUnbound(n.Then, locals, captured)
		searchUnbound(n.Else, locals, captured)

	case *ast.FunDefs[ast.Unit]:
		for _, d := range n.Decls {
			for _, p := range d.Params {
				locals.Put(p, struct{}{})
			}
			searchUnbound(d.Body, locals, captured)
		}
		searchUnbound(n.Body, locals, captured)

	case *ast.Call[ast.Unit]:
		for _, a := range n.Args {
			searchUnbound(a, locals, captured)
		}

	default:
		panic("lift: unexpected node type in uniquified tree")
	}
}

// rewriteCalls appends each lifted function's captured variables as extra
// trailing arguments at every call site that targets it.
func rewriteCalls(e ast.Exp[ast.Unit], globals *globalsTable) ast.Exp[ast.Unit] {
	switch n := e.(type) {
	case *ast.Num[ast.Unit]:
		return n
	case *ast.Bool[ast.Unit]:
		return n
	case *ast.Var[ast.Unit]:
		return n

	case *ast.Prim[ast.Unit]:
		args := make([]ast.Exp[ast.Unit], len(n.Args))
		for i, a := range n.Args {
			args[i] = rewriteCalls(a, globals)
		}
		return &ast.Prim[ast.Unit]{Op: n.Op, Args: args}

	case *ast.Let[ast.Unit]:
		bindings := make([]ast.Binding[ast.Unit], len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = ast.Binding[ast.Unit]{Name: b.Name, Value: rewriteCalls(b.Value, globals)}
		}
		return &ast.Let[ast.Unit]{Bindings: bindings, Body: rewriteCalls(n.Body, globals)}

	case *ast.If[ast.Unit]:
		return &ast.If[ast.Unit]{
			Cond: rewriteCalls(n.Cond, globals),
			Then: rewriteCalls(n.Then, globals),
			Else: rewriteCalls(n.Else, globals),
		}

	case *ast.FunDefs[ast.Unit]:
		decls := make([]*ast.FunDecl[ast.Unit], len(n.Decls))
		for i, d := range n.Decls {
			decls[i] = &ast.FunDecl[ast.Unit]{Name: d.Name, Params: d.Params, Body: rewriteCalls(d.Body, globals)}
		}
		return &ast.FunDefs[ast.Unit]{Decls: decls, Body: rewriteCalls(n.Body, globals)}

	case *ast.Call[ast.Unit]:
		args := make([]ast.Exp[ast.Unit], len(n.Args))
		for i, a := range n.Args {
			args[i] = rewriteCalls(a, globals)
		}
		if g, ok := globals.get(n.Name); ok {
			for _, p := range g.captured {
				args = append(args, &ast.Var[ast.Unit]{Name: p})
			}
		}
		return &ast.Call[ast.Unit]{Name: n.Name, Args: args}

	default:
		panic("lift: unexpected node type in uniquified tree")
	}
}

// orderedSet records distinct strings in first-insertion order — the
// deterministic capture ordering spec.md §9 requires.
type orderedSet struct {
	seen  *swiss.Map[string, struct{}]
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: swiss.NewMap[string, struct{}](8)}
}

func (s *orderedSet) add(name string) {
	if _, ok := s.seen.Get(name); ok {
		return
	}
	s.seen.Put(name, struct{}{})
	s.order = append(s.order, name)
}

// ordered returns the recorded names in first-insertion order.
func (s *orderedSet) ordered() []string {
	return append([]string(nil), s.order...)
}
