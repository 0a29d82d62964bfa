package interp

import (
	"fmt"
	"io"

	"github.com/snake-lang/snakec/lang/ast"
)

// closure pairs a function declaration with the environment visible at its
// definition site, so a reference to an enclosing variable inside a nested
// FunDefs resolves the way lexical scoping requires — lift.Lift later turns
// that same capture into an explicit trailing parameter (SPEC_FULL.md §9),
// but EvalSurface runs before lifting and so must still close over it.
type closure struct {
	decl *ast.FunDecl[ast.Unit]
	env  map[string]Value
}

// surfaceInterp evaluates the uniquified surface tree directly, before
// lambda-lifting or sequentialization. Because uniquify.Uniquify gives every
// bound name in the whole program a distinct identity, a single flat
// function table keyed by name is safe to share across the entire
// evaluation: two FunDefs groups can never declare the same name.
type surfaceInterp struct {
	funcs map[string]closure
	out   io.Writer
}

// EvalSurface evaluates e — a program after uniquify.Uniquify but before
// lift.Lift — directly over the surface grammar. It is the ground truth
// spec.md §8's lift and uniquify soundness properties are stated against:
// lifting (with either forceGlobal setting) and sequentializing e must
// produce a seq.Program that interp.Run agrees with on every well-formed
// input.
func EvalSurface(e ast.Exp[ast.Unit], out io.Writer) (Value, *Error) {
	it := &surfaceInterp{funcs: make(map[string]closure), out: out}
	return it.eval(e, map[string]Value{})
}

func (it *surfaceInterp) eval(e ast.Exp[ast.Unit], env map[string]Value) (Value, *Error) {
	switch n := e.(type) {
	case *ast.Num[ast.Unit]:
		return Num{Val: n.Val}, nil

	case *ast.Bool[ast.Unit]:
		return Bool{Val: n.Val}, nil

	case *ast.Var[ast.Unit]:
		v, ok := env[n.Name]
		if !ok {
			return nil, &Error{Kind: ErrUnboundVariable, Msg: fmt.Sprintf("unbound variable %q at runtime", n.Name)}
		}
		return v, nil

	case *ast.Prim[ast.Unit]:
		vals := make([]Value, len(n.Args))
		for i, a := range n.Args {
			v, err := it.eval(a, env)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return applyPrim(n.Op, vals, it.out)

	case *ast.Let[ast.Unit]:
		child := env
		for _, b := range n.Bindings {
			v, err := it.eval(b.Value, child)
			if err != nil {
				return nil, err
			}
			child = extend(child, b.Name, v)
		}
		return it.eval(n.Body, child)

	case *ast.If[ast.Unit]:
		v, err := it.eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		b, ok := v.(Bool)
		if !ok {
			return nil, expectedBool("if", v)
		}
		if b.Val {
			return it.eval(n.Then, env)
		}
		return it.eval(n.Else, env)

	case *ast.FunDefs[ast.Unit]:
		for _, d := range n.Decls {
			it.funcs[d.Name] = closure{decl: d, env: env}
		}
		return it.eval(n.Body, env)

	case *ast.Call[ast.Unit]:
		return it.evalCall(n, env)

	default:
		panic(fmt.Sprintf("interp: unexpected node type %T in surface tree", e))
	}
}

func (it *surfaceInterp) evalCall(n *ast.Call[ast.Unit], env map[string]Value) (Value, *Error) {
	cl, ok := it.funcs[n.Name]
	if !ok {
		return nil, &Error{Kind: ErrUndefinedFunction, Msg: fmt.Sprintf("call to undefined function %q", n.Name)}
	}
	if len(n.Args) != len(cl.decl.Params) {
		return nil, &Error{
			Kind: ErrArity,
			Msg:  fmt.Sprintf("function %q expecting %d arguments called with %d arguments", n.Name, len(cl.decl.Params), len(n.Args)),
		}
	}
	callEnv := cl.env
	for i, p := range cl.decl.Params {
		v, err := it.eval(n.Args[i], env)
		if err != nil {
			return nil, err
		}
		callEnv = extend(callEnv, p, v)
	}
	return it.eval(cl.decl.Body, callEnv)
}
