// Package seq implements spec.md §4.5: sequentialization (conversion to
// A-normal form). Every compound sub-expression is named via a Let before
// use, so codegen never has to evaluate a nested expression while another
// is mid-evaluation — every operand of a primitive, call, or branch is
// always either a literal or a variable reference by the time this pass
// is done.
package seq

import (
	"fmt"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/lift"
)

// Imm is an immediate operand: a literal or a variable reference. Nothing
// else is allowed to appear directly as an operand in the sequential IR.
type Imm interface {
	immNode()
}

type ImmNum struct{ Val int64 }
type ImmBool struct{ Val bool }
type ImmVar struct{ Name string }

func (ImmNum) immNode() {}
func (ImmBool) immNode() {}
func (ImmVar) immNode() {}

// Exp is the sequential (A-normal form) expression grammar.
type Exp interface {
	seqNode()
}

type EImm struct{ Val Imm }

type EPrim struct {
	Op   ast.Op
	Args []Imm
}

type ELet struct {
	Var      string
	BoundExp Exp
	Body     Exp
}

type EIf struct {
	Cond Imm
	Then Exp
	Else Exp
}

// ECall is a call to a top-level function produced by lift.Lift. IsTail
// records whether this call occurs in tail position of its enclosing
// function — the only calls codegen may lower to a jump instead of a
// call/return pair (spec.md §4.5, §6).
type ECall struct {
	Name   string
	Args   []Imm
	IsTail bool
}

func (EImm) seqNode()  {}
func (EPrim) seqNode() {}
func (ELet) seqNode()  {}
func (EIf) seqNode()   {}
func (ECall) seqNode() {}

// FunDef is a sequentialized top-level function.
type FunDef struct {
	Name   string
	Params []string
	Body   Exp
}

// Program is the fully sequentialized form of a lift.Program: every
// function body (and the entry expression) is in A-normal form, with tail
// calls marked.
type Program struct {
	Funs  []FunDef
	Entry Exp
}

// Sequentialize converts a lifted program to A-normal form. Every function
// body is sequentialized with its trailing expression in tail position;
// the entry expression is sequentialized with no tail position, since it
// is never itself called.
func Sequentialize(p lift.Program) Program {
	sq := &sequentializer{}
	funs := make([]FunDef, len(p.Globals))
	for i, d := range p.Globals {
		funs[i] = FunDef{Name: d.Name, Params: d.Params, Body: sq.tail(d.Body)}
	}
	return Program{Funs: funs, Entry: sq.nonTail(p.Main)}
}

type sequentializer struct {
	counter int
}

func (sq *sequentializer) freshName(prefix string) string {
	sq.counter++
	return fmt.Sprintf("#%s_%d", prefix, sq.counter)
}

// nonTail sequentializes e with every call inside it treated as non-tail —
// used for the program's entry expression and for every non-tail
// sub-position (Let-bound values, primitive operands, branch condition).
func (sq *sequentializer) nonTail(e ast.Exp[ast.Unit]) Exp {
	return sq.convert(e, false)
}

// tail sequentializes e as the body of a function: its own outermost call
// (if e's value position is itself a Call) is in tail position; calls
// nested inside operands or bindings are not.
func (sq *sequentializer) tail(e ast.Exp[ast.Unit]) Exp {
	return sq.convert(e, true)
}

func (sq *sequentializer) convert(e ast.Exp[ast.Unit], tailPos bool) Exp {
	switch n := e.(type) {
	case *ast.Num[ast.Unit]:
		return EImm{Val: ImmNum{Val: n.Val}}

	case *ast.Bool[ast.Unit]:
		return EImm{Val: ImmBool{Val: n.Val}}

	case *ast.Var[ast.Unit]:
		return EImm{Val: ImmVar{Name: n.Name}}

	case *ast.Prim[ast.Unit]:
		return sq.seqPrim(n)

	case *ast.Let[ast.Unit]:
		return sq.seqLet(n, tailPos)

	case *ast.If[ast.Unit]:
		return sq.seqIf(n, tailPos)

	case *ast.Call[ast.Unit]:
		return sq.seqCall(n, tailPos)

	default:
		panic(fmt.Sprintf("seq: unexpected node type %T — lift.Lift should have removed it", e))
	}
}

// seqPrim mirrors try_flatten_prim1/try_flatten_prim2: if an operand is
// already immediate it is used directly; otherwise it is named via a
// fresh Let binding first.
func (sq *sequentializer) seqPrim(n *ast.Prim[ast.Unit]) Exp {
	if len(n.Args) == 1 {
		arg := sq.nonTail(n.Args[0])
		if imm, ok := arg.(EImm); ok {
			return EPrim{Op: n.Op, Args: []Imm{imm.Val}}
		}
		name := sq.freshName("prim1")
		return ELet{
			Var:      name,
			BoundExp: arg,
			Body:     EPrim{Op: n.Op, Args: []Imm{ImmVar{Name: name}}},
		}
	}

	a := sq.nonTail(n.Args[0])
	b := sq.nonTail(n.Args[1])
	aImm, aIsImm := a.(EImm)
	bImm, bIsImm := b.(EImm)

	switch {
	case aIsImm && bIsImm:
		return EPrim{Op: n.Op, Args: []Imm{aImm.Val, bImm.Val}}
	case aIsImm && !bIsImm:
		name := sq.freshName("prim2")
		return ELet{
			Var:      name,
			BoundExp: b,
			Body:     EPrim{Op: n.Op, Args: []Imm{aImm.Val, ImmVar{Name: name}}},
		}
	case !aIsImm && bIsImm:
		name := sq.freshName("prim2")
		return ELet{
			Var:      name,
			BoundExp: a,
			Body:     EPrim{Op: n.Op, Args: []Imm{ImmVar{Name: name}, bImm.Val}},
		}
	default:
		name1 := sq.freshName("prim2")
		name2 := sq.freshName("prim2")
		return ELet{
			Var:      name1,
			BoundExp: a,
			Body: ELet{
				Var:      name2,
				BoundExp: b,
				Body:     EPrim{Op: n.Op, Args: []Imm{ImmVar{Name: name1}, ImmVar{Name: name2}}},
			},
		}
	}
}

// seqLet folds bindings right-to-left, mirroring the reference
// sequentializer's iteration order: the innermost binding's body is the
// fully-sequentialized original body (in the caller's tail position), and
// each earlier binding wraps that as its own body.
func (sq *sequentializer) seqLet(n *ast.Let[ast.Unit], tailPos bool) Exp {
	body := sq.convert(n.Body, tailPos)
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		b := n.Bindings[i]
		body = ELet{
			Var:      b.Name,
			BoundExp: sq.nonTail(b.Value),
			Body:     body,
		}
	}
	return body
}

// seqIf names the condition (never itself evaluated in tail position) and
// sequentializes both branches in tailPos, since an if's branches are in
// the same tail context as the if itself.
func (sq *sequentializer) seqIf(n *ast.If[ast.Unit], tailPos bool) Exp {
	name := sq.freshName("if")
	return ELet{
		Var:      name,
		BoundExp: sq.nonTail(n.Cond),
		Body: EIf{
			Cond: ImmVar{Name: name},
			Then: sq.convert(n.Then, tailPos),
			Else: sq.convert(n.Else, tailPos),
		},
	}
}

// seqCall is the general N-ary analogue of seqPrim's flattening: any
// non-immediate argument is named via a fresh Let, left-to-right, and the
// call itself is the innermost body.
func (sq *sequentializer) seqCall(n *ast.Call[ast.Unit], tailPos bool) Exp {
	args := make([]Imm, len(n.Args))
	type pending struct {
		name  string
		bound Exp
	}
	var pendings []pending
	for i, a := range n.Args {
		sub := sq.nonTail(a)
		if imm, ok := sub.(EImm); ok {
			args[i] = imm.Val
			continue
		}
		name := sq.freshName("arg")
		pendings = append(pendings, pending{name: name, bound: sub})
		args[i] = ImmVar{Name: name}
	}
	var body Exp = ECall{Name: n.Name, Args: args, IsTail: tailPos}
	for i := len(pendings) - 1; i >= 0; i-- {
		body = ELet{Var: pendings[i].name, BoundExp: pendings[i].bound, Body: body}
	}
	return body
}
