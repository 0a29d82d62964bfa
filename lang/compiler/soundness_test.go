package compiler_test

// Soundness property tests (SPEC_FULL.md §8): running a program through
// EvalSurface (the pre-lift ground truth) must agree with running the same
// program after lifting — regardless of whether lift.Lift is asked to force
// every function to the top level. A fully lifted program is sequentialized
// and run through interp.Run; without forceGlobal the lifted program may
// keep nested FunDefs, which seq.Sequentialize does not accept, so it is
// evaluated with EvalSurface, its globals in scope.
// These tests exercise lang/lift and lang/seq directly rather than through
// lang/compiler's CompileProgram, since their oracle is interp, not an
// assembled and executed binary.

import (
	"fmt"
	"strings"
	"testing"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/checker"
	"github.com/snake-lang/snakec/lang/interp"
	"github.com/snake-lang/snakec/lang/lift"
	"github.com/snake-lang/snakec/lang/seq"
	"github.com/snake-lang/snakec/lang/surfacetext"
	"github.com/snake-lang/snakec/lang/token"
	"github.com/snake-lang/snakec/lang/uniquify"
	"github.com/stretchr/testify/require"
)

func itoa(v int64) string { return fmt.Sprintf("%d", v) }

// reannotateForTest re-attaches zero token.Span annotations to an
// already-uniquified tree, mirroring internal/maincmd's own reannotate
// helper, so that uniquify.Uniquify (which only accepts a span-annotated
// tree) can be run a second time over output it already produced.
func reannotateForTest(e ast.Exp[ast.Unit]) ast.Exp[token.Span] {
	switch n := e.(type) {
	case *ast.Num[ast.Unit]:
		return &ast.Num[token.Span]{Val: n.Val}
	case *ast.Bool[ast.Unit]:
		return &ast.Bool[token.Span]{Val: n.Val}
	case *ast.Var[ast.Unit]:
		return &ast.Var[token.Span]{Name: n.Name}
	case *ast.Prim[ast.Unit]:
		args := make([]ast.Exp[token.Span], len(n.Args))
		for i, a := range n.Args {
			args[i] = reannotateForTest(a)
		}
		return &ast.Prim[token.Span]{Op: n.Op, Args: args}
	case *ast.Let[ast.Unit]:
		bindings := make([]ast.Binding[token.Span], len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = ast.Binding[token.Span]{Name: b.Name, Value: reannotateForTest(b.Value)}
		}
		return &ast.Let[token.Span]{Bindings: bindings, Body: reannotateForTest(n.Body)}
	case *ast.If[ast.Unit]:
		return &ast.If[token.Span]{Cond: reannotateForTest(n.Cond), Then: reannotateForTest(n.Then), Else: reannotateForTest(n.Else)}
	case *ast.FunDefs[ast.Unit]:
		decls := make([]*ast.FunDecl[token.Span], len(n.Decls))
		for i, d := range n.Decls {
			decls[i] = &ast.FunDecl[token.Span]{Name: d.Name, Params: d.Params, Body: reannotateForTest(d.Body)}
		}
		return &ast.FunDefs[token.Span]{Decls: decls, Body: reannotateForTest(n.Body)}
	case *ast.Call[ast.Unit]:
		args := make([]ast.Exp[token.Span], len(n.Args))
		for i, a := range n.Args {
			args[i] = reannotateForTest(a)
		}
		return &ast.Call[token.Span]{Name: n.Name, Args: args}
	default:
		panic(fmt.Sprintf("reannotateForTest: unexpected ast.Exp type %T", e))
	}
}

// runBoth checks src (well-formed, in surfacetext) and returns the surface
// interpreter's result alongside the result of lifting with forceGlobal and
// then either sequentializing (forceGlobal) or evaluating the lifted
// program directly (no forceGlobal).
func runBoth(t *testing.T, src string, forceGlobal bool) (interp.Value, *interp.Error, interp.Value, *interp.Error) {
	t.Helper()
	tree, err := surfacetext.Parse(src)
	require.NoError(t, err)
	require.Nil(t, checker.Check(tree))

	uniq := uniquify.Uniquify(tree)

	var surfaceOut, seqOut strings.Builder
	surfaceVal, surfaceErr := interp.EvalSurface(uniq, &surfaceOut)

	lifted := lift.Lift(uniq, forceGlobal)
	var seqVal interp.Value
	var seqErr *interp.Error
	if forceGlobal {
		program := seq.Sequentialize(lifted)
		seqVal, seqErr = interp.Run(program, &seqOut)
	} else {
		wrapped := &ast.FunDefs[ast.Unit]{Decls: lifted.Globals, Body: lifted.Main}
		seqVal, seqErr = interp.EvalSurface(wrapped, &seqOut)
	}

	require.Equal(t, surfaceOut.String(), seqOut.String(), "print side effects diverged")
	return surfaceVal, surfaceErr, seqVal, seqErr
}

func TestUniquifyIdempotentUnderRenaming(t *testing.T) {
	// Running uniquify a second time on an already-uniquified tree must not
	// change what the tree evaluates to, even though every bound name is
	// renamed again — the names themselves are not observable.
	tree, err := surfacetext.Parse("(let ((x (num 1)) (y (num 2))) (prim + (var x) (var y)))")
	require.NoError(t, err)
	require.Nil(t, checker.Check(tree))

	once := uniquify.Uniquify(tree)
	onceVal, onceErr := interp.EvalSurface(once, &strings.Builder{})
	require.Nil(t, onceErr)

	// uniquify.Uniquify takes an ast.Exp[token.Span]; reannotating the
	// already-uniquified tree with zero spans lets it run through Uniquify
	// again, mirroring how internal/maincmd's own reannotate helper bridges
	// between an ast.Unit tree and a re-checkable one.
	reannotated := reannotateForTest(once)
	twice := uniquify.Uniquify(reannotated)
	twiceVal, twiceErr := interp.EvalSurface(twice, &strings.Builder{})
	require.Nil(t, twiceErr)

	require.Equal(t, onceVal, twiceVal)
}

func TestLiftSoundnessForNonCapturingFunction(t *testing.T) {
	src := "(fun ((double (n) (prim + (var n) (var n)))) (call double (num 21)))"
	sv, se, qv, qe := runBoth(t, src, false)
	require.Nil(t, se)
	require.Nil(t, qe)
	require.Equal(t, sv, qv)

	sv2, se2, qv2, qe2 := runBoth(t, src, true)
	require.Nil(t, se2)
	require.Nil(t, qe2)
	require.Equal(t, sv2, qv2)
	require.Equal(t, sv, sv2)
}

func TestLiftSoundnessForCapturingFunction(t *testing.T) {
	// add's body references the enclosing `k`, so lift.Lift must append it
	// as a trailing captured parameter at every call site. forceGlobal
	// shouldn't change the observable result, only whether the function
	// stays nested or is promoted to the top level.
	src := "(let ((k (num 10))) (fun ((add (n) (prim + (var n) (var k)))) (call add (num 5))))"
	sv, se, qv, qe := runBoth(t, src, false)
	require.Nil(t, se)
	require.Nil(t, qe)
	require.Equal(t, sv, qv)

	sv2, se2, qv2, qe2 := runBoth(t, src, true)
	require.Nil(t, se2)
	require.Nil(t, qe2)
	require.Equal(t, sv2, qv2)
	require.Equal(t, sv, sv2)
}

func TestLiftSoundnessForMutualRecursion(t *testing.T) {
	src := "(fun (" +
		"(isEven (n) (if (prim == (var n) (num 0)) (bool true) (call isOdd (prim - (var n) (num 1)))))" +
		"(isOdd (n) (if (prim == (var n) (num 0)) (bool false) (call isEven (prim - (var n) (num 1)))))" +
		") (call isEven (num 8)))"
	sv, se, qv, qe := runBoth(t, src, false)
	require.Nil(t, se)
	require.Nil(t, qe)
	require.Equal(t, interp.Bool{Val: true}, sv)
	require.Equal(t, sv, qv)
}

func TestSequentializerSoundnessForNestedExpressions(t *testing.T) {
	src := "(if (prim < (prim + (num 1) (num 2)) (prim * (num 2) (num 2))) (prim + (num 10) (num 1)) (num 0))"
	sv, se, qv, qe := runBoth(t, src, true)
	require.Nil(t, se)
	require.Nil(t, qe)
	require.Equal(t, sv, qv)
}

func TestSequentializerSoundnessPreservesOverflowFaults(t *testing.T) {
	big := checker.MaxNum
	src := "(prim + (num " + itoa(big) + ") (num 1))"
	sv, se, qv, qe := runBoth(t, src, true)
	require.Nil(t, sv)
	require.Nil(t, qv)
	require.NotNil(t, se)
	require.NotNil(t, qe)
	require.Equal(t, se.Kind, qe.Kind)
}

func TestSequentializerSoundnessPreservesPrintOrder(t *testing.T) {
	src := "(let ((a (prim print (num 1))) (b (prim print (num 2)))) (prim + (var a) (var b)))"
	sv, se, qv, qe := runBoth(t, src, true)
	require.Nil(t, se)
	require.Nil(t, qe)
	require.Equal(t, sv, qv)
}
