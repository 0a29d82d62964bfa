package compiler_test

import (
	"strings"
	"testing"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/compiler"
	"github.com/snake-lang/snakec/lang/token"
	"github.com/stretchr/testify/require"
)

func sp() token.Span { return token.Span{} }

func num(v int64) ast.Exp[token.Span] { return &ast.Num[token.Span]{Val: v, Ann: sp()} }
func vr(n string) ast.Exp[token.Span] { return &ast.Var[token.Span]{Name: n, Ann: sp()} }

func TestCompileProgramRejectsIllFormedInput(t *testing.T) {
	tree := vr("undefined")
	_, err := compiler.CompileProgram(tree)
	require.NotNil(t, err)
}

func TestCompileProgramAcceptsWellFormedInput(t *testing.T) {
	tree := &ast.Prim[token.Span]{Op: ast.Add, Args: []ast.Exp[token.Span]{num(1), num(2)}, Ann: sp()}
	out, err := compiler.CompileProgram(tree)
	require.Nil(t, err)
	require.True(t, strings.HasPrefix(out, "section .text\n"))
	require.Contains(t, out, "start_here:\n")
}

func TestCompileProgramWithFunctionsEmitsCallableLabel(t *testing.T) {
	decl := &ast.FunDecl[token.Span]{
		Name:   "double",
		Params: []string{"n"},
		Body:   &ast.Prim[token.Span]{Op: ast.Add, Args: []ast.Exp[token.Span]{vr("n"), vr("n")}, Ann: sp()},
		Ann:    sp(),
	}
	tree := &ast.FunDefs[token.Span]{
		Decls: []*ast.FunDecl[token.Span]{decl},
		Body:  &ast.Call[token.Span]{Name: "double", Args: []ast.Exp[token.Span]{num(21)}, Ann: sp()},
		Ann:   sp(),
	}
	out, err := compiler.CompileProgram(tree)
	require.Nil(t, err)
	require.Contains(t, out, "snake_fun_")
}
