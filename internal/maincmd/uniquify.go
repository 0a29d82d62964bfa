package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/checker"
	"github.com/snake-lang/snakec/lang/surfacetext"
	"github.com/snake-lang/snakec/lang/token"
	"github.com/snake-lang/snakec/lang/uniquify"
)

func (c *Cmd) Uniquify(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return UniquifyFile(stdio, args[0])
}

func UniquifyFile(stdio mainer.Stdio, path string) error {
	tree, err := parseFile(stdio, path)
	if err != nil {
		return err
	}
	renamed := uniquify.Uniquify(tree)
	fmt.Fprintln(stdio.Stdout, writeUnitTree(renamed))
	return nil
}

func parseFile(stdio mainer.Stdio, path string) (ast.Exp[token.Span], error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, printError(stdio, err)
	}
	tree, err := surfacetext.Parse(string(src))
	if err != nil {
		return nil, printError(stdio, err)
	}
	if cerr := checker.Check(tree); cerr != nil {
		return nil, printError(stdio, cerr)
	}
	return tree, nil
}

// writeUnitTree prints an ast.Unit-annotated tree (post-uniquify) by
// re-annotating it with zero spans, since surfacetext.Write only accepts
// the span-annotated tree shape diagnostics need — after uniquify there is
// no source position left to lose.
func writeUnitTree(e ast.Exp[ast.Unit]) string {
	return surfacetext.Write(reannotate(e))
}

func reannotate(e ast.Exp[ast.Unit]) ast.Exp[token.Span] {
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
			args[i] = reannotate(a)
		}
		return &ast.Prim[token.Span]{Op: n.Op, Args: args}
	case *ast.Let[ast.Unit]:
		bindings := make([]ast.Binding[token.Span], len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = ast.Binding[token.Span]{Name: b.Name, Value: reannotate(b.Value)}
		}
		return &ast.Let[token.Span]{Bindings: bindings, Body: reannotate(n.Body)}
	case *ast.If[ast.Unit]:
		return &ast.If[token.Span]{Cond: reannotate(n.Cond), Then: reannotate(n.Then), Else: reannotate(n.Else)}
	case *ast.FunDefs[ast.Unit]:
		decls := make([]*ast.FunDecl[token.Span], len(n.Decls))
		for i, d := range n.Decls {
			decls[i] = &ast.FunDecl[token.Span]{Name: d.Name, Params: d.Params, Body: reannotate(d.Body)}
		}
		return &ast.FunDefs[token.Span]{Decls: decls, Body: reannotate(n.Body)}
	case *ast.Call[ast.Unit]:
		args := make([]ast.Exp[token.Span], len(n.Args))
		for i, a := range n.Args {
			args[i] = reannotate(a)
		}
		return &ast.Call[token.Span]{Name: n.Name, Args: args}
	default:
		panic(fmt.Sprintf("maincmd: unexpected ast.Exp type %T", e))
	}
}
