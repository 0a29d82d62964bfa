// Package compiler wires the whole pipeline together: check, uniquify,
// lambda-lift, sequentialize, and generate x86-64 assembly text, the
// spec.md §6 entry point a CLI or test calls to go from a surface-syntax
// tree straight to a linkable `.s` file.
package compiler

import (
	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/checker"
	"github.com/snake-lang/snakec/lang/codegen"
	"github.com/snake-lang/snakec/lang/lift"
	"github.com/snake-lang/snakec/lang/seq"
	"github.com/snake-lang/snakec/lang/token"
	"github.com/snake-lang/snakec/lang/uniquify"
)

// CompileProgram runs the full pipeline over a surface-syntax tree still
// carrying source spans: check, uniquify, lift (forcing every function to
// the top level — lang/seq.Sequentialize cannot consume a tree with a
// surviving nested FunDefs, per SPEC_FULL.md §9.2), sequentialize, and
// generate assembly text. It returns the checker's errors, if any, instead
// of compiling a program known to be ill-formed.
func CompileProgram(e ast.Exp[token.Span]) (string, *checker.Error) {
	if err := checker.Check(e); err != nil {
		return "", err
	}
	return CompileProgramFullyLifted(e), nil
}

// CompileProgramFullyLifted runs the pipeline without a checking pass,
// forcing every function to the top level regardless of whether it
// captures anything. It exists for tests and tooling that already know
// their input is well-formed and want every function directly callable by
// name, bypassing lambda-lifting's closure-retention optimization.
func CompileProgramFullyLifted(e ast.Exp[token.Span]) string {
	uniq := uniquify.Uniquify(e)
	lifted := lift.Lift(uniq, true)
	sequential := seq.Sequentialize(lifted)
	return codegen.Compile(sequential)
}
