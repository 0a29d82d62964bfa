package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/snake-lang/snakec/lang/lift"
	"github.com/snake-lang/snakec/lang/seq"
	"github.com/snake-lang/snakec/lang/uniquify"
)

func (c *Cmd) Seq(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return SeqFile(stdio, args[0])
}

func SeqFile(stdio mainer.Stdio, path string) error {
	tree, err := parseFile(stdio, path)
	if err != nil {
		return err
	}
	// Sequentialize only ever consumes the fully-lifted shape (its convert
	// switch has no case for a surviving ast.FunDefs node), so this command
	// always forces every function to the top level, the same way the
	// compile command does.
	lifted := lift.Lift(uniquify.Uniquify(tree), true)
	program := seq.Sequentialize(lifted)

	for _, f := range program.Funs {
		fmt.Fprintf(stdio.Stdout, "fun %s(%d params)\n", f.Name, len(f.Params))
	}
	fmt.Fprintln(stdio.Stdout, "entry")
	return nil
}
