package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/snake-lang/snakec/lang/compiler"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFile(stdio, args[0])
}

func CompileFile(stdio mainer.Stdio, path string) error {
	tree, err := parseFile(stdio, path)
	if err != nil {
		return err
	}
	asmText := compiler.CompileProgramFullyLifted(tree)
	fmt.Fprint(stdio.Stdout, asmText)
	return nil
}
