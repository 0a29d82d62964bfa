package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/snake-lang/snakec/lang/checker"
	"github.com/snake-lang/snakec/lang/surfacetext"
)

func (c *Cmd) Check(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CheckFile(stdio, args[0])
}

func CheckFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}
	tree, err := surfacetext.Parse(string(src))
	if err != nil {
		return printError(stdio, err)
	}
	if cerr := checker.Check(tree); cerr != nil {
		return printError(stdio, cerr)
	}
	fmt.Fprintln(stdio.Stdout, "ok")
	return nil
}
