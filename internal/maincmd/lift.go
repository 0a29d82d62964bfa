package maincmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/mna/mainer"
	"github.com/snake-lang/snakec/lang/lift"
	"github.com/snake-lang/snakec/lang/uniquify"
)

func (c *Cmd) Lift(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return LiftFile(stdio, args[0], c.ForceGlobal)
}

func LiftFile(stdio mainer.Stdio, path string, forceGlobal bool) error {
	tree, err := parseFile(stdio, path)
	if err != nil {
		return err
	}
	lifted := lift.Lift(uniquify.Uniquify(tree), forceGlobal)

	names := make([]string, len(lifted.Globals))
	for i, d := range lifted.Globals {
		names[i] = fmt.Sprintf("%s/%d", d.Name, len(d.Params))
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(stdio.Stdout, n)
	}
	return nil
}
