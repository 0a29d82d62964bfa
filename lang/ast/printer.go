package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer writes a human-readable, indented rendering of a tree to Output.
// It is a debugging aid for the CLI's intermediate-stage commands, not part
// of the compiler pipeline proper — a plain indented dump rather than a full
// fmt.Formatter width/flag protocol, since nothing downstream parses this
// output back in.
type Printer[A any] struct {
	Output io.Writer
	// AnnString renders a node's annotation for display; if nil, annotations
	// are omitted.
	AnnString func(A) string
}

// Print writes e to p.Output.
func (p *Printer[A]) Print(e Exp[A]) error {
	var sb strings.Builder
	p.write(&sb, e, 0)
	_, err := io.WriteString(p.Output, sb.String())
	return err
}

func (p *Printer[A]) indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func (p *Printer[A]) ann(e Exp[A]) string {
	if p.AnnString == nil {
		return ""
	}
	return " " + p.AnnString(e.Annotation())
}

func (p *Printer[A]) write(sb *strings.Builder, e Exp[A], depth int) {
	p.indent(sb, depth)
	if e == nil {
		sb.WriteString("<nil>\n")
		return
	}

	switch n := e.(type) {
	case *Num[A]:
		fmt.Fprintf(sb, "num %d%s\n", n.Val, p.ann(e))

	case *Bool[A]:
		fmt.Fprintf(sb, "bool %t%s\n", n.Val, p.ann(e))

	case *Var[A]:
		fmt.Fprintf(sb, "var %s%s\n", n.Name, p.ann(e))

	case *Prim[A]:
		fmt.Fprintf(sb, "prim %s%s\n", n.Op, p.ann(e))
		for _, a := range n.Args {
			p.write(sb, a, depth+1)
		}

	case *Let[A]:
		fmt.Fprintf(sb, "let%s\n", p.ann(e))
		for _, b := range n.Bindings {
			p.indent(sb, depth+1)
			fmt.Fprintf(sb, "%s =\n", b.Name)
			p.write(sb, b.Value, depth+2)
		}
		p.indent(sb, depth+1)
		sb.WriteString("in\n")
		p.write(sb, n.Body, depth+2)

	case *If[A]:
		fmt.Fprintf(sb, "if%s\n", p.ann(e))
		p.write(sb, n.Cond, depth+1)
		p.indent(sb, depth)
		sb.WriteString("then\n")
		p.write(sb, n.Then, depth+1)
		p.indent(sb, depth)
		sb.WriteString("else\n")
		p.write(sb, n.Else, depth+1)

	case *FunDefs[A]:
		fmt.Fprintf(sb, "fundefs%s\n", p.ann(e))
		for _, d := range n.Decls {
			p.indent(sb, depth+1)
			fmt.Fprintf(sb, "def %s(%s)\n", d.Name, strings.Join(d.Params, ", "))
			p.write(sb, d.Body, depth+2)
		}
		p.indent(sb, depth+1)
		sb.WriteString("in\n")
		p.write(sb, n.Body, depth+2)

	case *Call[A]:
		fmt.Fprintf(sb, "call %s%s\n", n.Name, p.ann(e))
		for _, a := range n.Args {
			p.write(sb, a, depth+1)
		}

	case *InternalTailCall[A]:
		fmt.Fprintf(sb, "internal-tail-call %s%s\n", n.Name, p.ann(e))
		for _, a := range n.Args {
			p.write(sb, a, depth+1)
		}

	case *ExternalCall[A]:
		fmt.Fprintf(sb, "external-call %s tail=%t%s\n", n.Name, n.IsTail, p.ann(e))
		for _, a := range n.Args {
			p.write(sb, a, depth+1)
		}

	default:
		fmt.Fprintf(sb, "<unknown %T>\n", e)
	}
}
