// Package surfacetext implements a minimal, parenthesized textual format
// for building and printing ast.Exp[token.Span] trees. It exists for the
// CLI and for tests to construct programs without going through a real
// lexer/parser (a full front end is out of scope): a readable, writable
// stand-in for testing the core pipeline without depending on prose syntax
// parsing.
//
// Grammar (a node is always one of):
//
//	(num N)                  integer literal
//	(bool true|false)        boolean literal
//	(var NAME)               variable reference
//	(prim OP ARG...)         primitive application; OP is one of
//	                         add1 sub1 not print isbool isnum + - * && || < > <= >= == !=
//	(let ((NAME VALUE)...) BODY)
//	(if COND THEN ELSE)
//	(fun ((NAME (PARAM...) BODY)...) BODY)
//	(call NAME ARG...)
package surfacetext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/token"
)

var opByName = map[string]ast.Op{
	"add1": ast.Add1, "sub1": ast.Sub1, "not": ast.Not, "print": ast.Print,
	"isbool": ast.IsBool, "isnum": ast.IsNum,
	"+": ast.Add, "-": ast.Sub, "*": ast.Mul, "&&": ast.And, "||": ast.Or,
	"<": ast.Lt, ">": ast.Gt, "<=": ast.Le, ">=": ast.Ge, "==": ast.Eq, "!=": ast.Neq,
}

// Parse reads a single surfacetext expression from src and returns the
// tree it denotes. Every node's annotation is the zero token.Span — this
// format carries no source-file byte offsets, so diagnostics produced
// against a surfacetext-built tree can report node shape but not an
// original source location.
func Parse(src string) (ast.Exp[token.Span], error) {
	toks := tokenize(src)
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("surfacetext: unexpected trailing input at token %d (%q)", p.pos, p.toks[p.pos])
	}
	return e, nil
}

func tokenize(src string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range src {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (string, error) {
	t, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("surfacetext: unexpected end of input")
	}
	p.pos++
	return t, nil
}

func (p *parser) expect(tok string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t != tok {
		return fmt.Errorf("surfacetext: expected %q, got %q", tok, t)
	}
	return nil
}

func (p *parser) parseExpr() (ast.Exp[token.Span], error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}
	if t != "(" {
		return nil, fmt.Errorf("surfacetext: expected '(', got %q", t)
	}

	head, err := p.next()
	if err != nil {
		return nil, err
	}

	var e ast.Exp[token.Span]
	switch head {
	case "num":
		lit, err := p.next()
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("surfacetext: bad integer literal %q: %w", lit, err)
		}
		e = &ast.Num[token.Span]{Val: v}

	case "bool":
		lit, err := p.next()
		if err != nil {
			return nil, err
		}
		switch lit {
		case "true":
			e = &ast.Bool[token.Span]{Val: true}
		case "false":
			e = &ast.Bool[token.Span]{Val: false}
		default:
			return nil, fmt.Errorf("surfacetext: expected true or false, got %q", lit)
		}

	case "var":
		name, err := p.next()
		if err != nil {
			return nil, err
		}
		e = &ast.Var[token.Span]{Name: name}

	case "prim":
		opName, err := p.next()
		if err != nil {
			return nil, err
		}
		op, ok := opByName[opName]
		if !ok {
			return nil, fmt.Errorf("surfacetext: unknown primitive operator %q", opName)
		}
		var args []ast.Exp[token.Span]
		for {
			next, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("surfacetext: unexpected end of input in prim")
			}
			if next == ")" {
				break
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if op.Arity() != len(args) {
			return nil, fmt.Errorf("surfacetext: operator %q expects %d argument(s), got %d", opName, op.Arity(), len(args))
		}
		e = &ast.Prim[token.Span]{Op: op, Args: args}

	case "let":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		var bindings []ast.Binding[token.Span]
		for {
			next, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("surfacetext: unexpected end of input in let bindings")
			}
			if next == ")" {
				break
			}
			if err := p.expect("("); err != nil {
				return nil, err
			}
			name, err := p.next()
			if err != nil {
				return nil, err
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			bindings = append(bindings, ast.Binding[token.Span]{Name: name, Value: value})
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e = &ast.Let[token.Span]{Bindings: bindings, Body: body}

	case "if":
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e = &ast.If[token.Span]{Cond: cond, Then: then, Else: els}

	case "fun":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		var decls []*ast.FunDecl[token.Span]
		for {
			next, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("surfacetext: unexpected end of input in fun decls")
			}
			if next == ")" {
				break
			}
			if err := p.expect("("); err != nil {
				return nil, err
			}
			name, err := p.next()
			if err != nil {
				return nil, err
			}
			if err := p.expect("("); err != nil {
				return nil, err
			}
			var params []string
			for {
				pn, ok := p.peek()
				if !ok {
					return nil, fmt.Errorf("surfacetext: unexpected end of input in params")
				}
				if pn == ")" {
					break
				}
				param, err := p.next()
				if err != nil {
					return nil, err
				}
				params = append(params, param)
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			declBody, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			decls = append(decls, &ast.FunDecl[token.Span]{Name: name, Params: params, Body: declBody})
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e = &ast.FunDefs[token.Span]{Decls: decls, Body: body}

	case "call":
		name, err := p.next()
		if err != nil {
			return nil, err
		}
		var args []ast.Exp[token.Span]
		for {
			next, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("surfacetext: unexpected end of input in call")
			}
			if next == ")" {
				break
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		e = &ast.Call[token.Span]{Name: name, Args: args}

	default:
		return nil, fmt.Errorf("surfacetext: unknown node kind %q", head)
	}

	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return e, nil
}

// Write renders e back to surfacetext, the inverse of Parse — used by
// tests and CLI debug output to show the tree a program was parsed into.
func Write(e ast.Exp[token.Span]) string {
	var sb strings.Builder
	write(&sb, e)
	return sb.String()
}

func write(sb *strings.Builder, e ast.Exp[token.Span]) {
	switch n := e.(type) {
	case *ast.Num[token.Span]:
		fmt.Fprintf(sb, "(num %d)", n.Val)
	case *ast.Bool[token.Span]:
		fmt.Fprintf(sb, "(bool %t)", n.Val)
	case *ast.Var[token.Span]:
		fmt.Fprintf(sb, "(var %s)", n.Name)
	case *ast.Prim[token.Span]:
		fmt.Fprintf(sb, "(prim %s", n.Op)
		for _, a := range n.Args {
			sb.WriteByte(' ')
			write(sb, a)
		}
		sb.WriteByte(')')
	case *ast.Let[token.Span]:
		sb.WriteString("(let (")
		for i, b := range n.Bindings {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "(%s ", b.Name)
			write(sb, b.Value)
			sb.WriteByte(')')
		}
		sb.WriteString(") ")
		write(sb, n.Body)
		sb.WriteByte(')')
	case *ast.If[token.Span]:
		sb.WriteString("(if ")
		write(sb, n.Cond)
		sb.WriteByte(' ')
		write(sb, n.Then)
		sb.WriteByte(' ')
		write(sb, n.Else)
		sb.WriteByte(')')
	case *ast.FunDefs[token.Span]:
		sb.WriteString("(fun (")
		for i, d := range n.Decls {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "(%s (%s) ", d.Name, strings.Join(d.Params, " "))
			write(sb, d.Body)
			sb.WriteByte(')')
		}
		sb.WriteString(") ")
		write(sb, n.Body)
		sb.WriteByte(')')
	case *ast.Call[token.Span]:
		fmt.Fprintf(sb, "(call %s", n.Name)
		for _, a := range n.Args {
			sb.WriteByte(' ')
			write(sb, a)
		}
		sb.WriteByte(')')
	default:
		panic(fmt.Sprintf("surfacetext: unexpected ast.Exp type %T", e))
	}
}
