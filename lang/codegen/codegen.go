// Package codegen implements spec.md §4.6/§4.7: lowering a sequentialized
// program (lang/seq) to the x86-64 instruction stream (lang/asm), including
// the tagged value representation, dynamic type/overflow checks, and the
// stack-passed calling convention between compiled functions.
package codegen

import (
	"fmt"

	"github.com/snake-lang/snakec/lang/asm"
	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/seq"
)

// Tagged value encoding (spec.md §6): a number n is represented as n<<1
// (low bit clear); the two booleans are all-ones and all-ones-but-the-sign-
// bit, so they share every bit except the top one, and both have their low
// bit set — the tag codegen's dynamic checks test.
const (
	SnakeTrue int64 = -1                 // 0xFFFFFFFFFFFFFFFF
	SnakeFalse int64 = 0x7FFFFFFFFFFFFFFF
	notMask   int64  = ^0x7FFFFFFFFFFFFFFF // flips exactly the sign bit: true^false
)

// Error codes passed to the runtime's snake_error in rdi, one per dynamic
// check this package emits.
const (
	errArith   int64 = 0
	errCmp     int64 = 1
	errOverflow int64 = 2
	errIf      int64 = 3
	errLogic   int64 = 4
)

const (
	labelArithError    = "arith_error"
	labelCmpError      = "cmp_error"
	labelOverflowError = "overflow_error"
	labelIfError       = "if_error"
	labelLogicError    = "logic_error"
)

// frame describes a function's (or the entry expression's) stack layout:
// offset 0 always holds the return address `call` pushes, so variable slot
// m (0-indexed, params first, then lets in allocation order) lives at
// [rsp + 8*(m+1)].
type frame struct {
	params    []string
	slotCount int // total logical slots (params + deepest nested let)
}

func (f frame) bytes() int32 {
	// +1 for the reserved return-address slot; round up to an odd number
	// of 8-byte slots so the call site's `sub rsp, bytes` preserves
	// 16-byte stack alignment across the `call` instruction.
	n := f.slotCount + 1
	if n%2 == 0 {
		n++
	}
	return int32(n) * 8
}

func offsetOf(slot int) int32 { return int32(slot+1) * 8 }

// spaceNeeded returns the deepest logical slot reachable from e, starting
// the count at baseDepth (the number of slots already used by the
// enclosing function's parameters).
func spaceNeeded(e seq.Exp, baseDepth int) int {
	switch n := e.(type) {
	case seq.EImm, seq.EPrim, seq.ECall:
		return baseDepth
	case seq.ELet:
		boundDepth := spaceNeeded(n.BoundExp, baseDepth)
		bodyDepth := spaceNeeded(n.Body, baseDepth+1)
		return max(boundDepth, bodyDepth)
	case seq.EIf:
		return max(spaceNeeded(n.Then, baseDepth), spaceNeeded(n.Else, baseDepth))
	default:
		panic(fmt.Sprintf("codegen: unexpected seq.Exp type %T", e))
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Compile lowers a fully sequentialized program to a complete, linkable
// assembly text: the five error trampolines, then one label per function,
// then the start_here entry point — the same ordering as the reference
// compiler's top-level assembly template.
func Compile(p seq.Program) string {
	c := &compiler{frames: make(map[string]frame, len(p.Funs))}
	for _, f := range p.Funs {
		c.frames[f.Name] = frame{
			params:    f.Params,
			slotCount: spaceNeeded(f.Body, len(f.Params)),
		}
	}
	c.frames[""] = frame{slotCount: spaceNeeded(p.Entry, 0)}

	var instrs []asm.Instr
	instrs = append(instrs, c.errorTrampolines()...)

	for _, f := range p.Funs {
		instrs = append(instrs, asm.LabelDef(funcLabel(f.Name)))
		env := make(map[string]int32, len(f.Params))
		for i, p := range f.Params {
			env[p] = offsetOf(i)
		}
		instrs = append(instrs, c.compileBody(f.Body, env)...)
		instrs = append(instrs, asm.RetInstr())
	}

	instrs = append(instrs, asm.LabelDef("start_here"))
	instrs = append(instrs, asm.Sub2(asm.OpReg{Reg: asm.Rsp}, asm.OpImm{Val: int64(c.frames[""].bytes())}))
	instrs = append(instrs, c.compileBody(p.Entry, map[string]int32{})...)
	instrs = append(instrs, asm.Add2(asm.OpReg{Reg: asm.Rsp}, asm.OpImm{Val: int64(c.frames[""].bytes())}))
	instrs = append(instrs, asm.RetInstr())

	return header() + asm.Print(instrs)
}

func funcLabel(name string) string { return "snake_fun_" + name }

func header() string {
	return "section .text\n" +
		"global start_here\n" +
		"extern snake_error\n" +
		"extern print_snake_val\n"
}

// compiler carries the whole-program frame table so call sites can size
// their argument area from the callee's own precomputed frame, without a
// second stack adjustment once inside the callee.
type compiler struct {
	frames map[string]frame
	labels int
}

func (c *compiler) freshLabel(prefix string) string {
	c.labels++
	return fmt.Sprintf("%s_%d", prefix, c.labels)
}

// errorTrampolines emits the five fault handlers: set up the runtime
// contract's (code, offending value) pair and hand off to snake_error,
// which terminates the program and never returns control here.
func (c *compiler) errorTrampolines() []asm.Instr {
	var out []asm.Instr
	emit := func(label string, code int64) {
		out = append(out,
			asm.LabelDef(label),
			asm.Mov2(asm.OpReg{Reg: asm.Rdi}, asm.OpImm{Val: code}),
			asm.Mov2(asm.OpReg{Reg: asm.Rsi}, asm.OpReg{Reg: asm.Rax}),
			asm.CallTo("snake_error"),
			asm.RetInstr(),
		)
	}
	emit(labelArithError, errArith)
	emit(labelCmpError, errCmp)
	emit(labelOverflowError, errOverflow)
	emit(labelIfError, errIf)
	emit(labelLogicError, errLogic)
	return out
}

func immToOperand(i seq.Imm, env map[string]int32) asm.Operand {
	switch v := i.(type) {
	case seq.ImmNum:
		return asm.OpImm{Val: v.Val << 1}
	case seq.ImmBool:
		if v.Val {
			return asm.OpImm{Val: SnakeTrue, Unsigned: true}
		}
		return asm.OpImm{Val: SnakeFalse}
	case seq.ImmVar:
		off, ok := env[v.Name]
		if !ok {
			panic(fmt.Sprintf("codegen: unbound variable %q — uniquify/checker should have rejected this", v.Name))
		}
		return asm.OpMem{Reg: asm.Rsp, Offset: off}
	default:
		panic(fmt.Sprintf("codegen: unexpected seq.Imm type %T", i))
	}
}

// checkIsNum asserts the value currently in rax is tagged as a number
// (low bit clear), trashing rbx.
func checkIsNum(errLabel string) []asm.Instr {
	return []asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rbx}, asm.OpReg{Reg: asm.Rax}),
		asm.And2(asm.OpReg{Reg: asm.Rbx}, asm.OpImm{Val: 1}),
		asm.Cmp2(asm.OpReg{Reg: asm.Rbx}, asm.OpImm{Val: 0}),
		asm.JneTo(errLabel),
	}
}

// checkIsBool asserts the value currently in rax is tagged as a boolean
// (low bit set), trashing rbx.
func checkIsBool(errLabel string) []asm.Instr {
	return []asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rbx}, asm.OpReg{Reg: asm.Rax}),
		asm.And2(asm.OpReg{Reg: asm.Rbx}, asm.OpImm{Val: 1}),
		asm.Cmp2(asm.OpReg{Reg: asm.Rbx}, asm.OpImm{Val: 1}),
		asm.JneTo(errLabel),
	}
}

func (c *compiler) compileBody(e seq.Exp, env map[string]int32) []asm.Instr {
	switch n := e.(type) {
	case seq.EImm:
		return []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Val, env))}

	case seq.EPrim:
		return c.compilePrim(n, env)

	case seq.ELet:
		boundInstrs := c.compileBody(n.BoundExp, env)
		slot := len(env)
		childEnv := make(map[string]int32, len(env)+1)
		for k, v := range env {
			childEnv[k] = v
		}
		childEnv[n.Var] = offsetOf(slot)
		store := asm.Mov2(asm.OpMem{Reg: asm.Rsp, Offset: offsetOf(slot)}, asm.OpReg{Reg: asm.Rax})
		bodyInstrs := c.compileBody(n.Body, childEnv)
		out := append(boundInstrs, store)
		return append(out, bodyInstrs...)

	case seq.EIf:
		return c.compileIf(n, env)

	case seq.ECall:
		return c.compileCall(n, env)

	default:
		panic(fmt.Sprintf("codegen: unexpected seq.Exp type %T", e))
	}
}

func (c *compiler) compileIf(n seq.EIf, env map[string]int32) []asm.Instr {
	elseLabel := c.freshLabel("if_else")
	doneLabel := c.freshLabel("if_done")

	out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Cond, env))}
	out = append(out, checkIsBool(labelIfError)...)
	out = append(out,
		asm.Cmp2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeFalse}),
		asm.JeTo(elseLabel),
	)
	out = append(out, c.compileBody(n.Then, env)...)
	out = append(out, asm.JmpTo(doneLabel), asm.LabelDef(elseLabel))
	out = append(out, c.compileBody(n.Else, env)...)
	out = append(out, asm.LabelDef(doneLabel))
	return out
}

// compileCall lowers a call to a top-level function. Non-tail calls use an
// ordinary call/return: the callee's own precomputed frame is already
// sized for its params plus every local it will ever need, so the caller
// reserves exactly that many bytes before `call` and the callee performs
// no further stack adjustment of its own. A tail call writes its argument
// values into the CURRENT frame's own slots (reusing this function's
// activation) and jumps directly to the callee's body instead of issuing
// a nested call, so self- and mutually-recursive tail loops run in
// constant stack space.
func (c *compiler) compileCall(n seq.ECall, env map[string]int32) []asm.Instr {
	callee, ok := c.frames[n.Name]
	if !ok {
		panic(fmt.Sprintf("codegen: call to unknown function %q — checker should have rejected this", n.Name))
	}

	if n.IsTail {
		// Reusing the current frame means a new argument's target slot
		// can collide with a slot an earlier argument still needs to
		// read (e.g. a tail call that swaps two parameters). Every
		// argument is therefore evaluated into a scratch slot below the
		// live frame first, and only copied into its real parameter
		// slot once all of them are safely computed.
		var out []asm.Instr
		scratchBase := -int32(frame{slotCount: len(n.Args)}.bytes())
		for i, a := range n.Args {
			out = append(out,
				asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(a, env)),
				asm.Mov2(asm.OpMem{Reg: asm.Rsp, Offset: scratchBase + offsetOf(i)}, asm.OpReg{Reg: asm.Rax}),
			)
		}
		for i := range n.Args {
			out = append(out,
				asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpMem{Reg: asm.Rsp, Offset: scratchBase + offsetOf(i)}),
				asm.Mov2(asm.OpMem{Reg: asm.Rsp, Offset: offsetOf(i)}, asm.OpReg{Reg: asm.Rax}),
			)
		}
		out = append(out, asm.JmpTo(funcLabel(n.Name)))
		return out
	}

	frameBytes := int64(callee.bytes())
	var out []asm.Instr
	// The callee's own frame starts 8 bytes further down than frameBytes
	// alone accounts for: `call` pushes a return address on top of the
	// `sub rsp, frameBytes` the caller already did. Args must land where
	// the callee's offsetOf(i) will read them once that return address is
	// on the stack, so the write offset needs that extra -8.
	for i, a := range n.Args {
		out = append(out,
			asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(a, env)),
			asm.Mov2(asm.OpMem{Reg: asm.Rsp, Offset: -int32(frameBytes) - 8 + offsetOf(i)}, asm.OpReg{Reg: asm.Rax}),
		)
	}
	out = append(out,
		asm.Sub2(asm.OpReg{Reg: asm.Rsp}, asm.OpImm{Val: frameBytes}),
		asm.CallTo(funcLabel(n.Name)),
		asm.Add2(asm.OpReg{Reg: asm.Rsp}, asm.OpImm{Val: frameBytes}),
	)
	return out
}

func (c *compiler) compilePrim(n seq.EPrim, env map[string]int32) []asm.Instr {
	switch n.Op {
	case ast.Add1, ast.Sub1:
		out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env))}
		out = append(out, checkIsNum(labelArithError)...)
		delta := int64(2) // tagged representation of 1
		if n.Op == ast.Add1 {
			out = append(out, asm.Add2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: delta}))
		} else {
			out = append(out, asm.Sub2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: delta}))
		}
		out = append(out, asm.JoTo(labelOverflowError))
		return out

	case ast.Not:
		out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env))}
		out = append(out, checkIsBool(labelLogicError)...)
		out = append(out, asm.Xor2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: notMask, Unsigned: true}))
		return out

	case ast.Print:
		return []asm.Instr{
			asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env)),
			asm.Mov2(asm.OpReg{Reg: asm.Rdi}, asm.OpReg{Reg: asm.Rax}),
			asm.CallTo("print_snake_val"),
		}

	case ast.IsNum, ast.IsBool:
		trueLabel := c.freshLabel("istype_true")
		doneLabel := c.freshLabel("istype_done")
		out := []asm.Instr{
			asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env)),
			asm.And2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: 1}),
		}
		want := int64(0)
		if n.Op == ast.IsBool {
			want = 1
		}
		out = append(out,
			asm.Cmp2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: want}),
			asm.JeTo(trueLabel),
			asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeFalse}),
			asm.JmpTo(doneLabel),
			asm.LabelDef(trueLabel),
			asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeTrue, Unsigned: true}),
			asm.LabelDef(doneLabel),
		)
		return out

	case ast.Add, ast.Sub:
		out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env))}
		out = append(out, checkIsNum(labelArithError)...)
		out = append(out, asm.Mov2(asm.OpReg{Reg: asm.Rbx}, immToOperand(n.Args[1], env)))
		out = append(out, checkIsNumReg(asm.Rbx, labelArithError)...)
		if n.Op == ast.Add {
			out = append(out, asm.Add2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}))
		} else {
			out = append(out, asm.Sub2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}))
		}
		out = append(out, asm.JoTo(labelOverflowError))
		return out

	case ast.Mul:
		out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env))}
		out = append(out, checkIsNum(labelArithError)...)
		out = append(out, asm.Mov2(asm.OpReg{Reg: asm.Rbx}, immToOperand(n.Args[1], env)))
		out = append(out, checkIsNumReg(asm.Rbx, labelArithError)...)
		// Untag one operand before multiplying so the tagged product
		// (a*b)<<1 falls out directly, avoiding a separate re-tag step.
		out = append(out,
			asm.Sar2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: 1}),
			asm.IMul2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}),
			asm.JoTo(labelOverflowError),
		)
		return out

	case ast.And, ast.Or:
		out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env))}
		out = append(out, checkIsBool(labelLogicError)...)
		out = append(out, asm.Mov2(asm.OpReg{Reg: asm.Rbx}, immToOperand(n.Args[1], env)))
		out = append(out, checkIsBoolReg(asm.Rbx, labelLogicError)...)
		// The tagged booleans (all-ones / all-ones-but-sign-bit) make
		// bitwise and/or implement logical and/or directly — no
		// conditional branch needed.
		if n.Op == ast.And {
			out = append(out, asm.And2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}))
		} else {
			out = append(out, asm.Or2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}))
		}
		return out

	case ast.Lt, ast.Gt, ast.Le, ast.Ge:
		return c.compileOrderedCompare(n, env)

	case ast.Eq, ast.Neq:
		return c.compileEquality(n, env)

	default:
		panic("codegen: unknown primitive operator " + n.Op.String())
	}
}

func checkIsNumReg(r asm.Reg, errLabel string) []asm.Instr {
	return []asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rdx}, asm.OpReg{Reg: r}),
		asm.And2(asm.OpReg{Reg: asm.Rdx}, asm.OpImm{Val: 1}),
		asm.Cmp2(asm.OpReg{Reg: asm.Rdx}, asm.OpImm{Val: 0}),
		asm.JneTo(errLabel),
	}
}

func checkIsBoolReg(r asm.Reg, errLabel string) []asm.Instr {
	return []asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rdx}, asm.OpReg{Reg: r}),
		asm.And2(asm.OpReg{Reg: asm.Rdx}, asm.OpImm{Val: 1}),
		asm.Cmp2(asm.OpReg{Reg: asm.Rdx}, asm.OpImm{Val: 1}),
		asm.JneTo(errLabel),
	}
}

func (c *compiler) compileOrderedCompare(n seq.EPrim, env map[string]int32) []asm.Instr {
	out := []asm.Instr{asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env))}
	out = append(out, checkIsNum(labelCmpError)...)
	out = append(out, asm.Mov2(asm.OpReg{Reg: asm.Rbx}, immToOperand(n.Args[1], env)))
	out = append(out, checkIsNumReg(asm.Rbx, labelCmpError)...)

	trueLabel := c.freshLabel("cmp_true")
	doneLabel := c.freshLabel("cmp_done")

	var jumpOp asm.Opcode
	switch n.Op {
	case ast.Lt:
		jumpOp = asm.Jl
	case ast.Gt:
		jumpOp = asm.Jg
	case ast.Le:
		jumpOp = asm.Jle
	case ast.Ge:
		jumpOp = asm.Jge
	}

	out = append(out,
		asm.Cmp2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}),
		asm.Instr{Op: jumpOp, Operands: []asm.Operand{asm.OpLabel{Name: trueLabel}}},
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeFalse}),
		asm.JmpTo(doneLabel),
		asm.LabelDef(trueLabel),
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeTrue, Unsigned: true}),
		asm.LabelDef(doneLabel),
	)
	return out
}

func (c *compiler) compileEquality(n seq.EPrim, env map[string]int32) []asm.Instr {
	// Equality compares the raw tagged 64-bit patterns directly: a number
	// and a boolean never compare equal (their tag bits differ), matching
	// lang/interp's equalValue, which returns false rather than a type
	// error across mismatched kinds.
	trueLabel := c.freshLabel("eq_true")
	doneLabel := c.freshLabel("eq_done")
	wantEqual := n.Op == ast.Eq

	out := []asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, immToOperand(n.Args[0], env)),
		asm.Mov2(asm.OpReg{Reg: asm.Rbx}, immToOperand(n.Args[1], env)),
		asm.Cmp2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rbx}),
	}
	if wantEqual {
		out = append(out, asm.JeTo(trueLabel))
	} else {
		out = append(out, asm.JneTo(trueLabel))
	}
	out = append(out,
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeFalse}),
		asm.JmpTo(doneLabel),
		asm.LabelDef(trueLabel),
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: SnakeTrue, Unsigned: true}),
		asm.LabelDef(doneLabel),
	)
	return out
}
