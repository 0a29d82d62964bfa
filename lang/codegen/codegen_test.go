package codegen_test

import (
	"strings"
	"testing"

	"github.com/snake-lang/snakec/lang/ast"
	"github.com/snake-lang/snakec/lang/codegen"
	"github.com/snake-lang/snakec/lang/seq"
	"github.com/stretchr/testify/require"
)

func TestCompileEmitsHeaderAndTrampolines(t *testing.T) {
	out := codegen.Compile(seq.Program{Entry: seq.EImm{Val: seq.ImmNum{Val: 1}}})
	require.True(t, strings.HasPrefix(out, "section .text\n"))
	require.Contains(t, out, "global start_here\n")
	require.Contains(t, out, "extern snake_error\n")
	require.Contains(t, out, "extern print_snake_val\n")
	for _, label := range []string{"arith_error:", "cmp_error:", "overflow_error:", "if_error:", "logic_error:"} {
		require.Contains(t, out, label)
	}
	require.Contains(t, out, "start_here:\n")
}

func TestCompileNumberLiteralIsTagShifted(t *testing.T) {
	out := codegen.Compile(seq.Program{Entry: seq.EImm{Val: seq.ImmNum{Val: 21}}})
	require.Contains(t, out, "mov rax, 42\n")
}

func TestCompileTrueLiteralIsAllOnes(t *testing.T) {
	out := codegen.Compile(seq.Program{Entry: seq.EImm{Val: seq.ImmBool{Val: true}}})
	require.Contains(t, out, "mov rax, 0xffffffffffffffff\n")
}

func TestCompileFalseLiteral(t *testing.T) {
	out := codegen.Compile(seq.Program{Entry: seq.EImm{Val: seq.ImmBool{Val: false}}})
	require.Contains(t, out, "mov rax, 9223372036854775807\n")
}

func TestCompileAddChecksBothOperandsAndOverflow(t *testing.T) {
	entry := seq.EPrim{Op: ast.Add, Args: []seq.Imm{seq.ImmNum{Val: 1}, seq.ImmNum{Val: 2}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "jne arith_error\n")
	require.Contains(t, out, "add rax, rbx\n")
	require.Contains(t, out, "jo overflow_error\n")
}

func TestCompileMultiplyUntagsOneOperand(t *testing.T) {
	entry := seq.EPrim{Op: ast.Mul, Args: []seq.Imm{seq.ImmNum{Val: 3}, seq.ImmNum{Val: 4}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "sar rax, 1\n")
	require.Contains(t, out, "imul rax, rbx\n")
}

func TestCompileNotFlipsSignBitOnly(t *testing.T) {
	entry := seq.EPrim{Op: ast.Not, Args: []seq.Imm{seq.ImmBool{Val: true}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "xor rax, 0x8000000000000000\n")
}

func TestCompileAndOrUseBitwiseOpsDirectly(t *testing.T) {
	entry := seq.EPrim{Op: ast.And, Args: []seq.Imm{seq.ImmBool{Val: true}, seq.ImmBool{Val: false}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "and rax, rbx\n")
}

func TestCompileIfChecksConditionIsBoolean(t *testing.T) {
	entry := seq.EIf{Cond: seq.ImmBool{Val: true}, Then: seq.EImm{Val: seq.ImmNum{Val: 1}}, Else: seq.EImm{Val: seq.ImmNum{Val: 2}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "jne if_error\n")
	require.Contains(t, out, "cmp rax, 9223372036854775807\n")
}

func TestCompileLetStoresToStackSlot(t *testing.T) {
	entry := seq.ELet{Var: "x", BoundExp: seq.EImm{Val: seq.ImmNum{Val: 5}}, Body: seq.EImm{Val: seq.ImmVar{Name: "x"}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "mov [rsp + 8], rax\n")
	require.Contains(t, out, "mov rax, [rsp + 8]\n")
}

func TestCompileNonTailCallSubsAndAddsFrame(t *testing.T) {
	funs := []seq.FunDef{
		{Name: "f", Params: []string{"n"}, Body: seq.EPrim{Op: ast.Add1, Args: []seq.Imm{seq.ImmVar{Name: "n"}}}},
	}
	entry := seq.ECall{Name: "f", Args: []seq.Imm{seq.ImmNum{Val: 1}}, IsTail: false}
	out := codegen.Compile(seq.Program{Funs: funs, Entry: entry})
	require.Contains(t, out, "call snake_fun_f\n")
	require.Contains(t, out, "snake_fun_f:\n")

	// f's frame is 24 bytes (1 param slot + 1 reserved return-address slot,
	// rounded up to an odd slot count for 16-byte alignment). The argument
	// must be written 8 bytes below that frame, so that once `call` pushes
	// its own return address the callee's param 0 (at [rsp + 8] inside the
	// callee) lands exactly where the caller wrote it.
	require.Contains(t, out, "sub rsp, 24\n")
	require.Contains(t, out, "mov [rsp - 24], rax\n")
	require.Contains(t, out, "add rsp, 24\n")
	require.Contains(t, out, "mov rax, [rsp + 8]\n")
}

func TestCompileTailCallJumpsInsteadOfCalling(t *testing.T) {
	funs := []seq.FunDef{
		{
			Name:   "loop",
			Params: []string{"n"},
			Body:   seq.ECall{Name: "loop", Args: []seq.Imm{seq.ImmVar{Name: "n"}}, IsTail: true},
		},
	}
	entry := seq.EImm{Val: seq.ImmNum{Val: 0}}
	out := codegen.Compile(seq.Program{Funs: funs, Entry: entry})
	require.Contains(t, out, "jmp snake_fun_loop\n")
	require.NotContains(t, out, "call snake_fun_loop\n")
}

func TestCompilePrintCallsRuntimeAndKeepsValueInRax(t *testing.T) {
	entry := seq.EPrim{Op: ast.Print, Args: []seq.Imm{seq.ImmNum{Val: 9}}}
	out := codegen.Compile(seq.Program{Entry: entry})
	require.Contains(t, out, "call print_snake_val\n")
}
