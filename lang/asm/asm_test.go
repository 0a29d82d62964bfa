package asm_test

import (
	"testing"

	"github.com/snake-lang/snakec/lang/asm"
	"github.com/stretchr/testify/require"
)

func TestPrintMovRegToReg(t *testing.T) {
	out := asm.Print([]asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpReg{Reg: asm.Rdi}),
	})
	require.Equal(t, "        mov rax, rdi\n", out)
}

func TestPrintMovRegImmSigned(t *testing.T) {
	out := asm.Print([]asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: -6}),
	})
	require.Equal(t, "        mov rax, -6\n", out)
}

func TestPrintMovRegImmUnsignedHex(t *testing.T) {
	out := asm.Print([]asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: -1, Unsigned: true}),
	})
	require.Equal(t, "        mov rax, 0xffffffffffffffff\n", out)
}

func TestPrintMemOperandPositiveOffset(t *testing.T) {
	out := asm.Print([]asm.Instr{
		asm.Mov2(asm.OpMem{Reg: asm.Rsp, Offset: 8}, asm.OpReg{Reg: asm.Rax}),
	})
	require.Equal(t, "        mov [rsp + 8], rax\n", out)
}

func TestPrintMemOperandNegativeOffset(t *testing.T) {
	out := asm.Print([]asm.Instr{
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpMem{Reg: asm.Rbp, Offset: -16}),
	})
	require.Equal(t, "        mov rax, [rbp - 16]\n", out)
}

func TestPrintLabelDefinitionHasNoIndentOrMnemonic(t *testing.T) {
	out := asm.Print([]asm.Instr{asm.LabelDef("arith_error")})
	require.Equal(t, "arith_error:\n", out)
}

func TestPrintJumpToLabel(t *testing.T) {
	out := asm.Print([]asm.Instr{asm.JeTo("overflow_error")})
	require.Equal(t, "        je overflow_error\n", out)
}

func TestPrintCallAndRet(t *testing.T) {
	out := asm.Print([]asm.Instr{asm.CallTo("snake_error"), asm.RetInstr()})
	require.Equal(t, "        call snake_error\n        ret\n", out)
}

func TestPrintSequencePreservesOrder(t *testing.T) {
	out := asm.Print([]asm.Instr{
		asm.LabelDef("start_here"),
		asm.Mov2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: 2}),
		asm.Add2(asm.OpReg{Reg: asm.Rax}, asm.OpImm{Val: 4}),
		asm.JoTo("overflow_error"),
		asm.RetInstr(),
	})
	require.Equal(t, "start_here:\n"+
		"        mov rax, 2\n"+
		"        add rax, 4\n"+
		"        jo overflow_error\n"+
		"        ret\n", out)
}

func TestRegStringKnown(t *testing.T) {
	require.Equal(t, "rdi", asm.Rdi.String())
}

func TestOpcodeStringKnown(t *testing.T) {
	require.Equal(t, "imul", asm.IMul.String())
}
