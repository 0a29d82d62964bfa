// Package asm defines the x86-64 instruction representation codegen emits
// and a deterministic textual printer for it, following spec.md §6's wire
// contract: one mnemonic per line, Intel operand order, NASM-compatible
// syntax. An Instr is a single flat struct tagged by Opcode, not a
// hierarchy of per-mnemonic Go types, keeping printing and stack-effect
// reasoning a flat switch.
package asm

import (
	"fmt"
	"strings"
)

// Reg is one of the general-purpose 64-bit registers the calling
// convention and codegen use. Only the subset spec.md's calling
// convention and primitive lowering actually touch is named.
type Reg uint8

const (
	Rax Reg = iota
	Rbx
	Rcx
	Rdx
	Rsi
	Rdi
	Rsp
	Rbp
)

var regNames = [...]string{
	Rax: "rax", Rbx: "rbx", Rcx: "rcx", Rdx: "rdx",
	Rsi: "rsi", Rdi: "rdi", Rsp: "rsp", Rbp: "rbp",
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("reg(%d)", r)
}

// Opcode identifies an instruction's mnemonic.
type Opcode uint8

const (
	Mov Opcode = iota
	Add
	Sub
	IMul
	Sar
	Shl
	And
	Or
	Xor
	Cmp
	Jo
	Je
	Jne
	Jl
	Jg
	Jle
	Jge
	Jmp
	Label
	Call
	Ret
)

var opcodeNames = [...]string{
	Mov: "mov", Add: "add", Sub: "sub", IMul: "imul", Sar: "sar", Shl: "shl",
	And: "and", Or: "or", Xor: "xor", Cmp: "cmp",
	Jo: "jo", Je: "je", Jne: "jne", Jl: "jl", Jg: "jg", Jle: "jle", Jge: "jge",
	Jmp: "jmp", Label: "", Call: "call", Ret: "ret",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode(%d)", o)
}

// Operand is a single instruction operand: a register, an immediate
// (already tag-shifted by codegen — this package never shifts a value),
// a [reg+offset] memory reference, or a jump/call target name.
type Operand interface {
	operandNode()
	write(sb *strings.Builder)
}

// OpReg references a register directly.
type OpReg struct{ Reg Reg }

// OpImm is a raw 64-bit immediate, printed as a signed decimal unless
// Unsigned is set (used for the tagged boolean constants, whose top bit
// would otherwise print as a large negative number).
type OpImm struct {
	Val      int64
	Unsigned bool
}

// OpMem is a `[reg + offset]` memory operand, offset in bytes.
type OpMem struct {
	Reg    Reg
	Offset int32
}

// OpLabel names a jump/call target — a label defined elsewhere in the
// same assembly unit, or an external symbol (an error trampoline or a
// runtime-provided function).
type OpLabel struct{ Name string }

func (OpReg) operandNode()   {}
func (OpImm) operandNode()   {}
func (OpMem) operandNode()   {}
func (OpLabel) operandNode() {}

func (o OpReg) write(sb *strings.Builder) { sb.WriteString(o.Reg.String()) }

func (o OpImm) write(sb *strings.Builder) {
	if o.Unsigned {
		fmt.Fprintf(sb, "0x%x", uint64(o.Val))
		return
	}
	fmt.Fprintf(sb, "%d", o.Val)
}

func (o OpMem) write(sb *strings.Builder) {
	if o.Offset == 0 {
		fmt.Fprintf(sb, "[%s]", o.Reg)
		return
	}
	if o.Offset > 0 {
		fmt.Fprintf(sb, "[%s + %d]", o.Reg, o.Offset)
		return
	}
	fmt.Fprintf(sb, "[%s - %d]", o.Reg, -o.Offset)
}

func (o OpLabel) write(sb *strings.Builder) { sb.WriteString(o.Name) }

// Instr is a single assembly instruction (or, for Opcode==Label, a label
// definition — its sole Operand is the label name).
type Instr struct {
	Op       Opcode
	Operands []Operand
}

func Mov2(dst, src Operand) Instr     { return Instr{Op: asmMov, Operands: []Operand{dst, src}} }
func Add2(dst, src Operand) Instr     { return Instr{Op: asmAdd, Operands: []Operand{dst, src}} }
func Sub2(dst, src Operand) Instr     { return Instr{Op: asmSub, Operands: []Operand{dst, src}} }
func IMul2(dst, src Operand) Instr    { return Instr{Op: asmIMul, Operands: []Operand{dst, src}} }
func Sar2(dst, src Operand) Instr     { return Instr{Op: asmSar, Operands: []Operand{dst, src}} }
func Shl2(dst, src Operand) Instr     { return Instr{Op: asmShl, Operands: []Operand{dst, src}} }
func And2(dst, src Operand) Instr     { return Instr{Op: asmAnd, Operands: []Operand{dst, src}} }
func Or2(dst, src Operand) Instr      { return Instr{Op: asmOr, Operands: []Operand{dst, src}} }
func Xor2(dst, src Operand) Instr     { return Instr{Op: asmXor, Operands: []Operand{dst, src}} }
func Cmp2(dst, src Operand) Instr     { return Instr{Op: asmCmp, Operands: []Operand{dst, src}} }
func JoTo(label string) Instr         { return Instr{Op: Jo, Operands: []Operand{OpLabel{Name: label}}} }
func JeTo(label string) Instr         { return Instr{Op: Je, Operands: []Operand{OpLabel{Name: label}}} }
func JneTo(label string) Instr        { return Instr{Op: Jne, Operands: []Operand{OpLabel{Name: label}}} }
func JmpTo(label string) Instr        { return Instr{Op: Jmp, Operands: []Operand{OpLabel{Name: label}}} }
func LabelDef(name string) Instr      { return Instr{Op: Label, Operands: []Operand{OpLabel{Name: name}}} }
func CallTo(label string) Instr       { return Instr{Op: Call, Operands: []Operand{OpLabel{Name: label}}} }
func RetInstr() Instr                 { return Instr{Op: Ret} }

// asmMov etc. alias the exported Opcode constants; kept unexported-named
// purely so the constructor functions above read naturally (Mov2 builds a
// Mov instruction, not a Mov operand).
const (
	asmMov  = Mov
	asmAdd  = Add
	asmSub  = Sub
	asmIMul = IMul
	asmSar  = Sar
	asmShl  = Shl
	asmAnd  = And
	asmOr   = Or
	asmXor  = Xor
	asmCmp  = Cmp
)

// Print renders instrs as NASM-syntax text, one instruction per line,
// 8-space indented except for label definitions, which start at column 0,
// the usual convention for making labels visually distinct from code.
func Print(instrs []Instr) string {
	var sb strings.Builder
	for _, in := range instrs {
		writeInstr(&sb, in)
	}
	return sb.String()
}

func writeInstr(sb *strings.Builder, in Instr) {
	if in.Op == Label {
		fmt.Fprintf(sb, "%s:\n", in.Operands[0].(OpLabel).Name)
		return
	}

	sb.WriteString("        ")
	sb.WriteString(in.Op.String())
	for i, o := range in.Operands {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		o.write(sb)
	}
	sb.WriteString("\n")
}
