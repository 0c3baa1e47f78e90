package disasm

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

type x86Decoder struct {
	mode   int
	lookup SymLookup
}

func (d *x86Decoder) Arch() string {
	if d.mode == 32 {
		return "386"
	}
	return "amd64"
}

func (d *x86Decoder) Decode(code []byte, pc uint64) Inst {
	inst, err := x86asm.Decode(code, d.mode)
	// Unknown opcodes and truncated encodings come back as Op 0 with no error.
	if err != nil || inst.Op == 0 || inst.Len == 0 {
		return Inst{Addr: pc, Len: 1, Text: "(bad)", Bad: true, Padding: true}
	}

	var lookup x86asm.SymLookup
	if d.lookup != nil {
		lookup = x86asm.SymLookup(d.lookup)
	}
	in := Inst{
		Addr: pc,
		Len:  inst.Len,
		Text: x86asm.GNUSyntax(inst, pc, lookup),
	}

	switch inst.Op {
	case x86asm.JMP:
		in.Kind = KindJump
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ, x86asm.JE,
		x86asm.JECXZ, x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE,
		x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO, x86asm.JP, x86asm.JRCXZ,
		x86asm.JS, x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		in.Kind = KindCondJump
	case x86asm.CALL:
		in.Kind = KindCall
	case x86asm.RET, x86asm.LRET:
		in.Kind = KindReturn
	case x86asm.SYSCALL, x86asm.SYSENTER:
		in.Kind = KindSyscall
	case x86asm.HLT, x86asm.UD2:
		in.Kind = KindHalt
	case x86asm.INT:
		if imm, ok := inst.Args[0].(x86asm.Imm); ok {
			switch imm {
			case 3:
				in.Kind = KindHalt
				in.Padding = true
			case 0x80:
				in.Kind = KindSyscall
			}
		}
	case x86asm.NOP:
		in.Padding = true
	}

	if rel, ok := inst.Args[0].(x86asm.Rel); ok {
		in.Target = uint64(int64(pc) + int64(inst.Len) + int64(rel))
		in.HasTarget = true
	}

	x86Memory(inst, &in)
	x86Prologue(inst, d.mode, &in)

	for _, arg := range inst.Args {
		if reg, ok := arg.(x86asm.Reg); ok && reg >= x86asm.X0 && reg <= x86asm.X15 {
			in.Vector = true
		}
	}
	if strings.HasPrefix(inst.Op.String(), "V") {
		in.Vector = true
	}
	return in
}

// x86Memory sets the memory access flags. Arguments are in Intel order, so
// Args[0] is the destination.
func x86Memory(inst x86asm.Inst, in *Inst) {
	op := inst.Op
	if op == x86asm.LEA || op == x86asm.NOP {
		return
	}
	switch op {
	case x86asm.PUSH:
		in.MemWrite = true
	case x86asm.POP:
		in.MemRead = true
	}
	for i, arg := range inst.Args {
		if arg == nil {
			break
		}
		if _, ok := arg.(x86asm.Mem); !ok {
			continue
		}
		if i > 0 {
			in.MemRead = true
			continue
		}
		name := op.String()
		switch {
		case op == x86asm.CMP || op == x86asm.TEST || op == x86asm.PUSH:
			in.MemRead = true
		case strings.HasPrefix(name, "MOV") || strings.HasPrefix(name, "SET") || op == x86asm.POP:
			in.MemWrite = true
		default:
			in.MemRead = true
			in.MemWrite = true
		}
	}
}

func x86Prologue(inst x86asm.Inst, mode int, in *Inst) {
	sp, fp := x86asm.RSP, x86asm.RBP
	if mode == 32 {
		sp, fp = x86asm.ESP, x86asm.EBP
	}
	switch inst.Op {
	case x86asm.PUSH:
		if inst.Args[0] == fp {
			in.Prologue = PrologueSave
		}
	case x86asm.MOV:
		if inst.Args[0] == fp && inst.Args[1] == sp {
			in.Prologue = PrologueSet
		}
	}
}
