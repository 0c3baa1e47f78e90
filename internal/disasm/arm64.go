package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

type arm64Decoder struct{}

func (d *arm64Decoder) Arch() string { return "arm64" }

func (d *arm64Decoder) Decode(code []byte, pc uint64) Inst {
	if len(code) < 4 {
		return Inst{Addr: pc, Len: len(code), Text: "(bad)", Bad: true, Padding: true}
	}
	inst, err := arm64asm.Decode(code)
	if err != nil {
		word := binary.LittleEndian.Uint32(code)
		return Inst{Addr: pc, Len: 4, Text: fmt.Sprintf(".word 0x%08x", word), Bad: true, Padding: true}
	}

	in := Inst{
		Addr: pc,
		Len:  4,
		Text: strings.ToLower(arm64asm.GNUSyntax(inst)),
	}

	switch inst.Op {
	case arm64asm.B:
		in.Kind = KindJump
		if _, ok := inst.Args[0].(arm64asm.Cond); ok {
			in.Kind = KindCondJump
		}
	case arm64asm.BR:
		in.Kind = KindJump
	case arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		in.Kind = KindCondJump
	case arm64asm.BL, arm64asm.BLR:
		in.Kind = KindCall
	case arm64asm.RET:
		in.Kind = KindReturn
	case arm64asm.SVC:
		in.Kind = KindSyscall
	case arm64asm.BRK:
		in.Kind = KindHalt
		in.Padding = true
	case arm64asm.NOP:
		in.Padding = true
	}

	for _, arg := range inst.Args {
		switch a := arg.(type) {
		case arm64asm.PCRel:
			if in.Kind != KindOther {
				in.Target = uint64(int64(pc) + int64(a))
				in.HasTarget = true
			}
		case arm64asm.RegisterWithArrangement, arm64asm.RegisterWithArrangementAndIndex:
			in.Vector = true
		case arm64asm.Reg:
			if (a >= arm64asm.V0 && a <= arm64asm.V31) || (a >= arm64asm.Q0 && a <= arm64asm.Q31) {
				in.Vector = true
			}
		case arm64asm.MemImmediate, arm64asm.MemExtend:
			name := inst.Op.String()
			switch {
			case strings.HasPrefix(name, "LD"):
				in.MemRead = true
			case strings.HasPrefix(name, "ST"):
				in.MemWrite = true
			}
		}
	}

	in.Prologue = arm64Prologue(inst)
	return in
}

func arm64Prologue(inst arm64asm.Inst) Prologue {
	argIs := func(i int, name string) bool {
		return inst.Args[i] != nil && strings.EqualFold(inst.Args[i].String(), name)
	}
	switch inst.Op {
	case arm64asm.STP:
		if argIs(0, "x29") && argIs(1, "x30") {
			return PrologueSave
		}
	case arm64asm.MOV:
		if argIs(0, "x29") && argIs(1, "sp") {
			return PrologueSet
		}
	}
	return PrologueNone
}
