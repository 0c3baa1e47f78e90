// Package disasm decodes machine code into classified instructions.
//
// Decoding never fails: bytes that do not form a valid instruction are
// reported as a "(bad)" instruction so a linear sweep can continue.
package disasm

import (
	"debug/elf"
	"errors"
	"fmt"
)

// Kind classifies how an instruction affects control flow.
type Kind uint8

const (
	KindOther Kind = iota
	KindJump
	KindCondJump
	KindCall
	KindReturn
	KindSyscall
	KindHalt
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindJump:
		return "jump"
	case KindCondJump:
		return "condjump"
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	case KindSyscall:
		return "syscall"
	case KindHalt:
		return "halt"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// EndsBlock reports whether an instruction of this kind terminates a basic block.
func (k Kind) EndsBlock() bool {
	switch k {
	case KindJump, KindCondJump, KindCall, KindReturn, KindHalt:
		return true
	}
	return false
}

// Prologue marks the two halves of a frame-pointer setup sequence.
type Prologue uint8

const (
	PrologueNone Prologue = iota
	// PrologueSave saves the caller's frame pointer (push %rbp, stp x29, x30).
	PrologueSave
	// PrologueSet establishes the new frame pointer (mov %rsp,%rbp, mov x29, sp).
	PrologueSet
)

// Inst represents a single decoded instruction.
type Inst struct {
	Addr uint64
	Len  int
	Text string
	Kind Kind

	// Target is the destination of a direct branch or call.
	Target    uint64
	HasTarget bool

	MemRead  bool
	MemWrite bool
	Vector   bool

	// Padding is set for filler such as nop and int3.
	Padding  bool
	Bad      bool
	Prologue Prologue
}

// End returns the address following the instruction.
func (in Inst) End() uint64 { return in.Addr + uint64(in.Len) }

// SymLookup resolves an address to the containing symbol and its base.
type SymLookup func(addr uint64) (name string, base uint64)

// Decoder decodes one instruction at a time.
type Decoder interface {
	// Arch names the instruction set.
	Arch() string
	// Decode decodes the instruction at the start of code, located at pc.
	Decode(code []byte, pc uint64) Inst
}

// ErrUnsupportedMachine is returned for ELF machines without a decoder.
var ErrUnsupportedMachine = errors.New("unsupported machine")

// ForMachine returns the decoder for an ELF machine type.
func ForMachine(machine elf.Machine, lookup SymLookup) (Decoder, error) {
	switch machine {
	case elf.EM_X86_64:
		return &x86Decoder{mode: 64, lookup: lookup}, nil
	case elf.EM_386:
		return &x86Decoder{mode: 32, lookup: lookup}, nil
	case elf.EM_AARCH64:
		return &arm64Decoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMachine, machine)
	}
}

// Sweep decodes code linearly, starting at addr.
func Sweep(d Decoder, code []byte, addr uint64) []Inst {
	var insts []Inst
	for off := 0; off < len(code); {
		in := d.Decode(code[off:], addr+uint64(off))
		if in.Len <= 0 {
			in.Len = 1
		}
		if off+in.Len > len(code) {
			in.Len = len(code) - off
		}
		insts = append(insts, in)
		off += in.Len
	}
	return insts
}
