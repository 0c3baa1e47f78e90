package objfile

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-delve/delve/pkg/dwarf/frame"
	"github.com/go-delve/delve/pkg/dwarf/leb128"
	"github.com/go-delve/delve/pkg/dwarf/op"
	"github.com/go-delve/delve/pkg/dwarf/regnum"
)

// locator renders the location expressions of one function's variables as
// AT&T operands: "%rdi", "-0x14(%rbp)", "$0x4010".
type locator struct {
	machine elf.Machine
	ptrSize int
	// frameBase is the function's DW_AT_frame_base expression.
	frameBase []byte
	frames    frame.FrameDescriptionEntries
}

func (l *locator) regName(n uint64) string {
	switch l.machine {
	case elf.EM_X86_64:
		return strings.ToLower(regnum.AMD64ToName(n))
	case elf.EM_386:
		return strings.ToLower(regnum.I386ToName(n))
	case elf.EM_AARCH64:
		return strings.ToLower(regnum.ARM64ToName(n))
	}
	return fmt.Sprintf("r%d", n)
}

// operand describes expr as evaluated at pc. It returns "" for expressions
// that are not a single register, register-relative or address operand.
func (l *locator) operand(expr []byte, pc uint64) string {
	if len(expr) == 0 {
		return ""
	}
	code := op.Opcode(expr[0])
	rest := bytes.NewBuffer(expr[1:])

	switch {
	case code == op.DW_OP_addr:
		if len(expr) < 1+l.ptrSize {
			return ""
		}
		var addr uint64
		if l.ptrSize == 8 {
			addr = binary.LittleEndian.Uint64(expr[1:])
		} else {
			addr = uint64(binary.LittleEndian.Uint32(expr[1:]))
		}
		return "$" + hex(int64(addr))
	case code >= op.DW_OP_reg0 && code <= op.DW_OP_reg31:
		return "%" + l.regName(uint64(code-op.DW_OP_reg0))
	case code == op.DW_OP_regx:
		n, _ := leb128.DecodeUnsigned(rest)
		return "%" + l.regName(n)
	case code >= op.DW_OP_breg0 && code <= op.DW_OP_breg31:
		off, _ := leb128.DecodeSigned(rest)
		return hex(off) + "(%" + l.regName(uint64(code-op.DW_OP_breg0)) + ")"
	case code == op.DW_OP_call_frame_cfa:
		// Stack slots: DW_OP_call_frame_cfa [DW_OP_consts off DW_OP_plus].
		var off int64
		if rest.Len() > 0 {
			if c, _ := rest.ReadByte(); op.Opcode(c) != op.DW_OP_consts {
				return ""
			}
			off, _ = leb128.DecodeSigned(rest)
			if c, _ := rest.ReadByte(); op.Opcode(c) != op.DW_OP_plus || rest.Len() != 0 {
				return ""
			}
		}
		reg, base, ok := l.cfaAt(pc)
		if !ok {
			return ""
		}
		return hex(base+off) + "(%" + reg + ")"
	case code == op.DW_OP_fbreg:
		off, _ := leb128.DecodeSigned(rest)
		reg, base, ok := l.frameBaseAt(pc)
		if !ok {
			return ""
		}
		return hex(base+off) + "(%" + reg + ")"
	}
	return ""
}

// frameBaseAt resolves the frame base at pc to a register and offset.
func (l *locator) frameBaseAt(pc uint64) (reg string, off int64, ok bool) {
	if len(l.frameBase) == 0 {
		return "", 0, false
	}
	code := op.Opcode(l.frameBase[0])
	switch {
	case code == op.DW_OP_call_frame_cfa:
		return l.cfaAt(pc)
	case code >= op.DW_OP_reg0 && code <= op.DW_OP_reg31:
		return l.regName(uint64(code - op.DW_OP_reg0)), 0, true
	case code >= op.DW_OP_breg0 && code <= op.DW_OP_breg31:
		o, _ := leb128.DecodeSigned(bytes.NewBuffer(l.frameBase[1:]))
		return l.regName(uint64(code - op.DW_OP_breg0)), o, true
	}
	return "", 0, false
}

// cfaAt returns the canonical frame address at pc as register plus offset,
// taken from the call frame information.
func (l *locator) cfaAt(pc uint64) (reg string, off int64, ok bool) {
	if l.frames == nil {
		return "", 0, false
	}
	// The frame program interpreter panics on opcodes it does not know.
	defer func() {
		if recover() != nil {
			reg, off, ok = "", 0, false
		}
	}()
	fde, err := l.frames.FDEForPC(pc)
	if err != nil {
		return "", 0, false
	}
	ctx := fde.EstablishFrame(pc)
	if ctx == nil || ctx.CFA.Rule != frame.RuleCFA {
		return "", 0, false
	}
	return l.regName(ctx.CFA.Reg), ctx.CFA.Offset, true
}

func hex(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-%#x", uint64(-v))
	}
	return fmt.Sprintf("%#x", uint64(v))
}
