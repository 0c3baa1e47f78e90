// Package flow recovers basic blocks and loops from a function's instructions.
package flow

import (
	"github.com/Prapti-044/simple-optparser/internal/disasm"
)

// Block is a maximal straight-line run of instructions.
type Block struct {
	Index int
	// Start and End delimit the block; End is exclusive.
	Start, End uint64
	Insts      []disasm.Inst
	Succs      []int
	Preds      []int
}

// Last returns the final instruction of the block.
func (b *Block) Last() disasm.Inst { return b.Insts[len(b.Insts)-1] }

// Flags summarizes what the block's instructions do, in a fixed order.
func (b *Block) Flags() []string {
	var vector, read, write, call, syscall bool
	for _, in := range b.Insts {
		vector = vector || in.Vector
		read = read || in.MemRead
		write = write || in.MemWrite
		call = call || in.Kind == disasm.KindCall
		syscall = syscall || in.Kind == disasm.KindSyscall
	}
	var flags []string
	if vector {
		flags = append(flags, "vector")
	}
	if read {
		flags = append(flags, "memread")
	}
	if write {
		flags = append(flags, "memwrite")
	}
	if call {
		flags = append(flags, "call")
	}
	if syscall {
		flags = append(flags, "syscall")
	}
	return flags
}

// Edge connects two blocks by index.
type Edge struct{ From, To int }

// Call is a call site inside the function.
type Call struct {
	Block     int
	Addr      uint64
	Target    uint64
	HasTarget bool
}

// Graph is the control-flow graph of one function.
type Graph struct {
	Blocks []*Block
	Calls  []Call
}

// Build splits a linear sweep of one function into basic blocks.
// Trailing padding (nop, int3, undecodable bytes) is dropped first.
func Build(insts []disasm.Inst) *Graph {
	for len(insts) > 0 && insts[len(insts)-1].Padding {
		insts = insts[:len(insts)-1]
	}
	g := &Graph{}
	if len(insts) == 0 {
		return g
	}

	lo, hi := insts[0].Addr, insts[len(insts)-1].End()
	index := make(map[uint64]int, len(insts))
	for i, in := range insts {
		index[in.Addr] = i
	}

	leaders := make(map[uint64]bool)
	leaders[lo] = true
	for i, in := range insts {
		if in.Kind.EndsBlock() && i+1 < len(insts) {
			leaders[insts[i+1].Addr] = true
		}
		if isBranch(in) && in.HasTarget && lo <= in.Target && in.Target < hi {
			if _, ok := index[in.Target]; ok {
				leaders[in.Target] = true
			}
		}
	}

	var cur *Block
	for _, in := range insts {
		if cur == nil || leaders[in.Addr] {
			cur = &Block{Index: len(g.Blocks), Start: in.Addr}
			g.Blocks = append(g.Blocks, cur)
		}
		cur.Insts = append(cur.Insts, in)
		cur.End = in.End()
	}

	blockOf := make(map[uint64]int, len(g.Blocks))
	for _, b := range g.Blocks {
		blockOf[b.Start] = b.Index
	}

	for _, b := range g.Blocks {
		last := b.Last()
		next := -1
		if b.Index+1 < len(g.Blocks) && g.Blocks[b.Index+1].Start == b.End {
			next = b.Index + 1
		}
		target := -1
		if isBranch(last) && last.HasTarget {
			if t, ok := blockOf[last.Target]; ok {
				target = t
			}
		}

		switch last.Kind {
		case disasm.KindJump:
			g.addEdge(b.Index, target)
		case disasm.KindCondJump:
			g.addEdge(b.Index, target)
			g.addEdge(b.Index, next)
		case disasm.KindReturn, disasm.KindHalt:
		default:
			g.addEdge(b.Index, next)
		}

		for _, in := range b.Insts {
			if in.Kind == disasm.KindCall {
				g.Calls = append(g.Calls, Call{
					Block:     b.Index,
					Addr:      in.Addr,
					Target:    in.Target,
					HasTarget: in.HasTarget,
				})
			}
		}
	}
	return g
}

func (g *Graph) addEdge(from, to int) {
	if to < 0 {
		return
	}
	for _, s := range g.Blocks[from].Succs {
		if s == to {
			return
		}
	}
	g.Blocks[from].Succs = append(g.Blocks[from].Succs, to)
	g.Blocks[to].Preds = append(g.Blocks[to].Preds, from)
}

func isBranch(in disasm.Inst) bool {
	return in.Kind == disasm.KindJump || in.Kind == disasm.KindCondJump
}
