package decoder

import (
	"fmt"
	"log/slog"

	"github.com/Prapti-044/simple-optparser/internal/disasm"
	"github.com/Prapti-044/simple-optparser/internal/flow"
	"github.com/Prapti-044/simple-optparser/internal/objfile"
)

// artifact is everything a query needs; it outlives the object file.
type artifact struct {
	arch        string
	funcs       []*function
	lines       []objfile.LineRow
	sourceFiles []string
}

type function struct {
	sym   objfile.Sym
	insts []disasm.Inst
	graph *flow.Graph
	loops []*flow.Loop
	calls []callSite
	debug *objfile.FuncDebug
	// firstID is the global id of the function's first block.
	firstID int
	// prologue spans the frame setup, zero when absent.
	prologue [2]uint64
}

type callSite struct {
	block       int
	addr        uint64
	target      uint64
	targetFuncs []string
}

func (fn *function) blockID(index int) int { return fn.firstID + index }

func buildArtifact(f *objfile.File, keep func(string) bool, log *slog.Logger) (*artifact, error) {
	dec, err := disasm.ForMachine(f.Machine(), f.Lookup)
	if err != nil {
		return nil, err
	}

	if !f.HasDWARF() {
		log.Warn("no debug information; variables and source files will be empty")
	}

	art := &artifact{arch: dec.Arch()}
	var addrs disasm.AddrSet
	nextID := 0
	for _, sym := range f.Funcs() {
		if !keep(sym.Name) {
			continue
		}
		code, err := f.Code(sym)
		if err != nil {
			log.Warn("skipping function", "func", sym.Name, "err", err)
			continue
		}

		fn := newFunction(sym, disasm.Sweep(dec, code, sym.Addr), nextID, f.FuncsAt)
		if fn == nil {
			continue
		}
		nextID += len(fn.graph.Blocks)

		var pcs []uint64
		for _, b := range fn.graph.Blocks {
			for _, in := range b.Insts {
				addrs.Add(in.Addr)
				pcs = append(pcs, in.Addr)
			}
		}
		fn.debug, err = f.FuncDebug(sym.Addr, sym.End(), pcs)
		if err != nil {
			log.Warn("reading debug info", "func", sym.Name, "err", err)
		}
		art.funcs = append(art.funcs, fn)
	}
	if len(art.funcs) == 0 {
		return nil, errNoFunctions
	}

	rows, err := f.LineRows()
	if err != nil {
		return nil, fmt.Errorf("reading line table: %w", err)
	}
	for _, row := range rows {
		if addrs.AnyIn(row.From, row.To) {
			art.lines = append(art.lines, row)
		}
	}

	art.sourceFiles, err = f.SourceFiles()
	if err != nil {
		return nil, fmt.Errorf("reading source files: %w", err)
	}
	return art, nil
}

// newFunction recovers the control flow of one swept function, numbering
// its blocks from firstID. It returns nil when nothing but padding remains.
func newFunction(sym objfile.Sym, insts []disasm.Inst, firstID int, funcsAt func(uint64) []string) *function {
	g := flow.Build(insts)
	if len(g.Blocks) == 0 {
		return nil
	}
	fn := &function{
		sym:      sym,
		insts:    insts,
		graph:    g,
		loops:    flow.FindLoops(g),
		firstID:  firstID,
		prologue: prologueRange(g),
	}
	for _, c := range g.Calls {
		site := callSite{block: c.Block, addr: c.Addr}
		if c.HasTarget {
			site.target = c.Target
			site.targetFuncs = funcsAt(c.Target)
		}
		fn.calls = append(fn.calls, site)
	}
	return fn
}

// prologueRange returns the addresses of a leading frame-pointer setup:
// the save of the old frame pointer and the instruction establishing the
// new one.
func prologueRange(g *flow.Graph) [2]uint64 {
	insts := g.Blocks[0].Insts
	if len(insts) < 2 {
		return [2]uint64{}
	}
	if insts[0].Prologue != disasm.PrologueSave || insts[1].Prologue != disasm.PrologueSet {
		return [2]uint64{}
	}
	return [2]uint64{insts[0].Addr, insts[1].Addr}
}

// callersOf maps a function entry to the global ids of the blocks calling it.
func (art *artifact) callersOf() map[uint64][]int {
	callers := make(map[uint64][]int)
	for _, fn := range art.funcs {
		for _, c := range fn.calls {
			if c.target == 0 {
				continue
			}
			callers[c.target] = append(callers[c.target], fn.blockID(c.block))
		}
	}
	return callers
}
