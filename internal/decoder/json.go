package decoder

import (
	"encoding/json"
	"fmt"

	"github.com/Prapti-044/simple-optparser/internal/flow"
	"github.com/Prapti-044/simple-optparser/internal/objfile"
)

type parseDoc struct {
	Lines     []lineJSON     `json:"lines"`
	Functions []functionJSON `json:"functions"`
}

type lineJSON struct {
	File string `json:"file"`
	Line int    `json:"line"`
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type functionJSON struct {
	Name        string        `json:"name"`
	Entry       uint64        `json:"entry"`
	BasicBlocks []blockJSON   `json:"basicblocks"`
	Vars        []varJSON     `json:"vars"`
	Calls       []callJSON    `json:"calls"`
	Inlines     []inlineJSON  `json:"inlines"`
	Loops       []loopJSON    `json:"loops"`
	Hidables    []hidableJSON `json:"hidables"`
}

type blockJSON struct {
	ID    int      `json:"id"`
	Start uint64   `json:"start"`
	End   uint64   `json:"end"`
	Flags []string `json:"flags,omitempty"`
}

type varJSON struct {
	Name      string         `json:"name"`
	File      string         `json:"file"`
	Line      int            `json:"line"`
	Locations []locationJSON `json:"locations"`
}

// locationJSON carries its range as hex strings.
type locationJSON struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
}

type callJSON struct {
	Address    uint64   `json:"address"`
	Target     uint64   `json:"target"`
	TargetFunc []string `json:"target_func,omitempty"`
}

type inlineJSON struct {
	Name         string      `json:"name"`
	Vars         []varJSON   `json:"vars"`
	Ranges       []rangeJSON `json:"ranges"`
	CallsiteFile string      `json:"callsite_file"`
	CallsiteLine int         `json:"callsite_line"`
}

type rangeJSON struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type loopJSON struct {
	Name      string     `json:"name"`
	BackEdges []edgeJSON `json:"backedges,omitempty"`
	Blocks    []int      `json:"blocks"`
	Loops     []loopJSON `json:"loops,omitempty"`
}

type edgeJSON struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type hidableJSON struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
	Name  string `json:"name"`
}

type asmFunctionJSON struct {
	Name         string    `json:"name"`
	Entry        uint64    `json:"entry"`
	Instructions []asmJSON `json:"instructions"`
}

type asmJSON struct {
	Address uint64 `json:"address"`
	Size    int    `json:"size"`
	Text    string `json:"text"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func renderJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding JSON: %w", err)
	}
	return string(b), nil
}

func (art *artifact) parse(maxName int) parseDoc {
	doc := parseDoc{
		Lines:     make([]lineJSON, 0, len(art.lines)),
		Functions: make([]functionJSON, 0, len(art.funcs)),
	}
	for _, row := range art.lines {
		doc.Lines = append(doc.Lines, lineJSON{
			File: cleanName(row.File, maxName),
			Line: row.Line,
			From: row.From,
			To:   row.To,
		})
	}
	for _, fn := range art.funcs {
		doc.Functions = append(doc.Functions, fn.parse(maxName))
	}
	return doc
}

func (fn *function) parse(maxName int) functionJSON {
	out := functionJSON{
		Name:        cleanName(fn.sym.Name, maxName),
		Entry:       fn.sym.Addr,
		BasicBlocks: make([]blockJSON, 0, len(fn.graph.Blocks)),
		Vars:        []varJSON{},
		Calls:       make([]callJSON, 0, len(fn.calls)),
		Inlines:     []inlineJSON{},
		Loops:       fn.loopsJSON(fn.loops),
		Hidables:    []hidableJSON{},
	}

	for _, b := range fn.graph.Blocks {
		out.BasicBlocks = append(out.BasicBlocks, blockJSON{
			ID:    fn.blockID(b.Index),
			Start: b.Start,
			End:   b.End,
			Flags: b.Flags(),
		})
	}

	for _, c := range fn.calls {
		call := callJSON{Address: c.addr, Target: c.target}
		for _, name := range c.targetFuncs {
			call.TargetFunc = append(call.TargetFunc, cleanName(name, maxName))
		}
		out.Calls = append(out.Calls, call)
	}

	if fn.debug != nil {
		out.Vars = varsJSON(fn.debug.Vars, maxName)
		for _, in := range fn.debug.Inlines {
			inline := inlineJSON{
				Name:         cleanName(in.Name, maxName),
				Vars:         varsJSON(in.Vars, maxName),
				Ranges:       make([]rangeJSON, 0, len(in.Ranges)),
				CallsiteFile: in.CallFile,
				CallsiteLine: in.CallLine,
			}
			for _, r := range in.Ranges {
				inline.Ranges = append(inline.Ranges, rangeJSON{Start: r[0], End: r[1]})
			}
			out.Inlines = append(out.Inlines, inline)
		}
	}

	if fn.prologue != [2]uint64{} {
		out.Hidables = append(out.Hidables, hidableJSON{
			Start: fn.prologue[0],
			End:   fn.prologue[1],
			Name:  "function beginning",
		})
	}
	return out
}

func (fn *function) loopsJSON(loops []*flow.Loop) []loopJSON {
	out := make([]loopJSON, 0, len(loops))
	for _, l := range loops {
		lj := loopJSON{
			Name:   l.Name,
			Blocks: make([]int, 0, len(l.Blocks)),
		}
		for _, e := range l.BackEdges {
			lj.BackEdges = append(lj.BackEdges, edgeJSON{From: fn.blockID(e.From), To: fn.blockID(e.To)})
		}
		for _, b := range l.Blocks {
			lj.Blocks = append(lj.Blocks, fn.blockID(b))
		}
		if len(l.Children) > 0 {
			lj.Loops = fn.loopsJSON(l.Children)
		}
		out = append(out, lj)
	}
	return out
}

func varsJSON(vars []objfile.Var, maxName int) []varJSON {
	out := make([]varJSON, 0, len(vars))
	for _, v := range vars {
		vj := varJSON{
			Name:      cleanName(v.Name, maxName),
			File:      v.File,
			Line:      v.Line,
			Locations: make([]locationJSON, 0, len(v.Locations)),
		}
		for _, loc := range v.Locations {
			vj.Locations = append(vj.Locations, locationJSON{
				Start:    fmt.Sprintf("%#x", loc.Start),
				End:      fmt.Sprintf("%#x", loc.End),
				Location: loc.Where,
			})
		}
		out = append(out, vj)
	}
	return out
}

func (art *artifact) assembly(maxName int) []asmFunctionJSON {
	out := make([]asmFunctionJSON, 0, len(art.funcs))
	for _, fn := range art.funcs {
		af := asmFunctionJSON{
			Name:         cleanName(fn.sym.Name, maxName),
			Entry:        fn.sym.Addr,
			Instructions: make([]asmJSON, 0, len(fn.insts)),
		}
		for _, in := range fn.insts {
			file, line := objfile.LineAt(art.lines, in.Addr)
			af.Instructions = append(af.Instructions, asmJSON{
				Address: in.Addr,
				Size:    in.Len,
				Text:    in.Text,
				File:    file,
				Line:    line,
			})
		}
		out = append(out, af)
	}
	return out
}
