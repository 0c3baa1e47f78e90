package decoder

import (
	"fmt"
	"strings"
)

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// dot writes one box per basic block, labelled with the function name and
// the block's instructions, and one edge per control transfer between
// decoded blocks. Calls link the calling block to the callee's entry block.
func (art *artifact) dot(maxName int) string {
	var sb strings.Builder
	sb.WriteString("digraph g {\n")

	for _, fn := range art.funcs {
		name := cleanName(fn.sym.Name, maxName)
		for _, b := range fn.graph.Blocks {
			fmt.Fprintf(&sb, "B%d [shape=box, style=solid, label=\"%s\\n", fn.blockID(b.Index), name)
			for _, in := range b.Insts {
				fmt.Fprintf(&sb, "0x%x: %s\\n", in.Addr, labelEscaper.Replace(in.Text))
			}
			sb.WriteString(" 1, 0\"];\n")
		}
	}

	callers := art.callersOf()
	for _, fn := range art.funcs {
		for _, b := range fn.graph.Blocks {
			if b.Index == 0 {
				for _, from := range callers[fn.sym.Addr] {
					writeEdge(&sb, from, fn.firstID)
				}
			}
			for _, p := range b.Preds {
				writeEdge(&sb, fn.blockID(p), fn.blockID(b.Index))
			}
		}
	}

	sb.WriteString("}\n\n")
	return sb.String()
}

func writeEdge(sb *strings.Builder, from, to int) {
	fmt.Fprintf(sb, "B%d -> B%d [style=solid, color=\"black\"];\n", from, to)
}
