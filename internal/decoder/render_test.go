package decoder

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Prapti-044/simple-optparser/internal/disasm"
	"github.com/Prapti-044/simple-optparser/internal/objfile"
)

// testArtifact builds three functions by hand:
//
//	caller  0x1000: call 0x2000; ret
//	callee  0x2000: nop "q"; ret
//	framed  0x3000: push %rbp; mov %rsp,%rbp; ret
func testArtifact(t *testing.T) *artifact {
	t.Helper()
	funcsAt := func(addr uint64) []string {
		if addr == 0x2000 {
			return []string{"callee"}
		}
		return nil
	}

	specs := []struct {
		sym   objfile.Sym
		insts []disasm.Inst
	}{
		{objfile.Sym{Name: "caller", Addr: 0x1000, Size: 6}, []disasm.Inst{
			{Addr: 0x1000, Len: 5, Text: "call 0x2000", Kind: disasm.KindCall, Target: 0x2000, HasTarget: true, MemWrite: true},
			{Addr: 0x1005, Len: 1, Text: "ret", Kind: disasm.KindReturn, MemRead: true},
		}},
		{objfile.Sym{Name: "callee", Addr: 0x2000, Size: 2}, []disasm.Inst{
			{Addr: 0x2000, Len: 1, Text: `nop "q"`},
			{Addr: 0x2001, Len: 1, Text: "ret", Kind: disasm.KindReturn},
		}},
		{objfile.Sym{Name: "framed", Addr: 0x3000, Size: 5}, []disasm.Inst{
			{Addr: 0x3000, Len: 1, Text: "push %rbp", MemWrite: true, Prologue: disasm.PrologueSave},
			{Addr: 0x3001, Len: 3, Text: "mov %rsp,%rbp", Prologue: disasm.PrologueSet},
			{Addr: 0x3004, Len: 1, Text: "ret", Kind: disasm.KindReturn},
		}},
	}

	art := &artifact{arch: "amd64"}
	nextID := 0
	for _, s := range specs {
		fn := newFunction(s.sym, s.insts, nextID, funcsAt)
		if fn == nil {
			t.Fatalf("newFunction(%s) returned nil", s.sym.Name)
		}
		nextID += len(fn.graph.Blocks)
		art.funcs = append(art.funcs, fn)
	}
	art.lines = []objfile.LineRow{
		{File: "main.c", Line: 3, From: 0x1000, To: 0x1005},
		{File: "main.c", Line: 4, From: 0x1005, To: 0x1006},
	}
	art.sourceFiles = []string{"main.c"}
	return art
}

func TestArtifact_DOT(t *testing.T) {
	got := testArtifact(t).dot(128)
	want := "digraph g {\n" +
		`B0 [shape=box, style=solid, label="caller\n0x1000: call 0x2000\n 1, 0"];` + "\n" +
		`B1 [shape=box, style=solid, label="caller\n0x1005: ret\n 1, 0"];` + "\n" +
		`B2 [shape=box, style=solid, label="callee\n0x2000: nop \"q\"\n0x2001: ret\n 1, 0"];` + "\n" +
		`B3 [shape=box, style=solid, label="framed\n0x3000: push %rbp\n0x3001: mov %rsp,%rbp\n0x3004: ret\n 1, 0"];` + "\n" +
		`B0 -> B1 [style=solid, color="black"];` + "\n" +
		`B0 -> B2 [style=solid, color="black"];` + "\n" +
		"}\n\n"
	if got != want {
		t.Errorf("dot mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestArtifact_Parse(t *testing.T) {
	out, err := renderJSON(testArtifact(t).parse(128))
	if err != nil {
		t.Fatal(err)
	}

	var doc parseDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(doc.Lines) != 2 || doc.Lines[0].File != "main.c" || doc.Lines[1].From != 0x1005 {
		t.Errorf("lines = %+v", doc.Lines)
	}
	if len(doc.Functions) != 3 {
		t.Fatalf("got %d functions, want 3", len(doc.Functions))
	}

	caller := doc.Functions[0]
	if caller.Name != "caller" || caller.Entry != 0x1000 {
		t.Errorf("caller = %q at %#x", caller.Name, caller.Entry)
	}
	if len(caller.BasicBlocks) != 2 {
		t.Fatalf("caller has %d blocks, want 2", len(caller.BasicBlocks))
	}
	b0 := caller.BasicBlocks[0]
	if b0.ID != 0 || b0.Start != 0x1000 || b0.End != 0x1005 {
		t.Errorf("block 0 = %+v", b0)
	}
	if strings.Join(b0.Flags, ",") != "memwrite,call" {
		t.Errorf("block 0 flags = %v, want [memwrite call]", b0.Flags)
	}
	if strings.Join(caller.BasicBlocks[1].Flags, ",") != "memread" {
		t.Errorf("block 1 flags = %v, want [memread]", caller.BasicBlocks[1].Flags)
	}
	if len(caller.Calls) != 1 {
		t.Fatalf("caller has %d calls, want 1", len(caller.Calls))
	}
	call := caller.Calls[0]
	if call.Address != 0x1000 || call.Target != 0x2000 || len(call.TargetFunc) != 1 || call.TargetFunc[0] != "callee" {
		t.Errorf("call = %+v", call)
	}
	if len(caller.Hidables) != 0 {
		t.Errorf("caller hidables = %+v, want none", caller.Hidables)
	}

	callee := doc.Functions[1]
	if len(callee.BasicBlocks) != 1 || callee.BasicBlocks[0].ID != 2 {
		t.Errorf("callee blocks = %+v, want one block with id 2", callee.BasicBlocks)
	}
	if callee.BasicBlocks[0].Flags != nil {
		t.Errorf("callee flags = %v, want none", callee.BasicBlocks[0].Flags)
	}

	framed := doc.Functions[2]
	if len(framed.Hidables) != 1 {
		t.Fatalf("framed hidables = %+v, want one", framed.Hidables)
	}
	h := framed.Hidables[0]
	if h.Start != 0x3000 || h.End != 0x3001 || h.Name != "function beginning" {
		t.Errorf("hidable = %+v", h)
	}
}

func TestArtifact_ParseEmptyCollections(t *testing.T) {
	out, err := renderJSON(testArtifact(t).parse(128))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"vars":[]`, `"inlines":[]`, `"loops":[]`, `"hidables":[]`} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing %s:\n%s", key, out)
		}
	}
	if strings.Contains(out, "null") {
		t.Errorf("output contains null:\n%s", out)
	}
}

func TestArtifact_Assembly(t *testing.T) {
	out, err := renderJSON(testArtifact(t).assembly(128))
	if err != nil {
		t.Fatal(err)
	}
	var funcs []asmFunctionJSON
	if err := json.Unmarshal([]byte(out), &funcs); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(funcs) != 3 {
		t.Fatalf("got %d functions, want 3", len(funcs))
	}
	insts := funcs[0].Instructions
	if len(insts) != 2 {
		t.Fatalf("caller has %d instructions, want 2", len(insts))
	}
	if insts[0].Address != 0x1000 || insts[0].Size != 5 || insts[0].Text != "call 0x2000" {
		t.Errorf("instruction 0 = %+v", insts[0])
	}
	if insts[1].File != "main.c" || insts[1].Line != 4 {
		t.Errorf("instruction 1 at %s:%d, want main.c:4", insts[1].File, insts[1].Line)
	}
	if funcs[1].Instructions[0].File != "" {
		t.Errorf("callee has line info %q, want none", funcs[1].Instructions[0].File)
	}
}

func TestNewFunction_PaddingOnly(t *testing.T) {
	insts := []disasm.Inst{
		{Addr: 0x10, Len: 1, Text: "int3", Kind: disasm.KindHalt, Padding: true},
		{Addr: 0x11, Len: 1, Text: "nop", Padding: true},
	}
	if fn := newFunction(objfile.Sym{Name: "pad", Addr: 0x10, Size: 2}, insts, 0, nil); fn != nil {
		t.Errorf("newFunction = %+v, want nil", fn)
	}
}

func TestCleanName(t *testing.T) {
	long := strings.Repeat("a", 100) + strings.Repeat("b", 100)

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "main", 128, "main"},
		{"cpp operator", "operator<<(std::ostream&, int const*)", 128, "operator<<(std::ostream&, int const*)"},
		{"tab", "a\tb", 128, "a?b"},
		{"quote", `say"hi'`, 128, "say?hi?"},
		{"at sign", "memcpy@GLIBC_2.14", 128, "memcpy?GLIBC_2.14"},
		{"non ascii rune", "caf\u00e9", 128, "caf?"},
		{"elided", long, 128, strings.Repeat("a", 62) + "..." + strings.Repeat("b", 62)},
		{"no limit", long, 0, long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanName(tt.in, tt.max); got != tt.want {
				t.Errorf("cleanName(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
