package decoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Prapti-044/simple-optparser/internal/objfile"
)

// fixture is a small Go program built once for the package's tests. Its
// main.loopingHelper calls main.leafHelper in a loop.
var fixture struct {
	path string
	err  error
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "decoder-fixture")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fixture.path = filepath.Join(dir, "fixture")
	fixture.err = buildFixture(fixture.path)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func buildFixture(out string) error {
	if runtime.GOOS != "linux" {
		return fmt.Errorf("fixture is not ELF on %s", runtime.GOOS)
	}
	switch runtime.GOARCH {
	case "amd64", "386", "arm64":
	default:
		return fmt.Errorf("no disassembler for %s", runtime.GOARCH)
	}
	gobin, err := exec.LookPath("go")
	if err != nil {
		return err
	}
	cmd := exec.Command(gobin, "build", "-o", out, ".")
	cmd.Dir = filepath.Join("testdata", "fixture")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if msg, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("building fixture: %v\n%s", err, msg)
	}
	return nil
}

// fixtureBinary returns the fixture, skipping when it could not be built.
func fixtureBinary(t *testing.T) string {
	t.Helper()
	if fixture.err != nil {
		t.Skip(fixture.err)
	}
	return fixture.path
}

func newTestEngine(t *testing.T, patterns ...string) *Engine {
	t.Helper()
	e, err := NewEngine(Options{Functions: patterns})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestNewEngine_InvalidPattern(t *testing.T) {
	if _, err := NewEngine(Options{Functions: []string{"main.[a-"}}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestEngine_QueryBeforeDecode(t *testing.T) {
	e := newTestEngine(t)
	queries := map[string]func() (string, error){
		"JSON":        e.JSON,
		"DOT":         e.DOT,
		"SourceFiles": e.SourceFiles,
		"Assembly":    e.Assembly,
	}
	for name, query := range queries {
		if _, err := query(); !errors.Is(err, ErrNotDecoded) {
			t.Errorf("%s before Decode: err = %v, want ErrNotDecoded", name, err)
		}
	}
}

func TestEngine_DecodeErrors(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		path  string
		cause error
	}{
		{"empty path", "", ErrEmptyPath},
		{"missing file", filepath.Join(dir, "missing"), os.ErrNotExist},
		{"not ELF", script, objfile.ErrNotELF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newTestEngine(t).Decode(tt.path)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("err = %v, want ErrDecode", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("err = %v, want cause %v", err, tt.cause)
			}
			var de *DecodeError
			if !errors.As(err, &de) || de.Path != tt.path {
				t.Errorf("err = %#v, want *DecodeError for %q", err, tt.path)
			}
		})
	}
}

func TestEngine_NoMatchingFunctions(t *testing.T) {
	exe := fixtureBinary(t)
	err := newTestEngine(t, "no.such.function").Decode(exe)
	if !errors.Is(err, ErrDecode) || !errors.Is(err, errNoFunctions) {
		t.Errorf("err = %v, want no functions decode failure", err)
	}
}

func TestEngine_FailedDecodeClearsArtifact(t *testing.T) {
	exe := fixtureBinary(t)
	e := newTestEngine(t, "main.leafHelper")
	if err := e.Decode(exe); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, err := e.JSON(); err != nil {
		t.Fatalf("JSON after Decode failed: %v", err)
	}
	if err := e.Decode(""); err == nil {
		t.Fatal("Decode(\"\") succeeded")
	}
	if _, err := e.JSON(); !errors.Is(err, ErrNotDecoded) {
		t.Errorf("JSON after failed Decode: err = %v, want ErrNotDecoded", err)
	}
}

func TestEngine_Fixture(t *testing.T) {
	exe := fixtureBinary(t)
	e := newTestEngine(t, "main.loopingHelper", "main.leafHelper")
	if err := e.Decode(exe); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		out, err := e.JSON()
		if err != nil {
			t.Fatal(err)
		}
		var doc parseDoc
		if err := json.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(doc.Functions) != 2 {
			t.Fatalf("got %d functions, want 2", len(doc.Functions))
		}

		nextID := 0
		for _, fn := range doc.Functions {
			for _, b := range fn.BasicBlocks {
				if b.ID != nextID {
					t.Errorf("%s: block id %d, want %d", fn.Name, b.ID, nextID)
				}
				nextID++
			}
		}

		var looping *functionJSON
		for i := range doc.Functions {
			if doc.Functions[i].Name == "main.loopingHelper" {
				looping = &doc.Functions[i]
			}
		}
		if looping == nil {
			t.Fatal("loopingHelper not decoded")
		}
		if len(looping.Loops) == 0 || looping.Loops[0].Name != "loop_1" {
			t.Errorf("loopingHelper loops = %+v, want loop_1", looping.Loops)
		}
		calledLeaf := false
		for _, c := range looping.Calls {
			for _, name := range c.TargetFunc {
				if name == "main.leafHelper" {
					calledLeaf = true
				}
			}
		}
		if !calledLeaf {
			t.Errorf("loopingHelper calls = %+v, want a call to leafHelper", looping.Calls)
		}
		sawMain := false
		for _, l := range doc.Lines {
			if strings.HasSuffix(l.File, "fixture/main.go") {
				sawMain = true
			}
		}
		if !sawMain {
			t.Errorf("no line rows from fixture/main.go among %d rows", len(doc.Lines))
		}
		for _, v := range looping.Vars {
			for _, loc := range v.Locations {
				if strings.Contains(loc.Location, "cfa") {
					t.Errorf("%s: location %q names the CFA as a register", v.Name, loc.Location)
				}
			}
		}
	})

	t.Run("dot", func(t *testing.T) {
		out, err := e.DOT()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(out, "digraph g {\n") || !strings.HasSuffix(out, "}\n\n") {
			t.Errorf("unexpected framing:\n%s", out)
		}
		if !strings.Contains(out, "B0 [shape=box, style=solid, label=\"") {
			t.Errorf("no block B0:\n%s", out)
		}
		if !strings.Contains(out, `[style=solid, color="black"];`) {
			t.Errorf("no edges:\n%s", out)
		}
	})

	t.Run("sourcefiles", func(t *testing.T) {
		out, err := e.SourceFiles()
		if err != nil {
			t.Fatal(err)
		}
		var files []string
		if err := json.Unmarshal([]byte(out), &files); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		found := false
		for _, f := range files {
			if strings.HasSuffix(f, "fixture/main.go") {
				found = true
			}
		}
		if !found {
			t.Errorf("fixture/main.go not among %d source files", len(files))
		}
	})

	t.Run("assembly", func(t *testing.T) {
		out, err := e.Assembly()
		if err != nil {
			t.Fatal(err)
		}
		var funcs []asmFunctionJSON
		if err := json.Unmarshal([]byte(out), &funcs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(funcs) != 2 {
			t.Fatalf("got %d functions, want 2", len(funcs))
		}
		for _, fn := range funcs {
			if len(fn.Instructions) == 0 || fn.Instructions[0].Address != fn.Entry {
				t.Errorf("%s: listing does not start at entry %#x", fn.Name, fn.Entry)
				continue
			}
			if fn.Instructions[0].Line == 0 {
				t.Errorf("%s: entry instruction has no line", fn.Name)
			}
		}
	})
}

func TestMock(t *testing.T) {
	m := NewMock(`{"functions":[]}`)
	if _, err := m.JSON(); !errors.Is(err, ErrNotDecoded) {
		t.Errorf("JSON before Decode: err = %v, want ErrNotDecoded", err)
	}
	if err := m.Decode(""); !errors.Is(err, ErrEmptyPath) || !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(\"\"): err = %v, want empty path decode failure", err)
	}
	if err := m.Decode("./a.out"); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out, err := m.JSON(); err != nil || out != `{"functions":[]}` {
		t.Errorf("JSON = %q, %v", out, err)
	}

	m.DecodeErr = objfile.ErrNotELF
	if err := m.Decode("./notes.txt"); !errors.Is(err, objfile.ErrNotELF) {
		t.Errorf("Decode with DecodeErr: err = %v", err)
	}
	if m.Current() != "" {
		t.Errorf("Current after failure = %q, want empty", m.Current())
	}

	want := []string{"", "./a.out", "./notes.txt"}
	got := m.Decoded()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Decoded = %q, want %q", got, want)
	}
}
