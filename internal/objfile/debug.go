package objfile

import (
	"debug/dwarf"
	"fmt"

	"github.com/go-delve/delve/pkg/dwarf/godwarf"
	"github.com/go-delve/delve/pkg/dwarf/loclist"
	"github.com/ianlancetaylor/demangle"
)

// Var is a parameter or local variable.
type Var struct {
	Name      string
	File      string
	Line      int
	Locations []Location
}

// Location says where a variable lives over an address range.
type Location struct {
	Start, End uint64
	Where      string
}

// Inline is one inlined call inside a function.
type Inline struct {
	Name     string
	Ranges   [][2]uint64
	CallFile string
	CallLine int
	Vars     []Var
}

// FuncDebug is the debug information of one function.
type FuncDebug struct {
	Vars    []Var
	Inlines []Inline
}

type unit struct {
	files []*dwarf.LineFile
	// base is the unit's low pc, the base of its location lists.
	base uint64
	addr *godwarf.DebugAddr
}

type subprogram struct {
	offset dwarf.Offset
	unit   *unit
}

type debugIndex struct {
	byEntry map[uint64]subprogram
	origins map[dwarf.Offset]*dwarf.Entry
}

func (f *File) index() (*debugIndex, error) {
	if f.debug != nil {
		return f.debug, nil
	}
	idx := &debugIndex{
		byEntry: make(map[uint64]subprogram),
		origins: make(map[dwarf.Offset]*dwarf.Entry),
	}

	var cur *unit
	r := f.dwarf.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("indexing DWARF: %w", err)
		}
		if e == nil {
			break
		}
		switch e.Tag {
		case dwarf.TagCompileUnit:
			cur = &unit{}
			if low, ok := e.Val(dwarf.AttrLowpc).(uint64); ok {
				cur.base = low
			} else if ranges, err := f.dwarf.Ranges(e); err == nil && len(ranges) > 0 {
				cur.base = ranges[0][0]
			}
			if addrBase, ok := e.Val(dwarf.AttrAddrBase).(int64); ok {
				cur.addr = f.debugAddr.GetSubsection(uint64(addrBase))
			}
			if lr, err := f.dwarf.LineReader(e); err == nil && lr != nil {
				cur.files = lr.Files()
			}
		case dwarf.TagSubprogram:
			if low, ok := e.Val(dwarf.AttrLowpc).(uint64); ok && cur != nil {
				if _, dup := idx.byEntry[low]; !dup {
					idx.byEntry[low] = subprogram{offset: e.Offset, unit: cur}
				}
			}
			if e.Children {
				r.SkipChildren()
			}
		}
	}
	f.debug = idx
	return idx, nil
}

// FuncDebug returns the variables and inlined calls of the function starting
// at entry, or nil when the file has no debug information for it. Variable
// locations are evaluated at each of pcs, the function's instruction
// addresses in order.
func (f *File) FuncDebug(entry, end uint64, pcs []uint64) (*FuncDebug, error) {
	if f.dwarf == nil {
		return nil, nil
	}
	idx, err := f.index()
	if err != nil {
		return nil, err
	}
	sp, ok := idx.byEntry[entry]
	if !ok {
		return nil, nil
	}

	r := f.dwarf.Reader()
	r.Seek(sp.offset)
	e, err := r.Next()
	if err != nil {
		return nil, fmt.Errorf("reading subprogram at %#x: %w", entry, err)
	}

	if len(pcs) == 0 {
		pcs = []uint64{entry}
	}
	w := &walker{
		file: f,
		idx:  idx,
		unit: sp.unit,
		loc: &locator{
			machine:   f.elf.Machine,
			ptrSize:   f.ptrSize(),
			frameBase: bytesVal(e, dwarf.AttrFrameBase),
			frames:    f.frames,
		},
		pcs:  pcs,
		high: end,
	}
	fd := &FuncDebug{}
	if e.Children {
		if err := w.collect(r, &fd.Vars, fd); err != nil {
			return nil, err
		}
	}
	return fd, nil
}

type walker struct {
	file *File
	idx  *debugIndex
	unit *unit
	loc  *locator
	pcs  []uint64
	high uint64
}

// collect reads the children of the entry just returned by r.
func (w *walker) collect(r *dwarf.Reader, vars *[]Var, fd *FuncDebug) error {
	for {
		e, err := r.Next()
		if err != nil {
			return fmt.Errorf("reading DWARF entry: %w", err)
		}
		if e == nil || e.Tag == 0 {
			return nil
		}

		switch e.Tag {
		case dwarf.TagFormalParameter, dwarf.TagVariable:
			*vars = append(*vars, w.variable(e))
			if e.Children {
				r.SkipChildren()
			}
		case dwarf.TagInlinedSubroutine:
			at := len(fd.Inlines)
			fd.Inlines = append(fd.Inlines, w.inline(e))
			if e.Children {
				var inlineVars []Var
				if err := w.collect(r, &inlineVars, fd); err != nil {
					return err
				}
				fd.Inlines[at].Vars = inlineVars
			}
		case dwarf.TagLexDwarfBlock:
			if e.Children {
				if err := w.collect(r, vars, fd); err != nil {
					return err
				}
			}
		default:
			if e.Children {
				r.SkipChildren()
			}
		}
	}
}

func (w *walker) variable(e *dwarf.Entry) Var {
	name, file, line := w.describe(e)
	v := Var{Name: name, File: file, Line: line, Locations: []Location{}}

	field := e.AttrField(dwarf.AttrLocation)
	if field == nil {
		return v
	}
	switch field.Class {
	case dwarf.ClassExprLoc:
		expr, _ := field.Val.([]byte)
		v.Locations = w.locate(func(uint64) []byte { return expr })
	case dwarf.ClassLocListPtr, dwarf.ClassLocList:
		off, ok := field.Val.(int64)
		rdr := w.file.locList(field.Class)
		if !ok || rdr == nil {
			return v
		}
		v.Locations = w.locate(func(pc uint64) []byte {
			entry, err := rdr.Find(int(off), 0, w.unit.base, pc, w.unit.addr)
			if err != nil || entry == nil {
				return nil
			}
			return entry.Instr
		})
	}
	return v
}

// locate evaluates the expression in effect at each instruction and merges
// runs of instructions with the same operand into one Location.
func (w *walker) locate(exprAt func(pc uint64) []byte) []Location {
	locs := []Location{}
	for i, pc := range w.pcs {
		end := w.high
		if i+1 < len(w.pcs) {
			end = w.pcs[i+1]
		}
		where := w.loc.operand(exprAt(pc), pc)
		if where == "" {
			continue
		}
		if n := len(locs); n > 0 && locs[n-1].Where == where && locs[n-1].End == pc {
			locs[n-1].End = end
			continue
		}
		locs = append(locs, Location{Start: pc, End: end, Where: where})
	}
	return locs
}

func (w *walker) inline(e *dwarf.Entry) Inline {
	name, _, _ := w.describe(e)
	in := Inline{Name: demangle.Filter(name)}
	if ranges, err := w.file.dwarf.Ranges(e); err == nil {
		in.Ranges = ranges
	}
	if idx, ok := e.Val(dwarf.AttrCallFile).(int64); ok {
		in.CallFile = w.fileName(idx)
	}
	if line, ok := e.Val(dwarf.AttrCallLine).(int64); ok {
		in.CallLine = int(line)
	}
	return in
}

// describe returns the name and declaration of e, following abstract origins
// and specifications.
func (w *walker) describe(e *dwarf.Entry) (name, file string, line int) {
	for depth := 0; e != nil && depth < 4; depth++ {
		if name == "" {
			name, _ = e.Val(dwarf.AttrName).(string)
			if name == "" {
				name, _ = e.Val(dwarf.AttrLinkageName).(string)
			}
		}
		if file == "" {
			if idx, ok := e.Val(dwarf.AttrDeclFile).(int64); ok {
				file = w.fileName(idx)
			}
		}
		if line == 0 {
			if l, ok := e.Val(dwarf.AttrDeclLine).(int64); ok {
				line = int(l)
			}
		}
		if name != "" && file != "" && line != 0 {
			return
		}

		off, ok := e.Val(dwarf.AttrAbstractOrigin).(dwarf.Offset)
		if !ok {
			off, ok = e.Val(dwarf.AttrSpecification).(dwarf.Offset)
		}
		if !ok {
			return
		}
		e = w.origin(off)
	}
	return
}

func (w *walker) origin(off dwarf.Offset) *dwarf.Entry {
	if e, ok := w.idx.origins[off]; ok {
		return e
	}
	r := w.file.dwarf.Reader()
	r.Seek(off)
	e, err := r.Next()
	if err != nil {
		e = nil
	}
	w.idx.origins[off] = e
	return e
}

func (w *walker) fileName(idx int64) string {
	if idx < 0 || idx >= int64(len(w.unit.files)) || w.unit.files[idx] == nil {
		return ""
	}
	return w.unit.files[idx].Name
}

// locList returns the reader for location lists of class, or nil when the
// file has none.
func (f *File) locList(class dwarf.Class) loclist.Reader {
	switch {
	case class == dwarf.ClassLocListPtr && f.loc2 != nil:
		return f.loc2
	case class == dwarf.ClassLocList && f.loc5 != nil:
		return f.loc5
	}
	return nil
}

func bytesVal(e *dwarf.Entry, attr dwarf.Attr) []byte {
	b, _ := e.Val(attr).([]byte)
	return b
}
