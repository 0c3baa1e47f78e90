package objfile

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-delve/delve/pkg/dwarf/frame"
	"github.com/go-delve/delve/pkg/dwarf/godwarf"
	"github.com/go-delve/delve/pkg/dwarf/loclist"
)

// loadDWARF assembles the debug sections, compressed or not. It returns nil
// without error when the file carries no .debug_info.
func loadDWARF(ef *elf.File) (*dwarf.Data, error) {
	info, err := godwarf.GetDebugSectionElf(ef, "info")
	if err != nil {
		return nil, nil
	}
	section := func(name string) []byte {
		data, err := godwarf.GetDebugSectionElf(ef, name)
		if err != nil {
			return nil
		}
		return data
	}

	d, err := dwarf.New(
		section("abbrev"),
		section("aranges"),
		section("frame"),
		info,
		section("line"),
		section("pubnames"),
		section("ranges"),
		section("str"),
	)
	if err != nil {
		return nil, err
	}

	// DWARF 5 moves data into additional sections.
	for _, name := range []string{"addr", "line_str", "str_offsets", "rnglists", "loclists"} {
		data := section(name)
		if data == nil {
			continue
		}
		if err := d.AddSection(".debug_"+name, data); err != nil {
			return nil, fmt.Errorf("adding .debug_%s: %w", name, err)
		}
	}
	return d, nil
}

// loadLocations reads the sections variable locations are resolved
// against. Any of them may be missing.
func (f *File) loadLocations() {
	if data, err := godwarf.GetDebugSectionElf(f.elf, "loc"); err == nil {
		f.loc2 = loclist.NewDwarf2Reader(data, f.ptrSize())
	}
	if data, err := godwarf.GetDebugSectionElf(f.elf, "loclists"); err == nil {
		f.loc5 = loclist.NewDwarf5Reader(data)
	}
	if data, err := godwarf.GetDebugSectionElf(f.elf, "addr"); err == nil {
		f.debugAddr = godwarf.ParseAddr(data)
	}

	// FDEForPC searches by address, Append sorts.
	var fdes frame.FrameDescriptionEntries
	if data, err := godwarf.GetDebugSectionElf(f.elf, "frame"); err == nil {
		if fe, err := frame.Parse(data, f.elf.ByteOrder, 0, f.ptrSize(), 0); err == nil {
			fdes = fdes.Append(fe)
		}
	}
	if sec := f.elf.Section(".eh_frame"); sec != nil {
		if data, err := sec.Data(); err == nil {
			if fe, err := frame.Parse(data, f.elf.ByteOrder, 0, f.ptrSize(), sec.Addr); err == nil {
				fdes = fdes.Append(fe)
			}
		}
	}
	f.frames = fdes
}

// LineRow maps an address range to a source line.
type LineRow struct {
	File string
	Line int
	// From and To delimit the range; To is exclusive.
	From, To uint64
}

// eachCompileUnit calls fn with the line reader of every compile unit.
func (f *File) eachCompileUnit(fn func(cu *dwarf.Entry, lr *dwarf.LineReader) error) error {
	if f.dwarf == nil {
		return nil
	}
	r := f.dwarf.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return fmt.Errorf("reading DWARF entries: %w", err)
		}
		if e == nil {
			return nil
		}
		if e.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}
		lr, err := f.dwarf.LineReader(e)
		if err != nil {
			return fmt.Errorf("reading line table: %w", err)
		}
		if lr != nil {
			if err := fn(e, lr); err != nil {
				return err
			}
		}
		r.SkipChildren()
	}
}

// LineRows returns every line-table row, ordered by address.
func (f *File) LineRows() ([]LineRow, error) {
	var rows []LineRow
	err := f.eachCompileUnit(func(_ *dwarf.Entry, lr *dwarf.LineReader) error {
		var prev dwarf.LineEntry
		havePrev := false
		for {
			var entry dwarf.LineEntry
			if err := lr.Next(&entry); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("reading line entry: %w", err)
			}
			if havePrev && prev.File != nil && prev.Line > 0 && prev.Address < entry.Address {
				rows = append(rows, LineRow{
					File: prev.File.Name,
					Line: prev.Line,
					From: prev.Address,
					To:   entry.Address,
				})
			}
			prev = entry
			havePrev = !entry.EndSequence
		}
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, k int) bool { return rows[i].From < rows[k].From })
	return rows, nil
}

// SourceFiles returns the sorted, unique file names referenced by the line tables.
func (f *File) SourceFiles() ([]string, error) {
	all := map[string]bool{}
	err := f.eachCompileUnit(func(_ *dwarf.Entry, lr *dwarf.LineReader) error {
		var entry dwarf.LineEntry
		for {
			if err := lr.Next(&entry); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("reading line entry: %w", err)
			}
			if entry.File != nil {
				all[entry.File.Name] = true
			}
		}
	})
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(all))
	for name := range all {
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// LineAt returns the source position of addr from sorted rows.
func LineAt(rows []LineRow, addr uint64) (string, int) {
	i := sort.Search(len(rows), func(i int) bool { return rows[i].From > addr }) - 1
	if i >= 0 && addr < rows[i].To {
		return rows[i].File, rows[i].Line
	}
	return "", 0
}
