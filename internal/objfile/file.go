// Package objfile reads functions, code and debug information from ELF files.
package objfile

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-delve/delve/pkg/dwarf/frame"
	"github.com/go-delve/delve/pkg/dwarf/godwarf"
	"github.com/go-delve/delve/pkg/dwarf/loclist"
)

// ErrNotELF is returned when the file does not start with the ELF magic.
var ErrNotELF = errors.New("unrecognized object file format")

// File is an opened ELF executable or shared library.
type File struct {
	elf   *elf.File
	dwarf *dwarf.Data

	// Location lists (DWARF 4 and 5), .debug_addr and call frame
	// information, used to place variables.
	loc2      *loclist.Dwarf2Reader
	loc5      *loclist.Dwarf5Reader
	debugAddr *godwarf.DebugAddrSection
	frames    frame.FrameDescriptionEntries

	funcs []Sym
	syms  []Sym

	sectionData map[*elf.Section][]byte
	debug       *debugIndex
}

// Sym is a symbol with an address range.
type Sym struct {
	Name string
	Addr uint64
	Size uint64
}

// End returns the address after the symbol.
func (s Sym) End() uint64 { return s.Addr + s.Size }

// Open opens the ELF file at path and loads its symbols and DWARF data.
func Open(path string) (*File, error) {
	if err := checkMagic(path); err != nil {
		return nil, err
	}

	ef, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading ELF file %s: %w", path, err)
	}

	f := &File{
		elf:         ef,
		sectionData: make(map[*elf.Section][]byte),
	}
	f.loadSymbols()

	d, err := loadDWARF(ef)
	if err != nil {
		_ = ef.Close()
		return nil, fmt.Errorf("reading DWARF from %s: %w", path, err)
	}
	f.dwarf = d
	if d != nil {
		f.loadLocations()
	}

	return f, nil
}

func checkMagic(path string) error {
	fp, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer fp.Close()

	var header [4]byte
	if _, err := io.ReadFull(fp, header[:]); err != nil {
		return fmt.Errorf("%w: %s is too short", ErrNotELF, path)
	}
	if string(header[:]) != elf.ELFMAG {
		return fmt.Errorf("%w: %s", ErrNotELF, path)
	}
	return nil
}

func (f *File) ptrSize() int {
	if f.elf.Class == elf.ELFCLASS32 {
		return 4
	}
	return 8
}

func (f *File) Close() error {
	return f.elf.Close()
}

// Machine returns the ELF machine type.
func (f *File) Machine() elf.Machine { return f.elf.Machine }

// HasDWARF reports whether debug information was found.
func (f *File) HasDWARF() bool { return f.dwarf != nil }

// Funcs returns the function symbols in address order.
func (f *File) Funcs() []Sym { return f.funcs }

func (f *File) loadSymbols() {
	symbols, err := f.elf.Symbols()
	if err != nil || len(symbols) == 0 {
		symbols, _ = f.elf.DynamicSymbols()
	}

	seen := make(map[uint64]bool)
	for _, s := range symbols {
		if s.Value == 0 || s.Name == "" {
			continue
		}
		sym := Sym{Name: s.Name, Addr: s.Value, Size: s.Size}
		f.syms = append(f.syms, sym)

		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Size == 0 || seen[s.Value] {
			continue
		}
		if !f.isCode(s.Section) {
			continue
		}
		seen[s.Value] = true
		f.funcs = append(f.funcs, sym)
	}

	sort.SliceStable(f.funcs, func(i, k int) bool { return f.funcs[i].Addr < f.funcs[k].Addr })
	sort.SliceStable(f.syms, func(i, k int) bool { return f.syms[i].Addr < f.syms[k].Addr })
}

func (f *File) isCode(index elf.SectionIndex) bool {
	if index == elf.SHN_UNDEF || int(index) >= len(f.elf.Sections) {
		return false
	}
	sec := f.elf.Sections[index]
	return sec.Type == elf.SHT_PROGBITS && sec.Flags&elf.SHF_EXECINSTR != 0
}

// Code returns the machine code bytes of sym.
func (f *File) Code(sym Sym) ([]byte, error) {
	for _, sec := range f.elf.Sections {
		if sec.Type != elf.SHT_PROGBITS || sec.Flags&elf.SHF_EXECINSTR == 0 {
			continue
		}
		if sym.Addr < sec.Addr || sym.End() > sec.Addr+sec.Size {
			continue
		}
		data, ok := f.sectionData[sec]
		if !ok {
			var err error
			data, err = sec.Data()
			if err != nil {
				return nil, fmt.Errorf("reading section %s: %w", sec.Name, err)
			}
			f.sectionData[sec] = data
		}
		off := sym.Addr - sec.Addr
		return data[off : off+sym.Size], nil
	}
	return nil, fmt.Errorf("no code section contains %s at %#x", sym.Name, sym.Addr)
}

// Lookup returns the symbol containing addr and the symbol's address.
func (f *File) Lookup(addr uint64) (string, uint64) {
	i := sort.Search(len(f.syms), func(i int) bool { return f.syms[i].Addr > addr }) - 1
	if i < 0 {
		return "", 0
	}
	base := f.syms[i].Addr
	for ; i >= 0 && f.syms[i].Addr == base; i-- {
		if addr < f.syms[i].End() {
			return f.syms[i].Name, base
		}
	}
	return "", 0
}

// FuncsAt returns the names of functions starting at addr.
func (f *File) FuncsAt(addr uint64) []string {
	i := sort.Search(len(f.funcs), func(i int) bool { return f.funcs[i].Addr >= addr })
	var names []string
	for ; i < len(f.funcs) && f.funcs[i].Addr == addr; i++ {
		names = append(names, f.funcs[i].Name)
	}
	return names
}
