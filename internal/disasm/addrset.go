package disasm

import (
	"sort"

	"golang.org/x/exp/slices"
)

// AddrSet is a sorted set of addresses.
type AddrSet struct {
	list []uint64
}

// Add adds addr to the set.
func (s *AddrSet) Add(addr uint64) {
	if len(s.list) == 0 || s.list[len(s.list)-1] < addr {
		s.list = append(s.list, addr)
		return
	}
	at := s.search(addr)
	if s.list[at] != addr {
		s.list = slices.Insert(s.list, at, addr)
	}
}

// AnyIn reports whether the set holds an address in [from, to).
func (s *AddrSet) AnyIn(from, to uint64) bool {
	at := s.search(from)
	return at < len(s.list) && s.list[at] < to
}

func (s *AddrSet) search(addr uint64) int {
	return sort.Search(len(s.list), func(i int) bool { return s.list[i] >= addr })
}
