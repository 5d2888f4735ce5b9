package membership

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Names interns branch names into dense indices so branch sets can be
// stored as bitsets.
type Names struct {
	names []string
	index map[string]uint
}

// NewNames returns an empty arena
func NewNames() *Names {
	return &Names{index: make(map[string]uint)}
}

// Intern returns the index for name, allocating one on first use
func (n *Names) Intern(name string) uint {
	if i, ok := n.index[name]; ok {
		return i
	}
	i := uint(len(n.names))
	n.names = append(n.names, name)
	n.index[name] = i
	return i
}

// Index returns the index for name if it has been interned
func (n *Names) Index(name string) (uint, bool) {
	i, ok := n.index[name]
	return i, ok
}

// Name returns the name at index i
func (n *Names) Name(i uint) string {
	return n.names[i]
}

// Len returns the number of interned names
func (n *Names) Len() int {
	return len(n.names)
}

// BranchSet is a set of interned branch names.
type BranchSet struct {
	names *Names
	bits  *bitset.BitSet
}

// NewBranchSet returns an empty set over the given arena
func NewBranchSet(names *Names) *BranchSet {
	return &BranchSet{names: names, bits: bitset.New(uint(names.Len()))}
}

func (s *BranchSet) add(i uint) {
	s.bits.Set(i)
}

// Contains reports whether name is in the set
func (s *BranchSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	i, ok := s.names.Index(name)
	return ok && s.bits.Test(i)
}

// Len returns the number of branches in the set
func (s *BranchSet) Len() int {
	if s == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Union returns a new set holding the members of s and other.
func (s *BranchSet) Union(other *BranchSet) *BranchSet {
	switch {
	case s == nil && other == nil:
		return nil
	case s == nil:
		return other.Clone()
	case other == nil:
		return s.Clone()
	}
	return &BranchSet{names: s.names, bits: s.bits.Union(other.bits)}
}

// Clone returns an independent copy
func (s *BranchSet) Clone() *BranchSet {
	if s == nil {
		return nil
	}
	return &BranchSet{names: s.names, bits: s.bits.Clone()}
}

// Equal reports whether both sets hold the same names
func (s *BranchSet) Equal(other *BranchSet) bool {
	if s == nil || other == nil {
		return s.Len() == other.Len()
	}
	return s.bits.SymmetricDifferenceCardinality(other.bits) == 0
}

// Names returns the members sorted by name
func (s *BranchSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, s.Len())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, s.names.Name(i))
	}
	sort.Strings(out)
	return out
}
