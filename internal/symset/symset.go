// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package symset provides ordered sets of grammar symbols (token types),
// stored as closed integer intervals.
//
// Transition labels in an ATN are naturally interval-shaped (character and
// token ranges, negated sets), so a set keeps its elements as maximally
// coalesced [lo, hi] intervals rather than as individual symbols.
package symset

import (
	"fmt"
	"iter"
	"strings"

	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints" //nolint:exptostd // Tries to replace w/ cmp.
)

// Set is a set of symbols held as coalesced closed intervals over any
// integer symbol type.
//
// A zero value is ready to use. A Set is not safe for concurrent mutation;
// once built it may be read from any number of goroutines.
type Set[E constraints.Integer] struct {
	// Keys in this map are the ends of intervals in the set; the value for
	// a key is the interval's start. Intervals never overlap and are never
	// adjacent (they would have been coalesced).
	tree btree.Map[E, E]
}

// Of returns a set containing exactly the given symbols.
func Of[E constraints.Integer](syms ...E) *Set[E] {
	s := new(Set[E])
	for _, sym := range syms {
		s.Add(sym)
	}
	return s
}

// Range returns a set containing the closed interval [lo, hi].
func Range[E constraints.Integer](lo, hi E) *Set[E] {
	s := new(Set[E])
	s.AddRange(lo, hi)
	return s
}

// Add inserts a single symbol.
func (s *Set[E]) Add(sym E) {
	s.AddRange(sym, sym)
}

// AddRange inserts the closed interval [lo, hi], coalescing with any
// intervals it overlaps or abuts.
func (s *Set[E]) AddRange(lo, hi E) {
	if hi < lo {
		return
	}

	// Absorb every interval that intersects or abuts [lo, hi]. An interval
	// [a, b] intersects or abuts iff b >= lo-1 and a <= hi+1.
	var absorbed []E
	it := s.tree.Iter()
	for ok := it.Seek(boundedDec(lo)); ok; ok = it.Next() {
		start := it.Value()
		if start > boundedInc(hi) {
			break
		}
		if start < lo {
			lo = start
		}
		if it.Key() > hi {
			hi = it.Key()
		}
		absorbed = append(absorbed, it.Key())
	}
	for _, end := range absorbed {
		s.tree.Delete(end)
	}
	s.tree.Set(hi, lo)
}

// AddSet inserts every interval of other into s.
func (s *Set[E]) AddSet(other *Set[E]) {
	if other == nil {
		return
	}
	other.tree.Scan(func(end, start E) bool {
		s.AddRange(start, end)
		return true
	})
}

// Contains reports whether sym is in the set.
func (s *Set[E]) Contains(sym E) bool {
	it := s.tree.Iter()
	if !it.Seek(sym) {
		return false
	}
	return it.Value() <= sym
}

// Complement returns the set of symbols in [min, max] that are not in s.
func (s *Set[E]) Complement(min, max E) *Set[E] {
	out := new(Set[E])
	next := min
	covered := false
	s.tree.Scan(func(end, start E) bool {
		if start > max {
			return false
		}
		if start > next {
			out.AddRange(next, start-1)
		}
		if end >= max {
			// The interval runs to (or past) max; incrementing could wrap
			// at the extreme of E.
			covered = true
			return false
		}
		if end >= next {
			next = end + 1
		}
		return true
	})
	if !covered && next <= max {
		out.AddRange(next, max)
	}
	return out
}

// Len returns the number of symbols (not intervals) in the set.
func (s *Set[E]) Len() int {
	var n int
	s.tree.Scan(func(end, start E) bool {
		n += int(end-start) + 1
		return true
	})
	return n
}

// Empty reports whether the set contains no symbols.
func (s *Set[E]) Empty() bool {
	return s == nil || s.tree.Len() == 0
}

// Intervals returns an iterator over the coalesced [lo, hi] intervals of
// the set, in ascending order.
func (s *Set[E]) Intervals() iter.Seq2[E, E] {
	return func(yield func(E, E) bool) {
		s.tree.Scan(func(end, start E) bool {
			return yield(start, end)
		})
	}
}

// String renders the set in {1, 3..5} form.
func (s *Set[E]) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for lo, hi := range s.Intervals() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		if lo == hi {
			fmt.Fprintf(&sb, "%d", lo)
		} else {
			fmt.Fprintf(&sb, "%d..%d", lo, hi)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

// boundedInc and boundedDec step without wrapping past the extremes of E.
func boundedInc[E constraints.Integer](v E) E {
	if v+1 < v {
		return v
	}
	return v + 1
}

func boundedDec[E constraints.Integer](v E) E {
	if v-1 > v {
		return v
	}
	return v - 1
}
