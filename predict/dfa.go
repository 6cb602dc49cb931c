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

package predict

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bufbuild/allstar/atn"
)

// Cache is the decision automaton cache: per decision, a lazily built DFA
// whose states are labeled by configuration sets and whose edges are labeled
// by input symbols. An automaton state that resolved to a single alternative
// is terminal and is never re-simulated for the same input sequence.
//
// One Cache may be shared by any number of concurrent parses of the same
// graph. Automaton states are immutable once published; the per-decision
// lock guards only the insert-if-absent publish step, never the closure
// computation itself.
type Cache struct {
	mu   sync.RWMutex
	dfas map[int]*dfa
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{dfas: map[int]*dfa{}}
}

func (c *Cache) forDecision(decision int) *dfa {
	c.mu.RLock()
	d := c.dfas[decision]
	c.mu.RUnlock()
	if d != nil {
		return d
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if d = c.dfas[decision]; d == nil {
		d = &dfa{
			decision: decision,
			s0:       map[uint64]*dfaState{},
			states:   map[string]*dfaState{},
		}
		c.dfas[decision] = d
	}
	return d
}

// dfa is the automaton for a single decision.
type dfa struct {
	decision int

	mu sync.Mutex
	// s0 maps an outer-context summary hash to the automaton's start state
	// for predictions made in that context. The state records the context
	// it was published under; lookups confirm it, so a hash collision reads
	// as a miss rather than as another call stack's automaton.
	s0 map[uint64]*dfaState
	// states deduplicates automaton states by configuration-set label.
	states  map[string]*dfaState
	ordered []*dfaState
}

// dfaState is one automaton state. All fields except edges are set before
// the state is published and never change afterwards.
type dfaState struct {
	ord     int
	configs *configSet

	// accept is the resolved alternative, or 0 if this state still needs
	// more lookahead. ambiguous lists the surviving alternatives when the
	// resolution was an end-of-lookahead tie-break.
	accept    int
	ambiguous []int

	predFailure *FailedPredicateError

	// outer is the outer-context summary this state was published under,
	// set only on start states.
	outer *Context

	// uncached marks a state whose configuration set depended on a
	// predicate evaluation. Such states are never published: the same
	// decision may resolve differently under a different rule scope.
	uncached bool

	mu    sync.Mutex
	edges map[int]*dfaState
}

// s0For returns the cached start state for predictions made under outer,
// or nil.
func (d *dfa) s0For(outer *Context) *dfaState {
	d.mu.Lock()
	defer d.mu.Unlock()
	ds := d.s0[outer.Hash()]
	if ds == nil || !ds.outer.Equal(outer) {
		return nil
	}
	return ds
}

// publishS0 publishes ds as the start state for predictions made under
// outer. The first writer wins; later callers adopt the published state.
// When outer's hash collides with a different chain the prediction keeps
// its private state and the decision stays a cache miss.
func (d *dfa) publishS0(outer *Context, ds *dfaState) *dfaState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.s0[outer.Hash()]; ok && existing.outer.Equal(outer) {
		return existing
	}
	ds.outer = outer
	ds = d.internLocked(ds)
	if _, ok := d.s0[outer.Hash()]; !ok && ds.outer.Equal(outer) {
		d.s0[outer.Hash()] = ds
	}
	return ds
}

// publish deduplicates ds against previously published states.
func (d *dfa) publish(ds *dfaState) *dfaState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.internLocked(ds)
}

func (d *dfa) internLocked(ds *dfaState) *dfaState {
	// The same configuration set can resolve differently at end of input
	// than mid-stream, so the resolved alternative is part of the identity.
	label := fmt.Sprintf("%d:%s", ds.accept, ds.configs.label())
	if existing, ok := d.states[label]; ok {
		return existing
	}
	ds.ord = len(d.ordered)
	d.states[label] = ds
	d.ordered = append(d.ordered, ds)
	return ds
}

// edge returns the cached transition out of from on sym, or nil.
func (from *dfaState) edge(sym int) *dfaState {
	from.mu.Lock()
	defer from.mu.Unlock()
	return from.edges[sym]
}

// addEdge records a transition; the first writer wins and the published
// target is returned.
func (from *dfaState) addEdge(sym int, to *dfaState) *dfaState {
	from.mu.Lock()
	defer from.mu.Unlock()
	if existing, ok := from.edges[sym]; ok {
		return existing
	}
	if from.edges == nil {
		from.edges = map[int]*dfaState{}
	}
	from.edges[sym] = to
	return to
}

// Dump renders the automaton built so far for one decision as a stable
// edge list, one edge per line, in the form
//
//	s0-ID->s1
//	s1-INT->:s2=>2
//
// where :sN=>alt marks an accept state resolved to alt. Edges are ordered
// by source state then symbol, so the output is reproducible and suitable
// for golden tests.
func (c *Cache) Dump(g *atn.Graph, decision int) string {
	c.mu.RLock()
	d := c.dfas[decision]
	c.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Decision %d:\n", decision)
	if d == nil {
		return sb.String()
	}

	d.mu.Lock()
	states := make([]*dfaState, len(d.ordered))
	copy(states, d.ordered)
	d.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		syms := make([]int, 0, len(st.edges))
		for sym := range st.edges {
			syms = append(syms, sym)
		}
		sort.Ints(syms)
		for _, sym := range syms {
			to := st.edges[sym]
			fmt.Fprintf(&sb, "s%d-%s->%s\n", st.ord, g.SymbolName(sym), to.name())
		}
		st.mu.Unlock()
	}
	return sb.String()
}

func (ds *dfaState) name() string {
	if ds.accept > 0 {
		return fmt.Sprintf(":s%d=>%d", ds.ord, ds.accept)
	}
	return fmt.Sprintf("s%d", ds.ord)
}
