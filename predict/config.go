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
	"slices"
	"strings"

	"github.com/bufbuild/allstar/atn"
)

// config is one prediction hypothesis: the graph state reached, the
// alternative it descends from, and a summary of where to return as rules
// complete. Two configs are interchangeable for merging purposes iff all
// three agree.
type config struct {
	state atn.StateID
	alt   int
	ctx   *Context

	// atStop marks a config that reached a rule stop state with an
	// exhausted context: the whole prediction fell off the outermost rule,
	// so the hypothesis matches only end of input.
	atStop bool
}

type configKey struct {
	state atn.StateID
	alt   int32
	stop  bool
	ctx   uint64
}

func (c config) key() configKey {
	return configKey{state: c.state, alt: int32(c.alt), stop: c.atStop, ctx: c.ctx.Hash()}
}

// configSet is the epsilon-closure of a set of hypotheses. Iteration order
// is deterministic: configurations are grouped by ascending alternative,
// insertion-ordered within an alternative, so result selection is
// reproducible run to run.
type configSet struct {
	configs []config
	seen    map[configKey]struct{}

	// crossedStop records that closure pruned a configuration for crossing
	// the stop state of the rule enclosing a non-greedy loop; the decision
	// must resolve to the loop's exit alternative.
	crossedStop bool

	// sawPredicate records that building this set consulted a semantic
	// predicate, tying the result to the live rule scope.
	sawPredicate bool

	// predFailure records the first predicate that evaluated false or
	// failed to evaluate, for the diagnostic when nothing else survives.
	predFailure *FailedPredicateError
}

func newConfigSet() *configSet {
	return &configSet{seen: map[configKey]struct{}{}}
}

// add inserts c unless an equivalent config is already present.
func (s *configSet) add(c config) bool {
	k := c.key()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.configs = append(s.configs, c)
	return true
}

func (s *configSet) empty() bool { return len(s.configs) == 0 }

// alts returns the alternatives with surviving configurations, ascending.
func (s *configSet) alts() []int {
	var alts []int
	for _, c := range s.configs {
		if !slices.Contains(alts, c.alt) {
			alts = append(alts, c.alt)
		}
	}
	slices.Sort(alts)
	return alts
}

// uniqueAlt returns the single surviving alternative, or 0.
func (s *configSet) uniqueAlt() int {
	alt := 0
	for _, c := range s.configs {
		switch {
		case alt == 0:
			alt = c.alt
		case alt != c.alt:
			return 0
		}
	}
	return alt
}

// stopAlts returns the alternatives that have a configuration resting at a
// rule stop, ascending. Such alternatives are complete: they cannot consume
// more input but remain viable if the input ends here.
func (s *configSet) stopAlts() []int {
	var alts []int
	for _, c := range s.configs {
		if c.atStop && !slices.Contains(alts, c.alt) {
			alts = append(alts, c.alt)
		}
	}
	slices.Sort(alts)
	return alts
}

// label renders a canonical identity for the set, used to key automaton
// states. Equal sets produce equal labels regardless of insertion order.
func (s *configSet) label() string {
	keys := make([]configKey, 0, len(s.configs))
	for _, c := range s.configs {
		keys = append(keys, c.key())
	}
	slices.SortFunc(keys, func(a, b configKey) int {
		if a.alt != b.alt {
			return int(a.alt - b.alt)
		}
		if a.state != b.state {
			return int(a.state - b.state)
		}
		switch {
		case a.ctx < b.ctx:
			return -1
		case a.ctx > b.ctx:
			return 1
		case a.stop != b.stop:
			if a.stop {
				return 1
			}
			return -1
		}
		return 0
	})
	var sb strings.Builder
	if s.crossedStop {
		sb.WriteByte('!')
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "(%d,%d,%x,%v)", k.state, k.alt, k.ctx, k.stop)
	}
	return sb.String()
}
