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

package atn

// StateID addresses a state within a Graph. States live in a flat arena and
// reference one another by id, so recursive rules and loop-back edges are
// plain index relationships with no ownership cycle.
type StateID int32

// InvalidState is the id of no state.
const InvalidState StateID = -1

// StateKind classifies a state's role in its rule's structure.
type StateKind uint8

const (
	StateBasic StateKind = iota
	StateRuleStart
	StateRuleStop
	StateBlockStart
	StateBlockEnd
	StateLoopEntry
	StateLoopBack
	StateLoopEnd
)

var stateKindNames = [...]string{
	StateBasic:      "basic",
	StateRuleStart:  "rule start",
	StateRuleStop:   "rule stop",
	StateBlockStart: "block start",
	StateBlockEnd:   "block end",
	StateLoopEntry:  "loop entry",
	StateLoopBack:   "loop back",
	StateLoopEnd:    "loop end",
}

func (k StateKind) String() string {
	if int(k) < len(stateKindNames) {
		return stateKindNames[k]
	}
	return "invalid"
}

// State is a node in the ATN graph.
type State struct {
	id   StateID
	rule RuleID
	kind StateKind

	// decision is this state's decision ordinal, or -1. A decision state has
	// two or more outgoing transitions; their order assigns 1-based
	// alternative numbers, and lower alternatives win prediction ties.
	decision int

	// nonGreedy marks the decision of a reluctant loop: prediction at this
	// state must never look past the end of the enclosing rule, and exitAlt
	// is the alternative that leaves the loop.
	nonGreedy bool
	exitAlt   int

	transitions []Transition
}

func (s *State) ID() StateID     { return s.id }
func (s *State) Rule() RuleID    { return s.rule }
func (s *State) Kind() StateKind { return s.kind }
func (s *State) Decision() int   { return s.decision }
func (s *State) NonGreedy() bool { return s.nonGreedy }
func (s *State) ExitAlt() int    { return s.exitAlt }
func (s *State) NumAlts() int    { return len(s.transitions) }

// Transitions returns the state's outgoing transitions in alternative order.
// The returned slice is owned by the graph and must not be modified.
func (s *State) Transitions() []Transition { return s.transitions }
