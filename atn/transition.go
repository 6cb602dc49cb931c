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

import (
	"github.com/bufbuild/allstar/internal/symset"
	"github.com/bufbuild/allstar/token"
)

// TransKind discriminates the variants of Transition. Transitions are a
// tagged variant rather than an interface so that the closure routine can
// dispatch with a single switch.
type TransKind uint8

const (
	// TransEpsilon consumes no input.
	TransEpsilon TransKind = iota
	// TransAtom matches exactly one symbol.
	TransAtom
	// TransRange matches one symbol in a closed range.
	TransRange
	// TransSet matches one symbol in a set.
	TransSet
	// TransNotSet matches one symbol outside a set.
	TransNotSet
	// TransWildcard matches any one symbol except EOF.
	TransWildcard
	// TransRule invokes another rule and resumes at Follow on return.
	TransRule
	// TransPredicate is an epsilon guarded by a semantic predicate.
	TransPredicate
	// TransAction is an epsilon carrying a grammar action, run only once a
	// path is committed.
	TransAction
)

var transKindNames = [...]string{
	TransEpsilon:   "epsilon",
	TransAtom:      "atom",
	TransRange:     "range",
	TransSet:       "set",
	TransNotSet:    "not-set",
	TransWildcard:  "wildcard",
	TransRule:      "rule",
	TransPredicate: "predicate",
	TransAction:    "action",
}

func (k TransKind) String() string {
	if int(k) < len(transKindNames) {
		return transKindNames[k]
	}
	return "invalid"
}

// Transition is a directed, labeled edge between two states.
type Transition struct {
	Kind   TransKind
	Target StateID

	// Symbol is the matched symbol for TransAtom, or the inclusive bounds
	// for TransRange.
	Symbol int
	Lo, Hi int

	// Set labels TransSet and TransNotSet transitions.
	Set *symset.Set[int32]

	// Rule and Follow describe a TransRule edge: Target is the start state
	// of Rule, and Follow is the state in the calling rule at which to
	// resume once Rule's stop state is reached.
	Rule   RuleID
	Follow StateID

	// Pred and Action reference the graph's predicate and action tables.
	Pred   PredicateID
	Action ActionID
}

// Epsilon reports whether the transition consumes no input. Rule, predicate,
// and action transitions are all epsilon for consumption purposes.
func (t Transition) Epsilon() bool {
	switch t.Kind {
	case TransEpsilon, TransRule, TransPredicate, TransAction:
		return true
	default:
		return false
	}
}

// Matches reports whether the transition consumes sym. maxSymbol bounds the
// alphabet for negated sets.
func (t Transition) Matches(sym, maxSymbol int) bool {
	switch t.Kind {
	case TransAtom:
		return sym == t.Symbol
	case TransRange:
		return sym >= t.Lo && sym <= t.Hi
	case TransSet:
		return t.Set.Contains(int32(sym))
	case TransNotSet:
		return sym != token.EOF && sym <= maxSymbol && !t.Set.Contains(int32(sym))
	case TransWildcard:
		return sym != token.EOF
	default:
		return false
	}
}
