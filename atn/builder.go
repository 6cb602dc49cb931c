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
	"fmt"

	"github.com/bufbuild/allstar/internal/symset"
)

// Builder constructs a Graph. It is the input surface for a grammar
// compiler; once Finish is called the graph is frozen and the builder must
// be discarded.
//
// Builder methods record the first construction error and become no-ops
// afterwards; Finish reports it. This lets a compiler emit a whole rule
// without checking an error at every edge.
type Builder struct {
	g        Graph
	err      error
	finished bool
}

// NewBuilder returns a builder for a grammar whose vocabulary consists of
// the given symbol display names, indexed by token type.
func NewBuilder(symbolNames ...string) *Builder {
	b := new(Builder)
	b.g.symbolNames = symbolNames
	return b
}

func (b *Builder) errf(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("atn: %v", fmt.Sprintf(format, args...))
	}
}

func (b *Builder) mutable() bool {
	if b.finished {
		b.errf("builder used after Finish")
	}
	return b.err == nil && !b.finished
}

// Rule declares a new rule and allocates its start and stop states.
func (b *Builder) Rule(name string) RuleID {
	if !b.mutable() {
		return 0
	}
	id := RuleID(len(b.g.rules))
	b.g.rules = append(b.g.rules, Rule{id: id, name: name})
	r := &b.g.rules[id]
	r.start = b.State(id, StateRuleStart)
	r.stop = b.State(id, StateRuleStop)
	return id
}

// Start returns a declared rule's start state.
func (b *Builder) Start(rule RuleID) StateID {
	if int(rule) >= len(b.g.rules) {
		b.errf("start of unknown rule %d", rule)
		return InvalidState
	}
	return b.g.rules[rule].start
}

// Stop returns a declared rule's stop state.
func (b *Builder) Stop(rule RuleID) StateID {
	if int(rule) >= len(b.g.rules) {
		b.errf("stop of unknown rule %d", rule)
		return InvalidState
	}
	return b.g.rules[rule].stop
}

// SetLocals declares the rule's local attributes.
func (b *Builder) SetLocals(rule RuleID, decls ...AttrDecl) {
	if b.mutable() {
		b.g.rules[rule].locals = decls
	}
}

// SetReturns declares the rule's return attributes.
func (b *Builder) SetReturns(rule RuleID, decls ...AttrDecl) {
	if b.mutable() {
		b.g.rules[rule].returns = decls
	}
}

// State allocates a new state owned by rule.
func (b *Builder) State(rule RuleID, kind StateKind) StateID {
	if !b.mutable() {
		return InvalidState
	}
	id := StateID(len(b.g.states))
	b.g.states = append(b.g.states, State{id: id, rule: rule, kind: kind, decision: -1})
	return id
}

// Decision allocates a new decision state. Its outgoing transitions, in the
// order added, become alternatives 1, 2, and so on.
func (b *Builder) Decision(rule RuleID, kind StateKind) StateID {
	id := b.State(rule, kind)
	if id == InvalidState {
		return id
	}
	b.g.states[id].decision = len(b.g.decisions)
	b.g.decisions = append(b.g.decisions, id)
	return id
}

// MarkNonGreedy marks a decision as a reluctant loop whose exitAlt-th
// alternative leaves the loop.
func (b *Builder) MarkNonGreedy(decision StateID, exitAlt int) {
	if !b.mutable() {
		return
	}
	s := &b.g.states[decision]
	if s.decision < 0 {
		b.errf("state %d is not a decision", decision)
		return
	}
	s.nonGreedy = true
	s.exitAlt = exitAlt
}

func (b *Builder) addTransition(from StateID, t Transition) {
	if !b.mutable() {
		return
	}
	if from < 0 || int(from) >= len(b.g.states) {
		b.errf("transition from unknown state %d", from)
		return
	}
	s := &b.g.states[from]
	if s.kind == StateRuleStop {
		b.errf("transition out of stop state %d of rule %q", from, b.g.rules[s.rule].name)
		return
	}
	s.transitions = append(s.transitions, t)
}

// Epsilon adds an unlabeled edge.
func (b *Builder) Epsilon(from, to StateID) {
	b.addTransition(from, Transition{Kind: TransEpsilon, Target: to})
}

// Atom adds an edge consuming exactly sym.
func (b *Builder) Atom(from, to StateID, sym int) {
	b.addTransition(from, Transition{Kind: TransAtom, Target: to, Symbol: sym})
}

// Range adds an edge consuming any symbol in [lo, hi].
func (b *Builder) Range(from, to StateID, lo, hi int) {
	b.addTransition(from, Transition{Kind: TransRange, Target: to, Lo: lo, Hi: hi})
}

// Set adds an edge consuming any of syms.
func (b *Builder) Set(from, to StateID, syms ...int) {
	b.addTransition(from, Transition{Kind: TransSet, Target: to, Set: buildSet(syms)})
}

// NotSet adds an edge consuming any symbol not in syms (and not EOF).
func (b *Builder) NotSet(from, to StateID, syms ...int) {
	b.addTransition(from, Transition{Kind: TransNotSet, Target: to, Set: buildSet(syms)})
}

// Wildcard adds an edge consuming any symbol except EOF.
func (b *Builder) Wildcard(from, to StateID) {
	b.addTransition(from, Transition{Kind: TransWildcard, Target: to})
}

// Invoke adds a rule invocation edge: control enters rule's start state and
// resumes at follow once the rule's stop state is reached.
func (b *Builder) Invoke(from StateID, rule RuleID, follow StateID) {
	if !b.mutable() {
		return
	}
	if int(rule) >= len(b.g.rules) {
		b.errf("invocation of unknown rule %d", rule)
		return
	}
	b.addTransition(from, Transition{
		Kind:   TransRule,
		Target: b.g.rules[rule].start,
		Rule:   rule,
		Follow: follow,
	})
}

// Predicate adds a predicate-guarded epsilon edge.
func (b *Builder) Predicate(from, to StateID, p Predicate) PredicateID {
	if !b.mutable() {
		return 0
	}
	id := PredicateID(len(b.g.predicates))
	b.g.predicates = append(b.g.predicates, p)
	b.addTransition(from, Transition{Kind: TransPredicate, Target: to, Pred: id})
	return id
}

// Action adds an action-carrying epsilon edge.
func (b *Builder) Action(from, to StateID, a Action) ActionID {
	if !b.mutable() {
		return 0
	}
	id := ActionID(len(b.g.actions))
	b.g.actions = append(b.g.actions, a)
	b.addTransition(from, Transition{Kind: TransAction, Target: to, Action: id})
	return id
}

func buildSet(syms []int) *symset.Set[int32] {
	s := new(symset.Set[int32])
	for _, sym := range syms {
		s.Add(int32(sym))
	}
	return s
}

// Finish validates the graph, freezes it, and returns it.
func (b *Builder) Finish() (*Graph, error) {
	if b.finished {
		return nil, fmt.Errorf("atn: Finish called twice")
	}
	b.finished = true
	if b.err != nil {
		return nil, b.err
	}
	for i := range b.g.states {
		s := &b.g.states[i]
		for _, t := range s.transitions {
			if t.Target < 0 || int(t.Target) >= len(b.g.states) {
				return nil, fmt.Errorf("atn: state %d has a transition to unknown state %d", s.id, t.Target)
			}
			// Control crosses rule boundaries only through rule transitions.
			if t.Kind != TransRule && b.g.states[t.Target].rule != s.rule {
				return nil, fmt.Errorf("atn: state %d in rule %q has a non-invocation transition into rule %q",
					s.id, b.g.rules[s.rule].name, b.g.rules[b.g.states[t.Target].rule].name)
			}
			if t.Kind == TransRule && b.g.states[t.Follow].rule != s.rule {
				return nil, fmt.Errorf("atn: state %d in rule %q resumes in rule %q after an invocation",
					s.id, b.g.rules[s.rule].name, b.g.rules[b.g.states[t.Follow].rule].name)
			}
		}
		if s.decision >= 0 {
			if len(s.transitions) < 2 {
				return nil, fmt.Errorf("atn: decision state %d in rule %q has %d alternatives, need at least 2",
					s.id, b.g.rules[s.rule].name, len(s.transitions))
			}
			for alt, t := range s.transitions {
				if !t.Epsilon() {
					return nil, fmt.Errorf("atn: decision state %d alternative %d must begin with a non-consuming transition, have %v",
						s.id, alt+1, t.Kind)
				}
			}
		}
		if s.decision < 0 && len(s.transitions) > 1 {
			return nil, fmt.Errorf("atn: state %d in rule %q has %d transitions but is not a decision",
				s.id, b.g.rules[s.rule].name, len(s.transitions))
		}
		if s.nonGreedy && (s.exitAlt < 1 || s.exitAlt > len(s.transitions)) {
			return nil, fmt.Errorf("atn: non-greedy decision %d has exit alternative %d out of range", s.id, s.exitAlt)
		}
	}
	return &b.g, nil
}
