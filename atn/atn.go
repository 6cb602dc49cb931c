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

// Package atn models a grammar compiled into an augmented transition
// network: a directed graph of states and labeled transitions describing
// every rule's internal structure, decision points, and loops.
//
// A Graph is produced once by a grammar compiler through a Builder and is
// immutable afterwards; the prediction engine only ever reads it.
package atn

import (
	"fmt"

	"github.com/bufbuild/allstar/token"
)

// RuleID addresses a rule within a Graph.
type RuleID int32

// Rule describes one grammar rule.
type Rule struct {
	id          RuleID
	name        string
	start, stop StateID
	locals      []AttrDecl
	returns     []AttrDecl
}

func (r *Rule) ID() RuleID     { return r.id }
func (r *Rule) Name() string   { return r.name }
func (r *Rule) Start() StateID { return r.start }
func (r *Rule) Stop() StateID  { return r.stop }

// Locals returns the rule's declared local attributes in declaration order.
func (r *Rule) Locals() []AttrDecl { return r.locals }

// Returns returns the rule's declared return attributes in declaration order.
func (r *Rule) Returns() []AttrDecl { return r.returns }

// Graph is an immutable ATN. All slices index by the corresponding id type.
type Graph struct {
	states      []State
	rules       []Rule
	decisions   []StateID
	predicates  []Predicate
	actions     []Action
	symbolNames []string
}

// State returns the state with the given id.
func (g *Graph) State(id StateID) *State {
	return &g.states[id]
}

// NumStates returns the number of states in the graph.
func (g *Graph) NumStates() int { return len(g.states) }

// Rule returns the rule with the given id.
func (g *Graph) Rule(id RuleID) *Rule {
	return &g.rules[id]
}

// NumRules returns the number of rules in the graph.
func (g *Graph) NumRules() int { return len(g.rules) }

// RuleByName returns the named rule, or nil.
func (g *Graph) RuleByName(name string) *Rule {
	for i := range g.rules {
		if g.rules[i].name == name {
			return &g.rules[i]
		}
	}
	return nil
}

// NumDecisions returns the number of decision states in the graph.
func (g *Graph) NumDecisions() int { return len(g.decisions) }

// DecisionState returns the state assigned the given decision ordinal.
func (g *Graph) DecisionState(decision int) *State {
	return g.State(g.decisions[decision])
}

// Predicate returns the predicate with the given id.
func (g *Graph) Predicate(id PredicateID) *Predicate {
	return &g.predicates[id]
}

// Action returns the action with the given id.
func (g *Graph) Action(id ActionID) *Action {
	return &g.actions[id]
}

// MaxSymbol returns the largest symbol (token type) id in the grammar's
// vocabulary.
func (g *Graph) MaxSymbol() int { return len(g.symbolNames) - 1 }

// SymbolName returns the display name for a symbol, for diagnostics and
// automaton dumps.
func (g *Graph) SymbolName(sym int) string {
	if sym == token.EOF {
		return "EOF"
	}
	if sym >= 0 && sym < len(g.symbolNames) {
		return g.symbolNames[sym]
	}
	return fmt.Sprintf("<%d>", sym)
}
