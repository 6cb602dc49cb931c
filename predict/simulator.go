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

// Package predict implements adaptive prediction over an ATN: given a
// decision state and lookahead, it simulates every alternative's reachable
// configurations to choose which alternative the parse should take, caching
// what it learns as a per-decision automaton.
package predict

import (
	"context"
	"fmt"

	"github.com/bufbuild/allstar/atn"
	"github.com/bufbuild/allstar/reporter"
	"github.com/bufbuild/allstar/token"
)

// Simulator predicts alternatives at decision states. The zero value is not
// usable; Graph must be set. A Simulator holds no per-parse state and may be
// shared by concurrent parses.
type Simulator struct {
	// Graph is the ATN being simulated. Read-only.
	Graph *atn.Graph
	// Cache holds the decision automatons built so far. A nil Cache
	// disables caching; results are unchanged, only repeated work.
	Cache *Cache
	// Handler receives ambiguity warnings when ReportAmbiguities is set.
	Handler *reporter.Handler
	// ReportAmbiguities surfaces deterministically resolved ambiguities as
	// warnings. Resolution itself is unaffected.
	ReportAmbiguities bool
	// MaxSteps bounds the lookahead symbols a single prediction may
	// consume; 0 means no bound. Exceeding it aborts the prediction.
	MaxSteps int
}

// Request describes one prediction.
type Request struct {
	// Decision is the decision state to predict at.
	Decision atn.StateID
	// Stream supplies lookahead. Prediction speculates only: the stream is
	// restored to its starting position before Predict returns.
	Stream token.Stream
	// Outer summarizes the live rule invocation stack at the decision,
	// outermost call first. nil means the decision's rule is outermost.
	Outer *Context
	// Scope is the active rule invocation's attribute scope, used to
	// evaluate gating predicates. Evaluation through it must not mutate.
	Scope atn.PredicateScope
}

// Predict returns the 1-based alternative to take at the requested decision.
//
// Failures are typed: *NoViableAltError when every configuration dies,
// *FailedPredicateError when predicates were what killed them, and an error
// wrapping ErrPredictionAborted on cancellation or step-limit overrun.
// Ambiguities are not failures; they resolve to the lowest surviving
// alternative and are reported through the handler when enabled.
func (s *Simulator) Predict(ctx context.Context, req Request) (int, error) {
	g := s.Graph
	st := g.State(req.Decision)
	if st.Decision() < 0 {
		panic(fmt.Sprintf("predict: state %d is not a decision", req.Decision))
	}

	start := req.Stream.Index()
	startTok := req.Stream.LT(1)
	defer req.Stream.Seek(start)

	var d *dfa
	if s.Cache != nil {
		d = s.Cache.forDecision(st.Decision())
	}

	cur := s.startState(st, req, d)
	steps := 0
	for {
		if cur.accept > 0 {
			if len(cur.ambiguous) > 1 {
				s.reportAmbiguity(st, cur.ambiguous, startTok, req.Stream.LT(1))
			}
			return cur.accept, nil
		}
		if cur.configs.empty() {
			return 0, s.deadEnd(st, cur, req.Stream.LT(1))
		}

		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrPredictionAborted, err)
		}
		if steps++; s.MaxSteps > 0 && steps > s.MaxSteps {
			return 0, fmt.Errorf("%w: exceeded %d lookahead steps", ErrPredictionAborted, s.MaxSteps)
		}

		tok := req.Stream.LT(1)
		cacheable := d != nil && !cur.uncached

		var next *dfaState
		if cacheable {
			next = cur.edge(tok.Type)
		}
		if next == nil {
			set := s.move(cur.configs, tok.Type, st, req)
			next = s.resolveState(st, set, tok.Type == token.EOF)
			next.uncached = cur.uncached || set.sawPredicate
			if cacheable && !next.uncached {
				next = d.publish(next)
				next = cur.addEdge(tok.Type, next)
			}
		}
		if next.accept == 0 && next.configs.empty() {
			// Every path died on this token.
			return 0, s.deadEnd(st, next, tok)
		}
		if tok.Type != token.EOF {
			req.Stream.Consume()
		}
		cur = next
	}
}

// startState returns the automaton start state for this decision and outer
// context, computing and publishing it on first use.
func (s *Simulator) startState(st *atn.State, req Request, d *dfa) *dfaState {
	if d != nil {
		if ds := d.s0For(req.Outer); ds != nil {
			return ds
		}
	}

	set := newConfigSet()
	visited := map[configKey]struct{}{}
	for i, t := range st.Transitions() {
		s.seed(set, t, i+1, st, req, visited)
	}
	s.stampPredFailure(set, req.Stream.LT(1))

	ds := s.resolveState(st, set, false)
	// States whose construction consulted a predicate depend on the live
	// rule scope and cannot be shared across invocations.
	ds.uncached = set.sawPredicate
	if d != nil && !ds.uncached {
		ds = d.publishS0(req.Outer, ds)
	}
	return ds
}

// seed starts the closure of one alternative of a decision. Decision states
// only have non-consuming outgoing transitions, so each alternative is an
// epsilon, rule, or predicate edge.
func (s *Simulator) seed(set *configSet, t atn.Transition, alt int, st *atn.State, req Request, visited map[configKey]struct{}) {
	switch t.Kind {
	case atn.TransEpsilon, atn.TransAction:
		s.closure(set, config{state: t.Target, alt: alt, ctx: req.Outer}, st, req, visited)
	case atn.TransRule:
		s.closure(set, config{state: t.Target, alt: alt, ctx: PushContext(req.Outer, t.Follow)}, st, req, visited)
	case atn.TransPredicate:
		if s.gate(set, t.Pred, st, req) {
			s.closure(set, config{state: t.Target, alt: alt, ctx: req.Outer}, st, req, visited)
		}
	default:
		panic(fmt.Sprintf("predict: decision state %d has consuming alternative transition (%v)", st.ID(), t.Kind))
	}
}

// closure adds to set every configuration reachable from c without
// consuming input, applying predicate gating and non-greedy pruning.
func (s *Simulator) closure(set *configSet, c config, st *atn.State, req Request, visited map[configKey]struct{}) {
	k := c.key()
	if _, ok := visited[k]; ok {
		return
	}
	visited[k] = struct{}{}

	g := s.Graph
	state := g.State(c.state)

	if state.Kind() == atn.StateRuleStop {
		// A non-greedy loop never looks past the end of its enclosing
		// rule: a configuration about to fall off that rule is pruned and
		// the crossing recorded, forcing the exit alternative. The summary
		// is compared by value: cached automaton states hold contexts from
		// the prediction that built them, while the driver rebuilds Outer
		// at every decision.
		if st.NonGreedy() && state.Rule() == st.Rule() && c.ctx.Equal(req.Outer) {
			set.crossedStop = true
			return
		}
		if c.ctx == nil {
			// Fell off the outermost rule: viable only at end of input.
			c.atStop = true
			set.add(c)
			return
		}
		s.closure(set, config{state: c.ctx.Follow(), alt: c.alt, ctx: c.ctx.Parent()}, st, req, visited)
		return
	}

	added := false
	for _, t := range state.Transitions() {
		switch t.Kind {
		case atn.TransEpsilon, atn.TransAction:
			s.closure(set, config{state: t.Target, alt: c.alt, ctx: c.ctx}, st, req, visited)
		case atn.TransRule:
			s.closure(set, config{state: t.Target, alt: c.alt, ctx: PushContext(c.ctx, t.Follow)}, st, req, visited)
		case atn.TransPredicate:
			if s.gate(set, t.Pred, st, req) {
				s.closure(set, config{state: t.Target, alt: c.alt, ctx: c.ctx}, st, req, visited)
			}
		default:
			// The state can consume; record the hypothesis once.
			if !added {
				set.add(c)
				added = true
			}
		}
	}
}

// gate evaluates a gating predicate during speculation. A predicate that is
// false or cannot be evaluated discards the configuration; the first such
// failure is remembered for diagnostics.
func (s *Simulator) gate(set *configSet, id atn.PredicateID, st *atn.State, req Request) bool {
	set.sawPredicate = true
	p := s.Graph.Predicate(id)
	ok, err := p.Eval(req.Scope)
	if ok && err == nil {
		return true
	}
	if set.predFailure == nil {
		set.predFailure = &FailedPredicateError{
			Rule:      s.Graph.Rule(st.Rule()).Name(),
			Predicate: p.Text,
			Msg:       p.Msg,
			Err:       err,
		}
	}
	return false
}

// move advances every configuration that matches sym and re-closes the
// result. Configurations resting at a rule stop survive only on EOF.
func (s *Simulator) move(cur *configSet, sym int, st *atn.State, req Request) *configSet {
	next := newConfigSet()
	visited := map[configKey]struct{}{}
	for _, c := range cur.configs {
		if c.atStop {
			if sym == token.EOF {
				next.add(c)
			}
			continue
		}
		for _, t := range s.Graph.State(c.state).Transitions() {
			if !t.Epsilon() && t.Matches(sym, s.Graph.MaxSymbol()) {
				s.closure(next, config{state: t.Target, alt: c.alt, ctx: c.ctx}, st, req, visited)
			}
		}
	}
	s.stampPredFailure(next, req.Stream.LT(1))
	return next
}

func (s *Simulator) stampPredFailure(set *configSet, at token.Token) {
	if set.predFailure != nil && set.predFailure.Pos == (token.Position{}) {
		set.predFailure.Pos = at.Pos
	}
}

// resolveState turns a configuration set into an automaton state, deciding
// whether prediction is finished.
func (s *Simulator) resolveState(st *atn.State, set *configSet, atEOF bool) *dfaState {
	ds := &dfaState{configs: set, predFailure: set.predFailure}
	switch {
	case st.NonGreedy() && set.crossedStop:
		// Deciding further would scan past the end of the enclosing rule;
		// terminate the loop instead.
		ds.accept = st.ExitAlt()
	case atEOF:
		if alts := set.alts(); len(alts) > 0 {
			ds.accept = alts[0]
			if len(alts) > 1 {
				ds.ambiguous = alts
			}
		}
	default:
		ds.accept = set.uniqueAlt()
	}
	return ds
}

func (s *Simulator) reportAmbiguity(st *atn.State, alts []int, startTok, stopTok token.Token) {
	if !s.ReportAmbiguities || s.Handler == nil {
		return
	}
	s.Handler.HandleWarning(&AmbiguityEvent{
		Rule:     s.Graph.Rule(st.Rule()).Name(),
		Decision: st.Decision(),
		Alts:     alts,
		Start:    startTok.Pos,
		Stop:     stopTok.Pos,
	})
}

// deadEnd builds the failure for a prediction whose configurations all died.
func (s *Simulator) deadEnd(st *atn.State, cur *dfaState, offending token.Token) error {
	if pf := cur.predFailure; pf != nil {
		failure := *pf
		if failure.Pos == (token.Position{}) {
			failure.Pos = offending.Pos
		}
		return &failure
	}
	return &NoViableAltError{
		Rule:      s.Graph.Rule(st.Rule()).Name(),
		Decision:  st.Decision(),
		Offending: offending,
	}
}
