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

package atn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/allstar/atn"
	"github.com/bufbuild/allstar/internal/symset"
	"github.com/bufbuild/allstar/token"
)

func TestBuildSimpleRule(t *testing.T) {
	b := atn.NewBuilder("ID", "INT")
	r := b.Rule("s")
	mid := b.State(r, atn.StateBasic)
	b.Atom(b.Start(r), mid, 0)
	b.Epsilon(mid, b.Stop(r))
	g, err := b.Finish()
	require.NoError(t, err)

	rule := g.RuleByName("s")
	require.NotNil(t, rule)
	assert.Equal(t, r, rule.ID())
	assert.Equal(t, "s", rule.Name())
	assert.Equal(t, atn.StateRuleStart, g.State(rule.Start()).Kind())
	assert.Equal(t, atn.StateRuleStop, g.State(rule.Stop()).Kind())
	assert.Equal(t, 0, g.NumDecisions())
	assert.Equal(t, 1, g.NumRules())
	assert.Equal(t, 1, g.MaxSymbol())
	assert.Equal(t, "INT", g.SymbolName(1))
	assert.Equal(t, "EOF", g.SymbolName(token.EOF))

	start := g.State(rule.Start())
	require.Len(t, start.Transitions(), 1)
	tr := start.Transitions()[0]
	assert.Equal(t, atn.TransAtom, tr.Kind)
	assert.Equal(t, 0, tr.Symbol)
	assert.Equal(t, mid, tr.Target)
	assert.Equal(t, -1, start.Decision())
}

func TestBuildDecision(t *testing.T) {
	b := atn.NewBuilder("ID", "INT")
	r := b.Rule("s")
	d := b.Decision(r, atn.StateBlockStart)
	b.Epsilon(b.Start(r), d)
	for sym := range 2 {
		entry := b.State(r, atn.StateBasic)
		b.Epsilon(d, entry)
		next := b.State(r, atn.StateBasic)
		b.Atom(entry, next, sym)
		b.Epsilon(next, b.Stop(r))
	}
	g, err := b.Finish()
	require.NoError(t, err)

	require.Equal(t, 1, g.NumDecisions())
	ds := g.DecisionState(0)
	assert.Equal(t, d, ds.ID())
	assert.Equal(t, 0, ds.Decision())
	assert.Equal(t, 2, ds.NumAlts())
	assert.False(t, ds.NonGreedy())
}

func TestBuildNonGreedyLoop(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	entry := b.Decision(r, atn.StateLoopEntry)
	b.Epsilon(b.Start(r), entry)
	body := b.State(r, atn.StateBasic)
	b.Epsilon(entry, body)
	consumed := b.State(r, atn.StateBasic)
	b.Wildcard(body, consumed)
	back := b.State(r, atn.StateLoopBack)
	b.Epsilon(consumed, back)
	b.Epsilon(back, entry)
	end := b.State(r, atn.StateLoopEnd)
	b.Epsilon(entry, end)
	b.Epsilon(end, b.Stop(r))
	b.MarkNonGreedy(entry, 2)
	g, err := b.Finish()
	require.NoError(t, err)

	ds := g.DecisionState(0)
	assert.True(t, ds.NonGreedy())
	assert.Equal(t, 2, ds.ExitAlt())
	assert.Equal(t, atn.StateLoopEntry, ds.Kind())
}

func TestBuildAttrs(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	b.SetLocals(r, atn.AttrDecl{Name: "depth"})
	b.SetReturns(r, atn.AttrDecl{Name: "out", Default: func() any { return "x" }})
	b.Epsilon(b.Start(r), b.Stop(r))
	g, err := b.Finish()
	require.NoError(t, err)

	rule := g.Rule(r)
	require.Len(t, rule.Locals(), 1)
	assert.Equal(t, "depth", rule.Locals()[0].Name)
	require.Len(t, rule.Returns(), 1)
	assert.Equal(t, "x", rule.Returns()[0].Default())
}

func TestFinishRejectsOneAltDecision(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	d := b.Decision(r, atn.StateBlockStart)
	b.Epsilon(b.Start(r), d)
	b.Epsilon(d, b.Stop(r))
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alternatives")
}

func TestFinishRejectsConsumingDecisionAlt(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	d := b.Decision(r, atn.StateBlockStart)
	b.Epsilon(b.Start(r), d)
	b.Epsilon(d, b.Stop(r))
	mid := b.State(r, atn.StateBasic)
	b.Atom(d, mid, 0) // alternatives must not consume directly
	b.Epsilon(mid, b.Stop(r))
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-consuming")
}

func TestBuilderRejectsStopTransition(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	b.Epsilon(b.Start(r), b.Stop(r))
	b.Epsilon(b.Stop(r), b.Start(r))
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop state")
}

func TestFinishRejectsForkWithoutDecision(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	mid := b.State(r, atn.StateBasic)
	b.Epsilon(b.Start(r), mid)
	b.Epsilon(mid, b.Stop(r))
	b.Epsilon(mid, b.Stop(r))
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a decision")
}

func TestMarkNonGreedyRejectsNonDecision(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	b.Epsilon(b.Start(r), b.Stop(r))
	b.MarkNonGreedy(b.Start(r), 1)
	_, err := b.Finish()
	require.Error(t, err)
}

func TestFinishRejectsExitAltOutOfRange(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	d := b.Decision(r, atn.StateLoopEntry)
	b.Epsilon(b.Start(r), d)
	b.Epsilon(d, b.Stop(r))
	b.Epsilon(d, b.Stop(r))
	b.MarkNonGreedy(d, 3)
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestFinishRejectsCrossRuleTransition(t *testing.T) {
	b := atn.NewBuilder("ID")
	r1 := b.Rule("a")
	r2 := b.Rule("b")
	b.Epsilon(b.Start(r1), b.Stop(r2))
	b.Epsilon(b.Start(r2), b.Stop(r2))
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-invocation transition")
}

func TestInvokeUnknownRule(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	b.Invoke(b.Start(r), atn.RuleID(7), b.Stop(r))
	_, err := b.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule")
}

func TestBuilderRejectsUseAfterFinish(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	b.Epsilon(b.Start(r), b.Stop(r))
	g, err := b.Finish()
	require.NoError(t, err)

	// The builder shares the graph's storage; once finished, every mutator
	// is inert and the graph stays as built.
	states := g.NumStates()
	assert.Equal(t, atn.InvalidState, b.State(r, atn.StateBasic))
	b.Epsilon(b.Start(r), b.Stop(r))
	b.SetLocals(r, atn.AttrDecl{Name: "late"})
	assert.Equal(t, states, g.NumStates())
	assert.Len(t, g.State(g.Rule(r).Start()).Transitions(), 1)
	assert.Empty(t, g.Rule(r).Locals())
}

func TestFinishTwice(t *testing.T) {
	b := atn.NewBuilder("ID")
	r := b.Rule("s")
	b.Epsilon(b.Start(r), b.Stop(r))
	_, err := b.Finish()
	require.NoError(t, err)
	_, err = b.Finish()
	require.Error(t, err)
}

func TestTransitionEpsilon(t *testing.T) {
	assert.True(t, atn.Transition{Kind: atn.TransEpsilon}.Epsilon())
	assert.True(t, atn.Transition{Kind: atn.TransRule}.Epsilon())
	assert.True(t, atn.Transition{Kind: atn.TransPredicate}.Epsilon())
	assert.True(t, atn.Transition{Kind: atn.TransAction}.Epsilon())
	assert.False(t, atn.Transition{Kind: atn.TransAtom}.Epsilon())
	assert.False(t, atn.Transition{Kind: atn.TransWildcard}.Epsilon())
}

func TestTransitionMatches(t *testing.T) {
	const maxSym = 5

	atom := atn.Transition{Kind: atn.TransAtom, Symbol: 2}
	assert.True(t, atom.Matches(2, maxSym))
	assert.False(t, atom.Matches(3, maxSym))

	rng := atn.Transition{Kind: atn.TransRange, Lo: 1, Hi: 3}
	assert.True(t, rng.Matches(1, maxSym))
	assert.True(t, rng.Matches(3, maxSym))
	assert.False(t, rng.Matches(4, maxSym))

	set := atn.Transition{Kind: atn.TransSet, Set: symset.Of[int32](0, 4)}
	assert.True(t, set.Matches(4, maxSym))
	assert.False(t, set.Matches(1, maxSym))

	not := atn.Transition{Kind: atn.TransNotSet, Set: symset.Of[int32](0, 4)}
	assert.True(t, not.Matches(1, maxSym))
	assert.False(t, not.Matches(4, maxSym))
	assert.False(t, not.Matches(token.EOF, maxSym), "negated sets never match EOF")
	assert.False(t, not.Matches(maxSym+1, maxSym), "negated sets stay within the alphabet")

	wild := atn.Transition{Kind: atn.TransWildcard}
	assert.True(t, wild.Matches(0, maxSym))
	assert.False(t, wild.Matches(token.EOF, maxSym))

	eps := atn.Transition{Kind: atn.TransEpsilon}
	assert.False(t, eps.Matches(0, maxSym))
}
