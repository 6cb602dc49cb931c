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

package grammartest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/allstar/atn"
	"github.com/bufbuild/allstar/token"
)

func TestLoadAll(t *testing.T) {
	fixtures := LoadAll(t, "testdata/*.yaml")
	for _, name := range []string{"lookahead", "block", "tailloop", "greedy", "expr", "wrapped"} {
		require.Contains(t, fixtures, name)
		require.NotNil(t, fixtures[name].Graph)
	}
}

func TestCompileShapes(t *testing.T) {
	f := Load(t, "testdata/block.yaml")
	g := f.Graph

	require.Len(t, f.Rules, 1)
	rule := g.RuleByName("block")
	require.NotNil(t, rule)
	assert.Equal(t, atn.StateRuleStart, g.State(rule.Start()).Kind())
	assert.Equal(t, atn.StateRuleStop, g.State(rule.Stop()).Kind())

	require.Equal(t, 1, g.NumDecisions())
	d := g.DecisionState(0)
	assert.Equal(t, atn.StateLoopEntry, d.Kind())
	assert.True(t, d.NonGreedy())
	assert.Equal(t, 3, d.NumAlts())
	assert.Equal(t, 3, d.ExitAlt())
}

func TestDecisionHelper(t *testing.T) {
	f := Load(t, "testdata/expr.yaml")
	// expr holds the loop decision, term the alternation.
	exprDec := f.Decision(t, "expr")
	termDec := f.Decision(t, "term")
	assert.NotEqual(t, exprDec, termDec)
	assert.Equal(t, atn.StateLoopEntry, f.Graph.DecisionState(exprDec).Kind())
	assert.Equal(t, atn.StateBlockStart, f.Graph.DecisionState(termDec).Kind())
}

func TestTokens(t *testing.T) {
	f := Load(t, "testdata/lookahead.yaml")
	s := f.Tokens(t, "ID=abc", "INT=34", "ID=de")

	assert.Equal(t, 4, s.Size()) // trailing EOF
	assert.Equal(t, f.Symbols["ID"], s.LA(1))
	assert.Equal(t, "abc", s.LT(1).Text)
	assert.Equal(t, 1, s.LT(1).Pos.Col)
	assert.Equal(t, 5, s.LT(2).Pos.Col)
	assert.Equal(t, token.EOF, s.LA(4))
}

func TestDiff(t *testing.T) {
	assert.Empty(t, Diff("a\nb\n", "a\nb\n"))
	d := Diff("a\nb\n", "a\nc\n")
	assert.Contains(t, d, "-b")
	assert.Contains(t, d, "+c")
}
