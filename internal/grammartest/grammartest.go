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

// Package grammartest loads grammar fixtures for tests. A fixture is a
// YAML file describing a small grammar as nested rule elements; the loader
// compiles it into an ATN through the public builder, the same way a
// grammar compiler would.
package grammartest

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/allstar/atn"
	"github.com/bufbuild/allstar/token"
)

// Fixture is a compiled grammar fixture.
type Fixture struct {
	Name    string
	Graph   *atn.Graph
	Symbols map[string]int
	Rules   map[string]atn.RuleID
}

type fixtureFile struct {
	Name    string    `yaml:"name"`
	Symbols []string  `yaml:"symbols"`
	Rules   []ruleDef `yaml:"rules"`
}

type ruleDef struct {
	Name string    `yaml:"name"`
	Body []element `yaml:"body"`
}

// element is one grammar element. Exactly one field group should be set.
type element struct {
	Atom     string      `yaml:"atom"`
	Set      []string    `yaml:"set"`
	NotSet   []string    `yaml:"notset"`
	Wildcard bool        `yaml:"wildcard"`
	Rule     string      `yaml:"rule"`
	Alt      [][]element `yaml:"alt"`
	Star     *loopDef    `yaml:"star"`
}

type loopDef struct {
	NonGreedy bool        `yaml:"nongreedy"`
	Alts      [][]element `yaml:"alts"`
}

// Load reads and compiles one fixture file.
func Load(t *testing.T, path string) *Fixture {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading fixture %s", path)

	var file fixtureFile
	require.NoError(t, yaml.Unmarshal(data, &file), "parsing fixture %s", path)

	f, err := compile(&file)
	require.NoError(t, err, "compiling fixture %s", path)
	return f
}

// LoadAll loads every fixture matching a doublestar glob, keyed by name.
func LoadAll(t *testing.T, pattern string) map[string]*Fixture {
	t.Helper()

	paths, err := doublestar.FilepathGlob(pattern)
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no fixtures match %q", pattern)

	out := make(map[string]*Fixture, len(paths))
	for _, p := range paths {
		f := Load(t, p)
		require.NotContains(t, out, f.Name, "duplicate fixture name %q", f.Name)
		out[f.Name] = f
	}
	return out
}

func compile(file *fixtureFile) (*Fixture, error) {
	f := &Fixture{
		Name:    file.Name,
		Symbols: map[string]int{},
		Rules:   map[string]atn.RuleID{},
	}
	for i, s := range file.Symbols {
		f.Symbols[s] = i
	}

	c := &compiler{f: f, b: atn.NewBuilder(file.Symbols...)}
	// Declare every rule first so bodies can reference each other.
	for _, r := range file.Rules {
		f.Rules[r.Name] = c.b.Rule(r.Name)
	}
	for _, r := range file.Rules {
		id := f.Rules[r.Name]
		c.rule = id
		exit, err := c.seq(c.b.Start(id), r.Body)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		c.b.Epsilon(exit, c.b.Stop(id))
	}

	g, err := c.b.Finish()
	if err != nil {
		return nil, err
	}
	f.Graph = g
	return f, nil
}

type compiler struct {
	f    *Fixture
	b    *atn.Builder
	rule atn.RuleID
}

// seq chains a sequence of elements starting at from and returns the state
// the sequence leaves control in.
func (c *compiler) seq(from atn.StateID, elems []element) (atn.StateID, error) {
	cur := from
	for i := range elems {
		next, err := c.element(cur, &elems[i])
		if err != nil {
			return atn.InvalidState, err
		}
		cur = next
	}
	return cur, nil
}

func (c *compiler) element(from atn.StateID, e *element) (atn.StateID, error) {
	b := c.b
	switch {
	case e.Atom != "":
		sym, ok := c.f.Symbols[e.Atom]
		if !ok {
			return atn.InvalidState, fmt.Errorf("unknown symbol %q", e.Atom)
		}
		to := b.State(c.rule, atn.StateBasic)
		b.Atom(from, to, sym)
		return to, nil
	case len(e.Set) > 0:
		syms, err := c.symbols(e.Set)
		if err != nil {
			return atn.InvalidState, err
		}
		to := b.State(c.rule, atn.StateBasic)
		b.Set(from, to, syms...)
		return to, nil
	case len(e.NotSet) > 0:
		syms, err := c.symbols(e.NotSet)
		if err != nil {
			return atn.InvalidState, err
		}
		to := b.State(c.rule, atn.StateBasic)
		b.NotSet(from, to, syms...)
		return to, nil
	case e.Wildcard:
		to := b.State(c.rule, atn.StateBasic)
		b.Wildcard(from, to)
		return to, nil
	case e.Rule != "":
		callee, ok := c.f.Rules[e.Rule]
		if !ok {
			return atn.InvalidState, fmt.Errorf("unknown rule %q", e.Rule)
		}
		follow := b.State(c.rule, atn.StateBasic)
		b.Invoke(from, callee, follow)
		return follow, nil
	case len(e.Alt) > 0:
		return c.block(from, e.Alt)
	case e.Star != nil:
		return c.star(from, e.Star)
	}
	return atn.InvalidState, fmt.Errorf("empty element")
}

// block compiles (a | b | ...) as a block-start decision whose alternatives
// all converge on a shared block end.
func (c *compiler) block(from atn.StateID, alts [][]element) (atn.StateID, error) {
	b := c.b
	d := b.Decision(c.rule, atn.StateBlockStart)
	b.Epsilon(from, d)
	end := b.State(c.rule, atn.StateBlockEnd)
	for _, alt := range alts {
		entry := b.State(c.rule, atn.StateBasic)
		b.Epsilon(d, entry)
		exit, err := c.seq(entry, alt)
		if err != nil {
			return atn.InvalidState, err
		}
		b.Epsilon(exit, end)
	}
	return end, nil
}

// star compiles (a | b | ...)* as a loop-entry decision: one alternative per
// loop body, each wrapping back to the entry, plus a final exit alternative.
func (c *compiler) star(from atn.StateID, loop *loopDef) (atn.StateID, error) {
	b := c.b
	entry := b.Decision(c.rule, atn.StateLoopEntry)
	b.Epsilon(from, entry)
	for _, alt := range loop.Alts {
		altEntry := b.State(c.rule, atn.StateBasic)
		b.Epsilon(entry, altEntry)
		exit, err := c.seq(altEntry, alt)
		if err != nil {
			return atn.InvalidState, err
		}
		back := b.State(c.rule, atn.StateLoopBack)
		b.Epsilon(exit, back)
		b.Epsilon(back, entry)
	}
	end := b.State(c.rule, atn.StateLoopEnd)
	b.Epsilon(entry, end)
	if loop.NonGreedy {
		b.MarkNonGreedy(entry, len(loop.Alts)+1)
	}
	return end, nil
}

func (c *compiler) symbols(names []string) ([]int, error) {
	syms := make([]int, len(names))
	for i, n := range names {
		sym, ok := c.f.Symbols[n]
		if !ok {
			return nil, fmt.Errorf("unknown symbol %q", n)
		}
		syms[i] = sym
	}
	return syms, nil
}

// Decision returns the decision ordinal of the sole decision inside the
// named rule, which is how most fixtures address the decision under test.
func (f *Fixture) Decision(t *testing.T, rule string) int {
	t.Helper()
	r, ok := f.Rules[rule]
	require.True(t, ok, "unknown rule %q", rule)

	found := -1
	for d := range f.Graph.NumDecisions() {
		if f.Graph.DecisionState(d).Rule() == r {
			require.Equal(t, -1, found, "rule %q has more than one decision", rule)
			found = d
		}
	}
	require.NotEqual(t, -1, found, "rule %q has no decision", rule)
	return found
}

// Tokens builds a stream from symbol entries. Each entry is a symbol name,
// optionally with display text after an equals sign ("ID=abc"). Positions
// are synthesized on line 1 with one space between tokens.
func (f *Fixture) Tokens(t *testing.T, entries ...string) *token.SliceStream {
	t.Helper()
	toks := make([]token.Token, len(entries))
	col, offset := 1, 0
	for i, e := range entries {
		name, text, ok := strings.Cut(e, "=")
		if !ok {
			text = name
		}
		sym, known := f.Symbols[name]
		require.True(t, known, "unknown symbol %q in token entry %q", name, e)
		toks[i] = token.Token{
			Type: sym,
			Text: text,
			Pos:  token.Position{Filename: "test", Line: 1, Col: col, Offset: offset},
		}
		col += len(text) + 1
		offset += len(text) + 1
	}
	return token.NewSliceStream(toks)
}

// Diff renders a unified diff of two multi-line strings, for golden-output
// assertions whose failure message should show exactly what moved.
func Diff(want, got string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("diff failed: %v", err)
	}
	return diff
}
