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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/allstar/atn"
)

// Start-state lookups confirm the whole outer context, not just its hash:
// a colliding hash must read as a miss, never as another call stack's
// automaton.
func TestStartStateLookupChecksContext(t *testing.T) {
	d := &dfa{s0: map[uint64]*dfaState{}, states: map[string]*dfaState{}}

	a := PushContext(nil, 7)
	setA := newConfigSet()
	setA.add(config{state: 1, alt: 1, ctx: a})
	ds := d.publishS0(a, &dfaState{configs: setA})
	assert.Same(t, ds, d.s0For(a))
	assert.Same(t, ds, d.s0For(PushContext(nil, 7)), "equal chains share the start state")

	// Forge a chain with the same hash but a different return site.
	collide := &Context{follow: 9, hash: a.Hash()}
	require.Equal(t, a.Hash(), collide.Hash())
	assert.Nil(t, d.s0For(collide))

	setB := newConfigSet()
	setB.add(config{state: 2, alt: 1, ctx: collide})
	other := d.publishS0(collide, &dfaState{configs: setB})
	assert.NotSame(t, ds, other)
	assert.Same(t, ds, d.s0For(a), "the published state survives the collision")
	assert.Nil(t, d.s0For(collide), "the colliding chain stays a cache miss")
}

func TestContextChain(t *testing.T) {
	var outer *Context
	assert.Equal(t, uint64(0), outer.Hash())
	assert.Equal(t, 0, outer.Depth())

	c1 := PushContext(outer, 3)
	c2 := PushContext(c1, 7)
	assert.Equal(t, atn.StateID(7), c2.Follow())
	assert.Same(t, c1, c2.Parent())
	assert.Equal(t, 2, c2.Depth())
	assert.NotZero(t, c1.Hash())
	assert.NotEqual(t, c1.Hash(), c2.Hash())
}

func TestContextEqual(t *testing.T) {
	a := PushContext(PushContext(nil, 3), 7)
	b := PushContext(PushContext(nil, 3), 7)
	c := PushContext(PushContext(nil, 4), 7)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	var empty *Context
	assert.True(t, empty.Equal(nil))
}

func TestConfigSetDedupe(t *testing.T) {
	s := newConfigSet()
	assert.True(t, s.empty())

	assert.True(t, s.add(config{state: 1, alt: 2}))
	assert.False(t, s.add(config{state: 1, alt: 2}), "duplicate config")
	assert.True(t, s.add(config{state: 1, alt: 1}))
	assert.True(t, s.add(config{state: 1, alt: 2, atStop: true}), "stop flag distinguishes configs")
	assert.True(t, s.add(config{state: 1, alt: 2, ctx: PushContext(nil, 5)}), "context distinguishes configs")
	assert.False(t, s.empty())

	assert.Equal(t, []int{1, 2}, s.alts())
	assert.Equal(t, 0, s.uniqueAlt())
	assert.Equal(t, []int{2}, s.stopAlts())
}

func TestConfigSetUniqueAlt(t *testing.T) {
	s := newConfigSet()
	s.add(config{state: 1, alt: 3})
	s.add(config{state: 2, alt: 3})
	assert.Equal(t, 3, s.uniqueAlt())
}

func TestConfigSetLabel(t *testing.T) {
	a := newConfigSet()
	a.add(config{state: 1, alt: 1})
	a.add(config{state: 2, alt: 2})

	b := newConfigSet()
	b.add(config{state: 2, alt: 2})
	b.add(config{state: 1, alt: 1})

	assert.Equal(t, a.label(), b.label(), "label is insertion-order independent")

	c := newConfigSet()
	c.add(config{state: 1, alt: 1})
	c.add(config{state: 2, alt: 2})
	c.crossedStop = true
	assert.NotEqual(t, a.label(), c.label(), "loop termination is part of state identity")
}
