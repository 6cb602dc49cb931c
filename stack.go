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

package allstar

import (
	"fmt"

	"github.com/petermattis/goid"

	"github.com/bufbuild/allstar/atn"
)

// Scope is a named attribute scope: the locals or returns of one rule
// invocation. Attribute names are fixed by the rule's declarations; values
// are freely mutable by actions.
type Scope struct {
	names []string
	vals  map[string]any
}

func newScope(decls []atn.AttrDecl) *Scope {
	s := &Scope{vals: make(map[string]any, len(decls))}
	for _, d := range decls {
		s.names = append(s.names, d.Name)
		if d.Default != nil {
			// Defaults are evaluated fresh per invocation so mutable
			// values never leak between sibling or recursive calls.
			s.vals[d.Name] = d.Default()
		} else {
			s.vals[d.Name] = nil
		}
	}
	return s
}

// Names returns the declared attribute names in declaration order.
func (s *Scope) Names() []string { return s.names }

// Has reports whether the scope declares name.
func (s *Scope) Has(name string) bool {
	_, ok := s.vals[name]
	return ok
}

// Get returns the named attribute's value, or nil if undeclared.
func (s *Scope) Get(name string) any { return s.vals[name] }

// Set updates the named attribute. Setting an undeclared attribute is a
// grammar-compiler bug, not an input error, and panics.
func (s *Scope) Set(name string, value any) {
	if !s.Has(name) {
		panic(fmt.Sprintf("allstar: internal: set of undeclared attribute %q", name))
	}
	s.vals[name] = value
}

// Frame is one rule invocation: its locals and its accumulating returns.
// A frame is owned exclusively by its stack entry; it is never aliased
// across sibling invocations.
type Frame struct {
	rule    *atn.Rule
	locals  *Scope
	returns *Scope
}

func (f *Frame) Rule() *atn.Rule { return f.rule }

// Locals returns the invocation's local scope. It becomes unreachable once
// the frame is exited.
func (f *Frame) Locals() *Scope { return f.locals }

// Returns returns the invocation's return-value scope, which the caller
// reads after the rule returns.
func (f *Frame) Returns() *Scope { return f.returns }

// Local and Return implement atn.PredicateScope.
func (f *Frame) Local(name string) any  { return f.locals.Get(name) }
func (f *Frame) Return(name string) any { return f.returns.Get(name) }

// SetLocal and SetReturn implement atn.ActionScope.
func (f *Frame) SetLocal(name string, value any)  { f.locals.Set(name, value) }
func (f *Frame) SetReturn(name string, value any) { f.returns.Set(name, value) }

var _ atn.ActionScope = (*Frame)(nil)

// CallStack mirrors rule entry and exit during a parse. A parse is
// single-threaded; the stack records its owning goroutine and panics if
// another goroutine touches it, since that always indicates a misuse of the
// engine rather than an input error.
type CallStack struct {
	frames []*Frame
	owner  int64
}

// NewCallStack returns an empty stack owned by the calling goroutine.
func NewCallStack() *CallStack {
	return &CallStack{owner: goid.Get()}
}

func (cs *CallStack) checkOwner() {
	if id := goid.Get(); id != cs.owner {
		panic(fmt.Sprintf("allstar: internal: call stack owned by goroutine %d used from goroutine %d", cs.owner, id))
	}
}

// Enter pushes a fresh frame for an invocation of rule, initializing its
// locals and returns from the rule's declared defaults.
func (cs *CallStack) Enter(rule *atn.Rule) *Frame {
	cs.checkOwner()
	f := &Frame{
		rule:    rule,
		locals:  newScope(rule.Locals()),
		returns: newScope(rule.Returns()),
	}
	cs.frames = append(cs.frames, f)
	return f
}

// Exit pops the top frame and returns it so the caller can read its
// returns scope. Exiting an empty stack is an internal-consistency failure
// and panics.
func (cs *CallStack) Exit() *Frame {
	cs.checkOwner()
	if len(cs.frames) == 0 {
		panic("allstar: internal: rule stack underflow")
	}
	f := cs.frames[len(cs.frames)-1]
	cs.frames[len(cs.frames)-1] = nil
	cs.frames = cs.frames[:len(cs.frames)-1]
	return f
}

// Current returns the active frame, or nil if the stack is empty.
func (cs *CallStack) Current() *Frame {
	cs.checkOwner()
	if len(cs.frames) == 0 {
		return nil
	}
	return cs.frames[len(cs.frames)-1]
}

// Depth returns the number of live frames.
func (cs *CallStack) Depth() int { return len(cs.frames) }
