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

// PredicateID references a predicate in a graph's predicate table.
type PredicateID int32

// ActionID references an action in a graph's action table.
type ActionID int32

// PredicateScope is read access to the locals and returns of the rule
// invocation a predicate is evaluated in. Prediction evaluates predicates
// speculatively, so evaluation through this interface must not mutate the
// underlying scopes.
type PredicateScope interface {
	// Local returns the named local's current value, or nil if the rule
	// declares no such local.
	Local(name string) any
	// Return returns the named return value's current value, or nil if the
	// rule declares no such return.
	Return(name string) any
}

// ActionScope extends PredicateScope with mutation, for actions and for
// predicates re-evaluated on a committed path.
type ActionScope interface {
	PredicateScope
	SetLocal(name string, value any)
	SetReturn(name string, value any)
}

// Predicate is a semantic guard attached to a transition, supplied by the
// grammar compiler as an opaque evaluable unit plus its source text.
type Predicate struct {
	// Text is the predicate's source text, for diagnostics.
	Text string
	// Msg is the author-declared failure message, if any.
	Msg string
	// Eval evaluates the predicate against the active rule invocation.
	// A non-nil error means the predicate cannot be evaluated at this time
	// (for example, it references state unavailable during prediction).
	Eval func(scope PredicateScope) (bool, error)
}

// Action is a grammar action attached to a transition. Actions never run
// during prediction; the driver executes them once the path is committed.
type Action struct {
	// Text is the action's source text, for diagnostics.
	Text string
	// Do runs the action against the active rule invocation.
	Do func(scope ActionScope)
}

// AttrDecl declares a named attribute in a rule's locals or returns scope.
type AttrDecl struct {
	Name string
	// Default produces the attribute's initial value. It is invoked fresh
	// for every rule invocation so mutable defaults are never shared across
	// sibling or recursive calls. A nil Default yields nil.
	Default func() any
}
