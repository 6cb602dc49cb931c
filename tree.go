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
	"strings"

	"github.com/bufbuild/allstar/atn"
	"github.com/bufbuild/allstar/token"
)

// Tree is an interpreter parse tree node: one rule invocation and, in match
// order, the tokens it consumed and the rules it invoked.
type Tree struct {
	// Rule is the rule this node is an invocation of.
	Rule *atn.Rule
	// Children holds token.Token leaves and *Tree subtrees, interleaved in
	// the order they were matched.
	Children []any
	// Returns is the invocation's return-value scope as left by the rule's
	// actions.
	Returns *Scope
}

// String renders the tree in LISP-style form: (rule child ...), with token
// leaves rendered as their text.
func (t *Tree) String() string {
	var sb strings.Builder
	t.render(&sb)
	return sb.String()
}

func (t *Tree) render(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(t.Rule.Name())
	for _, c := range t.Children {
		sb.WriteByte(' ')
		switch c := c.(type) {
		case token.Token:
			sb.WriteString(c.Text)
		case *Tree:
			c.render(sb)
		}
	}
	sb.WriteByte(')')
}
