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

import "github.com/bufbuild/allstar/atn"

// Context is an immutable summary of the rule invocation stack: the chain
// of states prediction returns to as rules complete. Contexts form shared
// linked lists, so configurations at different call depths share common
// suffixes instead of copying whole stacks.
//
// A nil *Context is the empty summary: prediction began in the outermost
// rule and nothing follows it but end of input.
type Context struct {
	parent *Context
	follow atn.StateID
	hash   uint64
}

// PushContext returns parent extended with one more return site.
func PushContext(parent *Context, follow atn.StateID) *Context {
	h := uint64(14695981039346656037)
	if parent != nil {
		h = parent.hash
	}
	// FNV-style mix of the new follow state into the parent hash.
	h ^= uint64(uint32(follow))
	h *= 1099511628211
	return &Context{parent: parent, follow: follow, hash: h}
}

// Parent returns the summary with the top return site removed.
func (c *Context) Parent() *Context { return c.parent }

// Follow returns the state prediction resumes at when the current rule's
// stop state is reached.
func (c *Context) Follow() atn.StateID { return c.follow }

// Hash returns a hash of the whole chain. Equal chains hash equal.
func (c *Context) Hash() uint64 {
	if c == nil {
		return 0
	}
	return c.hash
}

// Equal reports whether two summaries describe the same chain of return
// sites.
func (c *Context) Equal(other *Context) bool {
	for c != other {
		if c == nil || other == nil || c.hash != other.hash || c.follow != other.follow {
			return false
		}
		c, other = c.parent, other.parent
	}
	return true
}

// Depth returns the number of return sites in the chain.
func (c *Context) Depth() int {
	var n int
	for ; c != nil; c = c.parent {
		n++
	}
	return n
}
