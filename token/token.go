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

// Package token defines the token and token stream types consumed by the
// prediction engine. Tokenization itself is out of scope: any lexer that can
// produce a Stream can drive the engine.
package token

import "fmt"

// EOF is the token type that marks the end of a stream. Every Stream yields
// an infinite tail of EOF tokens once its input is exhausted.
const EOF = -1

// Token is a single lexed symbol.
type Token struct {
	// Type is the grammar symbol (token type) id, or EOF.
	Type int
	// Text is the matched input text. Empty for EOF.
	Text string
	// Pos is the position of the token's first character.
	Pos Position
	// Index is the token's ordinal in its stream.
	Index int
}

func (t Token) String() string {
	if t.Type == EOF {
		return "<EOF>"
	}
	return fmt.Sprintf("%q", t.Text)
}

// Stream is a pull-based token source with arbitrary lookahead.
//
// Lookahead never consumes: LA and LT peek relative to the current position,
// and Seek rewinds or fast-forwards to an absolute index. This is the
// mark/rewind surface the prediction simulator uses for speculation. A Stream
// is owned by a single parse and is not safe for concurrent use.
type Stream interface {
	// LA returns the type of the i-th lookahead token. i is 1-based: LA(1)
	// is the current (next unconsumed) token. Past the end it returns EOF.
	LA(i int) int
	// LT returns the i-th lookahead token, 1-based like LA.
	LT(i int) Token
	// Index returns the index of the current token.
	Index() int
	// Seek moves the current position to the given absolute token index.
	Seek(index int)
	// Consume advances past the current token. Consuming at EOF is a no-op.
	Consume()
	// Size returns the total number of tokens, including the trailing EOF.
	Size() int
}

// SliceStream is a Stream over a pre-lexed token slice.
type SliceStream struct {
	tokens []Token
	pos    int
}

var _ Stream = (*SliceStream)(nil)

// NewSliceStream builds a stream over toks, appending a trailing EOF token
// if toks does not already end with one. Token indexes are renumbered to
// match their slice positions.
func NewSliceStream(toks []Token) *SliceStream {
	owned := make([]Token, len(toks), len(toks)+1)
	copy(owned, toks)
	if n := len(owned); n == 0 || owned[n-1].Type != EOF {
		var pos Position
		if n > 0 {
			pos = owned[n-1].Pos
		}
		owned = append(owned, Token{Type: EOF, Pos: pos})
	}
	for i := range owned {
		owned[i].Index = i
	}
	return &SliceStream{tokens: owned}
}

func (s *SliceStream) LA(i int) int {
	return s.LT(i).Type
}

func (s *SliceStream) LT(i int) Token {
	if i < 1 {
		panic(fmt.Sprintf("token: non-positive lookahead %d", i))
	}
	idx := s.pos + i - 1
	if idx >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1] // trailing EOF
	}
	return s.tokens[idx]
}

func (s *SliceStream) Index() int {
	return s.pos
}

func (s *SliceStream) Seek(index int) {
	if index < 0 || index >= len(s.tokens) {
		panic(fmt.Sprintf("token: seek to %d outside stream of %d tokens", index, len(s.tokens)))
	}
	s.pos = index
}

func (s *SliceStream) Consume() {
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
}

func (s *SliceStream) Size() int {
	return len(s.tokens)
}
