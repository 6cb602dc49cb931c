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

// Package allstar is the adaptive prediction core of a grammar
// interpreter: given a grammar compiled into an augmented transition
// network (package atn), it decides which alternative to take at every
// decision point by simulating lookahead over the graph (package predict),
// resolves non-greedy repetition without unbounded lookahead, evaluates
// semantic predicates in the correct rule invocation context, and reports
// failures with precise source positions (package reporter).
//
// The engine deliberately does not compile grammars, tokenize input, or
// recover from errors. A grammar compiler constructs the graph through
// atn.Builder; a lexer supplies a token.Stream; the Interpreter in this
// package ties the pieces together, walking the graph, maintaining the
// rule invocation stack, and consulting the prediction simulator at each
// decision:
//
//	engine := &allstar.Interpreter{Graph: graph}
//	result, err := engine.Parse(ctx, stream, startRule)
//
// One Interpreter may parse any number of streams concurrently; everything
// learned about a decision is cached in a shared decision automaton and
// reused by later predictions.
package allstar
