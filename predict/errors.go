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
	"errors"
	"fmt"
	"strings"

	"github.com/bufbuild/allstar/reporter"
	"github.com/bufbuild/allstar/token"
)

// ErrPredictionAborted is returned (wrapped) when a prediction observes
// cancellation or exceeds its step limit between lookahead steps. It is
// propagated to the caller and never retried internally.
var ErrPredictionAborted = errors.New("prediction aborted")

// NoViableAltError reports that every prediction path died: no alternative
// of a decision can match the input. The driver decides whether to attempt
// recovery; the simulator itself never does.
type NoViableAltError struct {
	// Rule is the name of the rule containing the decision.
	Rule string
	// Decision is the decision ordinal within the graph.
	Decision int
	// Offending is the token at which the last configuration died.
	Offending token.Token
}

func (e *NoViableAltError) Error() string {
	return fmt.Sprintf("%s: rule %s: no viable alternative at input %s",
		e.Offending.Pos, e.Rule, e.Offending)
}

func (e *NoViableAltError) Position() token.Position { return e.Offending.Pos }
func (e *NoViableAltError) Unwrap() error            { return nil }

// FailedPredicateError reports that a semantic predicate required to decide
// between alternatives evaluated false, or could not be evaluated at
// prediction time.
type FailedPredicateError struct {
	// Rule is the name of the rule the predicate belongs to.
	Rule string
	// Predicate is the predicate's source text.
	Predicate string
	// Msg is the author-declared failure message, if any.
	Msg string
	// Pos is the input position the predicate was evaluated at.
	Pos token.Position
	// Err is the evaluation error, if the predicate could not be evaluated.
	Err error
}

func (e *FailedPredicateError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = fmt.Sprintf("predicate {%s}? failed", e.Predicate)
	}
	return fmt.Sprintf("%s: rule %s: %s", e.Pos, e.Rule, msg)
}

func (e *FailedPredicateError) Position() token.Position { return e.Pos }
func (e *FailedPredicateError) Unwrap() error            { return e.Err }

// AmbiguityEvent reports that more than one alternative remained viable at
// the end of available lookahead. It is non-fatal: the decision resolves
// deterministically to the lowest surviving alternative, and the event is
// surfaced as a warning when ambiguity reporting is enabled.
type AmbiguityEvent struct {
	// Rule is the name of the rule containing the decision.
	Rule string
	// Decision is the decision ordinal within the graph.
	Decision int
	// Alts are the surviving alternatives, ascending. Alts[0] is the one
	// the decision resolved to.
	Alts []int
	// Start and Stop delimit the input span over which the ambiguity was
	// detected.
	Start, Stop token.Position
}

func (e *AmbiguityEvent) Error() string {
	alts := make([]string, len(e.Alts))
	for i, a := range e.Alts {
		alts[i] = fmt.Sprintf("%d", a)
	}
	return fmt.Sprintf("%s: rule %s: ambiguous alternatives {%s}, resolving to %d",
		e.Start, e.Rule, strings.Join(alts, ", "), e.Alts[0])
}

func (e *AmbiguityEvent) Position() token.Position { return e.Start }
func (e *AmbiguityEvent) Unwrap() error            { return nil }

var (
	_ reporter.ErrorWithPos = (*NoViableAltError)(nil)
	_ reporter.ErrorWithPos = (*FailedPredicateError)(nil)
	_ reporter.ErrorWithPos = (*AmbiguityEvent)(nil)
)
