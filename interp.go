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
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/bufbuild/allstar/atn"
	"github.com/bufbuild/allstar/predict"
	"github.com/bufbuild/allstar/reporter"
	"github.com/bufbuild/allstar/token"
)

// Interpreter drives parses of token streams against a compiled ATN,
// using adaptive prediction at every decision point.
//
// An Interpreter is safe for concurrent use: any number of streams may be
// parsed at once against the same graph, all sharing one decision automaton
// cache. Each individual parse is single-threaded.
type Interpreter struct {
	// Graph is the grammar's ATN. This field is required.
	Graph *atn.Graph
	// Reporter receives diagnostics. If unspecified, a default reporter is
	// used that fails the parse on the first error and drops warnings.
	Reporter reporter.Reporter
	// ReportAmbiguities surfaces deterministically resolved prediction
	// ambiguities as warnings. Resolution is unaffected either way.
	ReportAmbiguities bool
	// DisableCache turns off the decision automaton cache. Prediction
	// results are identical; only repeated work changes.
	DisableCache bool
	// MaxSteps bounds the lookahead a single prediction may consume before
	// it is aborted; 0 means no bound.
	MaxSteps int
	// MaxParallelism bounds ParseEach. If unspecified or non-positive,
	// min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) is used.
	MaxParallelism int

	initOnce sync.Once
	cache    *predict.Cache
}

// Result is the outcome of a successful parse.
type Result struct {
	// Tree is the interpreter parse tree rooted at the start rule.
	Tree *Tree
	// Returns is the start rule invocation's return-value scope.
	Returns *Scope
}

func (in *Interpreter) sharedCache() *predict.Cache {
	if in.DisableCache {
		return nil
	}
	in.initOnce.Do(func() { in.cache = predict.NewCache() })
	return in.cache
}

// DumpDecision renders the decision automaton built so far for one decision
// as a stable edge list, for debugging and golden-output testing.
func (in *Interpreter) DumpDecision(decision int) string {
	c := in.sharedCache()
	if c == nil {
		return fmt.Sprintf("Decision %d:\n", decision)
	}
	return c.Dump(in.Graph, decision)
}

// Parse parses one token stream starting at the given rule. Grammar-driven
// failures are returned as the typed errors of package predict; internal
// invariant violations panic instead, as they indicate a bug in the engine
// or the grammar compiler rather than bad input.
func (in *Interpreter) Parse(ctx context.Context, stream token.Stream, start atn.RuleID) (*Result, error) {
	h := reporter.NewHandler(in.Reporter)
	sim := &predict.Simulator{
		Graph:             in.Graph,
		Cache:             in.sharedCache(),
		Handler:           h,
		ReportAmbiguities: in.ReportAmbiguities,
		MaxSteps:          in.MaxSteps,
	}
	res, err := in.run(ctx, sim, stream, start)
	if err != nil {
		if ewp, ok := err.(reporter.ErrorWithPos); ok {
			if herr := h.HandleError(ewp); herr != nil {
				return nil, herr
			}
			// The reporter suppressed the error; there is no recovery
			// strategy in the engine, so the parse still fails.
			return nil, h.Err()
		}
		return nil, err
	}
	return res, nil
}

// retSite remembers where a rule invocation resumes in its caller.
type retSite struct {
	follow atn.StateID
	node   *Tree
}

func (in *Interpreter) run(ctx context.Context, sim *predict.Simulator, stream token.Stream, start atn.RuleID) (*Result, error) {
	g := in.Graph
	stack := NewCallStack()

	rule := g.Rule(start)
	rootFrame := stack.Enter(rule)
	root := &Tree{Rule: rule, Returns: rootFrame.Returns()}

	var rets []retSite
	node := root
	cur := rule.Start()
	for {
		st := g.State(cur)
		if st.Kind() == atn.StateRuleStop {
			stack.Exit()
			if len(rets) == 0 {
				return &Result{Tree: root, Returns: rootFrame.Returns()}, nil
			}
			top := rets[len(rets)-1]
			rets = rets[:len(rets)-1]
			cur, node = top.follow, top.node
			continue
		}

		var tr atn.Transition
		if st.Decision() >= 0 {
			alt, err := sim.Predict(ctx, predict.Request{
				Decision: st.ID(),
				Stream:   stream,
				Outer:    outerContext(rets),
				Scope:    stack.Current(),
			})
			if err != nil {
				return nil, err
			}
			tr = st.Transitions()[alt-1]
		} else {
			trs := st.Transitions()
			if len(trs) == 0 {
				panic(fmt.Sprintf("allstar: internal: state %d has no transitions", cur))
			}
			tr = trs[0]
		}

		switch tr.Kind {
		case atn.TransEpsilon:
			cur = tr.Target
		case atn.TransAction:
			// Actions run only here, on the committed path; prediction
			// never executes them.
			g.Action(tr.Action).Do(stack.Current())
			cur = tr.Target
		case atn.TransPredicate:
			// Re-evaluated on the committed path, effects permitted.
			p := g.Predicate(tr.Pred)
			ok, err := p.Eval(stack.Current())
			if err != nil || !ok {
				return nil, &predict.FailedPredicateError{
					Rule:      stack.Current().Rule().Name(),
					Predicate: p.Text,
					Msg:       p.Msg,
					Pos:       stream.LT(1).Pos,
					Err:       err,
				}
			}
			cur = tr.Target
		case atn.TransRule:
			callee := g.Rule(tr.Rule)
			rets = append(rets, retSite{follow: tr.Follow, node: node})
			frame := stack.Enter(callee)
			child := &Tree{Rule: callee, Returns: frame.Returns()}
			node.Children = append(node.Children, child)
			node = child
			cur = tr.Target
		default:
			tok := stream.LT(1)
			if !tr.Matches(tok.Type, g.MaxSymbol()) {
				// A committed path can still mismatch, for example after
				// an ambiguity was resolved by tie-break.
				return nil, &predict.NoViableAltError{
					Rule:      stack.Current().Rule().Name(),
					Decision:  -1,
					Offending: tok,
				}
			}
			stream.Consume()
			node.Children = append(node.Children, tok)
			cur = tr.Target
		}
	}
}

// outerContext summarizes the live invocation stack for the simulator,
// outermost call first.
func outerContext(rets []retSite) *predict.Context {
	var outer *predict.Context
	for _, r := range rets {
		outer = predict.PushContext(outer, r.follow)
	}
	return outer
}

// ParseEach parses several independent streams concurrently against the
// shared decision automaton cache, bounding parallelism the same way as
// one would bound compilation tasks. Results are positional; the first
// parse failure cancels the rest and is returned alongside any results
// that completed.
func (in *Interpreter) ParseEach(ctx context.Context, start atn.RuleID, streams ...token.Stream) ([]*Result, error) {
	if len(streams) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	par := in.MaxParallelism
	if par <= 0 {
		par = runtime.GOMAXPROCS(-1)
		if cpus := runtime.NumCPU(); par > cpus {
			par = cpus
		}
	}
	sem := semaphore.NewWeighted(int64(par))

	results := make([]*Result, len(streams))
	errs := make([]error, len(streams))
	var wg sync.WaitGroup
	for i, s := range streams {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		wg.Add(1)
		go func(i int, s token.Stream) {
			defer wg.Done()
			defer sem.Release(1)
			results[i], errs[i] = in.Parse(ctx, s, start)
			if errs[i] != nil {
				cancel()
			}
		}(i, s)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
