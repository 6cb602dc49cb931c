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

// Package reporter collects positioned diagnostics produced by the
// prediction engine. The engine only structures diagnostics; rendering them
// as text is the embedding harness's concern.
package reporter

import (
	"sync"

	"github.com/bufbuild/allstar/token"
)

// ErrorReporter handles an error diagnostic. If it returns a non-nil error,
// the parse aborts with that error. If it returns nil, the parse continues,
// letting the driver surface as many failures as it can find.
type ErrorReporter func(err ErrorWithPos) error

// WarningReporter handles a non-fatal diagnostic, such as an ambiguity that
// was resolved deterministically but is still worth surfacing. The details
// are supplied via an error type, though the parse is not failing.
type WarningReporter func(ErrorWithPos)

// Reporter receives diagnostics from a parse.
type Reporter interface {
	Error(ErrorWithPos) error
	Warning(ErrorWithPos)
}

// NewReporter builds a Reporter from the two callbacks. Either may be nil:
// a nil errs fails the parse on the first error, and a nil warnings drops
// warnings.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithPos) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler wraps a Reporter with the bookkeeping a parse needs: it remembers
// whether any error was reported and pins the first aborting error so that
// later reports are ignored.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler creates a Handler. With a nil rep, the handler fails on the
// first reported error and discards warnings.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleError reports an error diagnostic. The returned error is non-nil if
// the parse should abort.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	if ewp, ok := err.(ErrorWithPos); ok {
		h.errsReported = true
		err = h.reporter.Error(ewp)
	}
	h.err = err
	return err
}

// HandleErrorWithPos reports an error at the given position, wrapping err if
// it does not already carry a position.
func (h *Handler) HandleErrorWithPos(pos token.Position, err error) error {
	if _, ok := err.(ErrorWithPos); !ok {
		err = Error(pos, err)
	}
	return h.HandleError(err)
}

// HandleWarning reports a non-fatal diagnostic.
func (h *Handler) HandleWarning(ewp ErrorWithPos) {
	// No lock: warnings do not interact with the mutable fields.
	h.reporter.Warning(ewp)
}

// Err returns the error that the parse should fail with, if any. If errors
// were reported but every one was suppressed by the reporter, a sentinel is
// returned so the failure is still observable.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidInput
	}
	return h.err
}
