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

package reporter_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/allstar/reporter"
	"github.com/bufbuild/allstar/token"
)

func pos(line, col int) token.Position {
	return token.Position{Filename: "test", Line: line, Col: col}
}

func TestErrorWithPos(t *testing.T) {
	underlying := errors.New("something went wrong")
	ewp := reporter.Error(pos(3, 7), underlying)
	assert.Equal(t, "test:3:7: something went wrong", ewp.Error())
	assert.Equal(t, pos(3, 7), ewp.Position())
	assert.Same(t, underlying, errors.Unwrap(ewp))

	ewp = reporter.Errorf(pos(1, 1), "bad %s", "input")
	assert.Equal(t, "test:1:1: bad input", ewp.Error())
}

func TestHandlerFailsFast(t *testing.T) {
	h := reporter.NewHandler(nil)
	require.NoError(t, h.Err())

	first := reporter.Errorf(pos(1, 1), "first")
	assert.Equal(t, first, h.HandleError(first))
	assert.Equal(t, first, h.Err())

	// Once pinned, later reports do not replace the failure.
	second := reporter.Errorf(pos(2, 1), "second")
	assert.Equal(t, first, h.HandleError(second))
	assert.Equal(t, first, h.Err())
}

func TestHandlerSuppressedErrors(t *testing.T) {
	var seen []reporter.ErrorWithPos
	rep := reporter.NewReporter(func(err reporter.ErrorWithPos) error {
		seen = append(seen, err)
		return nil // keep going
	}, nil)
	h := reporter.NewHandler(rep)

	assert.NoError(t, h.HandleError(reporter.Errorf(pos(1, 1), "first")))
	assert.NoError(t, h.HandleError(reporter.Errorf(pos(2, 1), "second")))
	assert.Len(t, seen, 2)

	// Errors were reported even though all were suppressed; the parse still
	// must not be treated as a success.
	require.ErrorIs(t, h.Err(), reporter.ErrInvalidInput)
}

func TestHandlerWrapsBareErrors(t *testing.T) {
	h := reporter.NewHandler(nil)
	err := h.HandleErrorWithPos(pos(4, 2), errors.New("bare"))
	var ewp reporter.ErrorWithPos
	require.ErrorAs(t, err, &ewp)
	assert.Equal(t, pos(4, 2), ewp.Position())
}

func TestHandlerWarnings(t *testing.T) {
	var warned []reporter.ErrorWithPos
	rep := reporter.NewReporter(nil, func(w reporter.ErrorWithPos) { warned = append(warned, w) })
	h := reporter.NewHandler(rep)

	h.HandleWarning(reporter.Errorf(pos(1, 1), "heads up"))
	assert.Len(t, warned, 1)
	assert.NoError(t, h.Err(), "warnings never fail the parse")
}
