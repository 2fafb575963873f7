// Copyright 2025 The fusetranslator Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package coro_test

import (
	"testing"

	"github.com/fspgo/fusetranslator/coro"
	"github.com/stretchr/testify/assert"
)

// TestEnterRunsToCompletionWithoutYielding exercises a frame that never
// suspends: Enter should drain it in one call.
func TestEnterRunsToCompletionWithoutYielding(t *testing.T) {
	var s coro.Stack
	root := func(resume any) coro.Outcome {
		return coro.Exit()
	}

	signal := s.Enter(root, nil)
	assert.Equal(t, coro.Finished, signal)
	assert.True(t, s.Done())
}

// TestEnterYieldsAndResumes exercises a two-step frame: it yields once,
// then on resumption observes the value delivered and finishes.
func TestEnterYieldsAndResumes(t *testing.T) {
	var s coro.Stack
	var observed any

	var second coro.Step
	second = func(resume any) coro.Outcome {
		observed = resume
		return coro.Exit()
	}
	root := func(resume any) coro.Outcome {
		return coro.Yield(second)
	}

	signal := s.Enter(root, nil)
	assert.Equal(t, coro.Yielded, signal)
	assert.Equal(t, 1, s.Depth())

	signal = s.Enter(root, "response")
	assert.Equal(t, coro.Finished, signal)
	assert.Equal(t, "response", observed)
	assert.True(t, s.Done())
}

// TestAwaitSuspendsTheWholeStack verifies that a suspension inside a
// nested (awaited) coroutine suspends the entire stack, and that the
// parent frame only resumes after the child finishes.
func TestAwaitSuspendsTheWholeStack(t *testing.T) {
	var s coro.Stack
	var parentResumed bool

	var childSecond coro.Step
	childSecond = func(resume any) coro.Outcome {
		return coro.Break()
	}
	child := func(resume any) coro.Outcome {
		return coro.Yield(childSecond)
	}

	parentAfterAwait := func(resume any) coro.Outcome {
		parentResumed = true
		return coro.Exit()
	}
	root := func(resume any) coro.Outcome {
		return coro.Await(child, parentAfterAwait)
	}

	// First entry: root pushes child, child yields. Two frames deep.
	signal := s.Enter(root, nil)
	assert.Equal(t, coro.Yielded, signal)
	assert.Equal(t, 2, s.Depth())
	assert.False(t, parentResumed)

	// Resuming delivers the response to the child, which breaks; the
	// parent then resumes synchronously with a nil input in the same call.
	signal = s.Enter(root, "child response")
	assert.Equal(t, coro.Finished, signal)
	assert.True(t, parentResumed)
	assert.True(t, s.Done())
}

// TestExitDiscardsNestedFrames verifies that Exit from a nested frame
// unwinds the entire stack, not just the innermost frame.
func TestExitDiscardsNestedFrames(t *testing.T) {
	var s coro.Stack

	child := func(resume any) coro.Outcome {
		return coro.Exit()
	}
	parentAfterAwait := func(resume any) coro.Outcome {
		t.Fatal("parent should not resume after a nested Exit")
		return coro.Exit()
	}
	root := func(resume any) coro.Outcome {
		return coro.Await(child, parentAfterAwait)
	}

	signal := s.Enter(root, nil)
	assert.Equal(t, coro.Finished, signal)
	assert.True(t, s.Done())
}

// TestMaxDepthPanics verifies the frame-depth bound from
// original_source/src/sys/fuse/fuse.h's CoroState[8] is enforced.
func TestMaxDepthPanics(t *testing.T) {
	var s coro.Stack

	var nest func(depth int) coro.Step
	nest = func(depth int) coro.Step {
		return func(resume any) coro.Outcome {
			return coro.Await(nest(depth+1), func(resume any) coro.Outcome {
				return coro.Exit()
			})
		}
	}

	assert.Panics(t, func() {
		s.Enter(nest(0), nil)
	})
}
