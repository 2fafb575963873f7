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

// Package ioq implements the I/O queue (IOQ) of spec.md §3/§4.4: the
// structure pairing request contexts awaiting an outbound protocol
// request with the table of contexts whose request has been posted and
// is awaiting a response.
//
// Modeled on jacobsa-fuse's Connection (a uint64-keyed in-flight table
// guarded by one mutex, connection.go) and on the teacher's fs.mu
// InvariantMutex discipline (fs/fs.go checkInvariants).
package ioq

import (
	"container/list"
	"context"
	"fmt"

	"github.com/jacobsa/ratelimit"
	"github.com/jacobsa/syncutil"
)

// Entry is a unit of work the queue tracks, correlated by the "unique"
// value spec.md's GLOSSARY assigns to a request context for the lifetime
// of one protocol round trip.
type Entry interface {
	Correlator() uint64
}

// fifo is a minimal FIFO built on container/list, replacing the teacher's
// own linked-list queue package (common.Queue) now that this is the only
// caller left needing one.
type fifo[T any] struct {
	l *list.List
}

func newFIFO[T any]() fifo[T] {
	return fifo[T]{l: list.New()}
}

func (f fifo[T]) Push(v T) {
	f.l.PushBack(v)
}

func (f fifo[T]) Pop() T {
	e := f.l.Front()
	f.l.Remove(e)
	return e.Value.(T)
}

func (f fifo[T]) IsEmpty() bool {
	return f.l.Len() == 0
}

func (f fifo[T]) Len() int {
	return f.l.Len()
}

// Queue is the per-mount IOQ. The zero value is not usable; construct
// with New.
type Queue[T Entry] struct {
	mu syncutil.InvariantMutex

	pending    fifo[T]         // GUARDED_BY(mu)
	pendingSet map[uint64]bool // GUARDED_BY(mu); mirrors pending's correlators
	inFlight   map[uint64]T    // GUARDED_BY(mu)
	stopped    bool            // GUARDED_BY(mu)

	// throttle paces StartProcessing, bounding how fast outbound protocol
	// requests are produced. nil disables throttling. Grounded on the
	// teacher's setUpRateLimiting (bucket.go), adapted from per-bucket GCS
	// operation throttling to per-mount outbound-request throttling.
	throttle ratelimit.Throttle
}

// New constructs an empty Queue. throttle may be nil to disable outbound
// throttling.
func New[T Entry](throttle ratelimit.Throttle) *Queue[T] {
	q := &Queue[T]{
		pending:    newFIFO[T](),
		pendingSet: make(map[uint64]bool),
		inFlight:   make(map[uint64]T),
		throttle:   throttle,
	}
	q.mu = syncutil.NewInvariantMutex(q.checkInvariants)
	return q
}

// checkInvariants enforces spec.md §8's queue-exclusivity and
// correlator-matching properties: every in-flight entry is keyed by its
// own correlator, and no correlator is both pending and in flight at
// once.
func (q *Queue[T]) checkInvariants() {
	for k, v := range q.inFlight {
		if v.Correlator() != k {
			panic(fmt.Sprintf("ioq: in-flight entry keyed %d reports correlator %d", k, v.Correlator()))
		}
		if q.pendingSet[k] {
			panic(fmt.Sprintf("ioq: correlator %d is both pending and in flight", k))
		}
	}
}

// PostPending enqueues e to be posted as an outbound protocol request.
// Panics if e's correlator is already tracked by the queue — spec.md
// §4.4 assigns the correlator once, at context creation, and it must be
// unique for the context's entire lifetime.
func (q *Queue[T]) PostPending(e T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	c := e.Correlator()
	if q.pendingSet[c] {
		panic(fmt.Sprintf("ioq: PostPending: correlator %d already pending", c))
	}
	if _, ok := q.inFlight[c]; ok {
		panic(fmt.Sprintf("ioq: PostPending: correlator %d already in flight", c))
	}

	q.pending.Push(e)
	q.pendingSet[c] = true
}

// NextPending dequeues the oldest pending entry in FIFO order — spec.md
// §8's pending-FIFO-ordering invariant — and hands it to the caller,
// which is expected to encode it as an outbound protocol request and
// then call StartProcessing. Returns false if nothing is pending.
func (q *Queue[T]) NextPending() (entry T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending.IsEmpty() {
		return entry, false
	}

	entry = q.pending.Pop()
	delete(q.pendingSet, entry.Correlator())
	return entry, true
}

// StartProcessing marks e as in flight, to be matched against an inbound
// response by its correlator. If a throttle was configured, this blocks
// (respecting ctx) until the outbound-request rate is within bounds.
//
// LOCKS_EXCLUDED(mu) while waiting on the throttle, to avoid holding the
// queue closed for unrelated callers during the wait.
func (q *Queue[T]) StartProcessing(ctx context.Context, e T) error {
	if q.throttle != nil {
		if err := q.throttle.Wait(ctx, 1); err != nil {
			return fmt.Errorf("ioq: StartProcessing: throttle: %w", err)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	c := e.Correlator()
	if _, ok := q.inFlight[c]; ok {
		panic(fmt.Sprintf("ioq: StartProcessing: correlator %d already in flight", c))
	}
	q.inFlight[c] = e
	return nil
}

// EndProcessing removes and returns the in-flight entry matching unique.
// Returns false if no entry matches — spec.md §8's stale-response
// tolerance: a response whose correlator names nothing in flight (a
// duplicate delivery, or one arriving after its context was torn down)
// is silently dropped rather than treated as an error.
func (q *Queue[T]) EndProcessing(unique uint64) (entry T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok = q.inFlight[unique]
	if !ok {
		return entry, false
	}
	delete(q.inFlight, unique)
	return entry, true
}

// Delete drains the queue, invoking cleanup once for every entry still
// pending or in flight, and sets the stopped flag. PostPending and
// StartProcessing do not consult that flag: entries added after Delete
// are tracked as usual. Used when tearing down a mount, mirroring the
// bulk-drain half of WinFsp's FspIoqDelete.
func (q *Queue[T]) Delete(cleanup func(T)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true

	for !q.pending.IsEmpty() {
		e := q.pending.Pop()
		delete(q.pendingSet, e.Correlator())
		if cleanup != nil {
			cleanup(e)
		}
	}
	for k, e := range q.inFlight {
		delete(q.inFlight, k)
		if cleanup != nil {
			cleanup(e)
		}
	}
}

// PendingDepth reports the number of entries awaiting an outbound
// request. Sampled by the metrics package as a gauge.
func (q *Queue[T]) PendingDepth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

// InFlightDepth reports the number of entries awaiting a response.
// Sampled by the metrics package as a gauge.
func (q *Queue[T]) InFlightDepth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}
