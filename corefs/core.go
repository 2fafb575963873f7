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

package corefs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fspgo/fusetranslator/coro"
	"github.com/fspgo/fusetranslator/identity"
	"github.com/fspgo/fusetranslator/internal/logger"
	"github.com/fspgo/fusetranslator/ioq"
	"github.com/fspgo/fusetranslator/metrics"
	"github.com/fspgo/fusetranslator/nativefs"
	"github.com/fspgo/fusetranslator/posix"
	"github.com/fspgo/fusetranslator/wire"
	"github.com/google/uuid"
	"github.com/jacobsa/ratelimit"
	"github.com/jacobsa/timeutil"
	"go.opentelemetry.io/otel/trace"
)

// Core owns one mount's IOQ and handler dispatch table, and exposes the
// transact entry point of spec.md §4.5. The zero value is not usable;
// construct with New.
type Core struct {
	ioq      *ioq.Queue[*Context]
	resolver identity.Resolver
	handlers map[nativefs.Kind]func(*Context) coro.Step

	// onResponse is where a completed native response is delivered —
	// spec.md §1's "native-OS I/O dispatch glue", out of scope here but
	// given a seam so tests and a real dispatch layer can both observe
	// completions.
	onResponse func(*nativefs.Response)

	// sessionID tags every structured log line this Core emits, so
	// multiple mounts' logs can be told apart in a shared log stream.
	sessionID string

	log    *slog.Logger
	rec    *metrics.Recorder
	tracer trace.Tracer
	clock  timeutil.Clock

	nextID uint64 // atomic

	mu     sync.Mutex
	closed bool // GUARDED_BY(mu)
}

// Option configures optional ambient-stack wiring for a Core. The zero
// value of Core (no options) logs to the process-wide default logger,
// records no metrics, and creates no trace spans — every option is
// additive, matching the teacher's own pattern of cobra/viper flags that
// default to "off" for anything observability-related.
type Option func(*Core)

// WithLogger replaces the Core's logger. Defaults to logger.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Core) { c.log = l }
}

// WithMetrics attaches a Recorder; every Transact completion and lookup
// round trip is reported through it. Nil (the default) disables metrics
// entirely — Recorder's methods are nil-receiver safe, so Core calls them
// unconditionally and they return at once when rec is nil.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Core) { c.rec = rec }
}

// WithTracer wraps every Transact call in a span from tracer. Defaults
// to a no-op tracer (spans are created but never exported) if unset.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Core) { c.tracer = tracer }
}

// WithClock replaces the clock used to stamp context creation. Defaults
// to timeutil.RealClock(). Latency metrics are the wall-clock time
// (time.Since) elapsed from that stamp, so a substitute clock moves the
// starting point of the measurement but does not make it deterministic.
func WithClock(clock timeutil.Clock) Option {
	return func(c *Core) { c.clock = clock }
}

// New constructs a Core. resolver maps access tokens to caller
// identities (spec.md §4.7); throttle paces outbound protocol-request
// production and may be nil; onResponse is called once per completed
// native request and may be nil if the caller only cares about the
// result of Transact itself (tests exercising end-to-end scenarios still
// want onResponse — see corefs_test.go).
func New(resolver identity.Resolver, throttle ratelimit.Throttle, onResponse func(*nativefs.Response), opts ...Option) *Core {
	c := &Core{
		resolver:   resolver,
		onResponse: onResponse,
		sessionID:  uuid.NewString(),
		log:        logger.Default(),
		tracer:     trace.NewNoopTracerProvider().Tracer("noop"),
		clock:      timeutil.RealClock(),
	}
	c.ioq = ioq.New[*Context](throttle)
	c.handlers = map[nativefs.Kind]func(*Context) coro.Step{
		nativefs.KindCreate:  c.createHandler,
		nativefs.KindCleanup: cleanupHandler,
		nativefs.KindClose:   closeHandler,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dispatch selects the root Step for ctx's request kind, synthesizing a
// status-only completion for any kind with no registered handler —
// spec.md §4.5's "unregistered kind" edge case.
func (c *Core) dispatch(ctx *Context) coro.Step {
	maker, ok := c.handlers[ctx.Request.Kind]
	if !ok {
		return func(resume any) coro.Outcome {
			ctx.Response.IoStatus.Status = posix.StatusInvalidDeviceRequest
			return coro.Exit()
		}
	}
	return maker(ctx)
}

// Submit hands a fresh native request to the core, spec.md §4.3 step 1
// ("Creation"). It stands in for the out-of-scope dispatch glue handing
// R to the core; the context is placed in IOQ.pending and is first
// entered when Transact's Phase B next reaches it.
func (c *Core) Submit(req *nativefs.Request) (*Context, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("corefs: Submit: core is closed")
	}

	id := atomic.AddUint64(&c.nextID, 1)
	ctx := &Context{
		id:        id,
		createdAt: c.clock.Now(),
		Request:   req,
		Response:  nativefs.NewResponse(req),
	}
	ctx.root = c.dispatch(ctx)
	c.ioq.PostPending(ctx)
	c.log.Debug("submitted native request", "session", c.sessionID, "kind", req.Kind, "correlator", id)
	return ctx, nil
}

// Transact is the sole externally visible entry point, spec.md §4.5: one
// call optionally consumes one inbound protocol response and optionally
// produces one outbound protocol request, sharing a single pair of
// buffers for both.
func (c *Core) Transact(inbound []byte, outbound []byte) (written int, status posix.Status) {
	spanCtx, span := c.tracer.Start(context.Background(), "corefs.Transact")
	defer span.End()

	var rsp *wire.Response
	if len(inbound) > 0 {
		decoded, _, err := wire.DecodeResponse(inbound)
		if err != nil {
			return 0, posix.StatusInvalidParameter
		}
		rsp = decoded
	}
	if len(outbound) > 0 && len(outbound) < int(wire.ReqMin) {
		return 0, posix.StatusBufferTooSmall
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, posix.StatusCancelled
	}

	if rsp != nil {
		if ctx, ok := c.ioq.EndProcessing(rsp.Unique); ok {
			c.resumeWithResponse(spanCtx, ctx, rsp)
		}
		// A stale response (no matching in-flight context) is dropped,
		// spec.md §4.4's end_processing policy; Phase B still runs below.
	}

	if len(outbound) == 0 {
		return 0, posix.StatusSuccess
	}

	ctx, ok := c.ioq.NextPending()
	if !ok {
		return 0, posix.StatusSuccess
	}

	signal := coro.Yielded
	if ctx.stack.Done() {
		signal = ctx.stack.Enter(ctx.root, nil)
	}

	switch signal {
	case coro.Yielded:
		n, err := ctx.protoReq.Encode(outbound)
		if err != nil {
			return 0, posix.StatusInsufficientResources
		}
		if err := c.ioq.StartProcessing(spanCtx, ctx); err != nil {
			return 0, posix.StatusInsufficientResources
		}
		c.rec.RecordSuspension(spanCtx)
		c.rec.RecordLookupRoundTrip(spanCtx)
		return n, posix.StatusSuccess

	default: // coro.Finished
		c.deliver(spanCtx, ctx)
		return 0, posix.StatusSuccess
	}
}

// resumeWithResponse is transact's Phase A, spec.md §4.5 step 3: resume
// ctx with the just-arrived response, then either re-post it (it
// suspended again, building a new outbound request) or deliver its
// finished native response.
func (c *Core) resumeWithResponse(ctx context.Context, rctx *Context, rsp *wire.Response) {
	signal := rctx.stack.Enter(rctx.root, rsp)
	switch signal {
	case coro.Yielded:
		c.ioq.PostPending(rctx)
		c.rec.RecordSuspension(ctx)
		c.rec.RecordLookupRoundTrip(ctx)
	default:
		c.deliver(ctx, rctx)
	}
}

func (c *Core) deliver(ctx context.Context, rctx *Context) {
	c.rec.RecordCompletion(ctx, rctx.Response.IoStatus.Status.String(), rctx.createdAt)
	c.log.Debug("delivered native response", "session", c.sessionID, "correlator", rctx.id, "status", rctx.Response.IoStatus.Status)
	if c.onResponse != nil {
		c.onResponse(rctx.Response)
	}
}

// Close tears the core down: every context still pending or in flight is
// finalized with CANCELLED and delivered, spec.md §5 "tearing down the
// IOQ finalizes every live context". Subsequent Submit and Transact
// calls fail.
func (c *Core) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.ioq.Delete(func(ctx *Context) {
		ctx.Response.IoStatus.Status = posix.StatusCancelled
		c.deliver(context.Background(), ctx)
	})
}
