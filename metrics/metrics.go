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

// Package metrics wires the translator core's counters and gauges
// through OpenTelemetry's metric API, the way the teacher's
// common/otel_metrics.go wires its GCS-operation metrics — adapted here
// from per-bucket-operation instruments to per-mount transact/IOQ/coroutine
// instruments.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func statusAttr(status string) attribute.KeyValue {
	return attribute.String("status", status)
}

// DepthSampler is satisfied by ioq.Queue[T]; kept as a narrow interface
// here so metrics never needs to import a concrete entry type.
type DepthSampler interface {
	PendingDepth() int
	InFlightDepth() int
}

// Recorder owns every instrument the translator core reports through.
// The zero value is not usable; construct with New.
type Recorder struct {
	requestsTotal  metric.Int64Counter
	latency        metric.Float64Histogram
	suspensions    metric.Int64Counter
	lookupRoundTrips metric.Int64Counter
}

// New builds a Recorder from meter, registering pendingDepth/inFlightDepth
// as asynchronous gauges sampled from sampler at collection time. sampler
// may be nil, in which case the depth gauges are omitted.
func New(meter metric.Meter, sampler DepthSampler) (*Recorder, error) {
	requestsTotal, err := meter.Int64Counter(
		"transact.requests_total",
		metric.WithDescription("native requests completed by the translator core"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(
		"transact.latency_seconds",
		metric.WithDescription("wall-clock time from context creation to native response delivery"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	suspensions, err := meter.Int64Counter(
		"coro.suspensions_total",
		metric.WithDescription("coroutine Yield suspensions across every request context"),
	)
	if err != nil {
		return nil, err
	}

	lookupRoundTrips, err := meter.Int64Counter(
		"lookup.round_trips_total",
		metric.WithDescription("LOOKUP/CREATE protocol round trips issued by lookup_path"),
	)
	if err != nil {
		return nil, err
	}

	if sampler != nil {
		pendingGauge, err := meter.Int64ObservableGauge(
			"ioq.pending_depth",
			metric.WithDescription("contexts awaiting an outbound protocol request"),
		)
		if err != nil {
			return nil, err
		}
		inFlightGauge, err := meter.Int64ObservableGauge(
			"ioq.in_flight_depth",
			metric.WithDescription("contexts awaiting a protocol response"),
		)
		if err != nil {
			return nil, err
		}
		if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(pendingGauge, int64(sampler.PendingDepth()))
			o.ObserveInt64(inFlightGauge, int64(sampler.InFlightDepth()))
			return nil
		}, pendingGauge, inFlightGauge); err != nil {
			return nil, err
		}
	}

	return &Recorder{
		requestsTotal:    requestsTotal,
		latency:          latency,
		suspensions:      suspensions,
		lookupRoundTrips: lookupRoundTrips,
	}, nil
}

// RecordCompletion reports one finished native request, status being the
// native status's name (e.g. "SUCCESS", "ACCESS_DENIED").
func (r *Recorder) RecordCompletion(ctx context.Context, status string, since time.Time) {
	if r == nil {
		return
	}
	attr := metric.WithAttributes(statusAttr(status))
	r.requestsTotal.Add(ctx, 1, attr)
	r.latency.Record(ctx, time.Since(since).Seconds(), attr)
}

// RecordSuspension reports one coroutine Yield.
func (r *Recorder) RecordSuspension(ctx context.Context) {
	if r == nil {
		return
	}
	r.suspensions.Add(ctx, 1)
}

// RecordLookupRoundTrip reports one LOOKUP or CREATE request issued by
// lookup_path.
func (r *Recorder) RecordLookupRoundTrip(ctx context.Context) {
	if r == nil {
		return
	}
	r.lookupRoundTrips.Add(ctx, 1)
}
