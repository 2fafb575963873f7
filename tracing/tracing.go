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

// Package tracing sets up an OpenTelemetry TracerProvider for the
// translator core, mirroring the teacher's internal/monitor exporter
// wiring but with a single stdout exporter instead of Cloud Trace — this
// core has no cloud backend to ship spans to, and stdouttrace is already
// a direct dependency pulled in for exactly this kind of standalone use.
package tracing

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Shutdown flushes and stops the installed TracerProvider.
type Shutdown func(context.Context) error

// Init installs a global TracerProvider that writes spans to w as they
// complete. Passing io.Discard disables visible output while keeping the
// sampling/propagation machinery live, useful in tests.
func Init(w io.Writer) (Shutdown, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(trace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the translator core's named tracer from whatever
// TracerProvider is currently installed (the global no-op provider if
// Init was never called).
func Tracer() oteltrace.Tracer {
	return otel.Tracer("github.com/fspgo/fusetranslator/corefs")
}
