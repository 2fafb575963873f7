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

package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/fspgo/fusetranslator/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type fakeSampler struct{ pending, inFlight int }

func (f fakeSampler) PendingDepth() int  { return f.pending }
func (f fakeSampler) InFlightDepth() int { return f.inFlight }

func TestRecorderRecordsWithoutError(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	meter := provider.Meter("fusetranslator/test")

	r, err := metrics.New(meter, fakeSampler{pending: 2, inFlight: 1})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		r.RecordCompletion(context.Background(), "SUCCESS", time.Now())
		r.RecordSuspension(context.Background())
		r.RecordLookupRoundTrip(context.Background())
	})
}

func TestRecorderNilReceiverIsSafe(t *testing.T) {
	var r *metrics.Recorder
	assert.NotPanics(t, func() {
		r.RecordCompletion(context.Background(), "SUCCESS", time.Now())
		r.RecordSuspension(context.Background())
		r.RecordLookupRoundTrip(context.Background())
	})
}
