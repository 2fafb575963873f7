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

package tracing_test

import (
	"context"
	"io"
	"testing"

	"github.com/fspgo/fusetranslator/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndTracerProduceSpans(t *testing.T) {
	shutdown, err := tracing.Init(io.Discard)
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := tracing.Tracer().Start(context.Background(), "test-span")
	assert.NotNil(t, span)
	span.End()
}
