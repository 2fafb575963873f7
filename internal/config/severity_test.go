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

package config_test

import (
	"testing"

	"github.com/fspgo/fusetranslator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogSeverityCaseInsensitive(t *testing.T) {
	sev, err := config.ParseLogSeverity("debug")
	require.NoError(t, err)
	assert.Equal(t, config.DEBUG, sev)
}

func TestParseLogSeverityWarnAlias(t *testing.T) {
	sev, err := config.ParseLogSeverity("WARN")
	require.NoError(t, err)
	assert.Equal(t, config.WARNING, sev)
}

func TestParseLogSeverityUnknown(t *testing.T) {
	_, err := config.ParseLogSeverity("bogus")
	assert.Error(t, err)
}

func TestLogSeverityOrdering(t *testing.T) {
	assert.True(t, config.TRACE < config.DEBUG)
	assert.True(t, config.DEBUG < config.INFO)
	assert.True(t, config.INFO < config.WARNING)
	assert.True(t, config.WARNING < config.ERROR)
	assert.True(t, config.ERROR < config.OFF)
}

func TestLogSeverityString(t *testing.T) {
	assert.Equal(t, "INFO", config.INFO.String())
}
