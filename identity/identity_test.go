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

package identity_test

import (
	"testing"

	"github.com/fspgo/fusetranslator/identity"
	"github.com/fspgo/fusetranslator/nativefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type IdentityTest struct {
	suite.Suite
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentityTest))
}

func (t *IdentityTest) TestProcessResolverNoError() {
	var r identity.ProcessResolver
	triple, err := r.Resolve(nativefs.AccessToken(0))
	require.NoError(t.T(), err)

	unexpectedID := ^uint32(0)
	assert.NotEqual(t.T(), unexpectedID, triple.UID)
	assert.NotEqual(t.T(), unexpectedID, triple.GID)
}

func (t *IdentityTest) TestFakeResolverUnregisteredTokenErrors() {
	r := identity.NewFakeResolver()
	_, err := r.Resolve(nativefs.AccessToken(42))
	assert.Error(t.T(), err)
}

func (t *IdentityTest) TestFakeResolverRegisteredToken() {
	r := identity.NewFakeResolver()
	r.Register(nativefs.AccessToken(42), identity.Triple{UID: 500, GID: 500, PID: 1})

	triple, err := r.Resolve(nativefs.AccessToken(42))
	require.NoError(t.T(), err)
	assert.Equal(t.T(), uint32(500), triple.UID)
}
