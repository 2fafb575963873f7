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

package wire_test

import (
	"testing"

	"github.com/fspgo/fusetranslator/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRequestRoundTrip(t *testing.T) {
	req := wire.NewLookupRequest(42, wire.RootIno, 500, 500, 1234, "a")

	buf := make([]byte, req.Len())
	n, err := req.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, int(req.Len()), n)

	decoded, err := wire.DecodeRequest(buf)
	require.NoError(t, err)

	assert.Equal(t, wire.OpLookup, decoded.Opcode)
	assert.Equal(t, uint64(42), decoded.Unique)
	assert.Equal(t, wire.RootIno, decoded.NodeID)
	assert.Equal(t, "a", decoded.LookupName())
}

func TestEncodeTooSmallBuffer(t *testing.T) {
	req := wire.NewLookupRequest(1, wire.RootIno, 0, 0, 0, "name")
	_, err := req.Encode(make([]byte, 4))
	assert.Error(t, err)
}

func TestLookupResponseRoundTrip(t *testing.T) {
	buf := wire.EncodeLookupResponse(7, 0, wire.LookupResponsePayload{
		NodeID: 42,
		Attr:   wire.Attr{Mode: 0o644, UID: 500, GID: 500, Size: 1024},
	})

	rsp, rest, err := wire.DecodeResponse(buf)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, uint64(7), rsp.Unique)
	assert.Equal(t, int32(0), rsp.Error)

	payload, err := rsp.LookupPayload()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), payload.NodeID)
	assert.Equal(t, uint32(0o644), payload.Attr.Mode)
}

func TestDecodeResponseRejectsShortBuffer(t *testing.T) {
	_, _, err := wire.DecodeResponse([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeResponseRejectsBadLen(t *testing.T) {
	buf := wire.EncodeLookupResponse(1, 0, wire.LookupResponsePayload{})
	buf[0] = 0xff // corrupt declared length
	_, _, err := wire.DecodeResponse(buf)
	assert.Error(t, err)
}
