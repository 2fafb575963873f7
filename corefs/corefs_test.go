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

package corefs_test

import (
	"testing"

	"github.com/fspgo/fusetranslator/corefs"
	"github.com/fspgo/fusetranslator/fakeserver"
	"github.com/fspgo/fusetranslator/identity"
	"github.com/fspgo/fusetranslator/nativefs"
	"github.com/fspgo/fusetranslator/posix"
	"github.com/fspgo/fusetranslator/wire"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// drive pumps transact calls against core and server, feeding every
// outbound protocol request to server and every reply back into core,
// until onResponse has fired once or ten round trips have passed without
// one (a test failure, not a silently-accepted timeout).
func drive(t *testing.T, core *corefs.Core, server *fakeserver.Server, delivered *bool) {
	t.Helper()
	for i := 0; i < 10 && !*delivered; i++ {
		out := make([]byte, wire.ReqMin)
		n, status := core.Transact(nil, out)
		require.Equal(t, posix.StatusSuccess, status)
		if n == 0 {
			require.True(t, *delivered, "core produced no outbound request and delivered nothing")
			return
		}

		rspBuf := server.Handle(out[:n])
		_, status = core.Transact(rspBuf, nil)
		require.Equal(t, posix.StatusSuccess, status)
	}
	require.True(t, *delivered, "response was never delivered within the round-trip budget")
}

func newCreateRequest(path string, disposition nativefs.Disposition, desiredAccess uint32) *nativefs.Request {
	return &nativefs.Request{
		Kind: nativefs.KindCreate,
		Hint: 0xABCD,
		Create: nativefs.CreatePayload{
			Path:                 path,
			CreateOptions:        uint32(disposition) << 24,
			UserMode:             true,
			HasTraversePrivilege: true,
			DesiredAccess:        desiredAccess,
		},
	}
}

func TestOpenExistingRoot(t *testing.T) {
	server := fakeserver.New()
	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(newCreateRequest(`\`, nativefs.FileOpen, posix.FileReadData))
	require.NoError(t, err)

	drive(t, core, server, &delivered)

	require.Equal(t, posix.StatusSuccess, response.IoStatus.Status)
	require.Equal(t, uint32(posix.FileReadData), response.Create.GrantedAccess)
	require.Equal(t, uint64(0xABCD), response.Hint)
}

func TestOpenExistingFile(t *testing.T) {
	server := fakeserver.New()
	server.AddEntry(wire.RootIno, "a", unix.S_IFREG|0o644, 0, 0)

	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(newCreateRequest(`\a`, nativefs.FileOpen, posix.FileReadData))
	require.NoError(t, err)

	drive(t, core, server, &delivered)

	require.Equal(t, posix.StatusSuccess, response.IoStatus.Status)
	require.Equal(t, uint32(posix.FileReadData), response.Create.GrantedAccess)
}

func TestOpenMissingFileReturnsObjectNameNotFound(t *testing.T) {
	server := fakeserver.New()

	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(newCreateRequest(`\missing`, nativefs.FileOpen, posix.FileReadData))
	require.NoError(t, err)

	drive(t, core, server, &delivered)

	require.Equal(t, posix.StatusObjectNameNotFound, response.IoStatus.Status)
}

func TestOpenFileWithoutPermissionReturnsAccessDenied(t *testing.T) {
	server := fakeserver.New()
	server.AddEntry(wire.RootIno, "secret", unix.S_IFREG, 500, 500)

	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(newCreateRequest(`\secret`, nativefs.FileOpen, posix.FileReadData))
	require.NoError(t, err)

	drive(t, core, server, &delivered)

	require.Equal(t, posix.StatusAccessDenied, response.IoStatus.Status)
}

func TestStaleResponseIsDroppedSilently(t *testing.T) {
	var delivered bool
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
	})

	staleBuf := wire.EncodeLookupResponse(999999, 0, wire.LookupResponsePayload{})
	n, status := core.Transact(staleBuf, nil)

	require.Equal(t, 0, n)
	require.Equal(t, posix.StatusSuccess, status)
	require.False(t, delivered)
}

func TestCreateNamedStreamIsRejected(t *testing.T) {
	server := fakeserver.New()
	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	req := newCreateRequest(`\a:stream`, nativefs.FileOpen, posix.FileReadData)
	req.Create.NamedStream = true

	_, err := core.Submit(req)
	require.NoError(t, err)

	drive(t, core, server, &delivered)

	require.Equal(t, posix.StatusObjectNameInvalid, response.IoStatus.Status)
}

func TestCreateNewFile(t *testing.T) {
	server := fakeserver.New()
	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(newCreateRequest(`\fresh`, nativefs.FileCreate, posix.FileReadData))
	require.NoError(t, err)

	drive(t, core, server, &delivered)

	require.Equal(t, posix.StatusSuccess, response.IoStatus.Status)
}

func TestCloseAndCleanupReturnInvalidDeviceRequest(t *testing.T) {
	server := fakeserver.New()
	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(&nativefs.Request{Kind: nativefs.KindCleanup})
	require.NoError(t, err)
	drive(t, core, server, &delivered)
	require.Equal(t, posix.StatusInvalidDeviceRequest, response.IoStatus.Status)

	delivered = false
	_, err = core.Submit(&nativefs.Request{Kind: nativefs.KindClose})
	require.NoError(t, err)
	drive(t, core, server, &delivered)
	require.Equal(t, posix.StatusInvalidDeviceRequest, response.IoStatus.Status)
}

func TestCloseTearsDownPendingContexts(t *testing.T) {
	var delivered bool
	var response *nativefs.Response
	core := corefs.New(identity.NewFakeResolver(), nil, func(r *nativefs.Response) {
		delivered = true
		response = r
	})

	_, err := core.Submit(newCreateRequest(`\a`, nativefs.FileOpen, posix.FileReadData))
	require.NoError(t, err)

	core.Close()

	require.True(t, delivered)
	require.Equal(t, posix.StatusCancelled, response.IoStatus.Status)

	_, err = core.Submit(newCreateRequest(`\b`, nativefs.FileOpen, posix.FileReadData))
	require.Error(t, err)
}
