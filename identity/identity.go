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

// Package identity resolves the native access token carried by a create
// request into the uid/gid/pid triple the access-check algorithm needs
// (spec.md §4.7 prepare_context). Opening the token and asking the
// identity-mapping utility for its uid/gid is the external collaborator
// spec.md §1 scopes out; this package only defines the seam and a
// process-identity fallback grounded on the teacher's
// perms.MyUserAndGroup contract (internal/perms/perms_test.go).
package identity

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/fspgo/fusetranslator/nativefs"
)

// Triple is the resolved identity of a native request's caller.
type Triple struct {
	UID uint32
	GID uint32
	PID uint32
}

// Resolver maps an opaque native access token to the identity of its
// caller. The core never inspects a token directly; it only ever asks a
// Resolver to map one, per spec.md §4.7.
type Resolver interface {
	Resolve(token nativefs.AccessToken) (Triple, error)
}

// ProcessResolver resolves every token to the identity of the running
// process, the same identity internal/perms.MyUserAndGroup reported in
// the teacher. It stands in for the real identity-mapping utility in
// tests and in the fake-server dev mode; a production dispatch glue
// would instead open the token and query the platform's account mapping.
type ProcessResolver struct{}

// Resolve implements Resolver.
func (ProcessResolver) Resolve(_ nativefs.AccessToken) (Triple, error) {
	u, err := user.Current()
	if err != nil {
		return Triple{}, fmt.Errorf("identity: ProcessResolver: %w", err)
	}

	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return Triple{}, fmt.Errorf("identity: ProcessResolver: parsing uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return Triple{}, fmt.Errorf("identity: ProcessResolver: parsing gid %q: %w", u.Gid, err)
	}

	return Triple{UID: uint32(uid), GID: uint32(gid), PID: uint32(os.Getpid())}, nil
}

// FakeResolver is a test double mapping specific tokens to specific
// identities, defaulting unknown tokens to a zero Triple with an error.
type FakeResolver struct {
	byToken map[nativefs.AccessToken]Triple
}

// NewFakeResolver builds a FakeResolver with no registered tokens.
func NewFakeResolver() *FakeResolver {
	return &FakeResolver{byToken: make(map[nativefs.AccessToken]Triple)}
}

// Register associates token with identity for subsequent Resolve calls.
func (f *FakeResolver) Register(token nativefs.AccessToken, identity Triple) {
	f.byToken[token] = identity
}

// Resolve implements Resolver.
func (f *FakeResolver) Resolve(token nativefs.AccessToken) (Triple, error) {
	identity, ok := f.byToken[token]
	if !ok {
		return Triple{}, fmt.Errorf("identity: FakeResolver: unregistered token %v", token)
	}
	return identity, nil
}
