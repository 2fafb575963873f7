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

// Package corefs is the translator core: the request-context lifecycle,
// path lookup, access-check wiring and create-disposition dispatcher
// described in spec.md §3, §4.3, §4.6–§4.9, and the transact entry point
// of §4.5.
package corefs

import (
	"strings"
	"time"

	"github.com/fspgo/fusetranslator/coro"
	"github.com/fspgo/fusetranslator/nativefs"
	"github.com/fspgo/fusetranslator/wire"
)

// Context is the per-native-request record of spec.md §3 "Request
// context (C)". It is created on first sight of a native request and
// discarded once its native response has been delivered; Go's garbage
// collector plays the role the original's `FINI` destructor played for
// manual heap fields (posix_path, the detached response buffer) — see
// DESIGN.md for this deviation.
//
// Unlike the original, which uses the context's own pointer value as the
// protocol correlator, Context carries an explicit monotonically
// assigned id: treating a Go pointer as a stable numeric value across
// garbage collection is unsafe (spec.md §9 already flags the pointer
// sentinel trick as something to replace with a safer construct).
type Context struct {
	id        uint64
	createdAt time.Time

	Request  *nativefs.Request
	Response *nativefs.Response

	stack coro.Stack
	root  coro.Step

	// protoReq is the outbound protocol request most recently built by a
	// Yield; valid until the transact entry point encodes it onto the wire
	// and calls StartProcessing.
	protoReq *wire.Request

	// lookupFailed short-circuits the path-walk continuation chain once a
	// LOOKUP or CREATE round trip has already set a failure status.
	lookupFailed bool

	// Path-lookup scratch, spec.md §3.
	posixPath string
	ino       uint64
	uid       uint32
	gid       uint32
	mode      uint32

	// Caller identity, spec.md §3.
	origUID uint32
	origGID uint32
	origPID uint32
}

// Correlator implements ioq.Entry: the context's assigned id is the value
// placed in the protocol `unique` field, spec.md §4.4.
func (c *Context) Correlator() uint64 {
	return c.id
}

// splitPosixPath splits a POSIX path into its non-empty components. "/"
// and "" both yield no components, spec.md §8 scenario 1 ("root is
// implicit").
func splitPosixPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// translateNativePath stands in for the external native→POSIX path
// transliteration utility spec.md §1 scopes out: it only needs to turn a
// backslash-separated native path into the forward-slash POSIX form the
// rest of this package expects.
func translateNativePath(native string) string {
	posix := strings.ReplaceAll(native, `\`, "/")
	for strings.Contains(posix, "//") {
		posix = strings.ReplaceAll(posix, "//", "/")
	}
	if posix == "" {
		posix = "/"
	}
	return posix
}
