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

// Package nativefs holds the native-OS (Windows-style) request/response
// records the translator core receives from, and replies to, the native
// I/O dispatch glue — spec.md §3 "Native request (R)"/"Native response
// (S)". Serialization of these records onto the wire, and their lifetime,
// belong to the dispatch glue (spec.md §1 out of scope); the core only
// reads and writes the fields below.
package nativefs

import "github.com/fspgo/fusetranslator/posix"

// Kind identifies the native request's operation. Only the values this
// core elaborates are given names; the rest of the closed set
// (read/write/lock/...) is represented numerically; the core has no
// handler for those kinds and completes them with INVALID_DEVICE_REQUEST
// without knowing their shape.
type Kind uint32

const (
	KindCreate Kind = iota + 1
	KindCleanup
	KindClose
	KindSetInformation
)

// Disposition is the create-intent high byte of CreateOptions, spec.md
// GLOSSARY "Disposition".
type Disposition uint8

const (
	FileSupersede Disposition = iota
	FileOpen
	FileCreate
	FileOpenIf
	FileOverwrite
	FileOverwriteIf
)

// AccessToken is an opaque handle to the caller's security context. The
// core never inspects it directly; it is resolved to a uid/gid/pid triple
// by the identity package (spec.md §4.7).
type AccessToken uintptr

// CreatePayload carries the fields of a create-kind native request that
// the core's dispatcher and disposition handlers need, spec.md §3.
type CreatePayload struct {
	Path                string // native (wide-character) path, already decoded to a Go string
	OpenTargetDirectory bool
	CreateOptions       uint32 // high byte carries the Disposition
	NamedStream         bool
	UserMode            bool
	HasTraversePrivilege bool
	DesiredAccess       uint32
	GrantedAccess       uint32
	AccessToken         AccessToken
}

// Disposition extracts the create-intent high byte of CreateOptions.
func (p *CreatePayload) Disposition() Disposition {
	return Disposition((p.CreateOptions >> 24) & 0xff)
}

// Request is the native request (R), spec.md §3. The core treats it as
// read-only: "C.internal_request is immutable for C's lifetime".
type Request struct {
	Kind Kind
	Hint uint64 // opaque tag echoed back in the native response

	Create CreatePayload
}

// IoStatus mirrors the native IO_STATUS_BLOCK the response carries.
type IoStatus struct {
	Status      posix.Status
	Information uintptr
}

// OpenedPayload is the create-kind response payload, spec.md §3.
type OpenedPayload struct {
	GrantedAccess uint32
}

// Response is the native response (S), spec.md §3. Owned by the request
// context until delivered to the external collaborator (spec.md §5
// "Shared resources").
type Response struct {
	Kind     Kind
	Hint     uint64
	IoStatus IoStatus

	Create OpenedPayload
}

// NewResponse builds the response header for a freshly created context,
// echoing Kind and Hint from the request per spec.md §4.3 step 1.
func NewResponse(req *Request) *Response {
	return &Response{Kind: req.Kind, Hint: req.Hint}
}
