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

// Package wire holds the POSIX-style protocol records exchanged with the
// user-mode server, modelled after the Linux FUSE wire protocol (spec.md
// §3, §4.1, §6). Layouts are little-endian and fixed, encoded with
// encoding/binary rather than unsafe pointer casts — see DESIGN.md for why.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Opcode identifies the kind of protocol exchange. Only the subset spec.md
// §4.1 requires is enumerated; FUSE itself defines many more.
type Opcode uint32

const (
	OpLookup  Opcode = 1
	OpForget  Opcode = 2
	OpGetattr Opcode = 3
	OpOpen    Opcode = 14
	OpRelease Opcode = 18
	OpCreate  Opcode = 35
	OpUnlink  Opcode = 10
)

// RootIno is the fixed, well-known inode number of the volume root,
// spec.md §3/§6.
const RootIno uint64 = 1

// reqHeaderSize is the size in bytes of the fixed fields that begin every
// protocol request: len, opcode, unique, nodeid, uid, gid, pid, pad.
const reqHeaderSize = 4 + 4 + 8 + 8 + 4 + 4 + 4 + 4

// rspHeaderSize is the size in bytes of the fixed fields that begin every
// protocol response: len, error, unique.
const rspHeaderSize = 4 + 4 + 8

// ReqMin is the smallest buffer that any single protocol request is
// guaranteed to fit in — spec.md §3 "a minimum envelope size". It covers the
// header plus the largest payload this core produces for a component name of
// up to 255 bytes: a CREATE's name, its terminator and its 4-byte mode.
const ReqMin = reqHeaderSize + 256 + 4

// Request is a protocol request (Q), spec.md §3/§6.
//
//	{u32 len; u32 opcode; u64 unique; u64 nodeid; u32 uid; u32 gid; u32 pid; u32 pad; <payload>}
type Request struct {
	Opcode Opcode
	Unique uint64
	NodeID uint64
	UID    uint32
	GID    uint32
	PID    uint32

	// Payload is the opcode-specific body. For OpLookup this is the
	// null-terminated component name.
	Payload []byte
}

// Len reports the total encoded length of the request.
func (r *Request) Len() uint32 {
	return uint32(reqHeaderSize + len(r.Payload))
}

// Encode writes the little-endian wire form of r into dst, which must be at
// least r.Len() bytes. It returns the number of bytes written.
func (r *Request) Encode(dst []byte) (int, error) {
	n := int(r.Len())
	if len(dst) < n {
		return 0, fmt.Errorf("wire: Request.Encode: buffer too small: have %d, need %d", len(dst), n)
	}

	binary.LittleEndian.PutUint32(dst[0:4], r.Len())
	binary.LittleEndian.PutUint32(dst[4:8], uint32(r.Opcode))
	binary.LittleEndian.PutUint64(dst[8:16], r.Unique)
	binary.LittleEndian.PutUint64(dst[16:24], r.NodeID)
	binary.LittleEndian.PutUint32(dst[24:28], r.UID)
	binary.LittleEndian.PutUint32(dst[28:32], r.GID)
	binary.LittleEndian.PutUint32(dst[32:36], r.PID)
	binary.LittleEndian.PutUint32(dst[36:40], 0) // pad
	copy(dst[reqHeaderSize:n], r.Payload)

	return n, nil
}

// DecodeRequest parses a protocol request out of buf. Used by test doubles
// of the user-mode server; the real core only ever encodes requests.
func DecodeRequest(buf []byte) (*Request, error) {
	if len(buf) < reqHeaderSize {
		return nil, fmt.Errorf("wire: DecodeRequest: buffer shorter than header: %d", len(buf))
	}

	length := binary.LittleEndian.Uint32(buf[0:4])
	if int(length) > len(buf) {
		return nil, fmt.Errorf("wire: DecodeRequest: declared len %d exceeds buffer %d", length, len(buf))
	}

	r := &Request{
		Opcode: Opcode(binary.LittleEndian.Uint32(buf[4:8])),
		Unique: binary.LittleEndian.Uint64(buf[8:16]),
		NodeID: binary.LittleEndian.Uint64(buf[16:24]),
		UID:    binary.LittleEndian.Uint32(buf[24:28]),
		GID:    binary.LittleEndian.Uint32(buf[28:32]),
		PID:    binary.LittleEndian.Uint32(buf[32:36]),
	}
	if int(length) > reqHeaderSize {
		r.Payload = append([]byte(nil), buf[reqHeaderSize:length]...)
	}
	return r, nil
}

// LookupName extracts the null-terminated component name from a LOOKUP
// request's payload.
func (r *Request) LookupName() string {
	if i := bytes.IndexByte(r.Payload, 0); i >= 0 {
		return string(r.Payload[:i])
	}
	return string(r.Payload)
}

// NewLookupRequest builds the request fuse/fuseop.c's FspFuseLookupPath
// produces for one path component (spec.md §4.8 lookup_one_component).
func NewLookupRequest(unique uint64, nodeid uint64, uid, gid, pid uint32, name string) *Request {
	payload := make([]byte, len(name)+1)
	copy(payload, name)
	return &Request{
		Opcode:  OpLookup,
		Unique:  unique,
		NodeID:  nodeid,
		UID:     uid,
		GID:     gid,
		PID:     pid,
		Payload: payload,
	}
}

// NewCreateRequest builds the request for a CREATE protocol exchange: the
// final component of a create-disposition path walk, spec.md §4.6. The
// FUSE CREATE request carries a mode in addition to LOOKUP's name.
func NewCreateRequest(unique uint64, nodeid uint64, uid, gid, pid uint32, name string, mode uint32) *Request {
	payload := make([]byte, len(name)+1+4)
	copy(payload, name)
	binary.LittleEndian.PutUint32(payload[len(name)+1:], mode)
	return &Request{
		Opcode:  OpCreate,
		Unique:  unique,
		NodeID:  nodeid,
		UID:     uid,
		GID:     gid,
		PID:     pid,
		Payload: payload,
	}
}

// Attr mirrors the FUSE attr struct's fields the core reads: the entry's
// type/permission bits and ownership.
type Attr struct {
	Mode uint32
	UID  uint32
	GID  uint32
	Size uint64
}

// LookupResponsePayload is the body of a successful LOOKUP response: the
// resolved inode number and its attributes.
type LookupResponsePayload struct {
	NodeID uint64
	Attr   Attr
}

const lookupRspPayloadSize = 8 + 4 + 4 + 4 + 8

// Response is a protocol response (A), spec.md §3/§6.
//
//	{u32 len; i32 error; u64 unique; <payload>}
type Response struct {
	Error  int32
	Unique uint64

	Payload []byte
}

// Len reports the total encoded length of the response.
func (r *Response) Len() uint32 {
	return uint32(rspHeaderSize + len(r.Payload))
}

// DecodeResponse parses a single protocol response out of the head of buf
// and returns it along with the remainder of buf — spec.md §4.5 Phase A
// consumes "at most one response" per transact call, but a batched buffer
// may carry more; this mirrors FspFsctlTransactConsumeResponse's contract.
func DecodeResponse(buf []byte) (rsp *Response, rest []byte, err error) {
	if len(buf) < rspHeaderSize {
		return nil, nil, fmt.Errorf("wire: DecodeResponse: buffer shorter than header: %d", len(buf))
	}

	length := binary.LittleEndian.Uint32(buf[0:4])
	if int(length) < rspHeaderSize || int(length) > len(buf) {
		return nil, nil, fmt.Errorf("wire: DecodeResponse: invalid len %d for buffer of %d", length, len(buf))
	}

	rsp = &Response{
		Error:  int32(binary.LittleEndian.Uint32(buf[4:8])),
		Unique: binary.LittleEndian.Uint64(buf[8:16]),
	}
	if int(length) > rspHeaderSize {
		rsp.Payload = append([]byte(nil), buf[rspHeaderSize:length]...)
	}
	return rsp, buf[length:], nil
}

// EncodeLookupResponse is used by test doubles of the user-mode server to
// build a LOOKUP response.
func EncodeLookupResponse(unique uint64, errno int32, payload LookupResponsePayload) []byte {
	buf := make([]byte, rspHeaderSize+lookupRspPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(errno))
	binary.LittleEndian.PutUint64(buf[8:16], unique)

	p := buf[rspHeaderSize:]
	binary.LittleEndian.PutUint64(p[0:8], payload.NodeID)
	binary.LittleEndian.PutUint32(p[8:12], payload.Attr.Mode)
	binary.LittleEndian.PutUint32(p[12:16], payload.Attr.UID)
	binary.LittleEndian.PutUint32(p[16:20], payload.Attr.GID)
	binary.LittleEndian.PutUint64(p[20:28], payload.Attr.Size)

	return buf
}

// LookupPayload decodes the response payload of a successful LOOKUP
// response.
func (r *Response) LookupPayload() (LookupResponsePayload, error) {
	if len(r.Payload) < lookupRspPayloadSize {
		return LookupResponsePayload{}, fmt.Errorf("wire: LookupPayload: short payload: %d", len(r.Payload))
	}
	p := r.Payload
	return LookupResponsePayload{
		NodeID: binary.LittleEndian.Uint64(p[0:8]),
		Attr: Attr{
			Mode: binary.LittleEndian.Uint32(p[8:12]),
			UID:  binary.LittleEndian.Uint32(p[12:16]),
			GID:  binary.LittleEndian.Uint32(p[16:20]),
			Size: binary.LittleEndian.Uint64(p[20:28]),
		},
	}, nil
}
