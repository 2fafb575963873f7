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

// Package fakeserver is an in-memory responder for the POSIX-style
// protocol (spec.md §4.1), standing in for the user-mode server spec.md
// §1 scopes out as an external collaborator. Grounded on the teacher's
// makeFakeBucket (bucket.go), which serves the same role for a GCS
// bucket's object set; here it fakes a FUSE-protocol inode tree instead.
package fakeserver

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/fspgo/fusetranslator/wire"
	"golang.org/x/sys/unix"
)

type inode struct {
	ino      uint64
	mode     uint32
	uid, gid uint32
	children map[string]uint64
}

// Server is a single-mount in-memory inode tree, answering LOOKUP and
// CREATE protocol requests. It is not safe for use across multiple
// mounts; each test or dev-mode session constructs its own.
type Server struct {
	mu      sync.Mutex
	inodes  map[uint64]*inode
	nextIno uint64
}

// New constructs a Server with only the root inode populated, owned by
// uid/gid 0 with mode 0755.
func New() *Server {
	return &Server{
		inodes: map[uint64]*inode{
			wire.RootIno: {
				ino:      wire.RootIno,
				mode:     unix.S_IFDIR | 0o755,
				children: make(map[string]uint64),
			},
		},
		nextIno: wire.RootIno + 1,
	}
}

// AddEntry registers a child of parent named name with the given mode
// (including its S_IFDIR/S_IFREG type bits) and ownership, for tests to
// populate a tree before driving lookups against it. Returns the
// assigned inode number.
func (s *Server) AddEntry(parent uint64, name string, mode, uid, gid uint32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ino := s.nextIno
	s.nextIno++

	e := &inode{ino: ino, mode: mode, uid: uid, gid: gid}
	if mode&unix.S_IFMT == unix.S_IFDIR {
		e.children = make(map[string]uint64)
	}
	s.inodes[ino] = e
	s.inodes[parent].children[name] = ino
	return ino
}

// Handle answers one encoded protocol request and returns the encoded
// response, the synchronous equivalent of one round trip over the shared
// mailbox.
func (s *Server) Handle(reqBytes []byte) []byte {
	req, err := wire.DecodeRequest(reqBytes)
	if err != nil {
		return wire.EncodeLookupResponse(0, int32(unix.EIO), wire.LookupResponsePayload{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Opcode {
	case wire.OpLookup:
		return s.handleLookup(req)
	case wire.OpCreate:
		return s.handleCreate(req)
	default:
		return wire.EncodeLookupResponse(req.Unique, int32(unix.ENOSYS), wire.LookupResponsePayload{})
	}
}

func (s *Server) handleLookup(req *wire.Request) []byte {
	parent, ok := s.inodes[req.NodeID]
	if !ok {
		return wire.EncodeLookupResponse(req.Unique, int32(unix.ENOENT), wire.LookupResponsePayload{})
	}

	childIno, ok := parent.children[req.LookupName()]
	if !ok {
		return wire.EncodeLookupResponse(req.Unique, int32(unix.ENOENT), wire.LookupResponsePayload{})
	}

	child := s.inodes[childIno]
	return wire.EncodeLookupResponse(req.Unique, 0, wire.LookupResponsePayload{
		NodeID: child.ino,
		Attr:   wire.Attr{Mode: child.mode, UID: child.uid, GID: child.gid},
	})
}

func (s *Server) handleCreate(req *wire.Request) []byte {
	parent, ok := s.inodes[req.NodeID]
	if !ok {
		return wire.EncodeLookupResponse(req.Unique, int32(unix.ENOENT), wire.LookupResponsePayload{})
	}

	name, mode := decodeCreatePayload(req.Payload)
	if _, exists := parent.children[name]; exists {
		return wire.EncodeLookupResponse(req.Unique, int32(unix.EEXIST), wire.LookupResponsePayload{})
	}

	ino := s.nextIno
	s.nextIno++
	e := &inode{ino: ino, mode: mode | unix.S_IFREG, uid: req.UID, gid: req.GID}
	s.inodes[ino] = e
	parent.children[name] = ino

	return wire.EncodeLookupResponse(req.Unique, 0, wire.LookupResponsePayload{
		NodeID: e.ino,
		Attr:   wire.Attr{Mode: e.mode, UID: e.uid, GID: e.gid},
	})
}

// decodeCreatePayload mirrors wire.NewCreateRequest's layout: a
// null-terminated name followed by a little-endian mode.
func decodeCreatePayload(payload []byte) (name string, mode uint32) {
	i := bytes.IndexByte(payload, 0)
	if i < 0 {
		return string(payload), 0
	}
	name = string(payload[:i])
	if len(payload) >= i+1+4 {
		mode = binary.LittleEndian.Uint32(payload[i+1 : i+5])
	}
	return name, mode
}
