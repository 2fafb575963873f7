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

package posix

import "golang.org/x/sys/unix"

// Native access-right bits, values taken from winnt.h. The core only needs
// the subset that the UNIX rwx mapping in spec.md §4.9 produces.
const (
	AccessDelete       uint32 = 0x00010000
	AccessReadControl  uint32 = 0x00020000
	AccessWriteDAC     uint32 = 0x00040000
	AccessWriteOwner   uint32 = 0x00080000
	AccessSynchronize  uint32 = 0x00100000
	AccessMaximumAllowed uint32 = 0x02000000
	AccessGenericAll   uint32 = 0x10000000

	FileReadData       uint32 = 0x00000001
	FileWriteData      uint32 = 0x00000002
	FileAppendData     uint32 = 0x00000004
	FileReadEA         uint32 = 0x00000008
	FileWriteEA        uint32 = 0x00000010
	FileExecute        uint32 = 0x00000020
	FileTraverse       uint32 = FileExecute
	FileDeleteChild    uint32 = 0x00000040
	FileReadAttributes uint32 = 0x00000080
	FileWriteAttributes uint32 = 0x00000100
)

// ownerDefaultSet and otherDefaultSet are the bits every owner, respectively
// every group/world principal, is granted regardless of the rwx bits of the
// mode — spec.md §4.9.
const (
	ownerDefaultSet = AccessSynchronize | AccessReadControl | FileReadAttributes |
		FileWriteAttributes | FileReadEA | FileWriteEA |
		AccessDelete | AccessWriteDAC | AccessWriteOwner

	otherDefaultSet = AccessSynchronize | AccessReadControl | FileReadAttributes |
		FileWriteAttributes | FileReadEA | FileWriteEA
)

// rwxToAccess maps the rwx bits from a UNIX permission triad to native
// access rights, per spec.md §4.9:
//
//	read bit    -> FILE_READ_DATA
//	execute bit -> FILE_EXECUTE (FILE_TRAVERSE for directories)
//	write bit   -> FILE_WRITE_DATA | FILE_WRITE_ATTRIBUTES | FILE_APPEND_DATA
//	               | FILE_DELETE_CHILD (directory, no sticky bit, owner only)
func rwxToAccess(rwx uint32, isDir, sticky, isOwner bool) (access uint32) {
	if rwx&0o4 != 0 {
		access |= FileReadData
	}
	if rwx&0o1 != 0 {
		access |= FileExecute
	}
	if rwx&0o2 != 0 {
		access |= FileWriteData | FileWriteAttributes | FileAppendData
		if isDir && !sticky && isOwner {
			access |= FileDeleteChild
		}
	}
	return
}

// FileAccessMask computes the access a caller with (callerUid, callerGid) is
// granted by a file with (mode, fileUid, fileGid), ignoring DesiredAccess —
// this is the "file-access" term of spec.md §4.9.
func FileAccessMask(mode uint32, fileUid, fileGid, callerUid, callerGid uint32, isDir bool) uint32 {
	sticky := mode&uint32(unix.S_ISVTX) != 0
	isOwner := callerUid == fileUid

	switch {
	case isOwner:
		return ownerDefaultSet | rwxToAccess((mode>>6)&0o7, isDir, sticky, true)
	case callerGid == fileGid:
		return otherDefaultSet | rwxToAccess((mode>>3)&0o7, isDir, sticky, false)
	default:
		return otherDefaultSet | rwxToAccess(mode&0o7, isDir, sticky, false)
	}
}

// AccessCheck is the pure function behind spec.md §4.9: given the file's
// mode/uid/gid, the caller's uid/gid, and a desired-access mask, it computes
// the granted mask or reports that access is denied.
//
// If AccessMaximumAllowed is set in desiredAccess, granted is the full
// file-access mask (spec.md: "granted becomes the union with file-access");
// any additional explicit bits requested alongside AccessMaximumAllowed must
// still be covered by file-access, or the check fails. Otherwise granted is
// the intersection of desiredAccess and file-access, and the check fails
// unless every bit of desiredAccess was covered.
func AccessCheck(
	mode uint32, fileUid, fileGid uint32,
	callerUid, callerGid uint32,
	isDir bool,
	desiredAccess uint32,
) (granted uint32, ok bool) {
	fileAccess := FileAccessMask(mode, fileUid, fileGid, callerUid, callerGid, isDir)

	if desiredAccess&AccessMaximumAllowed != 0 {
		required := desiredAccess &^ AccessMaximumAllowed
		if required&^fileAccess != 0 {
			return 0, false
		}
		return fileAccess, true
	}

	granted = desiredAccess & fileAccess
	if granted != desiredAccess {
		return 0, false
	}
	return granted, true
}
