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

// Package posix holds the pure, side-effect-free mappings the translator
// core needs on both sides of the boundary: POSIX errno to native status,
// and UNIX mode bits to native access masks.
package posix

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Status is a native-OS completion status, modeled after NTSTATUS: zero
// means success, non-zero values are drawn from the Status* constants
// below.
type Status uint32

const (
	StatusSuccess                Status = 0x00000000
	StatusInvalidDeviceRequest   Status = 0xC0000010
	StatusInvalidParameter       Status = 0xC000000D
	StatusBufferTooSmall         Status = 0xC0000023
	StatusCancelled              Status = 0xC0000120
	StatusInsufficientResources  Status = 0xC000009A
	StatusObjectNameInvalid      Status = 0xC0000033
	StatusObjectNameNotFound     Status = 0xC0000034
	StatusObjectNameCollision    Status = 0xC0000035
	StatusAccessDenied           Status = 0xC0000022
	StatusNotADirectory          Status = 0xC0000103
	StatusFileIsADirectory       Status = 0xC00000BA
	StatusNameTooLong            Status = 0xC0000106
	StatusDiskFull               Status = 0xC000007F
	StatusMediaWriteProtected    Status = 0xC00000A2
	StatusNotImplemented         Status = 0xC0000002
)

// NTStatusFromErrno maps a POSIX errno (as carried in a protocol response's
// error field) to a native status, per spec.md §6. Errno 0 maps to success.
// Unknown errno values map to StatusInvalidDeviceRequest.
func NTStatusFromErrno(errno int32) Status {
	if errno == 0 {
		return StatusSuccess
	}

	switch unix.Errno(errno) {
	case unix.ENOENT:
		return StatusObjectNameNotFound
	case unix.EACCES:
		return StatusAccessDenied
	case unix.EEXIST:
		return StatusObjectNameCollision
	case unix.ENOTDIR:
		return StatusNotADirectory
	case unix.EISDIR:
		return StatusFileIsADirectory
	case unix.ENAMETOOLONG:
		return StatusNameTooLong
	case unix.ENOSPC:
		return StatusDiskFull
	case unix.EROFS:
		return StatusMediaWriteProtected
	case unix.ENOMEM:
		return StatusInsufficientResources
	default:
		return StatusInvalidDeviceRequest
	}
}

// Success reports whether s represents a successful completion.
func (s Status) Success() bool {
	return s == StatusSuccess
}

// String names s for logging and metrics labels; unrecognized values
// print as their hex form rather than panicking.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidDeviceRequest:
		return "INVALID_DEVICE_REQUEST"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusBufferTooSmall:
		return "BUFFER_TOO_SMALL"
	case StatusCancelled:
		return "CANCELLED"
	case StatusInsufficientResources:
		return "INSUFFICIENT_RESOURCES"
	case StatusObjectNameInvalid:
		return "OBJECT_NAME_INVALID"
	case StatusObjectNameNotFound:
		return "OBJECT_NAME_NOT_FOUND"
	case StatusObjectNameCollision:
		return "OBJECT_NAME_COLLISION"
	case StatusAccessDenied:
		return "ACCESS_DENIED"
	case StatusNotADirectory:
		return "NOT_A_DIRECTORY"
	case StatusFileIsADirectory:
		return "FILE_IS_A_DIRECTORY"
	case StatusNameTooLong:
		return "NAME_TOO_LONG"
	case StatusDiskFull:
		return "DISK_FULL"
	case StatusMediaWriteProtected:
		return "MEDIA_WRITE_PROTECTED"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	default:
		return fmt.Sprintf("0x%08X", uint32(s))
	}
}
