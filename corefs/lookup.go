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

package corefs

import (
	"github.com/fspgo/fusetranslator/coro"
	"github.com/fspgo/fusetranslator/posix"
	"github.com/fspgo/fusetranslator/wire"
	"golang.org/x/sys/unix"
)

// lookupOneComponentStep is lookup_path's lookup_one_component
// sub-coroutine, spec.md §4.8: issue one LOOKUP round trip for name
// against the context's current inode, then update the context's
// looked-up attributes (or record the failure status) from the
// response.
func lookupOneComponentStep(ctx *Context, name string) coro.Step {
	return func(resume any) coro.Outcome {
		ctx.protoReq = wire.NewLookupRequest(ctx.id, ctx.ino, ctx.origUID, ctx.origGID, ctx.origPID, name)
		return coro.Yield(func(resume any) coro.Outcome {
			return handleEntryResponse(ctx, resume.(*wire.Response))
		})
	}
}

// createComponentStep is the FILE_CREATE analogue of
// lookupOneComponentStep: issues a CREATE round trip instead of a LOOKUP
// for the final path component, spec.md §4.6's FILE_CREATE sub-handler.
func createComponentStep(ctx *Context, name string) coro.Step {
	return func(resume any) coro.Outcome {
		ctx.protoReq = wire.NewCreateRequest(ctx.id, ctx.ino, ctx.origUID, ctx.origGID, ctx.origPID, name, 0o644)
		return coro.Yield(func(resume any) coro.Outcome {
			return handleEntryResponse(ctx, resume.(*wire.Response))
		})
	}
}

// handleEntryResponse is the shared resumption logic for both
// lookupOneComponentStep and createComponentStep: a LOOKUP response and a
// CREATE response carry the same {nodeid, attr} shape (spec.md §4.1).
func handleEntryResponse(ctx *Context, rsp *wire.Response) coro.Outcome {
	if rsp.Error != 0 {
		ctx.Response.IoStatus.Status = posix.NTStatusFromErrno(rsp.Error)
		ctx.lookupFailed = true
		return coro.Break()
	}

	payload, err := rsp.LookupPayload()
	if err != nil {
		ctx.Response.IoStatus.Status = posix.StatusInvalidDeviceRequest
		ctx.lookupFailed = true
		return coro.Break()
	}

	ctx.ino = payload.NodeID
	ctx.uid = payload.Attr.UID
	ctx.gid = payload.Attr.GID
	ctx.mode = payload.Attr.Mode
	return coro.Break()
}

// walkPath drives lookup_path (spec.md §4.8) over components, using
// finalOp for the last component (a LOOKUP for FILE_OPEN, a CREATE for
// FILE_CREATE) and a LOOKUP for every intermediate directory component.
// It returns the root Step of the walk; the caller invokes it directly
// (resume=nil) rather than nesting it under another Await, since the
// walk's own continuation chain already terminates with Exit.
func walkPath(ctx *Context, components []string, finalOp func(*Context, string) coro.Step) coro.Step {
	return walkComponent(ctx, components, 0, finalOp)
}

func walkComponent(ctx *Context, components []string, idx int, finalOp func(*Context, string) coro.Step) coro.Step {
	return func(resume any) coro.Outcome {
		name := components[idx]
		isLast := idx == len(components)-1

		var sub coro.Step
		if isLast {
			sub = finalOp(ctx, name)
		} else {
			sub = lookupOneComponentStep(ctx, name)
		}

		return coro.Await(sub, func(resume any) coro.Outcome {
			if ctx.lookupFailed {
				return coro.Exit()
			}
			if checkComponentAccess(ctx, isLast) {
				return coro.Exit()
			}
			if isLast {
				ctx.Response.IoStatus.Status = posix.StatusSuccess
				return coro.Exit()
			}
			return walkComponent(ctx, components, idx+1, finalOp)(nil)
		})
	}
}

// checkComponentAccess applies the access-check gate of spec.md §4.8's
// pseudocode to the component just looked up: a FILE_TRAVERSE check for
// an intermediate directory when the caller asserts traverse privilege,
// or the full DesiredAccess check (publishing GrantedAccess) on the final
// component. Kernel-mode callers (UserMode == false) skip per-component
// checks entirely, publishing GrantedAccess only once, on the final
// component. Returns true if access was denied (status already set).
func checkComponentAccess(ctx *Context, isLast bool) bool {
	if !ctx.Request.Create.UserMode {
		if isLast {
			ctx.Response.Create.GrantedAccess = kernelModeGrantedAccess(ctx.Request.Create.DesiredAccess)
		}
		return false
	}

	isDir := ctx.mode&unix.S_IFMT == unix.S_IFDIR

	if !isLast {
		if !ctx.Request.Create.HasTraversePrivilege {
			return false
		}
		if _, ok := posix.AccessCheck(ctx.mode, ctx.uid, ctx.gid, ctx.origUID, ctx.origGID, isDir, posix.FileTraverse); !ok {
			ctx.Response.IoStatus.Status = posix.StatusAccessDenied
			return true
		}
		return false
	}

	granted, ok := posix.AccessCheck(ctx.mode, ctx.uid, ctx.gid, ctx.origUID, ctx.origGID, isDir, ctx.Request.Create.DesiredAccess)
	if !ok {
		ctx.Response.IoStatus.Status = posix.StatusAccessDenied
		return true
	}
	ctx.Response.Create.GrantedAccess = granted
	return false
}

// kernelModeGrantedAccess implements lookup_path's final step for
// non-user-mode callers, spec.md §4.8: "publish GrantedAccess :=
// (MAXIMUM_ALLOWED ? GenericAll : DesiredAccess)".
func kernelModeGrantedAccess(desired uint32) uint32 {
	if desired&posix.AccessMaximumAllowed != 0 {
		return posix.AccessGenericAll
	}
	return desired
}
