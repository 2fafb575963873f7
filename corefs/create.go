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
	"github.com/fspgo/fusetranslator/nativefs"
	"github.com/fspgo/fusetranslator/posix"
	"github.com/fspgo/fusetranslator/wire"
)

// createHandler is the root coroutine for a create-kind native request,
// spec.md §4.6.
func (c *Core) createHandler(ctx *Context) coro.Step {
	ctx.ino = wire.RootIno

	return func(resume any) coro.Outcome {
		if ctx.Request.Create.NamedStream {
			ctx.Response.IoStatus.Status = posix.StatusObjectNameInvalid
			return coro.Exit()
		}

		if err := c.prepareContext(ctx); err != nil {
			ctx.Response.IoStatus.Status = posix.StatusAccessDenied
			return coro.Exit()
		}

		if ctx.Request.Create.OpenTargetDirectory {
			ctx.Response.IoStatus.Status = posix.StatusNotImplemented
			return coro.Exit()
		}

		components := splitPosixPath(ctx.posixPath)

		switch ctx.Request.Create.Disposition() {
		case nativefs.FileOpen:
			if len(components) == 0 {
				finishRootOnly(ctx)
				return coro.Exit()
			}
			return walkPath(ctx, components, lookupOneComponentStep)(nil)

		case nativefs.FileCreate:
			if len(components) == 0 {
				ctx.Response.IoStatus.Status = posix.StatusObjectNameCollision
				return coro.Exit()
			}
			return walkPath(ctx, components, createComponentStep)(nil)

		case nativefs.FileOpenIf, nativefs.FileOverwrite, nativefs.FileOverwriteIf, nativefs.FileSupersede:
			ctx.Response.IoStatus.Status = posix.StatusNotImplemented
			return coro.Exit()

		default:
			ctx.Response.IoStatus.Status = posix.StatusInvalidParameter
			return coro.Exit()
		}
	}
}

// prepareContext is spec.md §4.7: translate the native path to POSIX and,
// if the request carries an access token, resolve the caller's identity.
func (c *Core) prepareContext(ctx *Context) error {
	ctx.posixPath = translateNativePath(ctx.Request.Create.Path)

	if ctx.Request.Create.AccessToken == 0 {
		return nil
	}

	triple, err := c.resolver.Resolve(ctx.Request.Create.AccessToken)
	if err != nil {
		return err
	}
	ctx.origUID, ctx.origGID, ctx.origPID = triple.UID, triple.GID, triple.PID
	return nil
}

// finishRootOnly is spec.md §8 scenario 1: opening the volume root
// requires no LOOKUP exchange.
func finishRootOnly(ctx *Context) {
	desired := ctx.Request.Create.DesiredAccess
	if !ctx.Request.Create.UserMode {
		ctx.Response.Create.GrantedAccess = kernelModeGrantedAccess(desired)
	} else {
		ctx.Response.Create.GrantedAccess = desired
	}
	ctx.Response.IoStatus.Status = posix.StatusSuccess
}

// cleanupHandler and closeHandler complete synchronously with
// INVALID_DEVICE_REQUEST, spec.md §4.6: "declared so that the dispatch
// table is populated", not yet elaborated.
func cleanupHandler(ctx *Context) coro.Step {
	return func(resume any) coro.Outcome {
		ctx.Response.IoStatus.Status = posix.StatusInvalidDeviceRequest
		return coro.Exit()
	}
}

func closeHandler(ctx *Context) coro.Step {
	return func(resume any) coro.Outcome {
		ctx.Response.IoStatus.Status = posix.StatusInvalidDeviceRequest
		return coro.Exit()
	}
}
