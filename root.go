// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "unsafe"

// A rootHeader is the intrusive record linking a pinned value into the
// context's root list. The list is doubly linked so unpinning is O(1)
// anywhere in it. value is the stable address of the pinned payload;
// the mark phase hands it to vtbl.trace directly.
type rootHeader struct {
	vtbl       *vtbl
	prev, next *rootHeader
	value      unsafe.Pointer
	ctx        *Context
}

// A Root pins a value so the collector treats everything it reaches as
// live. The value is owned by the caller: create the root where the
// value is needed and unpin it on the way out, typically
//
//	r := gc.NewRoot(ctx, node)
//	defer r.Unpin()
//
// The pinned payload has a stable address for the root's lifetime;
// Get returns it.
type Root[T any] struct {
	rec   rootHeader
	value T
}

// NewRoot pins value into ctx's root set and returns the root record.
// T must be traceable (see Allocate); pinning a value whose handles
// the collector cannot see would be useless.
func NewRoot[T any](ctx *Context, value T) *Root[T] {
	if debugChecks && ctx.dead {
		panic("gc: use of destroyed context")
	}
	r := &Root[T]{value: value}
	r.rec.vtbl = vtblFor[T]()
	r.rec.value = unsafe.Pointer(&r.value)
	r.rec.ctx = ctx
	ctx.insertRoot(&r.rec)
	return r
}

// Unpin removes the root from its context. The value it pinned becomes
// garbage at the next Collect unless another root still reaches it.
// Unpin must be called exactly once.
func (r *Root[T]) Unpin() {
	if debugChecks && r.rec.ctx == nil {
		panic("gc: root unpinned twice")
	}
	r.rec.ctx.removeRoot(&r.rec)
	r.rec.ctx = nil
}

// Get returns the stable address of the pinned value.
func (r *Root[T]) Get() *T { return &r.value }

// Set replaces the pinned value.
func (r *Root[T]) Set(value T) { r.value = value }

// A HeapRoot is a pinned value whose storage is owned by the context
// side rather than a caller's frame: it stays pinned until the host
// explicitly calls Release, however far the handle travels in the
// meantime. Use it for long-lived anchors like a runtime's global
// object.
type HeapRoot[T any] struct {
	root *Root[T]
}

// NewHeapRoot pins value and returns the owning handle.
func NewHeapRoot[T any](ctx *Context, value T) *HeapRoot[T] {
	return &HeapRoot[T]{root: NewRoot(ctx, value)}
}

// Release unpins the root. It must be called exactly once.
func (h *HeapRoot[T]) Release() { h.root.Unpin() }

// Get returns the stable address of the pinned value.
func (h *HeapRoot[T]) Get() *T { return h.root.Get() }

// Set replaces the pinned value.
func (h *HeapRoot[T]) Set(value T) { h.root.Set(value) }
