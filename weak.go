// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "unsafe"

// A Weak is a handle that does not keep its object alive. It is
// created by Gc.Downgrade and resolved against the context's weak
// table: once the object is swept, every Weak that referred to it
// misses, permanently. The zero Weak never resolves.
//
// Weak handles are cheap to copy and are traced as a no-op, so a weak
// field never extends reachability.
type Weak[T any] struct {
	id    weakID
	ctxID uint32
}

// IsNil reports whether w is the zero handle. A non-nil Weak may still
// fail to resolve if its referent has been collected.
func (w Weak[T]) IsNil() bool { return w.id == (weakID{}) }

// Upgrade returns a strong handle to w's object, or false if it has
// been collected. The returned handle is subject to the usual
// discipline: it does not root the object, so it is valid only until
// the next Collect unless pinned.
func (w Weak[T]) Upgrade(ctx *Context) (Gc[T], bool) {
	w.check(ctx)
	h := ctx.weaks.get(w.id)
	if h == nil {
		return Gc[T]{}, false
	}
	return Gc[T]{h: h}, true
}

// Borrow returns a pointer to the payload for reading, or false if the
// object has been collected. The pointer must not be held across a
// Collect.
func (w Weak[T]) Borrow(ctx *Context) (*T, bool) {
	w.check(ctx)
	h := ctx.weaks.get(w.id)
	if h == nil {
		return nil, false
	}
	ctx.checkHandle(h)
	return &(*object[T])(unsafe.Pointer(h)).value, true
}

// Trace is a no-op: weak edges do not mark their referents, which may
// be swept in the same cycle that traced w.
func (w Weak[T]) Trace(tc *Tracing) {}

func (w Weak[T]) check(ctx *Context) {
	if !debugChecks {
		return
	}
	if w.ctxID != 0 && w.ctxID != ctx.id {
		panic("gc: handle belongs to a different context")
	}
	if ctx.marking {
		panic("gc: heap access during collection")
	}
	if ctx.dead {
		panic("gc: use of destroyed context")
	}
}
