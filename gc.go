// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc implements an embeddable tracing garbage collector for
// host programs that need cyclic, explicitly collected object graphs,
// such as scripting language runtimes.
//
// The host allocates objects into a Context with Allocate and gets
// back a cheap, copyable Gc handle. A handle keeps nothing alive by
// itself: an object survives Collect only while it is transitively
// reachable from a pinned root (see Root and HeapRoot). Collection is
// a stop-the-world tri-color mark-and-sweep pass, driven entirely by
// the host's calls to Collect. Weak handles (see Weak) do not extend
// reachability and become stale when their referent is swept.
//
// Because Go cannot express the borrow discipline of this design in
// the type system, the rules are enforced dynamically: every handle is
// branded with its owning context, every API call checks the brand,
// and sweeping poisons dead objects so that a stale handle fails
// loudly instead of reading freed state. These checks are on by
// default and compile out under the "gcrelease" build tag.
//
// The discipline itself is simple: do not hold a pointer obtained from
// Borrow or BorrowMut across a call to Collect, Allocate only outside
// of trace callbacks, and keep anything you need across a Collect
// reachable from a root.
package gc

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// gcFlags is the flag byte in an object header. The low two bits hold
// the tri-color mark state; the remaining bits are boolean flags.
type gcFlags uint8

const (
	colorWhite gcFlags = 0 // not yet reached
	colorGray  gcFlags = 1 // reached, payload not yet scanned
	colorBlack gcFlags = 2 // reached and scanned
	colorMask  gcFlags = 3

	// flagNeedsTrace is set if the payload type transitively
	// contains managed handles. Objects without it are never
	// scanned during marking.
	flagNeedsTrace gcFlags = 1 << 2
)

func (f gcFlags) color() gcFlags { return f & colorMask }

func (f *gcFlags) setColor(c gcFlags) { *f = *f&^colorMask | c }

// A vtbl is the erased per-type descriptor shared by every object of
// one payload type. Objects of unrelated types share one heap list, so
// the header refers to its payload only through these callbacks.
type vtbl struct {
	// trace visits every managed handle directly reachable from
	// the payload at value. nil if the type has no Trace method.
	trace func(value unsafe.Pointer, tc *Tracing)

	// dealloc reclaims the object: it zeroes the payload, dropping
	// its outgoing references, and poisons the header. The heap
	// list unlink is the caller's job.
	dealloc func(h *header)

	// off is the payload's offset from the header.
	off uintptr

	needsTrace bool
	typ        reflect.Type
}

// A header is the fixed-size prefix of every managed allocation. It is
// never moved and never reused for a different object.
type header struct {
	vtbl  *vtbl
	flags gcFlags
	ctxID uint32 // brand of the owning Context
	weak  weakID // zero until the first Downgrade
	next  *header
}

// object is the full allocation: a header followed in place by the
// typed payload.
type object[T any] struct {
	header
	value T
}

func (h *header) payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), h.vtbl.off)
}

// poison marks h as dead. Any later API use of a handle to h trips the
// vtbl == nil check in debug builds.
func (h *header) poison() {
	h.vtbl = nil
	h.weak = weakID{}
	h.next = nil
}

// A Gc is a handle to a managed object with payload type T. Handles
// are cheap to copy and compare, and the zero Gc is a valid "no
// object" value.
//
// A Gc does not keep its object alive. The object survives Collect
// only while some pinned root reaches it, so any handle the host wants
// to use after a Collect must be kept reachable from a root.
type Gc[T any] struct {
	h *header
}

// IsNil reports whether g is the zero handle.
func (g Gc[T]) IsNil() bool { return g.h == nil }

// Borrow returns a pointer to the payload for reading. The pointer
// must not be held across a call to Collect, Destroy, or BorrowMut on
// the same context.
func (g Gc[T]) Borrow(ctx *Context) *T {
	ctx.checkHandle(g.h)
	return &(*object[T])(unsafe.Pointer(g.h)).value
}

// BorrowMut returns a pointer to the payload for writing. The pointer
// must not be held across a call to Collect or Destroy, and no other
// borrow of any object may be live for its duration.
func (g Gc[T]) BorrowMut(ctx *Context) *T {
	ctx.checkHandle(g.h)
	return &(*object[T])(unsafe.Pointer(g.h)).value
}

// Downgrade returns a weak handle to g's object. The first Downgrade
// of an object assigns it a slot in the context's weak table; later
// calls reuse it.
func (g Gc[T]) Downgrade(ctx *Context) Weak[T] {
	ctx.checkHandle(g.h)
	id := g.h.weak
	if id == (weakID{}) {
		id = ctx.weaks.insert(g.h)
		g.h.weak = id
	}
	return Weak[T]{id: id, ctxID: g.h.ctxID}
}

// PtrEq reports whether g and other refer to the same object.
func (g Gc[T]) PtrEq(other Gc[T]) bool { return g.h == other.h }

// UnsafePtr returns the address of the payload without any liveness
// check. It is intended for hosts that key interning tables by object
// identity; dereferencing it is subject to the same rules as Borrow.
func (g Gc[T]) UnsafePtr() unsafe.Pointer {
	if g.h == nil {
		return nil
	}
	return g.h.payload()
}

// Trace visits the handle itself. This makes Gc usable directly as a
// struct field in traceable types.
func (g Gc[T]) Trace(tc *Tracing) { tc.visit(g.h) }

// vtbls caches the descriptor for each payload type. The cache is
// process-global: descriptors carry no per-context state.
var (
	vtblMu sync.Mutex
	vtbls  = map[reflect.Type]*vtbl{}
)

var tracerType = reflect.TypeOf((*Tracer)(nil)).Elem()

func vtblFor[T any]() *vtbl {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	vtblMu.Lock()
	defer vtblMu.Unlock()
	if vt, ok := vtbls[rt]; ok {
		return vt
	}
	vt := &vtbl{
		off:        unsafe.Offsetof(object[T]{}.value),
		needsTrace: typeNeedsTrace(rt, nil),
		typ:        rt,
	}
	if rt.Implements(tracerType) || reflect.PointerTo(rt).Implements(tracerType) {
		vt.trace = func(p unsafe.Pointer, tc *Tracing) {
			any((*T)(p)).(Tracer).Trace(tc)
		}
	} else if vt.needsTrace {
		// A payload that holds managed handles but cannot be
		// scanned would let marking miss live objects.
		panic(fmt.Sprintf("gc: type %v contains managed handles but does not implement gc.Tracer", rt))
	}
	vt.dealloc = func(h *header) {
		o := (*object[T])(unsafe.Pointer(h))
		var zero T
		o.value = zero
		h.poison()
	}
	vtbls[rt] = vt
	return vt
}

// typeNeedsTrace reports whether rt transitively contains managed
// handles. Implementing Tracer counts: Gc and Weak themselves do, and
// a type that went to the trouble of a Trace method is assumed to have
// something to visit. Interface-typed fields are conservatively
// assumed managed.
func typeNeedsTrace(rt reflect.Type, seen map[reflect.Type]bool) bool {
	if rt.Implements(tracerType) || reflect.PointerTo(rt).Implements(tracerType) {
		return true
	}
	if seen[rt] {
		return false
	}
	switch rt.Kind() {
	case reflect.Struct:
		if seen == nil {
			seen = map[reflect.Type]bool{}
		}
		seen[rt] = true
		for i := 0; i < rt.NumField(); i++ {
			if typeNeedsTrace(rt.Field(i).Type, seen) {
				return true
			}
		}
	case reflect.Slice, reflect.Array, reflect.Pointer:
		return typeNeedsTrace(rt.Elem(), seen)
	case reflect.Map:
		return typeNeedsTrace(rt.Key(), seen) || typeNeedsTrace(rt.Elem(), seen)
	case reflect.Interface:
		return true
	}
	return false
}
