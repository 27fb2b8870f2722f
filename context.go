// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"errors"
	"sync"
)

// A Context owns one managed heap: the list of live objects, the list
// of pinned roots, the weak table, and the mark work queue. All
// operations on a context and on handles it vended must happen from a
// single goroutine; the context does no locking of its own.
//
// At most one context is live in the process at a time. NewContext
// fails while another context exists, and Destroy frees the slot.
type Context struct {
	id      uint32
	roots   *rootHeader
	objects *header
	weaks   weakArena
	queue   []*header
	marking bool
	dead    bool

	collects uint32
}

// The live-context slot. This is what lets NewContext enforce the
// one-context rule, including after a context handle is dropped
// without Destroy (the slot then stays occupied and NewContext keeps
// failing, which beats silently reusing it).
var (
	ctxMu     sync.Mutex
	ctxLive   *Context
	ctxNextID uint32 = 1
)

// ErrContextLive is returned by NewContext while another context
// exists.
var ErrContextLive = errors.New("gc: context already created")

// NewContext creates an empty managed heap. It fails with
// ErrContextLive if a context created earlier has not been destroyed.
func NewContext() (*Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctxLive != nil {
		return nil, ErrContextLive
	}
	c := &Context{id: ctxNextID}
	ctxNextID++
	ctxLive = c
	return c, nil
}

// Allocate adds a new object holding value to the heap and returns a
// handle to it. The object is unreachable until the host stores the
// handle somewhere a root can see, so it is garbage for the next
// Collect unless rooted first.
//
// If T transitively contains managed handles it must implement Tracer;
// Allocate panics otherwise. Allocation never triggers a collection.
func Allocate[T any](c *Context, value T) Gc[T] {
	c.checkMutate()
	vt := vtblFor[T]()
	o := &object[T]{value: value}
	o.vtbl = vt
	if vt.needsTrace {
		o.flags = flagNeedsTrace
	}
	o.ctxID = c.id
	o.next = c.objects
	c.objects = &o.header
	return Gc[T]{h: &o.header}
}

// Collect runs a full stop-the-world mark-and-sweep pass. Every object
// not reachable from a pinned root is freed, cycles included, and its
// weak table entry (if any) is removed. Pointers previously obtained
// from Borrow or BorrowMut must not be used again after Collect
// returns.
func (c *Context) Collect() {
	c.checkMutate()

	// Mark: roots first, then drain the gray queue. The queue is a
	// stack, so marking descends depth-first from each root.
	tc := &Tracing{ctx: c}
	c.marking = true
	for r := c.roots; r != nil; r = r.next {
		if r.vtbl.trace != nil {
			r.vtbl.trace(r.value, tc)
		}
	}
	for len(c.queue) > 0 {
		h := c.queue[len(c.queue)-1]
		c.queue = c.queue[:len(c.queue)-1]
		h.flags.setColor(colorBlack)
		if h.flags&flagNeedsTrace != 0 {
			h.vtbl.trace(h.payload(), tc)
		}
	}
	c.marking = false

	// Sweep. next must be loaded before dealloc poisons the
	// header; the header is never touched after its dealloc runs.
	var prev *header
	for obj := c.objects; obj != nil; {
		next := obj.next
		if obj.flags.color() != colorWhite {
			obj.flags.setColor(colorWhite)
			prev = obj
		} else {
			if prev != nil {
				prev.next = next
			} else {
				c.objects = next
			}
			if obj.weak != (weakID{}) {
				c.weaks.remove(obj.weak)
			}
			obj.vtbl.dealloc(obj)
		}
		obj = next
	}

	c.collects++
}

// Destroy frees every remaining object and releases the context. All
// roots must be unpinned first; Destroy panics with live roots and
// changes nothing. After Destroy, NewContext succeeds again.
func (c *Context) Destroy() {
	if c.roots != nil {
		panic("gc: roots still exist")
	}
	c.checkMutate()
	for obj := c.objects; obj != nil; {
		next := obj.next
		obj.vtbl.dealloc(obj)
		obj = next
	}
	c.objects = nil
	c.weaks = weakArena{}
	c.queue = nil
	c.dead = true

	ctxMu.Lock()
	if ctxLive == c {
		ctxLive = nil
	}
	ctxMu.Unlock()
}

// Collections returns the number of completed Collect passes.
func (c *Context) Collections() uint32 { return c.collects }

// NumObjects returns the number of objects currently in the heap,
// reachable or not. It walks the heap list.
func (c *Context) NumObjects() int {
	n := 0
	for obj := c.objects; obj != nil; obj = obj.next {
		n++
	}
	return n
}

func (c *Context) insertRoot(r *rootHeader) {
	if c.roots != nil {
		c.roots.prev = r
	}
	r.prev = nil
	r.next = c.roots
	c.roots = r
}

func (c *Context) removeRoot(r *rootHeader) {
	if r.next != nil {
		r.next.prev = r.prev
	}
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		c.roots = r.next
	}
	r.next = nil
	r.prev = nil
}

// checkHandle validates a handle-taking access in debug builds: the
// handle is non-nil, its object has not been swept, it belongs to this
// context, and no collection is marking.
func (c *Context) checkHandle(h *header) {
	if !debugChecks {
		return
	}
	if h == nil {
		panic("gc: nil handle")
	}
	if h.vtbl == nil {
		panic("gc: use of collected object")
	}
	if h.ctxID != c.id {
		panic("gc: handle belongs to a different context")
	}
	if c.marking {
		panic("gc: heap access during collection")
	}
	if c.dead {
		panic("gc: use of destroyed context")
	}
}

// checkMutate validates a context-mutating call (Allocate, Collect,
// Destroy) in debug builds.
func (c *Context) checkMutate() {
	if !debugChecks {
		return
	}
	if c.marking {
		panic("gc: re-entrant call during collection")
	}
	if c.dead {
		panic("gc: use of destroyed context")
	}
}
