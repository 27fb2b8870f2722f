// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// A Tracer is a type whose values can live in the managed heap or in a
// root. Trace must visit every managed handle reachable from the value
// without crossing another heap object: call Trace on each Gc and Weak
// field (directly or through the Trace* helpers) and recurse into
// inline structs, slices, and maps that contain them. Missing a field
// is not detectable by the collector and causes premature frees; the
// tracegen tool generates conforming methods mechanically and the
// tracecheck analyzer flags hand-written methods that skip fields.
//
// Trace implementations must do nothing but visit: they must not
// allocate, downgrade, borrow, or otherwise re-enter the owning
// context. Collect runs them with the context in marking state, where
// re-entry panics in debug builds. A panic out of Trace leaves the
// collection half done and the context must be considered poisoned.
//
// Types without managed handles (ints, strings, and aggregates of
// them) need no Trace method; the collector classifies them
// structurally and never scans them.
type Tracer interface {
	Trace(tc *Tracing)
}

// A Tracing is the visitor state handed to Trace methods during the
// mark phase. It records newly reached objects on the context's work
// queue.
type Tracing struct {
	ctx *Context
}

func (tc *Tracing) visit(h *header) {
	if h == nil {
		return
	}
	if h.flags.color() == colorWhite {
		h.flags.setColor(colorGray)
		tc.ctx.queue = append(tc.ctx.queue, h)
	}
}

// TracePtr visits the value p points to, if any. Use it for optional
// fields held behind a pointer.
func TracePtr[T any, P interface {
	*T
	Tracer
}](tc *Tracing, p P) {
	if p != nil {
		p.Trace(tc)
	}
}

// TraceSlice visits every element of s.
func TraceSlice[T Tracer](tc *Tracing, s []T) {
	for i := range s {
		s[i].Trace(tc)
	}
}

// TraceMap visits every value of m. Use TraceMapKV when the keys are
// managed too.
func TraceMap[K comparable, V Tracer](tc *Tracing, m map[K]V) {
	for _, v := range m {
		v.Trace(tc)
	}
}

// TraceMapKV visits every key and value of m.
func TraceMapKV[K interface {
	comparable
	Tracer
}, V Tracer](tc *Tracing, m map[K]V) {
	for k, v := range m {
		k.Trace(tc)
		v.Trace(tc)
	}
}
