// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

// A weakID names a slot in a context's weak table. The generation
// makes slot reuse visible: an id minted before a slot was freed never
// matches the slot's current generation again. The zero weakID is
// reserved as "no id"; generations start at 1.
type weakID struct {
	idx uint32
	gen uint32
}

type weakSlot struct {
	gen uint32
	obj *header // nil while the slot is free
}

// A weakArena maps weakIDs to object headers. Each object owns at most
// one id, assigned lazily by the first Downgrade and removed by the
// sweep that frees the object.
type weakArena struct {
	slots []weakSlot
	free  []uint32
}

func (a *weakArena) insert(h *header) weakID {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].obj = h
		return weakID{idx: idx, gen: a.slots[idx].gen}
	}
	a.slots = append(a.slots, weakSlot{gen: 1, obj: h})
	return weakID{idx: uint32(len(a.slots) - 1), gen: 1}
}

func (a *weakArena) get(id weakID) *header {
	if id.gen == 0 || int(id.idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[id.idx]
	if s.gen != id.gen {
		return nil
	}
	return s.obj
}

// remove frees id's slot. Bumping the generation invalidates every
// outstanding copy of id before the slot can be handed out again.
func (a *weakArena) remove(id weakID) {
	if id.gen == 0 || int(id.idx) >= len(a.slots) {
		return
	}
	s := &a.slots[id.idx]
	if s.gen != id.gen {
		return
	}
	s.obj = nil
	s.gen++
	a.free = append(a.free, id.idx)
}

func (a *weakArena) len() int {
	return len(a.slots) - len(a.free)
}
