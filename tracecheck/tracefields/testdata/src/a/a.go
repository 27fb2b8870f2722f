package a

import gc "github.com/aclements/go-gc"

type Node struct {
	name string
	next gc.Gc[Node]
	prev gc.Gc[Node]
}

func (n *Node) Trace(tc *gc.Tracing) { // want `Trace method does not visit field prev of a\.Node`
	n.next.Trace(tc)
}

type Complete struct {
	next gc.Gc[Complete]
	weak gc.Weak[Complete]
	kids []gc.Gc[Complete]
	num  int
}

func (c *Complete) Trace(tc *gc.Tracing) {
	c.next.Trace(tc)
	c.weak.Trace(tc)
	gc.TraceSlice(tc, c.kids)
}

type Inner struct {
	obj gc.Gc[Node]
}

type Nested struct {
	inner Inner
	label string
}

func (n *Nested) Trace(tc *gc.Tracing) { // want `Trace method does not visit field inner of a\.Nested`
	_ = n.label
}

// Indirect mention through a local still counts as a visit.
type ViaLocal struct {
	next gc.Gc[ViaLocal]
}

func (v *ViaLocal) Trace(tc *gc.Tracing) {
	p := v.next
	p.Trace(tc)
}

// Not the collector's Trace shape: ignored.
type Other struct {
	next gc.Gc[Other]
}

func (o *Other) Trace(s string) {}
