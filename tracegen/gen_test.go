// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

func gen(t *testing.T, src string) (string, error) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := newPkgGen(fset, f.Name.Name, []*ast.File{f}).generate()
	return string(out), err
}

func TestGenerate(t *testing.T) {
	for _, test := range []struct {
		name string
		src  string
		want string
	}{
		{
			"handles",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Node struct {
	name string
	next gc.Gc[Node]
	weak gc.Weak[Node]
}
`,
			`// Code generated by tracegen; DO NOT EDIT.

package demo

import gc "github.com/aclements/go-gc"

func (n *Node) Trace(tc *gc.Tracing) {
	n.next.Trace(tc)
	n.weak.Trace(tc)
}

var _ gc.Tracer = (*Node)(nil)
`,
		},
		{
			"containers",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Scope struct {
	vars   map[string]gc.Gc[Scope]
	stack  []gc.Gc[Scope]
	parent *Scope
	depth  int
}
`,
			`// Code generated by tracegen; DO NOT EDIT.

package demo

import gc "github.com/aclements/go-gc"

func (s *Scope) Trace(tc *gc.Tracing) {
	gc.TraceMap(tc, s.vars)
	for i := range s.stack {
		s.stack[i].Trace(tc)
	}
	gc.TracePtr(tc, s.parent)
}

var _ gc.Tracer = (*Scope)(nil)
`,
		},
		{
			"localTypesAndDirectives",
			`package demo

import mygc "github.com/aclements/go-gc"

//gc:trace
type Outer struct {
	inner Inner
	note  string //gc:skip
	extra Custom //gc:traced
}

//gc:trace
type Inner struct {
	obj mygc.Gc[Outer]
}

type Custom struct{}

func (c *Custom) Trace(tc *mygc.Tracing) {}
`,
			`// Code generated by tracegen; DO NOT EDIT.

package demo

import gc "github.com/aclements/go-gc"

func (o *Outer) Trace(tc *gc.Tracing) {
	o.inner.Trace(tc)
	o.extra.Trace(tc)
}

var _ gc.Tracer = (*Outer)(nil)

func (i *Inner) Trace(tc *gc.Tracing) {
	i.obj.Trace(tc)
}

var _ gc.Tracer = (*Inner)(nil)
`,
		},
		{
			"pointerFree",
			`package demo

//gc:trace
type Plain struct {
	a int
	b []string
	c map[string]float64
}
`,
			`// Code generated by tracegen; DO NOT EDIT.

package demo

import gc "github.com/aclements/go-gc"

func (p *Plain) Trace(tc *gc.Tracing) {
}

var _ gc.Tracer = (*Plain)(nil)
`,
		},
		{
			"tracerInterface",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Holder struct {
	any gc.Tracer
}
`,
			`// Code generated by tracegen; DO NOT EDIT.

package demo

import gc "github.com/aclements/go-gc"

func (h *Holder) Trace(tc *gc.Tracing) {
	if h.any != nil {
		h.any.Trace(tc)
	}
}

var _ gc.Tracer = (*Holder)(nil)
`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := gen(t, test.src)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if got != test.want {
				t.Errorf("generated output mismatch:\ngot:\n%s\nwant:\n%s", got, test.want)
			}
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		src  string
		want string // substring of the diagnostic
	}{
		{
			"unmarkedManaged",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Outer struct {
	inner Inner
}

type Inner struct {
	obj gc.Gc[Outer]
}
`,
			"has no Trace method",
		},
		{
			"managedMapValue",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Outer struct {
	m map[string]Inner
}

//gc:trace
type Inner struct {
	obj gc.Gc[Outer]
}
`,
			"managed map value type",
		},
		{
			"interfaceField",
			`package demo

//gc:trace
type Outer struct {
	x interface{ M() }
}
`,
			"interface types other than gc.Tracer",
		},
		{
			"managedChan",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Outer struct {
	ch chan gc.Gc[Outer]
}
`,
			"must not flow through channels",
		},
		{
			"nonStruct",
			`package demo

//gc:trace
type Alias int
`,
			"requires a struct type",
		},
		{
			"generic",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Box[T any] struct {
	obj gc.Gc[Box[T]]
}
`,
			"generic types are not supported",
		},
		{
			"alreadyHasTrace",
			`package demo

import "github.com/aclements/go-gc"

//gc:trace
type Outer struct {
	obj gc.Gc[Outer]
}

func (o *Outer) Trace(tc *gc.Tracing) {}
`,
			"already has a Trace method",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := gen(t, test.src)
			if err == nil {
				t.Fatalf("generate succeeded, want diagnostic containing %q", test.want)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("diagnostic = %q, want substring %q", err, test.want)
			}
		})
	}
}
