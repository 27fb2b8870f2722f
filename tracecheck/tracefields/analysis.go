// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracefields defines an Analyzer that checks Trace methods
// against their receiver's fields. A Trace method that fails to visit
// a managed field is invisible to the collector and shows up only as
// a premature free at some unrelated call site, so the mistake is
// worth catching statically.
package tracefields

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

const gcImportPath = "github.com/aclements/go-gc"

var Analyzer = &analysis.Analyzer{
	Name: "tracefields",
	Doc:  "check that Trace methods mention every field holding managed handles",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, f := range pass.Files {
		for _, decl := range f.Decls {
			decl, ok := decl.(*ast.FuncDecl)
			if !ok || decl.Name.Name != "Trace" || decl.Recv == nil || decl.Body == nil {
				continue
			}
			if !isTraceSig(pass, decl) {
				continue
			}
			checkTrace(pass, decl)
		}
	}
	return nil, nil
}

// isTraceSig reports whether decl has the Trace(*gc.Tracing) shape.
func isTraceSig(pass *analysis.Pass, decl *ast.FuncDecl) bool {
	params := decl.Type.Params.List
	if len(params) != 1 {
		return false
	}
	ptr, ok := pass.TypesInfo.TypeOf(params[0].Type).(*types.Pointer)
	if !ok {
		return false
	}
	return isGcNamed(ptr.Elem(), "Tracing")
}

func isGcNamed(t types.Type, names ...string) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != gcImportPath {
		return false
	}
	for _, name := range names {
		if obj.Name() == name {
			return true
		}
	}
	return false
}

func checkTrace(pass *analysis.Pass, decl *ast.FuncDecl) {
	recvField := decl.Recv.List[0]
	// An unnamed receiver can visit nothing: recvObj stays nil and
	// every managed field is reported.
	var recvObj types.Object
	if len(recvField.Names) > 0 {
		recvObj = pass.TypesInfo.Defs[recvField.Names[0]]
	}
	recvType := pass.TypesInfo.TypeOf(recvField.Type)
	if recvType == nil {
		return
	}
	if ptr, ok := recvType.(*types.Pointer); ok {
		recvType = ptr.Elem()
	}
	st, ok := recvType.Underlying().(*types.Struct)
	if !ok {
		return
	}

	// Collect every receiver field the body mentions.
	mentioned := map[string]bool{}
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && recvObj != nil && pass.TypesInfo.Uses[id] == recvObj {
			mentioned[sel.Sel.Name] = true
		}
		return true
	})

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !containsManaged(field.Type(), nil) {
			continue
		}
		if !mentioned[field.Name()] {
			pass.Reportf(decl.Pos(), "Trace method does not visit field %s of %s",
				field.Name(), typeString(pass, recvType))
		}
	}
}

func typeString(pass *analysis.Pass, t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string {
		return p.Name()
	})
}

// containsManaged reports whether t transitively holds a gc.Gc or
// gc.Weak handle without crossing a heap boundary. Interface types are
// conservatively managed.
func containsManaged(t types.Type, seen map[*types.Named]bool) bool {
	switch t := t.(type) {
	case *types.Named:
		if isGcNamed(t, "Gc", "Weak") {
			return true
		}
		if seen[t] {
			return false
		}
		if seen == nil {
			seen = map[*types.Named]bool{}
		}
		seen[t] = true
		return containsManaged(t.Underlying(), seen)
	case *types.Alias:
		return containsManaged(types.Unalias(t), seen)
	case *types.Struct:
		for i := 0; i < t.NumFields(); i++ {
			if containsManaged(t.Field(i).Type(), seen) {
				return true
			}
		}
	case *types.Pointer:
		return containsManaged(t.Elem(), seen)
	case *types.Slice:
		return containsManaged(t.Elem(), seen)
	case *types.Array:
		return containsManaged(t.Elem(), seen)
	case *types.Map:
		return containsManaged(t.Key(), seen) || containsManaged(t.Elem(), seen)
	case *types.Chan:
		return containsManaged(t.Elem(), seen)
	case *types.Interface:
		return true
	}
	return false
}
