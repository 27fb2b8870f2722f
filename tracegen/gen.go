// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"strconv"
	"strings"
)

// gcImportPath is the collector package every generated file imports.
const gcImportPath = "github.com/aclements/go-gc"

// A genError is a diagnostic tied to a source position.
type genError struct {
	pos token.Position
	msg string
}

func (e genError) Error() string {
	return fmt.Sprintf("%s: %s", e.pos, e.msg)
}

// A pkgGen accumulates everything generation needs to know about one
// package: its type declarations, which of them are marked //gc:trace,
// which have a Trace method already, and the per-file import name of
// the gc package.
type pkgGen struct {
	fset    *token.FileSet
	pkgName string
	files   []*ast.File

	gcName map[*ast.File]string   // import alias of gcImportPath, "" if not imported
	decls  map[string]*typeDecl   // local type name -> decl
	order  []string               // marked types in declaration order
	errs   []error
}

type typeDecl struct {
	spec     *ast.TypeSpec
	file     *ast.File
	marked   bool
	hasTrace bool
}

// markerIn reports whether a comment group carries the given //gc:
// marker as its own line.
func markerIn(cg *ast.CommentGroup, marker string) bool {
	if cg == nil {
		return false
	}
	for _, c := range cg.List {
		if strings.TrimSpace(c.Text) == marker {
			return true
		}
	}
	return false
}

// newPkgGen scans the files of one package. files must all belong to
// the same package and be parsed with comments.
func newPkgGen(fset *token.FileSet, pkgName string, files []*ast.File) *pkgGen {
	g := &pkgGen{
		fset:    fset,
		pkgName: pkgName,
		files:   files,
		gcName:  make(map[*ast.File]string),
		decls:   make(map[string]*typeDecl),
	}
	for _, f := range files {
		for _, imp := range f.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			if path != gcImportPath {
				continue
			}
			name := "gc"
			if imp.Name != nil {
				name = imp.Name.Name
			}
			g.gcName[f] = name
		}
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					continue
				}
				declMarked := markerIn(decl.Doc, "//gc:trace")
				for _, spec := range decl.Specs {
					spec := spec.(*ast.TypeSpec)
					td := &typeDecl{
						spec:   spec,
						file:   f,
						marked: declMarked || markerIn(spec.Doc, "//gc:trace"),
					}
					g.decls[spec.Name.Name] = td
					if td.marked {
						g.order = append(g.order, spec.Name.Name)
					}
				}
			case *ast.FuncDecl:
				if decl.Name.Name != "Trace" || decl.Recv == nil || len(decl.Recv.List) != 1 {
					continue
				}
				if name, ok := recvTypeName(decl.Recv.List[0].Type); ok {
					if td := g.decls[name]; td != nil {
						td.hasTrace = true
					} else {
						// Method may precede the type decl
						// across files; fix up later.
						defer func(name string) {
							if td := g.decls[name]; td != nil {
								td.hasTrace = true
							}
						}(name)
					}
				}
			}
		}
	}
	return g
}

func recvTypeName(t ast.Expr) (string, bool) {
	if st, ok := t.(*ast.StarExpr); ok {
		t = st.X
	}
	if ix, ok := t.(*ast.IndexExpr); ok {
		t = ix.X
	}
	if ix, ok := t.(*ast.IndexListExpr); ok {
		t = ix.X
	}
	id, ok := t.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func (g *pkgGen) errorf(pos token.Pos, format string, args ...interface{}) {
	g.errs = append(g.errs, genError{g.fset.Position(pos), fmt.Sprintf(format, args...)})
}

// isGcHandle reports whether t names gc.Gc or gc.Weak (under the
// file's import alias), the two handle types with value-receiver Trace
// methods.
func (g *pkgGen) isGcHandle(t ast.Expr, f *ast.File) bool {
	switch t := t.(type) {
	case *ast.IndexExpr:
		return g.isGcHandle(t.X, f)
	case *ast.IndexListExpr:
		return g.isGcHandle(t.X, f)
	case *ast.SelectorExpr:
		id, ok := t.X.(*ast.Ident)
		if !ok || id.Name != g.gcName[f] || g.gcName[f] == "" {
			return false
		}
		return t.Sel.Name == "Gc" || t.Sel.Name == "Weak"
	}
	return false
}

// isTracerIface reports whether t is the gc.Tracer interface type.
func (g *pkgGen) isTracerIface(t ast.Expr, f *ast.File) bool {
	sel, ok := t.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	return ok && g.gcName[f] != "" && id.Name == g.gcName[f] && sel.Sel.Name == "Tracer"
}

// traceableLocal reports whether name is a local type that will have a
// Trace method: either marked for generation or already carrying one.
func (g *pkgGen) traceableLocal(name string) bool {
	td := g.decls[name]
	return td != nil && (td.marked || td.hasTrace)
}

// containsManaged reports whether the type t can reach a managed
// handle without crossing a heap boundary. It is syntactic: local
// named types are resolved through their declarations, interface types
// are conservatively managed, and anything from another package is
// not (cross-package managed fields must be Tracer-valued or carry a
// //gc:traced directive).
func (g *pkgGen) containsManaged(t ast.Expr, f *ast.File, visiting map[string]bool) bool {
	switch t := t.(type) {
	case *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr:
		return g.isGcHandle(t, f) || g.isTracerIface(t, f)
	case *ast.Ident:
		td := g.decls[t.Name]
		if td == nil {
			return false // predeclared or blank
		}
		if visiting[t.Name] {
			return false
		}
		if visiting == nil {
			visiting = make(map[string]bool)
		}
		visiting[t.Name] = true
		return g.containsManaged(td.spec.Type, td.file, visiting)
	case *ast.StarExpr:
		return g.containsManaged(t.X, f, visiting)
	case *ast.ArrayType:
		return g.containsManaged(t.Elt, f, visiting)
	case *ast.MapType:
		return g.containsManaged(t.Key, f, visiting) || g.containsManaged(t.Value, f, visiting)
	case *ast.StructType:
		for _, fld := range t.Fields.List {
			if g.containsManaged(fld.Type, f, visiting) {
				return true
			}
		}
		return false
	case *ast.ChanType:
		return g.containsManaged(t.Value, f, visiting)
	case *ast.FuncType:
		return false
	case *ast.InterfaceType:
		return true
	case *ast.ParenExpr:
		return g.containsManaged(t.X, f, visiting)
	}
	return false
}

// fieldStmts returns the statements visiting one field, or nil if the
// field holds no managed handles. recv is the receiver name, name the
// field selector.
func (g *pkgGen) fieldStmts(recv, name string, field *ast.Field, f *ast.File) []string {
	if markerIn(field.Comment, "//gc:skip") || markerIn(field.Doc, "//gc:skip") {
		return nil
	}
	sel := recv + "." + name
	if markerIn(field.Comment, "//gc:traced") || markerIn(field.Doc, "//gc:traced") {
		return []string{sel + ".Trace(tc)"}
	}

	t := field.Type
	if p, ok := t.(*ast.ParenExpr); ok {
		t = p.X
	}
	switch t := t.(type) {
	case *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr:
		if g.isGcHandle(t, f) {
			return []string{sel + ".Trace(tc)"}
		}
		if g.isTracerIface(t, f) {
			return []string{fmt.Sprintf("if %s != nil {\n%s.Trace(tc)\n}", sel, sel)}
		}
		return nil // another package's type: not provably managed
	case *ast.Ident:
		if g.containsManaged(t, f, nil) {
			if !g.traceableLocal(t.Name) {
				g.errorf(field.Pos(), "field %s: type %s contains managed handles but has no Trace method; mark it //gc:trace", name, t.Name)
				return nil
			}
			return []string{sel + ".Trace(tc)"}
		}
		return nil
	case *ast.StarExpr:
		if !g.containsManaged(t.X, f, nil) {
			return nil
		}
		if id, ok := t.X.(*ast.Ident); ok && !g.traceableLocal(id.Name) {
			g.errorf(field.Pos(), "field %s: type *%s contains managed handles but has no Trace method; mark it //gc:trace", name, id.Name)
			return nil
		}
		return []string{fmt.Sprintf("gc.TracePtr(tc, %s)", sel)}
	case *ast.ArrayType:
		if !g.containsManaged(t.Elt, f, nil) {
			return nil
		}
		if id, ok := t.Elt.(*ast.Ident); ok && !g.traceableLocal(id.Name) {
			g.errorf(field.Pos(), "field %s: element type %s contains managed handles but has no Trace method; mark it //gc:trace", name, id.Name)
			return nil
		}
		return []string{fmt.Sprintf("for i := range %s {\n%s[i].Trace(tc)\n}", sel, sel)}
	case *ast.MapType:
		keyM := g.containsManaged(t.Key, f, nil)
		valM := g.containsManaged(t.Value, f, nil)
		if !keyM && !valM {
			return nil
		}
		// Map entries are not addressable, so managed keys and
		// values must be handle types, whose Trace has a value
		// receiver.
		if keyM && !g.isGcHandle(t.Key, f) {
			g.errorf(field.Pos(), "field %s: managed map key type must be gc.Gc or gc.Weak", name)
			return nil
		}
		if valM && !g.isGcHandle(t.Value, f) {
			g.errorf(field.Pos(), "field %s: managed map value type must be gc.Gc or gc.Weak", name)
			return nil
		}
		if keyM && valM {
			return []string{fmt.Sprintf("gc.TraceMapKV(tc, %s)", sel)}
		}
		if keyM {
			return []string{fmt.Sprintf("for k := range %s {\nk.Trace(tc)\n}", sel)}
		}
		return []string{fmt.Sprintf("gc.TraceMap(tc, %s)", sel)}
	case *ast.StructType:
		g.errorf(field.Pos(), "field %s: anonymous struct types are not supported; name the type", name)
		return nil
	case *ast.InterfaceType:
		g.errorf(field.Pos(), "field %s: interface types other than gc.Tracer are not supported", name)
		return nil
	case *ast.ChanType:
		if g.containsManaged(t.Value, f, nil) {
			g.errorf(field.Pos(), "field %s: managed handles must not flow through channels", name)
		}
		return nil
	case *ast.FuncType:
		return nil
	}
	g.errorf(field.Pos(), "field %s: cannot prove type traceable; add //gc:traced or //gc:skip", name)
	return nil
}

// generate emits the Trace methods for every marked type, formatted as
// one source file, or nil if the package marks no types. Diagnostics
// are returned as errors; any diagnostic suppresses output.
func (g *pkgGen) generate() ([]byte, error) {
	if len(g.order) == 0 && len(g.errs) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by tracegen; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", g.pkgName)
	fmt.Fprintf(&buf, "import gc %q\n\n", gcImportPath)

	for _, name := range g.order {
		td := g.decls[name]
		st, ok := td.spec.Type.(*ast.StructType)
		if !ok {
			g.errorf(td.spec.Pos(), "type %s: //gc:trace requires a struct type", name)
			continue
		}
		if td.spec.TypeParams != nil {
			g.errorf(td.spec.Pos(), "type %s: generic types are not supported", name)
			continue
		}
		if td.hasTrace {
			g.errorf(td.spec.Pos(), "type %s: already has a Trace method", name)
			continue
		}

		recv := strings.ToLower(name[:1])
		if recv == "t" { // avoid shadowing confusion with tc
			recv = "x"
		}
		var body []string
		for _, field := range st.Fields.List {
			if len(field.Names) == 0 {
				// Embedded field: the selector is the type name.
				if fname, ok := recvTypeName(field.Type); ok {
					body = append(body, g.fieldStmts(recv, fname, field, td.file)...)
				}
				continue
			}
			for _, fname := range field.Names {
				body = append(body, g.fieldStmts(recv, fname.Name, field, td.file)...)
			}
		}

		fmt.Fprintf(&buf, "func (%s *%s) Trace(tc *gc.Tracing) {\n", recv, name)
		for _, stmt := range body {
			fmt.Fprintf(&buf, "%s\n", stmt)
		}
		fmt.Fprintf(&buf, "}\n\n")
		fmt.Fprintf(&buf, "var _ gc.Tracer = (*%s)(nil)\n\n", name)
	}

	if len(g.errs) > 0 {
		return nil, joinErrors(g.errs)
	}
	return format.Source(buf.Bytes())
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "\n"))
}
