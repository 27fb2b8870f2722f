// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Tracegen generates gc.Tracer implementations for struct types
// marked with a //gc:trace comment.
//
// Usage:
//
//	tracegen [-o file] [packages]
//
// For every named package that marks at least one type, tracegen
// writes a file (default gc_trace.go) into the package directory
// containing a Trace method per marked type. The methods visit every
// field in declaration order, so the collector sees exactly the edges
// the struct declares. Fields that provably hold no managed handles
// are skipped; local field types tracegen cannot classify are
// diagnostics, not guesses. Fields whose type comes from another
// package, other than gc.Gc, gc.Weak and gc.Tracer, are skipped
// without a diagnostic, as are func-typed fields. Two field
// directives override classification: //gc:skip omits the field,
// //gc:traced emits a plain Trace call.
//
// Tracegen is purely syntactic, like the trace generators it replaces;
// pair it with the tracecheck analyzer to catch hand-written Trace
// methods that drift out of sync with their structs.
package main

import (
	"flag"
	"fmt"
	"go/token"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

var outName = flag.String("o", "gc_trace.go", "write generated code to `file` in each package directory")

func main() {
	log.SetPrefix("tracegen: ")
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-o file] [packages]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedSyntax,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, flag.Args()...)
	if err != nil {
		log.Fatal(err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	var g errgroup.Group
	for _, pkg := range pkgs {
		pkg := pkg
		g.Go(func() error {
			return genPackage(fset, pkg)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

func genPackage(fset *token.FileSet, pkg *packages.Package) error {
	if len(pkg.GoFiles) == 0 {
		return nil
	}
	// Leave any previous tracegen output out of the scan, or its
	// methods would read as hand-written Trace methods.
	files := pkg.Syntax[:0:0]
	for _, f := range pkg.Syntax {
		if filepath.Base(fset.Position(f.Pos()).Filename) != *outName {
			files = append(files, f)
		}
	}
	src, err := newPkgGen(fset, pkg.Name, files).generate()
	if err != nil {
		return err
	}
	if src == nil {
		return nil
	}
	out := filepath.Join(filepath.Dir(pkg.GoFiles[0]), *outName)
	return os.WriteFile(out, src, 0666)
}
