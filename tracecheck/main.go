// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Tracecheck reports Trace methods that fail to visit a field holding
// managed handles.
package main

import (
	"github.com/aclements/go-gc/tracecheck/tracefields"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() { singlechecker.Main(tracefields.Analyzer) }
