// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !gcrelease

package gc

// debugChecks gates the dynamic borrow-discipline checks: context
// brands, access during marking, and use of swept objects. Build with
// the gcrelease tag to compile them out.
const debugChecks = true
