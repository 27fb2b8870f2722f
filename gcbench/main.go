// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Gcbench drives synthetic mutator workloads against the collector
// and reports the distribution of collection pauses.
//
// Usage:
//
//	gcbench [-workload list|cycle|churn] [-objects n] [-collects n]
//
// Each round mutates the heap per the workload, runs one collection,
// and records its wall-clock pause. The report gives the live object
// count after the last collection and the pause mean and tail
// quantiles.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	gc "github.com/aclements/go-gc"
	"github.com/aclements/go-moremath/stats"
)

var (
	workload = flag.String("workload", "list", "workload to run: `list`, cycle, or churn")
	objects  = flag.Int("objects", 10000, "objects allocated per round")
	collects = flag.Int("collects", 50, "number of collection rounds")
)

type node struct {
	payload [4]uint64
	next    gc.Gc[node]
	prev    gc.Gc[node]
}

func (n *node) Trace(tc *gc.Tracing) {
	n.next.Trace(tc)
	n.prev.Trace(tc)
}

func main() {
	log.SetPrefix("gcbench: ")
	log.SetFlags(0)
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	var round func(ctx *gc.Context, head *gc.Root[gc.Gc[node]])
	switch *workload {
	case "list":
		round = listRound
	case "cycle":
		round = cycleRound
	case "churn":
		round = churnRound
	default:
		log.Fatalf("unknown workload %q", *workload)
	}

	ctx, err := gc.NewContext()
	if err != nil {
		log.Fatal(err)
	}

	head := gc.NewRoot(ctx, gc.Allocate(ctx, node{}))
	pauses := make([]float64, 0, *collects)
	for i := 0; i < *collects; i++ {
		round(ctx, head)
		start := time.Now()
		ctx.Collect()
		pauses = append(pauses, time.Since(start).Seconds()*1e3)
	}
	live := ctx.NumObjects()
	head.Unpin()
	ctx.Destroy()

	report(pauses, live)
}

// listRound grows a list from the rooted head, then drops the back
// half so every collection has both survivors and garbage.
func listRound(ctx *gc.Context, head *gc.Root[gc.Gc[node]]) {
	h := *head.Get()
	for i := 0; i < *objects; i++ {
		n := gc.Allocate(ctx, node{next: h.Borrow(ctx).next})
		h.BorrowMut(ctx).next = n
	}
	// Cut the chain halfway.
	mid := h
	for i := 0; i < *objects/2; i++ {
		next := mid.Borrow(ctx).next
		if next.IsNil() {
			break
		}
		mid = next
	}
	mid.BorrowMut(ctx).next = gc.Gc[node]{}
}

// cycleRound links rings of nodes. Every other ring is attached to the
// root in turn, replacing the previously attached one, so after the
// round only the last attached ring is live and the rest are cyclic
// garbage.
func cycleRound(ctx *gc.Context, head *gc.Root[gc.Gc[node]]) {
	const ring = 10
	for i := 0; i < *objects/ring; i++ {
		first := gc.Allocate(ctx, node{})
		cur := first
		for j := 1; j < ring; j++ {
			n := gc.Allocate(ctx, node{prev: cur})
			cur.BorrowMut(ctx).next = n
			cur = n
		}
		cur.BorrowMut(ctx).next = first
		first.BorrowMut(ctx).prev = cur
		if i%2 == 0 {
			head.Get().BorrowMut(ctx).next = first
		}
	}
}

// churnRound allocates unreachable objects only: every collection
// sweeps the full round.
func churnRound(ctx *gc.Context, head *gc.Root[gc.Gc[node]]) {
	for i := 0; i < *objects; i++ {
		gc.Allocate(ctx, node{})
	}
}

func report(pauses []float64, live int) {
	sample := stats.Sample{Xs: pauses}
	max := pauses[0]
	for _, p := range pauses {
		if p > max {
			max = p
		}
	}
	fmt.Printf("workload %s: %d collections, %d objects live after last\n",
		*workload, len(pauses), live)
	fmt.Printf("pause ms: mean %.3f p50 %.3f p90 %.3f p99 %.3f max %.3f\n",
		stats.Mean(pauses), sample.Quantile(0.5), sample.Quantile(0.9),
		sample.Quantile(0.99), max)
}
