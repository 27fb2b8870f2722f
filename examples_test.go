// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import "fmt"

func Example() {
	// Allocate an object, pin it, and read it back after a
	// collection.
	ctx, err := NewContext()
	if err != nil {
		panic(err)
	}

	obj := Allocate(ctx, objectData{name: "My Object", num: 42})
	r := NewRoot(ctx, obj)

	ctx.Collect()
	fmt.Printf("Name: %s Num: %d\n", obj.Borrow(ctx).name, obj.Borrow(ctx).num)

	r.Unpin()
	ctx.Collect()
	ctx.Destroy()

	// Output: Name: My Object Num: 42
}

func Example_weak() {
	ctx, err := NewContext()
	if err != nil {
		panic(err)
	}

	holder := Allocate(ctx, weakObj{name: "Test"})
	root := NewHeapRoot(ctx, holder)

	{
		obj := Allocate(ctx, weakObj{name: "Weak"})
		r := NewRoot(ctx, obj)
		holder.BorrowMut(ctx).next = obj.Downgrade(ctx)
		if got, ok := holder.Borrow(ctx).next.Borrow(ctx); ok {
			fmt.Println(got.name)
		}
		r.Unpin()
	}

	ctx.Collect()
	if _, ok := holder.Borrow(ctx).next.Borrow(ctx); !ok {
		fmt.Println("collected")
	}

	root.Release()
	ctx.Destroy()

	// Output:
	// Weak
	// collected
}
