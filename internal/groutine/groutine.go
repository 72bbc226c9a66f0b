// Package groutine starts goroutines carrying a name, visible in pprof
// goroutine profiles and retrievable from their context.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey struct{}

// Go runs fn in a new goroutine labelled with name.
// A nil parent is treated as context.Background().
//
//	groutine.Go(ctx, "navlink-scan", func(ctx context.Context) {
//	    // scan until ctx is done
//	})
func Go(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}

	go pprof.Do(parent, pprof.Labels("goroutine_name", name), func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// Name returns the name the goroutine owning ctx was started with.
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}
