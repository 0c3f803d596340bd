// Copyright 2026 The Schemac Authors

// Package diagbus is the compiler's diagnostic event bus: every stage
// (scanner, parser, namespace loader, resolver, resolution engine)
// emits diagnostics as they occur rather than returning them
// synchronously, so that concurrent per-package tasks (internal/resolver)
// can all report findings through one channel without any of them
// blocking on a shared lock. The bus is an actor: one goroutine owns the
// receiving end and is the sole mutator of the final [errors.Bundle];
// every other goroutine only ever sends.
package diagbus

import (
	"context"
	"sync"

	"schemac/ks/errors"
)

// Bus is a running diagnostic collector. Create one with [Start], call
// [Bus.Emit] from any number of goroutines, and call [Bus.Close] once no
// more diagnostics will be emitted; [Bus.Wait] then returns the
// collected bundle.
type Bus struct {
	ch     chan *errors.Diagnostic
	done   chan struct{}
	bundle errors.Bundle
	once   sync.Once
}

// Start launches the bus's collector goroutine. When ctx is cancelled the
// collector folds in the diagnostics already buffered in the channel and
// then stops; diagnostics emitted after that point are not recorded in
// the bundle.
func Start(ctx context.Context) *Bus {
	b := &Bus{
		ch:   make(chan *errors.Diagnostic, 64),
		done: make(chan struct{}),
	}
	go b.run(ctx)
	return b
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case d, ok := <-b.ch:
			if !ok {
				return
			}
			b.bundle.Add(d)
		case <-ctx.Done():
			// Drain whatever is already buffered before giving up the
			// receiving end, so a cancelled run still surfaces the
			// diagnostics that were emitted up to the cancellation point.
			for {
				select {
				case d, ok := <-b.ch:
					if !ok {
						return
					}
					b.bundle.Add(d)
				default:
					return
				}
			}
		}
	}
}

// Emit sends a diagnostic to the bus. It never blocks the caller beyond
// the channel's buffer: a full buffer backpressures the emitting
// goroutine briefly rather than dropping diagnostics, since losing a
// diagnostic silently would violate spec.md §5's determinism guarantees.
func (b *Bus) Emit(d *errors.Diagnostic) {
	if d == nil {
		return
	}
	b.ch <- d
}

// Close signals that no more diagnostics will be emitted. Calling Emit
// after Close panics (a bug in the caller, not a condition to recover
// from), matching the same "decided at the type/call-site level" stance
// [errors.Builder] takes for At/Unlocated.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.ch) })
}

// Wait blocks until the collector goroutine has drained the channel
// (i.e. until Close has been called and every emitted diagnostic has
// been folded into the bundle) and returns the final, unsorted bundle.
// Callers typically call [errors.Bundle.SortStable] on the result before
// rendering it, per spec.md §5's byte-stable output requirement.
func (b *Bus) Wait() *errors.Bundle {
	<-b.done
	return &b.bundle
}
