// Copyright 2026 The Schemac Authors

package diagbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/ks/errors"
)

// TestExactlyOnceDeliveryUnderConcurrency covers invariant 8: N concurrent
// emitters each sending M diagnostics must all be recorded exactly once,
// with none dropped and none duplicated.
func TestExactlyOnceDeliveryUnderConcurrency(t *testing.T) {
	const emitters = 20
	const perEmitter = 50

	bus := Start(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < emitters; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perEmitter; j++ {
				d := errors.New(errors.CodeInternal, errors.Warning, "emitter %d message %d", i, j).
					Unlocated().Build()
				bus.Emit(d)
			}
		}()
	}
	wg.Wait()
	bus.Close()
	bundle := bus.Wait()

	assert.Len(t, bundle.Warnings, emitters*perEmitter)
	assert.Empty(t, bundle.Errors)

	seen := map[string]bool{}
	for _, d := range bundle.Warnings {
		require.False(t, seen[d.Message], "duplicate delivery of %q", d.Message)
		seen[d.Message] = true
	}
	assert.Len(t, seen, emitters*perEmitter)
}

func TestEmitNilIsANoop(t *testing.T) {
	bus := Start(context.Background())
	bus.Emit(nil)
	bus.Close()
	bundle := bus.Wait()
	assert.Empty(t, bundle.Errors)
	assert.Empty(t, bundle.Warnings)
	assert.Empty(t, bundle.Other)
}

func TestCancellationStillDrainsBufferedDiagnostics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := Start(ctx)
	d := errors.New(errors.CodeInternal, errors.Error, "buffered before cancel").Unlocated().Build()
	bus.Emit(d)
	cancel()
	bus.Close()
	bundle := bus.Wait()
	assert.Len(t, bundle.Errors, 1)
}
