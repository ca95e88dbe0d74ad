package translate

import (
	"context"
	"sync"
	"time"
)

// ChunkResult is the outcome of dispatching one chunk: a complete key→text
// mapping, or a failure for the chunk as a whole. One chunk is one atomic
// provider call, so partial success inside a chunk does not exist.
type ChunkResult struct {
	Index        int
	Translations map[string]string // nil when Err is set
	Err          error
}

// Gate enforces a minimum spacing between call starts, shared by every
// worker that dispatches through it. The zero delay gate admits immediately.
type Gate struct {
	mu    sync.Mutex
	delay time.Duration
	next  time.Time
}

// NewGate returns a gate with the given minimum spacing between starts.
func NewGate(delay time.Duration) *Gate {
	return &Gate{delay: delay}
}

// Wait blocks until the caller may start a call, reserving the next slot.
// Reservation order is arrival order, so chunk launch order determines gate
// acquisition order.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil || g.delay <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	now := time.Now()
	wait := time.Duration(0)
	if g.next.After(now) {
		wait = g.next.Sub(now)
		g.next = g.next.Add(g.delay)
	} else {
		g.next = now.Add(g.delay)
	}
	g.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// ChunkFunc runs the translation call for one chunk.
type ChunkFunc func(ctx context.Context, index int, chunk []Unit) (map[string]string, error)

// Dispatcher runs one translation call per chunk with a bound on concurrent
// calls and a shared rate gate on call starts.
type Dispatcher struct {
	// MaxConcurrent caps how many chunk calls are in flight at once.
	// Values below 1 behave as 1.
	MaxConcurrent int
	// Gate spaces out call starts. Nil means no spacing.
	Gate *Gate
}

// Dispatch launches fn for every chunk and streams results as chunks
// complete, in completion order. Every chunk resolves exactly once; a chunk
// failure never cancels siblings. When ctx is cancelled, chunks not yet
// started resolve immediately with the cancellation error while in-flight
// calls are left to finish (fn receives a context detached from ctx's
// cancellation). The returned channel is closed after the last result.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks [][]Unit, fn ChunkFunc) <-chan ChunkResult {
	out := make(chan ChunkResult, len(chunks))

	maxConcurrent := d.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	go func() {
		defer close(out)

		sem := make(chan struct{}, maxConcurrent)
		var wg sync.WaitGroup
		// In-flight calls survive cancellation; only new starts stop.
		callCtx := context.WithoutCancel(ctx)

		for i, chunk := range chunks {
			if err := d.Gate.Wait(ctx); err != nil {
				out <- ChunkResult{Index: i, Err: err}
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out <- ChunkResult{Index: i, Err: ctx.Err()}
				continue
			}

			wg.Add(1)
			go func(index int, chunk []Unit) {
				defer func() {
					<-sem
					wg.Done()
				}()
				translations, err := fn(callCtx, index, chunk)
				if err != nil {
					out <- ChunkResult{Index: index, Err: err}
					return
				}
				out <- ChunkResult{Index: index, Translations: translations}
			}(i, chunk)
		}

		wg.Wait()
	}()

	return out
}
