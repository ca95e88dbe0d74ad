package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// collectResults drains a dispatch channel into a map keyed by chunk index.
func collectResults(t *testing.T, ch <-chan ChunkResult, want int) map[int]ChunkResult {
	t.Helper()
	results := make(map[int]ChunkResult)
	for res := range ch {
		if _, dup := results[res.Index]; dup {
			t.Fatalf("chunk %d resolved twice", res.Index)
		}
		results[res.Index] = res
	}
	if len(results) != want {
		t.Fatalf("got %d results, want %d", len(results), want)
	}
	return results
}

func TestDispatch_EveryChunkResolvesOnce(t *testing.T) {
	chunks, err := Split(makeUnits(10), 2)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	d := &Dispatcher{MaxConcurrent: 3}
	ch := d.Dispatch(context.Background(), chunks, func(ctx context.Context, index int, chunk []Unit) (map[string]string, error) {
		out := make(map[string]string, len(chunk))
		for _, u := range chunk {
			out[u.Key] = "x-" + u.Source
		}
		return out, nil
	})

	results := collectResults(t, ch, len(chunks))
	for i, chunk := range chunks {
		res := results[i]
		if res.Err != nil {
			t.Fatalf("chunk %d failed: %v", i, res.Err)
		}
		if len(res.Translations) != len(chunk) {
			t.Fatalf("chunk %d: %d translations, want %d", i, len(res.Translations), len(chunk))
		}
	}
}

func TestDispatch_RespectsConcurrencyBound(t *testing.T) {
	const maxConcurrent = 2

	var inFlight, peak atomic.Int32
	chunks, _ := Split(makeUnits(12), 1)

	d := &Dispatcher{MaxConcurrent: maxConcurrent}
	ch := d.Dispatch(context.Background(), chunks, func(ctx context.Context, index int, chunk []Unit) (map[string]string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return map[string]string{}, nil
	})

	collectResults(t, ch, len(chunks))
	if got := peak.Load(); got > maxConcurrent {
		t.Fatalf("peak concurrency = %d, want <= %d", got, maxConcurrent)
	}
}

func TestDispatch_FailureDoesNotCancelSiblings(t *testing.T) {
	chunks, _ := Split(makeUnits(5), 1)
	failErr := errors.New("chunk exploded")

	d := &Dispatcher{MaxConcurrent: 2}
	ch := d.Dispatch(context.Background(), chunks, func(ctx context.Context, index int, chunk []Unit) (map[string]string, error) {
		if index == 1 {
			return nil, failErr
		}
		return map[string]string{chunk[0].Key: "ok"}, nil
	})

	results := collectResults(t, ch, len(chunks))
	if !errors.Is(results[1].Err, failErr) {
		t.Fatalf("chunk 1 err = %v, want %v", results[1].Err, failErr)
	}
	for _, i := range []int{0, 2, 3, 4} {
		if results[i].Err != nil {
			t.Fatalf("chunk %d failed, should be isolated from chunk 1: %v", i, results[i].Err)
		}
	}
}

func TestDispatch_OutOfOrderCompletion(t *testing.T) {
	chunks, _ := Split(makeUnits(3), 1)

	var release sync.WaitGroup
	release.Add(1)

	d := &Dispatcher{MaxConcurrent: 3}
	ch := d.Dispatch(context.Background(), chunks, func(ctx context.Context, index int, chunk []Unit) (map[string]string, error) {
		if index == 0 {
			// Chunk 0 finishes last.
			release.Wait()
		}
		return map[string]string{chunk[0].Key: fmt.Sprint(index)}, nil
	})

	first := <-ch
	if first.Index == 0 {
		t.Fatalf("first completed chunk is 0, want a later chunk")
	}
	release.Done()

	results := map[int]ChunkResult{first.Index: first}
	for res := range ch {
		results[res.Index] = res
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
}

func TestDispatch_CancelResolvesUnstartedChunks(t *testing.T) {
	chunks, _ := Split(makeUnits(2), 1)

	started := make(chan struct{})
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &Dispatcher{MaxConcurrent: 1}
	ch := d.Dispatch(ctx, chunks, func(ctx context.Context, index int, chunk []Unit) (map[string]string, error) {
		close(started)
		<-release
		// The call context survives the cancellation of the dispatch context.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return map[string]string{chunk[0].Key: "done"}, nil
	})

	<-started
	cancel()
	close(release)

	results := collectResults(t, ch, 2)
	if results[0].Err != nil {
		t.Fatalf("in-flight chunk 0 should finish, got err: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, context.Canceled) {
		t.Fatalf("unstarted chunk 1 err = %v, want context.Canceled", results[1].Err)
	}
}

func TestGate_SpacesCallStarts(t *testing.T) {
	const delay = 20 * time.Millisecond
	gate := NewGate(delay)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := gate.Wait(ctx); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	// First start is immediate; the next two are spaced by delay each.
	if elapsed := time.Since(start); elapsed < 2*delay {
		t.Fatalf("3 starts took %v, want >= %v", elapsed, 2*delay)
	}
}

func TestGate_SharedAcrossWorkers(t *testing.T) {
	const delay = 15 * time.Millisecond
	gate := NewGate(delay)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gate.Wait(context.Background())
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed < 3*delay {
		t.Fatalf("4 concurrent starts took %v, want >= %v", elapsed, 3*delay)
	}
}

func TestGate_NilAndZeroDelayAdmitImmediately(t *testing.T) {
	ctx := context.Background()

	var nilGate *Gate
	if err := nilGate.Wait(ctx); err != nil {
		t.Fatalf("nil gate Wait() error: %v", err)
	}

	gate := NewGate(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := gate.Wait(ctx); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("zero-delay gate blocked for %v", elapsed)
	}
}

func TestGate_CancelledContext(t *testing.T) {
	gate := NewGate(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	// First waiter reserves the immediate slot.
	if err := gate.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}

	cancel()
	if err := gate.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() after cancel = %v, want context.Canceled", err)
	}
}
