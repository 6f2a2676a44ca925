package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLookup_HitSkipsCompute(t *testing.T) {
	l := NewLookup()
	var calls int
	compute := func(context.Context) (Entry, error) {
		calls++
		return Entry{Value: "Honing (sharpening)", Found: true}, nil
	}
	for i := 0; i < 3; i++ {
		e, err := l.GetOrCompute(context.Background(), "wikipedia.search:knife honing", compute)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if e.Value != "Honing (sharpening)" || !e.Found {
			t.Fatalf("unexpected entry: %+v", e)
		}
	}
	if calls != 1 {
		t.Fatalf("compute called %d times, want 1", calls)
	}
	st := l.Stats()
	if st.Entries != 1 || st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestLookup_StoresNegativeResults(t *testing.T) {
	l := NewLookup()
	var calls int
	compute := func(context.Context) (Entry, error) {
		calls++
		return Entry{}, nil
	}
	_, _ = l.GetOrCompute(context.Background(), "k", compute)
	e, err := l.GetOrCompute(context.Background(), "k", compute)
	if err != nil || e.Found {
		t.Fatalf("expected cached negative entry, got %+v err=%v", e, err)
	}
	if calls != 1 {
		t.Fatalf("negative result should be cached; compute called %d times", calls)
	}
}

func TestLookup_ErrorsAreNotCached(t *testing.T) {
	l := NewLookup()
	boom := errors.New("deadline")
	var calls int
	compute := func(context.Context) (Entry, error) {
		calls++
		if calls == 1 {
			return Entry{}, boom
		}
		return Entry{Value: "ok", Found: true}, nil
	}
	if _, err := l.GetOrCompute(context.Background(), "k", compute); !errors.Is(err, boom) {
		t.Fatalf("expected first call error, got %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("failed computation must not be stored")
	}
	e, err := l.GetOrCompute(context.Background(), "k", compute)
	if err != nil || e.Value != "ok" {
		t.Fatalf("second call: %+v err=%v", e, err)
	}
}

func TestLookup_ConcurrentCallersShareComputation(t *testing.T) {
	l := NewLookup()
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (Entry, error) {
		calls.Add(1)
		<-release
		return Entry{Value: "v", Found: true}, nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := l.GetOrCompute(context.Background(), "same", compute)
			if err != nil || e.Value != "v" {
				t.Errorf("unexpected result %+v err=%v", e, err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Fatalf("compute ran %d times for one key, want 1", n)
	}
}

func TestLookup_NilRunsCompute(t *testing.T) {
	var l *Lookup
	e, err := l.GetOrCompute(context.Background(), "k", func(context.Context) (Entry, error) {
		return Entry{Value: "x", Found: true}, nil
	})
	if err != nil || e.Value != "x" {
		t.Fatalf("nil lookup should pass through, got %+v err=%v", e, err)
	}
}

func TestLookup_CallersKeepTheirOwnDeadlines(t *testing.T) {
	l := NewLookup()
	var calls atomic.Int32
	compute := func(ctx context.Context) (Entry, error) {
		calls.Add(1)
		select {
		case <-time.After(200 * time.Millisecond):
			return Entry{Value: "shared", Found: true}, nil
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		}
	}

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	shortErr := make(chan error, 1)
	go func() {
		_, err := l.GetOrCompute(shortCtx, "k", compute)
		shortErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	longCtx, cancelLong := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelLong()
	e, err := l.GetOrCompute(longCtx, "k", compute)
	if err != nil || e.Value != "shared" {
		t.Fatalf("long caller failed with the short caller's deadline: %+v err=%v", e, err)
	}
	if err := <-shortErr; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("short caller: expected deadline exceeded, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("compute ran %d times, want 1", n)
	}
}

func TestLookup_AbandonedComputationIsCancelled(t *testing.T) {
	l := NewLookup()
	var calls atomic.Int32
	cancelled := make(chan struct{}, 2)
	hang := func(ctx context.Context) (Entry, error) {
		calls.Add(1)
		<-ctx.Done()
		cancelled <- struct{}{}
		return Entry{}, ctx.Err()
	}
	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		if _, err := l.GetOrCompute(ctx, "k", hang); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: expected deadline exceeded, got %v", i, err)
		}
		cancel()
		select {
		case <-cancelled:
		case <-time.After(2 * time.Second):
			t.Fatalf("call %d: computation kept running after its only caller left", i)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("cancelled computation was stored")
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("compute ran %d times, want a fresh run per call", n)
	}
}

func TestLookup_ComputeTimeoutBoundsSharedWork(t *testing.T) {
	l := NewLookup()
	l.ComputeTimeout = 20 * time.Millisecond
	_, err := l.GetOrCompute(context.Background(), "k", func(ctx context.Context) (Entry, error) {
		<-ctx.Done()
		return Entry{}, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected compute timeout, got %v", err)
	}
}
