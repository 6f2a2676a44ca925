package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a memoized provider answer. Found=false records a definitive
// "nothing there" so the same question is not asked again.
type Entry struct {
	Value string
	Found bool
}

// Stats reports lookup cache activity.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// DefaultComputeTimeout bounds a shared computation once it no longer runs
// under any single caller's context.
const DefaultComputeTimeout = 30 * time.Second

// Lookup memoizes deterministic provider calls keyed by the exact query string.
// Entries live for the lifetime of the Lookup; there is no TTL and no eviction.
// Concurrent callers asking for the same key share a single computation.
type Lookup struct {
	mu      sync.RWMutex
	entries map[string]Entry
	group   singleflight.Group

	// ComputeTimeout bounds each shared computation. Zero means
	// DefaultComputeTimeout.
	ComputeTimeout time.Duration

	fmu     sync.Mutex
	flights map[string]*flight

	hits   atomic.Int64
	misses atomic.Int64
}

// flight tracks the callers waiting on one in-progress computation. The
// computation is cancelled when the last waiter gives up.
type flight struct {
	waiters int
	cancel  context.CancelFunc
}

// NewLookup returns an empty cache.
func NewLookup() *Lookup {
	return &Lookup{entries: make(map[string]Entry)}
}

// Get returns a stored entry without computing anything.
func (l *Lookup) Get(key string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[key]
	return e, ok
}

// GetOrCompute returns the stored entry for key, or runs compute and stores
// its result. A non-nil error from compute means the provider did not answer
// (timeout, transport fault); such results are returned but never stored.
// A nil *Lookup simply runs compute.
//
// compute runs detached from the caller's cancellation, bounded by
// ComputeTimeout. Each caller waits only as long as its own ctx allows; a
// caller that leaves early does not fail the others, and the computation is
// cancelled once nobody is waiting for it.
func (l *Lookup) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (Entry, error)) (Entry, error) {
	if l == nil {
		return compute(ctx)
	}
	if e, ok := l.Get(key); ok {
		l.hits.Add(1)
		return e, nil
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	f, ch := l.join(ctx, key, compute)
	select {
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		l.leave(key, f)
		return Entry{}, ctx.Err()
	}
}

// join attaches the caller to the in-progress computation for key, starting
// one when there is none.
func (l *Lookup) join(ctx context.Context, key string, compute func(ctx context.Context) (Entry, error)) (*flight, <-chan singleflight.Result) {
	l.fmu.Lock()
	defer l.fmu.Unlock()
	if l.flights == nil {
		l.flights = make(map[string]*flight)
	}
	f, ok := l.flights[key]
	if !ok {
		timeout := l.ComputeTimeout
		if timeout <= 0 {
			timeout = DefaultComputeTimeout
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		f = &flight{cancel: cancel}
		l.flights[key] = f
		// Forget any finished call still registered so the new flight runs
		// with its own context.
		l.group.Forget(key)
		ch := l.group.DoChan(key, func() (any, error) {
			defer l.finish(key, f)
			return l.run(cctx, key, compute)
		})
		f.waiters++
		return f, ch
	}
	f.waiters++
	ch := l.group.DoChan(key, func() (any, error) {
		// Unreachable while f is registered: the running call is joined.
		return l.run(ctx, key, compute)
	})
	return f, ch
}

func (l *Lookup) run(ctx context.Context, key string, compute func(ctx context.Context) (Entry, error)) (Entry, error) {
	// Another caller may have stored the key before this flight started.
	if e, ok := l.Get(key); ok {
		l.hits.Add(1)
		return e, nil
	}
	l.misses.Add(1)
	e, err := compute(ctx)
	if err != nil {
		return Entry{}, err
	}
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]Entry)
	}
	l.entries[key] = e
	l.mu.Unlock()
	return e, nil
}

// finish unregisters f once its computation has returned.
func (l *Lookup) finish(key string, f *flight) {
	l.fmu.Lock()
	defer l.fmu.Unlock()
	f.cancel()
	if l.flights[key] == f {
		delete(l.flights, key)
		l.group.Forget(key)
	}
}

// leave detaches a caller whose own context ended. The last one out cancels
// the computation, and later callers start a fresh one.
func (l *Lookup) leave(key string, f *flight) {
	l.fmu.Lock()
	defer l.fmu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.flights[key] == f {
		delete(l.flights, key)
		l.group.Forget(key)
	}
}

// Len returns the number of stored entries.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Stats returns a snapshot of hit/miss counters.
func (l *Lookup) Stats() Stats {
	if l == nil {
		return Stats{}
	}
	return Stats{Entries: l.Len(), Hits: l.hits.Load(), Misses: l.misses.Load()}
}
