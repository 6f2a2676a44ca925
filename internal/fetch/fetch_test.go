package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "knifeai-test" {
			t.Errorf("User-Agent=%q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "knifeai-test", MaxAttempts: 2, PerRequestTimeout: 2 * time.Second}
	body, ct, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct == "" || string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q ct %q", body, ct)
	}
}

func TestGetJSON_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"extract":"Honing is the process"}`))
	}))
	defer srv.Close()

	var out struct {
		Extract string `json:"extract"`
	}
	c := &Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Extract != "Honing is the process" {
		t.Fatalf("extract=%q", out.Extract)
	}
}

func TestGet_RetryOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(502)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 2, PerRequestTimeout: 2 * time.Second}
	if _, _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d, want 2", calls)
	}
}

func TestGet_NotFoundIsDefinitive(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 3, PerRequestTimeout: 2 * time.Second}
	_, _, err := c.Get(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || !se.NotFound() {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if IsTransient(err) {
		t.Fatalf("404 must not be transient")
	}
	if calls != 1 {
		t.Fatalf("404 should not be retried; calls=%d", calls)
	}
}

func TestGet_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, PerRequestTimeout: 50 * time.Millisecond}
	_, _, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !IsTransient(err) {
		t.Fatalf("timeout should be transient: %v", err)
	}
}

func TestGet_RejectsNonHTTP(t *testing.T) {
	c := &Client{MaxAttempts: 1, PerRequestTimeout: 1 * time.Second}
	_, _, err := c.Get(context.Background(), "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestGet_ContentTypeGating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second, Accept: []string{"image/"}}
	_, _, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrUnsupportedContentType) {
		t.Fatalf("expected ErrUnsupportedContentType, got %v", err)
	}
}

func TestGet_BodyLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	exact := &Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second, MaxBodyBytes: 64}
	body, _, err := exact.Get(context.Background(), srv.URL)
	if err != nil || len(body) != 64 {
		t.Fatalf("body at the limit: len=%d err=%v", len(body), err)
	}

	small := &Client{MaxAttempts: 3, PerRequestTimeout: 2 * time.Second, MaxBodyBytes: 16}
	body, _, err = small.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got len=%d err=%v", len(body), err)
	}
	if body != nil {
		t.Fatalf("truncated body returned: %q", body)
	}
	if IsTransient(err) {
		t.Fatalf("oversized body must not be retried")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls=%d, want 2", got)
	}
}

func TestGet_RedirectLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second, RedirectMaxHops: 2}
	if _, _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected redirect loop to fail")
	}
}

func TestGet_MaxConcurrent(t *testing.T) {
	var inFlight, maxObserved int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxObserved)
			if n <= m || atomic.CompareAndSwapInt32(&maxObserved, m, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second, MaxConcurrent: 2}
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Get(context.Background(), srv.URL)
		}()
	}
	wg.Wait()
	if atomic.LoadInt32(&maxObserved) > 2 {
		t.Fatalf("expected max concurrency <= 2, got %d", maxObserved)
	}
}
