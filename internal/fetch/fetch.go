package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnsupportedContentType is returned when the response media type is not
// one of the client's accepted prefixes.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// ErrBodyTooLarge is returned when a response body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// NotFound reports whether the server answered definitively that the
// resource does not exist.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusGone
}

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Accept lists allowed Content-Type prefixes. Empty accepts anything.
	Accept []string
	// MaxBodyBytes caps how much of a body is read. Zero means 16 MiB.
	MaxBodyBytes int64

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	// internal limiter initialized on first use when MaxConcurrent > 0
	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, user-agent, and bounded retry for transient errors.
// It returns the body and its Content-Type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, ct, err := c.tryOnce(ctx, rawURL)
		if err == nil {
			return body, ct, nil
		}
		if !IsTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, "", lastErr
}

// GetJSON performs Get and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, _, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) ([]byte, string, error) {
	// Concurrency gate per client instance
	if err := c.acquire(ctx); err != nil {
		return nil, "", err
	}
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !c.accepts(contentType) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, "", fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, limit, rawURL)
	}
	return b, contentType, nil
}

// IsTransient reports whether err means the server did not answer in time or
// failed on its side, as opposed to a definitive client-side answer.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests || se.Code == http.StatusRequestTimeout
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func (c *Client) accepts(ct string) bool {
	if len(c.Accept) == 0 {
		return true
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, p := range c.Accept {
		if strings.HasPrefix(ct, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
		// should not happen, but avoid blocking
	}
}
