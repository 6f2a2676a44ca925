package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/Raymad123/knife-ai/internal/cache"
	"github.com/Raymad123/knife-ai/internal/extract"
	"github.com/Raymad123/knife-ai/internal/fetch"
)

// DefaultDuckDuckGoURL is the DuckDuckGo Instant Answer API endpoint.
const DefaultDuckDuckGoURL = "https://api.duckduckgo.com/"

// DuckDuckGo is the secondary provider backed by the Instant Answer API.
// Only the abstract (or, failing that, the definition) is used.
type DuckDuckGo struct {
	BaseURL string
	Fetcher *fetch.Client
	Cache   *cache.Lookup
	Timeout time.Duration
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Fetch(ctx context.Context, query string) Result {
	ctx, cancel := withTimeout(ctx, d.Timeout)
	defer cancel()

	e, err := d.Cache.GetOrCompute(ctx, "duckduckgo:"+query, func(ctx context.Context) (cache.Entry, error) {
		base := d.BaseURL
		if base == "" {
			base = DefaultDuckDuckGoURL
		}
		u, err := url.Parse(base)
		if err != nil {
			return cache.Entry{}, err
		}
		q := u.Query()
		q.Set("q", query)
		q.Set("format", "json")
		q.Set("no_redirect", "1")
		u.RawQuery = q.Encode()

		var ir instantAnswer
		if err := d.fetcher().GetJSON(ctx, u.String(), &ir); err != nil {
			// A client-side rejection is a definitive "no answer".
			var se *fetch.StatusError
			if errors.As(err, &se) && !fetch.IsTransient(err) {
				return cache.Entry{}, nil
			}
			return cache.Entry{}, err
		}
		text := ir.text()
		return cache.Entry{Value: text, Found: text != ""}, nil
	})
	if err != nil {
		return Transient(d.Name(), err)
	}
	if !e.Found {
		return Empty(d.Name())
	}
	return Success(d.Name(), e.Value)
}

func (d *DuckDuckGo) fetcher() *fetch.Client {
	if d.Fetcher != nil {
		return d.Fetcher
	}
	// Bounded by ctx: the caller's Timeout, or the cache's compute timeout
	// when the call is shared.
	return &fetch.Client{MaxAttempts: 1}
}

type instantAnswer struct {
	AbstractText string `json:"AbstractText"`
	Abstract     string `json:"Abstract"`
	Definition   string `json:"Definition"`
}

func (ia instantAnswer) text() string {
	for _, s := range []string{ia.AbstractText, ia.Abstract, ia.Definition} {
		if t := extract.PlainText(s); strings.TrimSpace(t) != "" {
			return t
		}
	}
	return ""
}
