package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Raymad123/knife-ai/internal/cache"
	"github.com/Raymad123/knife-ai/internal/extract"
	"github.com/Raymad123/knife-ai/internal/fetch"
)

// DefaultWikipediaURL is the English Wikipedia origin.
const DefaultWikipediaURL = "https://en.wikipedia.org"

// Wikipedia is the primary, encyclopedic provider. It resolves the query to
// the top-ranked article title, then fetches that article's summary.
type Wikipedia struct {
	BaseURL string
	Fetcher *fetch.Client
	// Cache memoizes both the title search and the summary fetch.
	Cache   *cache.Lookup
	Timeout time.Duration
}

func (w *Wikipedia) Name() string { return "wikipedia" }

// Fetch runs title search then summary fetch. When the search yields no
// title the summary endpoint is not called.
func (w *Wikipedia) Fetch(ctx context.Context, query string) Result {
	ctx, cancel := withTimeout(ctx, w.Timeout)
	defer cancel()

	title, err := w.SearchTitle(ctx, query)
	if err != nil {
		return Transient(w.Name(), err)
	}
	if title == "" {
		log.Debug().Str("provider", w.Name()).Str("query", query).Msg("no matching title")
		return Empty(w.Name())
	}
	summary, err := w.Summary(ctx, title)
	if err != nil {
		return Transient(w.Name(), err)
	}
	return Success(w.Name(), summary)
}

// SearchTitle returns the top-ranked article title for query, or "" when the
// search has no hits.
func (w *Wikipedia) SearchTitle(ctx context.Context, query string) (string, error) {
	e, err := w.Cache.GetOrCompute(ctx, "wikipedia.search:"+query, func(ctx context.Context) (cache.Entry, error) {
		u, err := w.endpoint("/w/api.php")
		if err != nil {
			return cache.Entry{}, err
		}
		q := u.Query()
		q.Set("action", "query")
		q.Set("list", "search")
		q.Set("srsearch", query)
		q.Set("format", "json")
		u.RawQuery = q.Encode()

		var sr wikiSearchResponse
		if err := w.fetcher().GetJSON(ctx, u.String(), &sr); err != nil {
			return cache.Entry{}, err
		}
		for _, hit := range sr.Query.Search {
			if t := strings.TrimSpace(hit.Title); t != "" {
				return cache.Entry{Value: t, Found: true}, nil
			}
		}
		return cache.Entry{}, nil
	})
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// Summary returns the plain-text summary of the article with the exact title.
// A missing article is a definitive "" rather than an error.
func (w *Wikipedia) Summary(ctx context.Context, title string) (string, error) {
	e, err := w.Cache.GetOrCompute(ctx, "wikipedia.summary:"+title, func(ctx context.Context) (cache.Entry, error) {
		u, err := w.endpoint("/api/rest_v1/page/summary/")
		if err != nil {
			return cache.Entry{}, err
		}
		// The REST API addresses pages by title with underscores for spaces.
		target := u.String() + url.PathEscape(strings.ReplaceAll(title, " ", "_"))

		var sr wikiSummaryResponse
		if err := w.fetcher().GetJSON(ctx, target, &sr); err != nil {
			var se *fetch.StatusError
			if errors.As(err, &se) && se.NotFound() {
				return cache.Entry{}, nil
			}
			return cache.Entry{}, err
		}
		text := extract.PlainText(sr.Extract)
		return cache.Entry{Value: text, Found: text != ""}, nil
	})
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (w *Wikipedia) endpoint(path string) (*url.URL, error) {
	base := w.BaseURL
	if base == "" {
		base = DefaultWikipediaURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u, nil
}

func (w *Wikipedia) fetcher() *fetch.Client {
	if w.Fetcher != nil {
		return w.Fetcher
	}
	// Bounded by ctx: the caller's Timeout, or the cache's compute timeout
	// when the call is shared.
	return &fetch.Client{MaxAttempts: 1}
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}
