// Package resolver walks the ranked provider chain and returns the first
// answer. It never fails for a non-empty question.
package resolver

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Raymad123/knife-ai/internal/query"
	"github.com/Raymad123/knife-ai/internal/search"
)

// NotFoundMessage is returned when every provider comes back empty. This only
// happens when the generative fallback is disabled.
const NotFoundMessage = "No information found for this topic."

// Attempt records one provider call for diagnostics.
type Attempt struct {
	Provider string
	Status   search.Status
	Err      error
	Elapsed  time.Duration
}

// Answer is the text channel of a resolution.
type Answer struct {
	Query    query.Formatted
	Text     string
	Source   string // winning provider, "" when NotFoundMessage was used
	Attempts []Attempt
}

// Found reports whether a provider supplied the text.
func (a Answer) Found() bool { return a.Source != "" }

// Resolver consults Providers in rank order. The first success wins; there is
// no scoring and no merging of partial answers.
type Resolver struct {
	Prefix    string
	Providers []search.Provider
}

// Resolve formats raw and runs the fallback chain. The only error it returns
// is query.ErrEmptyQuery, in which case no provider was called.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Answer, error) {
	q, err := query.Format(raw, r.Prefix)
	if err != nil {
		return Answer{}, err
	}
	ans := Answer{Query: q, Attempts: make([]Attempt, 0, len(r.Providers))}
	for _, p := range r.Providers {
		start := time.Now()
		res := p.Fetch(ctx, q.String())
		ans.Attempts = append(ans.Attempts, Attempt{Provider: p.Name(), Status: res.Status, Err: res.Err, Elapsed: time.Since(start)})

		switch res.Status {
		case search.StatusSuccess:
			if res.Text == "" {
				continue
			}
			log.Debug().Str("provider", p.Name()).Str("query", q.String()).Msg("answer found")
			ans.Text = res.Text
			ans.Source = p.Name()
			return ans, nil
		case search.StatusTransient:
			log.Warn().Err(res.Err).Str("provider", p.Name()).Str("query", q.String()).Msg("provider unavailable; falling back")
		default:
			log.Debug().Str("provider", p.Name()).Str("query", q.String()).Msg("no answer; falling back")
		}
	}
	ans.Text = NotFoundMessage
	return ans, nil
}
