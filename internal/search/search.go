package search

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single provider call, including every HTTP request
// it issues.
const DefaultTimeout = 5 * time.Second

// Status tags the outcome of a provider call.
type Status int

const (
	// StatusEmpty means the provider answered but had nothing for the query.
	StatusEmpty Status = iota
	// StatusSuccess means Text holds a usable answer.
	StatusSuccess
	// StatusTransient means the provider could not be asked (network fault,
	// timeout, server error). Fallback treats it like StatusEmpty.
	StatusTransient
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusTransient:
		return "transient"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the tagged outcome of Provider.Fetch.
type Result struct {
	Status Status
	Text   string
	Err    error  // cause of a transient failure
	Source string // provider name for observability
}

// OK reports whether the result carries answer text.
func (r Result) OK() bool { return r.Status == StatusSuccess && r.Text != "" }

// Success builds a successful result. Blank text degrades to Empty so a
// provider can never hand an empty answer to the orchestrator.
func Success(source, text string) Result {
	if text == "" {
		return Empty(source)
	}
	return Result{Status: StatusSuccess, Text: text, Source: source}
}

// Empty builds a "no answer" result.
func Empty(source string) Result {
	return Result{Status: StatusEmpty, Source: source}
}

// Transient builds a "could not ask" result.
func Transient(source string, err error) Result {
	return Result{Status: StatusTransient, Err: err, Source: source}
}

// Provider is one rung of the fallback chain. Fetch never returns an error or
// panics: every failure is folded into the Result.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string) Result
}

// withTimeout applies d (or DefaultTimeout) to ctx.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
