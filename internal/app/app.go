package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Raymad123/knife-ai/internal/cache"
	"github.com/Raymad123/knife-ai/internal/fetch"
	"github.com/Raymad123/knife-ai/internal/imagegen"
	"github.com/Raymad123/knife-ai/internal/llm"
	"github.com/Raymad123/knife-ai/internal/metrics"
	"github.com/Raymad123/knife-ai/internal/query"
	"github.com/Raymad123/knife-ai/internal/resolver"
	"github.com/Raymad123/knife-ai/internal/search"
)

// App wires the provider chain, the lookup cache and the image generator for
// one process. It is safe for sequential use; the CLI handles one request at
// a time.
type App struct {
	cfg      Config
	ai       *llm.OpenAIProvider // nil without a credential
	lookup   *cache.Lookup
	resolver *resolver.Resolver
	images   *imagegen.Generator
}

// Response is what one question produces. The two channels are independent:
// an image failure never affects the answer text.
type Response struct {
	// ID correlates log lines for one question.
	ID       string
	Question string
	Answer   resolver.Answer
	// Image is nil when image generation is disabled.
	Image *imagegen.Result
}

// ErrNoCredential is logged at startup when no API key is configured. It is
// not fatal: the generative fallback and images degrade to messages.
var ErrNoCredential = errors.New("no API key configured")

func New(ctx context.Context, cfg Config) (*App, error) {
	ApplyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	httpClient := newProviderHTTPClient(cfg.ImageTimeout)
	fetcher := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       1,
		PerRequestTimeout: cfg.ProviderTimeout,
		RedirectMaxHops:   5,
		MaxConcurrent:     4,
	}

	a := &App{cfg: cfg, lookup: cache.NewLookup()}
	a.ai = llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMBaseURL, httpClient)
	if a.ai == nil {
		log.Warn().Err(ErrNoCredential).Msg("generative fallback and images are unavailable; set OPENAI_API_KEY")
	}

	providers := []search.Provider{
		&search.Wikipedia{BaseURL: cfg.WikipediaURL, Fetcher: fetcher, Cache: a.lookup, Timeout: cfg.ProviderTimeout},
		&search.DuckDuckGo{BaseURL: cfg.DuckDuckGoURL, Fetcher: fetcher, Cache: a.lookup, Timeout: cfg.ProviderTimeout},
	}
	if !cfg.NoLLM {
		fb := &llm.Fallback{
			Model:        cfg.LLMModel,
			Domain:       cfg.DomainPrefix,
			SystemPrompt: cfg.SystemPrompt,
			Timeout:      cfg.LLMTimeout,
		}
		// A typed nil must not end up inside the interface.
		if a.ai != nil {
			fb.Client = a.ai
		}
		providers = append(providers, fb)
	}
	a.resolver = &resolver.Resolver{Prefix: cfg.DomainPrefix, Providers: providers}

	// Without a credential every image request would end in config_missing,
	// so the illustration is left out rather than reported on each answer.
	if !cfg.NoImages && a.ai != nil {
		a.images = &imagegen.Generator{
			Client: a.ai,
			Fetcher: &fetch.Client{
				HTTPClient:        httpClient,
				UserAgent:         cfg.UserAgent,
				MaxAttempts:       1,
				PerRequestTimeout: cfg.ImageTimeout,
				Accept:            []string{"image/"},
				RedirectMaxHops:   5,
			},
			Model:   cfg.ImageModel,
			Size:    cfg.ImageSize,
			Timeout: cfg.ImageTimeout,
		}
	}

	if cfg.Preflight && a.ai != nil {
		a.preflight(ctx)
	}
	return a, nil
}

// preflight lists models as a best-effort connectivity check.
func (a *App) preflight(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := a.ai.Inner.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) > 0 {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	} else {
		log.Warn().Msg("LLM returned zero models")
	}
}

func (a *App) Close() {
	st := a.lookup.Stats()
	log.Debug().Int("entries", st.Entries).Int64("hits", st.Hits).Int64("misses", st.Misses).Msg("lookup cache")
}

// Config returns the resolved configuration.
func (a *App) Config() Config { return a.cfg }

// CacheStats exposes lookup cache counters.
func (a *App) CacheStats() cache.Stats { return a.lookup.Stats() }

// Ask answers question and, unless disabled, illustrates it. A blank question
// returns query.ErrEmptyQuery before any network call.
func (a *App) Ask(ctx context.Context, question string) (Response, error) {
	if _, err := query.Format(question, a.cfg.DomainPrefix); err != nil {
		return Response{}, err
	}
	resp := Response{ID: uuid.NewString(), Question: question}
	logger := log.With().Str("request_id", resp.ID).Logger()

	var g errgroup.Group
	g.Go(func() error {
		ans, err := a.resolver.Resolve(ctx, question)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		resp.Answer = ans
		return nil
	})
	if a.images != nil {
		g.Go(func() error {
			res := a.images.Generate(ctx, imagegen.Prompt(question, a.cfg.DomainPrefix))
			resp.Image = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Response{}, err
	}
	a.record(resp)
	logger.Debug().Str("query", resp.Answer.Query.String()).Str("source", resp.Answer.Source).Int("attempts", len(resp.Answer.Attempts)).Msg("answered")
	if resp.Image != nil && resp.Image.Failure != nil {
		logger.Debug().Str("kind", string(resp.Image.Failure.Kind)).Msg("no illustration")
	}
	return resp, nil
}

func (a *App) record(resp Response) {
	for _, at := range resp.Answer.Attempts {
		metrics.RecordAttempt(at.Provider, at.Status.String(), at.Elapsed)
	}
	metrics.RecordAnswer(resp.Answer.Source)
	if resp.Image != nil {
		outcome := "ok"
		if f := resp.Image.Failure; f != nil {
			outcome = string(f.Kind)
		}
		metrics.RecordImage(outcome)
	}
	st := a.lookup.Stats()
	metrics.SetCache(st.Entries, st.Hits, st.Misses)
}
