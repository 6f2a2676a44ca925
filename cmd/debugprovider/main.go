package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Raymad123/knife-ai/internal/app"
	"github.com/Raymad123/knife-ai/internal/fetch"
	"github.com/Raymad123/knife-ai/internal/llm"
	"github.com/Raymad123/knife-ai/internal/query"
	"github.com/Raymad123/knife-ai/internal/search"
)

// debugprovider runs a single provider and prints its tagged result.
// Usage: debugprovider [wikipedia|duckduckgo|llm] [question...]
func main() {
	name := "wikipedia"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	q := "sharpening angle"
	if len(os.Args) > 2 {
		q = strings.Join(os.Args[2:], " ")
	}
	var cfg app.Config
	app.ApplyEnvToConfig(&cfg)
	app.ApplyDefaults(&cfg)

	formatted, err := query.Format(q, cfg.DomainPrefix)
	if err != nil {
		fmt.Println("err:", err)
		os.Exit(2)
	}

	f := &fetch.Client{UserAgent: cfg.UserAgent, MaxAttempts: 1, PerRequestTimeout: cfg.ProviderTimeout}
	var prov search.Provider
	switch name {
	case "wikipedia":
		prov = &search.Wikipedia{BaseURL: cfg.WikipediaURL, Fetcher: f, Timeout: cfg.ProviderTimeout}
	case "duckduckgo":
		prov = &search.DuckDuckGo{BaseURL: cfg.DuckDuckGoURL, Fetcher: f, Timeout: cfg.ProviderTimeout}
	case "llm":
		fb := &llm.Fallback{Domain: cfg.DomainPrefix, Model: cfg.LLMModel, SystemPrompt: cfg.SystemPrompt, Timeout: cfg.LLMTimeout}
		if p := llm.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMBaseURL, nil); p != nil {
			fb.Client = p
		}
		prov = fb
	default:
		fmt.Println("unknown provider:", name)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	start := time.Now()
	res := prov.Fetch(ctx, formatted.String())
	fmt.Printf("provider: %s\nquery: %s\nstatus: %s\nelapsed: %s\n", prov.Name(), formatted, res.Status, time.Since(start).Round(time.Millisecond))
	if res.Err != nil {
		fmt.Println("err:", res.Err)
	}
	if res.Text != "" {
		fmt.Println()
		fmt.Println(res.Text)
	}
}
