package app

import (
	"os"
	"strings"
	"time"
)

type envString struct {
	field func(*Config) *string
	keys  []string
}

type envDur struct {
	field func(*Config) *time.Duration
	key   string
}

type envFlag struct {
	field func(*Config) *bool
	key   string
}

var (
	envStrings = []envString{
		{func(c *Config) *string { return &c.LLMAPIKey }, []string{"OPENAI_API_KEY", "LLM_API_KEY"}},
		{func(c *Config) *string { return &c.LLMBaseURL }, []string{"LLM_BASE_URL", "OPENAI_BASE_URL"}},
		{func(c *Config) *string { return &c.LLMModel }, []string{"LLM_MODEL"}},
		{func(c *Config) *string { return &c.SystemPrompt }, []string{"LLM_SYSTEM_PROMPT"}},
		{func(c *Config) *string { return &c.ImageModel }, []string{"IMAGE_MODEL"}},
		{func(c *Config) *string { return &c.ImageSize }, []string{"IMAGE_SIZE"}},
		{func(c *Config) *string { return &c.ImageDir }, []string{"IMAGE_DIR"}},
		{func(c *Config) *string { return &c.DomainPrefix }, []string{"DOMAIN_PREFIX"}},
		{func(c *Config) *string { return &c.WikipediaURL }, []string{"WIKIPEDIA_URL"}},
		{func(c *Config) *string { return &c.DuckDuckGoURL }, []string{"DUCKDUCKGO_URL"}},
		{func(c *Config) *string { return &c.UserAgent }, []string{"USER_AGENT"}},
	}
	envDurations = []envDur{
		{func(c *Config) *time.Duration { return &c.ProviderTimeout }, "PROVIDER_TIMEOUT"},
		{func(c *Config) *time.Duration { return &c.LLMTimeout }, "LLM_TIMEOUT"},
		{func(c *Config) *time.Duration { return &c.ImageTimeout }, "IMAGE_TIMEOUT"},
	}
	envFlags = []envFlag{
		{func(c *Config) *bool { return &c.NoImages }, "NO_IMAGES"},
		{func(c *Config) *bool { return &c.NoLLM }, "NO_LLM_FALLBACK"},
		{func(c *Config) *bool { return &c.Verbose }, "VERBOSE"},
	}
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	for _, e := range envStrings {
		if dst := e.field(cfg); *dst == "" {
			if v, ok := envFirst(e.keys...); ok {
				*dst = v
			}
		}
	}
	for _, e := range envDurations {
		if dst := e.field(cfg); *dst == 0 {
			if d, ok := envDuration(e.key); ok {
				*dst = d
			}
		}
	}
	for _, e := range envFlags {
		if dst := e.field(cfg); !*dst {
			if v, ok := envBool(e.key); ok && v {
				*dst = true
			}
		}
	}
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
// Booleans follow the env value either way, so NO_IMAGES=false re-enables
// images that a config file disabled.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	for _, e := range envStrings {
		if v, ok := envFirst(e.keys...); ok {
			*e.field(cfg) = v
		}
	}
	for _, e := range envDurations {
		if d, ok := envDuration(e.key); ok {
			*e.field(cfg) = d
		}
	}
	for _, e := range envFlags {
		if v, ok := envBool(e.key); ok {
			*e.field(cfg) = v
		}
	}
}

func envFirst(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, true
		}
	}
	return "", false
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
