package app

import "time"

// Config holds runtime configuration for the application. It is resolved
// once at startup (flags, then env, then config file, then defaults) and
// handed to the core as plain values.
type Config struct {
	// Domain
	DomainPrefix string
	Caption      string

	// Providers
	WikipediaURL    string
	DuckDuckGoURL   string
	ProviderTimeout time.Duration
	UserAgent       string

	// LLM (generative text fallback and images share the credential)
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	LLMTimeout   time.Duration
	SystemPrompt string
	NoLLM        bool
	// Preflight lists models at startup to surface credential problems early.
	Preflight bool

	// Images
	ImageModel   string
	ImageSize    string
	ImageTimeout time.Duration
	NoImages     bool
	ImageDir     string

	// Output
	PDFPath string
	Verbose bool
}

const (
	defaultCaption   = "Educational use only. Always practice knife skills safely."
	defaultUserAgent = "knifeai/1.0 (+https://github.com/Raymad123/knife-ai)"
)

// LayerConfig builds the effective configuration: config file values (fc may
// be nil), overridden by environment variables, overridden by explicit, which
// applies the flags actually given on the command line. Defaults are filled
// later by New.
func LayerConfig(fc *FileConfig, explicit func(*Config)) Config {
	var cfg Config
	if fc != nil {
		ApplyFileConfig(&cfg, *fc)
	}
	ApplyEnvOverrides(&cfg)
	if explicit != nil {
		explicit(&cfg)
	}
	return cfg
}
