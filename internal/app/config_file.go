package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/Raymad123/knife-ai/internal/imagegen"
	"github.com/Raymad123/knife-ai/internal/llm"
	"github.com/Raymad123/knife-ai/internal/query"
	"github.com/Raymad123/knife-ai/internal/search"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Domain struct {
		Prefix  string `yaml:"prefix" json:"prefix"`
		Caption string `yaml:"caption" json:"caption"`
	} `yaml:"domain" json:"domain"`

	Providers struct {
		Wikipedia  string   `yaml:"wikipedia" json:"wikipedia"`
		DuckDuckGo string   `yaml:"duckduckgo" json:"duckduckgo"`
		Timeout    Duration `yaml:"timeout" json:"timeout"`
		UserAgent  string   `yaml:"userAgent" json:"userAgent"`
	} `yaml:"providers" json:"providers"`

	LLM struct {
		BaseURL      string   `yaml:"base" json:"base"`
		Model        string   `yaml:"model" json:"model"`
		APIKey       string   `yaml:"key" json:"key"`
		Timeout      Duration `yaml:"timeout" json:"timeout"`
		SystemPrompt string   `yaml:"systemPrompt" json:"systemPrompt"`
		Disable      bool     `yaml:"disable" json:"disable"`
	} `yaml:"llm" json:"llm"`

	Images struct {
		Model   string   `yaml:"model" json:"model"`
		Size    string   `yaml:"size" json:"size"`
		Timeout Duration `yaml:"timeout" json:"timeout"`
		Disable bool     `yaml:"disable" json:"disable"`
		Dir     string   `yaml:"dir" json:"dir"`
	} `yaml:"images" json:"images"`

	Output struct {
		PDF string `yaml:"pdf" json:"pdf"`
	} `yaml:"output" json:"output"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration is a config file duration written as a Go duration string
// ("5s", "1m30s"). Bare numbers are read as nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch x := v.(type) {
	case nil:
		*d = 0
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(x))
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", x, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(int64(x))
	case int:
		*d = Duration(int64(x))
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg, so explicit flags and env keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fillDur := func(dst *time.Duration, v Duration) {
		if *dst == 0 && v > 0 {
			*dst = time.Duration(v)
		}
	}
	fill(&cfg.DomainPrefix, fc.Domain.Prefix)
	fill(&cfg.Caption, fc.Domain.Caption)

	fill(&cfg.WikipediaURL, fc.Providers.Wikipedia)
	fill(&cfg.DuckDuckGoURL, fc.Providers.DuckDuckGo)
	fill(&cfg.UserAgent, fc.Providers.UserAgent)
	fillDur(&cfg.ProviderTimeout, fc.Providers.Timeout)

	fill(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	fill(&cfg.LLMModel, fc.LLM.Model)
	fill(&cfg.LLMAPIKey, fc.LLM.APIKey)
	fill(&cfg.SystemPrompt, fc.LLM.SystemPrompt)
	fillDur(&cfg.LLMTimeout, fc.LLM.Timeout)
	if !cfg.NoLLM && fc.LLM.Disable {
		cfg.NoLLM = true
	}

	fill(&cfg.ImageModel, fc.Images.Model)
	fill(&cfg.ImageSize, fc.Images.Size)
	fill(&cfg.ImageDir, fc.Images.Dir)
	fillDur(&cfg.ImageTimeout, fc.Images.Timeout)
	if !cfg.NoImages && fc.Images.Disable {
		cfg.NoImages = true
	}

	fill(&cfg.PDFPath, fc.Output.PDF)
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ApplyDefaults fills whatever is still unset after flags, env and file.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	def := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	def(&cfg.DomainPrefix, query.DefaultPrefix)
	def(&cfg.Caption, defaultCaption)
	def(&cfg.WikipediaURL, search.DefaultWikipediaURL)
	def(&cfg.DuckDuckGoURL, search.DefaultDuckDuckGoURL)
	def(&cfg.UserAgent, defaultUserAgent)
	def(&cfg.LLMModel, llm.DefaultModel)
	def(&cfg.ImageModel, imagegen.DefaultModel)
	def(&cfg.ImageSize, imagegen.DefaultSize)
	def(&cfg.ImageDir, ".")
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = search.DefaultTimeout
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = llm.DefaultTimeout
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = imagegen.DefaultTimeout
	}
}

var imageSizeRe = regexp.MustCompile(`^[1-9][0-9]*x[1-9][0-9]*$`)

// ValidateConfig performs minimal schema validation. A missing API key is
// not an error: the features that need it degrade on their own.
func ValidateConfig(cfg Config) error {
	for name, raw := range map[string]string{"wikipedia url": cfg.WikipediaURL, "duckduckgo url": cfg.DuckDuckGoURL, "llm base url": cfg.LLMBaseURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: invalid %s %q", name, raw)
		}
	}
	if cfg.ProviderTimeout < 0 || cfg.LLMTimeout < 0 || cfg.ImageTimeout < 0 {
		return errors.New("config: negative timeouts are not allowed")
	}
	if cfg.ImageSize != "" && !imageSizeRe.MatchString(cfg.ImageSize) {
		return fmt.Errorf("config: image size %q must look like 1024x1536", cfg.ImageSize)
	}
	return nil
}
