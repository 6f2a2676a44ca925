package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Raymad123/knife-ai/internal/app"
	"github.com/Raymad123/knife-ai/internal/metrics"
	"github.com/Raymad123/knife-ai/internal/query"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath   string
		envFiles     string
		domain       string
		wikiURL      string
		ddgURL       string
		providerTO   time.Duration
		llmBaseURL   string
		llmModel     string
		llmKey       string
		systemPrompt string
		noLLM        bool
		imageModel   string
		imageSize    string
		imageDir     string
		noImages     bool
		pdfPath      string
		preflight    bool
		metricsAddr  string
		verbose      bool
		showVersion  bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("KNIFEAI_CONFIG"), "Optional YAML/JSON config file")
	flag.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load (missing files are ignored)")
	flag.StringVar(&domain, "domain", "", "Domain prefix added to every query (default \"knife\")")
	flag.StringVar(&wikiURL, "wikipedia.url", "", "Wikipedia base URL")
	flag.StringVar(&ddgURL, "duckduckgo.url", "", "DuckDuckGo instant answer URL")
	flag.DurationVar(&providerTO, "provider.timeout", 0, "Per-call timeout for Wikipedia and DuckDuckGo (default 5s)")
	flag.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", "", "Chat model for the generative fallback")
	flag.StringVar(&llmKey, "llm.key", "", "API key (defaults to OPENAI_API_KEY)")
	flag.StringVar(&systemPrompt, "llm.systemPrompt", "", "Override the fallback system prompt")
	flag.BoolVar(&noLLM, "no-llm", false, "Disable the generative fallback")
	flag.StringVar(&imageModel, "image.model", "", "Image generation model")
	flag.StringVar(&imageSize, "image.size", "", "Image size, e.g. 1024x1536")
	flag.StringVar(&imageDir, "image.dir", "", "Directory for generated illustrations")
	flag.BoolVar(&noImages, "no-images", false, "Disable image generation")
	flag.StringVar(&pdfPath, "pdf", "", "Also write the last answer as a PDF handout to this path")
	flag.BoolVar(&preflight, "preflight", false, "List models at startup to check the credential")
	flag.StringVar(&metricsAddr, "metrics.addr", os.Getenv("METRICS_ADDR"), "Serve Prometheus metrics on this address, e.g. :9090 (disabled when empty)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(app.VersionString())
		return
	}

	if err := app.LoadEnvFiles(splitList(envFiles)...); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}

	var fc *app.FileConfig
	if strings.TrimSpace(configPath) != "" {
		loaded, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config")
		}
		fc = &loaded
	}
	// Flags win, then env, then the config file.
	cfg := app.LayerConfig(fc, func(c *app.Config) {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "domain":
				c.DomainPrefix = domain
			case "wikipedia.url":
				c.WikipediaURL = wikiURL
			case "duckduckgo.url":
				c.DuckDuckGoURL = ddgURL
			case "provider.timeout":
				c.ProviderTimeout = providerTO
			case "llm.base":
				c.LLMBaseURL = llmBaseURL
			case "llm.model":
				c.LLMModel = llmModel
			case "llm.key":
				c.LLMAPIKey = llmKey
			case "llm.systemPrompt":
				c.SystemPrompt = systemPrompt
			case "no-llm":
				c.NoLLM = noLLM
			case "image.model":
				c.ImageModel = imageModel
			case "image.size":
				c.ImageSize = imageSize
			case "image.dir":
				c.ImageDir = imageDir
			case "no-images":
				c.NoImages = noImages
			case "pdf":
				c.PDFPath = pdfPath
			case "v":
				c.Verbose = verbose
			}
		})
		c.Preflight = preflight
	})

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if strings.TrimSpace(metricsAddr) != "" {
		go serveMetrics(metricsAddr)
	}

	if err := run(context.Background(), cfg, flag.Args(), os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// run answers the question given on the command line, or reads one question
// per line from in until EOF or "quit".
func run(ctx context.Context, cfg app.Config, args []string, in io.Reader, out io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		return answer(ctx, a, q, out)
	}

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "Ask about a knife skill or tool (quit to exit): ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			break
		}
		if err := answer(ctx, a, line, out); err != nil {
			return err
		}
		fmt.Fprint(out, "\n> ")
	}
	return scanner.Err()
}

func answer(ctx context.Context, a *app.App, question string, out io.Writer) error {
	cfg := a.Config()
	resp, err := a.Ask(ctx, question)
	if errors.Is(err, query.ErrEmptyQuery) {
		fmt.Fprintln(out, "Please enter a question.")
		return nil
	}
	if err != nil {
		return err
	}

	var imagePath string
	if resp.Image != nil {
		if resp.Image.OK() {
			p, err := app.SaveImage(cfg.ImageDir, question, resp.Image.Image)
			if err != nil {
				log.Warn().Err(err).Msg("could not save illustration")
			} else {
				imagePath = p
			}
		} else if f := resp.Image.Failure; f != nil {
			log.Warn().Str("kind", string(f.Kind)).Msg(f.Message)
		}
	}

	fmt.Fprint(out, app.RenderText(resp, cfg.Caption, imagePath))
	if cfg.Verbose {
		log.Debug().Msg(a.StatsLine())
	}
	if cfg.PDFPath != "" {
		if err := app.WritePDF(resp, cfg.Caption, cfg.PDFPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.PDFPath).Msg("pdf export failed")
		} else {
			log.Info().Str("out", cfg.PDFPath).Msg("wrote pdf")
		}
	}
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("metrics server stopped")
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}
