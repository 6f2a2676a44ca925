package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Raymad123/knife-ai/internal/fetch"
)

const (
	DefaultModel = "gpt-image-1"
	// DefaultSize is portrait: the subjects are long, narrow tools.
	DefaultSize    = "1024x1536"
	DefaultTimeout = 90 * time.Second
)

// Client is the subset of the OpenAI SDK used for image generation.
type Client interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// Image is a generated and decoded illustration.
type Image struct {
	Decoded       image.Image
	Data          []byte
	Format        string // png, jpeg or gif
	URL           string // empty when the provider returned inline data
	RevisedPrompt string
}

// Result is either an Image or a classified Failure.
type Result struct {
	Image   *Image
	Failure *Error
}

// OK reports whether the result carries an image.
func (r Result) OK() bool { return r.Image != nil && r.Failure == nil }

func failure(kind Kind, msg string, err error) Result {
	return Result{Failure: newError(kind, msg, err)}
}

// Generator requests one image per prompt. Model and Size are fixed for the
// lifetime of the Generator.
type Generator struct {
	// Client is nil when no credential is configured.
	Client  Client
	Fetcher *fetch.Client
	Model   string
	Size    string
	Timeout time.Duration
}

// Prompt builds the illustration prompt for a user question.
func Prompt(question, domain string) string {
	q := strings.TrimSpace(question)
	if d := strings.TrimSpace(domain); d != "" {
		return fmt.Sprintf("High-quality, realistic illustration of %s %s skill or tool", q, d)
	}
	return fmt.Sprintf("High-quality, realistic illustration of %s", q)
}

// Generate requests an image for prompt and decodes it. It never returns a
// bare nil: either Image or Failure is set.
func (g *Generator) Generate(ctx context.Context, prompt string) Result {
	if g.Client == nil {
		return failure(KindConfigMissing, "image generation credential is not configured", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return failure(KindInvalidRequest, "empty prompt", nil)
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.Client.CreateImage(ctx, openai.ImageRequest{
		Prompt: prompt,
		Model:  pick(g.Model, DefaultModel),
		Size:   pick(g.Size, DefaultSize),
		N:      1,
	})
	if err != nil {
		e := Classify(err)
		log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("image generation failed")
		return Result{Failure: e}
	}
	if len(resp.Data) == 0 {
		return failure(KindServiceError, "no image returned from API", nil)
	}
	item := resp.Data[0]

	var data []byte
	switch {
	case item.URL != "":
		data, err = g.download(ctx, item.URL)
		if err != nil {
			return Result{Failure: classifyDownload(err)}
		}
	case item.B64JSON != "":
		data, err = base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return failure(KindDecodeError, "invalid base64 image payload", err)
		}
	default:
		return failure(KindServiceError, "image response has neither url nor data", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return failure(KindDecodeError, "", err)
	}
	return Result{Image: &Image{Decoded: img, Data: data, Format: format, URL: item.URL, RevisedPrompt: item.RevisedPrompt}}
}

func (g *Generator) download(ctx context.Context, rawURL string) ([]byte, error) {
	f := g.Fetcher
	if f == nil {
		f = &fetch.Client{MaxAttempts: 1, PerRequestTimeout: 30 * time.Second}
	}
	body, _, err := f.Get(ctx, rawURL)
	return body, err
}

func classifyDownload(err error) *Error {
	if errors.Is(err, fetch.ErrUnsupportedContentType) {
		return newError(KindDecodeError, "", err)
	}
	var se *fetch.StatusError
	if errors.As(err, &se) {
		return newError(KindServiceError, fmt.Sprintf("image download failed with status %d", se.Code), err)
	}
	return Classify(err)
}

func pick(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
