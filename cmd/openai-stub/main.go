package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// openai-stub answers the three OpenAI endpoints knifeai uses so the CLI can
// run end to end without a real credential: point LLM_BASE_URL at it and set
// any non-empty OPENAI_API_KEY.

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		var topic string
		for _, m := range req.Messages {
			if m.Role == "user" {
				topic = strings.TrimSpace(strings.TrimPrefix(m.Content, "Explain about:"))
			}
		}
		if topic == "" {
			http.Error(w, "missing user message", http.StatusBadRequest)
			return
		}
		content := "Stub explanation of " + topic + ": keep the blade steady, cut away from your body and keep fingers curled."
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req imageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.TrimSpace(req.Prompt) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "prompt is required", "type": "invalid_request_error"}})
			return
		}
		data, err := bladePNG()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": time.Now().Unix(),
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(data), "revised_prompt": req.Prompt}},
		})
	})
	return mux
}

// bladePNG draws a small grey blade on a white portrait canvas.
func bladePNG() ([]byte, error) {
	const w, h = 32, 48
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{255, 255, 255, 255}
			switch {
			case y < 30 && x >= 14 && x <= 17-y/15:
				c = color.RGBA{160, 160, 170, 255}
			case y >= 30 && x >= 13 && x <= 18:
				c = color.RGBA{90, 60, 30, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
