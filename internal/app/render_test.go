package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Raymad123/knife-ai/internal/cache"
	"github.com/Raymad123/knife-ai/internal/imagegen"
	"github.com/Raymad123/knife-ai/internal/resolver"
)

func TestRenderText_FoundWithImage(t *testing.T) {
	resp := Response{
		Question: "honing rod",
		Answer:   resolver.Answer{Text: "A honing rod realigns the edge.", Source: "wikipedia"},
		Image:    &imagegen.Result{Image: &imagegen.Image{Format: "png", Data: []byte{1}}},
	}
	out := RenderText(resp, "Stay safe.", "out/honing-rod.png")
	for _, want := range []string{"A honing rod realigns the edge.", "Source: wikipedia", "Illustration: out/honing-rod.png", "Stay safe."} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderText_NotFoundHasNoSource(t *testing.T) {
	resp := Response{Answer: resolver.Answer{Text: resolver.NotFoundMessage}}
	out := RenderText(resp, "", "")
	if strings.Contains(out, "Source:") {
		t.Fatalf("not-found answer should not print a source:\n%s", out)
	}
}

func TestRenderStats(t *testing.T) {
	got := renderStats(cache.Stats{Entries: 3, Hits: 2, Misses: 3})
	if got != "cache: entries=3 hits=2 misses=3" {
		t.Fatalf("got %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Sharpening Angle":    "sharpening-angle",
		"  --What's a tang?": "what-s-a-tang",
		"???":                 "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestDeriveImagePath_StableAndDistinct(t *testing.T) {
	a := deriveImagePath("imgs", "Bolster", "png")
	b := deriveImagePath("imgs", "bolster ", "png")
	c := deriveImagePath("imgs", "bolster?", "jpeg")
	if a != b {
		t.Fatalf("same question should map to the same path: %q vs %q", a, b)
	}
	if !strings.HasPrefix(c, filepath.Join("imgs", "bolster-")) || !strings.HasSuffix(c, ".jpg") {
		t.Fatalf("unexpected path %q", c)
	}
	if strings.TrimSuffix(a, ".png") == strings.TrimSuffix(c, ".jpg") {
		t.Fatalf("different questions collided: %q", a)
	}
}

func TestSaveImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path, err := SaveImage(dir, "chef knife", &imagegen.Image{Format: "png", Data: []byte("data")})
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "data" {
		t.Fatalf("read back %q err=%v", b, err)
	}
	if _, err := SaveImage(dir, "x", nil); err == nil {
		t.Fatalf("expected error for nil image")
	}
}
