package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Raymad123/knife-ai/internal/imagegen"
	"github.com/Raymad123/knife-ai/internal/resolver"
)

func TestWritePDF_WithImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "answer.pdf")
	resp := Response{
		Question: "sharpening angle",
		Answer:   resolver.Answer{Text: "Most kitchen knives are sharpened at 15–20° per side.\nJapanese blades go lower.", Source: "wikipedia"},
		Image:    &imagegen.Result{Image: &imagegen.Image{Format: "png", Data: onePixelPNG(t)}},
	}
	if err := WritePDF(resp, defaultCaption, out); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestWritePDF_ImageFailureStillWritesText(t *testing.T) {
	out := filepath.Join(t.TempDir(), "answer.pdf")
	resp := Response{
		Question: "tang",
		Answer:   resolver.Answer{Text: resolver.NotFoundMessage},
		Image:    &imagegen.Result{Failure: &imagegen.Error{Kind: imagegen.KindRateLimited, Message: "slow down"}},
	}
	if err := WritePDF(resp, "", out); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
}

func TestPDFImageType(t *testing.T) {
	if pdfImageType("jpeg") != "JPG" || pdfImageType("png") != "PNG" || pdfImageType("webp") != "" {
		t.Fatalf("unexpected mapping")
	}
}
