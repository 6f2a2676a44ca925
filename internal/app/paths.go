package app

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Raymad123/knife-ai/internal/imagegen"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases s and collapses every run of non-alphanumerics to '-'.
func slugify(s string) string {
	s = slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = strings.Trim(s, "-")
	if len(s) > 48 {
		s = strings.TrimRight(s[:48], "-")
	}
	return s
}

// deriveImagePath returns a stable output path under dir for the given
// question. The filename uses a slugified question and a short hash of it so
// that different questions with the same slug do not collide.
func deriveImagePath(dir, question, format string) string {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	q := strings.ToLower(strings.TrimSpace(question))
	slug := slugify(q)
	if slug == "" {
		slug = "illustration"
	}
	h := sha256.Sum256([]byte(q))
	short := hex.EncodeToString(h[:])[:12]
	ext := format
	switch ext {
	case "jpeg", "jpg":
		ext = "jpg"
	case "gif":
	default:
		ext = "png"
	}
	return filepath.Join(dir, slug+"-"+short+"."+ext)
}

// SaveImage writes the illustration bytes under dir and returns the path.
func SaveImage(dir, question string, img *imagegen.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", errors.New("no image data")
	}
	path := deriveImagePath(dir, question, img.Format)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
