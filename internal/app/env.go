package app

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads one or more dotenv files into the process environment.
// Later files override earlier ones, but variables already present in the
// process environment are left untouched. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, p)
	}
	if len(existing) == 0 {
		return nil
	}
	merged, err := godotenv.Read(existing...)
	if err != nil {
		return err
	}
	for k, v := range merged {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
