package app

import (
	"fmt"
	"strings"

	"github.com/Raymad123/knife-ai/internal/cache"
)

// RenderText formats a response for the terminal: the answer, where it came
// from, the image outcome and the safety caption. imagePath is where the
// illustration was saved, if anywhere.
func RenderText(resp Response, caption, imagePath string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(resp.Answer.Text))
	b.WriteString("\n\n")
	if resp.Answer.Found() {
		b.WriteString("Source: ")
		b.WriteString(resp.Answer.Source)
		b.WriteString("\n")
	}
	if resp.Image != nil {
		switch {
		case resp.Image.OK() && imagePath != "":
			b.WriteString("Illustration: ")
			b.WriteString(imagePath)
			b.WriteString("\n")
		case resp.Image.Failure != nil:
			b.WriteString("Illustration unavailable: ")
			b.WriteString(resp.Image.Failure.Error())
			b.WriteString("\n")
		}
	}
	if c := strings.TrimSpace(caption); c != "" {
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}

// renderStats returns a one-line cache summary for verbose output.
func renderStats(st cache.Stats) string {
	return fmt.Sprintf("cache: entries=%d hits=%d misses=%d", st.Entries, st.Hits, st.Misses)
}

// StatsLine formats the app's cache counters.
func (a *App) StatsLine() string { return renderStats(a.lookup.Stats()) }
