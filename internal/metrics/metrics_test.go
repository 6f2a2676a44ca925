package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAttempt(t *testing.T) {
	before := testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("wikipedia", "success"))
	RecordAttempt("wikipedia", "success", 20*time.Millisecond)
	RecordAttempt("wikipedia", "success", 5*time.Millisecond)
	if got := testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("wikipedia", "success")) - before; got != 2 {
		t.Fatalf("attempts delta=%v, want 2", got)
	}
}

func TestRecordAnswer_EmptySourceIsNone(t *testing.T) {
	before := testutil.ToFloat64(answersTotal.WithLabelValues("none"))
	RecordAnswer("")
	if got := testutil.ToFloat64(answersTotal.WithLabelValues("none")) - before; got != 1 {
		t.Fatalf("none delta=%v, want 1", got)
	}
}

func TestSetCacheAndHandler(t *testing.T) {
	SetCache(3, 5, 3)
	RecordImage("rate_limited")
	if got := testutil.ToFloat64(cacheEntries); got != 3 {
		t.Fatalf("entries=%v", got)
	}

	srv := httptest.NewServer(Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"knifeai_lookup_cache_entries 3", `knifeai_image_results_total{outcome="rate_limited"}`} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
}
