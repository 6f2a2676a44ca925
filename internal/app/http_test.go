package app

import (
	"net/http"
	"reflect"
	"testing"
	"time"
)

func TestNewProviderHTTPClient_Config(t *testing.T) {
	c := newProviderHTTPClient(3 * time.Second)
	if c.Timeout != 3*time.Second {
		t.Fatalf("timeout=%v, want 3s", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected http.Transport")
	}
	if tr.ResponseHeaderTimeout != 3*time.Second {
		t.Fatalf("response header timeout=%v", tr.ResponseHeaderTimeout)
	}
	// Ensure we didn't return the default client's transport
	if reflect.ValueOf(http.DefaultTransport).Pointer() == reflect.ValueOf(tr).Pointer() {
		t.Fatalf("transport should not be default")
	}
}

func TestNewProviderHTTPClient_DefaultTimeout(t *testing.T) {
	if c := newProviderHTTPClient(0); c.Timeout == 0 {
		t.Fatalf("expected non-zero default timeout")
	}
}
