package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewAppliesTimeoutAndUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Options{Timeout: 2 * time.Second})
	if c.GetClient().Timeout != 2*time.Second {
		t.Fatalf("timeout = %v", c.GetClient().Timeout)
	}

	resp, err := c.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("user agent = %q", gotUA)
	}
}

func TestNewRestyHTTPClientZeroTimeout(t *testing.T) {
	c := NewRestyHTTPClient(0)
	if c.GetClient().Timeout != 0 {
		t.Fatalf("expected no client timeout, got %v", c.GetClient().Timeout)
	}
}
