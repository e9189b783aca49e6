package batch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spexpress/spexpress-go/internal/app"
	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

// fakeDoer replays canned statuses per URL.
type fakeDoer struct {
	calls    []app.Call
	statuses map[string]int
	failURL  string
	client   *transportclient.Client
	server   *httptest.Server
}

func newFakeDoer(t *testing.T, statuses map[string]int) *fakeDoer {
	t.Helper()
	f := &fakeDoer{statuses: statuses, client: transportclient.New()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(f.statuses[r.URL.Path])
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDoer) Do(ctx context.Context, call app.Call) (*transportclient.Response, error) {
	f.calls = append(f.calls, call)
	if call.URL == f.failURL {
		return nil, &transportclient.TransportRequestError{Code: transportclient.CodeCouldNotConnect, Description: "refused"}
	}
	return f.client.Get(ctx, f.server.URL+call.URL, nil)
}

func TestRunnerRunsAllEntriesInOrder(t *testing.T) {
	doer := newFakeDoer(t, map[string]int{"/a": 200, "/b": 503, "/c": 404})
	doer.failURL = "/b-down"

	entries := []Entry{
		{ID: "a", Method: http.MethodGet, URL: "/a"},
		{ID: "down", Method: http.MethodGet, URL: "/b-down"},
		{ID: "b", Method: http.MethodPost, URL: "/b"},
		{ID: "c", Method: http.MethodGet, URL: "/c"},
	}

	results, err := NewRunner(doer, nil).Run(context.Background(), entries)
	if err == nil || !strings.Contains(err.Error(), "call down") {
		t.Fatalf("expected joined error for the failed call, got %v", err)
	}
	var tre *transportclient.TransportRequestError
	if !errors.As(err, &tre) || tre.Code != transportclient.CodeCouldNotConnect {
		t.Fatalf("transport error not preserved: %v", err)
	}

	if len(results) != 4 || len(doer.calls) != 4 {
		t.Fatalf("expected all 4 calls to run, got %d results / %d calls", len(results), len(doer.calls))
	}
	wantStatus := []int{200, 0, 503, 404}
	for i, res := range results {
		if res.ID != entries[i].ID || res.StatusCode != wantStatus[i] {
			t.Fatalf("result[%d] = %+v", i, res)
		}
	}
	if results[1].Err == nil {
		t.Fatalf("failed entry should carry its error")
	}
}

func TestRunnerStopsOnCancellation(t *testing.T) {
	doer := newFakeDoer(t, map[string]int{"/a": 200})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []Entry{
		{ID: "first", Method: http.MethodGet, URL: "/a"},
		{ID: "second", Method: http.MethodGet, URL: "/a", DelayMs: 5000},
	}
	results, err := NewRunner(doer, nil).Run(ctx, entries)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected batch to stop after first entry, got %d results", len(results))
	}
}

func TestRunnerRequiresEntries(t *testing.T) {
	if _, err := NewRunner(newFakeDoer(t, nil), nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty batch")
	}
	var r *Runner
	if _, err := r.Run(context.Background(), []Entry{{URL: "/a"}}); err == nil {
		t.Fatalf("expected error for nil runner")
	}
}
