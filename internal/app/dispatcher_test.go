package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spexpress/spexpress-go/internal/config"
	"github.com/spexpress/spexpress-go/internal/storage"
	"github.com/spexpress/spexpress-go/pkg/publishers"
	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

// recordingPublisher captures published events and can inject errors.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (r *recordingPublisher) ID() string   { return "recorder" }
func (r *recordingPublisher) Type() string { return "memory" }
func (r *recordingPublisher) Publish(_ context.Context, evt publishers.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	versionFile := filepath.Join(dir, ".version")
	if err := os.WriteFile(versionFile, []byte("3.1.4\n"), 0o644); err != nil {
		t.Fatalf("write version file: %v", err)
	}
	return &config.Config{
		Login:                  "shop",
		APIToken:               "token",
		VersionFile:            versionFile,
		RequestTimeout:         5 * time.Second,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "journal.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func newTestDispatcher(t *testing.T, pub *recordingPublisher) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(context.Background(), testConfig(t), nil, Deps{
		Fanout: publishers.NewFanout([]publishers.Publisher{pub}),
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDispatcherGetJournalsAndPublishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "shop" || pass != "token" {
			t.Errorf("unexpected credentials %q/%q", user, pass)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pub := &recordingPublisher{}
	d := newTestDispatcher(t, pub)

	resp, err := d.Do(context.Background(), Call{
		Method:  "get",
		URL:     srv.URL + "/orders",
		Payload: transportclient.NewPayload("id", 9),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode())
	}

	history, err := d.History(10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 journaled exchange, got %d", len(history))
	}
	ex := history[0]
	if ex.Method != http.MethodGet || ex.URL != srv.URL+"/orders?id=9" || ex.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected exchange %+v", ex)
	}

	if len(pub.events) != 1 || pub.events[0].ExchangeID != ex.ID {
		t.Fatalf("expected event for exchange %s, got %+v", ex.ID, pub.events)
	}

	got, ok, err := d.Exchange(ex.ID)
	if err != nil || !ok || got.URL != ex.URL {
		t.Fatalf("Exchange(%s) = %+v, %v, %v", ex.ID, got, ok, err)
	}
}

func TestDispatcherPostRecordsAPIVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(transportclient.HeaderAPIVersion); got != "3.1.4" {
			t.Errorf("api version header = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := newTestDispatcher(t, &recordingPublisher{})
	if _, err := d.Do(context.Background(), Call{Method: http.MethodPost, URL: srv.URL}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	history, err := d.History(1)
	if err != nil || len(history) != 1 {
		t.Fatalf("History = %v, %v", history, err)
	}
	if history[0].APIVersion != "3.1.4" || history[0].StatusCode != http.StatusCreated {
		t.Fatalf("unexpected exchange %+v", history[0])
	}
}

func TestDispatcherJournalsTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	pub := &recordingPublisher{err: errors.New("sink down")}
	d := newTestDispatcher(t, pub)

	_, err := d.Do(context.Background(), Call{Method: http.MethodGet, URL: addr})
	var tre *transportclient.TransportRequestError
	if !errors.As(err, &tre) {
		t.Fatalf("expected TransportRequestError, got %v", err)
	}

	history, herr := d.History(1)
	if herr != nil || len(history) != 1 {
		t.Fatalf("History = %v, %v", history, herr)
	}
	if history[0].Error == "" || history[0].ErrorCode == nil || *history[0].ErrorCode != int(tre.Code) {
		t.Fatalf("failure not journaled: %+v", history[0])
	}
	if len(pub.events) != 1 || !pub.events[0].Failed() {
		t.Fatalf("expected failed event to be published, got %+v", pub.events)
	}
}

func TestDispatcherRejectsUnsupportedMethod(t *testing.T) {
	d := newTestDispatcher(t, &recordingPublisher{})
	if _, err := d.Do(context.Background(), Call{Method: "DELETE", URL: "https://api.example"}); err == nil {
		t.Fatalf("expected error for DELETE")
	}
}

func TestDispatcherAPIVersion(t *testing.T) {
	d := newTestDispatcher(t, &recordingPublisher{})
	v, err := d.APIVersion()
	if err != nil || v != "3.1.4" {
		t.Fatalf("APIVersion = %q, %v", v, err)
	}
}

func TestNewDispatcherRequiresConfig(t *testing.T) {
	if _, err := NewDispatcher(context.Background(), nil, nil, Deps{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestNewDispatcherLoadsPublishersFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageType = "none"
	cfg.PublishersFile = filepath.Join(t.TempDir(), "publishers.yaml")
	raw := `
publishers:
  - id: hook
    type: http
    http:
      url: https://hooks.example/exchanges
`
	if err := os.WriteFile(cfg.PublishersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	d, err := NewDispatcher(context.Background(), cfg, nil, Deps{Store: noopStore{}})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	defer d.Close()
	if d.fanout.Size() != 1 {
		t.Fatalf("expected 1 publisher, got %d", d.fanout.Size())
	}
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) Record(storage.Exchange) error          { return nil }
func (noopStore) Recent(int) ([]storage.Exchange, error) { return nil, nil }
func (noopStore) Get(string) (storage.Exchange, bool, error) {
	return storage.Exchange{}, false, nil
}
