package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spexpress/spexpress-go/internal/config"
	"github.com/spexpress/spexpress-go/internal/logger"
	"github.com/spexpress/spexpress-go/internal/storage"
	"github.com/spexpress/spexpress-go/pkg/publishers"
	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

// Call is a single request the dispatcher should perform.
type Call struct {
	Method  string
	URL     string
	Payload transportclient.Payload
}

// Dispatcher runs calls through the transport client, journals every exchange
// and notifies the configured publishers.
type Dispatcher struct {
	cfg      *config.Config
	client   *transportclient.Client
	versions *transportclient.VersionReader
	store    storage.Store
	fanout   *publishers.Fanout
	log      logger.Logger
}

// Deps lets callers (tests, embedding programs) replace the components NewDispatcher would build.
type Deps struct {
	Client *transportclient.Client
	Store  storage.Store
	Fanout *publishers.Fanout
}

// NewDispatcher builds a dispatcher runtime from config.
func NewDispatcher(ctx context.Context, cfg *config.Config, log logger.Logger, deps Deps) (*Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := deps.Client
	if client == nil {
		client = transportclient.New(
			transportclient.WithTimeout(cfg.RequestTimeout),
			transportclient.WithVersionFile(cfg.VersionFile),
			transportclient.WithLogger(log),
		)
		client.Authorize(cfg.Login, cfg.APIToken)
	}

	store := deps.Store
	if store == nil {
		var err error
		store, err = storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			TTL:             cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		log.DebugObj("storage initialized", "storage_config", map[string]any{
			"type":                     cfg.StorageType,
			"path":                     cfg.BBoltPath,
			"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		})
	}

	fanout := deps.Fanout
	if fanout == nil {
		var err error
		fanout, err = buildFanout(ctx, cfg, log)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &Dispatcher{
		cfg:      cfg,
		client:   client,
		versions: client.Versions(),
		store:    store,
		fanout:   fanout,
		log:      log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return publishers.NewFanout(nil), nil
	}

	cfgs, err := publishers.LoadFile(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers file: %w", err)
	}

	enabled := publishers.Enabled(cfgs)
	routes, err := publishers.BuildAll(ctx, publishers.DefaultBuilders(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":     pubCfg.ID,
			"type":   pubCfg.Type,
			"notify": string(pubCfg.Notify),
		})
	}
	log.DebugObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewRoutedFanout(routes), nil
}

// Do performs call and returns the transport client's result unchanged.
// Journal and publish failures are logged, never returned.
func (d *Dispatcher) Do(ctx context.Context, call Call) (*transportclient.Response, error) {
	if d == nil || d.client == nil {
		return nil, fmt.Errorf("dispatcher is not initialized")
	}

	method := strings.ToUpper(strings.TrimSpace(call.Method))
	target := call.URL

	var (
		resp *transportclient.Response
		err  error
	)
	start := time.Now()
	switch method {
	case http.MethodGet:
		resp, err = d.client.Get(ctx, call.URL, call.Payload)
		target = requestURL(call)
	case http.MethodPost:
		resp, err = d.client.Post(ctx, call.URL, call.Payload)
	default:
		return nil, fmt.Errorf("unsupported method %q", call.Method)
	}
	elapsed := time.Since(start)

	d.recordExchange(ctx, method, target, resp, err, elapsed)
	return resp, err
}

// requestURL mirrors the URL the client builds for a GET.
func requestURL(call Call) string {
	if q := transportclient.EncodeQuery(call.Payload); q != "" {
		return call.URL + "?" + q
	}
	return call.URL
}

func (d *Dispatcher) recordExchange(ctx context.Context, method, target string, resp *transportclient.Response, callErr error, elapsed time.Duration) {
	id, err := uuid.NewV7()
	if err != nil {
		d.log.WarnObj("exchange id generation failed", "error", err.Error())
		return
	}

	ex := storage.Exchange{
		ID:         id.String(),
		Method:     method,
		URL:        target,
		DurationMs: elapsed.Milliseconds(),
		At:         time.Now().UTC(),
	}
	if method == http.MethodPost && callErr == nil {
		if v, verr := d.versions.Read(); verr == nil {
			ex.APIVersion = v
		}
	}
	if resp != nil {
		ex.StatusCode = resp.StatusCode()
	}
	if callErr != nil {
		ex.Error = callErr.Error()
		var tre *transportclient.TransportRequestError
		if errors.As(callErr, &tre) {
			code := int(tre.Code)
			ex.ErrorCode = &code
		}
	}

	if err := d.store.Record(ex); err != nil {
		d.log.WarnObj("exchange journal write failed", "storage_error", map[string]any{
			"exchange_id": ex.ID,
			"error":       err.Error(),
		})
	}

	evt := publishers.NewEvent(ex.ID, ex.Method, ex.URL)
	evt.StatusCode = ex.StatusCode
	evt.Error = ex.Error
	evt.ErrorCode = ex.ErrorCode
	evt.APIVersion = ex.APIVersion
	evt.DurationMs = ex.DurationMs
	evt.OccurredAt = ex.At

	delivered, err := d.fanout.Publish(ctx, evt)
	if err != nil {
		d.log.WarnObj("exchange notification failed", "publish_error", map[string]any{
			"exchange_id": ex.ID,
			"delivered":   delivered,
			"error":       err.Error(),
		})
	}
}

// History returns up to limit journaled exchanges, newest first.
func (d *Dispatcher) History(limit int) ([]storage.Exchange, error) {
	if d == nil || d.store == nil {
		return nil, fmt.Errorf("dispatcher is not initialized")
	}
	return d.store.Recent(limit)
}

// Exchange returns one journaled exchange by id.
func (d *Dispatcher) Exchange(id string) (storage.Exchange, bool, error) {
	if d == nil || d.store == nil {
		return storage.Exchange{}, false, fmt.Errorf("dispatcher is not initialized")
	}
	return d.store.Get(id)
}

// APIVersion reads and validates the configured version file.
func (d *Dispatcher) APIVersion() (string, error) {
	return d.versions.Read()
}

// Close releases the journal and publisher connections.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.fanout != nil {
		if err := d.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
