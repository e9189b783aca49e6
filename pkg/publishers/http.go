package publishers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spexpress/spexpress-go/pkg/httpclient"
)

// HeaderExchangeID carries the exchange id on webhook deliveries.
const HeaderExchangeID = "X-Exchange-ID"

const maxErrorSnippet = 512

type httpPublisher struct {
	id     string
	cfg    HTTPConfig
	client *resty.Client
	log    Logger
}

func newHTTPPublisher(_ context.Context, cfg Config, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := *cfg.HTTP
	if hc.Method == "" {
		hc.Method = httpDefaultMethod
	}
	if hc.TimeoutSeconds <= 0 {
		hc.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second)
	if hc.Retries > 0 {
		client.SetRetryCount(hc.Retries).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}

	return &httpPublisher{id: cfg.ID, cfg: hc, client: client, log: ensureLogger(log)}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := evt.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaders(h.cfg.Headers).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderExchangeID, evt.ExchangeID).
		SetBody(body).
		Execute(h.cfg.Method, h.cfg.URL)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode(), errorSnippet(resp.Body()))
	}

	h.log.DebugObj("webhook delivered exchange", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"exchange_id":  evt.ExchangeID,
		"status":       resp.StatusCode(),
		"attempts":     resp.Request.Attempt,
	})
	return nil
}

func errorSnippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
