// Package transportclient issues Basic-authenticated GET and POST requests and
// normalizes transport failures into TransportRequestError.
//
// A Client is not safe for concurrent use when Authorize may run alongside
// Get or Post: credentials are plain fields without synchronization.
package transportclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spexpress/spexpress-go/pkg/httpclient"
	"github.com/spexpress/spexpress-go/pkg/structlog"
)

const (
	HeaderContentType = "Content-Type"
	HeaderAPIVersion  = "X-API-Version"
	ContentTypeJSON   = "application/json"
)

// Client sends authenticated requests and returns raw responses.
type Client struct {
	http     *resty.Client
	versions *VersionReader
	log      Logger

	login    string
	apiToken string

	warnOnce sync.Once
}

type options struct {
	httpClient *resty.Client
	timeout    time.Duration
	transport  http.RoundTripper
	versions   *VersionReader
	log        Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient uses c instead of a freshly built resty client.
func WithHTTPClient(c *resty.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithVersionFile sets the file POST requests read their API version from.
func WithVersionFile(path string) Option {
	return func(o *options) { o.versions = NewVersionReader(path) }
}

// WithVersionReader sets the version reader directly.
func WithVersionReader(r *VersionReader) Option {
	return func(o *options) { o.versions = r }
}

// Logger is the structured logging surface the client writes to.
type Logger = structlog.Logger

// WithLogger attaches a structured logger.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds a Client. Redirects are not followed: a 3xx is returned as is.
func New(opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	hc := o.httpClient
	if hc == nil {
		hc = httpclient.New(httpclient.Options{Timeout: o.timeout, Transport: o.transport})
		hc.GetClient().CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if o.versions == nil {
		o.versions = NewVersionReader(DefaultVersionFile)
	}

	return &Client{
		http:     hc,
		versions: o.versions,
		log:      structlog.OrNop(o.log),
	}
}

// Authorize stores the Basic credentials used by later requests, replacing any
// previous pair. Empty values are sent as empty, not rejected.
func (c *Client) Authorize(login, apiToken string) *Client {
	c.login = login
	c.apiToken = apiToken
	return c
}

// Versions returns the reader POST requests take their API version from.
func (c *Client) Versions() *VersionReader { return c.versions }

// Get issues a GET to url with payload appended as a query string.
// Every completed exchange yields a Response, including 4xx and 5xx.
func (c *Client) Get(ctx context.Context, url string, payload Payload) (*Response, error) {
	target := buildURL(url, payload)
	req := c.newRequest(ctx).SetHeader(HeaderContentType, ContentTypeJSON)
	return c.execute(req, http.MethodGet, target, "")
}

// Post issues a POST to url with payload as a JSON body and the API version header.
// The version file is validated before any network activity.
func (c *Client) Post(ctx context.Context, url string, payload Payload) (*Response, error) {
	version, err := c.versions.Read()
	if err != nil {
		c.log.ErrorObj("api version unavailable", "version_error", map[string]any{
			"path":  c.versions.Path(),
			"error": err.Error(),
		})
		return nil, err
	}

	body, err := payload.MarshalJSON()
	if err != nil {
		return nil, &TransportRequestError{Code: CodeUnknown, Description: "encode payload", Err: err}
	}

	req := c.newRequest(ctx).
		SetHeader(HeaderContentType, ContentTypeJSON).
		SetHeader(HeaderAPIVersion, version).
		SetBody(body)
	return c.execute(req, http.MethodPost, url, version)
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.login, c.apiToken)
}

func (c *Client) execute(req *resty.Request, method, target, version string) (*Response, error) {
	if strings.HasPrefix(strings.ToLower(target), "http://") {
		c.warnOnce.Do(func() {
			c.log.WarnObj("basic authentication over non-https connection", "url", target)
		})
	}

	start := time.Now()
	resp, err := req.Execute(method, target)
	if err != nil {
		tre := classify(err)
		c.log.WarnObj("transport request failed", "transport_error", map[string]any{
			"method": method,
			"url":    target,
			"code":   int(tre.Code),
			"error":  tre.Error(),
		})
		return nil, tre
	}

	c.log.DebugObj("transport request completed", "transport_exchange", map[string]any{
		"method":      method,
		"url":         target,
		"status":      resp.StatusCode(),
		"api_version": version,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return newResponse(resp.StatusCode(), resp.Body()), nil
}
