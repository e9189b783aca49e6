package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies requests issued by this module.
const DefaultUserAgent = "spexpress-go"

// Options tunes the resty client shared by the transport client and HTTP publishers.
type Options struct {
	// Timeout of zero leaves the transport default in place.
	Timeout   time.Duration
	Transport http.RoundTripper
	UserAgent string
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return New(Options{Timeout: timeout})
}

// New creates a resty.Client from opts. Resty's own retry is left at zero attempts.
func New(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if opts.Transport != nil {
		c.SetTransport(opts.Transport)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	c.SetHeader("User-Agent", ua)
	// basic auth over plain http is reported by the callers' own loggers
	c.SetDisableWarn(true)
	return c
}
