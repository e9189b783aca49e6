// Package storage keeps a local journal of completed and failed exchanges.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Exchange is one journaled request/response (or request/error) pair.
type Exchange struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorCode  *int      `json:"error_code,omitempty"`
	APIVersion string    `json:"api_version,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// Store records exchanges and lists the most recent ones.
type Store interface {
	Close() error
	Record(ex Exchange) error
	Recent(limit int) ([]Exchange, error)
	// Get returns the unexpired exchange with the given id.
	Get(id string) (Exchange, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) Record(Exchange) error             { return nil }
func (noopStore) Recent(int) ([]Exchange, error)     { return nil, nil }
func (noopStore) Get(string) (Exchange, bool, error) { return Exchange{}, false, nil }
