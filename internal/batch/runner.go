package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spexpress/spexpress-go/internal/app"
	"github.com/spexpress/spexpress-go/internal/logger"
	"github.com/spexpress/spexpress-go/pkg/transportclient"
)

// Doer performs a single call. *app.Dispatcher satisfies it.
type Doer interface {
	Do(ctx context.Context, call app.Call) (*transportclient.Response, error)
}

// Result is the outcome of one entry.
type Result struct {
	ID         string
	Method     string
	URL        string
	StatusCode int
	Err        error
}

// Runner executes batch entries sequentially.
type Runner struct {
	doer Doer
	log  logger.Logger
}

// NewRunner wires a runner around doer.
func NewRunner(doer Doer, log logger.Logger) *Runner {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Runner{doer: doer, log: log}
}

// Run executes every entry in order. A failed entry does not stop the batch;
// transport failures are joined into the returned error. Cancellation stops
// the batch before the next entry.
func (r *Runner) Run(ctx context.Context, entries []Entry) ([]Result, error) {
	if r == nil || r.doer == nil {
		return nil, fmt.Errorf("batch runner is not initialized")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no calls to run")
	}

	results := make([]Result, 0, len(entries))
	var errs []error
	for i, e := range entries {
		if i > 0 {
			if err := sleep(ctx, e.Delay()); err != nil {
				errs = append(errs, err)
				break
			}
		}

		res := r.runEntry(ctx, e)
		results = append(results, res)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("call %s: %w", e.ID, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

func (r *Runner) runEntry(ctx context.Context, e Entry) Result {
	res := Result{ID: e.ID, Method: e.Method, URL: e.URL}

	resp, err := r.doer.Do(ctx, app.Call{Method: e.Method, URL: e.URL, Payload: e.Payload.Payload})
	if err != nil {
		res.Err = err
		r.log.ErrorObj("batch call failed", "batch_error", map[string]any{
			"call_id": e.ID,
			"method":  e.Method,
			"url":     e.URL,
			"error":   err.Error(),
		})
		return res
	}

	res.StatusCode = resp.StatusCode()
	r.log.InfoObj("batch call completed", "batch_result", map[string]any{
		"call_id": e.ID,
		"method":  e.Method,
		"url":     e.URL,
		"status":  res.StatusCode,
	})
	return res
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
