package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Route pairs a publisher with the exchanges it should hear about.
type Route struct {
	Publisher Publisher
	Notify    Notify
}

// Fanout delivers an event to every matching route concurrently.
type Fanout struct {
	routes []Route
}

// NewFanout sends every event to each of pubs.
func NewFanout(pubs []Publisher) *Fanout {
	routes := make([]Route, 0, len(pubs))
	for _, p := range pubs {
		routes = append(routes, Route{Publisher: p, Notify: NotifyAll})
	}
	return NewRoutedFanout(routes)
}

// NewRoutedFanout honours each route's Notify filter. Routes without a
// publisher are dropped.
func NewRoutedFanout(routes []Route) *Fanout {
	kept := make([]Route, 0, len(routes))
	for _, r := range routes {
		if r.Publisher == nil {
			continue
		}
		if r.Notify == "" {
			r.Notify = NotifyAll
		}
		kept = append(kept, r)
	}
	return &Fanout{routes: kept}
}

// Publish delivers evt and returns how many publishers accepted it. Errors
// are joined in route order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.routes) == 0 {
		return 0, nil
	}

	errs := make([]error, len(f.routes))
	sent := make([]bool, len(f.routes))
	var wg sync.WaitGroup
	for i, r := range f.routes {
		if !evt.Matches(r.Notify) {
			continue
		}
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
				return
			}
			sent[i] = true
		}(i, r.Publisher)
	}
	wg.Wait()

	delivered := 0
	for _, ok := range sent {
		if ok {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

// Size returns the number of routes.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}

// Close releases publishers that hold client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeRoutes(f.routes)
}
