package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"DisasterTriage/internal/domain"
)

// Endpoint describes a concrete feed, page, or batch file provided by config.
type Endpoint struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute a collection.
type Request struct {
	Since     time.Time
	SiteName  string
	Endpoints []Endpoint
	Options   map[string]string
}

// Collector captures a single strategy implementation (feed, html, etc.).
type Collector interface {
	Name() string
	Collect(ctx context.Context, req Request) ([]domain.RawMessage, error)
}

// Registry keeps a mapping from collector names to their implementations.
type Registry struct {
	collectors map[string]Collector
}

// NewRegistry builds a registry holding the given collectors.
func NewRegistry(collectors ...Collector) *Registry {
	r := &Registry{collectors: map[string]Collector{}}
	for _, c := range collectors {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a collector implementation.
func (r *Registry) Register(c Collector) {
	if r.collectors == nil {
		r.collectors = map[string]Collector{}
	}
	r.collectors[c.Name()] = c
}

// Resolve returns a collector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Collector, error) {
	if c, ok := r.collectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("collector %s is not registered", name)
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
