package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"DisasterTriage/internal/collector"
	"DisasterTriage/internal/config"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/ports"
)

// MultiSiteSource implements MessageSource via registered collector strategies.
type MultiSiteSource struct {
	registry *collector.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.MessageSource = (*MultiSiteSource)(nil)

// NewMultiSiteSource wires the collector registry with config-defined sites.
func NewMultiSiteSource(reg *collector.Registry, sites []config.SiteConfig, log *slog.Logger) *MultiSiteSource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &MultiSiteSource{
		registry: reg,
		sites:    sites,
		logger:   log.With("component", "collector"),
	}
}

// Collect runs every configured site. A failing site is logged and skipped;
// an error is returned only when every site failed.
func (s *MultiSiteSource) Collect(ctx context.Context, since time.Time) ([]domain.RawMessage, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("collector registry is not configured")
	}

	s.logger.Debug("collect", "sites", len(s.sites), "since", since)

	var (
		aggregated []domain.RawMessage
		errs       []error
	)
	for _, site := range s.sites {
		results, err := s.collectSite(ctx, site, since)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("site failed", "site", site.Name, "collector", site.Collector, "error", err)
			errs = append(errs, fmt.Errorf("site %s: %w", site.Name, err))
			continue
		}
		s.logger.Debug("site produced messages", "site", site.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	if len(s.sites) > 0 && len(errs) == len(s.sites) {
		return nil, errors.Join(errs...)
	}
	s.logger.Debug("collect done", "total_messages", len(aggregated), "failed_sites", len(errs))
	return aggregated, nil
}

func (s *MultiSiteSource) collectSite(ctx context.Context, site config.SiteConfig, since time.Time) ([]domain.RawMessage, error) {
	strategy, err := s.registry.Resolve(site.Collector)
	if err != nil {
		return nil, err
	}
	req := collector.Request{
		Since:     since,
		SiteName:  site.Name,
		Options:   site.Options,
		Endpoints: toEndpoints(site.Sources),
	}
	return strategy.Collect(ctx, req)
}

func toEndpoints(cfg []config.SourceConfig) []collector.Endpoint {
	endpoints := make([]collector.Endpoint, 0, len(cfg))
	for _, src := range cfg {
		endpoints = append(endpoints, collector.Endpoint{
			Name: src.Name,
			URL:  src.URL,
		})
	}
	return endpoints
}
