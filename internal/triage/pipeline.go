// Package triage combines the scorer, classifier, extractor and resolver into
// one record per message and merges incremental batches by message id.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"DisasterTriage/internal/classifier"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/entities"
	"DisasterTriage/internal/geo"
	"DisasterTriage/internal/sentiment"
)

// Observer receives per-message outcomes, e.g. for metrics.
type Observer interface {
	Triaged(record domain.TriageRecord)
	Failed(messageID string, err error)
	Duplicate(messageID string)
}

// Deps wires a Pipeline. Nil components fall back to their defaults, so the
// zero value is usable.
type Deps struct {
	Scorer     *sentiment.Scorer
	Classifier *classifier.Classifier
	Extractor  *entities.Extractor
	Resolver   *geo.Resolver
	Logger     *slog.Logger
	Observer   Observer
	// Workers > 1 triages a batch concurrently; results keep input order.
	Workers int
	Now     func() time.Time
}

// Pipeline is the explicit context object owning the fitted classifier,
// the gazetteer and the keyword tables. It holds no process-wide state.
type Pipeline struct {
	scorer     *sentiment.Scorer
	classifier *classifier.Classifier
	extractor  *entities.Extractor
	resolver   *geo.Resolver
	logger     *slog.Logger
	observer   Observer
	workers    int
	now        func() time.Time
}

// New builds a pipeline.
func New(deps Deps) (*Pipeline, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Scorer == nil {
		lex := sentiment.DefaultLexicon()
		deps.Scorer = sentiment.NewScorer(sentiment.NewCompoundBackend(lex), lex)
	}
	if deps.Classifier == nil {
		c, err := classifier.New(classifier.Options{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("default classifier: %w", err)
		}
		deps.Classifier = c
	}
	if deps.Extractor == nil {
		deps.Extractor = entities.NewExtractor(nil, entities.WithLogger(logger))
	}
	if deps.Resolver == nil {
		deps.Resolver = geo.NewResolver(geo.DefaultConfig())
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Workers < 1 {
		deps.Workers = 1
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Pipeline{
		scorer:     deps.Scorer,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		resolver:   deps.Resolver,
		logger:     logger.With("component", "triage"),
		observer:   deps.Observer,
		workers:    deps.Workers,
		now:        deps.Now,
	}, nil
}

// Classifier exposes the owned classifier (fit, save, load).
func (p *Pipeline) Classifier() *classifier.Classifier { return p.classifier }

// Triage validates msg and produces its record. A panic inside any
// component is returned as an error instead of crashing the caller.
func (p *Pipeline) Triage(ctx context.Context, msg domain.RawMessage) (rec domain.TriageRecord, err error) {
	if err := msg.Validate(); err != nil {
		return domain.TriageRecord{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("triage panic", "message_id", msg.ID, "stack", string(debug.Stack()))
			rec = domain.TriageRecord{}
			err = fmt.Errorf("triage message %s: panic: %v", msg.ID, r)
		}
	}()

	assessment := p.scorer.Triage(msg.Text)
	return domain.TriageRecord{
		Message:        msg,
		Sentiment:      assessment.Sentiment,
		Urgency:        assessment.Urgency,
		Classification: p.classifier.Classify(msg.Text),
		Entities:       p.extractor.Extract(ctx, msg.Text),
		Location:       p.resolver.Resolve(msg.Text),
		TriagedAt:      p.now(),
	}, nil
}

type nopObserver struct{}

func (nopObserver) Triaged(domain.TriageRecord) {}
func (nopObserver) Failed(string, error) {}
func (nopObserver) Duplicate(string) {}
