package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/ports"
	"DisasterTriage/internal/triage"
)

// IngestDeps wires all driven adapters into the ingestion workflow. Only
// Triage is required; nil adapters are skipped.
type IngestDeps struct {
	Source     ports.MessageSource
	Repository ports.RecordRepository
	Triage     *triage.Pipeline
	Notifier   ports.AlertNotifier
	Publisher  ports.RecordPublisher
	Logger     *slog.Logger
	// MinAlertLevel is the lowest urgency that is pushed to the notifier.
	MinAlertLevel domain.UrgencyLevel
	// Lookback bounds how far back collectors look; zero means no bound.
	Lookback time.Duration
	Now      func() time.Time
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Collected       int                   `json:"collected"`
	AlreadyStored   int                   `json:"already_stored"`
	Merge           triage.MergeReport    `json:"merge"`
	Saved           int                   `json:"saved"`
	Alerted         int                   `json:"alerted"`
	AlertFailures   int                   `json:"alert_failures"`
	Published       int                   `json:"published"`
	PublishFailures int                   `json:"publish_failures"`
	Records         []domain.TriageRecord `json:"-"`
}

// Ingestor implements the collect → triage → persist → alert → publish loop.
type Ingestor struct {
	source     ports.MessageSource
	repository ports.RecordRepository
	triage     *triage.Pipeline
	notifier   ports.AlertNotifier
	publisher  ports.RecordPublisher
	logger     *slog.Logger
	minAlert   domain.UrgencyLevel
	lookback   time.Duration
	now        func() time.Time
}

// NewIngestor constructs the orchestration component.
func NewIngestor(deps IngestDeps) (*Ingestor, error) {
	if deps.Triage == nil {
		return nil, fmt.Errorf("ingestor: triage pipeline is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minAlert := deps.MinAlertLevel
	if minAlert == "" {
		minAlert = domain.UrgencyCritical
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Ingestor{
		source:     deps.Source,
		repository: deps.Repository,
		triage:     deps.Triage,
		notifier:   deps.Notifier,
		publisher:  deps.Publisher,
		logger:     logger.With("component", "ingest"),
		minAlert:   minAlert,
		lookback:   deps.Lookback,
		now:        now,
	}, nil
}

// RunOnce collects from the source and ingests the result.
func (i *Ingestor) RunOnce(ctx context.Context) (IngestReport, error) {
	if i.source == nil {
		return IngestReport{}, fmt.Errorf("ingestor: no message source configured")
	}

	var since time.Time
	if i.lookback > 0 {
		since = i.now().Add(-i.lookback)
	}
	msgs, err := i.source.Collect(ctx, since)
	if err != nil {
		return IngestReport{}, fmt.Errorf("collect: %w", err)
	}
	return i.Ingest(ctx, msgs)
}

// Ingest triages the messages whose ids are not stored yet, persists the new
// records, alerts on urgent ones and publishes all of them. Per-message
// triage failures and delivery failures are logged and counted, not returned.
func (i *Ingestor) Ingest(ctx context.Context, msgs []domain.RawMessage) (IngestReport, error) {
	started := i.now()
	report := IngestReport{Collected: len(msgs)}

	known := map[string]bool{}
	if i.repository != nil && len(msgs) > 0 {
		ids := make([]string, len(msgs))
		for n, msg := range msgs {
			ids[n] = msg.ID
		}
		var err error
		known, err = i.repository.KnownIDs(ctx, ids)
		if err != nil {
			return report, fmt.Errorf("load known ids: %w", err)
		}
	}

	// Stored ids enter the merge as placeholders so the merge's own dedup
	// reports them; only the records appended after them are new.
	stored := make([]domain.TriageRecord, 0, len(known))
	for id := range known {
		stored = append(stored, domain.TriageRecord{Message: domain.RawMessage{ID: id}})
	}
	report.AlreadyStored = len(stored)

	merged, mergeReport := i.triage.Merge(ctx, stored, msgs)
	report.Merge = mergeReport
	fresh := merged[len(stored):]
	report.Records = fresh

	if i.repository != nil && len(fresh) > 0 {
		saved, err := i.repository.Save(ctx, fresh)
		if err != nil {
			return report, fmt.Errorf("persist records: %w", err)
		}
		report.Saved = saved
	}

	for _, rec := range fresh {
		if i.notifier != nil && rec.Urgency.Level.Rank() >= i.minAlert.Rank() {
			if err := i.notifier.Alert(ctx, rec); err != nil {
				report.AlertFailures++
				i.logger.Warn("alert failed", "message_id", rec.ID(), "error", err)
			} else {
				report.Alerted++
			}
		}
		if i.publisher != nil {
			if err := i.publisher.Publish(ctx, rec); err != nil {
				report.PublishFailures++
				i.logger.Warn("publish failed", "message_id", rec.ID(), "error", err)
			} else {
				report.Published++
			}
		}
	}

	i.logger.Info("ingest finished",
		"collected", report.Collected,
		"already_stored", report.AlreadyStored,
		"added", report.Merge.Added,
		"failed", len(report.Merge.Failures),
		"saved", report.Saved,
		"alerted", report.Alerted,
		"published", report.Published,
		"took", i.now().Sub(started),
	)
	return report, nil
}
