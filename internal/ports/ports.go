package ports

import (
	"context"
	"time"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/triage"
)

// MessageSource pulls fresh raw messages from upstream providers.
type MessageSource interface {
	Collect(ctx context.Context, since time.Time) ([]domain.RawMessage, error)
}

// RecordRepository persists triage records. Records are immutable once
// stored: Save skips ids that already exist.
type RecordRepository interface {
	KnownIDs(ctx context.Context, ids []string) (map[string]bool, error)
	Save(ctx context.Context, records []domain.TriageRecord) (int, error)
	List(ctx context.Context, filter triage.Filter) ([]domain.TriageRecord, error)
}

// AlertNotifier pushes urgent records to Telegram or other channels.
type AlertNotifier interface {
	Alert(ctx context.Context, record domain.TriageRecord) error
}

// RecordPublisher fans new records out to downstream consumers.
type RecordPublisher interface {
	Publish(ctx context.Context, record domain.TriageRecord) error
}

// Scheduler controls when ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
