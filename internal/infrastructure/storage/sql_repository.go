package storage

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/ports"
	"DisasterTriage/internal/triage"
)

const (
	recordsTable = "triage_records"
	idChunkSize  = 500
)

// SQLRepository persists triage records into SQLite or Postgres. Records are
// stored whole as JSON next to the columns the dashboard filters on.
type SQLRepository struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

var _ ports.RecordRepository = (*SQLRepository)(nil)

// NewSQLRepository wires a sqlx.DB opened for driver.
func NewSQLRepository(db *sqlx.DB, driver string) *SQLRepository {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &SQLRepository{db: db, builder: sq.StatementBuilder.PlaceholderFormat(format)}
}

// KnownIDs returns a map with the ids that already exist in storage.
func (r *SQLRepository) KnownIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if r.db == nil || len(ids) == 0 {
		return result, nil
	}

	for start := 0; start < len(ids); start += idChunkSize {
		end := min(start+idChunkSize, len(ids))
		query, args, err := r.builder.Select("id").From(recordsTable).
			Where(sq.Eq{"id": ids[start:end]}).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build known ids query: %w", err)
		}
		var found []string
		if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
			return nil, fmt.Errorf("query known ids: %w", err)
		}
		for _, id := range found {
			result[id] = true
		}
	}
	return result, nil
}

// Save inserts records whose id is not stored yet and reports how many were
// written. Existing rows are never updated.
func (r *SQLRepository) Save(ctx context.Context, records []domain.TriageRecord) (int, error) {
	if r.db == nil || len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("marshal record %s: %w", rec.ID(), err)
		}
		query, args, err := r.builder.Insert(recordsTable).
			Columns("id", "source", "created_at_ms", "category", "urgency_level", "urgency_score",
				"confidence", "provenance", "latitude", "longitude", "triaged_at_ms", "payload").
			Values(rec.ID(), string(rec.Message.Source), rec.Message.CreatedAt.UnixMilli(),
				string(rec.Classification.PredictedType), string(rec.Urgency.Level), rec.Urgency.Score,
				rec.Classification.Confidence, string(rec.Location.Provenance),
				rec.Location.Latitude, rec.Location.Longitude, rec.TriagedAt.UnixMilli(), string(payload)).
			Suffix("ON CONFLICT (id) DO NOTHING").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", rec.ID(), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// List returns stored records matching filter, oldest message first. Times
// are compared at millisecond resolution; a zero message time sorts first.
func (r *SQLRepository) List(ctx context.Context, filter triage.Filter) ([]domain.TriageRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.listQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var payloads []string
	if err := r.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	out := make([]domain.TriageRecord, 0, len(payloads))
	for _, payload := range payloads {
		var rec domain.TriageRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SQLRepository) listQuery(filter triage.Filter) sq.SelectBuilder {
	q := r.builder.Select("payload").From(recordsTable).OrderBy("created_at_ms", "id")
	if len(filter.Categories) > 0 {
		q = q.Where(sq.Eq{"category": toStrings(filter.Categories)})
	}
	if len(filter.Levels) > 0 {
		q = q.Where(sq.Eq{"urgency_level": toStrings(filter.Levels)})
	}
	if len(filter.Provenances) > 0 {
		q = q.Where(sq.Eq{"provenance": toStrings(filter.Provenances)})
	}
	if len(filter.Sources) > 0 {
		q = q.Where(sq.Eq{"source": toStrings(filter.Sources)})
	}
	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at_ms": filter.Since.UnixMilli()})
	}
	if !filter.Until.IsZero() {
		q = q.Where(sq.Lt{"created_at_ms": filter.Until.UnixMilli()})
	}
	if filter.MinConfidence > 0 {
		q = q.Where(sq.GtOrEq{"confidence": filter.MinConfidence})
	}
	return q
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
