package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/triage"
)

var base = time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, DriverSQLite))
	require.NoError(t, Migrate(db, DriverSQLite), "second run must be a no-op")
	return NewSQLRepository(db, DriverSQLite)
}

func record(id string, at time.Time, category domain.Category, level domain.UrgencyLevel, confidence float64) domain.TriageRecord {
	return domain.TriageRecord{
		Message: domain.RawMessage{
			ID:        id,
			Text:      "texto " + id,
			CreatedAt: at,
			Source:    domain.SourceSimulated,
		},
		Sentiment: domain.SentimentResult{Label: domain.SentimentNegative, CompositeScore: -0.5, Method: domain.MethodLexiconA},
		Urgency: domain.UrgencyResult{
			Level:               level,
			Score:               level.Rank(),
			MatchedKeywords:     []string{"socorro"},
			MatchedIntensifiers: []string{},
		},
		Classification: domain.ClassificationResult{
			PredictedType:         category,
			Confidence:            confidence,
			PerClassProbabilities: map[domain.Category]float64{category: 1},
		},
		Location:  domain.ResolvedLocation{Latitude: -23.55, Longitude: -46.63, Provenance: domain.ProvenanceGazetteer},
		TriagedAt: at.Add(time.Minute),
	}
}

func TestSQLRepositorySaveIsInsertOrSkip(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	n, err := repo.Save(ctx, []domain.TriageRecord{
		record("a", base, domain.CategoryFlood, domain.UrgencyCritical, 0.9),
		record("b", base.Add(time.Hour), domain.CategoryFire, domain.UrgencyLow, 0.4),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	changed := record("a", base, domain.CategoryOther, domain.UrgencyLow, 0.1)
	n, err = repo.Save(ctx, []domain.TriageRecord{changed, record("c", base.Add(2*time.Hour), domain.CategoryFlood, domain.UrgencyHigh, 0.7)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := repo.List(ctx, triage.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID(), all[1].ID(), all[2].ID()})
	assert.Equal(t, domain.CategoryFlood, all[0].Classification.PredictedType, "existing record must not be overwritten")
	assert.True(t, all[0].Message.CreatedAt.Equal(base))
	assert.Equal(t, []string{"socorro"}, all[0].Urgency.MatchedKeywords)
}

func TestSQLRepositoryKnownIDs(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, []domain.TriageRecord{record("x", base, domain.CategoryFlood, domain.UrgencyHigh, 0.5)})
	require.NoError(t, err)

	known, err := repo.KnownIDs(ctx, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"x": true}, known)

	empty, err := repo.KnownIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLRepositoryListFilters(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, []domain.TriageRecord{
		record("a", base, domain.CategoryFlood, domain.UrgencyCritical, 0.9),
		record("b", base.Add(24*time.Hour), domain.CategoryFire, domain.UrgencyLow, 0.3),
		record("c", base.Add(48*time.Hour), domain.CategoryFlood, domain.UrgencyHigh, 0.6),
	})
	require.NoError(t, err)

	cases := []struct {
		name   string
		filter triage.Filter
		want   []string
	}{
		{"category", triage.Filter{Categories: []domain.Category{domain.CategoryFlood}}, []string{"a", "c"}},
		{"levels", triage.Filter{Levels: []domain.UrgencyLevel{domain.UrgencyLow, domain.UrgencyHigh}}, []string{"b", "c"}},
		{"window", triage.Filter{Since: base.Add(time.Hour), Until: base.Add(48 * time.Hour)}, []string{"b"}},
		{"confidence", triage.Filter{MinConfidence: 0.6}, []string{"a", "c"}},
		{"source", triage.Filter{Sources: []domain.Source{domain.SourcePrimaryAPI}}, []string{}},
	}
	for _, tc := range cases {
		got, err := repo.List(ctx, tc.filter)
		require.NoError(t, err, tc.name)
		ids := make([]string, 0, len(got))
		for _, rec := range got {
			ids = append(ids, rec.ID())
		}
		assert.Equal(t, tc.want, ids, tc.name)
		assert.Equal(t, tc.filter.Apply(got), got, "sql filter must agree with in-memory filter: %s", tc.name)
	}
}

func TestSQLRepositoryOrdersUndatedAndAncientMessages(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, []domain.TriageRecord{
		record("recent", base, domain.CategoryFlood, domain.UrgencyHigh, 0.7),
		record("undated", time.Time{}, domain.CategoryFlood, domain.UrgencyHigh, 0.7),
		record("ancient", time.Date(1200, 1, 1, 0, 0, 0, 0, time.UTC), domain.CategoryFlood, domain.UrgencyHigh, 0.7),
	})
	require.NoError(t, err)

	ids := func(filter triage.Filter) []string {
		got, err := repo.List(ctx, filter)
		require.NoError(t, err)
		out := make([]string, 0, len(got))
		for _, rec := range got {
			out = append(out, rec.ID())
		}
		return out
	}

	assert.Equal(t, []string{"undated", "ancient", "recent"}, ids(triage.Filter{}))
	assert.Equal(t, []string{"recent"}, ids(triage.Filter{Since: base}))
	assert.Equal(t, []string{"undated", "ancient"}, ids(triage.Filter{Until: base}))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}
