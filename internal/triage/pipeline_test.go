package triage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"DisasterTriage/internal/classifier"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/entities"
	"DisasterTriage/internal/geo"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var sharedClassifier = sync.OnceValue(func() *classifier.Classifier {
	c, err := classifier.New(classifier.Options{})
	if err != nil {
		panic(err)
	}
	if err := c.EnsureFitted(); err != nil {
		panic(err)
	}
	return c
})

type recordingObserver struct {
	mu         sync.Mutex
	triaged    []string
	failed     []string
	duplicates []string
}

func (o *recordingObserver) Triaged(rec domain.TriageRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.triaged = append(o.triaged, rec.ID())
}

func (o *recordingObserver) Failed(id string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, id)
}

func (o *recordingObserver) Duplicate(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.duplicates = append(o.duplicates, id)
}

func newPipeline(t testing.TB, workers int, obs Observer) *Pipeline {
	t.Helper()
	cfg := geo.DefaultConfig()
	cfg.Seed = 11
	p, err := New(Deps{
		Classifier: sharedClassifier(),
		Resolver:   geo.NewResolver(cfg),
		Observer:   obs,
		Workers:    workers,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return p
}

func msg(id, text string) domain.RawMessage {
	return domain.RawMessage{ID: id, Text: text, CreatedAt: fixedNow.Add(-time.Hour), Source: domain.SourcePrimaryAPI}
}

func TestTriageEmptyText(t *testing.T) {
	t.Parallel()

	rec, err := newPipeline(t, 1, nil).Triage(context.Background(), msg("m-1", ""))
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentNeutral, rec.Sentiment.Label)
	assert.Zero(t, rec.Sentiment.CompositeScore)
	assert.Equal(t, domain.UrgencyLow, rec.Urgency.Level)
	assert.Zero(t, rec.Urgency.Score)
	assert.Equal(t, domain.CategoryOther, rec.Classification.PredictedType)
	assert.Less(t, rec.Classification.Confidence, 0.5)
	assert.Empty(t, rec.Entities.Phones)
	assert.Empty(t, rec.Entities.Locations)
	assert.Empty(t, rec.Entities.People)
	assert.Empty(t, rec.Entities.Temporal)
	assert.Empty(t, rec.Entities.CriticalSituations)
	assert.Zero(t, rec.Entities.CompletenessScore)
	assert.Equal(t, domain.ProvenanceEstimated, rec.Location.Provenance)
	assert.True(t, geo.Brazil.Contains(rec.Location.Latitude, rec.Location.Longitude))
	assert.Equal(t, fixedNow, rec.TriagedAt)
}

func TestTriageFullRecord(t *testing.T) {
	t.Parallel()

	rec, err := newPipeline(t, 1, nil).Triage(context.Background(),
		msg("m-2", "Socorro! Enchente em Porto Alegre, família presa no telhado, ligue (51) 98765-4321"))
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentNegative, rec.Sentiment.Label)
	assert.GreaterOrEqual(t, rec.Urgency.Level.Rank(), domain.UrgencyMedium.Rank())
	assert.Equal(t, domain.CategoryFlood, rec.Classification.PredictedType)
	assert.NotEmpty(t, rec.Entities.Phones)
	assert.Equal(t, domain.ProvenanceGazetteer, rec.Location.Provenance)
	assert.Equal(t, "m-2", rec.ID())
}

func TestTriageRejectsInvalidMessage(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1, nil)
	_, err := p.Triage(context.Background(), domain.RawMessage{ID: "", Text: "x", Source: domain.SourceSimulated})
	require.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = p.Triage(context.Background(), domain.RawMessage{ID: "bad", Text: "\xff\xfe", Source: domain.SourceSimulated})
	require.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestMergeAddsOnlyNewIDs(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	p := newPipeline(t, 1, obs)
	existing, _ := p.Merge(context.Background(), nil, []domain.RawMessage{msg("a", "incêndio em Recife")})
	require.Len(t, existing, 1)

	merged, report := p.Merge(context.Background(), existing, []domain.RawMessage{
		msg("a", "texto diferente, mesmo id"),
		msg("b", "alagamento em Natal"),
	})

	require.Len(t, merged, len(existing)+1)
	assert.Equal(t, existing[0], merged[0], "existing records are never re-triaged")
	assert.Equal(t, "b", merged[1].ID())
	assert.Equal(t, MergeReport{Received: 2, Added: 1, Duplicates: []string{"a"}, Failures: []Failure{}}, report)
	assert.Equal(t, []string{"a"}, obs.duplicates)
}

func TestMergeIDsAreCaseSensitiveAndFirstWins(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1, nil)
	merged, report := p.Merge(context.Background(), nil, []domain.RawMessage{
		msg("X", "primeiro"),
		msg("x", "outro id"),
		msg("X", "segundo"),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "primeiro", merged[0].Message.Text)
	assert.Equal(t, "x", merged[1].ID())
	assert.Equal(t, []string{"X"}, report.Duplicates)
}

func TestMergeSkipsFailedMessages(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	p := newPipeline(t, 1, obs)
	var progress []int
	merged, report := p.Merge(context.Background(), nil, []domain.RawMessage{
		msg("ok-1", "fogo na mata"),
		{ID: "broken", Text: "\xff", Source: domain.SourcePrimaryAPI},
		{ID: "weird-source", Text: "ok", Source: "carrier-pigeon"},
		msg("ok-2", "granizo"),
	}, WithProgress(func(done, total int) {
		progress = append(progress, done*10+total)
	}))

	require.Len(t, merged, 2)
	assert.Equal(t, "ok-1", merged[0].ID())
	assert.Equal(t, "ok-2", merged[1].ID())
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "broken", report.Failures[0].MessageID)
	require.ErrorIs(t, report.Failures[1].Err, domain.ErrInvalidMessage)
	assert.NotEmpty(t, report.Failures[1].Error)
	assert.Equal(t, []string{"broken", "weird-source"}, obs.failed)
	assert.Equal(t, []int{12, 22}, progress)
}

// crashingNER panics on texts containing "boom", standing in for a component
// that blows up on one pathological message.
type crashingNER struct{}

func (crashingNER) Name() string { return "crashing" }

func (crashingNER) Recognize(_ context.Context, text string) ([]entities.NamedEntity, error) {
	if strings.Contains(text, "boom") {
		panic("tokenizer overflow")
	}
	return nil, nil
}

func TestMergeRetriesIDAfterFailedTriage(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	p, err := New(Deps{
		Classifier: sharedClassifier(),
		Extractor:  entities.NewExtractor(crashingNER{}),
		Observer:   obs,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	var progress []int
	merged, report := p.Merge(context.Background(), nil, []domain.RawMessage{
		msg("a", "boom"),
		msg("b", "granizo"),
		msg("a", "enchente no bairro"),
		msg("a", "terceira cópia"),
	}, WithProgress(func(done, total int) {
		progress = append(progress, done*10+total)
	}))

	require.Len(t, merged, 2)
	assert.Equal(t, "b", merged[0].ID())
	assert.Equal(t, "a", merged[1].ID())
	assert.Equal(t, "enchente no bairro", merged[1].Message.Text)
	assert.Equal(t, 2, report.Added)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a", report.Failures[0].MessageID)
	assert.Contains(t, report.Failures[0].Error, "panic")
	assert.Equal(t, []string{"a"}, report.Duplicates)
	assert.Equal(t, []string{"a"}, obs.failed)
	assert.Equal(t, []int{12, 22, 33}, progress)

	again, second := p.Merge(context.Background(), merged, []domain.RawMessage{msg("a", "boom")})
	assert.Equal(t, merged, again)
	assert.Equal(t, []string{"a"}, second.Duplicates)
	assert.Empty(t, second.Failures)
}

func TestMergeCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	merged, report := newPipeline(t, 1, nil).Merge(ctx, nil, []domain.RawMessage{msg("a", "x"), msg("b", "y")})
	assert.Empty(t, merged)
	require.Len(t, report.Failures, 2)
	require.ErrorIs(t, report.Failures[0].Err, context.Canceled)
}

func TestMergeParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	cities := []string{"Recife", "Natal", "Manaus", "Curitiba", "Salvador"}
	events := []string{"enchente", "incêndio", "deslizamento", "vendaval", "acidente"}
	var batch []domain.RawMessage
	for i := 0; i < 40; i++ {
		text := fmt.Sprintf("%s em %s, %d feridos", events[i%len(events)], cities[i%len(cities)], i)
		batch = append(batch, msg(fmt.Sprintf("m-%02d", i), text))
	}

	seq, _ := newPipeline(t, 1, nil).Merge(context.Background(), nil, batch)
	par, report := newPipeline(t, 8, nil).Merge(context.Background(), nil, batch)

	assert.Equal(t, 40, report.Added)
	assert.Equal(t, seq, par)
}

func TestMergeIdempotenceProperty(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1, nil)
	texts := []string{"enchente", "fogo em Recife", "", "socorro -8.05, -34.9", "granizo"}

	rapid.Check(t, func(t *rapid.T) {
		existingIDs := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-c][0-9]`), 0, 4, rapid.ID[string]).Draw(t, "existing")
		batchIDs := rapid.SliceOfN(rapid.StringMatching(`[a-c][0-9]`), 0, 6).Draw(t, "batch")

		var seed []domain.RawMessage
		for _, id := range existingIDs {
			seed = append(seed, msg(id, rapid.SampledFrom(texts).Draw(t, "text")))
		}
		existing, _ := p.Merge(context.Background(), nil, seed)

		var batch []domain.RawMessage
		for _, id := range batchIDs {
			batch = append(batch, msg(id, rapid.SampledFrom(texts).Draw(t, "text")))
		}

		once, _ := p.Merge(context.Background(), existing, batch)
		twice, report := p.Merge(context.Background(), once, batch)

		if len(once) != len(twice) {
			t.Fatalf("re-merge changed length: %d -> %d", len(once), len(twice))
		}
		for i := range once {
			if once[i].ID() != twice[i].ID() || once[i].Message.Text != twice[i].Message.Text {
				t.Fatalf("re-merge changed record %d", i)
			}
		}
		if report.Added != 0 {
			t.Fatalf("re-merge added %d records", report.Added)
		}
		if len(once) < len(existing) {
			t.Fatalf("merge dropped existing records")
		}
	})
}
