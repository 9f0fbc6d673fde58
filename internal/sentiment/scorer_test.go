package sentiment

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"DisasterTriage/internal/domain"
)

func newScorer(t *testing.T, method domain.SentimentMethod) *Scorer {
	t.Helper()
	s, err := NewScorerForMethod(method, DefaultLexicon())
	require.NoError(t, err)
	return s
}

func TestTriageTrappedInFlood(t *testing.T) {
	t.Parallel()

	for _, method := range []domain.SentimentMethod{domain.MethodLexiconA, domain.MethodLexiconB} {
		s := newScorer(t, method)
		got := s.Triage("Socorro! Estou preso na enchente e não consigo sair!")

		assert.Contains(t, []domain.UrgencyLevel{domain.UrgencyCritical, domain.UrgencyHigh}, got.Urgency.Level, method)
		assert.Contains(t, got.Urgency.MatchedKeywords, "socorro")
		assert.Contains(t, got.Urgency.MatchedKeywords, "preso")
		assert.Equal(t, domain.SentimentNegative, got.Sentiment.Label, method)
		assert.Equal(t, method, got.Sentiment.Method)
	}
}

func TestTriageControlledSituation(t *testing.T) {
	t.Parallel()

	s := newScorer(t, domain.MethodLexiconA)
	got := s.Triage("Situação controlada, bombeiros já chegaram no local")

	assert.Contains(t, []domain.UrgencyLevel{domain.UrgencyLow, domain.UrgencyMedium}, got.Urgency.Level)
	assert.NotEqual(t, domain.SentimentNegative, got.Sentiment.Label)
}

func TestTriageEmptyText(t *testing.T) {
	t.Parallel()

	for _, method := range []domain.SentimentMethod{domain.MethodLexiconA, domain.MethodLexiconB} {
		got := newScorer(t, method).Triage("")

		assert.Equal(t, domain.SentimentNeutral, got.Sentiment.Label)
		assert.Zero(t, got.Sentiment.CompositeScore)
		assert.Equal(t, domain.UrgencyLow, got.Urgency.Level)
		assert.Zero(t, got.Urgency.Score)
		assert.NotNil(t, got.Urgency.MatchedKeywords)
		assert.Empty(t, got.Urgency.MatchedKeywords)
	}
}

func TestUrgencyScoreIsCapped(t *testing.T) {
	t.Parallel()

	s := newScorer(t, domain.MethodLexiconA)
	got := s.ScoreUrgency("SOCORRO ajuda urgente perigo risco preso ferido sangue, muito extremamente")

	assert.Equal(t, 10, got.Score)
	assert.Equal(t, domain.UrgencyCritical, got.Level)
	assert.Equal(t, []string{"muito", "extremamente"}, got.MatchedIntensifiers)
}

func TestUrgencyIgnoresSentimentPreprocessing(t *testing.T) {
	t.Parallel()

	// Hashtags are stripped from the sentiment path but still count for urgency.
	s := newScorer(t, domain.MethodLexiconA)
	got := s.ScoreUrgency("#socorro http://x.y/z")
	assert.Equal(t, []string{"socorro"}, got.MatchedKeywords)
	assert.Equal(t, 2, got.Score)
	assert.Equal(t, domain.UrgencyMedium, got.Level)
}

func TestCompoundNegation(t *testing.T) {
	t.Parallel()

	b := NewCompoundBackend(DefaultLexicon())
	plain := b.Analyze("estamos seguros")
	negated := b.Analyze("não estamos seguros")

	assert.Equal(t, domain.SentimentPositive, plain.Label)
	assert.Less(t, negated.CompositeScore, plain.CompositeScore)
	assert.Equal(t, domain.SentimentNegative, negated.Label)
}

func TestPolarityThresholdsAreStrict(t *testing.T) {
	t.Parallel()

	lex, err := ParseLexicon([]byte("valence:\n  morno: 0.4\n"))
	require.NoError(t, err)

	got := NewPolarityBackend(lex).Analyze("morno")
	assert.InDelta(t, 0.1, got.CompositeScore, 1e-9)
	assert.Equal(t, domain.SentimentNeutral, got.Label)
}

func TestBackendForUnknown(t *testing.T) {
	t.Parallel()

	_, err := BackendFor("vader", DefaultLexicon())
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestLoadLexiconOrDefaultFallsBack(t *testing.T) {
	t.Parallel()

	lex := LoadLexiconOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.NotEmpty(t, lex.Valence)
	assert.NotEmpty(t, lex.Urgency)
}

func TestLoadLexiconFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lex.yaml")
	content := "valence:\n  Ótimo: 3\nurgency: [Alerta]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lex, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, lex.Valence["ótimo"])
	assert.Equal(t, []string{"alerta"}, lex.Urgency)
}

func TestUrgencyMonotonicProperty(t *testing.T) {
	t.Parallel()

	s := newScorer(t, domain.MethodLexiconA)
	lex := DefaultLexicon()
	words := []string{"água", "casa", "rua", "chuva", "vizinho", "socorro", "muito", "ponte", "fogo", "ok"}

	rapid.Check(t, func(t *rapid.T) {
		base := strings.Join(rapid.SliceOfN(rapid.SampledFrom(words), 0, 12).Draw(t, "words"), " ")
		extra := rapid.SampledFrom(lex.Urgency).Draw(t, "keyword")

		before := s.ScoreUrgency(base)
		after := s.ScoreUrgency(base + " " + extra)

		if after.Score < before.Score {
			t.Fatalf("score decreased: %d -> %d", before.Score, after.Score)
		}
		if after.Score > 10 {
			t.Fatalf("score above cap: %d", after.Score)
		}
		if after.Level.Rank() < before.Level.Rank() {
			t.Fatalf("level decreased: %s -> %s", before.Level, after.Level)
		}
	})
}

func TestCompositeScoreBoundsProperty(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	backends := []Backend{NewCompoundBackend(lex), NewPolarityBackend(lex)}
	vocab := make([]string, 0, len(lex.Valence)+len(lex.Negations))
	for w := range lex.Valence {
		vocab = append(vocab, w)
	}
	slices.Sort(vocab)
	vocab = append(vocab, lex.Negations...)
	vocab = append(vocab, "!", "muito", "casa")

	rapid.Check(t, func(t *rapid.T) {
		text := strings.Join(rapid.SliceOfN(rapid.SampledFrom(vocab), 0, 30).Draw(t, "words"), " ")
		for _, b := range backends {
			got := b.Analyze(text)
			if got.CompositeScore < -1 || got.CompositeScore > 1 {
				t.Fatalf("%s score out of range: %f", b.Method(), got.CompositeScore)
			}
		}
	})
}
