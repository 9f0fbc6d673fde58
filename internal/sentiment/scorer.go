// Package sentiment scores sentiment polarity and keyword urgency of short
// emergency reports.
package sentiment

import (
	"errors"
	"fmt"
	"strings"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

// ErrUnknownMethod is returned for a backend name other than lexicon-a/b.
var ErrUnknownMethod = errors.New("unknown sentiment method")

// Assessment bundles both outputs of the scorer.
type Assessment struct {
	Sentiment domain.SentimentResult
	Urgency   domain.UrgencyResult
}

// Scorer is stateless after construction and safe for concurrent use.
type Scorer struct {
	backend      Backend
	urgency      []string
	intensifiers []string
}

// NewScorer wires a backend with the urgency tables of lex.
func NewScorer(backend Backend, lex *Lexicon) *Scorer {
	return &Scorer{
		backend:      backend,
		urgency:      lex.Urgency,
		intensifiers: lex.Intensifiers,
	}
}

// NewScorerForMethod selects the backend by name.
func NewScorerForMethod(method domain.SentimentMethod, lex *Lexicon) (*Scorer, error) {
	backend, err := BackendFor(method, lex)
	if err != nil {
		return nil, err
	}
	return NewScorer(backend, lex), nil
}

// BackendFor maps a method name to its backend.
func BackendFor(method domain.SentimentMethod, lex *Lexicon) (Backend, error) {
	switch domain.SentimentMethod(strings.ToLower(string(method))) {
	case domain.MethodLexiconA, "":
		return NewCompoundBackend(lex), nil
	case domain.MethodLexiconB:
		return NewPolarityBackend(lex), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Method reports the configured backend.
func (s *Scorer) Method() domain.SentimentMethod {
	return s.backend.Method()
}

// Score runs the sentiment path on cleaned text.
func (s *Scorer) Score(text string) domain.SentimentResult {
	return s.backend.Analyze(textnorm.ForSentiment(text))
}

// ScoreUrgency matches urgency terms and intensifiers as substrings of the
// lowercased original text, so "socorro!!" and "#socorro" still count.
func (s *Scorer) ScoreUrgency(text string) domain.UrgencyResult {
	lower := textnorm.Lower(text)

	keywords := matchAll(lower, s.urgency)
	intensifiers := matchAll(lower, s.intensifiers)

	score := min(2*len(keywords)+len(intensifiers), 10)
	return domain.UrgencyResult{
		Level:               domain.UrgencyLevelForScore(score),
		Score:               score,
		MatchedKeywords:     keywords,
		MatchedIntensifiers: intensifiers,
	}
}

// Triage runs both paths.
func (s *Scorer) Triage(text string) Assessment {
	return Assessment{
		Sentiment: s.Score(text),
		Urgency:   s.ScoreUrgency(text),
	}
}

func matchAll(text string, terms []string) []string {
	found := make([]string, 0)
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			found = append(found, term)
		}
	}
	return found
}
