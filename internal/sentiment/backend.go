package sentiment

import (
	"math"
	"strings"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

// Backend turns preprocessed text into a sentiment result. Both
// implementations return the same shape so callers can switch by config.
type Backend interface {
	Method() domain.SentimentMethod
	Analyze(processed string) domain.SentimentResult
}

const (
	compoundAlpha   = 15.0
	negationScalar  = -0.74
	exclaimBoost    = 0.292
	maxExclaims     = 4
	compoundCutoff  = 0.05
	polarityCutoff  = 0.1
	polarityBooster = 1.3
	polarityNegate  = -0.5
	lookBack        = 3
)

// CompoundBackend sums word valences (with booster and negation handling in
// a three-word window) and squashes the sum into [-1, 1].
type CompoundBackend struct {
	lex *Lexicon
}

// NewCompoundBackend builds the lexicon-a backend.
func NewCompoundBackend(lex *Lexicon) *CompoundBackend {
	return &CompoundBackend{lex: lex}
}

func (b *CompoundBackend) Method() domain.SentimentMethod { return domain.MethodLexiconA }

func (b *CompoundBackend) Analyze(processed string) domain.SentimentResult {
	words := textnorm.Words(processed)
	sum := 0.0
	for i, word := range words {
		valence, ok := b.lex.Valence[word]
		if !ok {
			continue
		}
		for back := 1; back <= lookBack && i-back >= 0; back++ {
			prev := words[i-back]
			if boost, ok := b.lex.Boosters[prev]; ok {
				decay := 1.0 - 0.05*float64(back-1)
				if valence < 0 {
					valence -= boost * decay
				} else {
					valence += boost * decay
				}
			}
			if b.lex.isNegation(prev) {
				valence *= negationScalar
			}
		}
		sum += valence
	}

	if sum != 0 {
		exclaims := min(strings.Count(processed, "!"), maxExclaims)
		emphasis := float64(exclaims) * exclaimBoost
		if sum > 0 {
			sum += emphasis
		} else {
			sum -= emphasis
		}
	}

	compound := 0.0
	if sum != 0 {
		compound = sum / math.Sqrt(sum*sum+compoundAlpha)
	}

	label := domain.SentimentNeutral
	switch {
	case compound >= compoundCutoff:
		label = domain.SentimentPositive
	case compound <= -compoundCutoff:
		label = domain.SentimentNegative
	}
	return domain.SentimentResult{Label: label, CompositeScore: compound, Method: domain.MethodLexiconA}
}

// PolarityBackend averages per-word polarity (valence rescaled to [-1, 1])
// over the opinion words it finds. Subjectivity is the share of words that
// carry an opinion at all.
type PolarityBackend struct {
	lex *Lexicon
}

// NewPolarityBackend builds the lexicon-b backend.
func NewPolarityBackend(lex *Lexicon) *PolarityBackend {
	return &PolarityBackend{lex: lex}
}

func (b *PolarityBackend) Method() domain.SentimentMethod { return domain.MethodLexiconB }

func (b *PolarityBackend) Analyze(processed string) domain.SentimentResult {
	polarity, _ := b.Measure(processed)

	label := domain.SentimentNeutral
	switch {
	case polarity > polarityCutoff:
		label = domain.SentimentPositive
	case polarity < -polarityCutoff:
		label = domain.SentimentNegative
	}
	return domain.SentimentResult{Label: label, CompositeScore: polarity, Method: domain.MethodLexiconB}
}

// Measure returns (polarity, subjectivity) for preprocessed text.
func (b *PolarityBackend) Measure(processed string) (float64, float64) {
	words := textnorm.Words(processed)
	if len(words) == 0 {
		return 0, 0
	}
	var total float64
	var hits int
	for i, word := range words {
		valence, ok := b.lex.Valence[word]
		if !ok {
			continue
		}
		polarity := valence / 4
		if i > 0 {
			prev := words[i-1]
			if _, ok := b.lex.Boosters[prev]; ok {
				polarity *= polarityBooster
			}
			if b.lex.isNegation(prev) {
				polarity *= polarityNegate
			}
		}
		total += max(-1, min(1, polarity))
		hits++
	}
	if hits == 0 {
		return 0, 0
	}
	return total / float64(hits), float64(hits) / float64(len(words))
}
