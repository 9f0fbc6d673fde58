package entities

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
)

// Entity labels understood by the extractor. Providers may return others;
// they are ignored.
const (
	LabelLocation = "LOC"
	LabelGPE      = "GPE"
	LabelPerson   = "PER"
	LabelDate     = "DATE"
	LabelTime     = "TIME"
)

// NamedEntity is a labeled span. Start and End are byte offsets into the
// text that was recognized.
type NamedEntity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// NERProvider recognizes named entities. Implementations may be remote and
// may fail; the extractor treats a failure as "no entities".
type NERProvider interface {
	Name() string
	Recognize(ctx context.Context, text string) ([]NamedEntity, error)
}

// ErrNoProvider is returned by an empty fallback chain.
var ErrNoProvider = errors.New("no NER provider available")

// FallbackNER tries providers in order and returns the first success.
// Each provider that fails is reported once, not on every message.
type FallbackNER struct {
	providers []NERProvider
	logger    *slog.Logger

	mu       sync.Mutex
	degraded map[string]bool
}

// NewFallbackNER chains providers. Callers normally end the chain with a
// RuleNER so recognition always succeeds.
func NewFallbackNER(logger *slog.Logger, providers ...NERProvider) *FallbackNER {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackNER{
		providers: providers,
		logger:    logger.With("component", "ner"),
		degraded:  make(map[string]bool),
	}
}

func (f *FallbackNER) Name() string { return "fallback" }

func (f *FallbackNER) Recognize(ctx context.Context, text string) ([]NamedEntity, error) {
	var errs []error
	for _, p := range f.providers {
		ents, err := p.Recognize(ctx, text)
		if err == nil {
			return ents, nil
		}
		errs = append(errs, err)
		f.warnOnce(p.Name(), err)
	}
	if len(errs) == 0 {
		return nil, ErrNoProvider
	}
	return nil, errors.Join(errs...)
}

func (f *FallbackNER) warnOnce(name string, err error) {
	f.mu.Lock()
	seen := f.degraded[name]
	f.degraded[name] = true
	f.mu.Unlock()
	if !seen {
		f.logger.Warn("NER provider unavailable, falling back", "provider", name, "error", err)
	}
}

const nameRun = `\p{Lu}\p{Ll}+(?:\s+(?:d[aeo]s?\s+)?\p{Lu}\p{Ll}+)*`

var (
	ruleTitleExpr    = regexp.MustCompile(`\b(?:[Ss]r\.?|[Ss]ra\.?|[Dd]ona|[Ss]eu|[Dd]r\.?|[Dd]ra\.?)\s+(` + nameRun + `)`)
	rulePlaceExpr    = regexp.MustCompile(`\b(?:[Ee]m|[Nn][oa]|[Bb]airro|[Cc]idade de|[Mm]unicípio de)\s+(` + nameRun + `)`)
	ruleTemporalExpr = regexp.MustCompile(`(?i)\b(?:hoje|ontem|amanhã|agora|esta (?:manhã|tarde|noite)|de madrugada|há \d+ (?:minutos|horas|dias))`)
)

// RuleNER is the minimal recognizer that is always available: honorific
// followed by capitalized words is a person, a locative preposition followed
// by capitalized words is a place, and a fixed set of relative expressions
// are dates.
type RuleNER struct{}

func (RuleNER) Name() string { return "rules" }

func (RuleNER) Recognize(_ context.Context, text string) ([]NamedEntity, error) {
	var out []NamedEntity
	for _, m := range ruleTitleExpr.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, NamedEntity{Text: text[m[2]:m[3]], Label: LabelPerson, Start: m[2], End: m[3]})
	}
	for _, m := range rulePlaceExpr.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, NamedEntity{Text: text[m[2]:m[3]], Label: LabelLocation, Start: m[2], End: m[3]})
	}
	for _, m := range ruleTemporalExpr.FindAllStringIndex(text, -1) {
		out = append(out, NamedEntity{Text: text[m[0]:m[1]], Label: LabelDate, Start: m[0], End: m[1]})
	}
	return out, nil
}
