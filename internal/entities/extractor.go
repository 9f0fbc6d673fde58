// Package entities extracts phones, places, people, temporal expressions and
// critical-situation phrases from emergency reports.
package entities

import (
	"context"
	"log/slog"
	"strings"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

const contextWindow = 50

// Completeness weights per non-empty entity group.
const (
	weightPhones     = 3
	weightLocations  = 4
	weightPeople     = 2
	weightTemporal   = 1
	weightSituations = 2
	maxCompleteness  = 10
)

// Tables are the keyword lists the extractor matches against.
type Tables struct {
	VulnerablePeople []string
	RiskLocations    []string
	CriticalStates   []string
	Cities           []string
}

// DefaultTables returns copies of the built-in lists.
func DefaultTables() Tables {
	return Tables{
		VulnerablePeople: append([]string(nil), DefaultVulnerablePeople...),
		RiskLocations:    append([]string(nil), DefaultRiskLocations...),
		CriticalStates:   append([]string(nil), DefaultCriticalStates...),
		Cities:           append([]string(nil), DefaultCities...),
	}
}

// Extractor is safe for concurrent use if its NER provider is.
type Extractor struct {
	ner    NERProvider
	tables Tables
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithTables replaces the keyword tables.
func WithTables(t Tables) Option {
	return func(e *Extractor) { e.tables = normalizeTables(t) }
}

// WithLogger sets the logger used when NER fails.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l.With("component", "entities") }
}

// NewExtractor builds an extractor. A nil provider selects RuleNER.
func NewExtractor(ner NERProvider, opts ...Option) *Extractor {
	if ner == nil {
		ner = RuleNER{}
	}
	e := &Extractor{
		ner:    ner,
		tables: normalizeTables(DefaultTables()),
		logger: slog.Default().With("component", "entities"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func normalizeTables(t Tables) Tables {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = textnorm.Lower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return Tables{
		VulnerablePeople: lower(t.VulnerablePeople),
		RiskLocations:    lower(t.RiskLocations),
		CriticalStates:   lower(t.CriticalStates),
		Cities:           lower(t.Cities),
	}
}

// Extract never fails. When NER is unavailable the NER-derived groups are
// simply sparser.
func (e *Extractor) Extract(ctx context.Context, text string) domain.ExtractedEntities {
	text = textnorm.NFC(text)
	doc := newDocument(text)

	named, err := e.ner.Recognize(ctx, text)
	if err != nil {
		e.logger.Debug("named entity recognition skipped", "provider", e.ner.Name(), "error", err)
		named = nil
	}
	named = validSpans(named, len(text))

	out := domain.ExtractedEntities{
		Phones:             findPhones(text),
		Locations:          e.locations(doc, named),
		People:             e.people(doc, named),
		Temporal:           temporal(text, named),
		CriticalSituations: e.situations(doc),
	}
	out.CompletenessScore = Completeness(out)
	return out
}

// validSpans drops entities whose offsets do not fit the text; remote
// providers are not trusted on that.
func validSpans(named []NamedEntity, size int) []NamedEntity {
	out := named[:0:0]
	for _, ent := range named {
		if ent.Start < 0 || ent.Start > ent.End || ent.End > size {
			continue
		}
		out = append(out, ent)
	}
	return out
}

// Completeness is the weighted presence sum of the entity groups, capped at 10.
func Completeness(ents domain.ExtractedEntities) int {
	score := 0
	if len(ents.Phones) > 0 {
		score += weightPhones
	}
	if len(ents.Locations) > 0 {
		score += weightLocations
	}
	if len(ents.People) > 0 {
		score += weightPeople
	}
	if len(ents.Temporal) > 0 {
		score += weightTemporal
	}
	if len(ents.CriticalSituations) > 0 {
		score += weightSituations
	}
	return min(score, maxCompleteness)
}

// document keeps the lowercase form next to the original. Offsets found in
// the lowercase form map back only when lowercasing kept byte lengths.
type document struct {
	text    string
	lower   string
	aligned bool
}

func newDocument(text string) document {
	lower := strings.ToLower(text)
	return document{text: text, lower: lower, aligned: len(lower) == len(text)}
}

func (d document) slice(start, end int) string {
	if d.aligned {
		return d.text[start:end]
	}
	return d.lower[start:end]
}

func (d document) context(start, end int) string {
	if d.aligned {
		return textnorm.Context(d.text, start, end, contextWindow)
	}
	return textnorm.Context(d.lower, start, end, contextWindow)
}

func (e *Extractor) locations(doc document, named []NamedEntity) []domain.LocationMention {
	text := doc.text
	out := make([]domain.LocationMention, 0)
	for _, ent := range named {
		if ent.Label != LabelLocation && ent.Label != LabelGPE {
			continue
		}
		out = append(out, domain.LocationMention{
			Text: ent.Text, Type: domain.LocationNamedEntity,
			Span: domain.Span{Start: ent.Start, End: ent.End}, Confidence: domain.ConfidenceHigh,
		})
	}
	for _, m := range postalCodeExpr.FindAllStringIndex(text, -1) {
		out = append(out, mention(text, m, domain.LocationPostalCode, domain.ConfidenceHigh))
	}
	for _, m := range coordinatesExpr.FindAllStringIndex(text, -1) {
		if !startsToken(text, m[0]) || (m[0] > 0 && text[m[0]-1] == '.') {
			continue
		}
		out = append(out, mention(text, m, domain.LocationCoordinates, domain.ConfidenceHigh))
	}
	for _, m := range addressExpr.FindAllStringIndex(text, -1) {
		out = append(out, mention(text, m, domain.LocationAddress, domain.ConfidenceMedium))
	}
	for _, city := range e.tables.Cities {
		idx := strings.Index(doc.lower, city)
		if idx < 0 {
			continue
		}
		end := idx + len(city)
		out = append(out, domain.LocationMention{
			Text: doc.slice(idx, end), Type: domain.LocationCity,
			Span: domain.Span{Start: idx, End: end}, Confidence: domain.ConfidenceMedium,
		})
	}
	return out
}

func mention(text string, m []int, kind domain.LocationType, conf domain.MentionConfidence) domain.LocationMention {
	return domain.LocationMention{
		Text:       text[m[0]:m[1]],
		Type:       kind,
		Span:       domain.Span{Start: m[0], End: m[1]},
		Confidence: conf,
	}
}

func (e *Extractor) people(doc document, named []NamedEntity) []domain.PersonMention {
	out := make([]domain.PersonMention, 0)
	for _, ent := range named {
		if ent.Label != LabelPerson {
			continue
		}
		out = append(out, domain.PersonMention{
			Name:    ent.Text,
			Type:    domain.PersonProperName,
			Context: textnorm.Context(doc.text, ent.Start, ent.End, contextWindow),
		})
	}
	for _, word := range e.tables.VulnerablePeople {
		for _, span := range textnorm.FindWord(doc.lower, word) {
			out = append(out, domain.PersonMention{
				Name:     doc.slice(span[0], span[1]),
				Type:     domain.PersonVulnerable,
				Category: word,
				Context:  doc.context(span[0], span[1]),
			})
		}
	}
	return out
}

func temporal(text string, named []NamedEntity) []domain.TemporalMention {
	out := make([]domain.TemporalMention, 0)
	for _, m := range clockTimeExpr.FindAllString(text, -1) {
		out = append(out, domain.TemporalMention{Text: m, Type: domain.TemporalClockTime})
	}
	for _, m := range dateExpr.FindAllString(text, -1) {
		out = append(out, domain.TemporalMention{Text: m, Type: domain.TemporalDate})
	}
	for _, ent := range named {
		if ent.Label == LabelDate || ent.Label == LabelTime {
			out = append(out, domain.TemporalMention{Text: ent.Text, Type: domain.TemporalExpression})
		}
	}
	return out
}

func (e *Extractor) situations(doc document) []domain.CriticalSituation {
	groups := []struct {
		category domain.SituationCategory
		words    []string
	}{
		{domain.SituationVulnerablePeople, e.tables.VulnerablePeople},
		{domain.SituationRiskLocation, e.tables.RiskLocations},
		{domain.SituationCriticalState, e.tables.CriticalStates},
	}
	out := make([]domain.CriticalSituation, 0)
	for _, g := range groups {
		for _, word := range g.words {
			for _, span := range textnorm.FindWord(doc.lower, word) {
				out = append(out, domain.CriticalSituation{
					Phrase:   doc.slice(span[0], span[1]),
					Category: g.category,
					Context:  doc.context(span[0], span[1]),
				})
			}
		}
	}
	return out
}
