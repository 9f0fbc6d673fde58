package triage

import (
	"slices"
	"time"

	"DisasterTriage/internal/domain"
)

// Filter selects records the way the dashboard does. Empty fields match
// everything; Since is inclusive and Until exclusive on the message time.
type Filter struct {
	Categories    []domain.Category
	Levels        []domain.UrgencyLevel
	Provenances   []domain.Provenance
	Sources       []domain.Source
	Since         time.Time
	Until         time.Time
	MinConfidence float64
}

// Match reports whether rec passes every criterion.
func (f Filter) Match(rec domain.TriageRecord) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, rec.Classification.PredictedType) {
		return false
	}
	if len(f.Levels) > 0 && !slices.Contains(f.Levels, rec.Urgency.Level) {
		return false
	}
	if len(f.Provenances) > 0 && !slices.Contains(f.Provenances, rec.Location.Provenance) {
		return false
	}
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, rec.Message.Source) {
		return false
	}
	created := rec.Message.CreatedAt
	if !f.Since.IsZero() && created.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !created.Before(f.Until) {
		return false
	}
	return rec.Classification.Confidence >= f.MinConfidence
}

// Apply returns the matching records in their original order.
func (f Filter) Apply(records []domain.TriageRecord) []domain.TriageRecord {
	out := make([]domain.TriageRecord, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}
