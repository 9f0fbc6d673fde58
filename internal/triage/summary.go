package triage

import (
	"cmp"
	"slices"

	"DisasterTriage/internal/domain"
)

const (
	highConfidence = 0.8
	lowConfidence  = 0.5
	topN           = 10
)

// TermCount is a phrase with its number of occurrences.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Point is a latitude/longitude pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Bounds is the box spanned by resolved locations.
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Summary aggregates a set of records for reports and dashboards.
type Summary struct {
	Total            int                           `json:"total"`
	BySentiment      map[domain.SentimentLabel]int `json:"by_sentiment"`
	ByUrgency        map[domain.UrgencyLevel]int   `json:"by_urgency"`
	ByCategory       map[domain.Category]int       `json:"by_category"`
	ByProvenance     map[domain.Provenance]int     `json:"by_provenance"`
	MeanSentiment    float64                       `json:"mean_sentiment"`
	MeanUrgency      float64                       `json:"mean_urgency"`
	MeanConfidence   float64                       `json:"mean_confidence"`
	MeanCompleteness float64                       `json:"mean_completeness"`
	Critical         int                           `json:"critical"`
	HighConfidence   int                           `json:"high_confidence"`
	LowConfidence    int                           `json:"low_confidence"`
	TopKeywords      []TermCount                   `json:"top_keywords"`
	TopSituations    []TermCount                   `json:"top_situations"`
	Center           Point                         `json:"center"`
	Bounds           Bounds                        `json:"bounds"`
}

// Summarize never fails; an empty input yields zero values and empty maps.
func Summarize(records []domain.TriageRecord) Summary {
	s := Summary{
		Total:         len(records),
		BySentiment:   make(map[domain.SentimentLabel]int),
		ByUrgency:     make(map[domain.UrgencyLevel]int),
		ByCategory:    make(map[domain.Category]int),
		ByProvenance:  make(map[domain.Provenance]int),
		TopKeywords:   make([]TermCount, 0),
		TopSituations: make([]TermCount, 0),
	}
	if len(records) == 0 {
		return s
	}

	keywords := make(map[string]int)
	situations := make(map[string]int)
	var sentimentSum, urgencySum, confidenceSum, completenessSum, latSum, lonSum float64
	first := records[0].Location
	s.Bounds = Bounds{
		Min: Point{first.Latitude, first.Longitude},
		Max: Point{first.Latitude, first.Longitude},
	}

	for _, rec := range records {
		s.BySentiment[rec.Sentiment.Label]++
		s.ByUrgency[rec.Urgency.Level]++
		s.ByCategory[rec.Classification.PredictedType]++
		s.ByProvenance[rec.Location.Provenance]++

		sentimentSum += rec.Sentiment.CompositeScore
		urgencySum += float64(rec.Urgency.Score)
		confidenceSum += rec.Classification.Confidence
		completenessSum += float64(rec.Entities.CompletenessScore)

		if rec.Urgency.Level == domain.UrgencyCritical {
			s.Critical++
		}
		switch c := rec.Classification.Confidence; {
		case c >= highConfidence:
			s.HighConfidence++
		case c < lowConfidence:
			s.LowConfidence++
		}

		for _, kw := range rec.Urgency.MatchedKeywords {
			keywords[kw]++
		}
		for _, cs := range rec.Entities.CriticalSituations {
			situations[cs.Phrase]++
		}

		lat, lon := rec.Location.Latitude, rec.Location.Longitude
		latSum += lat
		lonSum += lon
		s.Bounds.Min.Latitude = min(s.Bounds.Min.Latitude, lat)
		s.Bounds.Min.Longitude = min(s.Bounds.Min.Longitude, lon)
		s.Bounds.Max.Latitude = max(s.Bounds.Max.Latitude, lat)
		s.Bounds.Max.Longitude = max(s.Bounds.Max.Longitude, lon)
	}

	n := float64(len(records))
	s.MeanSentiment = sentimentSum / n
	s.MeanUrgency = urgencySum / n
	s.MeanConfidence = confidenceSum / n
	s.MeanCompleteness = completenessSum / n
	s.Center = Point{Latitude: latSum / n, Longitude: lonSum / n}
	s.TopKeywords = top(keywords, topN)
	s.TopSituations = top(situations, topN)
	return s
}

// top orders by count desc, then term asc.
func top(counts map[string]int, n int) []TermCount {
	out := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		out = append(out, TermCount{Term: term, Count: count})
	}
	slices.SortFunc(out, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
