package domain

import (
	"fmt"
	"strings"
	"time"
)

// SentimentLabel is the polarity bucket of a message.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentMethod names the lexicon backend that produced a score.
type SentimentMethod string

const (
	// MethodLexiconA is the compound (valence-sum) scorer.
	MethodLexiconA SentimentMethod = "lexicon-a"
	// MethodLexiconB is the polarity/subjectivity averaging scorer.
	MethodLexiconB SentimentMethod = "lexicon-b"
)

// SentimentResult is the output of the sentiment path.
type SentimentResult struct {
	Label          SentimentLabel  `json:"label"`
	CompositeScore float64         `json:"composite_score"`
	Method         SentimentMethod `json:"method"`
}

// UrgencyLevel buckets the urgency score.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyLow      UrgencyLevel = "low"
)

// Rank orders levels from low (0) to critical (3).
func (l UrgencyLevel) Rank() int {
	switch l {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// UrgencyLevelForScore applies the fixed thresholds: >=7 critical, >=4 high,
// >=2 medium, else low.
func UrgencyLevelForScore(score int) UrgencyLevel {
	switch {
	case score >= 7:
		return UrgencyCritical
	case score >= 4:
		return UrgencyHigh
	case score >= 2:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// UrgencyResult is the keyword-driven urgency estimate.
type UrgencyResult struct {
	Level               UrgencyLevel `json:"level"`
	Score               int          `json:"score"`
	MatchedKeywords     []string     `json:"matched_keywords"`
	MatchedIntensifiers []string     `json:"matched_intensifiers"`
}

// ClassificationResult is the fused disaster-type prediction.
type ClassificationResult struct {
	PredictedType         Category             `json:"predicted_type"`
	Confidence            float64              `json:"confidence"`
	PerClassProbabilities map[Category]float64 `json:"per_class_probabilities"`
	KeywordConfidence     float64              `json:"keyword_confidence"`
}

// PhoneType classifies an extracted phone number.
type PhoneType string

const (
	PhoneEmergency PhoneType = "emergency"
	PhoneMobile    PhoneType = "mobile"
	PhoneLandline  PhoneType = "landline"
	PhoneUnknown   PhoneType = "unknown"
)

// Phone is a phone number mention.
type Phone struct {
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	Type       PhoneType `json:"type"`
}

// LocationType says which extraction tier found a location mention.
type LocationType string

const (
	LocationNamedEntity LocationType = "named_entity"
	LocationPostalCode  LocationType = "postal_code"
	LocationCoordinates LocationType = "coordinates"
	LocationAddress     LocationType = "address"
	LocationCity        LocationType = "city"
)

// MentionConfidence is the coarse confidence of a location mention.
type MentionConfidence string

const (
	ConfidenceHigh   MentionConfidence = "high"
	ConfidenceMedium MentionConfidence = "medium"
)

// Span is a [Start, End) byte range in the original text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// LocationMention is a place reference found in the text.
type LocationMention struct {
	Text       string            `json:"text"`
	Type       LocationType      `json:"type"`
	Span       Span              `json:"span"`
	Confidence MentionConfidence `json:"confidence"`
}

// PersonType distinguishes named people from vulnerable-population mentions.
type PersonType string

const (
	PersonProperName PersonType = "proper_name"
	PersonVulnerable PersonType = "vulnerable"
)

// PersonMention is a person reference with surrounding context.
type PersonMention struct {
	Name     string     `json:"name"`
	Type     PersonType `json:"type"`
	Category string     `json:"category,omitempty"`
	Context  string     `json:"context"`
}

// TemporalType says how a temporal expression was found.
type TemporalType string

const (
	TemporalClockTime  TemporalType = "clock_time"
	TemporalDate       TemporalType = "date"
	TemporalExpression TemporalType = "expression"
)

// TemporalMention is a time or date reference.
type TemporalMention struct {
	Text string       `json:"text"`
	Type TemporalType `json:"type"`
}

// SituationCategory groups critical-situation keywords.
type SituationCategory string

const (
	SituationVulnerablePeople SituationCategory = "vulnerable_people"
	SituationRiskLocation     SituationCategory = "risk_location"
	SituationCriticalState    SituationCategory = "critical_state"
)

// CriticalSituation is a critical phrase with its context.
type CriticalSituation struct {
	Phrase   string            `json:"phrase"`
	Category SituationCategory `json:"category"`
	Context  string            `json:"context"`
}

// ExtractedEntities collects everything the extractor found. Lists are never
// nil so consumers only have to check emptiness.
type ExtractedEntities struct {
	Phones             []Phone             `json:"phones"`
	Locations          []LocationMention   `json:"locations"`
	People             []PersonMention     `json:"people"`
	Temporal           []TemporalMention   `json:"temporal"`
	CriticalSituations []CriticalSituation `json:"critical_situations"`
	CompletenessScore  int                 `json:"completeness_score"`
}

// Provenance records how a location was resolved, ordered by trust.
type Provenance string

const (
	ProvenanceExplicit  Provenance = "explicit-coordinates"
	ProvenanceGazetteer Provenance = "gazetteer-match"
	ProvenanceEstimated Provenance = "estimated"
)

// Trust orders provenance tiers: explicit (2) > gazetteer (1) > estimated (0).
func (p Provenance) Trust() int {
	switch p {
	case ProvenanceExplicit:
		return 2
	case ProvenanceGazetteer:
		return 1
	default:
		return 0
	}
}

// ResolvedLocation is the best-effort coordinate of a message.
type ResolvedLocation struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Provenance Provenance `json:"provenance"`
}

// TriageRecord is the structured, per-message output of the pipeline.
// It is created once per message id and never re-triaged.
type TriageRecord struct {
	Message        RawMessage           `json:"message"`
	Sentiment      SentimentResult      `json:"sentiment"`
	Urgency        UrgencyResult        `json:"urgency"`
	Classification ClassificationResult `json:"classification"`
	Entities       ExtractedEntities    `json:"entities"`
	Location       ResolvedLocation     `json:"location"`
	TriagedAt      time.Time            `json:"triaged_at"`
}

// ID is a shortcut for the message id the record is keyed by.
func (r TriageRecord) ID() string {
	return r.Message.ID
}

// ParseUrgencyLevel accepts the four level names, case-insensitive.
func ParseUrgencyLevel(value string) (UrgencyLevel, error) {
	l := UrgencyLevel(strings.ToLower(strings.TrimSpace(value)))
	switch l {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return l, nil
	default:
		return "", fmt.Errorf("unknown urgency level %q", value)
	}
}

// ParseProvenance accepts the three provenance names, case-insensitive.
func ParseProvenance(value string) (Provenance, error) {
	p := Provenance(strings.ToLower(strings.TrimSpace(value)))
	switch p {
	case ProvenanceExplicit, ProvenanceGazetteer, ProvenanceEstimated:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provenance %q", value)
	}
}
