// Package geo resolves an approximate coordinate for a message through a
// tiered fallback: explicit coordinates, then a gazetteer lookup, then a
// random estimate around the national centroid.
package geo

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

var coordinatePairExpr = regexp.MustCompile(`(-?\d{1,2}\.\d+),\s*(-?\d{1,2}\.\d+)`)

// BoundingBox is an inclusive lat/lon rectangle.
type BoundingBox struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

// Brazil is the plausible region for the target country.
var Brazil = BoundingBox{MinLat: -35, MaxLat: 5, MinLon: -75, MaxLon: -30}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

func (b BoundingBox) clamp(lat, lon float64) (float64, float64) {
	return min(max(lat, b.MinLat), b.MaxLat), min(max(lon, b.MinLon), b.MaxLon)
}

// Config parameterizes the resolver. Zero values select the Brazilian
// defaults.
type Config struct {
	Box       BoundingBox
	CenterLat float64
	CenterLon float64
	Jitter    float64
	Gazetteer Gazetteer
	// Seed makes tier-3 estimates reproducible; 0 seeds randomly.
	Seed uint64
}

// DefaultConfig returns the Brazilian setup.
func DefaultConfig() Config {
	return Config{
		Box:       Brazil,
		CenterLat: -14.2350,
		CenterLon: -51.9253,
		Jitter:    5,
		Gazetteer: DefaultGazetteer(),
	}
}

// Resolver is safe for concurrent use.
type Resolver struct {
	box       BoundingBox
	centerLat float64
	centerLon float64
	jitter    float64
	cities    []indexedCity

	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver fills unset fields from DefaultConfig.
func NewResolver(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.Box == (BoundingBox{}) {
		cfg.Box = def.Box
	}
	if cfg.CenterLat == 0 && cfg.CenterLon == 0 {
		cfg.CenterLat, cfg.CenterLon = def.CenterLat, def.CenterLon
	}
	if cfg.Jitter <= 0 {
		cfg.Jitter = def.Jitter
	}
	if len(cfg.Gazetteer) == 0 {
		cfg.Gazetteer = def.Gazetteer
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Resolver{
		box:       cfg.Box,
		centerLat: cfg.CenterLat,
		centerLon: cfg.CenterLon,
		jitter:    cfg.Jitter,
		cities:    cfg.Gazetteer.index(),
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Resolve never fails: tiers are tried in strict order and the estimate
// always succeeds.
func (r *Resolver) Resolve(text string) domain.ResolvedLocation {
	if lat, lon, ok := r.ExplicitCoordinates(text); ok {
		return domain.ResolvedLocation{Latitude: lat, Longitude: lon, Provenance: domain.ProvenanceExplicit}
	}
	if city, ok := r.MatchCity(text); ok {
		return domain.ResolvedLocation{Latitude: city.Latitude, Longitude: city.Longitude, Provenance: domain.ProvenanceGazetteer}
	}
	lat, lon := r.Estimate()
	return domain.ResolvedLocation{Latitude: lat, Longitude: lon, Provenance: domain.ProvenanceEstimated}
}

// ExplicitCoordinates returns the first "lat, lon" pair inside the box.
// Pairs outside it are skipped.
func (r *Resolver) ExplicitCoordinates(text string) (float64, float64, bool) {
	for _, m := range coordinatePairExpr.FindAllStringSubmatchIndex(text, -1) {
		if !startsNumber(text, m[0]) {
			continue
		}
		lat, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(text[m[4]:m[5]], 64)
		if err != nil {
			continue
		}
		if r.box.Contains(lat, lon) {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

// startsNumber rejects pairs that begin inside a longer number, such as
// the "5.0" of "km 105.0".
func startsNumber(text string, start int) bool {
	if start == 0 {
		return true
	}
	prev := text[start-1]
	return prev != '.' && (prev < '0' || prev > '9')
}

// MatchCity does a case-insensitive substring search in table order, then
// repeats it with accents folded so "sao paulo" still finds "são paulo".
func (r *Resolver) MatchCity(text string) (City, bool) {
	lower := textnorm.Lower(text)
	for _, c := range r.cities {
		if c.lower != "" && strings.Contains(lower, c.lower) {
			return c.City, true
		}
	}
	folded := textnorm.Fold(lower)
	for _, c := range r.cities {
		if c.folded != "" && strings.Contains(folded, c.folded) {
			return c.City, true
		}
	}
	return City{}, false
}

// Estimate jitters uniformly around the centroid and keeps the result
// inside the box.
func (r *Resolver) Estimate() (float64, float64) {
	r.mu.Lock()
	dLat := (r.rng.Float64()*2 - 1) * r.jitter
	dLon := (r.rng.Float64()*2 - 1) * r.jitter
	r.mu.Unlock()
	return r.box.clamp(r.centerLat+dLat, r.centerLon+dLon)
}
