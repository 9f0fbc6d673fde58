package geo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"DisasterTriage/internal/textnorm"
)

// City is one gazetteer entry.
type City struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"lat" json:"lat"`
	Longitude float64 `yaml:"lon" json:"lon"`
}

// Gazetteer is ordered: the first matching entry wins.
type Gazetteer []City

// DefaultGazetteer returns the built-in table of major Brazilian cities.
func DefaultGazetteer() Gazetteer {
	return Gazetteer{
		{"são paulo", -23.5505, -46.6333},
		{"rio de janeiro", -22.9068, -43.1729},
		{"belo horizonte", -19.9167, -43.9345},
		{"salvador", -12.9714, -38.5014},
		{"brasília", -15.8267, -47.9218},
		{"fortaleza", -3.7319, -38.5267},
		{"manaus", -3.1190, -60.0217},
		{"curitiba", -25.4244, -49.2654},
		{"recife", -8.0476, -34.8770},
		{"porto alegre", -30.0346, -51.2177},
		{"goiânia", -16.6869, -49.2648},
		{"belém", -1.4558, -48.5044},
		{"guarulhos", -23.4538, -46.5333},
		{"campinas", -22.9099, -47.0626},
		{"são luís", -2.5387, -44.2825},
		{"maceió", -9.6658, -35.7353},
		{"natal", -5.7945, -35.2110},
		{"teresina", -5.0892, -42.8019},
		{"campo grande", -20.4697, -54.6201},
		{"joão pessoa", -7.1195, -34.8450},
	}
}

// LoadGazetteer reads a YAML list of {name, lat, lon}; order is preserved.
func LoadGazetteer(path string) (Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}
	var g Gazetteer
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode gazetteer %s: %w", path, err)
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("gazetteer %s is empty", path)
	}
	for i, c := range g {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("gazetteer %s: entry %d has no name", path, i)
		}
	}
	return g, nil
}

type indexedCity struct {
	City
	lower  string
	folded string
}

func (g Gazetteer) index() []indexedCity {
	out := make([]indexedCity, 0, len(g))
	for _, c := range g {
		lower := textnorm.Lower(strings.TrimSpace(c.Name))
		out = append(out, indexedCity{City: c, lower: lower, folded: textnorm.Fold(lower)})
	}
	return out
}
