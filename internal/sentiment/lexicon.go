package sentiment

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"DisasterTriage/internal/textnorm"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon holds the word tables shared by both sentiment backends and the
// urgency scorer.
type Lexicon struct {
	Valence      map[string]float64 `yaml:"valence"`
	Negations    []string           `yaml:"negations"`
	Boosters     map[string]float64 `yaml:"boosters"`
	Urgency      []string           `yaml:"urgency"`
	Intensifiers []string           `yaml:"intensifiers"`

	negations map[string]struct{}
}

// DefaultLexicon returns the embedded lexicon.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// ParseLexicon decodes a YAML lexicon and normalizes every entry to lowercase NFC.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var raw Lexicon
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	if len(raw.Valence) == 0 {
		return nil, errors.New("lexicon has no valence entries")
	}

	lex := &Lexicon{
		Valence:   make(map[string]float64, len(raw.Valence)),
		Boosters:  make(map[string]float64, len(raw.Boosters)),
		negations: make(map[string]struct{}, len(raw.Negations)),
	}
	for word, v := range raw.Valence {
		lex.Valence[textnorm.Lower(word)] = v
	}
	for word, v := range raw.Boosters {
		lex.Boosters[textnorm.Lower(word)] = v
	}
	for _, word := range raw.Negations {
		w := textnorm.Lower(word)
		lex.Negations = append(lex.Negations, w)
		lex.negations[w] = struct{}{}
	}
	for _, word := range raw.Urgency {
		lex.Urgency = append(lex.Urgency, textnorm.Lower(word))
	}
	for _, word := range raw.Intensifiers {
		lex.Intensifiers = append(lex.Intensifiers, textnorm.Lower(word))
	}
	return lex, nil
}

// LoadLexicon reads a lexicon file. An empty path selects the embedded one.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// LoadLexiconOrDefault never fails: a missing or broken lexicon file is
// logged and the embedded lexicon is used instead.
func LoadLexiconOrDefault(path string, logger *slog.Logger) *Lexicon {
	lex, err := LoadLexicon(path)
	if err == nil {
		return lex
	}
	if logger != nil {
		attrs := []any{"path", path, "error", err}
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("lexicon file missing, using embedded lexicon", attrs...)
		} else {
			logger.Warn("lexicon file unusable, using embedded lexicon", attrs...)
		}
	}
	return DefaultLexicon()
}

func (l *Lexicon) isNegation(word string) bool {
	_, ok := l.negations[word]
	return ok
}
