package classifier

import (
	"math"
	"regexp"
	"sort"
)

var tokenExpr = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// VectorizerConfig bounds the vocabulary.
type VectorizerConfig struct {
	MaxFeatures int
	MinDF       int
	MaxDF       float64
}

// DefaultVectorizerConfig: 5000 terms, min_df=2, max_df=0.95, unigrams and
// bigrams, no stopword removal.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{MaxFeatures: 5000, MinDF: 2, MaxDF: 0.95}
}

// Vectorizer is a fitted TF-IDF transform with smoothed idf and L2 rows.
// Fields are exported for the model artifact.
type Vectorizer struct {
	Vocabulary map[string]int
	Terms      []string
	IDF        []float64
}

func analyze(doc string) []string {
	tokens := tokenExpr.FindAllString(doc, -1)
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// FitVectorizer learns vocabulary and idf from preprocessed documents.
func FitVectorizer(docs []string, cfg VectorizerConfig) (*Vectorizer, error) {
	n := len(docs)
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range analyze(doc) {
			tf[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	maxDocs := cfg.MaxDF * float64(n)
	candidates := make([]string, 0, len(df))
	for term, count := range df {
		if count < cfg.MinDF || float64(count) > maxDocs {
			continue
		}
		candidates = append(candidates, term)
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyVocabulary
	}

	sort.Strings(candidates)
	if cfg.MaxFeatures > 0 && len(candidates) > cfg.MaxFeatures {
		sort.SliceStable(candidates, func(i, j int) bool {
			return tf[candidates[i]] > tf[candidates[j]]
		})
		candidates = candidates[:cfg.MaxFeatures]
		sort.Strings(candidates)
	}

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(candidates)),
		Terms:      candidates,
		IDF:        make([]float64, len(candidates)),
	}
	for i, term := range candidates {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	return v, nil
}

// Features is the vocabulary size.
func (v *Vectorizer) Features() int { return len(v.Terms) }

// Transform maps one preprocessed document to an L2-normalized dense row.
// Documents with no known term map to the zero vector.
func (v *Vectorizer) Transform(doc string) []float64 {
	row := make([]float64, len(v.Terms))
	for _, term := range analyze(doc) {
		if idx, ok := v.Vocabulary[term]; ok {
			row[idx]++
		}
	}
	var norm float64
	for i, count := range row {
		if count == 0 {
			continue
		}
		row[i] = count * v.IDF[i]
		norm += row[i] * row[i]
	}
	if norm == 0 {
		return row
	}
	norm = math.Sqrt(norm)
	for i := range row {
		row[i] /= norm
	}
	return row
}

// TransformAll applies Transform to every document.
func (v *Vectorizer) TransformAll(docs []string) [][]float64 {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

func isZero(row []float64) bool {
	for _, x := range row {
		if x != 0 {
			return false
		}
	}
	return true
}
