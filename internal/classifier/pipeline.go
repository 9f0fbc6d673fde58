package classifier

import (
	"fmt"

	"DisasterTriage/internal/domain"
)

// Pipeline is the vectorizer and model fitted as one unit.
type Pipeline struct {
	Algorithm  Algorithm
	Vectorizer *Vectorizer
	Classes    []domain.Category
	NB         *NaiveBayesModel
	LR         *LogisticModel
	RF         *ForestModel
}

func newModel(algorithm Algorithm, seed uint64) (model, error) {
	switch algorithm {
	case NaiveBayes:
		return newNaiveBayes(), nil
	case Logistic:
		return newLogistic(), nil
	case RandomForest:
		return newForest(seed), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// classIndex orders the categories present in labels canonically.
func classIndex(labels []domain.Category) ([]domain.Category, map[domain.Category]int) {
	present := make(map[domain.Category]bool)
	for _, l := range labels {
		present[l] = true
	}
	var classes []domain.Category
	index := make(map[domain.Category]int)
	for _, c := range domain.Categories() {
		if present[c] {
			index[c] = len(classes)
			classes = append(classes, c)
		}
	}
	return classes, index
}

// fitPipeline fits vectorizer and model on preprocessed docs. y indexes classes.
func fitPipeline(algorithm Algorithm, seed uint64, docs []string, y []int, classes []domain.Category) (*Pipeline, error) {
	vec, err := FitVectorizer(docs, DefaultVectorizerConfig())
	if err != nil {
		return nil, err
	}
	m, err := newModel(algorithm, seed)
	if err != nil {
		return nil, err
	}
	if err := m.fit(vec.TransformAll(docs), y, len(classes)); err != nil {
		return nil, fmt.Errorf("fit %s: %w", algorithm, err)
	}
	p := &Pipeline{Algorithm: algorithm, Vectorizer: vec, Classes: classes}
	switch typed := m.(type) {
	case *NaiveBayesModel:
		p.NB = typed
	case *LogisticModel:
		p.LR = typed
	case *ForestModel:
		p.RF = typed
	}
	return p, nil
}

func (p *Pipeline) model() model {
	switch {
	case p.NB != nil:
		return p.NB
	case p.LR != nil:
		return p.LR
	default:
		return p.RF
	}
}

// predictProba returns class probabilities and whether the document had any
// known term.
func (p *Pipeline) predictProba(doc string) ([]float64, bool) {
	row := p.Vectorizer.Transform(doc)
	if isZero(row) {
		return nil, false
	}
	return p.model().predictProba(row), true
}

func (p *Pipeline) predict(doc string) int {
	probs, ok := p.predictProba(doc)
	if !ok {
		return fallbackClass(p.Classes)
	}
	return argmax(probs)
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// fallbackClass is the index of "other", or the last class when "other" was
// not trained.
func fallbackClass(classes []domain.Category) int {
	for i, c := range classes {
		if c == domain.CategoryOther {
			return i
		}
	}
	return len(classes) - 1
}
