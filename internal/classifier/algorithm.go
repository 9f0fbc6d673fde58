// Package classifier predicts the disaster category of a message with a
// TF-IDF vectorizer and one of three interchangeable models, and fuses the
// model probability with keyword evidence.
package classifier

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAlgorithm is returned for an algorithm name outside the supported set.
	ErrUnknownAlgorithm = errors.New("unknown classifier algorithm")
	// ErrEmptyVocabulary means no term survived document-frequency pruning.
	ErrEmptyVocabulary = errors.New("empty vocabulary after pruning")
	// ErrNotFitted is returned when saving a classifier that was never fitted.
	ErrNotFitted = errors.New("classifier not fitted")
	// ErrCorpusMismatch flags an empty corpus or one whose texts and labels differ in length.
	ErrCorpusMismatch = errors.New("corpus texts and labels mismatch")
)

// Algorithm names a model family.
type Algorithm string

const (
	NaiveBayes   Algorithm = "naive-bayes"
	Logistic     Algorithm = "logistic"
	RandomForest Algorithm = "random-forest"
)

// ParseAlgorithm accepts canonical names plus underscore spellings.
func ParseAlgorithm(value string) (Algorithm, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
	switch Algorithm(v) {
	case NaiveBayes, Logistic, RandomForest:
		return Algorithm(v), nil
	case "":
		return NaiveBayes, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, value)
	}
}

// model is the common surface of the three algorithms. Classes are dense
// indices into the pipeline's class list.
type model interface {
	fit(x [][]float64, y []int, classes int) error
	predictProba(x []float64) []float64
}
