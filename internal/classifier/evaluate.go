package classifier

import (
	"math"
	"math/rand/v2"

	"DisasterTriage/internal/domain"
)

const (
	testFraction = 0.2
	cvFolds      = 5
)

// ClassReport is precision/recall/F1 for one category on the held-out split.
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Metrics is what a fit reports.
type Metrics struct {
	Algorithm    Algorithm                       `json:"algorithm"`
	CorpusKind   CorpusKind                      `json:"corpus_kind"`
	Samples      int                             `json:"samples"`
	TrainSamples int                             `json:"train_samples"`
	TestSamples  int                             `json:"test_samples"`
	Features     int                             `json:"features"`
	Classes      []domain.Category               `json:"classes"`
	TestAccuracy float64                         `json:"test_accuracy"`
	CVMean       float64                         `json:"cv_mean"`
	CVStd        float64                         `json:"cv_std"`
	CVFolds      int                             `json:"cv_folds"`
	Report       map[domain.Category]ClassReport `json:"report"`
}

// stratifiedSplit holds out ~20% of every class. Classes with a single
// sample stay entirely in the training portion.
func stratifiedSplit(y []int, classes int, rng *rand.Rand) (train, test []int) {
	for _, members := range byClass(y, classes, rng) {
		n := len(members)
		if n < 2 {
			train = append(train, members...)
			continue
		}
		k := max(1, int(math.Round(testFraction*float64(n))))
		test = append(test, members[:k]...)
		train = append(train, members[k:]...)
	}
	return train, test
}

// stratifiedFolds deals the shuffled members of every class round-robin
// into k folds.
func stratifiedFolds(y []int, classes, k int, rng *rand.Rand) [][]int {
	folds := make([][]int, k)
	next := 0
	for _, members := range byClass(y, classes, rng) {
		for _, i := range members {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	return folds
}

func byClass(y []int, classes int, rng *rand.Rand) [][]int {
	groups := make([][]int, classes)
	for i, c := range y {
		groups[c] = append(groups[c], i)
	}
	for _, g := range groups {
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
	}
	return groups
}

func pick[T any](values []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func accuracy(truth, pred []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0
	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func classReport(truth, pred []int, classes []domain.Category) map[domain.Category]ClassReport {
	report := make(map[domain.Category]ClassReport, len(classes))
	for c, category := range classes {
		var tp, fp, fn int
		for i := range truth {
			switch {
			case truth[i] == c && pred[i] == c:
				tp++
			case truth[i] != c && pred[i] == c:
				fp++
			case truth[i] == c && pred[i] != c:
				fn++
			}
		}
		support := tp + fn
		if support == 0 && fp == 0 {
			continue
		}
		r := ClassReport{Support: support}
		if tp+fp > 0 {
			r.Precision = float64(tp) / float64(tp+fp)
		}
		if support > 0 {
			r.Recall = float64(tp) / float64(support)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		report[category] = r
	}
	return report
}
