package classifier

import (
	"fmt"
	"math"
)

// NaiveBayesModel is a multinomial naive Bayes over TF-IDF weights.
type NaiveBayesModel struct {
	Alpha          float64
	ClassLogPrior  []float64
	FeatureLogProb [][]float64
}

func newNaiveBayes() *NaiveBayesModel {
	return &NaiveBayesModel{Alpha: 0.1}
}

func (m *NaiveBayesModel) fit(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return fmt.Errorf("naive bayes: no samples")
	}
	features := len(x[0])
	counts := make([][]float64, classes)
	for c := range counts {
		counts[c] = make([]float64, features)
	}
	samples := make([]int, classes)
	for i, row := range x {
		c := y[i]
		samples[c]++
		for f, value := range row {
			counts[c][f] += value
		}
	}

	m.ClassLogPrior = make([]float64, classes)
	m.FeatureLogProb = make([][]float64, classes)
	for c := 0; c < classes; c++ {
		if samples[c] == 0 {
			m.ClassLogPrior[c] = math.Inf(-1)
		} else {
			m.ClassLogPrior[c] = math.Log(float64(samples[c]) / float64(len(x)))
		}
		total := m.Alpha * float64(features)
		for _, v := range counts[c] {
			total += v
		}
		m.FeatureLogProb[c] = make([]float64, features)
		for f, v := range counts[c] {
			m.FeatureLogProb[c][f] = math.Log((v + m.Alpha) / total)
		}
	}
	return nil
}

func (m *NaiveBayesModel) predictProba(x []float64) []float64 {
	jll := make([]float64, len(m.ClassLogPrior))
	for c := range jll {
		jll[c] = m.ClassLogPrior[c]
		for f, value := range x {
			if value != 0 {
				jll[c] += value * m.FeatureLogProb[c][f]
			}
		}
	}
	return softmax(jll)
}

func softmax(scores []float64) []float64 {
	peak := math.Inf(-1)
	for _, s := range scores {
		peak = max(peak, s)
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		if math.IsInf(s, -1) {
			continue
		}
		out[i] = math.Exp(s - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
