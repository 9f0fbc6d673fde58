package classifier

import "fmt"

// LogisticModel is a multinomial (softmax) logistic regression with an L2
// penalty, trained by full-batch gradient descent.
type LogisticModel struct {
	Iterations   int
	LearningRate float64
	L2           float64
	Weights      [][]float64
	Bias         []float64
}

func newLogistic() *LogisticModel {
	return &LogisticModel{Iterations: 1000, LearningRate: 1.0, L2: 1.0}
}

type sparseRow struct {
	idx []int
	val []float64
}

func toSparse(row []float64) sparseRow {
	var s sparseRow
	for i, v := range row {
		if v != 0 {
			s.idx = append(s.idx, i)
			s.val = append(s.val, v)
		}
	}
	return s
}

func (m *LogisticModel) fit(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return fmt.Errorf("logistic: no samples")
	}
	n := float64(len(x))
	features := len(x[0])
	rows := make([]sparseRow, len(x))
	for i, row := range x {
		rows[i] = toSparse(row)
	}

	m.Weights = make([][]float64, classes)
	grad := make([][]float64, classes)
	for c := range m.Weights {
		m.Weights[c] = make([]float64, features)
		grad[c] = make([]float64, features)
	}
	m.Bias = make([]float64, classes)
	biasGrad := make([]float64, classes)
	scores := make([]float64, classes)

	for iter := 0; iter < m.Iterations; iter++ {
		for c := range grad {
			for f := range grad[c] {
				grad[c][f] = m.L2 * m.Weights[c][f]
			}
			biasGrad[c] = 0
		}
		for i, row := range rows {
			for c := range scores {
				s := m.Bias[c]
				for k, f := range row.idx {
					s += m.Weights[c][f] * row.val[k]
				}
				scores[c] = s
			}
			probs := softmax(scores)
			for c, p := range probs {
				if c == y[i] {
					p--
				}
				biasGrad[c] += p
				for k, f := range row.idx {
					grad[c][f] += p * row.val[k]
				}
			}
		}
		step := m.LearningRate / n
		for c := range m.Weights {
			for f := range m.Weights[c] {
				m.Weights[c][f] -= step * grad[c][f]
			}
			m.Bias[c] -= step * biasGrad[c]
		}
	}
	return nil
}

func (m *LogisticModel) predictProba(x []float64) []float64 {
	scores := make([]float64, len(m.Bias))
	for c := range scores {
		s := m.Bias[c]
		for f, v := range x {
			if v != 0 {
				s += m.Weights[c][f] * v
			}
		}
		scores[c] = s
	}
	return softmax(scores)
}
