package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// TreeNode is one node of a flattened decision tree. Leaves have Feature -1.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Probs     []float64
}

// Tree is a CART tree stored as a node slice; node 0 is the root.
type Tree struct {
	Nodes []TreeNode
}

// ForestModel is a bagged ensemble of Gini trees with sqrt(F) features
// considered per split.
type ForestModel struct {
	NumTrees int
	Seed     uint64
	Classes  int
	Trees    []Tree
}

func newForest(seed uint64) *ForestModel {
	return &ForestModel{NumTrees: 100, Seed: seed}
}

type treeBuilder struct {
	x       [][]float64
	sparse  []sparseRow
	y       []int
	classes int
	mtry    int
	rng     *rand.Rand
	nodes   []TreeNode
}

func (m *ForestModel) fit(x [][]float64, y []int, classes int) error {
	if len(x) == 0 {
		return fmt.Errorf("random forest: no samples")
	}
	features := len(x[0])
	m.Classes = classes
	m.Trees = make([]Tree, 0, m.NumTrees)
	rng := rand.New(rand.NewPCG(m.Seed, m.Seed^0x9e3779b97f4a7c15))
	mtry := max(1, int(math.Sqrt(float64(features))))
	rows := make([]sparseRow, len(x))
	for i, row := range x {
		rows[i] = toSparse(row)
	}

	for t := 0; t < m.NumTrees; t++ {
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.IntN(len(x))
		}
		b := &treeBuilder{x: x, sparse: rows, y: y, classes: classes, mtry: mtry, rng: rng}
		b.build(sample)
		m.Trees = append(m.Trees, Tree{Nodes: b.nodes})
	}
	return nil
}

func (m *ForestModel) predictProba(x []float64) []float64 {
	out := make([]float64, m.Classes)
	for _, tree := range m.Trees {
		node := tree.Nodes[0]
		for node.Feature >= 0 {
			if x[node.Feature] <= node.Threshold {
				node = tree.Nodes[node.Left]
			} else {
				node = tree.Nodes[node.Right]
			}
		}
		for c, p := range node.Probs {
			out[c] += p
		}
	}
	for c := range out {
		out[c] /= float64(len(m.Trees))
	}
	return out
}

func (b *treeBuilder) classCounts(samples []int) []int {
	counts := make([]int, b.classes)
	for _, i := range samples {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

// build appends the subtree for samples and returns its node index.
func (b *treeBuilder) build(samples []int) int {
	counts := b.classCounts(samples)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1})

	impurity := gini(counts, len(samples))
	feature, threshold, ok := -1, 0.0, false
	if len(samples) >= 2 && impurity > 0 {
		feature, threshold, ok = b.bestSplit(samples, impurity)
	}
	if !ok {
		probs := make([]float64, b.classes)
		for c, n := range counts {
			probs[c] = float64(n) / float64(len(samples))
		}
		b.nodes[idx].Probs = probs
		return idx
	}

	var left, right []int
	for _, i := range samples {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left)
	r := b.build(right)
	b.nodes[idx] = TreeNode{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit draws candidate features in random order and stops after mtry
// of them produced a valid partition. Features that are zero for every
// sample in the node are never candidates.
func (b *treeBuilder) bestSplit(samples []int, parent float64) (int, float64, bool) {
	active := make(map[int]struct{})
	for _, i := range samples {
		for _, f := range b.sparse[i].idx {
			active[f] = struct{}{}
		}
	}
	candidates := make([]int, 0, len(active))
	for f := range active {
		candidates = append(candidates, f)
	}
	sort.Ints(candidates)
	b.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := parent
	evaluated := 0
	for _, f := range candidates {
		if evaluated >= b.mtry {
			break
		}
		threshold, impurity, ok := b.splitOn(samples, f)
		if !ok {
			continue
		}
		evaluated++
		if impurity < bestImpurity {
			bestFeature, bestThreshold, bestImpurity = f, threshold, impurity
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) splitOn(samples []int, feature int) (float64, float64, bool) {
	order := append([]int(nil), samples...)
	sort.SliceStable(order, func(i, j int) bool {
		return b.x[order[i]][feature] < b.x[order[j]][feature]
	})

	total := len(order)
	right := b.classCounts(order)
	left := make([]int, b.classes)
	bestThreshold, bestImpurity, found := 0.0, math.Inf(1), false
	for k := 0; k < total-1; k++ {
		c := b.y[order[k]]
		left[c]++
		right[c]--
		cur := b.x[order[k]][feature]
		next := b.x[order[k+1]][feature]
		if cur == next {
			continue
		}
		nl, nr := k+1, total-k-1
		weighted := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(total)
		if weighted < bestImpurity {
			bestThreshold, bestImpurity, found = (cur+next)/2, weighted, true
		}
	}
	return bestThreshold, bestImpurity, found
}
