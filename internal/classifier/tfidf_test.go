package classifier

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitVectorizerPrunesByDocumentFrequency(t *testing.T) {
	t.Parallel()

	docs := []string{
		"enchente na rua",
		"enchente na praça",
		"fogo na rua",
		"a na",
	}
	v, err := FitVectorizer(docs, DefaultVectorizerConfig())
	require.NoError(t, err)

	// "na" is in every document (df 4 > 0.95*4), single-letter "a" is not a token.
	assert.Equal(t, []string{"enchente", "enchente na", "na rua", "rua"}, v.Terms)
	assert.InDelta(t, math.Log(5.0/3.0)+1, v.IDF[v.Vocabulary["enchente"]], 1e-12)
}

func TestFitVectorizerMaxFeatures(t *testing.T) {
	t.Parallel()

	docs := []string{"alfa beta beta", "alfa beta gama", "gama delta", "delta alfa", "zeta"}
	v, err := FitVectorizer(docs, VectorizerConfig{MaxFeatures: 2, MinDF: 2, MaxDF: 1})
	require.NoError(t, err)

	// term frequency: alfa 3, beta 3, then "alfa beta", delta and gama at 2.
	assert.Equal(t, []string{"alfa", "beta"}, v.Terms)
}

func TestFitVectorizerEmpty(t *testing.T) {
	t.Parallel()

	_, err := FitVectorizer([]string{"um dois", "tres quatro"}, DefaultVectorizerConfig())
	require.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTransformIsL2Normalized(t *testing.T) {
	t.Parallel()

	v, err := FitVectorizer([]string{"enchente rua", "enchente rua casa", "casa"}, VectorizerConfig{MinDF: 1, MaxDF: 1})
	require.NoError(t, err)

	row := v.Transform("enchente enchente casa desconhecido")
	var norm float64
	for _, x := range row {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-12)
	assert.True(t, isZero(v.Transform("nada conhecido")))
}

func TestStratifiedSplitKeepsSingletonsInTrain(t *testing.T) {
	t.Parallel()

	y := []int{0, 0, 0, 0, 0, 1, 1, 2}
	train, test := stratifiedSplit(y, 3, newTestRand())

	assert.Len(t, test, 2)
	assert.Len(t, train, 6)
	assert.Contains(t, train, 7)
}

func TestMeanStdIsPopulation(t *testing.T) {
	t.Parallel()

	mean, std := meanStd([]float64{1, 3})
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 1.0, std)
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 1))
}
