package classifier

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"DisasterTriage/internal/domain"
)

func smallCorpus() *Corpus {
	c := &Corpus{Kind: CorpusSupplied}
	add := func(label domain.Category, texts ...string) {
		for _, t := range texts {
			c.Texts = append(c.Texts, t)
			c.Labels = append(c.Labels, label)
		}
	}
	add(domain.CategoryFlood,
		"enchente alagou a rua", "enchente na casa", "água da enchente subiu",
		"rio transbordou enchente", "enchente e chuva forte", "alagamento enchente bairro")
	add(domain.CategoryFire,
		"incêndio na casa", "fogo e fumaça incêndio", "incêndio na mata",
		"fogo queimando tudo incêndio", "incêndio fogo alto", "bombeiros no incêndio")
	add(domain.CategoryOther,
		"situação estranha aqui", "algo estranho aconteceu", "evento estranho na região",
		"situação estranha na cidade", "problema estranho", "coisa estranha hoje")
	return c
}

func newClassifier(t *testing.T, algorithm Algorithm) *Classifier {
	t.Helper()
	c, err := New(Options{Algorithm: algorithm})
	require.NoError(t, err)
	return c
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	cases := map[string]Algorithm{
		"":              NaiveBayes,
		"naive_bayes":   NaiveBayes,
		"Logistic":      Logistic,
		"random-forest": RandomForest,
	}
	for in, want := range cases {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseAlgorithm("svm")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestBootstrapCorpus(t *testing.T) {
	t.Parallel()

	corpus := Bootstrap()
	require.NoError(t, corpus.Validate())
	assert.Equal(t, CorpusBootstrap, corpus.Kind)

	perClass := make(map[domain.Category]int)
	for i, text := range corpus.Texts {
		assert.NotContains(t, text, "{local}")
		perClass[corpus.Labels[i]]++
	}
	for _, c := range domain.Categories() {
		assert.Positive(t, perClass[c], c)
	}
	assert.Equal(t, 5, perClass[domain.CategoryOther])
	// 5 templates x 8 locations plus one slot-free copy for each of the 3 slotted templates.
	assert.Equal(t, 43, perClass[domain.CategoryFlood])

	copies := 0
	for _, text := range corpus.Texts {
		if text == "Chuva forte causou alagamento" {
			copies++
		}
	}
	assert.Equal(t, 1, copies)
}

func TestWithoutLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Chuva forte causou alagamento", withoutLocation("Chuva forte causou alagamento na {local}"))
	assert.Equal(t, "Enchente na região, várias casas alagadas", withoutLocation("Enchente na região de {local}, várias casas alagadas"))
}

func TestLoadCorpus(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corpus.yaml")
	content := "- text: enchente na rua\n  label: flood\n- text: fogo no mato\n  label: FIRE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	corpus, err := LoadCorpus(path)
	require.NoError(t, err)
	assert.Equal(t, CorpusSupplied, corpus.Kind)
	assert.Equal(t, []domain.Category{domain.CategoryFlood, domain.CategoryFire}, corpus.Labels)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- text: x\n  label: tsunami\n"), 0o600))
	_, err = LoadCorpus(bad)
	require.Error(t, err)
}

func TestFitRejectsMismatchedCorpus(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, NaiveBayes)
	_, err := c.Fit(&Corpus{Texts: []string{"a"}, Kind: CorpusSupplied}, "")
	require.ErrorIs(t, err, ErrCorpusMismatch)

	_, err = c.Fit(&Corpus{Kind: CorpusSupplied}, "")
	require.ErrorIs(t, err, ErrCorpusMismatch)
	assert.False(t, c.Fitted())
}

func TestFitBootstrapMetrics(t *testing.T) {
	t.Parallel()

	var observed int
	c, err := New(Options{OnFit: func(Metrics, time.Duration) { observed++ }})
	require.NoError(t, err)

	m, err := c.Fit(nil, NaiveBayes)
	require.NoError(t, err)

	assert.Equal(t, 1, observed)
	assert.Equal(t, CorpusBootstrap, m.CorpusKind)
	assert.Equal(t, NaiveBayes, m.Algorithm)
	assert.Equal(t, domain.Categories(), m.Classes)
	assert.Equal(t, m.Samples, m.TrainSamples+m.TestSamples)
	assert.Equal(t, cvFolds, m.CVFolds)
	assert.Greater(t, m.TestAccuracy, 0.5)
	assert.GreaterOrEqual(t, m.CVStd, 0.0)
	assert.NotEmpty(t, m.Report)
}

func TestClassifyBootstrapsLazily(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, NaiveBayes)
	assert.False(t, c.Fitted())

	got := c.Classify("Enchente na rua, a água está subindo e o rio transbordou")
	assert.True(t, c.Fitted())
	assert.Equal(t, domain.CategoryFlood, got.PredictedType)
	assert.Greater(t, got.KeywordConfidence, 0.0)

	m, ok := c.Metrics()
	require.True(t, ok)
	assert.Equal(t, CorpusBootstrap, m.CorpusKind)
}

func TestClassifyConcurrentFirstCallFitsOnce(t *testing.T) {
	t.Parallel()

	var fits int
	var mu sync.Mutex
	c, err := New(Options{OnFit: func(Metrics, time.Duration) {
		mu.Lock()
		fits++
		mu.Unlock()
	}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Classify("incêndio com muito fogo")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fits)
}

func TestClassifyEmptyTextRoutesToOther(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, NaiveBayes)
	for _, text := range []string{"", "   ", "@fulano http://t.co/x", "zzz qqq"} {
		got := c.Classify(text)
		assert.Equal(t, domain.CategoryOther, got.PredictedType, text)
		assert.Equal(t, neutralKeywordConfidence, got.KeywordConfidence)
		uniform := 1 / float64(len(got.PerClassProbabilities))
		for _, p := range got.PerClassProbabilities {
			assert.InDelta(t, uniform, p, 1e-12)
		}
		assert.InDelta(t, (uniform+0.5)/2, got.Confidence, 1e-12)
		assert.Less(t, got.Confidence, 0.5)
	}
}

func TestAlgorithmsOnSuppliedCorpus(t *testing.T) {
	t.Parallel()

	for _, algorithm := range []Algorithm{NaiveBayes, Logistic, RandomForest} {
		t.Run(string(algorithm), func(t *testing.T) {
			t.Parallel()

			c := newClassifier(t, algorithm)
			m, err := c.Fit(smallCorpus(), "")
			require.NoError(t, err)
			assert.Equal(t, CorpusSupplied, m.CorpusKind)
			assert.Equal(t, algorithm, c.Algorithm())
			assert.Equal(t, 3, m.TestSamples)

			fire := c.Classify("incêndio com fogo na casa")
			assert.Equal(t, domain.CategoryFire, fire.PredictedType)
			flood := c.Classify("enchente no bairro")
			assert.Equal(t, domain.CategoryFlood, flood.PredictedType)
			assert.Len(t, fire.PerClassProbabilities, 3)
		})
	}
}

func TestSaveBeforeFit(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, NaiveBayes)
	err := c.Save(filepath.Join(t.TempDir(), "model.bin"))
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, algorithm := range []Algorithm{NaiveBayes, RandomForest} {
		c := newClassifier(t, algorithm)
		_, err := c.Fit(smallCorpus(), "")
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "models", "classifier.bin.zst")
		require.NoError(t, c.Save(path))

		restored := newClassifier(t, Logistic)
		require.NoError(t, restored.Load(path))
		assert.Equal(t, algorithm, restored.Algorithm())

		for _, text := range []string{"incêndio na mata", "enchente", "algo estranho", ""} {
			want := c.Classify(text)
			got := restored.Classify(text)
			assert.Equal(t, want.PredictedType, got.PredictedType, text)
			assert.InDelta(t, want.Confidence, got.Confidence, 1e-12, text)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, NaiveBayes)
	require.Error(t, c.Load(filepath.Join(t.TempDir(), "nope.bin")))
	assert.False(t, c.Fitted())
}

func TestKeywordConfidence(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	assert.Equal(t, 0.5, kw.Confidence("qualquer coisa", domain.CategoryOther))
	assert.Zero(t, kw.Confidence("nada aqui", domain.CategoryFire))

	// 2 hits out of 16 fire terms.
	assert.InDelta(t, 2*2.0/16, kw.Confidence("INCÊNDIO com Fumaça", domain.CategoryFire), 1e-12)

	many := strings.Join(kw[domain.CategoryHail], " ")
	assert.Equal(t, 1.0, kw.Confidence(many, domain.CategoryHail))
}

func TestConfidenceBoundsProperty(t *testing.T) {
	t.Parallel()

	c := newClassifier(t, NaiveBayes)
	require.NoError(t, c.EnsureFitted())

	vocab := []string{"enchente", "fogo", "granizo", "morro", "vento", "seca", "tremor",
		"acidente", "samu", "rua", "casa", "socorro", "!", "123", "@x", "água", "e"}
	rapid.Check(t, func(t *rapid.T) {
		text := strings.Join(rapid.SliceOfN(rapid.SampledFrom(vocab), 0, 15).Draw(t, "words"), " ")
		got := c.Classify(text)

		if got.Confidence < 0 || got.Confidence > 1 {
			t.Fatalf("confidence out of range: %f", got.Confidence)
		}
		var sum, peak float64
		for _, p := range got.PerClassProbabilities {
			sum += p
			peak = math.Max(peak, p)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Fatalf("probabilities sum to %f", sum)
		}
		if math.Abs(got.Confidence-(peak+got.KeywordConfidence)/2) > 1e-12 {
			t.Fatalf("confidence %f is not the fused value", got.Confidence)
		}
	})
}
