package classifier

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

// DefaultSeed keeps splits, folds and forests reproducible.
const DefaultSeed = 42

// Options configures a Classifier.
type Options struct {
	Algorithm Algorithm
	Seed      uint64
	Keywords  Keywords
	Logger    *slog.Logger
	// OnFit observes every successful fit, e.g. for a duration histogram.
	OnFit func(Metrics, time.Duration)
}

// Classifier owns one fitted pipeline. Classify is safe for concurrent use;
// Fit and Load take the write lock, so they never race with Classify.
type Classifier struct {
	mu        sync.RWMutex
	algorithm Algorithm
	seed      uint64
	keywords  Keywords
	logger    *slog.Logger
	onFit     func(Metrics, time.Duration)

	pipeline *Pipeline
	metrics  Metrics
}

// New validates options. The classifier is not fitted until Fit, Load or the
// first Classify call.
func New(opts Options) (*Classifier, error) {
	algorithm, err := ParseAlgorithm(string(opts.Algorithm))
	if err != nil {
		return nil, err
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Keywords == nil {
		opts.Keywords = DefaultKeywords()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		algorithm: algorithm,
		seed:      opts.Seed,
		keywords:  opts.Keywords,
		logger:    logger.With("component", "classifier"),
		onFit:     opts.OnFit,
	}, nil
}

// Fit trains on corpus (nil selects the bootstrap corpus) and replaces the
// current pipeline. An empty algorithm keeps the configured one.
func (c *Classifier) Fit(corpus *Corpus, algorithm Algorithm) (Metrics, error) {
	if algorithm == "" {
		algorithm = c.algorithm
	}
	algorithm, err := ParseAlgorithm(string(algorithm))
	if err != nil {
		return Metrics{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fitLocked(corpus, algorithm)
}

func (c *Classifier) fitLocked(corpus *Corpus, algorithm Algorithm) (Metrics, error) {
	if corpus == nil {
		corpus = Bootstrap()
	}
	if err := corpus.Validate(); err != nil {
		return Metrics{}, err
	}

	started := time.Now()
	pipeline, metrics, err := c.train(corpus, algorithm)
	if err != nil {
		return Metrics{}, err
	}
	c.pipeline = pipeline
	c.algorithm = algorithm
	c.metrics = metrics

	elapsed := time.Since(started)
	c.logger.Info("classifier fitted",
		"algorithm", algorithm,
		"corpus", corpus.Kind,
		"samples", metrics.Samples,
		"features", metrics.Features,
		"test_accuracy", metrics.TestAccuracy,
		"cv_mean", metrics.CVMean,
		"elapsed", elapsed,
	)
	if corpus.Kind == CorpusBootstrap {
		c.logger.Warn("classifier trained on synthetic bootstrap corpus; accuracy figures are not real-world")
	}
	if c.onFit != nil {
		c.onFit(metrics, elapsed)
	}
	return metrics, nil
}

func (c *Classifier) train(corpus *Corpus, algorithm Algorithm) (*Pipeline, Metrics, error) {
	docs := make([]string, len(corpus.Texts))
	for i, text := range corpus.Texts {
		docs[i] = textnorm.ForClassification(text)
	}
	classes, index := classIndex(corpus.Labels)
	y := make([]int, len(corpus.Labels))
	for i, label := range corpus.Labels {
		y[i] = index[label]
	}

	rng := rand.New(rand.NewPCG(c.seed, c.seed))
	trainIdx, testIdx := stratifiedSplit(y, len(classes), rng)
	trainDocs, trainY := pick(docs, trainIdx), pick(y, trainIdx)

	pipeline, err := fitPipeline(algorithm, c.seed, trainDocs, trainY, classes)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("fit classifier: %w", err)
	}

	testY := pick(y, testIdx)
	predicted := make([]int, len(testIdx))
	for i, j := range testIdx {
		predicted[i] = pipeline.predict(docs[j])
	}

	var scores []float64
	for k, fold := range stratifiedFolds(trainY, len(classes), cvFolds, rng) {
		if len(fold) == 0 {
			continue
		}
		inFold := make(map[int]bool, len(fold))
		for _, i := range fold {
			inFold[i] = true
		}
		var foldTrain []int
		for i := range trainY {
			if !inFold[i] {
				foldTrain = append(foldTrain, i)
			}
		}
		p, err := fitPipeline(algorithm, c.seed, pick(trainDocs, foldTrain), pick(trainY, foldTrain), classes)
		if err != nil {
			c.logger.Debug("cross-validation fold skipped", "fold", k, "error", err)
			continue
		}
		foldPred := make([]int, len(fold))
		for i, j := range fold {
			foldPred[i] = p.predict(trainDocs[j])
		}
		scores = append(scores, accuracy(pick(trainY, fold), foldPred))
	}
	mean, std := meanStd(scores)

	return pipeline, Metrics{
		Algorithm:    algorithm,
		CorpusKind:   corpus.Kind,
		Samples:      corpus.Len(),
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
		Features:     pipeline.Vectorizer.Features(),
		Classes:      classes,
		TestAccuracy: accuracy(testY, predicted),
		CVMean:       mean,
		CVStd:        std,
		CVFolds:      len(scores),
		Report:       classReport(testY, predicted, classes),
	}, nil
}

// EnsureFitted bootstrap-trains the classifier once if nothing was fitted or
// loaded yet. Later calls are no-ops.
func (c *Classifier) EnsureFitted() error {
	c.mu.RLock()
	fitted := c.pipeline != nil
	c.mu.RUnlock()
	if fitted {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline != nil {
		return nil
	}
	_, err := c.fitLocked(nil, c.algorithm)
	return err
}

// Fitted reports whether a pipeline is available.
func (c *Classifier) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipeline != nil
}

// Metrics returns the metrics of the last fit or load.
func (c *Classifier) Metrics() (Metrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics, c.pipeline != nil
}

// Algorithm returns the algorithm of the current (or next) pipeline.
func (c *Classifier) Algorithm() Algorithm {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.algorithm
}

// Classify never fails. Before any fit it bootstraps itself; text without a
// usable feature routes to "other" with uniform probabilities.
func (c *Classifier) Classify(text string) domain.ClassificationResult {
	if err := c.EnsureFitted(); err != nil {
		c.logger.Warn("classifier unavailable, returning fallback result", "error", err)
		return c.uniform(text, domain.Categories())
	}

	c.mu.RLock()
	pipeline := c.pipeline
	c.mu.RUnlock()

	probs, ok := pipeline.predictProba(textnorm.ForClassification(text))
	if !ok {
		return c.uniform(text, pipeline.Classes)
	}
	best := argmax(probs)
	return c.fuse(text, pipeline.Classes, probs, best)
}

func (c *Classifier) uniform(text string, classes []domain.Category) domain.ClassificationResult {
	probs := make([]float64, len(classes))
	for i := range probs {
		probs[i] = 1 / float64(len(classes))
	}
	return c.fuse(text, classes, probs, fallbackClass(classes))
}

// fuse averages the model probability of the winner with keyword evidence.
func (c *Classifier) fuse(text string, classes []domain.Category, probs []float64, best int) domain.ClassificationResult {
	perClass := make(map[domain.Category]float64, len(classes))
	peak := 0.0
	for i, category := range classes {
		perClass[category] = probs[i]
		peak = max(peak, probs[i])
	}
	predicted := classes[best]
	keywordConf := c.keywords.Confidence(text, predicted)
	return domain.ClassificationResult{
		PredictedType:         predicted,
		Confidence:            (peak + keywordConf) / 2,
		PerClassProbabilities: perClass,
		KeywordConfidence:     keywordConf,
	}
}
