package classifier

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const artifactVersion = 1

type artifact struct {
	Version  int
	Pipeline *Pipeline
	Metrics  Metrics
}

// Save writes the fitted pipeline as a zstd-compressed gob artifact.
func (c *Classifier) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pipeline == nil {
		return ErrNotFitted
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer os.Remove(tmp)

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(artifact{
		Version:  artifactVersion,
		Pipeline: c.pipeline,
		Metrics:  c.metrics,
	}); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("flush model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("store model file: %w", err)
	}
	return nil
}

// Load replaces the current pipeline with the artifact at path.
func (c *Classifier) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var a artifact
	if err := gob.NewDecoder(dec).Decode(&a); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	if a.Version != artifactVersion {
		return fmt.Errorf("model artifact version %d, want %d", a.Version, artifactVersion)
	}
	if a.Pipeline == nil || a.Pipeline.Vectorizer == nil || len(a.Pipeline.Classes) == 0 {
		return fmt.Errorf("model artifact %s is incomplete", path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline = a.Pipeline
	c.algorithm = a.Pipeline.Algorithm
	c.metrics = a.Metrics
	c.logger.Info("classifier loaded", "path", path, "algorithm", a.Pipeline.Algorithm, "corpus", a.Metrics.CorpusKind)
	return nil
}
