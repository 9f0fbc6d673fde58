package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisasterTriage/internal/config"
	"DisasterTriage/internal/logging"
	"DisasterTriage/internal/triage"
)

func loadConfig(t *testing.T, extra string) config.Config {
	t.Helper()

	dir := t.TempDir()
	body := fmt.Sprintf(`
database:
  driver: sqlite
  dsn: %s
triage:
  seed: 11
sites:
  - name: demo
    collector: simulated
    options:
      count: "6"
%s`, filepath.Join(dir, "triage.db"), extra)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestApplicationRunStoresSimulatedBatch(t *testing.T) {
	ctx := context.Background()
	cfg := loadConfig(t, "")

	application, err := New(ctx, cfg, logging.Discard(), Options{Storage: true, Delivery: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, application.Close()) }()

	report, err := application.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Collected)
	assert.Equal(t, 6, report.Saved)
	assert.Empty(t, report.Merge.Failures)

	stored, err := application.Repository().List(ctx, triage.Filter{})
	require.NoError(t, err)
	assert.Len(t, stored, 6)
	assert.True(t, application.Pipeline().Classifier().Fitted())
}

func TestBuildPipelineLoadsSavedModel(t *testing.T) {
	model := filepath.Join(t.TempDir(), "model.zst")
	cfg := loadConfig(t, "")
	cfg.Triage.ModelPath = model

	first, err := BuildPipeline(cfg, logging.Discard(), nil)
	require.NoError(t, err)
	require.False(t, first.Classifier().Fitted())
	_, err = first.Classifier().Fit(nil, "")
	require.NoError(t, err)
	require.NoError(t, first.Classifier().Save(model))

	second, err := BuildPipeline(cfg, logging.Discard(), nil)
	require.NoError(t, err)
	assert.True(t, second.Classifier().Fitted())
}

func TestBuildPipelineRejectsUnknownSettings(t *testing.T) {
	cfg := loadConfig(t, "")

	bad := cfg
	bad.Triage.SentimentMethod = "lexicon-z"
	_, err := BuildPipeline(bad, logging.Discard(), nil)
	require.Error(t, err)

	bad = cfg
	bad.Geo.GazetteerPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = BuildPipeline(bad, logging.Discard(), nil)
	require.Error(t, err)
}
