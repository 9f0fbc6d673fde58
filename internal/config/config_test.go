package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Triage.Algorithm != "naive-bayes" || cfg.Triage.SentimentMethod != "lexicon-a" {
		t.Fatalf("unexpected triage defaults: %+v", cfg.Triage)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Collector != "simulated" {
		t.Fatalf("unexpected default sites: %+v", cfg.Sites)
	}
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("unexpected location %s", cfg.Scheduler.Location())
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
triage:
  algorithm: random_forest
  workers: 4
ner:
  endpoint: http://ner.local
  timeout: 2s
scheduler:
  timezone: America/Sao_Paulo
sites:
  - name: g1
    collector: feed
    sources:
      - name: brasil
        url: https://g1.globo.com/rss/g1/brasil/
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://triage@db/triage")
	t.Setenv(natsURLEnv, "nats://bus:4222")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Triage.Algorithm != "random_forest" || cfg.Triage.Workers != 4 {
		t.Fatalf("file values not merged: %+v", cfg.Triage)
	}
	if cfg.Triage.SentimentMethod != "lexicon-a" {
		t.Fatalf("default lost during merge: %q", cfg.Triage.SentimentMethod)
	}
	if cfg.NER.Timeout != 2*time.Second || len(cfg.NER.Models) != 3 {
		t.Fatalf("unexpected ner config: %+v", cfg.NER)
	}
	if cfg.Database.DSN != "postgres://triage@db/triage" || cfg.NATS.URL != "nats://bus:4222" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Database, cfg.NATS)
	}
	if cfg.Scheduler.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("timezone not bound: %s", cfg.Scheduler.Location())
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Sources[0].Name != "brasil" {
		t.Fatalf("sites not replaced: %+v", cfg.Sites)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
triage:
  algorithm: svm
database:
  driver: mysql
`)
	t.Setenv(configPathEnv, "")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"triage.algorithm", "database.driver"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(configPathEnv, "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadUnknownTimezone(t *testing.T) {
	path := writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n")
	t.Setenv(configPathEnv, "")
	if _, err := Load(path); err == nil {
		t.Fatal("expected timezone error")
	}
}
