package collector

import (
	"context"
	"testing"

	"DisasterTriage/internal/domain"
)

type stubCollector struct{ name string }

func (s stubCollector) Name() string { return s.name }

func (s stubCollector) Collect(context.Context, Request) ([]domain.RawMessage, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubCollector{name: "feed"}, stubCollector{name: "html"})
	if _, err := reg.Resolve("feed"); err != nil {
		t.Fatalf("Resolve(feed) returned error: %v", err)
	}
	if _, err := reg.Resolve("twitter"); err == nil {
		t.Fatal("expected error for unknown collector")
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "feed" || names[1] != "html" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistryZeroValueRegister(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubCollector{name: "jsonl"})
	if _, err := reg.Resolve("jsonl"); err != nil {
		t.Fatalf("zero registry should accept registrations: %v", err)
	}
}
