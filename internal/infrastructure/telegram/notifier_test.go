package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"DisasterTriage/internal/domain"
)

type fakeBotServer struct {
	mu   sync.Mutex
	sent []map[string]string
}

func (f *fakeBotServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"triage","username":"triage_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, map[string]string{
			"chat_id": r.Form.Get("chat_id"),
			"text":    r.Form.Get("text"),
		})
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func sampleRecord() domain.TriageRecord {
	return domain.TriageRecord{
		Message: domain.RawMessage{ID: "m-1", Text: "Socorro! Idosa ilhada no telhado", Source: domain.SourceSimulated},
		Urgency: domain.UrgencyResult{Level: domain.UrgencyCritical, Score: 9, MatchedKeywords: []string{"socorro"}},
		Classification: domain.ClassificationResult{
			PredictedType: domain.CategoryFlood,
			Confidence:    0.82,
		},
		Entities: domain.ExtractedEntities{
			Phones:             []domain.Phone{{Raw: "(11) 98765-4321", Normalized: "11987654321", Type: domain.PhoneMobile}},
			CriticalSituations: []domain.CriticalSituation{{Phrase: "ilhada", Category: domain.SituationCriticalState}},
		},
		Location: domain.ResolvedLocation{Latitude: -23.5505, Longitude: -46.6333, Provenance: domain.ProvenanceGazetteer},
	}
}

func TestNotifierAlert(t *testing.T) {
	t.Parallel()

	fake := &fakeBotServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n, err := newNotifier("token", "42", srv.URL+"/bot%s/%s", srv.Client(), 100)
	if err != nil {
		t.Fatalf("newNotifier returned error: %v", err)
	}
	if err := n.Alert(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Alert returned error: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.sent))
	}
	if fake.sent[0]["chat_id"] != "42" {
		t.Fatalf("unexpected chat id %q", fake.sent[0]["chat_id"])
	}
	if !strings.Contains(fake.sent[0]["text"], "[CRITICAL] urgency 9/10") {
		t.Fatalf("unexpected text %q", fake.sent[0]["text"])
	}
}

func TestNotifierRejectsBadConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewNotifier("", "42", 1); err == nil {
		t.Fatal("expected error without token")
	}
	if _, err := newNotifier("token", "not-a-chat", "http://127.0.0.1:1/bot%s/%s", http.DefaultClient, 1); err == nil {
		t.Fatal("expected error for malformed chat id")
	}
}

func TestNotifierHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(&fakeBotServer{})
	defer srv.Close()

	n, err := newNotifier("token", "@alertas", srv.URL+"/bot%s/%s", srv.Client(), 0.001)
	if err != nil {
		t.Fatalf("newNotifier returned error: %v", err)
	}
	if err := n.Alert(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("first alert should pass the burst: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Alert(ctx, sampleRecord()); err == nil {
		t.Fatal("expected rate limiter to fail on cancelled context")
	}
}

func TestFormatAlert(t *testing.T) {
	t.Parallel()

	text := FormatAlert(sampleRecord())
	for _, want := range []string{
		"flood (82%)",
		"-23.5505, -46.6333 (gazetteer-match)",
		"Phones: (11) 98765-4321",
		"Situations: ilhada",
		"Keywords: socorro",
		"Socorro! Idosa ilhada no telhado",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("alert %q does not contain %q", text, want)
		}
	}
}
