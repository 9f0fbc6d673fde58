package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"DisasterTriage/internal/collector"
	"DisasterTriage/internal/domain"
)

// JSONLCollector replays pre-collected batches, one RawMessage per line.
type JSONLCollector struct{}

var _ collector.Collector = (*JSONLCollector)(nil)

// NewJSONLCollector returns the file-backed strategy.
func NewJSONLCollector() *JSONLCollector {
	return &JSONLCollector{}
}

// Name identifies the strategy inside the registry.
func (JSONLCollector) Name() string {
	return "jsonl"
}

// Collect reads every endpoint URL as a local path (optionally file://).
func (JSONLCollector) Collect(ctx context.Context, req collector.Request) ([]domain.RawMessage, error) {
	if len(req.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided for site %s", req.SiteName)
	}
	var out []domain.RawMessage
	for _, ep := range req.Endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgs, err := ReadJSONLFile(strings.TrimPrefix(ep.URL, "file://"))
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		for _, msg := range msgs {
			if !req.Since.IsZero() && !msg.CreatedAt.IsZero() && msg.CreatedAt.Before(req.Since) {
				continue
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

// ReadJSONLFile decodes a JSON Lines file of raw messages.
func ReadJSONLFile(path string) ([]domain.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f)
}

// ReadJSONL decodes raw messages, one JSON object per line. Blank lines are
// ignored; a malformed line fails the whole batch with its line number.
// Messages are not validated here; the triage merge reports bad ones.
func ReadJSONL(r io.Reader) ([]domain.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []domain.RawMessage
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var msg domain.RawMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return out, nil
}
