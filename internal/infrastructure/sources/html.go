package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DisasterTriage/internal/collector"
	"DisasterTriage/internal/domain"
)

// Default CSS selectors; each can be overridden through site options
// ("item", "title", "snippet", "link", "time").
const (
	defaultItemSelector    = "article"
	defaultTitleSelector   = "h1, h2, h3"
	defaultSnippetSelector = "p"
	defaultLinkSelector    = "a[href]"
	defaultTimeSelector    = "time[datetime]"
)

// HTMLCollector scrapes search-result style pages into raw messages.
type HTMLCollector struct {
	client *http.Client
	now    func() time.Time
}

var _ collector.Collector = (*HTMLCollector)(nil)

// NewHTMLCollector wires an HTTP client; nil gets a 20s-timeout default.
func NewHTMLCollector(client *http.Client) *HTMLCollector {
	return &HTMLCollector{client: defaultHTTPClient(client), now: time.Now}
}

// Name identifies the strategy inside the registry.
func (h *HTMLCollector) Name() string {
	return "html"
}

// Collect fetches each endpoint page and extracts one message per item node.
func (h *HTMLCollector) Collect(ctx context.Context, req collector.Request) ([]domain.RawMessage, error) {
	if len(req.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided for site %s", req.SiteName)
	}
	source, err := sourceOption(req.Options, domain.SourceSecondaryAPI)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}
	sel := selectorsFrom(req.Options)

	var out []domain.RawMessage
	seen := map[string]struct{}{}
	for _, ep := range req.Endpoints {
		doc, err := h.fetchDocument(ctx, ep.URL)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		now := h.now().UTC()
		doc.Find(sel.item).Each(func(_ int, node *goquery.Selection) {
			msg, ok := sel.message(req.SiteName, source, node, now)
			if !ok {
				return
			}
			if !req.Since.IsZero() && msg.CreatedAt.Before(req.Since) {
				return
			}
			if _, dup := seen[msg.ID]; dup {
				return
			}
			seen[msg.ID] = struct{}{}
			out = append(out, msg)
		})
	}
	return out, nil
}

func (h *HTMLCollector) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

type selectors struct {
	item, title, snippet, link, time string
}

func selectorsFrom(opts map[string]string) selectors {
	pick := func(key, def string) string {
		if v := strings.TrimSpace(opts[key]); v != "" {
			return v
		}
		return def
	}
	return selectors{
		item:    pick("item", defaultItemSelector),
		title:   pick("title", defaultTitleSelector),
		snippet: pick("snippet", defaultSnippetSelector),
		link:    pick("link", defaultLinkSelector),
		time:    pick("time", defaultTimeSelector),
	}
}

func (s selectors) message(site string, source domain.Source, node *goquery.Selection, now time.Time) (domain.RawMessage, bool) {
	title := strings.TrimSpace(node.Find(s.title).First().Text())
	snippet := strings.TrimSpace(node.Find(s.snippet).First().Text())
	text := composeText(title, snippet)
	if text == "" {
		return domain.RawMessage{}, false
	}

	key, _ := node.Find(s.link).First().Attr("href")
	if key == "" {
		key = text
	}

	created := now
	if stamp, ok := node.Find(s.time).First().Attr("datetime"); ok {
		if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(stamp)); err == nil {
			created = parsed.UTC()
		}
	}

	return domain.RawMessage{
		ID:        stableID(site, key),
		Text:      text,
		CreatedAt: created,
		Source:    source,
	}, true
}
