package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"DisasterTriage/internal/collector"
	"DisasterTriage/internal/domain"
)

// FeedCollector reads RSS/Atom news feeds.
type FeedCollector struct {
	client *http.Client
	now    func() time.Time
}

var _ collector.Collector = (*FeedCollector)(nil)

// NewFeedCollector wires an HTTP client; nil gets a 20s-timeout default.
func NewFeedCollector(client *http.Client) *FeedCollector {
	return &FeedCollector{client: defaultHTTPClient(client), now: time.Now}
}

// Name identifies the strategy inside the registry.
func (f *FeedCollector) Name() string {
	return "feed"
}

// Collect parses every endpoint feed and keeps entries published at or after
// req.Since. Entries without a date are stamped with the collection time.
func (f *FeedCollector) Collect(ctx context.Context, req collector.Request) ([]domain.RawMessage, error) {
	if len(req.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints provided for site %s", req.SiteName)
	}
	source, err := sourceOption(req.Options, domain.SourcePrimaryAPI)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", req.SiteName, err)
	}

	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = userAgent

	var out []domain.RawMessage
	for _, ep := range req.Endpoints {
		feed, err := parser.ParseURLWithContext(ep.URL, ctx)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		now := f.now().UTC()
		for _, item := range feed.Items {
			msg, ok := feedMessage(req.SiteName, source, item, now)
			if !ok {
				continue
			}
			if !req.Since.IsZero() && msg.CreatedAt.Before(req.Since) {
				continue
			}
			out = append(out, msg)
		}
	}
	return out, nil
}

func feedMessage(site string, source domain.Source, item *gofeed.Item, now time.Time) (domain.RawMessage, bool) {
	text := composeText(item.Title, item.Description)
	if text == "" {
		text = composeText(item.Title, item.Content)
	}
	if text == "" {
		return domain.RawMessage{}, false
	}

	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = text
	}

	created := now
	if item.PublishedParsed != nil {
		created = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		created = item.UpdatedParsed.UTC()
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	}

	return domain.RawMessage{
		ID:        stableID(site, key),
		Text:      text,
		CreatedAt: created,
		Source:    source,
		Author:    author,
	}, true
}
