package sources

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

const userAgent = "DisasterTriage/1.0"

func defaultHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 20 * time.Second}
	}
	return client
}

// sourceOption reads the "source" option, falling back to def.
func sourceOption(opts map[string]string, def domain.Source) (domain.Source, error) {
	value, ok := opts["source"]
	if !ok || value == "" {
		return def, nil
	}
	src, err := domain.ParseSource(value)
	if err != nil {
		return "", fmt.Errorf("option source: %w", err)
	}
	return src, nil
}

// stableID derives a deterministic message id so that re-collecting the same
// item yields the same id and the merge skips it.
func stableID(site, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(site+"|"+key)).String()
}

// composeText joins a headline and its snippet the way search results are
// turned into report text.
func composeText(title, snippet string) string {
	title = textnorm.StripHTML(title)
	snippet = textnorm.StripHTML(snippet)
	switch {
	case title == "":
		return snippet
	case snippet == "":
		return title
	default:
		return strings.TrimRight(title, ".") + ". " + snippet
	}
}
