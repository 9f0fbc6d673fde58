package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DisasterTriage/internal/classifier"
	"DisasterTriage/internal/domain"
)

func rec(source domain.Source, level domain.UrgencyLevel, prov domain.Provenance) domain.TriageRecord {
	return domain.TriageRecord{
		Message:  domain.RawMessage{ID: "x", Source: source},
		Urgency:  domain.UrgencyResult{Level: level},
		Location: domain.ResolvedLocation{Provenance: prov},
	}
}

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Triaged(rec(domain.SourceSimulated, domain.UrgencyCritical, domain.ProvenanceGazetteer))
	r.Triaged(rec(domain.SourceSimulated, domain.UrgencyLow, domain.ProvenanceEstimated))
	r.Triaged(rec(domain.SourcePrimaryAPI, domain.UrgencyCritical, domain.ProvenanceExplicit))
	r.Failed("bad", errors.New("invalid"))
	r.Duplicate("a")
	r.Duplicate("b")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.triaged.WithLabelValues("simulated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.triaged.WithLabelValues("primary-api")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.byUrgency.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.byLocation.WithLabelValues("estimated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.duplicates))
}

func TestRecorderObserveFitAndHandler(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveFit(classifier.Metrics{Algorithm: classifier.NaiveBayes, CorpusKind: classifier.CorpusBootstrap}, 150*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(r.fitDuration))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `disaster_triage_classifier_fit_duration_seconds_count{algorithm="naive-bayes",corpus="bootstrap-corpus"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
