package triage

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"DisasterTriage/internal/domain"
)

// Failure is one message that could not be triaged.
type Failure struct {
	MessageID string `json:"message_id"`
	Err       error  `json:"-"`
	Error     string `json:"error"`
}

// MergeReport describes what a merge did with the incoming batch.
type MergeReport struct {
	Received   int       `json:"received"`
	Added      int       `json:"added"`
	Duplicates []string  `json:"duplicates"`
	Failures   []Failure `json:"failures"`
}

// MergeOption tunes a single merge call.
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	progress func(done, total int)
}

// WithProgress is called after each message finishes triage, successful or
// not. With concurrent workers it may be called from several goroutines.
// total grows when a failed message is retried through a later copy of its id.
func WithProgress(fn func(done, total int)) MergeOption {
	return func(c *mergeConfig) { c.progress = fn }
}

// Merge triages the genuinely new messages of incoming and appends them to
// existing. Ids are compared case-sensitively against existing and within the
// batch: the first occurrence that triages successfully wins, so a message
// that fails does not shadow a later one with the same id. Existing records
// are never re-triaged. A message that fails is logged, reported and skipped.
func (p *Pipeline) Merge(ctx context.Context, existing []domain.TriageRecord, incoming []domain.RawMessage, opts ...MergeOption) ([]domain.TriageRecord, MergeReport) {
	var cfg mergeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	report := MergeReport{
		Received:   len(incoming),
		Duplicates: make([]string, 0),
		Failures:   make([]Failure, 0),
	}
	stored := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		stored[rec.ID()] = struct{}{}
	}

	// Valid messages grouped by id, in order of first appearance.
	pending := make(map[string][]candidate)
	var order []string
	var duplicates []candidate
	for i, msg := range incoming {
		if err := msg.Validate(); err != nil {
			report.Failures = append(report.Failures, p.fail(msg.ID, err))
			continue
		}
		if _, dup := stored[msg.ID]; dup {
			duplicates = append(duplicates, candidate{index: i, msg: msg})
			continue
		}
		if _, ok := pending[msg.ID]; !ok {
			order = append(order, msg.ID)
		}
		pending[msg.ID] = append(pending[msg.ID], candidate{index: i, msg: msg})
	}

	round := make([]candidate, 0, len(order))
	for _, id := range order {
		round = append(round, pending[id][0])
		pending[id] = pending[id][1:]
	}

	var added []candidate
	planned, finished := len(round), 0
	for len(round) > 0 {
		var progress func(int, int)
		if cfg.progress != nil {
			offset, total := finished, planned
			progress = func(done, _ int) { cfg.progress(offset+done, total) }
		}
		results, errs := p.triageAll(ctx, messagesOf(round), progress)
		finished += len(round)

		var retry []candidate
		for i, c := range round {
			id := c.msg.ID
			if errs[i] != nil {
				report.Failures = append(report.Failures, p.fail(id, errs[i]))
				if rest := pending[id]; len(rest) > 0 {
					retry = append(retry, rest[0])
					pending[id] = rest[1:]
				}
				continue
			}
			c.rec = results[i]
			added = append(added, c)
			duplicates = append(duplicates, pending[id]...)
			delete(pending, id)
		}
		planned += len(retry)
		round = retry
	}

	sort.Slice(added, func(i, j int) bool { return added[i].index < added[j].index })
	sort.Slice(duplicates, func(i, j int) bool { return duplicates[i].index < duplicates[j].index })

	merged := make([]domain.TriageRecord, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	for _, c := range added {
		merged = append(merged, c.rec)
		p.observer.Triaged(c.rec)
	}
	for _, c := range duplicates {
		report.Duplicates = append(report.Duplicates, c.msg.ID)
		p.observer.Duplicate(c.msg.ID)
	}
	report.Added = len(added)

	p.logger.Info("batch merged",
		"received", report.Received,
		"added", report.Added,
		"duplicates", len(report.Duplicates),
		"failed", len(report.Failures),
	)
	return merged, report
}

// candidate is an incoming message with its batch position.
type candidate struct {
	index int
	msg   domain.RawMessage
	rec   domain.TriageRecord
}

func messagesOf(cs []candidate) []domain.RawMessage {
	out := make([]domain.RawMessage, len(cs))
	for i, c := range cs {
		out[i] = c.msg
	}
	return out
}

func (p *Pipeline) fail(id string, err error) Failure {
	p.logger.Warn("message skipped", "message_id", id, "error", err)
	p.observer.Failed(id, err)
	return Failure{MessageID: id, Err: err, Error: err.Error()}
}

// triageAll keeps results index-aligned with msgs. Once ctx is done the
// remaining messages fail with ctx.Err().
func (p *Pipeline) triageAll(ctx context.Context, msgs []domain.RawMessage, progress func(int, int)) ([]domain.TriageRecord, []error) {
	results := make([]domain.TriageRecord, len(msgs))
	errs := make([]error, len(msgs))
	total := len(msgs)
	var done atomic.Int64
	var progressMu sync.Mutex

	one := func(i int) {
		if err := ctx.Err(); err != nil {
			errs[i] = err
		} else {
			results[i], errs[i] = p.Triage(ctx, msgs[i])
		}
		n := int(done.Add(1))
		if progress != nil {
			progressMu.Lock()
			progress(n, total)
			progressMu.Unlock()
		}
	}

	if p.workers <= 1 || total < 2 {
		for i := range msgs {
			one(i)
		}
		return results, errs
	}

	// Fit once up front so workers do not queue behind the lazy bootstrap.
	if err := p.classifier.EnsureFitted(); err != nil {
		p.logger.Warn("classifier bootstrap failed", "error", err)
	}
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range msgs {
		g.Go(func() error {
			one(i)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}
