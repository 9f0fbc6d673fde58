package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"DisasterTriage/internal/classifier"
	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/triage"
	"DisasterTriage/internal/usecase"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(22)

	valueStyle = lipgloss.NewStyle().Bold(true)

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	levelStyles = map[domain.UrgencyLevel]lipgloss.Style{
		domain.UrgencyCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		domain.UrgencyHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		domain.UrgencyMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		domain.UrgencyLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
	}
)

type row struct {
	label string
	value string
}

func renderTable(title string, rows []row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, titleStyle.Render(title))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r.label), valueStyle.Render(r.value)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMerge(report triage.MergeReport) string {
	rows := []row{
		{"Received", fmt.Sprint(report.Received)},
		{"Added", fmt.Sprint(report.Added)},
		{"Duplicates", fmt.Sprint(len(report.Duplicates))},
		{"Failures", fmt.Sprint(len(report.Failures))},
	}
	out := renderTable("Merge", rows)
	for _, f := range report.Failures {
		out += "\n" + warnStyle.Render(fmt.Sprintf("  %s: %s", f.MessageID, f.Error))
	}
	return out
}

func renderIngest(report usecase.IngestReport) string {
	return renderTable("Ingest", []row{
		{"Collected", fmt.Sprint(report.Collected)},
		{"Already stored", fmt.Sprint(report.AlreadyStored)},
		{"Triaged", fmt.Sprint(report.Merge.Added)},
		{"Failures", fmt.Sprint(len(report.Merge.Failures))},
		{"Saved", fmt.Sprint(report.Saved)},
		{"Alerted", fmt.Sprintf("%d (%d failed)", report.Alerted, report.AlertFailures)},
		{"Published", fmt.Sprintf("%d (%d failed)", report.Published, report.PublishFailures)},
	})
}

func renderSummary(s triage.Summary) string {
	rows := []row{
		{"Records", fmt.Sprint(s.Total)},
		{"Critical", fmt.Sprint(s.Critical)},
		{"Mean urgency", fmt.Sprintf("%.2f", s.MeanUrgency)},
		{"Mean sentiment", fmt.Sprintf("%.3f", s.MeanSentiment)},
		{"Mean confidence", fmt.Sprintf("%.2f", s.MeanConfidence)},
	}
	for _, level := range []domain.UrgencyLevel{domain.UrgencyCritical, domain.UrgencyHigh, domain.UrgencyMedium, domain.UrgencyLow} {
		rows = append(rows, row{"  " + levelStyles[level].Render(string(level)), fmt.Sprint(s.ByUrgency[level])})
	}
	categories := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		rows = append(rows, row{"  " + c, fmt.Sprint(s.ByCategory[domain.Category(c)])})
	}
	if len(s.TopKeywords) > 0 {
		terms := make([]string, 0, len(s.TopKeywords))
		for _, k := range s.TopKeywords {
			terms = append(terms, fmt.Sprintf("%s(%d)", k.Term, k.Count))
		}
		rows = append(rows, row{"Top keywords", strings.Join(terms, " ")})
	}
	return renderTable("Summary", rows)
}

func renderMetrics(m classifier.Metrics) string {
	rows := []row{
		{"Algorithm", string(m.Algorithm)},
		{"Corpus", string(m.CorpusKind)},
		{"Samples", fmt.Sprintf("%d (train %d, test %d)", m.Samples, m.TrainSamples, m.TestSamples)},
		{"Features", fmt.Sprint(m.Features)},
		{"Test accuracy", fmt.Sprintf("%.3f", m.TestAccuracy)},
		{"Cross-validation", fmt.Sprintf("%.3f ± %.3f (%d folds)", m.CVMean, m.CVStd, m.CVFolds)},
	}
	for _, c := range m.Classes {
		r, ok := m.Report[c]
		if !ok {
			continue
		}
		rows = append(rows, row{"  " + string(c), fmt.Sprintf("p=%.2f r=%.2f f1=%.2f n=%d", r.Precision, r.Recall, r.F1, r.Support)})
	}
	return renderTable("Classifier", rows)
}
