// Package metrics exposes workbench activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/JonMunkholm/checkbench/internal/approval"
	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkbench"

// Metrics implements core.Observer and approval.Observer.
type Metrics struct {
	// Imported rows kept and dropped by the parser
	ParsedRows  prometheus.Counter
	DroppedRows prometheus.Counter

	// Match outcomes by type: exact, partial, none
	MatchOutcomes *prometheus.CounterVec

	// Ledger merges
	EntriesAdded      prometheus.Counter
	DuplicatesDropped prometheus.Counter

	SubmittedEntries prometheus.Counter

	// Approval decisions by status
	Decisions *prometheus.CounterVec

	ActiveSessions prometheus.Gauge

	gatherer prometheus.Gatherer
}

var (
	_ core.Observer     = (*Metrics)(nil)
	_ approval.Observer = (*Metrics)(nil)
)

// New registers all collectors with reg. Passing a fresh
// prometheus.NewRegistry keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ParsedRows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_parsed_total",
			Help:      "Data rows kept by the tabular parser",
		}),
		DroppedRows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_dropped_total",
			Help:      "Data rows dropped for having no name",
		}),
		MatchOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_outcomes_total",
			Help:      "Scored rows by match type",
		}, []string{"type"}),
		EntriesAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_added_total",
			Help:      "Check entries merged into a ledger",
		}),
		DuplicatesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_duplicates_dropped_total",
			Help:      "Incoming entries dropped as duplicates",
		}),
		SubmittedEntries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_submitted_total",
			Help:      "Check entries handed to the approval queue",
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "application_decisions_total",
			Help:      "Approval decisions by resulting status",
		}, []string{"status"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open workbench sessions",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) RowsParsed(rows, dropped int) {
	if m == nil {
		return
	}
	m.ParsedRows.Add(float64(rows))
	m.DroppedRows.Add(float64(dropped))
}

func (m *Metrics) RowsMatched(s core.MatchSummary) {
	if m == nil {
		return
	}
	m.MatchOutcomes.WithLabelValues(string(core.MatchExact)).Add(float64(s.Exact))
	m.MatchOutcomes.WithLabelValues(string(core.MatchPartial)).Add(float64(s.Partial))
	m.MatchOutcomes.WithLabelValues(string(core.MatchNone)).Add(float64(s.None))
}

func (m *Metrics) EntriesMerged(res core.MergeResult) {
	if m == nil {
		return
	}
	m.EntriesAdded.Add(float64(res.Added))
	m.DuplicatesDropped.Add(float64(res.Duplicates))
}

func (m *Metrics) EntriesSubmitted(n int) {
	if m != nil {
		m.SubmittedEntries.Add(float64(n))
	}
}

func (m *Metrics) SessionsActive(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

func (m *Metrics) ApplicationDecided(status approval.Status) {
	if m != nil {
		m.Decisions.WithLabelValues(string(status)).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
