// Package metrics exposes Prometheus instrumentation for chatinsight.
package metrics

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/chatinsight/internal/query"
)

const namespace = "chatinsight"

// Metrics holds every collector of the service. It implements query.Observer.
type Metrics struct {
	registry *prometheus.Registry

	QuestionsTotal   *prometheus.CounterVec
	CompletionsTotal *prometheus.CounterVec
	ImportsTotal     *prometheus.CounterVec
	ImportedMessages prometheus.Counter
	RecordedMessages prometheus.Counter
}

var _ query.Observer = (*Metrics)(nil)

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QuestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_total",
				Help:      "Questions answered, by intent, answer source and error kind",
			},
			[]string{"intent", "source", "error_kind"},
		),
		CompletionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Completion attempts by outcome",
			},
			[]string{"status"},
		),
		ImportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Transcript imports by transport and outcome",
			},
			[]string{"transport", "status"},
		),
		ImportedMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_messages_total",
			Help:      "Messages stored by transcript imports",
		}),
		RecordedMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorded_messages_total",
			Help:      "Live chat messages recorded",
		}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDB adds connection pool statistics for db.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	if err := m.registry.Register(collectors.NewDBStatsCollector(db, name)); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveQuestion(intent query.Intent, source query.Source, err error) {
	in := string(intent)
	if in == "" {
		in = "unclassified"
	}
	src := string(source)
	if src == "" {
		src = "none"
	}
	m.QuestionsTotal.WithLabelValues(in, src, ErrorKind(err)).Inc()
}

func (m *Metrics) ObserveCompletion(status query.CompletionStatus) {
	m.CompletionsTotal.WithLabelValues(status.String()).Inc()
}

// ObserveImport counts one import attempt and, on success, its messages.
func (m *Metrics) ObserveImport(transport string, messages int, err error) {
	if err != nil {
		m.ImportsTotal.WithLabelValues(transport, "error").Inc()
		return
	}
	m.ImportsTotal.WithLabelValues(transport, "ok").Inc()
	m.ImportedMessages.Add(float64(messages))
}

func (m *Metrics) ObserveRecorded() {
	m.RecordedMessages.Inc()
}

// ErrorKind maps an engine error to a short label value.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, query.ErrInput):
		return "input"
	case errors.Is(err, query.ErrResolution):
		return "resolution"
	case errors.Is(err, query.ErrEmptyResult):
		return "empty_result"
	default:
		return "internal"
	}
}
