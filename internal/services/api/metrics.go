package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricsNamespace  = "pagegen"
	outcomeSuccess    = "success"
	outcomeFailure    = "failure"
	labelCommand      = "command"
	labelStatus       = "status"
	labelOutcome      = "outcome"
	labelStrategy     = "strategy"
	labelExtracted    = "extracted"
	commandMetricName = "command_requests_total"
	fetchMetricName   = "page_fetches_total"
	extractMetricName = "extractions_total"
	commandMetricHelp = "Command requests served by the HTTP API, by command and status code."
	fetchMetricHelp   = "Page fetch attempts against the content API, by outcome."
	extractMetricHelp = "Completion extractions, by strategy."
)

// Metrics holds the Prometheus collectors of one server instance.
type Metrics struct {
	registry    *prometheus.Registry
	commands    *prometheus.CounterVec
	pageFetches *prometheus.CounterVec
	extractions *prometheus.CounterVec
}

// NewMetrics creates collectors registered on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	metrics := &Metrics{
		registry: registry,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      commandMetricName,
			Help:      commandMetricHelp,
		}, []string{labelCommand, labelStatus}),
		pageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      fetchMetricName,
			Help:      fetchMetricHelp,
		}, []string{labelOutcome}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      extractMetricName,
			Help:      extractMetricHelp,
		}, []string{labelStrategy, labelExtracted}),
	}
	registry.MustRegister(
		metrics.commands,
		metrics.pageFetches,
		metrics.extractions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics
}

// Gatherer exposes the registry for the metrics handler.
func (metrics *Metrics) Gatherer() prometheus.Gatherer {
	return metrics.registry
}

// ObserveCommand counts one served command request.
func (metrics *Metrics) ObserveCommand(command string, statusCode int) {
	metrics.commands.WithLabelValues(command, strconv.Itoa(statusCode)).Inc()
}

// ObservePageFetch counts one page fetch attempt.
func (metrics *Metrics) ObservePageFetch(pageID string, fetchErr error) {
	outcome := outcomeSuccess
	if fetchErr != nil {
		outcome = outcomeFailure
	}
	metrics.pageFetches.WithLabelValues(outcome).Inc()
}

// ObserveExtraction counts one completion extraction.
func (metrics *Metrics) ObserveExtraction(strategy string, extracted bool) {
	metrics.extractions.WithLabelValues(strategy, strconv.FormatBool(extracted)).Inc()
}
