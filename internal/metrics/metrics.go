// Package metrics holds the prometheus instrumentation of the indexer.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use through a nil pointer, in which case nothing is
// recorded.
type Metrics struct {
	events          *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
	contractReverts *prometheus.CounterVec
	rateLookups     *prometheus.CounterVec
	unlinked        *prometheus.GaugeVec
	lastBlock       prometheus.Gauge
	handlerLatency  *prometheus.HistogramVec
}

// New creates the indexer metrics, reusing collectors that are already
// registered under the same names.
func New(pkg string) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_events_processed", pkg),
				Help: "How many events were applied, partitioned by module and event.",
			},
			[]string{"module", "event"},
		),
		handlerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_handler_failures", pkg),
				Help: "How many events failed to apply, partitioned by module and event.",
			},
			[]string{"module", "event"},
		),
		contractReverts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_contract_reverts", pkg),
				Help: "How many read-only contract calls reverted, partitioned by method.",
			},
			[]string{"contract", "method"},
		),
		rateLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_rate_lookups", pkg),
				Help: "How many USD valuations were attempted, partitioned by source and outcome.",
			},
			[]string{"source", "status"},
		),
		unlinked: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_unlinked_records", pkg),
				Help: "Movements and calls not attached to any relayed execution.",
			},
			[]string{"kind"},
		),
		lastBlock: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: fmt.Sprintf("%s_last_processed_block", pkg),
				Help: "Last block fully applied by the indexer.",
			},
		),
		handlerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_handler_latency_seconds", pkg),
				Help: "How long event handlers take, partitioned by module.",
			},
			[]string{"module"},
		),
	}
	m.events = registerOnce(m.events).(*prometheus.CounterVec)
	m.handlerFailures = registerOnce(m.handlerFailures).(*prometheus.CounterVec)
	m.contractReverts = registerOnce(m.contractReverts).(*prometheus.CounterVec)
	m.rateLookups = registerOnce(m.rateLookups).(*prometheus.CounterVec)
	m.unlinked = registerOnce(m.unlinked).(*prometheus.GaugeVec)
	m.lastBlock = registerOnce(m.lastBlock).(prometheus.Gauge)
	m.handlerLatency = registerOnce(m.handlerLatency).(*prometheus.HistogramVec)
	return m
}

func (m *Metrics) EventProcessed(module, event string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(module, event).Inc()
}

func (m *Metrics) HandlerFailed(module, event string) {
	if m == nil {
		return
	}
	m.handlerFailures.WithLabelValues(module, event).Inc()
}

func (m *Metrics) ContractReverted(contract, method string) {
	if m == nil {
		return
	}
	m.contractReverts.WithLabelValues(contract, method).Inc()
}

func (m *Metrics) RateLookup(source string, resolved bool) {
	if m == nil {
		return
	}
	status := "resolved"
	if !resolved {
		status = "unpriced"
	}
	m.rateLookups.WithLabelValues(source, status).Inc()
}

func (m *Metrics) SetUnlinked(kind string, n int) {
	if m == nil {
		return
	}
	m.unlinked.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) SetLastBlock(n uint64) {
	if m == nil {
		return
	}
	m.lastBlock.Set(float64(n))
}

// HandlerTimer returns a timer for one handler invocation. Call
// ObserveDuration on the result when the handler returns.
func (m *Metrics) HandlerTimer(module string) *prometheus.Timer {
	if m == nil {
		return prometheus.NewTimer(prometheus.ObserverFunc(func(float64) {}))
	}
	return prometheus.NewTimer(m.handlerLatency.WithLabelValues(module))
}

// registerOnce registers the collector, returning the existing one when an
// identical collector was registered before.
func registerOnce(collector prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(collector); err != nil {
		are := &prometheus.AlreadyRegisteredError{}
		if errors.As(err, are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return collector
}
