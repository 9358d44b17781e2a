// Package metrics holds the Prometheus collectors shared by the tool server,
// the auto-linker and the cluster engine. Collectors register on the default
// registry, which /metrics serves in http mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mind"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// ToolCalls counts tool invocations.
	// Labels: tool, outcome (ok, error)
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Total tool calls by tool and outcome",
	}, []string{"tool", "outcome"})

	// ProtocolRequests counts line-protocol requests by method, notifications included.
	ProtocolRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "protocol_requests_total",
		Help:      "Total line-protocol requests by method",
	}, []string{"method"})

	// AutoLinks counts connections created by keyword overlap.
	AutoLinks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auto_links_total",
		Help:      "Total connections created by the auto-linker",
	})

	// ClusterRecomputes counts cluster rebuilds.
	// Labels: outcome (ok, error)
	ClusterRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cluster_recomputes_total",
		Help:      "Total cluster recomputations by outcome",
	}, []string{"outcome"})
)

// Outcome maps an error to its outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
