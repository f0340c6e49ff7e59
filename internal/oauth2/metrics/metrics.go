// Package metrics registers the Prometheus metrics for the OAuth2
// authentication pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	Authentications      *prometheus.CounterVec
	ConsumersProvisioned prometheus.Counter
	RoleSyncOps          *prometheus.CounterVec
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on reg; tests pass a private registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Authentications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_authentications_total",
			Help: "Authentication attempts by provider and outcome code.",
		}, []string{"provider", "outcome"}),
		ConsumersProvisioned: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_consumers_provisioned_total",
			Help: "Consumers created through token-driven provisioning.",
		}),
		RoleSyncOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_role_sync_operations_total",
			Help: "Role synchronization scope operations by kind (add/remove).",
		}, []string{"operation"}),
	}
}

// ObserveAuthentication records one authentication attempt outcome.
// Nil-safe so codepaths without metrics wiring stay quiet.
func (m *Metrics) ObserveAuthentication(provider, outcome string) {
	if m == nil {
		return
	}
	m.Authentications.WithLabelValues(provider, outcome).Inc()
}

// IncConsumersProvisioned counts a newly created consumer.
func (m *Metrics) IncConsumersProvisioned() {
	if m == nil {
		return
	}
	m.ConsumersProvisioned.Inc()
}

// IncRoleSyncOp counts one add or remove during role reconciliation.
func (m *Metrics) IncRoleSyncOp(operation string) {
	if m == nil {
		return
	}
	m.RoleSyncOps.WithLabelValues(operation).Inc()
}
