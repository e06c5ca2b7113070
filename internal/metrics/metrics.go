// Package metrics registers the prometheus collectors exposed at
// /metrics: per-agent PDU counters and a live MO Group size gauge,
// generalized from cmd/snmpsim-api/metrics.go's package-level lab/packet
// counters into an instance type a command can wire into its own
// registry instead of prometheus's global default.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector this module registers.
type Metrics struct {
	pdus        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	groupSize   *prometheus.GaugeVec
	modifierOps *prometheus.CounterVec
}

// New builds and registers a Metrics against reg. Passing
// prometheus.DefaultRegisterer matches the teacher's package-level
// MustRegister calls; tests should pass a fresh prometheus.NewRegistry()
// to avoid colliding with other tests' registrations.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pdus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snmpsim_pdus_total",
			Help: "Total SNMP PDUs handled, by agent and PDU type.",
		}, []string{"agent", "pdu_type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snmpsim_failures_total",
			Help: "Total SNMP operation failures, by agent and error.",
		}, []string{"agent", "error"}),
		groupSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snmpsim_group_size",
			Help: "Number of OIDs registered in a live MO Group.",
		}, []string{"agent", "context"}),
		modifierOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snmpsim_modifier_invocations_total",
			Help: "Total modifier invocations, by agent and modifier class.",
		}, []string{"agent", "class"}),
	}
	reg.MustRegister(m.pdus, m.failures, m.groupSize, m.modifierOps)
	return m
}

// RecordPDU records one handled PDU of the given type for agent.
func (m *Metrics) RecordPDU(agent, pduType string) {
	m.pdus.WithLabelValues(agent, pduType).Inc()
}

// RecordFailure records one failed operation for agent, tagged with a
// short error category (e.g. "no-such-object", "commit-failed").
func (m *Metrics) RecordFailure(agent, errCategory string) {
	m.failures.WithLabelValues(agent, errCategory).Inc()
}

// SetGroupSize reports the current OID count of agent's MO Group under
// context.
func (m *Metrics) SetGroupSize(agent, context string, size int) {
	m.groupSize.WithLabelValues(agent, context).Set(float64(size))
}

// RecordModifierInvocation records one invocation of a modifier class for
// agent.
func (m *Metrics) RecordModifierInvocation(agent, class string) {
	m.modifierOps.WithLabelValues(agent, class).Inc()
}
