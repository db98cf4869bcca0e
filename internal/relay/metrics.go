package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the counters exposed by the transit relay's /metrics
// endpoint.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	Pairings            prometheus.Counter
	BytesSpliced        prometheus.Counter
	HandshakeErrors     prometheus.Counter
	PendingTimeouts     prometheus.Counter
}

// NewMetrics registers the relay's counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_relay_connections_accepted_total",
			Help: "Number of TCP connections accepted.",
		}),
		Pairings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_relay_pairings_total",
			Help: "Number of channel ids successfully paired and spliced.",
		}),
		BytesSpliced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_relay_bytes_spliced_total",
			Help: "Total bytes copied between paired connections.",
		}),
		HandshakeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_relay_handshake_errors_total",
			Help: "Number of connections rejected for a malformed handshake line.",
		}),
		PendingTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_relay_pending_timeouts_total",
			Help: "Number of pending connections evicted without finding a partner.",
		}),
	}
	reg.MustRegister(m.ConnectionsAccepted, m.Pairings, m.BytesSpliced, m.HandshakeErrors, m.PendingTimeouts)
	return m
}
