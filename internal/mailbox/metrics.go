package mailbox

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the counters exposed by the mailbox server's /metrics
// endpoint.
type Metrics struct {
	NameplatesAllocated prometheus.Counter
	MailboxesOpen       prometheus.Counter
	MailboxesClosed     prometheus.Counter
	MessagesRelayed     prometheus.Counter
	ClientsConnected    prometheus.Counter
	Errors              prometheus.Counter
}

// NewMetrics registers the mailbox server's counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NameplatesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_mailbox_nameplates_allocated_total",
			Help: "Number of nameplates allocated.",
		}),
		MailboxesOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_mailbox_opened_total",
			Help: "Number of times a mailbox was opened by a side.",
		}),
		MailboxesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_mailbox_closed_total",
			Help: "Number of mailboxes closed (both sides left or expired).",
		}),
		MessagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_mailbox_messages_relayed_total",
			Help: "Number of phase messages appended and broadcast.",
		}),
		ClientsConnected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_mailbox_clients_connected_total",
			Help: "Number of WebSocket clients that have connected.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "securebeam_mailbox_errors_total",
			Help: "Number of protocol error replies sent to clients.",
		}),
	}
	reg.MustRegister(
		m.NameplatesAllocated, m.MailboxesOpen, m.MailboxesClosed,
		m.MessagesRelayed, m.ClientsConnected, m.Errors,
	)
	return m
}
