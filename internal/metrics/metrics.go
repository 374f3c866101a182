package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the real-time chat layer, exposed on /metrics.
var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_connections",
		Help: "Number of open websocket connections, joined or not.",
	})

	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Number of user identities with at least one joined connection.",
	})

	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_persisted_total",
		Help: "Messages written to the store, from both the websocket and HTTP paths.",
	})

	MessagesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_delivered_total",
		Help: "receive_message events pushed to online rooms.",
	})

	TypingRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_typing_events_relayed_total",
		Help: "Typing indicators relayed to online receivers.",
	})

	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_message_persist_failures_total",
		Help: "Message sends dropped because the store rejected the write.",
	})
)
