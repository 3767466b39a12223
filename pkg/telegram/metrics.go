package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telegram bot metrics
var (
	commandsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_processed_total",
			Help: "Total number of processed commands by name",
		},
		[]string{"command"}, // start, help, addincome, ..., unknown
	)

	messagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_messages_processed_total",
			Help: "Total number of processed inbound messages by type",
		},
		[]string{"type"}, // text, empty
	)

	repliesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_replies_sent_total",
			Help: "Total number of replies delivered to chats",
		},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // handler_panic, send_reply
	)

	handlerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telegram_handler_duration_seconds",
			Help:    "Duration of the synchronous command handling path in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)
