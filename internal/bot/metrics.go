package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CommandsProcessed    prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UsersRegistered      prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
}

// NewMetrics registers the collectors with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_processed_total",
			Help: "Messages received from users",
		}),
		CommandsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_commands_processed_total",
			Help: "Bot commands received from users",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Updates that ended in an error or panic",
		}),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_users_registered_total",
			Help: "Users created by the onboarding flow",
		}),
		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
