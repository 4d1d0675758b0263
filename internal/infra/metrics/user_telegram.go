package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		telegramUpdatesReceivedTotal,
		telegramCommandsReceivedTotal,
		telegramUpdateFailuresTotal,
		telegramAdminCommandsTotal,
		telegramRateLimitTriggeredTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Incoming updates by transport (webhook/polling).",
		},
		[]string{"transport"},
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands from users.",
		},
		[]string{"command"},
	)

	telegramUpdateFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_update_failures_total",
			Help: "Updates whose handler returned an error.",
		},
	)

	telegramAdminCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_admin_commands_total",
			Help: "Admin command attempts by authorization result.",
		},
		[]string{"command", "result"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncUpdateReceived(transport string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(transport)).Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncUpdateFailure() {
	telegramUpdateFailuresTotal.Inc()
}

func IncAdminCommand(command, result string) {
	telegramAdminCommandsTotal.WithLabelValues(norm(command), norm(result)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}
