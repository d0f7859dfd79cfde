package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SlashCommands counts slash commands by command and outcome.
	SlashCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redditslacker_slash_commands_total",
			Help: "Total number of Slack slash commands handled",
		},
		[]string{"command", "status"},
	)

	// ButtonActions counts interactive button presses.
	ButtonActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redditslacker_button_actions_total",
			Help: "Total number of Slack button actions handled",
		},
		[]string{"action", "status"},
	)

	// ModerationActions counts actions taken on Reddit by the bot.
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redditslacker_moderation_actions_total",
			Help: "Number of moderation actions performed on Reddit",
		},
		[]string{"action"},
	)

	// PollerRuns counts poller iterations by poller and outcome.
	PollerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redditslacker_poller_runs_total",
			Help: "Total number of background poller iterations",
		},
		[]string{"poller", "status"},
	)

	// PollerLastSuccess is the unix time of the last successful poll.
	PollerLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "redditslacker_poller_last_success_timestamp",
			Help: "Unix time of the last successful iteration per poller",
		},
		[]string{"poller"},
	)

	// OffenseWarnings counts threshold warnings posted to Slack.
	OffenseWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redditslacker_offense_warnings_total",
			Help: "Number of offense threshold warnings posted",
		},
		[]string{"kind", "severity"},
	)

	// ProcessedIDs is the size of the already-processed id log.
	ProcessedIDs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "redditslacker_processed_ids",
		Help: "Number of Reddit ids in the processed log",
	})

	// SummaryDuration measures troll summaries end to end. Registered by the app.
	SummaryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redditslacker_summary_duration_seconds",
			Help:    "Time to build a user summary including chart and upload",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
