package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		GoalsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kicker_goals_recorded_total",
			Help: "The total number of goals recorded in live match sessions.",
		}),
		MatchesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kicker_matches_committed_total",
			Help: "The total number of match results committed to the ledger.",
		}),
		CommitConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kicker_commit_conflicts_total",
			Help: "The total number of ledger commit attempts retried after a transaction conflict.",
		}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kicker_commit_duration_seconds",
			Help:    "The duration of ledger commit transactions, retries included.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SeasonsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kicker_seasons_closed_total",
			Help: "The total number of seasons closed.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kicker_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kicker_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kicker_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.GoalsRecorded,
		s.MatchesCommitted,
		s.CommitConflicts,
		s.CommitDuration,
		s.SeasonsClosed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncGoalsRecorded() {
	s.GoalsRecorded.Inc()
}

func (s *Service) IncMatchesCommitted() {
	s.MatchesCommitted.Inc()
}

func (s *Service) IncCommitConflicts() {
	s.CommitConflicts.Inc()
}

func (s *Service) ObserveCommitDuration(seconds float64) {
	s.CommitDuration.Observe(seconds)
}

func (s *Service) IncSeasonsClosed() {
	s.SeasonsClosed.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
