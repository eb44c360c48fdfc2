package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncGoalsRecorded()
	IncMatchesCommitted()
	IncCommitConflicts()
	ObserveCommitDuration(seconds float64)
	IncSeasonsClosed()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(seconds float64)
}
