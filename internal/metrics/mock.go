package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	goalsRecorded    int
	matchesCommitted int
	commitConflicts  int
	commitDurations  []float64
	seasonsClosed    int
	slackNotifSent   int
	slackNotifFailed int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		commitDurations: make([]float64, 0),
	}
}

func (m *Mock) IncGoalsRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goalsRecorded++
}

func (m *Mock) IncMatchesCommitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCommitted++
}

func (m *Mock) IncCommitConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitConflicts++
}

func (m *Mock) ObserveCommitDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitDurations = append(m.commitDurations, seconds)
}

func (m *Mock) IncSeasonsClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seasonsClosed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = seconds
}

// GoalsRecorded returns the number of times IncGoalsRecorded was called.
func (m *Mock) GoalsRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goalsRecorded
}

// MatchesCommitted returns the number of times IncMatchesCommitted was called.
func (m *Mock) MatchesCommitted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCommitted
}

// CommitConflicts returns the number of times IncCommitConflicts was called.
func (m *Mock) CommitConflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commitConflicts
}

// SeasonsClosed returns the number of times IncSeasonsClosed was called.
func (m *Mock) SeasonsClosed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seasonsClosed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
