package notifier

import (
	"sync"

	"github.com/mkrogh/kickerledger/internal/ledger"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendMatchResultCalls  []ledger.MatchRecord
	SendSeasonWinnerCalls []ledger.SeasonResult
	SendLeaderboardCalls  [][]ledger.Player

	// Spies
	SendMatchResultFunc  func(rec ledger.MatchRecord, dryRun bool) error
	SendSeasonWinnerFunc func(result ledger.SeasonResult, dryRun bool) error
	SendLeaderboardFunc  func(players []ledger.Player, dryRun bool) error
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = nil
	m.SendSeasonWinnerCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) SendMatchResult(rec ledger.MatchRecord, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, rec)
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(rec, dryRun)
	}
	return nil
}

func (m *Mock) SendSeasonWinner(result ledger.SeasonResult, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSeasonWinnerCalls = append(m.SendSeasonWinnerCalls, result)
	if m.SendSeasonWinnerFunc != nil {
		return m.SendSeasonWinnerFunc(result, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(players []ledger.Player, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(players, dryRun)
	}
	return nil
}
