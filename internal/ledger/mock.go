package ledger

import (
	"context"
	"sync"

	"github.com/mkrogh/kickerledger/internal/match"
)

// Mock is a mock implementation of LedgerStore for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	AddPlayerFunc     func(firstName, lastName, countryCode string) (Player, error)
	GetPlayerFunc     func(id string) (Player, error)
	ListPlayersFunc   func() ([]Player, error)
	CommitMatchFunc   func(ctx context.Context, summary match.Summary) (MatchRecord, error)
	ListMatchesFunc   func() ([]MatchRecord, error)
	CloseSeasonFunc   func(ctx context.Context) (SeasonResult, error)
	ListSeasonsFunc   func() ([]SeasonRecord, error)
	CurrentSeasonFunc func() (int, error)

	// Call records
	CommitMatchCalls []match.Summary
	CloseSeasonCalls int
}

var _ LedgerStore = (*Mock)(nil)

// NewMockStore creates a new mock instance.
func NewMockStore() *Mock {
	return &Mock{}
}

func (m *Mock) AddPlayer(firstName, lastName, countryCode string) (Player, error) {
	if m.AddPlayerFunc != nil {
		return m.AddPlayerFunc(firstName, lastName, countryCode)
	}
	return Player{FirstName: firstName, LastName: lastName, CountryCode: countryCode}, nil
}

func (m *Mock) GetPlayer(id string) (Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(id)
	}
	return Player{ID: id}, nil
}

func (m *Mock) ListPlayers() ([]Player, error) {
	if m.ListPlayersFunc != nil {
		return m.ListPlayersFunc()
	}
	return nil, nil
}

func (m *Mock) CommitMatch(ctx context.Context, summary match.Summary) (MatchRecord, error) {
	m.mu.Lock()
	m.CommitMatchCalls = append(m.CommitMatchCalls, summary)
	m.mu.Unlock()
	if m.CommitMatchFunc != nil {
		return m.CommitMatchFunc(ctx, summary)
	}
	return MatchRecord{ID: summary.Key()}, nil
}

func (m *Mock) ListMatches() ([]MatchRecord, error) {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc()
	}
	return nil, nil
}

func (m *Mock) CloseSeason(ctx context.Context) (SeasonResult, error) {
	m.mu.Lock()
	m.CloseSeasonCalls++
	m.mu.Unlock()
	if m.CloseSeasonFunc != nil {
		return m.CloseSeasonFunc(ctx)
	}
	return SeasonResult{}, nil
}

func (m *Mock) ListSeasons() ([]SeasonRecord, error) {
	if m.ListSeasonsFunc != nil {
		return m.ListSeasonsFunc()
	}
	return nil, nil
}

func (m *Mock) CurrentSeason() (int, error) {
	if m.CurrentSeasonFunc != nil {
		return m.CurrentSeasonFunc()
	}
	return 1, nil
}
