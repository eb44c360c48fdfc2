package ledger

import (
	"context"

	"github.com/mkrogh/kickerledger/internal/match"
)

// LedgerStore defines the interface for the durable match ledger: the
// append-only match and season logs plus the per-player aggregate counters
// they feed.
type LedgerStore interface {
	AddPlayer(firstName, lastName, countryCode string) (Player, error)
	GetPlayer(id string) (Player, error)
	// ListPlayers returns the current standings, best rating first.
	ListPlayers() ([]Player, error)

	// CommitMatch applies a confirmed match summary to the ledger in one
	// atomic transaction: ratings are re-read fresh, deltas recomputed, all
	// four player records updated and the match record appended. Conflicting
	// transactions are retried a bounded number of times. Committing the
	// same summary twice is a no-op returning the stored record.
	CommitMatch(ctx context.Context, summary match.Summary) (MatchRecord, error)
	ListMatches() ([]MatchRecord, error)

	// CloseSeason snapshots the current winner, appends the season record,
	// increments the winner's titles, resets every rating to the baseline
	// and advances the season counter, all or nothing.
	CloseSeason(ctx context.Context) (SeasonResult, error)
	ListSeasons() ([]SeasonRecord, error)
	CurrentSeason() (int, error)
}
