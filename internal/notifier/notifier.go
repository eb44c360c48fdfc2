package notifier

import "github.com/mkrogh/kickerledger/internal/ledger"

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For committed match results
	SendMatchResult(rec ledger.MatchRecord, dryRun bool) error
	// For closed seasons
	SendSeasonWinner(result ledger.SeasonResult, dryRun bool) error
	// For the current standings
	SendLeaderboard(players []ledger.Player, dryRun bool) error
}
