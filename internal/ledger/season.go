package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mkrogh/kickerledger/internal/rating"
)

// CloseSeason ends the running season. The history append, title increment,
// bulk rating reset and season-counter advance happen inside one transaction,
// so a failure partway through leaves no mixed state behind: either the whole
// closure is visible or none of it is.
//
// The winner is the top-rated player; rating ties fall back to registration
// order.
func (s *store) CloseSeason(ctx context.Context) (SeasonResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: begin: %w", err)
	}
	defer tx.Rollback()

	var seasonNumber int
	if err := tx.QueryRowContext(ctx, "SELECT current_season FROM app_state WHERE id = 1").Scan(&seasonNumber); err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: read season counter: %w", err)
	}

	var winnerID, firstName, lastName string
	row := tx.QueryRowContext(ctx, `
		SELECT id, first_name, last_name
		FROM players
		ORDER BY rating DESC, rowid ASC
		LIMIT 1`)
	if err := row.Scan(&winnerID, &firstName, &lastName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SeasonResult{}, ErrNoPlayers
		}
		return SeasonResult{}, fmt.Errorf("failed to close season: rank players: %w", err)
	}

	rec := SeasonRecord{
		ID:         uuid.New().String(),
		Number:     seasonNumber,
		WinnerID:   winnerID,
		WinnerName: firstName + " " + lastName,
		ClosedAt:   s.now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO seasons (id, season_number, winner_id, winner_name, closed_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Number, rec.WinnerID, rec.WinnerName, rec.ClosedAt.Unix(),
	)
	if err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: append history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE players SET titles_won = titles_won + 1 WHERE id = ?", rec.WinnerID); err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: increment title: %w", err)
	}

	// Bulk reset. All other cumulative counters stay untouched.
	res, err := tx.ExecContext(ctx, "UPDATE players SET rating = ?", rating.Baseline)
	if err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: reset ratings: %w", err)
	}
	reset, err := res.RowsAffected()
	if err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: reset ratings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE app_state SET current_season = current_season + 1 WHERE id = 1"); err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: advance season counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SeasonResult{}, fmt.Errorf("failed to close season: commit: %w", err)
	}
	s.metrics.IncSeasonsClosed()

	result := SeasonResult{
		Record:       rec,
		PlayersReset: int(reset),
		NewSeason:    seasonNumber + 1,
	}
	log.Info("Season closed", "season", rec.Number, "winner", rec.WinnerName, "playersReset", result.PlayersReset)
	return result, nil
}
