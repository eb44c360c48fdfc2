package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"
	"github.com/sethvargo/go-retry"

	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/rating"
)

const baselineRating = rating.Baseline

// commitMaxRetries bounds how often a conflicted commit transaction is
// re-attempted from fresh reads before the failure is surfaced.
const commitMaxRetries = 5

// CommitMatch applies a confirmed summary to the ledger. The whole
// read-compute-write cycle runs inside one transaction so the deltas are
// always computed from the ratings current at commit time, not the ratings
// the match started with. The summary's content-derived key makes retries
// after a reported failure safe: an already-applied commit is detected and
// returned as-is.
func (s *store) CommitMatch(ctx context.Context, summary match.Summary) (MatchRecord, error) {
	if summary.Winner == "" {
		return MatchRecord{}, errors.New("summary has no winner declared")
	}
	seen := make(map[string]bool, 4)
	for _, p := range summary.Players() {
		if p.ID == "" || seen[p.ID] {
			return MatchRecord{}, match.ErrDuplicatePlayers
		}
		seen[p.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.ObserveCommitDuration(time.Since(start).Seconds())
	}()

	key := summary.Key()
	var rec MatchRecord
	backoff := retry.WithMaxRetries(commitMaxRetries, retry.NewFibonacci(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.commitOnce(ctx, key, summary)
		if err != nil {
			if isConflict(err) {
				log.Warn("Ledger commit hit a transaction conflict, retrying", "key", key, "error", err)
				s.metrics.IncCommitConflicts()
				return retry.RetryableError(err)
			}
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return MatchRecord{}, fmt.Errorf("failed to commit match: %w", err)
	}
	s.metrics.IncMatchesCommitted()
	return rec, nil
}

// commitOnce runs one full read-compute-write attempt.
func (s *store) commitOnce(ctx context.Context, key string, summary match.Summary) (MatchRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Idempotency: a retried commit whose first attempt actually went
	// through must not double-apply the stats.
	existing := tx.QueryRowContext(ctx, `
		SELECT id, played_at, duration_seconds, score_team1, score_team2, winner, roster_json, goals_json, win_delta, lose_delta
		FROM matches WHERE id = ?`, key)
	rec, err := scanMatchRecord(existing)
	if err == nil {
		log.Info("Match already committed, skipping", "key", key)
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return MatchRecord{}, fmt.Errorf("idempotency check: %w", err)
	}

	// Fresh ratings for all four participants, read inside the transaction.
	players := summary.Players()
	ratings := make(map[string]int, 4)
	for _, p := range players {
		var r int
		if err := tx.QueryRowContext(ctx, "SELECT rating FROM players WHERE id = ?", p.ID).Scan(&r); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return MatchRecord{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, p.ID)
			}
			return MatchRecord{}, fmt.Errorf("read rating: %w", err)
		}
		ratings[p.ID] = r
	}

	winLineup := summary.Lineup(summary.Winner)
	loseLineup := summary.Lineup(summary.Loser())
	avgWinner := rating.TeamAverage(ratings[winLineup.Striker.ID], ratings[winLineup.Defender.ID])
	avgLoser := rating.TeamAverage(ratings[loseLineup.Striker.ID], ratings[loseLineup.Defender.ID])
	shutout := summary.Shutout()
	winDelta, loseDelta := rating.ComputeDelta(avgWinner, avgLoser, shutout)

	// Goals are attributed by the position recorded when they were scored,
	// not the player's end-of-match position.
	goalsStriker := make(map[string]int)
	goalsDefender := make(map[string]int)
	for _, g := range summary.Goals {
		if g.Position == match.Striker {
			goalsStriker[g.PlayerID]++
		} else {
			goalsDefender[g.PlayerID]++
		}
	}

	durationSeconds := int64(summary.Duration / time.Second)
	apply := func(p match.PlayerRef, team match.TeamID, startPos match.Position) error {
		won := team == summary.Winner
		ratingDelta := -loseDelta
		gamesWon, gamesLost, shutoutWins := 0, 1, 0
		if won {
			ratingDelta = winDelta
			gamesWon, gamesLost = 1, 0
			if shutout {
				shutoutWins = 1
			}
		}
		gamesStriker, gamesDefender := 0, 1
		if startPos == match.Striker {
			gamesStriker, gamesDefender = 1, 0
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE players SET
				rating = rating + ?,
				games_won = games_won + ?,
				games_lost = games_lost + ?,
				games_as_striker = games_as_striker + ?,
				games_as_defender = games_as_defender + ?,
				goals_as_striker = goals_as_striker + ?,
				goals_as_defender = goals_as_defender + ?,
				shutout_wins = shutout_wins + ?,
				playtime_seconds = playtime_seconds + ?
			WHERE id = ?`,
			ratingDelta, gamesWon, gamesLost, gamesStriker, gamesDefender,
			goalsStriker[p.ID], goalsDefender[p.ID], shutoutWins, durationSeconds, p.ID,
		)
		if err != nil {
			return fmt.Errorf("update player %s: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n != 1 {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, p.ID)
		}
		return nil
	}
	for _, step := range []struct {
		ref  match.PlayerRef
		team match.TeamID
		pos  match.Position
	}{
		{summary.Team1.Striker, match.Team1, match.Striker},
		{summary.Team1.Defender, match.Team1, match.Defender},
		{summary.Team2.Striker, match.Team2, match.Striker},
		{summary.Team2.Defender, match.Team2, match.Defender},
	} {
		if err := apply(step.ref, step.team, step.pos); err != nil {
			return MatchRecord{}, err
		}
	}

	rec = MatchRecord{
		ID:        key,
		PlayedAt:  s.now(),
		Duration:  summary.Duration,
		Score1:    summary.Score1,
		Score2:    summary.Score2,
		Winner:    summary.Winner,
		Roster:    Roster{Team1: summary.Team1, Team2: summary.Team2},
		Goals:     summary.Goals,
		WinDelta:  winDelta,
		LoseDelta: loseDelta,
	}
	rosterJSON, err := json.Marshal(rec.Roster)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("marshal roster: %w", err)
	}
	goalsJSON, err := json.Marshal(rec.Goals)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("marshal goals: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (id, played_at, duration_seconds, score_team1, score_team2, winner, roster_json, goals_json, win_delta, lose_delta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PlayedAt.Unix(), int64(rec.Duration/time.Second), rec.Score1, rec.Score2,
		rec.Winner, string(rosterJSON), string(goalsJSON), rec.WinDelta, rec.LoseDelta,
	)
	if err != nil {
		return MatchRecord{}, fmt.Errorf("append match record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return MatchRecord{}, fmt.Errorf("commit: %w", err)
	}
	log.Info("Match committed to ledger",
		"key", key, "winner", rec.Winner, "winDelta", winDelta, "loseDelta", loseDelta, "shutout", shutout)
	return rec, nil
}

// isConflict reports whether the error is a concurrent-writer conflict worth
// retrying from fresh reads.
func isConflict(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}
