package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
)

var (
	// ErrPlayerNotFound is returned when a player id has no ledger record.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrUnknownParticipant is returned by CommitMatch when a summary
	// references a player the ledger does not know.
	ErrUnknownParticipant = errors.New("match participant not found in ledger")
	// ErrNoPlayers is returned by CloseSeason when there is nobody to rank.
	ErrNoPlayers = errors.New("no players to rank")
)

// New creates a new LedgerStore backed by the given database.
func New(db *sql.DB, metricsSvc metrics.Metrics) LedgerStore {
	return &store{
		db:      db,
		metrics: metricsSvc,
		now:     time.Now,
	}
}

// AddPlayer registers a new player at the baseline rating.
func (s *store) AddPlayer(firstName, lastName, countryCode string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Player{
		ID:          uuid.New().String(),
		FirstName:   firstName,
		LastName:    lastName,
		CountryCode: countryCode,
		Rating:      baselineRating,
		CreatedAt:   s.now(),
	}
	_, err := s.db.Exec(`
		INSERT INTO players (id, first_name, last_name, country_code, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.CountryCode, p.Rating, p.CreatedAt.Unix(),
	)
	if err != nil {
		return Player{}, fmt.Errorf("failed to add player: %w", err)
	}
	log.Info("Added new player to the ledger", "playerID", p.ID, "name", p.Name())
	return p, nil
}

// GetPlayer retrieves a single player record.
func (s *store) GetPlayer(id string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(playerColumns+" FROM players WHERE id = ?", id)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		return Player{}, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// ListPlayers returns all players in standings order: rating descending,
// ties broken by registration order.
func (s *store) ListPlayers() ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(playerColumns + " FROM players ORDER BY rating DESC, rowid ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ListMatches returns the match log, newest first.
func (s *store) ListMatches() ([]MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, played_at, duration_seconds, score_team1, score_team2, winner, roster_json, goals_json, win_delta, lose_delta
		FROM matches
		ORDER BY played_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		rec, err := scanMatchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListSeasons returns the season history, newest first.
func (s *store) ListSeasons() ([]SeasonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, season_number, winner_id, winner_name, closed_at
		FROM seasons
		ORDER BY season_number DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var records []SeasonRecord
	for rows.Next() {
		var rec SeasonRecord
		var closedAt int64
		if err := rows.Scan(&rec.ID, &rec.Number, &rec.WinnerID, &rec.WinnerName, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan season row: %w", err)
		}
		rec.ClosedAt = time.Unix(closedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CurrentSeason returns the running season number.
func (s *store) CurrentSeason() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var season int
	err := s.db.QueryRow("SELECT current_season FROM app_state WHERE id = 1").Scan(&season)
	if err != nil {
		return 0, fmt.Errorf("failed to read season counter: %w", err)
	}
	return season, nil
}

const playerColumns = `
	SELECT id, first_name, last_name, country_code, rating,
		games_won, games_lost, games_as_striker, games_as_defender,
		goals_as_striker, goals_as_defender, shutout_wins,
		playtime_seconds, titles_won, created_at`

// scanPlayer is a helper to scan a single player row.
func scanPlayer(scanner interface{ Scan(...any) error }) (Player, error) {
	var p Player
	var playtimeSeconds, createdAt int64
	err := scanner.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.CountryCode, &p.Rating,
		&p.GamesWon, &p.GamesLost, &p.GamesAsStriker, &p.GamesAsDefender,
		&p.GoalsAsStriker, &p.GoalsAsDefender, &p.ShutoutWins,
		&playtimeSeconds, &p.TitlesWon, &createdAt,
	)
	if err != nil {
		return Player{}, err
	}
	p.Playtime = time.Duration(playtimeSeconds) * time.Second
	p.CreatedAt = time.Unix(createdAt, 0)
	return p, nil
}

// scanMatchRecord is a helper to scan a single match row.
func scanMatchRecord(scanner interface{ Scan(...any) error }) (MatchRecord, error) {
	var rec MatchRecord
	var playedAt, durationSeconds int64
	var rosterJSON, goalsJSON string
	err := scanner.Scan(
		&rec.ID, &playedAt, &durationSeconds, &rec.Score1, &rec.Score2,
		&rec.Winner, &rosterJSON, &goalsJSON, &rec.WinDelta, &rec.LoseDelta,
	)
	if err != nil {
		return MatchRecord{}, err
	}
	rec.PlayedAt = time.Unix(playedAt, 0)
	rec.Duration = time.Duration(durationSeconds) * time.Second
	if err := json.Unmarshal([]byte(rosterJSON), &rec.Roster); err != nil {
		return MatchRecord{}, fmt.Errorf("failed to unmarshal roster_json: %w", err)
	}
	if goalsJSON != "" {
		if err := json.Unmarshal([]byte(goalsJSON), &rec.Goals); err != nil {
			return MatchRecord{}, fmt.Errorf("failed to unmarshal goals_json: %w", err)
		}
	} else {
		rec.Goals = []match.Goal{}
	}
	return rec, nil
}
