package ledger

import (
	"database/sql"
	"sync"
	"time"

	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
)

// store handles all database operations for the ledger.
type store struct {
	db      *sql.DB
	metrics metrics.Metrics
	mu      sync.RWMutex
	// now is swapped out in tests.
	now func() time.Time
}

// Player is one player's aggregate ledger record. Counters are only mutated
// by match commits and season closures.
type Player struct {
	ID              string        `json:"id"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	CountryCode     string        `json:"country_code"`
	Rating          int           `json:"rating"`
	GamesWon        int           `json:"games_won"`
	GamesLost       int           `json:"games_lost"`
	GamesAsStriker  int           `json:"games_as_striker"`
	GamesAsDefender int           `json:"games_as_defender"`
	GoalsAsStriker  int           `json:"goals_as_striker"`
	GoalsAsDefender int           `json:"goals_as_defender"`
	ShutoutWins     int           `json:"shutout_wins"`
	Playtime        time.Duration `json:"playtime"`
	TitlesWon       int           `json:"titles_won"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Name returns the player's display name, as frozen into match rosters.
func (p Player) Name() string {
	return p.FirstName + " " + p.LastName
}

// TotalGames returns the number of committed matches the player took part in.
func (p Player) TotalGames() int {
	return p.GamesWon + p.GamesLost
}

// Roster freezes both starting lineups, names included, at match time.
type Roster struct {
	Team1 match.Lineup `json:"team1"`
	Team2 match.Lineup `json:"team2"`
}

// MatchRecord is one immutable entry of the append-only match log.
type MatchRecord struct {
	ID        string        `json:"id"`
	PlayedAt  time.Time     `json:"played_at"`
	Duration  time.Duration `json:"duration"`
	Score1    int           `json:"score1"`
	Score2    int           `json:"score2"`
	Winner    match.TeamID  `json:"winner"`
	Roster    Roster        `json:"roster"`
	Goals     []match.Goal  `json:"goals"`
	WinDelta  int           `json:"win_delta"`
	LoseDelta int           `json:"lose_delta"`
}

// SeasonRecord is one immutable entry of the append-only season history.
type SeasonRecord struct {
	ID         string    `json:"id"`
	Number     int       `json:"number"`
	WinnerID   string    `json:"winner_id"`
	WinnerName string    `json:"winner_name"`
	ClosedAt   time.Time `json:"closed_at"`
}

// SeasonResult reports the outcome of a season closure.
type SeasonResult struct {
	Record       SeasonRecord `json:"record"`
	PlayersReset int          `json:"players_reset"`
	NewSeason    int          `json:"new_season"`
}
