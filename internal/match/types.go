package match

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TeamID names one of the two logical teams. The assignment is fixed at match
// start; swapping display sides never changes it.
type TeamID string

const (
	Team1 TeamID = "team1"
	Team2 TeamID = "team2"
)

// Position is the role a player holds within a team.
type Position string

const (
	Striker  Position = "striker"
	Defender Position = "defender"
)

// State is the lifecycle state of a live match session.
type State string

const (
	StatePlaying        State = "PLAYING"
	StateProvisionalWin State = "PROVISIONAL_WIN"
	StateConfirmed      State = "CONFIRMED"
	StateAbandoned      State = "ABANDONED"
)

// PlayerRef identifies a participant with the name frozen at match time.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lineup is one team's striker/defender pair.
type Lineup struct {
	Striker  PlayerRef `json:"striker"`
	Defender PlayerRef `json:"defender"`
}

// Goal is one entry of the append-only goal log. Position is the role the
// scorer held at the moment of scoring, which is what statistics are
// attributed by.
type Goal struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name"`
	Position   Position `json:"position"`
	Team       TeamID   `json:"team"`
}

// Summary is the immutable result of a confirmed match. Lineups are the
// starting lineups; mid-match position swaps are visible through the goal log.
type Summary struct {
	Team1     Lineup        `json:"team1"`
	Team2     Lineup        `json:"team2"`
	Score1    int           `json:"score1"`
	Score2    int           `json:"score2"`
	Goals     []Goal        `json:"goals"`
	Winner    TeamID        `json:"winner"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// summaryKeyNamespace scopes the SHA1-derived idempotency keys to this
// application.
var summaryKeyNamespace = uuid.MustParse("9f2c1a40-7b5e-4d33-9a86-1c0d5b6aee71")

// Key returns a deterministic idempotency key for the summary. Retrying a
// commit with the same summary always produces the same key, so the ledger
// can detect an already-applied match.
func (s Summary) Key() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Summary contains only marshalable fields.
		panic(err)
	}
	return uuid.NewSHA1(summaryKeyNamespace, data).String()
}

// Shutout reports whether the losing team scored zero goals.
func (s Summary) Shutout() bool {
	switch s.Winner {
	case Team1:
		return s.Score2 == 0
	case Team2:
		return s.Score1 == 0
	}
	return false
}

// Loser returns the team that lost the match.
func (s Summary) Loser() TeamID {
	if s.Winner == Team1 {
		return Team2
	}
	return Team1
}

// Lineup returns the starting lineup of the given team.
func (s Summary) Lineup(team TeamID) Lineup {
	if team == Team1 {
		return s.Team1
	}
	return s.Team2
}

// Players returns all four participants, team 1 first.
func (s Summary) Players() []PlayerRef {
	return []PlayerRef{s.Team1.Striker, s.Team1.Defender, s.Team2.Striker, s.Team2.Defender}
}

// WinnerScore returns the winning team's final score.
func (s Summary) WinnerScore() int {
	if s.Winner == Team1 {
		return s.Score1
	}
	return s.Score2
}

// LoserScore returns the losing team's final score.
func (s Summary) LoserScore() int {
	if s.Winner == Team1 {
		return s.Score2
	}
	return s.Score1
}
