package http

import (
	"net/http"
	"sync"

	"github.com/mkrogh/kickerledger/internal/config"
	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
	"github.com/mkrogh/kickerledger/internal/notifier"
	"github.com/mkrogh/kickerledger/internal/pubsub"
)

type Server struct {
	Store          ledger.LedgerStore
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	PubSub         pubsub.PubSubClient
	Router         *http.ServeMux

	// One live match at a time, driven by sequential operator calls. The
	// mutex only serializes HTTP access; the session itself is single-writer.
	mu      sync.Mutex
	session *match.Session
	pending *match.Summary
}

// startMatchRequest selects the four participants by player id.
type startMatchRequest struct {
	Team1 teamSelection `json:"team1"`
	Team2 teamSelection `json:"team2"`
}

type teamSelection struct {
	StrikerID  string `json:"striker_id"`
	DefenderID string `json:"defender_id"`
}

type recordGoalRequest struct {
	PlayerID string `json:"player_id"`
}

type swapPositionsRequest struct {
	Team match.TeamID `json:"team"`
}

type addPlayerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CountryCode string `json:"country_code"`
}

// sessionState is the wire representation of the live match.
type sessionState struct {
	State        match.State  `json:"state"`
	Score1       int          `json:"score1"`
	Score2       int          `json:"score2"`
	Threshold    int          `json:"threshold"`
	Winner       match.TeamID `json:"winner,omitempty"`
	Team1        match.Lineup `json:"team1"`
	Team2        match.Lineup `json:"team2"`
	SidesSwapped bool         `json:"sides_swapped"`
	Goals        []match.Goal `json:"goals"`
}

// leaderboardResponse pairs the standings with the running season.
type leaderboardResponse struct {
	Season    int             `json:"season"`
	Standings []ledger.Player `json:"standings"`
}
