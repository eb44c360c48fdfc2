package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/pubsub"
)

func (s *Server) HealthCheckHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	})
}

// PlayersHandler lists the registered players on GET and registers a new one
// on POST.
func (s *Server) PlayersHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			players, err := s.Store.ListPlayers()
			if err != nil {
				log.Error("Failed to list players", "error", err)
				http.Error(w, "Failed to list players", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, players)
		case http.MethodPost:
			var req addPlayerRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if req.FirstName == "" || req.LastName == "" {
				http.Error(w, "first_name and last_name are required", http.StatusBadRequest)
				return
			}
			player, err := s.Store.AddPlayer(req.FirstName, req.LastName, req.CountryCode)
			if err != nil {
				log.Error("Failed to add player", "error", err)
				http.Error(w, "Failed to add player", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, player)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// LeaderboardHandler returns the current standings together with the running
// season number. With announce=true the standings are also posted to Slack.
func (s *Server) LeaderboardHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		players, err := s.Store.ListPlayers()
		if err != nil {
			log.Error("Failed to list players", "error", err)
			http.Error(w, "Failed to build leaderboard", http.StatusInternalServerError)
			return
		}
		season, err := s.Store.CurrentSeason()
		if err != nil {
			log.Error("Failed to read current season", "error", err)
			http.Error(w, "Failed to build leaderboard", http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("announce") == "true" {
			if err := s.Notifier.SendLeaderboard(players, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to announce leaderboard", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, leaderboardResponse{Season: season, Standings: players})
	})
}

func (s *Server) ListMatchesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		matches, err := s.Store.ListMatches()
		if err != nil {
			log.Error("Failed to list matches", "error", err)
			http.Error(w, "Failed to list matches", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	})
}

func (s *Server) ListSeasonsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		seasons, err := s.Store.ListSeasons()
		if err != nil {
			log.Error("Failed to list seasons", "error", err)
			http.Error(w, "Failed to list seasons", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, seasons)
	})
}

// CloseSeasonHandler ends the running season. A dry run previews the winner
// without touching the ledger.
func (s *Server) CloseSeasonHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		dryRun := isDryRunFromContext(r)
		if dryRun {
			players, err := s.Store.ListPlayers()
			if err != nil {
				log.Error("Failed to preview season closure", "error", err)
				http.Error(w, "Failed to preview season closure", http.StatusInternalServerError)
				return
			}
			if len(players) == 0 {
				http.Error(w, "No players to rank", http.StatusConflict)
				return
			}
			season, err := s.Store.CurrentSeason()
			if err != nil {
				log.Error("Failed to read current season", "error", err)
				http.Error(w, "Failed to preview season closure", http.StatusInternalServerError)
				return
			}
			log.Info("Season closure dry run", "season", season, "winner", players[0].Name())
			writeJSON(w, http.StatusOK, map[string]any{
				"dry_run": true,
				"season":  season,
				"winner":  players[0],
			})
			return
		}

		result, err := s.Store.CloseSeason(r.Context())
		if err != nil {
			if errors.Is(err, ledger.ErrNoPlayers) {
				http.Error(w, "No players to rank", http.StatusConflict)
				return
			}
			log.Error("Failed to close season", "error", err)
			http.Error(w, "Failed to close season", http.StatusInternalServerError)
			return
		}
		if err := s.Notifier.SendSeasonWinner(result, dryRun); err != nil {
			log.Error("Failed to send season winner notification", "error", err)
		}
		if err := s.PubSub.SendMessage(pubsub.EventSeasonClosed, result); err != nil {
			log.Error("Failed to publish season closed event", "error", err)
		}
		writeJSON(w, http.StatusOK, result)
	})
}

// StartMatchHandler begins a new live session from four registered players.
// Only one session can run at a time.
func (s *Server) StartMatchHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req startMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session != nil || s.pending != nil {
			http.Error(w, "A match is already in progress", http.StatusConflict)
			return
		}

		lineup := func(sel teamSelection) (match.Lineup, error) {
			striker, err := s.Store.GetPlayer(sel.StrikerID)
			if err != nil {
				return match.Lineup{}, err
			}
			defender, err := s.Store.GetPlayer(sel.DefenderID)
			if err != nil {
				return match.Lineup{}, err
			}
			return match.Lineup{
				Striker:  match.PlayerRef{ID: striker.ID, Name: striker.Name()},
				Defender: match.PlayerRef{ID: defender.ID, Name: defender.Name()},
			}, nil
		}
		team1, err := lineup(req.Team1)
		if err == nil {
			var team2 match.Lineup
			team2, err = lineup(req.Team2)
			if err == nil {
				var session *match.Session
				session, err = match.NewSession(team1, team2)
				if err == nil {
					s.session = session
					writeJSON(w, http.StatusCreated, s.snapshot())
					return
				}
			}
		}
		switch {
		case errors.Is(err, ledger.ErrPlayerNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, match.ErrDuplicatePlayers):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error("Failed to start match", "error", err)
			http.Error(w, "Failed to start match", http.StatusInternalServerError)
		}
	})
}

// SessionStateHandler returns the live session, if any.
func (s *Server) SessionStateHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	})
}

func (s *Server) RecordGoalHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req recordGoalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		if err := s.session.RecordGoal(req.PlayerID); err != nil {
			switch {
			case errors.Is(err, match.ErrUnknownPlayer):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, match.ErrSessionOver):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "Failed to record goal", http.StatusInternalServerError)
			}
			return
		}
		s.Metrics.IncGoalsRecorded()
		writeJSON(w, http.StatusOK, s.snapshot())
	})
}

func (s *Server) UndoGoalHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		if err := s.session.UndoLastGoal(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	})
}

func (s *Server) SwapPositionsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req swapPositionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		if err := s.session.SwapPositions(req.Team); err != nil {
			if errors.Is(err, match.ErrSessionOver) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.snapshot())
	})
}

func (s *Server) SwapSidesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		s.session.SwapSides()
		writeJSON(w, http.StatusOK, s.snapshot())
	})
}

// ConfirmWinHandler freezes the provisional result into a summary. The
// summary stays pending until it is committed or the match is abandoned.
func (s *Server) ConfirmWinHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		summary, err := s.session.ConfirmWin()
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.pending = &summary
		writeJSON(w, http.StatusOK, summary)
	})
}

// CommitMatchHandler applies the pending summary to the ledger. On failure the
// summary stays pending so the commit can simply be retried; the summary's
// content-derived key makes a retry after a half-reported success safe.
func (s *Server) CommitMatchHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending == nil {
			http.Error(w, "No confirmed match to commit", http.StatusConflict)
			return
		}
		rec, err := s.Store.CommitMatch(r.Context(), *s.pending)
		if err != nil {
			if errors.Is(err, ledger.ErrUnknownParticipant) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Error("Failed to commit match, summary kept for retry", "error", err)
			http.Error(w, "Failed to commit match", http.StatusServiceUnavailable)
			return
		}
		s.session = nil
		s.pending = nil

		if err := s.Notifier.SendMatchResult(rec, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to send match result notification", "error", err)
		}
		if err := s.PubSub.SendMessage(pubsub.EventMatchCommitted, rec); err != nil {
			log.Error("Failed to publish match committed event", "error", err)
		}
		writeJSON(w, http.StatusOK, rec)
	})
}

// AbandonMatchHandler discards the live session, including a confirmed but
// not yet committed result.
func (s *Server) AbandonMatchHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session == nil {
			http.Error(w, "No match in progress", http.StatusNotFound)
			return
		}
		if err := s.session.Abandon(); err != nil && !errors.Is(err, match.ErrSessionOver) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.session = nil
		s.pending = nil
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Match abandoned")
	})
}

// snapshot renders the live session for the wire. Callers must hold s.mu.
func (s *Server) snapshot() sessionState {
	team1, team2 := s.session.Lineups()
	score1, score2 := s.session.Score()
	return sessionState{
		State:        s.session.State(),
		Score1:       score1,
		Score2:       score2,
		Threshold:    s.session.Threshold(),
		Winner:       s.session.Winner(),
		Team1:        team1,
		Team2:        team2,
		SidesSwapped: s.session.SidesSwapped(),
		Goals:        s.session.Goals(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}
