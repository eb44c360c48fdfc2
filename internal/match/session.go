package match

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrSessionOver is returned when a mutating call hits a session that is
	// already confirmed or abandoned.
	ErrSessionOver = errors.New("match session already finished")
	// ErrNoWinner is returned by ConfirmWin when no provisional winner is
	// declared.
	ErrNoWinner = errors.New("no winner declared yet")
	// ErrUnknownPlayer is returned when a goal is recorded for a player that
	// is not part of the match.
	ErrUnknownPlayer = errors.New("player is not part of this match")
	// ErrDuplicatePlayers is returned by NewSession when the four
	// participants are not distinct.
	ErrDuplicatePlayers = errors.New("match participants must be distinct")
)

// Session drives one live match. It is single-writer by design: one
// controller issues sequential calls, so there is no internal locking.
type Session struct {
	startTeam1   Lineup
	startTeam2   Lineup
	team1        Lineup
	team2        Lineup
	score1       int
	score2       int
	goals        []Goal
	state        State
	winner       TeamID
	sidesSwapped bool
	startedAt    time.Time
	now          func() time.Time
}

// NewSession starts a match at 0:0 with the given starting lineups.
func NewSession(team1, team2 Lineup) (*Session, error) {
	seen := make(map[string]bool, 4)
	for _, p := range []PlayerRef{team1.Striker, team1.Defender, team2.Striker, team2.Defender} {
		if p.ID == "" || seen[p.ID] {
			return nil, ErrDuplicatePlayers
		}
		seen[p.ID] = true
	}
	s := &Session{
		startTeam1: team1,
		startTeam2: team2,
		team1:      team1,
		team2:      team2,
		state:      StatePlaying,
		now:        time.Now,
	}
	s.startedAt = s.now()
	log.Debug("Match session started",
		"team1", team1.Striker.Name+"/"+team1.Defender.Name,
		"team2", team2.Striker.Name+"/"+team2.Defender.Name)
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Score returns the current score, team 1 first.
func (s *Session) Score() (int, int) { return s.score1, s.score2 }

// Winner returns the provisionally or finally declared winner, or "" while
// none is declared.
func (s *Session) Winner() TeamID { return s.winner }

// Goals returns a copy of the goal log in scoring order.
func (s *Session) Goals() []Goal {
	out := make([]Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// Lineups returns the current lineups, reflecting any position swaps.
func (s *Session) Lineups() (Lineup, Lineup) { return s.team1, s.team2 }

// SidesSwapped reports the display orientation toggled by SwapSides.
func (s *Session) SidesSwapped() bool { return s.sidesSwapped }

// Threshold returns the score a team must reach to win, re-evaluated from
// the current score: 7 when both teams are at exactly 5, otherwise 6.
func (s *Session) Threshold() int {
	if s.score1 == 5 && s.score2 == 5 {
		return 7
	}
	return 6
}

// RecordGoal credits a goal to the given player using the position they hold
// right now, then re-evaluates the winner.
func (s *Session) RecordGoal(playerID string) error {
	if s.terminal() {
		return ErrSessionOver
	}
	team, ref, pos, ok := s.locate(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if team == Team1 {
		s.score1++
	} else {
		s.score2++
	}
	s.goals = append(s.goals, Goal{
		PlayerID:   ref.ID,
		PlayerName: ref.Name,
		Position:   pos,
		Team:       team,
	})
	s.evaluate()
	log.Debug("Goal recorded", "player", ref.Name, "position", pos, "score", fmt.Sprintf("%d:%d", s.score1, s.score2), "state", s.state)
	return nil
}

// UndoLastGoal removes the newest goal-log entry and re-evaluates the winner,
// clearing a provisional win that no longer holds. Undoing with an empty log
// is a no-op.
func (s *Session) UndoLastGoal() error {
	if s.terminal() {
		return ErrSessionOver
	}
	if len(s.goals) == 0 {
		return nil
	}
	last := s.goals[len(s.goals)-1]
	s.goals = s.goals[:len(s.goals)-1]
	if last.Team == Team1 {
		if s.score1 > 0 {
			s.score1--
		}
	} else {
		if s.score2 > 0 {
			s.score2--
		}
	}
	s.evaluate()
	log.Debug("Goal undone", "player", last.PlayerName, "score", fmt.Sprintf("%d:%d", s.score1, s.score2), "state", s.state)
	return nil
}

// SwapPositions exchanges the striker and defender roles within one team.
// Goals already logged keep the position they were scored from.
func (s *Session) SwapPositions(team TeamID) error {
	if s.terminal() {
		return ErrSessionOver
	}
	switch team {
	case Team1:
		s.team1.Striker, s.team1.Defender = s.team1.Defender, s.team1.Striker
	case Team2:
		s.team2.Striker, s.team2.Defender = s.team2.Defender, s.team2.Striker
	default:
		return fmt.Errorf("unknown team %q", team)
	}
	return nil
}

// SwapSides toggles which team is rendered left. It is display-only and
// never affects scoring or the logical team identity.
func (s *Session) SwapSides() bool {
	s.sidesSwapped = !s.sidesSwapped
	return s.sidesSwapped
}

// ConfirmWin finalizes the match. It is only legal while a provisional
// winner is declared and produces the immutable summary handed to the
// ledger.
func (s *Session) ConfirmWin() (Summary, error) {
	if s.state != StateProvisionalWin {
		return Summary{}, ErrNoWinner
	}
	s.state = StateConfirmed
	summary := Summary{
		Team1:     s.startTeam1,
		Team2:     s.startTeam2,
		Score1:    s.score1,
		Score2:    s.score2,
		Goals:     s.Goals(),
		Winner:    s.winner,
		StartedAt: s.startedAt,
		Duration:  s.now().Sub(s.startedAt),
	}
	log.Info("Match confirmed", "winner", summary.Winner, "score", fmt.Sprintf("%d:%d", summary.Score1, summary.Score2), "duration", summary.Duration)
	return summary, nil
}

// Abandon discards the match. No ledger write will happen for it.
func (s *Session) Abandon() error {
	if s.terminal() {
		return ErrSessionOver
	}
	s.state = StateAbandoned
	log.Info("Match abandoned", "score", fmt.Sprintf("%d:%d", s.score1, s.score2))
	return nil
}

func (s *Session) terminal() bool {
	return s.state == StateConfirmed || s.state == StateAbandoned
}

// evaluate recomputes the threshold and the declared winner from the current
// score. Equal scores never declare a winner.
func (s *Session) evaluate() {
	threshold := s.Threshold()
	switch {
	case s.score1 >= threshold && s.score1 > s.score2:
		s.state = StateProvisionalWin
		s.winner = Team1
	case s.score2 >= threshold && s.score2 > s.score1:
		s.state = StateProvisionalWin
		s.winner = Team2
	default:
		s.state = StatePlaying
		s.winner = ""
	}
}

func (s *Session) locate(playerID string) (TeamID, PlayerRef, Position, bool) {
	switch playerID {
	case s.team1.Striker.ID:
		return Team1, s.team1.Striker, Striker, true
	case s.team1.Defender.ID:
		return Team1, s.team1.Defender, Defender, true
	case s.team2.Striker.ID:
		return Team2, s.team2.Striker, Striker, true
	case s.team2.Defender.ID:
		return Team2, s.team2.Defender, Defender, true
	}
	return "", PlayerRef{}, "", false
}
