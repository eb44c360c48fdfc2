package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/kickerledger/internal/config"
	"github.com/mkrogh/kickerledger/internal/database"
	apphttp "github.com/mkrogh/kickerledger/internal/http"
	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
	"github.com/mkrogh/kickerledger/internal/notifier"
	"github.com/mkrogh/kickerledger/internal/pubsub"
)

type testServer struct {
	server   *apphttp.Server
	store    ledger.LedgerStore
	metrics  *metrics.Mock
	notifier *notifier.Mock
	pubsub   *pubsub.MockPubSubClient
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	metricsMock := metrics.NewMock()
	notifierMock := notifier.NewMock()
	pubsubMock := pubsub.NewMock()
	store := ledger.New(db, metricsMock)
	server := apphttp.NewServer(store, metricsMock, http.NotFoundHandler(), config.Config{}, notifierMock, pubsubMock)

	return &testServer{
		server:   server,
		store:    store,
		metrics:  metricsMock,
		notifier: notifierMock,
		pubsub:   pubsubMock,
	}, dbTeardown
}

func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) addPlayer(t *testing.T, firstName, lastName string) ledger.Player {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/players", map[string]string{
		"first_name":   firstName,
		"last_name":    lastName,
		"country_code": "DK",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p ledger.Player
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

// startMatch registers four players and starts a session with a/b vs c/d,
// strikers first.
func (ts *testServer) startMatch(t *testing.T) (a, b, c, d ledger.Player) {
	t.Helper()
	a = ts.addPlayer(t, "Anna", "Larsen")
	b = ts.addPlayer(t, "Bo", "Jensen")
	c = ts.addPlayer(t, "Carla", "Meyer")
	d = ts.addPlayer(t, "Dan", "Holm")
	rec := ts.do(t, http.MethodPost, "/match/start", map[string]any{
		"team1": map[string]string{"striker_id": a.ID, "defender_id": b.ID},
		"team2": map[string]string{"striker_id": c.ID, "defender_id": d.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return a, b, c, d
}

func (ts *testServer) goal(t *testing.T, playerID string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, "/match/goal", map[string]string{"player_id": playerID})
}

func TestHealthCheck(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK!", rec.Body.String())
}

func TestAddAndListPlayers(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	ts.addPlayer(t, "Anna", "Larsen")
	ts.addPlayer(t, "Bo", "Jensen")

	rec := ts.do(t, http.MethodGet, "/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var players []ledger.Player
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&players))
	require.Len(t, players, 2)
	assert.Equal(t, 1500, players[0].Rating)
}

func TestAddPlayerValidation(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	rec := ts.do(t, http.MethodPost, "/players", map[string]string{"first_name": "Anna"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartMatchAndSessionState(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, _, _, _ := ts.startMatch(t)

	rec := ts.do(t, http.MethodGet, "/match", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		State     match.State  `json:"state"`
		Score1    int          `json:"score1"`
		Score2    int          `json:"score2"`
		Threshold int          `json:"threshold"`
		Team1     match.Lineup `json:"team1"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, match.StatePlaying, state.State)
	assert.Equal(t, 0, state.Score1)
	assert.Equal(t, 6, state.Threshold)
	assert.Equal(t, a.ID, state.Team1.Striker.ID)
}

func TestSessionStateWithoutMatch(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	rec := ts.do(t, http.MethodGet, "/match", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartMatchWhileInProgress(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, b, c, d := ts.startMatch(t)
	rec := ts.do(t, http.MethodPost, "/match/start", map[string]any{
		"team1": map[string]string{"striker_id": a.ID, "defender_id": b.ID},
		"team2": map[string]string{"striker_id": c.ID, "defender_id": d.ID},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartMatchUnknownPlayer(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a := ts.addPlayer(t, "Anna", "Larsen")
	b := ts.addPlayer(t, "Bo", "Jensen")
	c := ts.addPlayer(t, "Carla", "Meyer")
	rec := ts.do(t, http.MethodPost, "/match/start", map[string]any{
		"team1": map[string]string{"striker_id": a.ID, "defender_id": b.ID},
		"team2": map[string]string{"striker_id": c.ID, "defender_id": "nobody"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartMatchDuplicatePlayers(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a := ts.addPlayer(t, "Anna", "Larsen")
	b := ts.addPlayer(t, "Bo", "Jensen")
	c := ts.addPlayer(t, "Carla", "Meyer")
	rec := ts.do(t, http.MethodPost, "/match/start", map[string]any{
		"team1": map[string]string{"striker_id": a.ID, "defender_id": b.ID},
		"team2": map[string]string{"striker_id": c.ID, "defender_id": a.ID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordGoalAndUndo(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, _, c, _ := ts.startMatch(t)

	rec := ts.goal(t, a.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.goal(t, c.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Score1 int `json:"score1"`
		Score2 int `json:"score2"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, 1, state.Score1)
	assert.Equal(t, 1, state.Score2)
	assert.Equal(t, 2, ts.metrics.GoalsRecorded())

	rec = ts.do(t, http.MethodPost, "/match/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, 1, state.Score1)
	assert.Equal(t, 0, state.Score2)
}

func TestRecordGoalUnknownPlayer(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	ts.startMatch(t)
	rec := ts.goal(t, "nobody")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmWithoutWinner(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	ts.startMatch(t)
	rec := ts.do(t, http.MethodPost, "/match/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCommitWithoutConfirmedMatch(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	rec := ts.do(t, http.MethodPost, "/match/commit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFullMatchFlow(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, _, c, _ := ts.startMatch(t)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, ts.goal(t, c.ID).Code)
	}
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = ts.goal(t, a.ID)
		require.Equal(t, http.StatusOK, last.Code)
	}
	var state struct {
		State  match.State  `json:"state"`
		Winner match.TeamID `json:"winner"`
	}
	require.NoError(t, json.NewDecoder(last.Body).Decode(&state))
	assert.Equal(t, match.StateProvisionalWin, state.State)
	assert.Equal(t, match.Team1, state.Winner)

	rec := ts.do(t, http.MethodPost, "/match/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary match.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.Equal(t, 6, summary.Score1)
	assert.Equal(t, 2, summary.Score2)

	// Goals after confirmation are rejected.
	assert.Equal(t, http.StatusConflict, ts.goal(t, a.ID).Code)

	rec = ts.do(t, http.MethodPost, "/match/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var record ledger.MatchRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&record))
	assert.Equal(t, match.Team1, record.Winner)
	assert.Equal(t, 10, record.WinDelta)

	require.Len(t, ts.notifier.SendMatchResultCalls, 1)
	require.Len(t, ts.pubsub.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventMatchCommitted), ts.pubsub.SendMessageCalls[0].Topic)
	assert.Equal(t, 1, ts.metrics.MatchesCommitted())

	// The session is cleared, so the next match can start.
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/match", nil).Code)
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/match/commit", nil).Code)

	winner, err := ts.store.GetPlayer(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1510, winner.Rating)
}

func TestCommitFailureKeepsPendingSummary(t *testing.T) {
	storeMock := ledger.NewMockStore()
	storeMock.CommitMatchFunc = func(ctx context.Context, summary match.Summary) (ledger.MatchRecord, error) {
		return ledger.MatchRecord{}, errors.New("database is locked")
	}
	server := apphttp.NewServer(storeMock, metrics.NewMock(), http.NotFoundHandler(), config.Config{}, notifier.NewMock(), pubsub.NewMock())
	ts := &testServer{server: server}

	rec := ts.do(t, http.MethodPost, "/match/start", map[string]any{
		"team1": map[string]string{"striker_id": "p1", "defender_id": "p2"},
		"team2": map[string]string{"striker_id": "p3", "defender_id": "p4"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	for i := 0; i < 6; i++ {
		require.Equal(t, http.StatusOK, ts.goal(t, "p1").Code)
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/match/confirm", nil).Code)

	rec = ts.do(t, http.MethodPost, "/match/commit", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Len(t, storeMock.CommitMatchCalls, 1)

	// The summary survived the failure, so the retry commits the same one.
	storeMock.CommitMatchFunc = nil
	rec = ts.do(t, http.MethodPost, "/match/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, storeMock.CommitMatchCalls, 2)
	assert.Equal(t, storeMock.CommitMatchCalls[0].Key(), storeMock.CommitMatchCalls[1].Key())
}

func TestSwapPositionsAndSides(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, b, _, _ := ts.startMatch(t)

	rec := ts.do(t, http.MethodPost, "/match/swap-positions", map[string]string{"team": "team1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Team1        match.Lineup `json:"team1"`
		SidesSwapped bool         `json:"sides_swapped"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, b.ID, state.Team1.Striker.ID)
	assert.Equal(t, a.ID, state.Team1.Defender.ID)

	rec = ts.do(t, http.MethodPost, "/match/swap-sides", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.True(t, state.SidesSwapped)
}

func TestAbandonMatch(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, b, c, d := ts.startMatch(t)
	require.Equal(t, http.StatusOK, ts.goal(t, a.ID).Code)

	rec := ts.do(t, http.MethodPost, "/match/abandon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/match", nil).Code)

	// Nothing reached the ledger.
	matchesRec := ts.do(t, http.MethodGet, "/matches", nil)
	require.Equal(t, http.StatusOK, matchesRec.Code)
	var records []ledger.MatchRecord
	require.NoError(t, json.NewDecoder(matchesRec.Body).Decode(&records))
	assert.Empty(t, records)

	// A new match can start right away.
	rec = ts.do(t, http.MethodPost, "/match/start", map[string]any{
		"team1": map[string]string{"striker_id": a.ID, "defender_id": b.ID},
		"team2": map[string]string{"striker_id": c.ID, "defender_id": d.ID},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAbandonDiscardsConfirmedResult(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	a, _, _, _ := ts.startMatch(t)
	for i := 0; i < 6; i++ {
		require.Equal(t, http.StatusOK, ts.goal(t, a.ID).Code)
	}
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/match/confirm", nil).Code)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/match/abandon", nil).Code)
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/match/commit", nil).Code)
}

func TestLeaderboard(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	ts.addPlayer(t, "Anna", "Larsen")
	ts.addPlayer(t, "Bo", "Jensen")

	rec := ts.do(t, http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Season    int             `json:"season"`
		Standings []ledger.Player `json:"standings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Season)
	assert.Len(t, resp.Standings, 2)
	assert.Empty(t, ts.notifier.SendLeaderboardCalls)

	rec = ts.do(t, http.MethodGet, "/leaderboard?announce=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, ts.notifier.SendLeaderboardCalls, 1)
}

func TestCloseSeason(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	ts.addPlayer(t, "Anna", "Larsen")
	ts.addPlayer(t, "Bo", "Jensen")

	rec := ts.do(t, http.MethodPost, "/season/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result ledger.SeasonResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 1, result.Record.Number)
	assert.Equal(t, "Anna Larsen", result.Record.WinnerName)
	assert.Equal(t, 2, result.PlayersReset)
	assert.Equal(t, 2, result.NewSeason)

	require.Len(t, ts.notifier.SendSeasonWinnerCalls, 1)
	require.Len(t, ts.pubsub.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventSeasonClosed), ts.pubsub.SendMessageCalls[0].Topic)
	assert.Equal(t, 1, ts.metrics.SeasonsClosed())
}

func TestCloseSeasonDryRun(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	ts.addPlayer(t, "Anna", "Larsen")

	rec := ts.do(t, http.MethodPost, "/season/close?dry_run=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The season counter did not move and no history was written.
	season, err := ts.store.CurrentSeason()
	require.NoError(t, err)
	assert.Equal(t, 1, season)
	seasons, err := ts.store.ListSeasons()
	require.NoError(t, err)
	assert.Empty(t, seasons)
	assert.Empty(t, ts.notifier.SendSeasonWinnerCalls)
}

func TestCloseSeasonWithoutPlayers(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	rec := ts.do(t, http.MethodPost, "/season/close", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, teardown := newTestServer(t)
	defer teardown()

	for _, target := range []string{"/match/start", "/match/goal", "/season/close"} {
		rec := ts.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, fmt.Sprintf("GET %s", target))
	}
}
