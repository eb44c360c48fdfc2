package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
)

// fakeSlackClient captures posted messages instead of calling the Slack API.
type fakeSlackClient struct {
	calls []string
	err   error
}

func (f *fakeSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.calls = append(f.calls, channelID)
	if f.err != nil {
		return "", "", f.err
	}
	return channelID, "1724572800.000100", nil
}

func testRecord() ledger.MatchRecord {
	return ledger.MatchRecord{
		ID:     "rec-1",
		Score1: 6,
		Score2: 0,
		Winner: match.Team1,
		Roster: ledger.Roster{
			Team1: match.Lineup{
				Striker:  match.PlayerRef{ID: "anna", Name: "Anna Larsen"},
				Defender: match.PlayerRef{ID: "bo", Name: "Bo Jensen"},
			},
			Team2: match.Lineup{
				Striker:  match.PlayerRef{ID: "carla", Name: "Carla Meyer"},
				Defender: match.PlayerRef{ID: "dan", Name: "Dan Holm"},
			},
		},
		WinDelta:  15,
		LoseDelta: 10,
		Duration:  17 * time.Minute,
	}
}

func TestSendMatchResult(t *testing.T) {
	api := &fakeSlackClient{}
	metricsMock := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metricsMock)

	err := n.SendMatchResult(testRecord(), false)
	require.NoError(t, err)
	require.Len(t, api.calls, 1)
	assert.Equal(t, "C123", api.calls[0])
	assert.Equal(t, 1, metricsMock.SlackNotifSent())
	assert.Equal(t, 0, metricsMock.SlackNotifFailed())
}

func TestSendMatchResultDryRun(t *testing.T) {
	api := &fakeSlackClient{}
	metricsMock := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metricsMock)

	err := n.SendMatchResult(testRecord(), true)
	require.NoError(t, err)
	assert.Empty(t, api.calls)
	assert.Equal(t, 0, metricsMock.SlackNotifSent())
}

func TestSendMatchResultFailure(t *testing.T) {
	api := &fakeSlackClient{err: errors.New("channel_not_found")}
	metricsMock := metrics.NewMock()
	n := NewNotifierWithAPI(api, "C123", metricsMock)

	err := n.SendMatchResult(testRecord(), false)
	require.Error(t, err)
	assert.Equal(t, 1, metricsMock.SlackNotifFailed())
	assert.Equal(t, 0, metricsMock.SlackNotifSent())
}

func TestSendSeasonWinner(t *testing.T) {
	api := &fakeSlackClient{}
	n := NewNotifierWithAPI(api, "C123", metrics.NewMock())

	err := n.SendSeasonWinner(ledger.SeasonResult{
		Record:       ledger.SeasonRecord{Number: 3, WinnerName: "Anna Larsen"},
		PlayersReset: 8,
		NewSeason:    4,
	}, false)
	require.NoError(t, err)
	assert.Len(t, api.calls, 1)
}

func TestSendLeaderboard(t *testing.T) {
	api := &fakeSlackClient{}
	n := NewNotifierWithAPI(api, "C123", metrics.NewMock())

	err := n.SendLeaderboard([]ledger.Player{
		{FirstName: "Anna", LastName: "Larsen", Rating: 1520, GamesWon: 2},
		{FirstName: "Bo", LastName: "Jensen", Rating: 1480, GamesLost: 2},
	}, false)
	require.NoError(t, err)
	assert.Len(t, api.calls, 1)
}

func TestFormatMatchResultShutout(t *testing.T) {
	n := NewNotifierWithAPI(&fakeSlackClient{}, "C123", metrics.NewMock())

	msg := n.formatMatchResult(testRecord())
	require.NotEmpty(t, msg.Blocks.BlockSet)

	section, ok := msg.Blocks.BlockSet[1].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "Anna Larsen / Bo Jensen beat Carla Meyer / Dan Holm 6:0")
	assert.Contains(t, section.Text.Text, "shutout")
}

func TestFormatLeaderboardEmpty(t *testing.T) {
	n := NewNotifierWithAPI(&fakeSlackClient{}, "C123", metrics.NewMock())

	msg := n.formatLeaderboard(nil)
	section, ok := msg.Blocks.BlockSet[1].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "No players yet")
}
