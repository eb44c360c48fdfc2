package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"

	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
	"github.com/mkrogh/kickerledger/internal/notifier"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) error {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

// SendMatchResult announces a committed match result.
func (s *Notifier) SendMatchResult(rec ledger.MatchRecord, dryRun bool) error {
	return s.sendMessage(s.formatMatchResult(rec), dryRun)
}

// SendSeasonWinner announces a closed season.
func (s *Notifier) SendSeasonWinner(result ledger.SeasonResult, dryRun bool) error {
	return s.sendMessage(s.formatSeasonWinner(result), dryRun)
}

// SendLeaderboard posts the current standings.
func (s *Notifier) SendLeaderboard(players []ledger.Player, dryRun bool) error {
	return s.sendMessage(s.formatLeaderboard(players), dryRun)
}

func teamLabel(l match.Lineup) string {
	return fmt.Sprintf("%s / %s", l.Striker.Name, l.Defender.Name)
}

// formatMatchResult creates the Slack message for a committed match using Block Kit.
func (s *Notifier) formatMatchResult(rec ledger.MatchRecord) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚽ Match finished! ⚽", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	winners := teamLabel(rec.Roster.Team1)
	losers := teamLabel(rec.Roster.Team2)
	winnerScore, loserScore := rec.Score1, rec.Score2
	if rec.Winner == match.Team2 {
		winners, losers = losers, winners
		winnerScore, loserScore = loserScore, winnerScore
	}
	resultText := fmt.Sprintf("%s beat %s %d:%d", winners, losers, winnerScore, loserScore)
	if loserScore == 0 {
		resultText += " - a shutout!"
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), nil, nil))

	contextText := fmt.Sprintf("Rating: winners +%d, losers -%d, %s played", rec.WinDelta, rec.LoseDelta, rec.Duration.Round(time.Second))
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatSeasonWinner creates the Slack message for a closed season using Block Kit.
func (s *Notifier) formatSeasonWinner(result ledger.SeasonResult) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏆 Season %d is over! 🏆", result.Record.Number), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	bodyText := fmt.Sprintf("Champion: %s\nAll ratings are back to baseline. Season %d starts now - good luck!", result.Record.WinnerName, result.NewSeason)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", bodyText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates the standings message using Block Kit.
func (s *Notifier) formatLeaderboard(players []ledger.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏓 Current standings 🏓", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var lines []string
	for i, p := range players {
		lines = append(lines, fmt.Sprintf("%d. %s - %d (%dW/%dL)", i+1, p.Name(), p.Rating, p.GamesWon, p.GamesLost))
	}
	if len(lines) == 0 {
		lines = append(lines, "No players yet.")
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}
