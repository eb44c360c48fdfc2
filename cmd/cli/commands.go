package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var (
	team1Striker  string
	team1Defender string
	team2Striker  string
	team2Defender string
	firstName     string
	lastName      string
	countryCode   string
	swapTeam      string
	announce      bool
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(addPlayerCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(seasonsCmd)
	rootCmd.AddCommand(closeSeasonCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(matchCmd)

	addPlayerCmd.Flags().StringVar(&firstName, "first-name", "", "The player's first name")
	addPlayerCmd.Flags().StringVar(&lastName, "last-name", "", "The player's last name")
	addPlayerCmd.Flags().StringVar(&countryCode, "country", "", "ISO country code")
	addPlayerCmd.MarkFlagRequired("first-name")
	addPlayerCmd.MarkFlagRequired("last-name")

	leaderboardCmd.Flags().BoolVar(&announce, "announce", false, "Also post the standings to Slack")

	matchCmd.AddCommand(matchStatusCmd)
	matchCmd.AddCommand(matchStartCmd)
	matchCmd.AddCommand(matchGoalCmd)
	matchCmd.AddCommand(matchUndoCmd)
	matchCmd.AddCommand(matchSwapPositionsCmd)
	matchCmd.AddCommand(matchSwapSidesCmd)
	matchCmd.AddCommand(matchConfirmCmd)
	matchCmd.AddCommand(matchCommitCmd)
	matchCmd.AddCommand(matchAbandonCmd)

	matchStartCmd.Flags().StringVar(&team1Striker, "team1-striker", "", "Player id of team 1's striker")
	matchStartCmd.Flags().StringVar(&team1Defender, "team1-defender", "", "Player id of team 1's defender")
	matchStartCmd.Flags().StringVar(&team2Striker, "team2-striker", "", "Player id of team 2's striker")
	matchStartCmd.Flags().StringVar(&team2Defender, "team2-defender", "", "Player id of team 2's defender")
	matchStartCmd.MarkFlagRequired("team1-striker")
	matchStartCmd.MarkFlagRequired("team1-defender")
	matchStartCmd.MarkFlagRequired("team2-striker")
	matchStartCmd.MarkFlagRequired("team2-defender")

	matchSwapPositionsCmd.Flags().StringVar(&swapTeam, "team", "", "Which team to swap (team1 or team2)")
	matchSwapPositionsCmd.MarkFlagRequired("team")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the registered players",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players")
	},
}

var addPlayerCmd = &cobra.Command{
	Use:   "add-player",
	Short: "Register a new player at the baseline rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/players", map[string]string{
			"first_name":   firstName,
			"last_name":    lastName,
			"country_code": countryCode,
		})
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the current standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/leaderboard"
		if announce {
			endpoint += "?announce=true"
		}
		return performGetRequest(endpoint)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the committed matches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var seasonsCmd = &cobra.Command{
	Use:   "seasons",
	Short: "List the closed seasons",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/seasons")
	},
}

var closeSeasonCmd = &cobra.Command{
	Use:   "close-season",
	Short: "Close the running season and reset all ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/season/close", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Drive the live match session",
}

var matchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live match session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/match")
	},
}

var matchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new match with four registered players",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/start", map[string]any{
			"team1": map[string]string{"striker_id": team1Striker, "defender_id": team1Defender},
			"team2": map[string]string{"striker_id": team2Striker, "defender_id": team2Defender},
		})
	},
}

var matchGoalCmd = &cobra.Command{
	Use:   "goal <player-id>",
	Short: "Record a goal for a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/goal", map[string]string{"player_id": args[0]})
	},
}

var matchUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last recorded goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/undo", nil)
	},
}

var matchSwapPositionsCmd = &cobra.Command{
	Use:   "swap-positions",
	Short: "Swap striker and defender within a team",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/swap-positions", map[string]string{"team": swapTeam})
	},
}

var matchSwapSidesCmd = &cobra.Command{
	Use:   "swap-sides",
	Short: "Toggle which team is displayed on the left",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/swap-sides", nil)
	},
}

var matchConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm the provisional winner",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/confirm", nil)
	},
}

var matchCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the confirmed result to the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/commit", nil)
	},
}

var matchAbandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Abandon the live match without a ledger write",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/match/abandon", nil)
	},
}

func withDryRun(endpoint string) string {
	if !dryRun {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "dry_run=true"
}

func performGetRequest(endpoint string) error {
	url := host + withDryRun(endpoint)
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string, body any) error {
	url := host + withDryRun(endpoint)
	fmt.Printf("Making request to %s\n", url)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
