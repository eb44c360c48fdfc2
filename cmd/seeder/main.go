package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/mkrogh/kickerledger/internal/database"
	"github.com/mkrogh/kickerledger/internal/ledger"
	"github.com/mkrogh/kickerledger/internal/match"
	"github.com/mkrogh/kickerledger/internal/metrics"
)

const numMatches = 200

// Simplified config loading for the script
func loadDBName() string {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	if name, ok := os.LookupEnv("DB_NAME"); ok {
		return name
	}
	return "kicker.db"
}

func main() {
	log.Info("Starting database seeder...")
	dbName := loadDBName()

	db, teardown, err := database.InitDB(dbName, "", "", "./migrations")
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()

	store := ledger.New(db, metrics.NewMock())

	names := [][2]string{
		{"Anna", "Larsen"},
		{"Bo", "Jensen"},
		{"Carla", "Meyer"},
		{"Dan", "Holm"},
		{"Eva", "Nygaard"},
		{"Finn", "Sørensen"},
	}
	players := make([]ledger.Player, 0, len(names))
	for _, n := range names {
		p, err := store.AddPlayer(n[0], n[1], "DK")
		if err != nil {
			log.Fatalf("Failed to seed player %s %s: %s", n[0], n[1], err)
		}
		players = append(players, p)
	}
	log.Info("Seeded players.", "count", len(players))

	startTime := time.Now()
	for i := 0; i < numMatches; i++ {
		if err := playRandomMatch(store, players); err != nil {
			log.Fatalf("Failed to seed match %d: %s", i+1, err)
		}
		if (i+1)%50 == 0 {
			log.Info("Seeded matches", "completed", i+1, "total", numMatches)
		}
	}
	log.Info("Successfully seeded all matches.", "duration", time.Since(startTime))
}

// playRandomMatch drives a full session with random scorers and commits the
// result, exactly like the live flow would.
func playRandomMatch(store ledger.LedgerStore, players []ledger.Player) error {
	picks := rand.Perm(len(players))[:4]
	ref := func(i int) match.PlayerRef {
		p := players[picks[i]]
		return match.PlayerRef{ID: p.ID, Name: p.Name()}
	}
	team1 := match.Lineup{Striker: ref(0), Defender: ref(1)}
	team2 := match.Lineup{Striker: ref(2), Defender: ref(3)}

	session, err := match.NewSession(team1, team2)
	if err != nil {
		return err
	}
	scorers := []string{team1.Striker.ID, team1.Defender.ID, team2.Striker.ID, team2.Defender.ID}
	for session.State() != match.StateProvisionalWin {
		if err := session.RecordGoal(scorers[rand.Intn(len(scorers))]); err != nil {
			return err
		}
	}
	summary, err := session.ConfirmWin()
	if err != nil {
		return err
	}
	_, err = store.CommitMatch(context.Background(), summary)
	return err
}
