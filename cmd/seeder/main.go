package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/courtside/internal/club"
	"github.com/mauv0809/courtside/internal/database"
	"github.com/mauv0809/courtside/internal/engine"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME":           "courtside.db",
		"TURSO_PRIMARY_URL": "",
		"TURSO_AUTH_TOKEN":  "",
		"HOST_OWNER_ID":     "seeder",
		"SEED_CLUBS":        "3",
		"SEED_MATCHES":      "40",
	}
	for key := range config {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

var demoPlayers = []engine.PlayerRef{
	{Name: "ANNA", Gender: club.GenderFemale},
	{Name: "BO", Gender: club.GenderMale},
	{Name: "CARL", Gender: club.GenderMale},
	{Name: "DINA", Gender: club.GenderFemale},
	{Name: "EMIL", Gender: club.GenderMale},
	{Name: "FREJA", Gender: club.GenderFemale},
	{Name: "GUSTAV", Gender: club.GenderMale},
	{Name: "HELLE", Gender: club.GenderFemale},
	{Name: "IDA", Gender: club.GenderFemale},
	{Name: "JONAS", Gender: club.GenderMale},
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()
	store := club.New(db)

	numClubs := atoi(cfg["SEED_CLUBS"])
	numMatches := atoi(cfg["SEED_MATCHES"])
	ctx := context.Background()
	startTime := time.Now()

	for i := 0; i < numClubs; i++ {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		c, err := seedClub(ctx, store, id, cfg["HOST_OWNER_ID"], numMatches)
		if err != nil {
			log.Fatalf("Failed to seed club %s: %s", id, err)
		}
		log.Info("Seeded club", "clubID", c.ID, "version", c.Version, "matches", len(c.MatchHistory), "waiting", len(c.WaitingQueue))
	}

	duration := time.Since(startTime)
	log.Info("Successfully seeded demo clubs.", "clubs", numClubs, "duration", duration)
}

// seedClub plays numMatches random matches through the engine so the
// stored document is one the server could have produced itself.
func seedClub(ctx context.Context, store club.ClubStore, id, owner string, numMatches int) (club.Club, error) {
	now := time.Now().Add(-time.Duration(numMatches) * 20 * time.Minute)
	c := club.NewClub(id, owner, club.DefaultSport, now)
	c.ActiveUnitCount = 2
	if err := store.Create(ctx, c); err != nil {
		return c, err
	}

	apply := func(action engine.Action, payload any) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req, err := engine.ParseRequest(string(action), raw, "", true)
		if err != nil {
			return err
		}
		out := engine.Apply(c, req, now)
		if out.Kind != engine.Applied {
			log.Debug("Seed step rejected", "clubID", id, "action", action, "reason", out.Reason)
			return nil
		}
		if err := store.Update(ctx, out.State, c.Version); err != nil {
			return err
		}
		out.State.Version = c.Version + 1
		c = out.State
		return nil
	}

	if err := apply(engine.ActionBatchJoin, engine.BatchJoin{Players: demoPlayers}); err != nil {
		return c, err
	}
	for m := 0; m < numMatches; m++ {
		now = now.Add(20 * time.Minute)
		unit := m % c.ActiveUnitCount
		if occupants, busy := c.UnitOccupants[club.UnitKey(unit)]; busy {
			team := rand.Intn(2) * 2
			winners := []string{occupants[team].Name, occupants[team+1].Name}
			if err := apply(engine.ActionFinishMatch, map[string]any{"unit": unit, "winners": winners}); err != nil {
				return c, err
			}
		}
		players := make([]string, 0, 4)
		for _, e := range c.WaitingQueue[:min(4, len(c.WaitingQueue))] {
			players = append(players, e.Name)
		}
		if err := apply(engine.ActionStartMatch, map[string]any{"unit": unit, "players": players}); err != nil {
			return c, err
		}
	}
	return c, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Fatalf("Invalid number %q", s)
	}
	return n
}
