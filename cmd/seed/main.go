// Seed is a one-shot batch writer that inserts the starter catalog,
// keyed by slug: rerunning it updates the existing rows instead of
// duplicating them. Run out-of-band with database credentials.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"retrodrome/backend/internal/config"
	"retrodrome/backend/internal/database"
	"retrodrome/backend/internal/models"
	"retrodrome/backend/internal/repository"
)

func init() {
	config.LoadConfig()
}

func starterCatalog() []models.Game {
	games := []models.Game{
		{
			Slug:        "super-mario-bros",
			Title:       "Super Mario Bros",
			Platform:    "nes",
			Year:        1985,
			Description: "<p>The classic platformer that started it all. Join Mario on his quest to rescue Princess Toadstool from the evil Bowser.</p>",
			Featured:    true,
		},
		{
			Slug:        "sonic-the-hedgehog",
			Title:       "Sonic the Hedgehog",
			Platform:    "genesis",
			Year:        1991,
			Description: "<p>Speed through loop-de-loops and collect rings as Sonic in this iconic Sega Genesis title.</p>",
			Featured:    true,
		},
		{
			Slug:        "street-fighter-ii",
			Title:       "Street Fighter II",
			Platform:    "snes",
			Year:        1992,
			Description: "<p>The legendary fighting game. Choose your fighter and battle opponents from around the world.</p>",
			Featured:    true,
		},
		{
			Slug:        "pokemon-red",
			Title:       "Pokemon Red",
			Platform:    "gb",
			Year:        1996,
			Description: "<p>Begin your journey as a Pokemon trainer. Catch, train, and battle your way to become the Pokemon Champion.</p>",
			Featured:    true,
		},
		{
			Slug:        "the-legend-of-zelda",
			Title:       "The Legend of Zelda",
			Platform:    "nes",
			Year:        1986,
			Description: "<p>Explore the vast land of Hyrule and rescue Princess Zelda from the evil Ganon in this groundbreaking action-adventure.</p>",
			Featured:    true,
		},
	}

	tags := map[string][]string{
		"super-mario-bros":    {"platformer", "classic", "nintendo"},
		"sonic-the-hedgehog":  {"platformer", "speed", "sega"},
		"street-fighter-ii":   {"fighting", "arcade", "multiplayer"},
		"pokemon-red":         {"rpg", "adventure", "pokemon"},
		"the-legend-of-zelda": {"adventure", "action", "nintendo"},
	}
	for i := range games {
		games[i].SetTags(tags[games[i].Slug])
		games[i].SetScreenshots([]string{})
	}
	return games
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(config.AppConfig.DatabaseURL)
	repo := repository.NewGameRepository(database.DB)

	games := starterCatalog()
	if err := repo.SeedBatch(context.Background(), games); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	logger.Info("seeded games", zap.Int("count", len(games)))
}
