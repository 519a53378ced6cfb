package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kekopoly/dentetsu/internal/config"
	"github.com/kekopoly/dentetsu/internal/db/mongodb"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

const checkSlot = "connectivity-check"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// MONGODB_URI overrides mongodb.uri through the config layer
	uri := cfg.MongoDB.URI

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	fmt.Printf("Attempting to connect to MongoDB at %s...\n", uri)
	client, err := mongodb.CreateClient(ctx, uri, sugar)
	if err != nil {
		fmt.Printf("Failed to connect to MongoDB: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx); err != nil {
		fmt.Printf("Failed to ping MongoDB: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Successfully connected to MongoDB!")

	db := client.Database(cfg.MongoDB.Database)
	if err := mongodb.CreateIndexes(ctx, db, cfg.MongoDB.SavesColl, cfg.MongoDB.UsersColl); err != nil {
		fmt.Printf("Failed to create indexes: %v\n", err)
		os.Exit(1)
	}

	state, err := sampleState()
	if err != nil {
		fmt.Printf("Failed to build a sample game: %v\n", err)
		os.Exit(1)
	}

	store := mongodb.NewSaveStore(client, cfg.MongoDB.Database, cfg.MongoDB.SavesColl)
	fmt.Printf("\nRound-tripping a save through %s.%s...\n", cfg.MongoDB.Database, cfg.MongoDB.SavesColl)
	if err := store.Save(ctx, checkSlot, state); err != nil {
		fmt.Printf("Failed to save: %v\n", err)
		os.Exit(1)
	}
	env, err := store.Load(ctx, checkSlot)
	if err != nil {
		fmt.Printf("Failed to load: %v\n", err)
		os.Exit(1)
	}
	if err := store.DeleteSlot(ctx, checkSlot); err != nil {
		fmt.Printf("Failed to delete the check slot: %v\n", err)
		os.Exit(1)
	}

	if env.State.ID != state.ID || len(env.State.Players) != len(state.Players) {
		fmt.Printf("Warning: loaded state doesn't match: got game %s with %d players\n", env.State.ID, len(env.State.Players))
		os.Exit(1)
	}
	fmt.Printf("Save envelope version %s round-tripped at %s\n", env.Version, env.SavedAt.Format(time.RFC3339))

	collections, err := db.ListCollectionNames(ctx, map[string]interface{}{})
	if err != nil {
		fmt.Printf("Failed to list collections: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nCollections in database:")
	for _, collection := range collections {
		fmt.Printf("- %s\n", collection)
	}
}

func sampleState() (models.GameState, error) {
	content, err := catalog.Default()
	if err != nil {
		return models.GameState{}, err
	}
	return turn.NewGame(content, turn.Setup{
		GameID: checkSlot,
		Seats: []turn.Seat{
			{Name: "Check", Kind: models.ControlHuman},
			{Name: "Bot", Kind: models.ControlCPU, Difficulty: models.DifficultyNormal},
		},
	}, rng.New(1))
}
