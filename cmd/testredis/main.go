package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kekopoly/dentetsu/internal/config"
	"github.com/kekopoly/dentetsu/internal/db/redis"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/economy"
	"github.com/kekopoly/dentetsu/internal/game/models"
	"github.com/kekopoly/dentetsu/internal/game/rng"
	"github.com/kekopoly/dentetsu/internal/game/turn"
	"github.com/kekopoly/dentetsu/internal/queue"
)

const checkSlot = "connectivity-check"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fmt.Printf("Attempting to connect to Redis at %s...\n", cfg.Redis.URI)
	client, err := redis.CreateClient(ctx, redis.Options{
		Addr:     cfg.Redis.URI,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger.Sugar())
	if err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Println("Successfully connected to Redis!")

	content, err := catalog.Default()
	if err != nil {
		fmt.Printf("Failed to load content: %v\n", err)
		os.Exit(1)
	}
	state, err := turn.NewGame(content, turn.Setup{
		GameID: checkSlot,
		Seats: []turn.Seat{
			{Name: "Check", Kind: models.ControlHuman},
			{Name: "Bot", Kind: models.ControlCPU, Difficulty: models.DifficultyNormal},
		},
	}, rng.New(1))
	if err != nil {
		fmt.Printf("Failed to build a sample game: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nRound-tripping a save...")
	store := redis.NewSaveStore(client)
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
	if env.State.ID != state.ID {
		fmt.Printf("Warning: loaded game %s, want %s\n", env.State.ID, state.ID)
		os.Exit(1)
	}
	fmt.Printf("Save envelope version %s round-tripped\n", env.Version)

	fmt.Println("\nRound-tripping a result through the queue keyspace...")
	q := queue.NewRedisQueue(client.Client(), logger)
	standings := economy.Standings(state)
	if err := q.SaveResult(ctx, checkSlot, standings, time.Minute); err != nil {
		fmt.Printf("Failed to store result: %v\n", err)
		os.Exit(1)
	}
	got, err := q.Result(ctx, checkSlot)
	if err != nil {
		fmt.Printf("Failed to read result: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Read back %d standings, leader %s\n", len(got), got[0].Name)
}
