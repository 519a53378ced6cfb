package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kekopoly/dentetsu/internal/api"
	"github.com/kekopoly/dentetsu/internal/api/handlers"
	"github.com/kekopoly/dentetsu/internal/config"
	"github.com/kekopoly/dentetsu/internal/db/mongodb"
	"github.com/kekopoly/dentetsu/internal/db/redis"
	"github.com/kekopoly/dentetsu/internal/game/catalog"
	"github.com/kekopoly/dentetsu/internal/game/manager"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
	"github.com/kekopoly/dentetsu/internal/game/websocket"
	"github.com/kekopoly/dentetsu/internal/queue"
)

func main() {
	// a missing .env is fine, the environment and config.yaml still apply
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	content, err := loadContent(cfg.Game.ContentDir)
	if err != nil {
		sugar.Fatalf("Failed to load game content: %v", err)
	}
	sugar.Infof("Loaded %d cities, %d properties and %d cards", len(content.Cities), len(content.Properties), len(content.Cards))

	// MongoDB holds the accounts, and the saves when it is the storage backend
	mongoClient, err := mongodb.CreateClient(ctx, cfg.MongoDB.URI, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			sugar.Errorf("Failed to disconnect from MongoDB: %v", err)
		}
	}()
	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := mongodb.CreateIndexes(ctx, db, cfg.MongoDB.SavesColl, cfg.MongoDB.UsersColl); err != nil {
		sugar.Fatalf("Failed to create MongoDB indexes: %v", err)
	}
	userStore := mongodb.NewUserStore(db, cfg.MongoDB.UsersColl)

	redisClient, err := redis.CreateClient(ctx, redis.Options{
		Addr:     cfg.Redis.URI,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			sugar.Errorf("Failed to close Redis connection: %v", err)
		}
	}()

	var store persistence.Store
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		store = redis.NewSaveStore(redisClient)
	case config.BackendMongoDB:
		store = mongodb.NewSaveStore(mongoClient, cfg.MongoDB.Database, cfg.MongoDB.SavesColl)
	default:
		sugar.Fatalf("Unknown storage backend %q", cfg.Storage.Backend)
	}
	sugar.Infof("Saves are kept in %s", cfg.Storage.Backend)

	redisQueue := queue.NewRedisQueue(redisClient.Client(), logger)

	hub := websocket.NewHub(ctx, sugar, time.Duration(cfg.Game.TurnTimeout)*time.Second/2)
	go hub.Run()

	gameManager := manager.NewGameManager(ctx, content, store, sugar, manager.Options{
		InitialMoney:  cfg.Game.InitialMoney,
		TotalYears:    cfg.Game.TotalYears,
		Seed:          cfg.Game.Seed,
		MaxPlayers:    cfg.Game.MaxPlayers,
		ShopOfferSize: cfg.Game.ShopOfferSize,
		TurnTimeout:   time.Duration(cfg.Game.TurnTimeout) * time.Second,
		IdleExpiry:    time.Duration(cfg.Game.IdleGameExpiryDuration) * time.Hour,
	})
	gameManager.SetWebSocketHub(hub)

	var worker *queue.Worker
	if cfg.Storage.Autosave {
		gameManager.SetMessageQueue(redisQueue)
		worker = queue.NewWorker(redisQueue, store, gameManager, logger)

		// queues of games that died with the previous process
		cleared := worker.CleanupStaleQueues(ctx)
		sugar.Infof("Cleared %d stale queues", cleared)

		worker.Start()
		sugar.Info("Queue worker started")
	}

	server := api.NewServer(cfg, api.Dependencies{
		GameManager: gameManager,
		Hub:         hub,
		Users:       userStore,
		Results:     redisQueue,
		Health: map[string]handlers.Pinger{
			"mongodb": mongoClient,
			"redis":   redisClient,
		},
	}, sugar)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("Failed to start the server: %v", err)
		}
	}()
	sugar.Infof("Server started on port %d", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if worker != nil {
		worker.Stop()
		sugar.Info("Queue worker stopped")
	}

	sugar.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Server forced to shutdown: %v", err)
	}
	cancel()

	sugar.Info("Server exited properly")
}

func loadContent(dir string) (*catalog.Content, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.Load(dir)
}
