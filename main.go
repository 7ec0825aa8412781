package main

import (
	"github.com/shawncarter/NewQuiz/config"
	"github.com/shawncarter/NewQuiz/game"
	"github.com/shawncarter/NewQuiz/hub"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/monitor"
	"github.com/shawncarter/NewQuiz/persistence"
	"github.com/shawncarter/NewQuiz/round"
	"github.com/shawncarter/NewQuiz/server"
	"github.com/shawncarter/NewQuiz/services"
	"github.com/shawncarter/NewQuiz/store"
	"github.com/shawncarter/NewQuiz/timer"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Info("Database connection successful.")

	// Metrics
	mon := monitor.NewMonitor("newquiz")
	go func() {
		if err := mon.StartServer(cfg.Server.MetricsAddress); err != nil {
			logger.Log.Errorf("Metrics server failed: %v", err)
		}
	}()

	// Shared infrastructure
	memStore := store.NewMemoryStore()
	defer memStore.Close()
	bank := round.NewQuestionBank()

	h := hub.NewHub(mon.Metrics)
	manager := game.NewManager(game.Deps{
		Store:       memStore,
		Bank:        bank,
		DB:          db,
		Broadcaster: h,
		Timers:      timer.NewManager(),
		Metrics:     mon.Metrics,
		Game:        cfg.Game,
	})
	h.BindManager(manager)

	playerService := services.NewPlayerService(manager, bank, db)

	// Start Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, h, manager, playerService)
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
