package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"match-escrow/internal/auth"
	"match-escrow/internal/config"
	"match-escrow/internal/database"
	"match-escrow/internal/handlers"
	"match-escrow/internal/jobs"
	"match-escrow/internal/ledger"
	"match-escrow/internal/models"
	"match-escrow/internal/repository"
	"match-escrow/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	escrowCfg := services.EscrowConfig{
		FeeBps:     cfg.Escrow.FeeBps,
		SideFeeBps: cfg.Escrow.SideFeeBps,
		Thresholds: models.GoalThresholds{
			UnderMaxGoals: cfg.Escrow.UnderMaxGoals,
			OverMinGoals:  cfg.Escrow.OverMinGoals,
		},
		Rounding:   services.RoundingPolicy(cfg.Escrow.Rounding),
		PayoutMode: services.PayoutMode(cfg.Escrow.PayoutMode),
	}
	if err := escrowCfg.Validate(); err != nil {
		log.Fatalf("Invalid escrow configuration: %v", err)
	}

	programID, err := ledger.ParseProgramID(cfg.Escrow.ProgramID)
	if err != nil {
		log.Fatalf("Invalid ESCROW_PROGRAM_ID: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	l := ledger.New(database.GetDB(), ledger.SystemClock{}, programID)
	repo := repository.NewRepository(database.GetDB())

	// Initialize services
	payoutService := services.NewPayoutService(l, repo, escrowCfg.PayoutMode)
	sideMarketService := services.NewSideMarketService(l, repo, payoutService, escrowCfg)
	matchService := services.NewMatchService(l, repo, payoutService, sideMarketService, escrowCfg)
	registryService := services.NewRegistryService(l, repo, escrowCfg)
	accountService := services.NewAccountService(l, repo, cfg.App.EnableFaucet)

	log.Printf("Escrow program %s: fee %d bps, side fee %d bps, rounding %s, payouts %s",
		programID, escrowCfg.FeeBps, escrowCfg.SideFeeBps, escrowCfg.Rounding, escrowCfg.PayoutMode)
	if cfg.App.EnableFaucet {
		log.Println("Faucet enabled: POST /api/accounts/faucet mints test funds")
	}

	// Start credit sweeper (push mode only; pull mode credits wait for withdraw)
	var sweeper *jobs.CreditSweeper
	if escrowCfg.PayoutMode == services.PayoutPush {
		sweeper = jobs.NewCreditSweeper(payoutService, cfg.Jobs.CreditSweepInterval)
		go sweeper.Start()
		log.Println("Credit sweeper started")
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(router, &handlers.Handlers{
		Auth:        handlers.NewAuthHandler(accountService, cfg.App.AuthMessage),
		Registry:    handlers.NewRegistryHandler(registryService),
		Matches:     handlers.NewMatchHandler(matchService),
		SideMarkets: handlers.NewSideMarketHandler(sideMarketService),
		Accounts:    handlers.NewAccountHandler(accountService, payoutService),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
