package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/voicehouse/outreach/internal/api"
	"github.com/voicehouse/outreach/internal/auth"
	"github.com/voicehouse/outreach/internal/config"
	"github.com/voicehouse/outreach/internal/health"
	"github.com/voicehouse/outreach/internal/pkg/distlock"
	"github.com/voicehouse/outreach/internal/pkg/logger"
	"github.com/voicehouse/outreach/internal/provider"
	"github.com/voicehouse/outreach/internal/repository/postgres"
	"github.com/voicehouse/outreach/internal/service/audience"
	"github.com/voicehouse/outreach/internal/service/campaign"
	"github.com/voicehouse/outreach/internal/worker"
)

const defaultRateLimit = 120 // requests per minute per IP

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	// Database
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	logger.Info("database connected")

	// Redis is optional: without it, sync locking falls back to PG
	// advisory locks and API rate limiting is disabled.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to advisory locks",
				"addr", cfg.Redis.Addr,
				"error", err.Error())
			redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("redis connected", "addr", cfg.Redis.Addr)
		}
		pingCancel()
	}

	// Repositories
	audienceRepo := postgres.NewAudienceRepo(db)
	contactRepo := postgres.NewContactRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	// Email provider
	providerClient := provider.NewClient(provider.Config{
		BaseURL:        cfg.Provider.BaseURL,
		APIKey:         cfg.Provider.APIKey,
		TimeoutSeconds: cfg.Provider.TimeoutSeconds,
		MaxRetries:     cfg.Provider.MaxRetries,
	})

	// Services
	lockTTL := cfg.Sync.LockTTL()
	locks := func(key string) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, lockTTL)
	}
	audienceService := audience.NewService(audienceRepo, contactRepo)
	contactService := audience.NewContacts(contactRepo)
	synchronizer := audience.NewSynchronizer(audienceRepo, contactRepo, audienceService, providerClient, locks)
	campaignService := campaign.NewService(campaignRepo, audienceService, synchronizer, providerClient, jobRepo)
	checker := health.NewChecker(jobRepo)

	// Auth
	var authManager *auth.Manager
	if cfg.Auth.Enabled {
		authManager = auth.NewManager(cfg.Auth)
		authManager.StartCleanup()
		logger.Info("access token auth enabled")
	} else {
		logger.Warn("auth disabled, API is open")
	}

	var limiter *api.RateLimiter
	if redisClient != nil {
		limiter = api.NewRateLimiter(redisClient, defaultRateLimit)
	}

	// HTTP server
	handlers := api.NewHandlers(audienceService, contactService, synchronizer, campaignService, checker)
	healthHandler := api.NewHealthHandler(db, redisClient, checker)
	server := api.NewServer(cfg.Server, handlers, healthHandler, authManager, limiter)

	// Background worker
	var scheduler *worker.BroadcastScheduler
	if cfg.Worker.Enabled {
		scheduler = worker.NewBroadcastScheduler(jobRepo, campaignService, synchronizer, cfg.Worker.MaxAttempts)
		scheduler.SetPollInterval(cfg.Worker.TickInterval())
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start broadcast scheduler: %v", err)
		}
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	logger.Info("shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	if authManager != nil {
		authManager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err.Error())
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
}
