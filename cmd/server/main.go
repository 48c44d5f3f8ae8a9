package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"github.com/tinashem/speechai/internal/config"
	"github.com/tinashem/speechai/internal/delivery"
	"github.com/tinashem/speechai/internal/domain"
	"github.com/tinashem/speechai/internal/history"
	"github.com/tinashem/speechai/internal/identity"
	"github.com/tinashem/speechai/internal/infra"
	"github.com/tinashem/speechai/internal/metrics"
	"github.com/tinashem/speechai/internal/notify"
	"github.com/tinashem/speechai/internal/speechapi"
	"github.com/tinashem/speechai/internal/stream"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// CONFIG / DB INIT
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	defer db.Close()

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	m := metrics.NewMetrics()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
		if err != nil {
			log.Fatalf("failed to init telegram notifier: %v", err)
		}
		notifier = tg
	}

	store := history.NewStore(history.StoreConfig{
		Path:        cfg.History.Path,
		MaxBlobSize: cfg.History.MaxBlobSize,
	}, zl, m)
	if err := store.Open(context.Background()); err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	// =========================================================================
	// REPOSITORIES
	// =========================================================================

	ratingsRepo := infra.NewRatingsRepo(db)
	usageRepo := infra.NewUsageRepo(db)
	logsRepo := infra.NewLogsRepo(db)

	// =========================================================================
	// IDENTITY
	// =========================================================================

	// every request carries its own identity, resolved from the bearer
	// token by the auth middleware
	verifier := identity.NewVerifier(cfg.Auth.Secret)

	// =========================================================================
	// CLIENTS (speech API / Whisper)
	// =========================================================================

	apiClient, err := speechapi.NewClient(speechapi.Config{
		BaseURL: cfg.SpeechAPI.BaseURL,
		APIKey:  cfg.SpeechAPI.APIKey,
		Timeout: cfg.SpeechAPI.Timeout,
	})
	if err != nil {
		log.Fatalf("failed to init speech api client: %v", err)
	}

	var chunker stream.ChunkTranscriber = apiClient
	if cfg.SpeechAPI.OpenAIAPIKey != "" {
		chunker = speechapi.NewWhisperTranscriber(cfg.SpeechAPI.OpenAIAPIKey)
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	speechService := domain.NewSpeechService(apiClient, store, usageRepo, notifier)
	ratingsService := domain.NewRatingsService(ratingsRepo, notifier)

	var archiveService *domain.ArchiveService
	if cfg.S3.Enabled() {
		s3Client, err := infra.NewS3Client(infra.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Secure:    cfg.S3.Secure,
		})
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		archiveService = domain.NewArchiveService(s3Client, store, notifier)
	}

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// HANDLERS
	speechHandler := delivery.NewSpeechHandler(speechService, chunker, m, logsRepo, zl)
	historyHandler := delivery.NewHistoryHandler(store, archiveService, logsRepo, zl)
	ratingsHandler := delivery.NewRatingsHandler(ratingsService)
	adminHandler := delivery.NewAdminHandler(logsRepo, usageRepo, zl)

	// ROUTES
	delivery.RegisterRoutes(
		r,
		verifier,
		m,
		speechHandler,
		historyHandler,
		ratingsHandler,
		adminHandler,
	)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// BACKGROUND JOBS
	// =========================================================================

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			ctx := context.Background()
			cutoff := time.Now().AddDate(0, 0, -30)
			if purged, err := logsRepo.PurgeOlderThan(ctx, cutoff); err != nil {
				log.Printf("[purge-logs] error: %v", err)
			} else {
				log.Printf("[purge-logs] removed %d old rows", purged)
			}
		}
	}()

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Server.Port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "speechai",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
