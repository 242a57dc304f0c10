package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"aletheia/internal/config"
	"aletheia/internal/handlers"
	"aletheia/internal/ingest"
	"aletheia/internal/jobs"
	"aletheia/internal/logging"
	"aletheia/internal/middleware"
	"aletheia/internal/services"
	"aletheia/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Aletheia Session Context Engine...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	// Topic vocabulary with hot reload
	topics, err := config.LoadTopics(cfg.TopicsPath)
	if err != nil {
		log.Fatalf("❌ Failed to load topic vocabulary: %v", err)
	}
	log.Printf("✅ Topic vocabulary loaded: %d primary, %d secondary topics",
		len(topics.Primary), len(topics.Secondary))

	// Core state
	sessions := store.NewSessionStore()
	services.InitMetrics(sessions)
	log.Println("📊 Metrics initialized")

	// Services
	extractor := services.NewTopicExtractor(topics)
	scorer := services.NewConfidenceScorer(cfg.ConfidencePrior, cfg.FreshnessWindow)
	window := services.NewContextWindowManager(sessions)
	scoring := services.NewScoringService(topics, nil, nil)
	ideas := services.NewIdeaService(scoring, cfg.IdeaTTL)
	feedback := services.NewFeedbackProcessor(sessions, scorer)

	stopWatch, err := config.WatchTopics(cfg.TopicsPath, func(updated *config.TopicsConfig) {
		extractor.Reload(updated)
		scoring.Reload(updated)
		log.Printf("🔄 Topic vocabulary reloaded: %d primary, %d secondary topics",
			len(updated.Primary), len(updated.Secondary))
	})
	if err != nil {
		log.Printf("⚠️ Topic vocabulary hot reload disabled: %v", err)
	} else {
		defer stopWatch()
	}

	// Optional semantic-memory collaborator
	var mnemosyne services.MnemosyneClient
	if cfg.MnemosyneURL != "" {
		mnemosyne = services.NewHTTPMnemosyneClient(cfg.MnemosyneURL, cfg.MnemosyneTimeout)
		log.Printf("✅ Mnemosyne client configured: %s", cfg.MnemosyneURL)
	} else {
		log.Println("⚠️ MNEMOSYNE_URL not set - running without semantic memory")
	}

	chat := services.NewChatService(
		sessions, extractor, scorer, window,
		&services.StubGenerator{},
		mnemosyne, ideas,
		cfg.ExternalCallTimeout, cfg.DefaultContextWindow,
	)

	pipeline := ingest.NewService(cfg, ideas, scoring)

	// Background retention sweep
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	retention := jobs.NewRetentionJob(sessions, cfg.RetentionWindow)
	if err := scheduler.Register("session-retention", cfg.RetentionSweepInterval, retention); err != nil {
		log.Fatalf("❌ Failed to register retention job: %v", err)
	}
	scheduler.Start()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Aletheia v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    int(cfg.IngestMaxBodySize), // PDF uploads bound the body size
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("aletheia")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Public=%d/min, Chat=%d/min, Ingest=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.PublicReadMax,
		rateLimitConfig.ChatMax,
		rateLimitConfig.IngestMax,
	)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-User-ID",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	// Global API rate limiter
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(sessions)
	chatHandler := handlers.NewChatHandler(chat, feedback)
	ideaHandler := handlers.NewIdeaHandler(ideas, pipeline)

	// Routes
	app.Get("/health", healthHandler.Handle)

	chatLimiter := middleware.ChatRateLimiter(rateLimitConfig)
	readLimiter := middleware.PublicReadRateLimiter(rateLimitConfig)
	ingestLimiter := middleware.IngestRateLimiter(rateLimitConfig)

	app.Post("/api/chat", chatLimiter, chatHandler.SendMessage)
	app.Post("/api/chat/feedback", chatLimiter, chatHandler.SubmitFeedback)
	app.Post("/api/chat/sessions", chatLimiter, chatHandler.CreateSession)
	app.Get("/api/chat/sessions", readLimiter, chatHandler.ListSessions)
	app.Get("/api/chat/sessions/:id", readLimiter, chatHandler.GetSession)
	app.Get("/api/chat/sessions/:id/history", readLimiter, chatHandler.GetHistory)
	app.Delete("/api/chat/sessions/:id", chatLimiter, chatHandler.CloseSession)

	app.Post("/api/ideas/manual", ingestLimiter, ideaHandler.SubmitManual)
	app.Post("/api/ideas/ingest/url", ingestLimiter, ideaHandler.IngestURL)
	app.Post("/api/ideas/ingest/rss", ingestLimiter, ideaHandler.IngestRSS)
	app.Post("/api/ideas/ingest/pdf", ingestLimiter, ideaHandler.IngestPDF)
	app.Get("/api/ideas/:id", readLimiter, ideaHandler.GetIdea)
	app.Post("/api/ideas/:id/approve", chatLimiter, ideaHandler.Approve)
	app.Post("/api/ideas/:id/reject", chatLimiter, ideaHandler.Reject)

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("💬 Chat endpoint: http://localhost:%s/api/chat", cfg.Port)
	log.Printf("🕐 Background jobs: session retention (every %v, window %v)",
		cfg.RetentionSweepInterval, cfg.RetentionWindow)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		scheduler.Stop()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
