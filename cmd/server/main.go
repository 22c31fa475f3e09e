package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/skylark/spectra-backend/internal/config"
	"github.com/skylark/spectra-backend/internal/handlers"
	"github.com/skylark/spectra-backend/internal/middleware"
	"github.com/skylark/spectra-backend/internal/models"
	"github.com/skylark/spectra-backend/internal/services"
	"github.com/skylark/spectra-backend/internal/utils"
	"github.com/skylark/spectra-backend/pkg/logger"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(os.Getenv("LOG_LEVEL"))
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("failed to create default admin user")
	}

	reaper := services.NewReaper(models.GetDB(), &cfg.Interview)
	if err := reaper.Start(); err != nil {
		log.Fatalf("Failed to start stale-interview reaper: %v", err)
	}
	defer reaper.Stop()

	gin.SetMode(cfg.Server.Mode)

	router := newRouter(cfg, authHandler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Info().Str("addr", addr).Msg("starting spectra server")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}

func newRouter(cfg *config.Config, authHandler *handlers.AuthHandler) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())

	// Webhook deliveries sometimes arrive with a trailing slash.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.CORS())

	db := models.GetDB()
	scoring := services.NewScoringService(&cfg.LLM)
	voice := services.NewVoiceService(&cfg.Voice)

	healthHandler := handlers.NewHealthHandler()
	candidateHandler := handlers.NewCandidateHandler(db)
	uploadHandler := handlers.NewUploadHandler(db, scoring)
	webhookHandler := handlers.NewWebhookHandler(db, scoring)
	voiceHandler := handlers.NewVoiceHandler(voice)

	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/dashboard", authHandler.DashboardLogin)
		}

		// Provider-facing webhook, rate limited but unauthenticated:
		// the provider cannot carry our JWT.
		api.POST("/webhooks/post-call", middleware.RateLimit(cfg.RateLimit.Webhook), webhookHandler.HandlePostCall)

		// Candidate-facing interview room endpoints.
		api.POST("/register", candidateHandler.Create)
		api.POST("/candidates", candidateHandler.Create)
		api.GET("/candidates/:id", candidateHandler.Get)
		api.PATCH("/candidates/:id/status", candidateHandler.UpdateStatus)
		api.POST("/candidates/:id/cv", uploadHandler.UploadCV)
		api.POST("/upload-cv", uploadHandler.UploadCV)

		voiceGroup := api.Group("/voice")
		voiceGroup.Use(middleware.RateLimit(cfg.RateLimit.Voice))
		{
			voiceGroup.GET("/token", voiceHandler.Token)
			voiceGroup.GET("/signed-url", voiceHandler.SignedURL)
			voiceGroup.GET("/agent", voiceHandler.AgentID)
		}

		// Dashboard routes require a token.
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.GET("/candidates", candidateHandler.List)
		}
	}

	return r
}
