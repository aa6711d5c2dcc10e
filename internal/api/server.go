package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"backsync/internal/api/handlers"
	"backsync/internal/api/middleware"
	"backsync/internal/auth"
	"backsync/internal/backoffice"
	"backsync/internal/config"
	"backsync/internal/database"
	"backsync/internal/events"
	"backsync/internal/logger"
	"backsync/internal/logsink"
	"backsync/internal/referral"
	"backsync/internal/register"
	"backsync/internal/store"
	"backsync/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, sink *logsink.Sink,
	pending store.PendingStore, referrals store.ReferralStore, publisher events.EventPublisher) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	client := backoffice.NewClient(cfg, logger)
	sessions := auth.NewSessionManager(cfg.JWTSecret)
	referralSvc := referral.NewService(client, referrals, logger)
	dispatcher := sync.NewDispatcher(db.DB, client, pending, sink, logger)
	validator := register.NewValidator(db.DB, client, pending, logger)

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	// Referral capture watches every routed GET for the ?u= parameter.
	router.Use(middleware.ReferralCapture(referralSvc))

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(db.DB, publisher, logger)
	syncHandler := handlers.NewSyncHandler(dispatcher, logger)
	logHandler := handlers.NewLogHandler(sink)
	registerHandler := handlers.NewRegisterHandler(db.DB, validator, referralSvc, publisher, logger)
	ssoHandler := handlers.NewSSOHandler(db.DB, client, sessions, cfg.FrontendURL, logger)
	referralHandler := handlers.NewReferralHandler(referralSvc, sessions, cfg.FrontendURL, logger)

	// Routes
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "backsync", "status": "ok"})
	})

	// SSO handoffs: inbound from the back office, outbound into it
	router.GET("/sso/login", ssoHandler.Login)
	router.GET("/sso/backoffice", ssoHandler.BackOfficeLogin)

	// Storefront lifecycle webhooks
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/product", webhookHandler.ProductUpserted)
		webhooks.POST("/order-completed", webhookHandler.OrderCompleted)
		webhooks.POST("/user-updated", webhookHandler.UserUpdated)
		webhooks.POST("/user-deleted", webhookHandler.UserDeleted)
	}

	v1 := router.Group("/api/v1")
	{
		// Registration
		v1.POST("/register", registerHandler.Register)
		v1.POST("/checkout/register", registerHandler.CheckoutRegister)
		v1.POST("/logout", referralHandler.Logout)

		// Referral
		referrals := v1.Group("/referral")
		{
			referrals.GET("/current", referralHandler.Current)
			referrals.GET("/link", referralHandler.Link)
		}

		// Admin
		admin := v1.Group("/admin")
		{
			admin.POST("/sync-products", syncHandler.SyncAllProducts)
			admin.POST("/products/:id/sync", syncHandler.SyncProduct)
			admin.GET("/sync-log", logHandler.View)
			admin.GET("/sync-log/download", logHandler.Download)
			admin.DELETE("/sync-log", logHandler.Clear)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter exposes the router for handler tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
