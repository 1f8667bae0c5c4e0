package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/app/echo-server/router"
	"github.com/Kkibe/spin-and-win-to-mpesa/business/ledger"
	"github.com/Kkibe/spin-and-win-to-mpesa/business/payment"
	userService "github.com/Kkibe/spin-and-win-to-mpesa/business/user"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/middleware"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/repository/daraja"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/repository/paystack"
	psqlRepo "github.com/Kkibe/spin-and-win-to-mpesa/internal/repository/postgres"
	redisRepo "github.com/Kkibe/spin-and-win-to-mpesa/internal/repository/redis"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/rest"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/config"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/database"
	redisdb "github.com/Kkibe/spin-and-win-to-mpesa/pkg/database/redis"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Spin & Win", "version", cfg.App.Version)

	// the process must not become ready against a dead store
	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisdb.CloseRedisClient(redisClient)

	metrics.Init()

	// Init gateway adapters
	paystackRepo := paystack.NewPaystackRepository(
		paystack.PaystackConfig{
			SecretKey: cfg.Paystack.SecretKey,
			BaseURL:   cfg.Paystack.BaseURL,
		},
	)

	darajaRepo := daraja.NewDarajaRepository(
		daraja.DarajaConfig{
			ConsumerKey:    cfg.Daraja.ConsumerKey,
			ConsumerSecret: cfg.Daraja.ConsumerSecret,
			ShortCode:      cfg.Daraja.ShortCode,
			Passkey:        cfg.Daraja.Passkey,
			BaseURL:        cfg.Daraja.BaseURL,
			CallbackURL:    cfg.Daraja.CallbackURL,
		},
	)

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	chargeRepo := psqlRepo.NewChargeRepository(db)
	sessionRepo := redisRepo.NewSessionRepository(redisClient)

	sessionTTL := time.Duration(cfg.Session.CookieTTLHours) * time.Hour
	tokenTTL := time.Duration(cfg.Session.TokenTTLHours) * time.Hour

	// Init service
	usrService := userService.NewUserService(userRepo, sessionRepo, validate, cfg.JWT.SecretKey, sessionTTL, tokenTTL)
	ledgerService := ledger.NewLedgerService(userRepo, sessionRepo)
	paymentService := payment.NewPaymentService(chargeRepo, ledgerService, paystackRepo, darajaRepo)

	cookieCfg := rest.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    sessionTTL,
		Secure: cfg.App.Environment != "development",
	}

	// Init handler
	userHandler := rest.NewUserHandler(usrService, sessionRepo, cookieCfg)
	ledgerHandler := rest.NewLedgerHandler(ledgerService)
	paymentHandler := rest.NewPaymentHandler(paymentService)
	pagesHandler := rest.NewPagesHandler(sessionRepo)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	// Auth gates
	authRequired := middleware.RequireAuthenticated(cfg.Session.CookieName, sessionRepo, userRepo)
	anonymousOnly := middleware.RequireAnonymous(cfg.Session.CookieName, sessionRepo)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	router.SetupAuthRoutes(e, userHandler, anonymousOnly)
	router.SetupUserRoutes(e, userHandler, ledgerHandler, authRequired, adminOnly)
	router.SetupPaymentRoutes(e, paymentHandler, authRequired)
	router.SetupPageRoutes(e, pagesHandler, authRequired, anonymousOnly)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
