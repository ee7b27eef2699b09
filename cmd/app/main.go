package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"shortly-go/internal/auth"
	"shortly-go/internal/handler"
	"shortly-go/internal/i18n"
	"shortly-go/internal/middleware"
	"shortly-go/internal/repository"
	"shortly-go/internal/service"
	"shortly-go/pkg/logging"
)

func initConfig() {
	wd, _ := os.Getwd()
	log.Printf("Loading config from: %s/config.yaml", wd)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
}

func startServer(r *gin.Engine) {
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logging.Logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	conn := repository.RedisPool.Get()
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Warn("Redis connection close failed", zap.Error(err))
		}
	}()

	logging.Logger.Info("Server exiting")
}

func main() {
	initConfig()
	logging.InitLoggerFromConfig()
	logging.Logger.Info("Application started")

	repository.InitDB(logging.Logger, logging.AtomicLevel)
	repository.InitRedis()

	bundle, err := i18n.InitI18n([]string{
		"./i18n/en.toml",
		"./i18n/zh.toml",
	}, "en")
	if err != nil {
		panic(err)
	}

	baseURL := viper.GetString("server.base_url")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	codeLength := viper.GetInt("shortener.code_length")

	var geo service.GeoResolver = service.NoopGeoResolver{}
	if viper.GetBool("geo.enabled") {
		geo = service.NewIPWhoisResolver(time.Hour)
	}

	linkService := service.NewLinkService(repository.DB, repository.RedisPool, codeLength)
	clickService := service.NewClickService(repository.DB, repository.RedisPool, linkService, geo)
	statsService := service.NewStatsService(repository.DB, repository.RedisPool)
	maintenanceService := service.NewMaintenanceService(repository.DB)

	linkHandler := handler.NewLinkHandler(linkService, statsService, maintenanceService, baseURL)
	redirectHandler := handler.NewRedirectHandler(linkService, clickService)

	apiKeyProvider := auth.NewAPIKeyProvider(repository.DB)
	jwtProvider := auth.NewJWTProvider(repository.DB, viper.GetString("auth.jwt_secret"))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(bundle))

	api := r.Group("/api")
	api.Use(middleware.PrincipalMiddleware(apiKeyProvider, jwtProvider))
	{
		api.POST("/shorten", linkHandler.Shorten)

		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/links", linkHandler.List)
			protected.GET("/links/:code/stats", linkHandler.Stats)
			protected.GET("/links/:code/history", linkHandler.History)
			protected.GET("/links/:code/qr", linkHandler.QR)
			protected.PUT("/links/:code/status", linkHandler.UpdateStatus)
			protected.PUT("/links/:code", linkHandler.UpdateTargetURL)
			protected.DELETE("/links/:code", linkHandler.Delete)
			protected.GET("/me/stats", linkHandler.UserStats)
		}
	}

	// Everything that is not an API route is treated as an inbound
	// short code.
	r.NoRoute(redirectHandler.Redirect)

	c := cron.New()

	_, addErr := c.AddFunc("*/10 * * * *", func() {
		if err := maintenanceService.RollupDailyStats(); err != nil {
			logging.Logger.Error("Daily stats rollup failed", zap.Error(err))
		}
	})
	if addErr != nil {
		logging.Logger.Fatal("Failed to schedule rollup job", zap.Error(addErr))
	}

	_, addErr = c.AddFunc("0 3 * * *", func() {
		if err := maintenanceService.PurgeExpiredClicks(); err != nil {
			logging.Logger.Error("Click retention purge failed", zap.Error(err))
		}
	})
	if addErr != nil {
		logging.Logger.Fatal("Failed to schedule purge job", zap.Error(addErr))
	}

	c.Start()

	startServer(r)
}
