package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/pkg/config"
	"appnexus-chat/backend/pkg/di"
	"appnexus-chat/backend/pkg/logger"
	"appnexus-chat/backend/pkg/router"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting chat backend", "env", cfg.Server.Env)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// The gorm tags build (sender_id, receiver_id, timestamp desc); the
	// symmetric index makes the pair match in conversation queries cheap
	// in both directions.
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_conversation_reverse ON messages(receiver_id, sender_id, timestamp DESC)").Error; err != nil {
		log.LogError(err, "Failed to create message index", "index", "idx_conversation_reverse")
	}

	diConfig := di.DefaultConfig()
	diConfig.LoggerConfig = logConfig
	diConfig.JWTSecret = cfg.JWT.Secret
	diConfig.JWTExpiry = cfg.JWT.Expiry

	container, err := di.New(db, diConfig)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
