package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"speechvault/backend/internal/models"
	"speechvault/backend/pkg/config"
	"speechvault/backend/pkg/di"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/metrics"
	"speechvault/backend/pkg/router"
	"speechvault/backend/pkg/secrets"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.New()

	logConfig := logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format == "json",
	}
	appLogger := logger.New(logConfig)
	logger.SetGlobal(appLogger)

	// Secrets manager resolves the encryption passphrase and JWT secret.
	// Falls back to environment variables when Vault is not configured.
	if err := secrets.Init(appLogger); err != nil {
		appLogger.Warn("secrets manager unavailable, using environment fallback", "error", err.Error())
	}

	ctx := context.Background()
	passphrase := secrets.GetSecretWithDefault(ctx, secrets.KeyEncryptionPassphrase, cfg.Encryption.Passphrase)
	if passphrase == "" {
		appLogger.Error("no encryption passphrase configured, refusing to start")
		os.Exit(1)
	}
	jwtSecret := secrets.GetSecretWithDefault(ctx, secrets.KeyJWTSecret, cfg.JWT.Secret)

	db, err := setupDatabase()
	if err != nil {
		appLogger.LogError(err, "failed to setup database")
		os.Exit(1)
	}

	container, err := di.New(ctx, db, &di.Config{
		LoggerConfig:         logConfig,
		JWTSecret:            jwtSecret,
		JWTExpiryHours:       int(cfg.JWT.ExpiryHours.Hours()),
		EncryptionPassphrase: passphrase,
		EncryptionSalt:       cfg.Encryption.Salt,
		CacheTTL:             cfg.Cache.TTL,
	})
	if err != nil {
		appLogger.LogError(err, "failed to build application container")
		os.Exit(1)
	}

	// Observability
	shutdownTracing := metrics.SetupTracing("speechvault")
	defer shutdownTracing()
	metrics.SetupMeterProvider()

	r := router.New(container)
	r.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		appLogger.Info("server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.LogError(err, "server failed")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	appLogger.Info("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.LogError(err, "forced server shutdown")
		os.Exit(1)
	}

	appLogger.Info("server shutdown complete")
}

// setupDatabase opens the connection and runs migrations for every
// record collection
func setupDatabase() (*gorm.DB, error) {
	db, err := config.NewDB()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.AudioFile{},
		&models.Transcription{},
		&models.Translation{},
		&models.SpeechToSpeech{},
		&models.StreamingSession{},
		&models.TextToSpeech{},
		&models.ActivityLog{},
		&models.UsageTotals{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
