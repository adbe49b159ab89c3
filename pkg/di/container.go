package di

import (
	"context"
	"fmt"
	"time"

	"speechvault/backend/internal/repository"
	"speechvault/backend/internal/service"
	"speechvault/backend/pkg/cache"
	"speechvault/backend/pkg/crypto"
	"speechvault/backend/pkg/jwt"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB            *gorm.DB
	Logger        *logger.Logger
	JWTService    *jwt.Service
	Cipher        *crypto.Cipher
	Sequences     *service.Sequences
	Records       repository.Records
	Usage         repository.Usage
	RecordStore   *service.RecordStore
	UserService   *service.UserService
	ResponseCache *cache.Cache
	Redis         *redis.Client
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig         logger.Config
	JWTSecret            string
	JWTExpiryHours       int
	EncryptionPassphrase string
	EncryptionSalt       string
	CacheTTL             time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig:   logger.DefaultConfig(),
		JWTSecret:      "",
		JWTExpiryHours: 0, // Use default
		CacheTTL:       30 * time.Second,
	}
}

// New creates a new dependency injection container. The id sequences are
// seeded from the database, so the connection must be migrated before
// this is called.
func New(ctx context.Context, db *gorm.DB, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.New(config.LoggerConfig)

	jwtService := jwt.NewService(config.JWTSecret, time.Duration(config.JWTExpiryHours)*time.Hour)

	cipher, err := crypto.NewCipher(config.EncryptionPassphrase, config.EncryptionSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive record cipher: %w", err)
	}

	records := repository.NewGormRecords(db)
	usage := repository.NewGormUsage(db)

	sequences, err := service.NewSequences(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to seed id sequences: %w", err)
	}

	recordStore := service.NewRecordStore(records, usage, cipher, sequences, log)
	userService := service.NewUserService(db, jwtService)

	responseCache := cache.NewCacheWithOptions(config.CacheTTL, time.Minute, 10000)

	return &Container{
		DB:            db,
		Logger:        log,
		JWTService:    jwtService,
		Cipher:        cipher,
		Sequences:     sequences,
		Records:       records,
		Usage:         usage,
		RecordStore:   recordStore,
		UserService:   userService,
		ResponseCache: responseCache,
		Redis:         redis.NewClient(),
	}, nil
}
