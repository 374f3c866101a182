package di

import (
	"time"

	"appnexus-chat/backend/internal/repository"
	"appnexus-chat/backend/internal/service"
	"appnexus-chat/backend/pkg/health"
	"appnexus-chat/backend/pkg/jwt"
	"appnexus-chat/backend/pkg/logger"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB             *gorm.DB
	Logger         *logger.Logger
	JWTService     *jwt.Service
	UserService    *service.UserService
	MessageService *service.MessageService
	Health         *health.Checker
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig logger.Config
	JWTSecret    string
	JWTExpiry    time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig: logger.DefaultConfig(),
		JWTSecret:    "",
		JWTExpiry:    0, // Use default
	}
}

// New creates a new dependency injection container
func New(db *gorm.DB, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.New(config.LoggerConfig)
	jwtService := jwt.NewService(config.JWTSecret, config.JWTExpiry)

	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	userService := service.NewUserService(userRepo, jwtService)
	messageService := service.NewMessageService(messageRepo)

	checker := health.NewChecker(log)
	checker.RegisterDatabaseCheck(db)

	return &Container{
		DB:             db,
		Logger:         log,
		JWTService:     jwtService,
		UserService:    userService,
		MessageService: messageService,
		Health:         checker,
	}, nil
}
