// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

const defaultJWTSecret = "change-me-jwt-secret"

// Config holds every runtime setting of the service.
type Config struct {
	AppPort   string
	JWTSecret string
	TokenTTL  time.Duration

	StorageDriver string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string
	StoreTimeout  time.Duration

	RabbitMQURL      string
	RabbitMQExchange string

	StaticDir   string
	CORSOrigins string

	DefaultAdminUsername string
	DefaultAdminPassword string

	MaxImageBytes int
	BodyLimit     int
}

// Load reads .env (when present) and the process environment on top of the
// defaults below.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "orderdesk.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "orderdesk")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "orders")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DEFAULT_ADMIN_USERNAME", "admin")
	v.SetDefault("DEFAULT_ADMIN_PASSWORD", "admin123")
	v.SetDefault("MAX_IMAGE_BYTES", 2<<20)
	v.SetDefault("BODY_LIMIT", 8<<20)
	v.AutomaticEnv()
	// PORT is what most hosting platforms inject.
	_ = v.BindEnv("APP_PORT", "APP_PORT", "PORT")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:              v.GetString("APP_PORT"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		TokenTTL:             v.GetDuration("TOKEN_TTL"),
		StorageDriver:        strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		MongoURI:             v.GetString("MONGO_URI"),
		MongoDatabase:        v.GetString("MONGO_DATABASE"),
		StoreTimeout:         v.GetDuration("STORE_TIMEOUT"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		RabbitMQExchange:     v.GetString("RABBITMQ_EXCHANGE"),
		StaticDir:            v.GetString("STATIC_DIR"),
		CORSOrigins:          v.GetString("CORS_ORIGINS"),
		DefaultAdminUsername: v.GetString("DEFAULT_ADMIN_USERNAME"),
		DefaultAdminPassword: v.GetString("DEFAULT_ADMIN_PASSWORD"),
		MaxImageBytes:        v.GetInt("MAX_IMAGE_BYTES"),
		BodyLimit:            v.GetInt("BODY_LIMIT"),
	}
	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("[config] WARNING: JWT_SECRET is not set, using the built-in development secret")
	}
	log.Printf("[config] APP_PORT=%s STORAGE_DRIVER=%s", cfg.AppPort, cfg.StorageDriver)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMySQL, DriverMongo:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.MaxImageBytes < 0 || c.BodyLimit <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES and BODY_LIMIT must be positive")
	}
	if c.MaxImageBytes >= c.BodyLimit {
		return fmt.Errorf("MAX_IMAGE_BYTES (%d) must be below BODY_LIMIT (%d)", c.MaxImageBytes, c.BodyLimit)
	}
	return nil
}
