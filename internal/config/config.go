// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds gateway configuration loaded from file or environment variables.
// The database, Redis, storage, and auth settings all point at surfaces of the
// managed backend platform; the gateway owns none of that infrastructure.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	AuthURL       string `mapstructure:"AUTH_URL"`
	AuthAnonKey   string `mapstructure:"AUTH_ANON_KEY"`
	AuthJWTSecret string `mapstructure:"AUTH_JWT_SECRET"`

	StorageEndpoint  string `mapstructure:"STORAGE_ENDPOINT"`
	StorageAccessKey string `mapstructure:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `mapstructure:"STORAGE_SECRET_KEY"`
	StorageBucket    string `mapstructure:"STORAGE_BUCKET"`
	StoragePublicURL string `mapstructure:"STORAGE_PUBLIC_URL"`
	StorageUseSSL    bool   `mapstructure:"STORAGE_USE_SSL"`

	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars and defaults cover development.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8476")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "wall")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "wall")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("AUTH_URL", "http://localhost:9999")
	viper.SetDefault("AUTH_ANON_KEY", "")
	viper.SetDefault("AUTH_JWT_SECRET", "dev-jwt-secret-change-in-production")
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_ACCESS_KEY", "wall")
	viper.SetDefault("STORAGE_SECRET_KEY", "password")
	viper.SetDefault("STORAGE_BUCKET", "post-images")
	viper.SetDefault("STORAGE_PUBLIC_URL", "")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures required configuration values are present and meet security
// standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AuthJWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.StorageBucket == "" {
		return errors.New("STORAGE_BUCKET is required")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.AuthJWTSecret == "dev-jwt-secret-change-in-production" {
			return errors.New("AUTH_JWT_SECRET must be changed from the default value in production")
		}
		if len(c.AuthJWTSecret) < 32 {
			return errors.New("AUTH_JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. Platform databases should be reached over SSL.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
