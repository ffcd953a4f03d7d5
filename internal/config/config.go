package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB         DBConfig
	JWT        JWTConfig
	Server     ServerConfig
	Federation FederationConfig
	Admin      AdminConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port string
}

type FederationConfig struct {
	// BaseURL is the absolute external URL this server is reachable at;
	// every actor and announce IRI is minted under it.
	BaseURL         string
	DeliveryTimeout time.Duration
	ActorCacheTTL   time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "fedgroup"),
			Password: getEnv("DB_PASSWORD", "fedgroup_secret"),
			Name:     getEnv("DB_NAME", "fedgroup"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Federation: FederationConfig{
			BaseURL:         getEnv("FEDERATION_BASE_URL", "http://localhost:8080"),
			DeliveryTimeout: getEnvAsDuration("FEDERATION_DELIVERY_TIMEOUT", 10*time.Second),
			ActorCacheTTL:   getEnvAsDuration("FEDERATION_ACTOR_CACHE_TTL", 15*time.Minute),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@fedgroup.local"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
