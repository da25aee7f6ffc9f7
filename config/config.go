// Package config provides configuration management for the accounts service.
// It handles loading and validation of configuration values from environment
// variables, with support for required variables, default values, and
// collective error reporting so a misconfigured deployment fails once with
// the full list of problems instead of one at a time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DBConfig represents configuration for the PostgreSQL connection pool.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret string        // Secret key for signing JWTs
	TokenTTL  time.Duration // Validity duration for issued tokens
	Issuer    string        // `iss` claim on issued tokens
}

// RedisConfig holds settings for the optional token denylist store.
// An empty Addr disables the denylist, making logout client-side only.
type RedisConfig struct {
	Addr     string
	Password string
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB     *DBConfig
	Auth   *AuthConfig
	Redis  *RedisConfig
	Server *ServerConfig
}

// getRequiredEnv reads a required environment variable, appending to the
// errors slice if it is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an optional environment variable with a default.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an optional environment variable parsed as an int.
// Uses defaultValue if not set; appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database configuration
	dbUser := getRequiredEnv("DB_USER", &errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errors)
	dbName := getRequiredEnv("DB_NAME", &errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errors)
	dbPoolSize := getOptionalEnvInt("DB_POOL_SIZE", 10, &errors)
	if dbPoolSize < 1 {
		errors = append(errors, fmt.Sprintf("DB_POOL_SIZE must be at least 1, got %d", dbPoolSize))
		dbPoolSize = 1
	}
	if dbPoolSize > 100 {
		errors = append(errors, fmt.Sprintf("DB_POOL_SIZE must be at most 100, got %d", dbPoolSize))
		dbPoolSize = 100
	}

	dbConfig := &DBConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  dbPoolSize,
	}

	// Auth configuration. The token TTL is configured in minutes.
	jwtSecret := getRequiredEnv("JWT_SECRET", &errors)
	ttlMinutes := getOptionalEnvInt("JWT_TTL_MINUTES", 60, &errors)
	if ttlMinutes < 1 {
		errors = append(errors, fmt.Sprintf("JWT_TTL_MINUTES must be at least 1, got %d", ttlMinutes))
		ttlMinutes = 1
	}

	authConfig := &AuthConfig{
		JWTSecret: jwtSecret,
		TokenTTL:  time.Duration(ttlMinutes) * time.Minute,
		Issuer:    getOptionalEnv("JWT_ISSUER", "accounts"),
	}

	// Redis configuration for the token denylist. Optional: without an
	// address, logout falls back to client-side token disposal.
	redisConfig := &RedisConfig{
		Addr:     getOptionalEnv("REDIS_ADDR", ""),
		Password: getOptionalEnv("REDIS_PASSWORD", ""),
	}

	// Server configuration
	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Redis:  redisConfig,
		Server: serverConfig,
	}, nil
}
