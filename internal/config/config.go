// Package config reads service settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Store  StoreConfig
	Log    LogConfig
}

// ServerConfig holds HTTP listener and scheduling settings.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	CORSOrigins    []string
	SweepSchedule  string
	RequestTimeout time.Duration
}

// AuthConfig holds login flow settings.
type AuthConfig struct {
	Issuer         string
	SessionTTL     time.Duration
	OTPWindow      int
	PasswordScheme string
	BcryptCost     int
	OTPMaxFailures int
	OTPLockout     time.Duration
}

// StoreConfig selects and locates the user store.
type StoreConfig struct {
	Backend    string
	FilePath   string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// LoadDotEnv loads .env into the process environment. A missing file is
// reported through the returned error and is not fatal for callers.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load builds a Config from environment variables.
func Load() *Config {
	filePath := getEnv("DB_PATH", "")
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Second),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS"),
			SweepSchedule:  getEnv("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		},
		Auth: AuthConfig{
			Issuer:         getEnv("AUTH_ISSUER", "SharpCoderVibe"),
			SessionTTL:     getEnvAsDuration("SESSION_TTL", time.Hour),
			OTPWindow:      getEnvAsInt("OTP_WINDOW", 1),
			PasswordScheme: getEnv("PASSWORD_SCHEME", "bcrypt"),
			BcryptCost:     getEnvAsInt("BCRYPT_COST", 10),
			OTPMaxFailures: getEnvAsInt("OTP_MAX_FAILURES", 5),
			OTPLockout:     getEnvAsDuration("OTP_LOCKOUT", time.Minute),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", defaultBackend(filePath)),
			FilePath:   filePath,
			SQLitePath: getEnv("SQLITE_PATH", "vibeauth.db"),
			MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:    getEnv("MONGO_DB", "vibeauth"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// defaultBackend picks the JSON file store when DB_PATH is set and the
// document store otherwise.
func defaultBackend(filePath string) string {
	if filePath != "" {
		return BackendFile
	}
	return BackendMongo
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
