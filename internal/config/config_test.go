package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "AUTH_ISSUER", "SESSION_TTL", "OTP_WINDOW", "PASSWORD_SCHEME",
		"BCRYPT_COST", "STORE_BACKEND", "DB_PATH", "SQLITE_PATH", "MONGO_URI",
		"MONGO_DB", "CORS_ORIGINS", "LOG_LEVEL", "SESSION_SWEEP_SCHEDULE",
		"OTP_MAX_FAILURES", "OTP_LOCKOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, "@every 10m", cfg.Server.SweepSchedule)
	require.Nil(t, cfg.Server.CORSOrigins)
	require.Equal(t, "SharpCoderVibe", cfg.Auth.Issuer)
	require.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, 1, cfg.Auth.OTPWindow)
	require.Equal(t, "bcrypt", cfg.Auth.PasswordScheme)
	require.Equal(t, 5, cfg.Auth.OTPMaxFailures)
	require.Equal(t, time.Minute, cfg.Auth.OTPLockout)
	require.Equal(t, BackendMongo, cfg.Store.Backend)
	require.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
	require.Equal(t, "vibeauth", cfg.Store.MongoDB)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_ISSUER", "Acme")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("OTP_WINDOW", "2")
	t.Setenv("PASSWORD_SCHEME", "sha256")
	t.Setenv("OTP_MAX_FAILURES", "3")
	t.Setenv("OTP_LOCKOUT", "5m")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com,")

	cfg := Load()

	require.Equal(t, "9000", cfg.Server.Port)
	require.Equal(t, "Acme", cfg.Auth.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.SessionTTL)
	require.Equal(t, 2, cfg.Auth.OTPWindow)
	require.Equal(t, "sha256", cfg.Auth.PasswordScheme)
	require.Equal(t, 3, cfg.Auth.OTPMaxFailures)
	require.Equal(t, 5*time.Minute, cfg.Auth.OTPLockout)
	require.Equal(t, BackendSQLite, cfg.Store.Backend)
	require.Equal(t, "/tmp/x.db", cfg.Store.SQLitePath)
	require.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_DBPathSelectsFileBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "users.json")

	cfg := Load()

	require.Equal(t, BackendFile, cfg.Store.Backend)
	require.Equal(t, "users.json", cfg.Store.FilePath)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTP_WINDOW", "two")
	t.Setenv("SESSION_TTL", "forever")

	cfg := Load()

	require.Equal(t, 1, cfg.Auth.OTPWindow)
	require.Equal(t, time.Hour, cfg.Auth.SessionTTL)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set
	require.NoError(t, os.Unsetenv("AUTH_ISSUER"))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUTH_ISSUER=FromDotEnv\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	require.Equal(t, "FromDotEnv", Load().Auth.Issuer)

	require.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
