package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"RETAIL_APP_NAME",
	"RETAIL_APP_ENV",
	"RETAIL_DATABASE_DRIVER",
	"RETAIL_DATABASE_HOST",
	"RETAIL_DATABASE_PORT",
	"RETAIL_DATABASE_PASSWORD",
	"RETAIL_DATABASE_SSLMODE",
	"RETAIL_DATABASE_MAX_OPEN_CONNS",
	"RETAIL_DATABASE_MAX_IDLE_CONNS",
	"RETAIL_STORAGE_TIMEOUT",
	"RETAIL_LOCK_BACKEND",
	"RETAIL_LEDGER_INVESTOR_POOL_OWNER_ID",
	"RETAIL_DISTRIBUTION_POOL_RATIO",
	"RETAIL_AUTH_JWT_ENABLED",
	"RETAIL_AUTH_JWT_SECRET",
}

// clearEnv unsets every managed variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "retailcore", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
		assert.Equal(t, "local", cfg.Lock.Backend)
		assert.Equal(t, "0.7", cfg.Distribution.PoolRatio.String())
		assert.Equal(t, 5, cfg.Ledger.RetryAttempts)
		assert.NotEmpty(t, cfg.Ledger.InvestorPoolOwnerID)
	})

	t.Run("loads values from environment variables with RETAIL prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_APP_NAME", "test-app")
		t.Setenv("RETAIL_DATABASE_DRIVER", "sqlite")
		t.Setenv("RETAIL_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("RETAIL_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("RETAIL_STORAGE_TIMEOUT", "750ms")
		t.Setenv("RETAIL_LOCK_BACKEND", "redis")
		t.Setenv("RETAIL_DISTRIBUTION_POOL_RATIO", "0.65")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 750*time.Millisecond, cfg.Storage.Timeout)
		assert.Equal(t, "redis", cfg.Lock.Backend)
		assert.Equal(t, "0.65", cfg.Distribution.PoolRatio.String())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("RETAIL_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown lock backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_LOCK_BACKEND", "zookeeper")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock.backend")
	})

	t.Run("rejects pool ratio above one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_DISTRIBUTION_POOL_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pool_ratio")
	})

	t.Run("rejects malformed pool ratio", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_DISTRIBUTION_POOL_RATIO", "seventy")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("jwt enabled requires a secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_AUTH_JWT_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt_secret")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_APP_ENV", "production")
		t.Setenv("RETAIL_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_APP_ENV", "production")
		t.Setenv("RETAIL_DATABASE_PASSWORD", "secure-password")
		t.Setenv("RETAIL_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETAIL_APP_ENV", "production")
		t.Setenv("RETAIL_DATABASE_PASSWORD", "secure-password")
		t.Setenv("RETAIL_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("sqlite uses the path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", Path: "file::memory:"}
		assert.Equal(t, "file::memory:", cfg.DSN())
	})
}
