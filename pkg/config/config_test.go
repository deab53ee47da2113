package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		unsetEnv(t, "DB_DRIVER", "PORT", "SQLITE_PATH", "DEFAULT_MIN_STOCK", "RECENT_TRANSACTIONS_LIMIT")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "3000", cfg.Port)
		require.Equal(t, "sqlite", cfg.DBDriver)
		require.Equal(t, "inventory.db", cfg.DSN())
		require.Equal(t, 10, cfg.DefaultMinStock)
		require.Equal(t, 100, cfg.RecentTransactionsLimit)
	})

	t.Run("PostgresDSNFromParts", func(t *testing.T) {
		unsetEnv(t, "DATABASE_URL", "DB_TIMEZONE")
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_USER", "stock")
		t.Setenv("DB_PASSWORD", "secret")
		t.Setenv("DB_NAME", "ledger")
		t.Setenv("DB_PORT", "5433")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "host=db user=stock password=secret dbname=ledger port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
	})

	t.Run("DatabaseURLWins", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://u:p@h/db")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "postgres://u:p@h/db", cfg.DSN())
	})

	t.Run("RejectsUnknownDriver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("RejectsNegativeMinStock", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("DEFAULT_MIN_STOCK", "-1")

		_, err := Load()
		require.Error(t, err)
	})
}

// unsetEnv clears keys for the duration of the test; envconfig treats an empty
// variable as set, so defaults only apply to missing ones.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
