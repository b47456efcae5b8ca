package persistence

import (
	"context"
	"testing"

	"github.com/erp/retailcore/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDatabase_Sqlite(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.Ping(context.Background()))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNewDatabase_WithLogger(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "sqlite", Path: "file:logged?mode=memory&cache=shared"}
	db, err := NewDatabase(cfg, Options{Logger: zap.NewNop(), LogLevel: "warn"})
	require.NoError(t, err)
	defer db.Close()

	assert.NotNil(t, db.DB.Logger)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDatabase_AutoMigrateCreatesTables(t *testing.T) {
	db := newTestDatabase(t)

	for _, table := range []string{
		"inventory_items", "stock_counters", "ledger_accounts", "ledger_entries",
		"transfers", "transfer_lines", "transfer_transitions",
		"investors", "capital_contributions", "distributions", "distribution_details",
		"outbox_events",
	} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestDatabase_Close(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectClose()
	db := &Database{DB: gormDB}
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
