// Package integration runs the core against a real PostgreSQL started with
// testcontainers. Every test gets its own database inside one shared
// container, migrated with the embedded SQL migrations.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/retailcore/internal/infrastructure/migration"
	"github.com/erp/retailcore/internal/infrastructure/persistence"
	"github.com/erp/retailcore/migrations"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	adminDSN      string
	containerErr  error
)

// sharedContainer starts the postgres container on first use
func sharedContainer(t *testing.T) string {
	t.Helper()
	containerOnce.Do(func() {
		ctx := context.Background()
		container, containerErr = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("retailcore"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("retailcore"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if containerErr != nil {
			return
		}
		adminDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	require.NoError(t, containerErr, "failed to start PostgreSQL container")
	return adminDSN
}

// terminateContainer stops the shared container; called from TestMain
func terminateContainer() {
	if container != nil {
		_ = container.Terminate(context.Background())
	}
}

// NewTestDB creates a fresh migrated database and returns it wrapped as the
// service layer expects. Skipped under -short.
func NewTestDB(t *testing.T) (*persistence.Database, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test needs docker; skipped with -short")
	}
	dsn := sharedContainer(t)

	name := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer admin.Close()
	_, err = admin.Exec("CREATE DATABASE " + name)
	require.NoError(t, err)

	dbDSN, err := withDatabase(dsn, name)
	require.NoError(t, err)

	gdb, err := gorm.Open(gormpostgres.Open(dbDSN), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	migrateUp(t, sqlDB)

	db := &persistence.Database{DB: gdb}
	t.Cleanup(func() {
		_ = db.Close()
		cleanup, err := sql.Open("postgres", dsn)
		if err != nil {
			return
		}
		defer cleanup.Close()
		_, _ = cleanup.Exec("DROP DATABASE IF EXISTS " + name + " WITH (FORCE)")
	})
	return db, dbDSN
}

// migrateUp applies the embedded migrations on a separate handle, since
// closing the migrator closes the handle it was given
func migrateUp(t *testing.T, sqlDB *sql.DB) {
	t.Helper()
	var dbName string
	require.NoError(t, sqlDB.QueryRow("SELECT current_database()").Scan(&dbName))

	dsn, err := withDatabase(adminDSN, dbName)
	require.NoError(t, err)
	handle, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	m, err := migration.NewFromFS(handle, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	require.NoError(t, m.Up())
}

func withDatabase(dsn, name string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	u.Path = "/" + name
	return u.String(), nil
}
