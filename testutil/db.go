// Package testutil stellt SQLite-Datenbanken für Tests bereit.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tckdb/migrations"
	"tckdb/storage"
)

// OpenDB öffnet eine leere SQLite-Datenbank im Temp-Verzeichnis des Tests.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tckdb.db")
	db, err := gorm.Open(sqlite.Open(storage.SQLiteDSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewDB liefert eine vollständig migrierte Datenbank und den zugehörigen Gatekeeper.
func NewDB(t testing.TB) (*gorm.DB, *migrations.Gatekeeper) {
	t.Helper()
	db := OpenDB(t)
	gate := migrations.NewGatekeeper(db, zaptest.NewLogger(t))
	_, err := gate.Upgrade(context.Background())
	require.NoError(t, err)
	require.NoError(t, gate.Ready())
	return db, gate
}
