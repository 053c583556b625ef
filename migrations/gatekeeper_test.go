package migrations_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tckdb/migrations"
	"tckdb/models"
	"tckdb/testutil"
)

func TestFreshStoreIsNotReady(t *testing.T) {
	db := testutil.OpenDB(t)
	gate := migrations.NewGatekeeper(db, zaptest.NewLogger(t))

	// vor dem ersten Check
	assert.ErrorIs(t, gate.Ready(), migrations.ErrSchemaNotReady)

	v, err := gate.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	err = gate.Check(context.Background())
	require.ErrorIs(t, err, migrations.ErrSchemaNotReady)
	var nre *migrations.NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, 0, nre.Store)
	assert.Equal(t, migrations.Expected(), nre.Expected)
}

func TestUpgradeAppliesAllMigrations(t *testing.T) {
	db := testutil.OpenDB(t)
	gate := migrations.NewGatekeeper(db, zaptest.NewLogger(t))

	applied, err := gate.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations.All), applied)
	assert.NoError(t, gate.Ready())

	for _, table := range []any{&models.Level{}, &models.BathGas{}, &models.Species{}, &models.FrequencyRecord{}, &models.SpeciesBathGas{}, &models.FreqScale{},
		&models.Literature{}, &models.Author{}, &models.LiteratureAuthor{}, &models.ESS{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasColumn(&models.Species{}, "LiteratureID"))
	assert.True(t, db.Migrator().HasColumn(&models.Species{}, "ESSID"))

	var rows []models.SchemaVersion
	require.NoError(t, db.Order("version").Find(&rows).Error)
	require.Len(t, rows, len(migrations.All))
	assert.Equal(t, 1, rows[0].Version)

	// zweiter Lauf ist ein No-op
	applied, err = gate.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestPartialSchemaIsNotReady(t *testing.T) {
	db := testutil.OpenDB(t)
	gate := migrations.NewGatekeeper(db, zaptest.NewLogger(t))

	require.NoError(t, db.Migrator().CreateTable(&models.SchemaVersion{}))
	require.NoError(t, migrations.All[0].Up(db))
	require.NoError(t, db.Create(&models.SchemaVersion{Version: 1, Name: migrations.All[0].Name}).Error)

	var nre *migrations.NotReadyError
	require.ErrorAs(t, gate.Check(context.Background()), &nre)
	assert.Equal(t, 1, nre.Store)

	pending, err := gate.Pending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, len(migrations.All)-1)

	applied, err := gate.Upgrade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations.All)-1, applied)
	assert.NoError(t, gate.Ready())
}

func TestNewerStoreIsRejected(t *testing.T) {
	db, gate := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.SchemaVersion{Version: migrations.Expected() + 1, Name: "from the future"}).Error)

	assert.ErrorIs(t, gate.Check(context.Background()), migrations.ErrSchemaNotReady)
	_, err := gate.Upgrade(context.Background())
	assert.Error(t, err)
}

func TestMiddlewareBlocksUntilReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	gate := migrations.NewGatekeeper(db, zaptest.NewLogger(t))

	router := gin.New()
	router.Use(gate.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "schema not ready")

	_, err := gate.Upgrade(context.Background())
	require.NoError(t, err)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckReportsUnreadableStore(t *testing.T) {
	db := testutil.OpenDB(t)
	gate := migrations.NewGatekeeper(db, zaptest.NewLogger(t))
	_, err := gate.Upgrade(context.Background())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = gate.Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, migrations.ErrSchemaNotReady))
	assert.Error(t, gate.Ready())
}
