package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tckdb/models"
)

// ErrSchemaNotReady: Store-Schema und erwartete Version weichen ab.
var ErrSchemaNotReady = errors.New("schema not ready")

// advisoryLockID serialisiert parallele Upgrades auf PostgreSQL ("tckdb" als int64).
const advisoryLockID = 0x74636b6462

// NotReadyError nennt beide Versionen.
type NotReadyError struct {
	Store    int
	Expected int
	Err      error // Ursache, falls die Version nicht gelesen werden konnte
}

func (e *NotReadyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema not ready: cannot read store version: %v", e.Err)
	}
	return fmt.Sprintf("schema not ready: store is at version %d, expected %d", e.Store, e.Expected)
}

func (e *NotReadyError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSchemaNotReady, e.Err}
	}
	return []error{ErrSchemaNotReady}
}

// Gatekeeper vergleicht die Store-Version mit der erwarteten und merkt sich das Ergebnis.
// Bis zum ersten erfolgreichen Check gilt das Schema als nicht bereit.
type Gatekeeper struct {
	db         *gorm.DB
	logger     *zap.Logger
	migrations []Migration
	expected   int

	mu    sync.RWMutex
	state error
}

func NewGatekeeper(db *gorm.DB, logger *zap.Logger) *Gatekeeper {
	return newGatekeeper(db, logger, All)
}

func newGatekeeper(db *gorm.DB, logger *zap.Logger, ms []Migration) *Gatekeeper {
	expected := 0
	if len(ms) > 0 {
		expected = ms[len(ms)-1].Version
	}
	return &Gatekeeper{
		db:         db,
		logger:     logger,
		migrations: ms,
		expected:   expected,
		state:      &NotReadyError{Store: -1, Expected: expected},
	}
}

// Expected liefert die einkompilierte Zielversion.
func (g *Gatekeeper) Expected() int { return g.expected }

// Version liest die aktuelle Store-Version; ohne schema_versions-Tabelle ist sie 0.
func (g *Gatekeeper) Version(ctx context.Context) (int, error) {
	return storeVersion(g.db.WithContext(ctx))
}

func storeVersion(db *gorm.DB) (int, error) {
	if !db.Migrator().HasTable(&models.SchemaVersion{}) {
		return 0, nil
	}
	var v int
	if err := db.Model(&models.SchemaVersion{}).Select("COALESCE(MAX(version), 0)").Scan(&v).Error; err != nil {
		return -1, err
	}
	return v, nil
}

// Ready liefert nil, wenn der letzte Check eine passende Version ergab.
func (g *Gatekeeper) Ready() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Check liest die Store-Version neu und aktualisiert den Zustand.
func (g *Gatekeeper) Check(ctx context.Context) error {
	v, err := g.Version(ctx)
	var state error
	switch {
	case err != nil:
		state = &NotReadyError{Store: -1, Expected: g.expected, Err: err}
	case v != g.expected:
		state = &NotReadyError{Store: v, Expected: g.expected}
	}

	g.mu.Lock()
	changed := (g.state == nil) != (state == nil)
	g.state = state
	g.mu.Unlock()

	if state == nil {
		schemaReadyGauge.Set(1)
	} else {
		schemaReadyGauge.Set(0)
	}
	if changed {
		if state == nil {
			g.logger.Info("schema ready", zap.Int("version", v))
		} else {
			g.logger.Warn("schema not ready", zap.Error(state))
		}
	}
	return state
}

// Upgrade wendet alle ausstehenden Migrationen in einer Transaktion an und prüft danach erneut.
// Liefert die Anzahl der angewendeten Migrationen.
func (g *Gatekeeper) Upgrade(ctx context.Context) (int, error) {
	applied := 0
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryLockID).Error; err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}
		}
		current, err := storeVersion(tx)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if current > g.expected {
			return fmt.Errorf("store is at version %d, newer than this binary (%d)", current, g.expected)
		}
		if current == 0 && !tx.Migrator().HasTable(&models.SchemaVersion{}) {
			if err := tx.Migrator().CreateTable(&models.SchemaVersion{}); err != nil {
				return fmt.Errorf("create schema_versions: %w", err)
			}
		}
		for _, m := range g.migrations {
			if m.Version <= current {
				continue
			}
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
			}
			if err := tx.Create(&models.SchemaVersion{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}).Error; err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			g.logger.Info("applied migration", zap.Int("version", m.Version), zap.String("name", m.Name))
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, g.Check(ctx)
}

// Pending listet die Migrationen, die noch nicht angewendet wurden.
func (g *Gatekeeper) Pending(ctx context.Context) ([]Migration, error) {
	v, err := g.Version(ctx)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, m := range g.migrations {
		if m.Version > v {
			out = append(out, m)
		}
	}
	return out, nil
}

// Schedule registriert einen periodischen Check, damit der Dienst nach einer
// externen Migration ohne Neustart bereit wird.
func (g *Gatekeeper) Schedule(c *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = g.Check(ctx)
	})
}

// Middleware lehnt Requests mit 503 ab, solange das Schema nicht bereit ist.
func (g *Gatekeeper) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.Ready(); err != nil {
			body := gin.H{"error": "schema not ready", "expected_version": g.expected}
			var nre *NotReadyError
			if errors.As(err, &nre) && nre.Store >= 0 {
				body["store_version"] = nre.Store
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, body)
			return
		}
		c.Next()
	}
}
