package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommittedEntity beschreibt einen geschriebenen oder wiederverwendeten Eintrag.
type CommittedEntity struct {
	Kind   NodeKind `json:"kind"`
	Ref    string   `json:"ref"`
	ID     uint     `json:"id"`
	Action Action   `json:"action"`
}

// CommitResult enthält die IDs aller Knoten nach dem Commit.
type CommitResult struct {
	// Primary entspricht EntityGraph.Primary
	Primary []CommittedEntity `json:"primary"`
	// Entities enthält alle Knoten in Schreibreihenfolge
	Entities []CommittedEntity `json:"entities"`
}

// Coordinator ist der einzige Schreiber. Ein Commit ist genau eine Transaktion.
type Coordinator struct {
	db      *gorm.DB
	logger  *zap.Logger
	timeout time.Duration
}

func NewCoordinator(db *gorm.DB, logger *zap.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{db: db, logger: logger, timeout: timeout}
}

// Commit schreibt den Graph in topologischer Reihenfolge. Geteilte Einträge werden per
// insert-or-fetch angelegt: verliert die Einreichung ein Rennen um denselben Dedup-Key,
// wird die Zeile des Gewinners übernommen. Schlägt irgendein Schritt fehl, wird alles
// zurückgerollt.
func (c *Coordinator) Commit(ctx context.Context, g *EntityGraph) (*CommitResult, error) {
	order, err := g.Order()
	if err != nil {
		return nil, &PersistenceError{Kind: KindInternal, Op: "order graph", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result *CommitResult
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[*Node]uint, len(order))
		actions := make(map[*Node]Action, len(order))
		res := &CommitResult{Entities: make([]CommittedEntity, 0, len(order))}

		for _, n := range order {
			id, action, err := c.write(tx, n, ids, actions)
			if err != nil {
				return classify(fmt.Sprintf("write %s %s", n.Kind, n.Ref), err)
			}
			ids[n] = id
			actions[n] = action
			res.Entities = append(res.Entities, CommittedEntity{Kind: n.Kind, Ref: n.Ref, ID: id, Action: action})
		}
		for _, n := range g.Primary {
			res.Primary = append(res.Primary, CommittedEntity{Kind: n.Kind, Ref: n.Ref, ID: ids[n], Action: actions[n]})
		}
		result = res
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, &PersistenceError{Kind: KindUnavailable, Op: "commit", Err: ctx.Err()}
		}
		return nil, classify("commit", err)
	}

	for _, e := range result.Entities {
		if e.Kind.Shared() {
			sharedEntitiesCounter.WithLabelValues(string(e.Kind), string(e.Action)).Inc()
		}
	}
	return result, nil
}

func (c *Coordinator) write(tx *gorm.DB, n *Node, ids map[*Node]uint, actions map[*Node]Action) (uint, Action, error) {
	switch n.Kind {
	case NodeLevel:
		row := *n.LevelRow
		row.ID = 0
		return c.writeShared(tx, n, &row, row.DedupKey, func() uint { return row.ID })

	case NodeBathGas:
		row := *n.BathGasRow
		row.ID = 0
		return c.writeShared(tx, n, &row, row.DedupKey, func() uint { return row.ID })

	case NodeLiterature:
		row := *n.LiteratureRow
		row.ID = 0
		row.Authors = nil
		return c.writeShared(tx, n, &row, row.DedupKey, func() uint { return row.ID })

	case NodeAuthor:
		row := *n.AuthorRow
		row.ID = 0
		return c.writeShared(tx, n, &row, row.DedupKey, func() uint { return row.ID })

	case NodeESS:
		row := *n.ESSRow
		row.ID = 0
		return c.writeShared(tx, n, &row, row.DedupKey, func() uint { return row.ID })

	case NodeAuthorship:
		// Literatur kam von einer parallelen Einreichung: deren Autorenliste gilt
		if actions[n.Literature] == ActionReuse {
			return ids[n.Author], ActionReuse, nil
		}
		row := *n.AuthorshipRow
		row.LiteratureID = ids[n.Literature]
		row.AuthorID = ids[n.Author]
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return 0, "", err
		}
		return row.AuthorID, ActionCreate, nil

	case NodeSpecies:
		row := *n.SpeciesRow
		row.ID = 0
		row.LevelID = ids[n.Level]
		if n.Literature != nil {
			id := ids[n.Literature]
			row.LiteratureID = &id
		}
		if n.ESS != nil {
			id := ids[n.ESS]
			row.ESSID = &id
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return 0, "", err
		}
		return row.ID, ActionCreate, nil

	case NodeRecord:
		row := *n.RecordRow
		row.ID = 0
		row.SpeciesID = ids[n.Species]
		row.LevelID = ids[n.Level]
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return 0, "", err
		}
		return row.ID, ActionCreate, nil

	case NodeSpeciesBathGas:
		row := *n.LinkRow
		row.SpeciesID = ids[n.Species]
		row.BathGasID = ids[n.BathGas]
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return 0, "", err
		}
		return row.BathGasID, ActionCreate, nil

	case NodeFreqScale:
		row := *n.FreqScaleRow
		row.ID = 0
		row.LevelID = ids[n.Level]
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return 0, "", err
		}
		return row.ID, ActionCreate, nil
	}
	return 0, "", fmt.Errorf("unknown node kind %q", n.Kind)
}

// writeShared schreibt einen inhaltsadressierten Eintrag. Wurde er seit der Normalisierung
// von einer anderen Einreichung angelegt, wird deren Zeile übernommen. Auch Wiederverwendungen
// werden innerhalb der Transaktion über den Dedup-Key neu aufgelöst; ExistingID stammt aus
// einem Lesezugriff vor der Transaktion.
func (c *Coordinator) writeShared(tx *gorm.DB, n *Node, row any, key string, id func() uint) (uint, Action, error) {
	if n.Action == ActionReuse {
		err := tx.Where("dedup_key = ?", key).Take(row).Error
		switch {
		case err == nil:
			if id() != n.ExistingID {
				c.logger.Warn("shared entity changed since normalization",
					zap.String("kind", string(n.Kind)), zap.Uint("expected", n.ExistingID), zap.Uint("id", id()))
			}
			return id(), ActionReuse, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, "", err
		}
		c.logger.Warn("shared entity vanished since normalization, recreating",
			zap.String("kind", string(n.Kind)), zap.Uint("expected", n.ExistingID), zap.String("ref", n.Ref))
	}
	created, err := insertOrFetch(tx, row, key)
	if err != nil {
		return 0, "", err
	}
	if !created {
		c.logger.Info("shared entity created concurrently, reusing",
			zap.String("kind", string(n.Kind)), zap.Uint("id", id()), zap.String("ref", n.Ref))
		return id(), ActionReuse, nil
	}
	return id(), ActionCreate, nil
}

// insertOrFetch legt row an oder lädt bei einer Kollision auf dedup_key die vorhandene Zeile.
// ON CONFLICT DO NOTHING lässt die Transaktion intakt, anders als ein abgefangener Unique-Fehler.
func insertOrFetch(tx *gorm.DB, row any, key string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	if err := tx.Where("dedup_key = ?", key).Take(row).Error; err != nil {
		return false, err
	}
	return false, nil
}
