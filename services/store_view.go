package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tckdb/models"
)

// StoreView ist der lesende Zugriff, den der Normalizer braucht.
// Alle Methoden liefern ErrNotFound, wenn nichts passt.
type StoreView interface {
	LevelByKey(ctx context.Context, key string) (*models.Level, error)
	LevelByID(ctx context.Context, id uint) (*models.Level, error)
	BathGasByKey(ctx context.Context, key string) (*models.BathGas, error)
	SpeciesByID(ctx context.Context, id uint) (*models.Species, error)
	LiteratureByKey(ctx context.Context, key string) (*models.Literature, error)
	LiteratureByID(ctx context.Context, id uint) (*models.Literature, error)
	AuthorByKey(ctx context.Context, key string) (*models.Author, error)
	ESSByKey(ctx context.Context, key string) (*models.ESS, error)
	ESSByID(ctx context.Context, id uint) (*models.ESS, error)
}

// GormStoreView implementiert StoreView auf einer gorm-Verbindung.
type GormStoreView struct {
	db *gorm.DB
}

func NewGormStoreView(db *gorm.DB) *GormStoreView {
	return &GormStoreView{db: db}
}

func (v *GormStoreView) LevelByKey(ctx context.Context, key string) (*models.Level, error) {
	var l models.Level
	if err := v.db.WithContext(ctx).Where("dedup_key = ?", key).Take(&l).Error; err != nil {
		return nil, notFoundOr("load level", err)
	}
	return &l, nil
}

func (v *GormStoreView) LevelByID(ctx context.Context, id uint) (*models.Level, error) {
	var l models.Level
	if err := v.db.WithContext(ctx).Take(&l, id).Error; err != nil {
		return nil, notFoundOr("load level", err)
	}
	return &l, nil
}

func (v *GormStoreView) BathGasByKey(ctx context.Context, key string) (*models.BathGas, error) {
	var bg models.BathGas
	if err := v.db.WithContext(ctx).Where("dedup_key = ?", key).Take(&bg).Error; err != nil {
		return nil, notFoundOr("load bath gas", err)
	}
	return &bg, nil
}

func (v *GormStoreView) SpeciesByID(ctx context.Context, id uint) (*models.Species, error) {
	var s models.Species
	if err := v.db.WithContext(ctx).Take(&s, id).Error; err != nil {
		return nil, notFoundOr("load species", err)
	}
	return &s, nil
}

func (v *GormStoreView) LiteratureByKey(ctx context.Context, key string) (*models.Literature, error) {
	var l models.Literature
	if err := v.db.WithContext(ctx).Where("dedup_key = ?", key).Take(&l).Error; err != nil {
		return nil, notFoundOr("load literature", err)
	}
	return &l, nil
}

func (v *GormStoreView) LiteratureByID(ctx context.Context, id uint) (*models.Literature, error) {
	var l models.Literature
	if err := v.db.WithContext(ctx).Take(&l, id).Error; err != nil {
		return nil, notFoundOr("load literature", err)
	}
	return &l, nil
}

func (v *GormStoreView) AuthorByKey(ctx context.Context, key string) (*models.Author, error) {
	var a models.Author
	if err := v.db.WithContext(ctx).Where("dedup_key = ?", key).Take(&a).Error; err != nil {
		return nil, notFoundOr("load author", err)
	}
	return &a, nil
}

func (v *GormStoreView) ESSByKey(ctx context.Context, key string) (*models.ESS, error) {
	var e models.ESS
	if err := v.db.WithContext(ctx).Where("dedup_key = ?", key).Take(&e).Error; err != nil {
		return nil, notFoundOr("load ess", err)
	}
	return &e, nil
}

func (v *GormStoreView) ESSByID(ctx context.Context, id uint) (*models.ESS, error) {
	var e models.ESS
	if err := v.db.WithContext(ctx).Take(&e, id).Error; err != nil {
		return nil, notFoundOr("load ess", err)
	}
	return &e, nil
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return classify(op, err)
}
