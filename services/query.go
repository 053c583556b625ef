package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"tckdb/models"
	"tckdb/schemas"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Page begrenzt Listenabfragen.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// SpeciesFilter filtert die Liste der neuesten Spezies-Versionen.
type SpeciesFilter struct {
	Identifier   string
	Charge       *int
	Multiplicity *int
	Page
}

// QueryService bündelt die lesenden Endpunkte. Jeder Zugriff prüft vorher das Gate.
type QueryService struct {
	db      *gorm.DB
	gate    Gate
	timeout time.Duration
}

func NewQueryService(db *gorm.DB, gate Gate, timeout time.Duration) *QueryService {
	return &QueryService{db: db, gate: gate, timeout: timeout}
}

func (q *QueryService) session(ctx context.Context) (*gorm.DB, context.CancelFunc, error) {
	if err := q.gate.Ready(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	return q.db.WithContext(ctx), cancel, nil
}

// GetSpecies lädt eine Spezies mit Level, Frequenzdaten und Badgasen.
func (q *QueryService) GetSpecies(ctx context.Context, id uint) (*models.Species, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var s models.Species
	err = db.Preload("Level").
		Preload("Records").
		Preload("BathGases.BathGas").
		Preload("Literature").
		Preload("Literature.Authors", orderedAuthors).
		Preload("Literature.Authors.Author").
		Preload("ESS").
		Take(&s, id).Error
	if err != nil {
		return nil, notFoundOr("get species", err)
	}
	if s.Literature != nil {
		s.Literature.Reference = FormatReference(s.Literature)
	}
	return &s, nil
}

// SpeciesHistory liefert alle Versionen derselben Identität, älteste zuerst.
func (q *QueryService) SpeciesHistory(ctx context.Context, id uint) ([]models.Species, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var s models.Species
	if err := db.Select("species_key").Take(&s, id).Error; err != nil {
		return nil, notFoundOr("get species", err)
	}
	var out []models.Species
	if err := db.Where("species_key = ?", s.SpeciesKey).Order("version ASC").Find(&out).Error; err != nil {
		return nil, classify("species history", err)
	}
	return out, nil
}

// ListSpecies liefert nur die jeweils neueste Version jeder Identität.
func (q *QueryService) ListSpecies(ctx context.Context, f SpeciesFilter) ([]models.Species, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	page := f.Page.normalized()
	tx := db.Model(&models.Species{}).
		Where("version = (SELECT MAX(s2.version) FROM species s2 WHERE s2.species_key = species.species_key)")
	if id := strings.TrimSpace(f.Identifier); id != "" {
		tx = tx.Where("identifier = ?", id)
	}
	if f.Charge != nil {
		tx = tx.Where("charge = ?", *f.Charge)
	}
	if f.Multiplicity != nil {
		tx = tx.Where("multiplicity = ?", *f.Multiplicity)
	}

	var out []models.Species
	if err := tx.Order("id ASC").Limit(page.Limit).Offset(page.Offset).Find(&out).Error; err != nil {
		return nil, classify("list species", err)
	}
	return out, nil
}

// GetLevel lädt ein Level of Theory.
func (q *QueryService) GetLevel(ctx context.Context, id uint) (*models.Level, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var l models.Level
	if err := db.Take(&l, id).Error; err != nil {
		return nil, notFoundOr("get level", err)
	}
	return &l, nil
}

// ListLevels listet Levels, optional gefiltert nach Methode (kanonisch verglichen).
func (q *QueryService) ListLevels(ctx context.Context, method string, p Page) ([]models.Level, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	p = p.normalized()
	tx := db.Model(&models.Level{})
	if method != "" {
		tx = tx.Where("method = ?", schemas.CanonicalText(method))
	}
	var out []models.Level
	if err := tx.Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, classify("list levels", err)
	}
	return out, nil
}

// ListBathGases listet alle bekannten Badgase.
func (q *QueryService) ListBathGases(ctx context.Context, p Page) ([]models.BathGas, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	p = p.normalized()
	var out []models.BathGas
	if err := db.Order("name ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, classify("list bath gases", err)
	}
	return out, nil
}

// ListFreqScales listet Skalierungsfaktoren, optional für ein Level.
func (q *QueryService) ListFreqScales(ctx context.Context, levelID uint, p Page) ([]models.FreqScale, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	p = p.normalized()
	tx := db.Model(&models.FreqScale{})
	if levelID > 0 {
		tx = tx.Where("level_id = ?", levelID)
	}
	var out []models.FreqScale
	if err := tx.Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, classify("list freq scales", err)
	}
	return out, nil
}

// GetESS lädt eine Software-Angabe.
func (q *QueryService) GetESS(ctx context.Context, id uint) (*models.ESS, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var e models.ESS
	if err := db.Take(&e, id).Error; err != nil {
		return nil, notFoundOr("get ess", err)
	}
	return &e, nil
}

// ListESS listet die bekannte Software nach Name und Version.
func (q *QueryService) ListESS(ctx context.Context, p Page) ([]models.ESS, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	p = p.normalized()
	var out []models.ESS
	if err := db.Order("name ASC").Order("version ASC").Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, classify("list ess", err)
	}
	return out, nil
}

// LiteratureFilter filtert die Literaturliste.
type LiteratureFilter struct {
	DOI  string
	Year *int
	Page
}

func orderedAuthors(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// GetLiterature lädt eine Literaturquelle mit Autoren in Reihenfolge und Zitierform.
func (q *QueryService) GetLiterature(ctx context.Context, id uint) (*models.Literature, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var l models.Literature
	if err := db.Preload("Authors", orderedAuthors).Preload("Authors.Author").Take(&l, id).Error; err != nil {
		return nil, notFoundOr("get literature", err)
	}
	l.Reference = FormatReference(&l)
	return &l, nil
}

// ListLiterature listet Literaturquellen, optional nach DOI oder Jahr gefiltert.
func (q *QueryService) ListLiterature(ctx context.Context, f LiteratureFilter) ([]models.Literature, error) {
	db, cancel, err := q.session(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	p := f.Page.normalized()
	tx := db.Model(&models.Literature{}).Preload("Authors", orderedAuthors).Preload("Authors.Author")
	if f.DOI != "" {
		tx = tx.Where("doi = ?", canonicalDOI(f.DOI))
	}
	if f.Year != nil {
		tx = tx.Where("year = ?", *f.Year)
	}
	var out []models.Literature
	if err := tx.Order("id ASC").Limit(p.Limit).Offset(p.Offset).Find(&out).Error; err != nil {
		return nil, classify("list literature", err)
	}
	for i := range out {
		out[i].Reference = FormatReference(&out[i])
	}
	return out, nil
}

// IsNotFound ist eine Abkürzung für errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
