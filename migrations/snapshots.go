package migrations

import (
	"time"

	"gorm.io/datatypes"

	"tckdb/models"
)

// Eingefrorene Tabellenstände für Migrationen, deren Modelle sich später geändert haben.
// Spätere Spalten kommen über eigene Migrationen hinzu.

// speciesV2 ist die Tabelle species, wie Migration 2 sie anlegt.
type speciesV2 struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	SpeciesKey   string `gorm:"size:64;not null;index:idx_species_key_version,unique,priority:1"`
	Version      int    `gorm:"not null;default:1;index:idx_species_key_version,unique,priority:2"`
	SupersedesID *uint  `gorm:"index"`

	Label          string `gorm:"size:255;not null;default:''"`
	Identifier     string `gorm:"type:text;not null"`
	IdentifierType string `gorm:"size:16;not null"`
	Charge         int
	Multiplicity   int

	ElectronicState  string `gorm:"size:150;not null;default:'X'"`
	Degeneracy       *int
	IsTS             bool `gorm:"column:is_ts"`
	Linear           *bool
	PointGroup       string `gorm:"size:6;not null;default:''"`
	ExternalSymmetry *int

	Coordinates datatypes.JSON

	LevelID uint         `gorm:"not null;index"`
	Level   models.Level `gorm:"foreignKey:LevelID;constraint:OnDelete:RESTRICT"`
}

func (speciesV2) TableName() string { return "species" }
