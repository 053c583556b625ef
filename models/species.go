package models

import (
	"time"

	"gorm.io/datatypes"
)

// Species repräsentiert eine chemische Spezies in einer bestimmten Version.
// Neue Versionen werden angehängt (SupersedesID), bestehende Zeilen nie überschrieben.
type Species struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	// Identität: Hash aus kanonischem Identifier, Ladung und Multiplizität
	SpeciesKey   string `json:"-" gorm:"size:64;not null;index:idx_species_key_version,unique,priority:1"`
	Version      int    `json:"version" gorm:"not null;default:1;index:idx_species_key_version,unique,priority:2"`
	SupersedesID *uint  `json:"supersedes_id,omitempty" gorm:"index"`

	Label          string `json:"label,omitempty" gorm:"size:255;not null;default:''"`
	Identifier     string `json:"identifier" gorm:"type:text;not null"`
	IdentifierType string `json:"identifier_type" gorm:"size:16;not null"`
	Charge         int    `json:"charge"`
	Multiplicity   int    `json:"multiplicity"`

	ElectronicState  string `json:"electronic_state" gorm:"size:150;not null;default:'X'"`
	Degeneracy       *int   `json:"degeneracy,omitempty"`
	IsTS             bool   `json:"is_ts" gorm:"column:is_ts"`
	Linear           *bool  `json:"linear,omitempty"`
	PointGroup       string `json:"point_group,omitempty" gorm:"size:6;not null;default:''"`
	ExternalSymmetry *int   `json:"external_symmetry,omitempty"`

	// {"symbols": [...], "coords": [[x,y,z], ...]} in Angström, optional
	Coordinates datatypes.JSON `json:"coordinates,omitempty"`

	LevelID uint  `json:"level_id" gorm:"not null;index"`
	Level   Level `json:"level" gorm:"foreignKey:LevelID;constraint:OnDelete:RESTRICT"`

	LiteratureID *uint      `json:"literature_id,omitempty" gorm:"index"`
	Literature   *Literature `json:"literature,omitempty" gorm:"foreignKey:LiteratureID;constraint:OnDelete:RESTRICT"`

	// Software, mit der die Frequenzen und Energien berechnet wurden
	ESSID *uint `json:"ess_id,omitempty" gorm:"column:ess_id;index"`
	ESS   *ESS  `json:"ess,omitempty" gorm:"foreignKey:ESSID;constraint:OnDelete:RESTRICT"`

	Records   []FrequencyRecord `json:"records" gorm:"foreignKey:SpeciesID"`
	BathGases []SpeciesBathGas  `json:"bath_gases" gorm:"foreignKey:SpeciesID"`
}

// TableName gibt explizit den Tabellennamen an.
func (Species) TableName() string {
	return "species"
}
