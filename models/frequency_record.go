package models

import (
	"time"

	"gorm.io/datatypes"
)

// FrequencyRecord bündelt die Rechenergebnisse einer Spezies auf genau einem Level of Theory.
// Frequenzen in cm^-1, Energien in Hartree.
type FrequencyRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	SpeciesID uint `json:"species_id" gorm:"not null;index:idx_record_species_level,unique,priority:1"`
	LevelID   uint `json:"level_id" gorm:"not null;index:idx_record_species_level,unique,priority:2"`
	Level     Level `json:"-" gorm:"foreignKey:LevelID;constraint:OnDelete:RESTRICT"`

	Frequencies      datatypes.JSONSlice[float64] `json:"frequencies"`
	ElectronicEnergy *float64                     `json:"electronic_energy,omitempty"`
	ZPE              *float64                     `json:"zpe,omitempty" gorm:"column:zpe"`
}

func (FrequencyRecord) TableName() string { return "frequency_records" }
