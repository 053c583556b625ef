package models

import (
	"time"

	"gorm.io/datatypes"
)

// BathGas ist ein Hilfseintrag (z.B. "N2", "Ar"), auf den Spezies verweisen.
// Wird beim ersten Gebrauch angelegt und danach nur noch wiederverwendet.
type BathGas struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	DedupKey  string    `json:"-" gorm:"size:64;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (BathGas) TableName() string {
	return "bath_gases"
}

// SpeciesBathGas ist die Verbindungstabelle Spezies <-> Badgas.
type SpeciesBathGas struct {
	SpeciesID uint    `json:"-" gorm:"primaryKey"`
	BathGasID uint    `json:"bath_gas_id" gorm:"primaryKey"`
	BathGas   BathGas `json:"bath_gas" gorm:"foreignKey:BathGasID;constraint:OnDelete:RESTRICT"`

	// Single-Exponential-Down Parameter (alpha0, T0, n), optional
	EnergyTransfer datatypes.JSON `json:"energy_transfer,omitempty"`
}

func (SpeciesBathGas) TableName() string { return "species_bath_gases" }
