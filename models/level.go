package models

import (
	"time"

	"gorm.io/datatypes"
)

// Level beschreibt ein Level of Theory (Methode/Basissatz-Kombination).
// Zeilen sind inhaltsadressiert über DedupKey und werden nach dem Anlegen nie verändert.
type Level struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	// sha256 über die kanonische Form aller definierenden Felder
	DedupKey string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	Method               string `json:"method" gorm:"size:500;not null"`
	Basis                string `json:"basis,omitempty" gorm:"size:500;not null;default:''"`
	AuxiliaryBasis       string `json:"auxiliary_basis,omitempty" gorm:"size:500;not null;default:''"`
	Dispersion           string `json:"dispersion,omitempty" gorm:"size:500;not null;default:''"`
	Grid                 string `json:"grid,omitempty" gorm:"size:500;not null;default:''"`
	Solvent              string `json:"solvent,omitempty" gorm:"size:100;not null;default:''"`
	SolvationMethod      string `json:"solvation_method,omitempty" gorm:"size:500;not null;default:''"`
	SolvationDescription string `json:"solvation_description,omitempty" gorm:"size:1000;not null;default:''"`
	LevelArguments       string `json:"level_arguments,omitempty" gorm:"size:500;not null;default:''"`

	// Numerische Methodenparameter, z.B. {"omega": 0.2}
	Parameters datatypes.JSONMap `json:"parameters,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Level) TableName() string {
	return "levels"
}
