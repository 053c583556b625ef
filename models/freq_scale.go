package models

import "time"

// FreqScale speichert einen Frequenz-Skalierungsfaktor für ein Level of Theory.
type FreqScale struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	LevelID uint    `json:"level_id" gorm:"not null;index:idx_freq_scale_level_source,unique,priority:1"`
	Level   Level   `json:"-" gorm:"foreignKey:LevelID;constraint:OnDelete:RESTRICT"`
	Factor  float64 `json:"factor" gorm:"not null"`
	Source  string  `json:"source" gorm:"size:1600;not null;index:idx_freq_scale_level_source,unique,priority:2"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (FreqScale) TableName() string {
	return "freq_scales"
}
