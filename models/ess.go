package models

import "time"

// ESS ist eine Electronic-Structure-Software (z.B. Gaussian 16 Rev. C.01).
// Inhaltsadressiert über Name, Version und Revision; Zeilen werden nie verändert.
type ESS struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	DedupKey  string    `json:"-" gorm:"size:64;uniqueIndex;not null"`

	Name     string `json:"name" gorm:"size:100;not null"`
	Version  string `json:"version,omitempty" gorm:"size:100;not null;default:''"`
	Revision string `json:"revision,omitempty" gorm:"size:100;not null;default:''"`
	URL      string `json:"url" gorm:"column:url;size:255;not null"`
}

func (ESS) TableName() string { return "ess" }
