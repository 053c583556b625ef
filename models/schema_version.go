package models

import "time"

// SchemaVersion protokolliert jede angewendete Migration.
type SchemaVersion struct {
	Version   int       `json:"version" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	AppliedAt time.Time `json:"applied_at" gorm:"not null"`
}

func (SchemaVersion) TableName() string { return "schema_versions" }
