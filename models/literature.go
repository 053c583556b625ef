package models

import (
	"time"
)

// Literature ist eine Literaturquelle, auf die Spezies verweisen.
// Inhaltsadressiert über DedupKey (DOI, sonst ISBN, sonst Titel/Jahr/Erstautor).
type Literature struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	DedupKey  string    `json:"-" gorm:"size:64;uniqueIndex;not null"`

	Type  string `json:"type" gorm:"size:16;not null"`
	Title string `json:"title" gorm:"size:255;not null"`
	Year  int    `json:"year" gorm:"not null;index"`

	Journal   string `json:"journal,omitempty" gorm:"size:255;not null;default:''"`
	Volume    *int   `json:"volume,omitempty"`
	Issue     *int   `json:"issue,omitempty"`
	PageStart *int   `json:"page_start,omitempty"`
	PageEnd   *int   `json:"page_end,omitempty"`

	Publisher        string `json:"publisher,omitempty" gorm:"size:255;not null;default:''"`
	Editors          string `json:"editors,omitempty" gorm:"size:255;not null;default:''"`
	Edition          string `json:"edition,omitempty" gorm:"size:50;not null;default:''"`
	ChapterTitle     string `json:"chapter_title,omitempty" gorm:"size:255;not null;default:''"`
	PublicationPlace string `json:"publication_place,omitempty" gorm:"size:255;not null;default:''"`
	Advisor          string `json:"advisor,omitempty" gorm:"size:255;not null;default:''"`

	DOI  string `json:"doi,omitempty" gorm:"column:doi;size:255;not null;default:'';index"`
	ISBN string `json:"isbn,omitempty" gorm:"column:isbn;size:20;not null;default:''"`
	URL  string `json:"url,omitempty" gorm:"column:url;size:500;not null;default:''"`

	Authors []LiteratureAuthor `json:"authors" gorm:"foreignKey:LiteratureID"`

	// Zitierform, wird beim Lesen gesetzt
	Reference string `json:"reference,omitempty" gorm:"-"`
}

// TableName gibt explizit den Tabellennamen an.
func (Literature) TableName() string {
	return "literature"
}

// Author wird über den normalisierten Namen wiederverwendet.
type Author struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	DedupKey  string    `json:"-" gorm:"size:64;uniqueIndex;not null"`
	FirstName string    `json:"first_name" gorm:"size:255;not null"`
	LastName  string    `json:"last_name" gorm:"size:255;not null"`
}

func (Author) TableName() string { return "authors" }

// LiteratureAuthor verknüpft Literatur und Autoren in Reihenfolge der Autorenliste.
type LiteratureAuthor struct {
	LiteratureID uint   `json:"-" gorm:"primaryKey"`
	AuthorID     uint   `json:"-" gorm:"primaryKey"`
	Position     int    `json:"position" gorm:"not null"`
	Author       Author `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
}

func (LiteratureAuthor) TableName() string { return "literature_authors" }
