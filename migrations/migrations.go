// Package migrations enthält die einkompilierten Schema-Migrationen und den Gatekeeper,
// der Lese- und Schreibzugriffe erst bei passender Schema-Version freigibt.
package migrations

import (
	"gorm.io/gorm"

	"tckdb/models"
)

// Migration ist ein Schritt von Version-1 auf Version.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// All ist die geordnete Liste aller Migrationen; Versionen sind lückenlos ab 1.
var All = []Migration{
	{
		Version: 1,
		Name:    "create levels and bath gases",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&models.Level{}, &models.BathGas{})
		},
	},
	{
		Version: 2,
		Name:    "create species, frequency records and bath gas links",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&speciesV2{}, &models.FrequencyRecord{}, &models.SpeciesBathGas{})
		},
	},
	{
		Version: 3,
		Name:    "create frequency scaling factors",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&models.FreqScale{})
		},
	},
	{
		Version: 4,
		Name:    "create literature and authors, link species to literature",
		Up: func(tx *gorm.DB) error {
			m := tx.Migrator()
			if err := m.CreateTable(&models.Author{}, &models.Literature{}, &models.LiteratureAuthor{}); err != nil {
				return err
			}
			if err := m.AddColumn(&models.Species{}, "LiteratureID"); err != nil {
				return err
			}
			if err := m.CreateIndex(&models.Species{}, "LiteratureID"); err != nil {
				return err
			}
			// SQLite kann Fremdschlüssel nicht nachträglich anlegen
			if tx.Dialector.Name() == "postgres" {
				return m.CreateConstraint(&models.Species{}, "Literature")
			}
			return nil
		},
	},
	{
		Version: 5,
		Name:    "create electronic structure software, link species to it",
		Up: func(tx *gorm.DB) error {
			m := tx.Migrator()
			if err := m.CreateTable(&models.ESS{}); err != nil {
				return err
			}
			if err := m.AddColumn(&models.Species{}, "ESSID"); err != nil {
				return err
			}
			if err := m.CreateIndex(&models.Species{}, "ESSID"); err != nil {
				return err
			}
			if tx.Dialector.Name() == "postgres" {
				return m.CreateConstraint(&models.Species{}, "ESS")
			}
			return nil
		},
	},
}

// Expected ist die Schema-Version, die dieses Binary erwartet.
func Expected() int {
	return All[len(All)-1].Version
}
