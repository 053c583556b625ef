// Package schemas beschreibt die eingehenden JSON-Payloads und validiert sie
// vollständig, bevor irgendetwas die Datenbank berührt.
package schemas

// Identifier-Typen einer Spezies.
const (
	IdentifierFormula = "formula"
	IdentifierInChI   = "inchi"
	IdentifierSMILES  = "smiles"
)

// LevelOfTheory ist die Eingabeform eines Level of Theory.
type LevelOfTheory struct {
	// nur in Batch-Uploads: interne Referenz für andere Einträge
	ConnectionID string `json:"connection_id,omitempty" validate:"max=100"`

	Method               string `json:"method" validate:"required,max=500,excludes=/"`
	Basis                string `json:"basis,omitempty" validate:"max=500,excludes=/"`
	AuxiliaryBasis       string `json:"auxiliary_basis,omitempty" validate:"max=500"`
	Dispersion           string `json:"dispersion,omitempty" validate:"max=500,excludes=/"`
	Grid                 string `json:"grid,omitempty" validate:"max=500"`
	Solvent              string `json:"solvent,omitempty" validate:"required_with=SolvationMethod,max=100,excludes=/"`
	SolvationMethod      string `json:"solvation_method,omitempty" validate:"max=500,excludes=/"`
	SolvationDescription string `json:"solvation_description,omitempty" validate:"max=1000"`
	LevelArguments       string `json:"level_arguments,omitempty" validate:"max=500"`

	Parameters map[string]float64 `json:"parameters,omitempty" validate:"max=50"`
}

// Coordinates sind kartesische Koordinaten in Angström.
type Coordinates struct {
	Symbols []string    `json:"symbols" validate:"required,min=1,dive,required,max=3"`
	Coords  [][]float64 `json:"coords" validate:"required,min=1,dive,len=3"`
}

// EnergyTransfer beschreibt ein Single-Exponential-Down Modell.
type EnergyTransfer struct {
	Alpha0 *float64 `json:"alpha0" validate:"required,gt=0"` // cm^-1
	T0     *float64 `json:"T0" validate:"required,gt=0"`     // K
	N      *float64 `json:"n" validate:"required"`
}

// BathGasRef verweist per Name auf ein Badgas.
type BathGasRef struct {
	Name           string          `json:"name" validate:"required,max=100"`
	EnergyTransfer *EnergyTransfer `json:"energy_transfer,omitempty"`
}

// SpeciesSubmission ist die Eingabeform einer Spezies inklusive Frequenzen und Energien.
type SpeciesSubmission struct {
	ConnectionID string `json:"connection_id,omitempty" validate:"max=100"`

	Label          string `json:"label,omitempty" validate:"max=255"`
	Identifier     string `json:"species" validate:"required,max=5000"`
	IdentifierType string `json:"identifier_type,omitempty" validate:"omitempty,oneof=formula inchi smiles"`
	Charge         *int   `json:"charge" validate:"required,gte=-10,lte=10"`
	Multiplicity   *int   `json:"multiplicity" validate:"required,gte=1,lte=10"`

	ElectronicState  string       `json:"electronic_state,omitempty" validate:"max=150"`
	Degeneracy       *int         `json:"degeneracy,omitempty" validate:"omitempty,gte=1"`
	IsTS             bool         `json:"is_ts,omitempty"`
	Linear           *bool        `json:"linear,omitempty"`
	PointGroup       string       `json:"point_group,omitempty" validate:"max=6"`
	ExternalSymmetry *int         `json:"external_symmetry,omitempty" validate:"omitempty,gte=1"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`

	LevelOfTheory     *LevelOfTheory `json:"level_of_theory,omitempty"`
	LevelID           *uint          `json:"level_id,omitempty" validate:"omitempty,gte=1"`
	LevelConnectionID string         `json:"level_connection_id,omitempty" validate:"max=100"`

	Frequencies      []float64 `json:"frequencies,omitempty" validate:"max=3000"`
	ElectronicEnergy *float64  `json:"electronic_energy,omitempty"` // Hartree
	ZPE              *float64  `json:"zpe,omitempty"`               // Hartree

	BathGases []BathGasRef `json:"bath_gases,omitempty" validate:"max=50,dive"`

	// Quelle der Daten: inline, als vorhandener Eintrag oder im Batch per connection_id
	Literature             *LiteratureSubmission `json:"literature,omitempty"`
	LiteratureID           *uint                 `json:"literature_id,omitempty" validate:"omitempty,gte=1"`
	LiteratureConnectionID string                `json:"literature_connection_id,omitempty" validate:"max=100"`

	// verwendete Software, optional; gleiche drei Arten wie bei der Literatur
	ESS             *ESSSubmission `json:"ess,omitempty"`
	ESSID           *uint          `json:"ess_id,omitempty" validate:"omitempty,gte=1"`
	ESSConnectionID string         `json:"ess_connection_id,omitempty" validate:"max=100"`
}

// FreqScaleSubmission ist ein Frequenz-Skalierungsfaktor für ein Level of Theory.
type FreqScaleSubmission struct {
	LevelOfTheory     *LevelOfTheory `json:"level_of_theory,omitempty"`
	LevelID           *uint          `json:"level_id,omitempty" validate:"omitempty,gte=1"`
	LevelConnectionID string         `json:"level_connection_id,omitempty" validate:"max=100"`

	Factor *float64 `json:"factor" validate:"required,gt=0,lt=2"`
	Source string   `json:"source" validate:"required,max=1600"`
}

// Literaturtypen.
const (
	LiteratureArticle = "article"
	LiteratureBook    = "book"
	LiteratureThesis  = "thesis"
)

// AuthorRef ist ein Autor in Eingabereihenfolge.
type AuthorRef struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
}

// LiteratureSubmission beschreibt eine Literaturquelle (Artikel, Buch oder Dissertation).
type LiteratureSubmission struct {
	ConnectionID string `json:"connection_id,omitempty" validate:"max=100"`

	Type    string      `json:"type" validate:"required,oneof=article book thesis"`
	Title   string      `json:"title" validate:"required,max=255,excludes=_"`
	Authors []AuthorRef `json:"authors" validate:"required,min=1,max=100,dive"`
	Year    *int        `json:"year" validate:"required,gte=1500,lte=9999"`

	Journal   string `json:"journal,omitempty" validate:"max=255"`
	Volume    *int   `json:"volume,omitempty" validate:"omitempty,gte=1"`
	Issue     *int   `json:"issue,omitempty" validate:"omitempty,gte=1"`
	PageStart *int   `json:"page_start,omitempty" validate:"omitempty,gte=1"`
	PageEnd   *int   `json:"page_end,omitempty" validate:"omitempty,gte=1"`

	Publisher        string `json:"publisher,omitempty" validate:"max=255"`
	Editors          string `json:"editors,omitempty" validate:"max=255"`
	Edition          string `json:"edition,omitempty" validate:"max=50"`
	ChapterTitle     string `json:"chapter_title,omitempty" validate:"max=255"`
	PublicationPlace string `json:"publication_place,omitempty" validate:"max=255"`
	Advisor          string `json:"advisor,omitempty" validate:"max=255"`

	DOI  string `json:"doi,omitempty" validate:"omitempty,max=255,startswith=10."`
	ISBN string `json:"isbn,omitempty" validate:"omitempty,max=20"`
	URL  string `json:"url,omitempty" validate:"omitempty,max=500,url"`
}

// ESSSubmission beschreibt eine Electronic-Structure-Software.
type ESSSubmission struct {
	ConnectionID string `json:"connection_id,omitempty" validate:"max=100"`

	Name     string `json:"name" validate:"required,max=100"`
	Version  string `json:"version,omitempty" validate:"max=100"`
	Revision string `json:"revision,omitempty" validate:"max=100"`
	URL      string `json:"url" validate:"required,max=255,url"`
}

// BatchSubmission fasst mehrere Einträge zusammen, die per connection_id aufeinander verweisen.
type BatchSubmission struct {
	Levels     []LevelOfTheory        `json:"levels,omitempty" validate:"max=500,dive"`
	Literature []LiteratureSubmission `json:"literature,omitempty" validate:"max=500,dive"`
	ESS        []ESSSubmission        `json:"ess,omitempty" validate:"max=100,dive"`
	Species    []SpeciesSubmission    `json:"species,omitempty" validate:"max=500,dive"`
	FreqScales []FreqScaleSubmission  `json:"freq_scales,omitempty" validate:"max=500,dive"`
}
