package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tckdb/schemas"
)

func TestLevelKeyIgnoresPresentation(t *testing.T) {
	base := schemas.LevelOfTheory{Method: "B3LYP", Basis: "6-31G(d)", Parameters: map[string]float64{"omega": 0.2, "alpha": 1}}

	variants := []schemas.LevelOfTheory{
		{Method: "b3lyp", Basis: "6-31g(d)", Parameters: map[string]float64{"alpha": 1, "omega": 0.2}},
		{Method: "  B3LYP ", Basis: "6-31G(d)", Parameters: map[string]float64{"OMEGA": 0.20000000000000001, "alpha": 1.0}},
		{Method: "Ｂ３ＬＹＰ", Basis: "6-31G(d)", Parameters: map[string]float64{"omega": 0.2000000000001, "alpha": 1}},
	}
	for _, v := range variants {
		assert.Equal(t, LevelKey(base), LevelKey(v), "%+v", v)
	}
}

func TestLevelKeyDistinguishesContent(t *testing.T) {
	a := schemas.LevelOfTheory{Method: "b3lyp", Basis: "6-31g(d)"}
	cases := []schemas.LevelOfTheory{
		{Method: "b3lyp", Basis: "6-311g(d)"},
		{Method: "b3lyp", Basis: "6-31g(d)", Dispersion: "d3bj"},
		{Method: "b3lyp", Basis: "6-31g(d)", Parameters: map[string]float64{"omega": 0.2}},
		{Method: "b3lyp", Basis: "6-31g(d)", Solvent: "water", SolvationMethod: "smd"},
		// Feldgrenzen dürfen nicht verschwimmen
		{Method: "b3lyp 6-31g(d)"},
	}
	for _, c := range cases {
		assert.NotEqual(t, LevelKey(a), LevelKey(c), "%+v", c)
	}
}

func TestCanonicalLevelStoresFoldedFields(t *testing.T) {
	fields, params, key := CanonicalLevel(schemas.LevelOfTheory{Method: " wB97X-D ", Basis: "Def2-TZVP", Parameters: map[string]float64{"Omega": 0.2}})
	assert.Equal(t, "wb97x-d", fields[0])
	assert.Equal(t, "def2-tzvp", fields[1])
	assert.Equal(t, map[string]float64{"omega": 0.2}, params)
	assert.Len(t, key, 64)
}

func TestLevelKeyOfValidatedParametersIsStable(t *testing.T) {
	_, err := schemas.ValidateLevel([]byte(`{"method": "wb97x-d", "parameters": {"omega": 0.2, "Omega": 0.3}}`))
	var ve *schemas.ValidationError
	if assert.ErrorAs(t, err, &ve) && assert.Len(t, ve.Violations, 1) {
		assert.Equal(t, "parameters.omega", ve.Violations[0].Path)
		assert.Equal(t, schemas.KindDuplicate, ve.Violations[0].Kind)
	}

	vl, err := schemas.ValidateLevel([]byte(`{"method": "wb97x-d", "parameters": {"Omega": 0.3, "alpha": 0.2}}`))
	if err != nil {
		t.Fatal(err)
	}
	first := LevelKey(vl.LevelOfTheory)
	for i := 0; i < 50; i++ {
		_, params, key := CanonicalLevel(vl.LevelOfTheory)
		assert.Equal(t, first, key)
		assert.Equal(t, map[string]float64{"omega": 0.3, "alpha": 0.2}, params)
	}
}

func TestCanonicalNumber(t *testing.T) {
	assert.Equal(t, "0", canonicalNumber(0))
	assert.Equal(t, "0.2", canonicalNumber(0.2))
	assert.Equal(t, "0.2", canonicalNumber(0.20000000000000001))
	assert.Equal(t, "1e+21", canonicalNumber(1e21))
	assert.Equal(t, "-3.5", canonicalNumber(-3.5))
}

func TestBathGasKey(t *testing.T) {
	assert.Equal(t, BathGasKey("N2"), BathGasKey(" n2 "))
	assert.Equal(t, BathGasKey("N2"), BathGasKey("Ｎ2"))
	assert.NotEqual(t, BathGasKey("N2"), BathGasKey("Ar"))
}

func TestSpeciesKey(t *testing.T) {
	mk := func(raw string) *schemas.ValidatedSpecies {
		vs, err := schemas.ValidateSpecies([]byte(raw))
		if err != nil {
			t.Fatalf("validate %s: %v", raw, err)
		}
		return vs
	}
	ch4 := mk(`{"species": "CH4", "charge": 0, "multiplicity": 1, "level_id": 1}`)
	h4c := mk(`{"species": "H4C", "charge": 0, "multiplicity": 1, "level_id": 2}`)
	cation := mk(`{"species": "CH4", "charge": 1, "multiplicity": 2, "level_id": 1}`)

	assert.Equal(t, SpeciesKey(ch4), SpeciesKey(h4c))
	assert.NotEqual(t, SpeciesKey(ch4), SpeciesKey(cation))
}

func TestLiteratureKey(t *testing.T) {
	year := 2020
	base := schemas.LiteratureSubmission{
		Type:    schemas.LiteratureArticle,
		Title:   "Automated transition state searches",
		Year:    &year,
		Authors: []schemas.AuthorRef{{FirstName: "Colin", LastName: "Grambow"}},
	}

	withDOI := base
	withDOI.DOI = "10.1063/ABC.123"
	prefixed := base
	prefixed.Title = "Something else"
	prefixed.DOI = "https://doi.org/10.1063/abc.123"
	assert.Equal(t, LiteratureKey(withDOI), LiteratureKey(prefixed))

	withISBN := base
	withISBN.ISBN = "978-0-471-92268-6"
	plainISBN := base
	plainISBN.ISBN = "9780471922686"
	assert.Equal(t, LiteratureKey(withISBN), LiteratureKey(plainISBN))
	assert.NotEqual(t, LiteratureKey(withISBN), LiteratureKey(withDOI))

	folded := base
	folded.Title = "  AUTOMATED Transition State Searches "
	folded.Authors = []schemas.AuthorRef{{FirstName: "C.", LastName: "grambow"}}
	assert.Equal(t, LiteratureKey(base), LiteratureKey(folded))

	later := base
	other := 2021
	later.Year = &other
	assert.NotEqual(t, LiteratureKey(base), LiteratureKey(later))
}

func TestAuthorKey(t *testing.T) {
	assert.Equal(t,
		AuthorKey(schemas.AuthorRef{FirstName: "William H.", LastName: "Green"}),
		AuthorKey(schemas.AuthorRef{FirstName: " william h. ", LastName: "GREEN"}))
	assert.NotEqual(t,
		AuthorKey(schemas.AuthorRef{FirstName: "William", LastName: "Green"}),
		AuthorKey(schemas.AuthorRef{FirstName: "W.", LastName: "Green"}))
}
