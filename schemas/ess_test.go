package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateESS(t *testing.T) {
	ve, err := ValidateESS([]byte(`{"name": " Gaussian ", "version": "16", "revision": "C.01", "url": "https://gaussian.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "Gaussian", ve.Name)

	_, err = ValidateESS([]byte(`{"name": "  ", "url": "gaussian", "connection_id": "E1"}`))
	assert.Equal(t, map[string]Kind{
		"name":          KindMissing,
		"url":           KindFormat,
		"connection_id": KindConsistency,
	}, paths(t, err))
}

func TestValidateSpecies_ESSReference(t *testing.T) {
	_, err := ValidateSpecies([]byte(`{"species": "CH4", "charge": 0, "multiplicity": 1, "level_id": 1,
		"ess_id": 2, "ess": {"name": "Gaussian", "url": "https://gaussian.com"}}`))
	assert.Equal(t, map[string]Kind{"ess_id": KindConsistency}, paths(t, err))

	_, err = ValidateSpecies([]byte(`{"species": "CH4", "charge": 0, "multiplicity": 1, "level_id": 1,
		"ess": {"name": "Gaussian"}}`))
	assert.Equal(t, map[string]Kind{"ess.url": KindMissing}, paths(t, err))

	_, err = ValidateSpecies([]byte(`{"species": "CH4", "charge": 0, "multiplicity": 1, "level_id": 1,
		"ess_connection_id": "E1", "literature_connection_id": "R1"}`))
	assert.Equal(t, map[string]Kind{
		"ess_connection_id":        KindConsistency,
		"literature_connection_id": KindConsistency,
	}, paths(t, err))

	vs, err := ValidateSpecies([]byte(`{"species": "CH4", "charge": 0, "multiplicity": 1, "level_id": 1, "ess_id": 2}`))
	require.NoError(t, err)
	assert.EqualValues(t, 2, *vs.ESSID)
}

func TestValidateBatch_LiteratureAndESSEntries(t *testing.T) {
	raw := `{
		"literature": [
			{"connection_id": "R1", "type": "thesis", "title": "Rate rules", "year": 2010, "advisor": "P",
				"authors": [{"first_name": "A", "last_name": "Student"}]},
			{"type": "thesis", "title": "No id", "year": 2010, "advisor": "P",
				"authors": [{"first_name": "A", "last_name": "Student"}]}
		],
		"ess": [{"connection_id": "R1", "name": "ORCA", "url": "https://orcaforum.kofo.mpg.de"}],
		"species": [
			{"species": "H2", "charge": 0, "multiplicity": 1, "level_id": 1, "literature_connection_id": "R1", "literature_id": 4},
			{"species": "H2", "charge": 0, "multiplicity": 1, "level_id": 1,
				"literature": {"connection_id": "R2", "type": "thesis", "title": "Inline", "year": 2010, "advisor": "P",
					"authors": [{"first_name": "A", "last_name": "Student"}]}}
		]
	}`
	_, err := ValidateBatch([]byte(raw))
	assert.Equal(t, map[string]Kind{
		"literature[1].connection_id":         KindMissing,
		"ess[0].connection_id":                KindDuplicate,
		"species[0].literature_connection_id": KindConsistency,
		"species[1].literature.connection_id": KindConsistency,
	}, paths(t, err))

	b, err := ValidateBatch([]byte(`{
		"literature": [{"connection_id": "R1", "type": "thesis", "title": "Rate rules", "year": 2010, "advisor": "P",
			"authors": [{"first_name": "A", "last_name": "Student"}]}],
		"ess": [{"connection_id": "E1", "name": "ORCA", "version": "5.0.4", "url": "https://orcaforum.kofo.mpg.de"}],
		"species": [{"species": "H2", "charge": 0, "multiplicity": 1, "level_id": 1,
			"literature_connection_id": "R1", "ess_connection_id": "E1"}]
	}`))
	require.NoError(t, err)
	assert.Len(t, b.Literature, 1)
	assert.Len(t, b.ESS, 1)
	assert.Equal(t, "E1", b.Species[0].ESSConnectionID)
}
