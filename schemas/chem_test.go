package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	cases := map[string]struct {
		hill  string
		atoms int
	}{
		"CH4":         {"CH4", 5},
		"H2O":         {"H2O", 3},
		"CH3(CH2)2OH": {"C3H8O", 12},
		"C2H6.2H2O":   {"C2H10O2", 14},
		"ClCH3":       {"CH3Cl", 5},
		"O2":          {"O2", 2},
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			f, err := ParseFormula(in)
			require.NoError(t, err)
			assert.Equal(t, want.hill, f.Hill())
			assert.Equal(t, want.atoms, f.Atoms())
		})
	}
}

func TestParseFormula_Errors(t *testing.T) {
	for _, in := range []string{"", "Xx2", "C(H4", "CH4)", "c1ccccc1", "()"} {
		_, err := ParseFormula(in)
		assert.Error(t, err, in)
	}
}

func TestFormulaFromInChI(t *testing.T) {
	f, err := FormulaFromInChI("InChI=1S/CH4/h1H4")
	require.NoError(t, err)
	assert.Equal(t, "CH4", f.Hill())

	_, err = FormulaFromInChI("1S/CH4/h1H4")
	assert.Error(t, err)
	_, err = FormulaFromInChI("InChI=1S")
	assert.Error(t, err)
}

func TestElectrons(t *testing.T) {
	f, err := ParseFormula("CH4")
	require.NoError(t, err)
	assert.Equal(t, 10, f.Electrons(0))
	assert.Equal(t, 9, f.Electrons(1))
	assert.Equal(t, 11, f.Electrons(-1))
}

func TestIsLinear(t *testing.T) {
	co2 := [][]float64{{0, 0, 0}, {0, 0, 1.16}, {0, 0, -1.16}}
	assert.True(t, IsLinear(co2))

	water := [][]float64{{0, 0, 0.1173}, {0, 0.7572, -0.4692}, {0, -0.7572, -0.4692}}
	assert.False(t, IsLinear(water))

	assert.True(t, IsLinear([][]float64{{0, 0, 0}, {0, 0, 0.74}}))
}

func TestExpectedFrequencies(t *testing.T) {
	assert.Equal(t, 0, ExpectedFrequencies(1, false))
	assert.Equal(t, 1, ExpectedFrequencies(2, true))
	assert.Equal(t, 4, ExpectedFrequencies(3, true))
	assert.Equal(t, 3, ExpectedFrequencies(3, false))
	assert.Equal(t, 9, ExpectedFrequencies(5, false))
}
