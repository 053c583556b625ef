package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tckdb/testutil"
)

func TestQueries(t *testing.T) {
	db, gate := testutil.NewDB(t)
	svc := NewSubmissionService(db, gate, zaptest.NewLogger(t), SubmissionOptions{StoreTimeout: 5 * time.Second})
	q := NewQueryService(db, gate, 5*time.Second)
	ctx := context.Background()

	res, err := svc.SubmitSpecies(ctx, species(t, methane))
	require.NoError(t, err)
	v1 := res.Primary[0].ID
	rev, err := svc.ReviseSpecies(ctx, v1, species(t, `{"species": "CH4", "charge": 0, "multiplicity": 1, "level_id": 1, "label": "methane"}`))
	require.NoError(t, err)
	v2 := rev.Primary[0].ID
	_, err = svc.SubmitSpecies(ctx, species(t, `{"species": "H2", "charge": 0, "multiplicity": 1, "level_id": 1}`))
	require.NoError(t, err)

	t.Run("get species", func(t *testing.T) {
		s, err := q.GetSpecies(ctx, v1)
		require.NoError(t, err)
		assert.Equal(t, "b3lyp", s.Level.Method)
		assert.Len(t, s.Records, 1)
		require.Len(t, s.BathGases, 1)
		assert.Equal(t, "N2", s.BathGases[0].BathGas.Name)

		_, err = q.GetSpecies(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("history", func(t *testing.T) {
		h, err := q.SpeciesHistory(ctx, v2)
		require.NoError(t, err)
		require.Len(t, h, 2)
		assert.Equal(t, v1, h[0].ID)
		assert.Equal(t, v2, h[1].ID)
	})

	t.Run("list returns latest versions", func(t *testing.T) {
		all, err := q.ListSpecies(ctx, SpeciesFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, v2, all[0].ID)

		zero := 0
		ch4, err := q.ListSpecies(ctx, SpeciesFilter{Identifier: "CH4", Charge: &zero})
		require.NoError(t, err)
		require.Len(t, ch4, 1)
		assert.Equal(t, "methane", ch4[0].Label)

		paged, err := q.ListSpecies(ctx, SpeciesFilter{Page: Page{Limit: 1, Offset: 1}})
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, "H2", paged[0].Identifier)
	})

	t.Run("levels and bath gases", func(t *testing.T) {
		levels, err := q.ListLevels(ctx, "B3LYP", Page{})
		require.NoError(t, err)
		assert.Len(t, levels, 1)

		l, err := q.GetLevel(ctx, levels[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "6-31g(d)", l.Basis)

		gases, err := q.ListBathGases(ctx, Page{})
		require.NoError(t, err)
		assert.Len(t, gases, 1)

		scales, err := q.ListFreqScales(ctx, l.ID, Page{})
		require.NoError(t, err)
		assert.Empty(t, scales)
	})
}
