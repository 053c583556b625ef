package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tckdb/models"
	"tckdb/schemas"
	"tckdb/testutil"
)

const article = `{
	"type": "article",
	"title": "Automated transition state searches",
	"authors": [{"first_name": "Colin A.", "last_name": "Grambow"}, {"first_name": "William H.", "last_name": "Green"}],
	"year": 2020,
	"journal": "J. Chem. Phys.",
	"volume": 152,
	"issue": 4,
	"page_start": 44101,
	"page_end": 44110,
	"doi": "10.1063/1.5143808"
}`

func literature(t *testing.T, raw string) *schemas.ValidatedLiterature {
	t.Helper()
	vl, err := schemas.ValidateLiterature([]byte(raw))
	require.NoError(t, err)
	return vl
}

func newServices(t *testing.T) (*SubmissionService, *QueryService) {
	t.Helper()
	db, gate := testutil.NewDB(t)
	svc := NewSubmissionService(db, gate, zaptest.NewLogger(t), SubmissionOptions{StoreTimeout: 5 * time.Second})
	return svc, NewQueryService(db, gate, 5*time.Second)
}

func TestSubmitLiteratureIsShared(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	first, err := svc.SubmitLiterature(ctx, literature(t, article))
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, first.Primary[0].Action)
	assert.Equal(t, NodeLiterature, first.Primary[0].Kind)

	// gleiche DOI, andere Metadaten
	again := literature(t, `{"type": "article", "title": "Automated TS searches", "year": 2020,
		"authors": [{"first_name": "C", "last_name": "Grambow"}],
		"journal": "JCP", "volume": 152, "issue": 4, "page_start": 44101, "page_end": 44110,
		"doi": "10.1063/1.5143808"}`)
	again.DOI = "https://doi.org/10.1063/1.5143808"
	second, err := svc.SubmitLiterature(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, ActionReuse, second.Primary[0].Action)
	assert.Equal(t, first.Primary[0].ID, second.Primary[0].ID)

	assert.EqualValues(t, 1, count(t, db, &models.Literature{}))
	assert.EqualValues(t, 2, count(t, db, &models.Author{}))
	assert.EqualValues(t, 2, count(t, db, &models.LiteratureAuthor{}))
}

func TestAuthorsAreSharedAcrossLiterature(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitLiterature(ctx, literature(t, article))
	require.NoError(t, err)

	thesis := `{"type": "thesis", "title": "Machine learning for reaction kinetics", "year": 2021,
		"advisor": "William H. Green",
		"authors": [{"first_name": "colin a.", "last_name": "GRAMBOW"}]}`
	res, err := svc.SubmitLiterature(ctx, literature(t, thesis))
	require.NoError(t, err)

	actions := map[NodeKind][]Action{}
	for _, e := range res.Entities {
		actions[e.Kind] = append(actions[e.Kind], e.Action)
	}
	assert.Equal(t, []Action{ActionCreate}, actions[NodeLiterature])
	assert.Equal(t, []Action{ActionReuse}, actions[NodeAuthor])
	assert.Equal(t, []Action{ActionCreate}, actions[NodeAuthorship])

	assert.EqualValues(t, 2, count(t, db, &models.Literature{}))
	assert.EqualValues(t, 2, count(t, db, &models.Author{}))
}

func TestSpeciesWithInlineLiterature(t *testing.T) {
	svc, q := newServices(t)
	ctx := context.Background()

	raw := `{"species": "H2", "charge": 0, "multiplicity": 1,
		"level_of_theory": {"method": "CCSD(T)", "basis": "cc-pVTZ"},
		"literature": ` + article + `}`
	res, err := svc.SubmitSpecies(ctx, species(t, raw))
	require.NoError(t, err)

	s, err := q.GetSpecies(ctx, res.Primary[0].ID)
	require.NoError(t, err)
	require.NotNil(t, s.Literature)
	assert.Equal(t, "10.1063/1.5143808", s.Literature.DOI)
	require.Len(t, s.Literature.Authors, 2)
	assert.Equal(t, "Grambow", s.Literature.Authors[0].Author.LastName)
	assert.Equal(t, 2, s.Literature.Authors[1].Position)
	assert.Equal(t, "Grambow C. A., Green W. H. (2020). Automated transition state searches. J. Chem. Phys. 152(4), 44101-44110. doi:10.1063/1.5143808",
		s.Literature.Reference)

	// zweite Spezies verweist auf dieselbe Quelle per ID
	litID := *s.LiteratureID
	raw = `{"species": "O2", "charge": 0, "multiplicity": 3, "level_id": 1, "literature_id": ` + fmt.Sprint(litID) + `}`
	res, err = svc.SubmitSpecies(ctx, species(t, raw))
	require.NoError(t, err)
	o2, err := q.GetSpecies(ctx, res.Primary[0].ID)
	require.NoError(t, err)
	assert.Equal(t, litID, *o2.LiteratureID)
}

func TestUnknownLiteratureID(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.SubmitSpecies(context.Background(), species(t, `{"species": "CH4", "charge": 0, "multiplicity": 1,
		"level_of_theory": {"method": "b3lyp"}, "literature_id": 42}`))

	var ne *NormalizationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "literature_id", ne.Path)
}

func TestCommitSkipsAuthorsOfConcurrentLiterature(t *testing.T) {
	db, _ := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	g, err := NewNormalizer(log).NormalizeLiterature(ctx, literature(t, article), NewGormStoreView(db))
	require.NoError(t, err)
	require.Equal(t, ActionCreate, g.Primary[0].Action)

	// ein anderer Schreiber hat dieselbe Quelle ohne Autoren angelegt
	winner := *g.Primary[0].LiteratureRow
	require.NoError(t, db.Create(&winner).Error)

	res, err := NewCoordinator(db, log, 5*time.Second).Commit(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, ActionReuse, res.Primary[0].Action)
	assert.Equal(t, winner.ID, res.Primary[0].ID)
	assert.EqualValues(t, 1, count(t, db, &models.Literature{}))
	assert.Zero(t, count(t, db, &models.LiteratureAuthor{}))
}

func TestListLiterature(t *testing.T) {
	svc, q := newServices(t)
	ctx := context.Background()

	_, err := svc.SubmitLiterature(ctx, literature(t, article))
	require.NoError(t, err)
	_, err = svc.SubmitLiterature(ctx, literature(t, `{"type": "thesis", "title": "Rate rules", "year": 2010,
		"advisor": "P. Advisor", "authors": [{"first_name": "A", "last_name": "Student"}]}`))
	require.NoError(t, err)

	byDOI, err := q.ListLiterature(ctx, LiteratureFilter{DOI: "DOI:10.1063/1.5143808"})
	require.NoError(t, err)
	require.Len(t, byDOI, 1)
	assert.Equal(t, "Automated transition state searches", byDOI[0].Title)

	year := 2010
	byYear, err := q.ListLiterature(ctx, LiteratureFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, "Student A. (2010). Rate rules. Thesis, advisor P. Advisor.", byYear[0].Reference)

	_, err = q.GetLiterature(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
