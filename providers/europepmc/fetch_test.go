package europepmc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tckdb/config"
	"tckdb/providers"
	"tckdb/schemas"
)

const coreResponse = `{
  "hitCount": 1,
  "resultList": {"result": [{
    "id": "32007085", "source": "MED", "pmid": "32007085",
    "doi": "10.1063/1.5143808",
    "title": "Automated transition state searches.",
    "pubYear": "2020",
    "pageInfo": "044101",
    "authorList": {"author": [
      {"fullName": "Grambow CA", "firstName": "Colin A", "lastName": "Grambow", "initials": "CA"},
      {"fullName": "Green WH", "lastName": "Green", "initials": "WH"},
      {"collectiveName": "Kinetics Consortium"}
    ]},
    "journalInfo": {"issue": "4", "volume": "152", "yearOfPublication": 2020,
      "journal": {"title": "The Journal of chemical physics", "isoabbreviation": "J Chem Phys"}},
    "fullTextUrlList": {"fullTextUrl": [
      {"availabilityCode": "S", "documentStyle": "doi", "url": "https://doi.org/10.1063/1.5143808"},
      {"availabilityCode": "OA", "documentStyle": "pdf", "url": "https://europepmc.org/pdf"},
      {"availabilityCode": "OA", "documentStyle": "html", "url": "https://europepmc.org/html"}
    ]},
    "pubTypeList": {"pubType": ["research-article", "Journal Article"]}
  }]}
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFetcher(&config.Config{EuropePMCBaseURL: srv.URL}, zaptest.NewLogger(t))
}

func TestLookupDOI(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `DOI:"10.1063/1.5143808"`, r.URL.Query().Get("query"))
		assert.Equal(t, "core", r.URL.Query().Get("resultType"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(coreResponse))
	})

	lit, err := f.LookupDOI(context.Background(), "10.1063/1.5143808")
	require.NoError(t, err)

	assert.Equal(t, "europepmc", f.Name())
	assert.Equal(t, schemas.LiteratureArticle, lit.Type)
	assert.Equal(t, "Automated transition state searches", lit.Title)
	assert.Equal(t, "The Journal of chemical physics", lit.Journal)
	assert.Equal(t, 152, *lit.Volume)
	assert.Equal(t, 4, *lit.Issue)
	assert.Equal(t, 2020, *lit.Year)
	assert.Equal(t, 44101, *lit.PageStart)
	assert.Nil(t, lit.PageEnd)
	assert.Equal(t, []schemas.AuthorRef{
		{FirstName: "Colin A", LastName: "Grambow"},
		{FirstName: "WH", LastName: "Green"},
		{LastName: "Kinetics Consortium"},
	}, lit.Authors)
	assert.Equal(t, "https://europepmc.org/html", lit.URL)
}

func TestLookupDOINoHit(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hitCount": 0, "resultList": {"result": []}}`))
	})
	_, err := f.LookupDOI(context.Background(), "10.1000/none")
	assert.ErrorIs(t, err, providers.ErrNotFound)
}

func TestLookupDOIServerError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := f.LookupDOI(context.Background(), "10.1000/none")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrNotFound)
	assert.Contains(t, err.Error(), "503")
}
