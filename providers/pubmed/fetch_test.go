package pubmed

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

const efetchXML = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">11111111</PMID>
      <Article>
        <Journal>
          <JournalIssue CitedMedium="Internet">
            <Volume>124</Volume>
            <Issue>7</Issue>
            <PubDate><Year>2020</Year><Month>Feb</Month></PubDate>
          </JournalIssue>
          <Title>The journal of physical chemistry. A</Title>
        </Journal>
        <ArticleTitle>Pressure-dependent rate coefficients for CH4 + OH.</ArticleTitle>
        <Pagination><MedlinePgn>1234-45</MedlinePgn></Pagination>
        <ELocationID EIdType="doi" ValidYN="Y">10.1021/acs.jpca.9b11111</ELocationID>
        <AuthorList>
          <Author><LastName>Curie</LastName><ForeName>Marie</ForeName><Initials>M</Initials></Author>
          <Author><LastName>Pauling</LastName><Initials>L</Initials></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func newTestFetcher(t *testing.T, mux *http.ServeMux) *Fetcher {
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	cfg := &config.Config{PubMedBaseURL: srv.URL, PubMedAPIKey: "k3y", PubMedTool: "tckdb"}
	return NewFetcher(cfg, zaptest.NewLogger(t))
}

func TestLookupDOI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10.1021/acs.jpca.9b11111[doi]", r.URL.Query().Get("term"))
		assert.Equal(t, "k3y", r.URL.Query().Get("api_key"))
		assert.Equal(t, "tckdb", r.URL.Query().Get("tool"))
		_, _ = w.Write([]byte(`{"esearchresult": {"count": "1", "idlist": ["11111111"]}}`))
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "11111111", r.URL.Query().Get("id"))
		assert.Equal(t, "xml", r.URL.Query().Get("retmode"))
		_, _ = w.Write([]byte(efetchXML))
	})
	f := newTestFetcher(t, mux)

	lit, err := f.LookupDOI(context.Background(), "10.1021/acs.jpca.9b11111")
	require.NoError(t, err)

	assert.Equal(t, "pubmed", f.Name())
	assert.Equal(t, "Pressure-dependent rate coefficients for CH4 + OH", lit.Title)
	assert.Equal(t, "The journal of physical chemistry. A", lit.Journal)
	assert.Equal(t, 124, *lit.Volume)
	assert.Equal(t, 7, *lit.Issue)
	assert.Equal(t, 2020, *lit.Year)
	assert.Equal(t, 1234, *lit.PageStart)
	assert.Equal(t, 1245, *lit.PageEnd)
	assert.Equal(t, "10.1021/acs.jpca.9b11111", lit.DOI)
	assert.Equal(t, []schemas.AuthorRef{
		{FirstName: "Marie", LastName: "Curie"},
		{FirstName: "L", LastName: "Pauling"},
	}, lit.Authors)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/11111111/", lit.URL)
}

func TestLookupDOIUnknown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"esearchresult": {"count": "0", "idlist": []}}`))
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		t.Error("efetch must not be called without a PMID")
	})
	f := newTestFetcher(t, mux)

	_, err := f.LookupDOI(context.Background(), "10.1000/none")
	assert.ErrorIs(t, err, providers.ErrNotFound)
}

func TestLookupDOIRateLimited(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"API rate limit exceeded"}`))
	})
	f := newTestFetcher(t, mux)

	_, err := f.LookupDOI(context.Background(), "10.1000/xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
