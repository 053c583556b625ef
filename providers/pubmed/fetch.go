package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tckdb/config"
	"tckdb/providers"
	"tckdb/schemas"
)

// Fetcher kapselt die Interaktion mit PubMed.
type Fetcher struct {
	Config *config.Config
	Client *http.Client
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des PubMed-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.LookupTimeout},
		Logger: logger,
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "pubmed"
}

// LookupDOI sucht die PMID zur DOI via ESearch und holt die Metadaten via EFetch.
func (f *Fetcher) LookupDOI(ctx context.Context, doi string) (*schemas.LiteratureSubmission, error) {
	log := f.Logger.With(zap.String("doi", doi))

	pmid, err := f.searchPMID(ctx, doi)
	if err != nil {
		return nil, fmt.Errorf("fehler bei der PubMed ID-Suche: %w", err)
	}
	if pmid == "" {
		return nil, providers.ErrNotFound
	}
	log.Debug("PMID gefunden", zap.String("pmid", pmid))

	article, err := f.fetchMetadata(ctx, pmid)
	if err != nil {
		return nil, err
	}
	lit := mapArticle(article)
	if lit.DOI == "" {
		lit.DOI = doi
	}
	return lit, nil
}

// searchPMID liefert die erste PMID für die DOI oder "" ohne Treffer.
func (f *Fetcher) searchPMID(ctx context.Context, doi string) (string, error) {
	q := f.params()
	q.Set("db", "pubmed")
	q.Set("term", doi+"[doi]")
	q.Set("retmode", "json")
	q.Set("retmax", "1")
	searchURL := f.Config.PubMedBaseURL + "/esearch.fcgi?" + q.Encode()
	f.Logger.Debug("Rufe ESearch-URL auf", zap.String("url", searchURL))

	body, err := f.get(ctx, searchURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var esearchResp ESearchResponse
	if err := json.NewDecoder(body).Decode(&esearchResp); err != nil {
		return "", err
	}
	if len(esearchResp.ESearchResult.IdList) == 0 {
		return "", nil
	}
	return esearchResp.ESearchResult.IdList[0], nil
}

// fetchMetadata holt Metadaten für eine einzelne PMID via EFetch.
func (f *Fetcher) fetchMetadata(ctx context.Context, pmid string) (*PubmedArticle, error) {
	q := f.params()
	q.Set("db", "pubmed")
	q.Set("id", pmid)
	q.Set("retmode", "xml")
	efetchURL := f.Config.PubMedBaseURL + "/efetch.fcgi?" + q.Encode()
	f.Logger.Debug("Rufe EFetch-URL für Metadaten auf", zap.String("url", efetchURL))

	body, err := f.get(ctx, efetchURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var articleSet PubmedArticleSet
	if err := xml.NewDecoder(body).Decode(&articleSet); err != nil {
		return nil, err
	}
	if len(articleSet.PubmedArticle) == 0 {
		return nil, fmt.Errorf("kein PubmedArticle in EFetch-Antwort für PMID %s gefunden", pmid)
	}
	return &articleSet.PubmedArticle[0], nil
}

func (f *Fetcher) params() url.Values {
	q := url.Values{}
	if f.Config.PubMedAPIKey != "" {
		q.Set("api_key", f.Config.PubMedAPIKey)
	}
	if f.Config.PubMedTool != "" {
		q.Set("tool", f.Config.PubMedTool)
	}
	if f.Config.PubMedEmail != "" {
		q.Set("email", f.Config.PubMedEmail)
	}
	return q
}

func (f *Fetcher) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		f.Logger.Error("E-Utilities haben nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(b)))
		return nil, fmt.Errorf("pubmed request failed: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// mapArticle wandelt ein XML-Article-Objekt in einen Literatur-Entwurf um.
func mapArticle(article *PubmedArticle) *schemas.LiteratureSubmission {
	a := article.MedlineCitation.Article
	lit := &schemas.LiteratureSubmission{
		Type:    schemas.LiteratureArticle,
		Title:   strings.TrimSuffix(strings.TrimSpace(a.Title), "."),
		Journal: a.Journal.Title,
		Volume:  providers.IntPtr(a.Journal.JournalIssue.Volume),
		Issue:   providers.IntPtr(a.Journal.JournalIssue.Issue),
	}

	pubDate := a.Journal.JournalIssue.PubDate
	lit.Year = providers.IntPtr(pubDate.Year)
	if lit.Year == nil && len(pubDate.MedlineDate) >= 4 {
		// MedlineDate z.B. "1998 Dec-1999 Jan"
		lit.Year = providers.IntPtr(pubDate.MedlineDate[:4])
	}
	lit.PageStart, lit.PageEnd = providers.ParsePages(a.Pagination.MedlinePgn)

	for _, author := range a.Authors {
		switch {
		case author.LastName != "":
			first := author.ForeName
			if first == "" {
				first = author.Initials
			}
			lit.Authors = append(lit.Authors, schemas.AuthorRef{FirstName: first, LastName: author.LastName})
		case author.CollectiveName != "":
			lit.Authors = append(lit.Authors, schemas.AuthorRef{LastName: author.CollectiveName})
		}
	}

	for _, id := range a.ELocationID {
		if id.IDType == "doi" && id.ValidYN != "N" {
			lit.DOI = strings.TrimSpace(id.Value)
			break
		}
	}
	lit.URL = fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", article.MedlineCitation.PMID)
	return lit
}
