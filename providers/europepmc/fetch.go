package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tckdb/config"
	"tckdb/providers"
	"tckdb/schemas"
)

// Fetcher implementiert das Provider-Interface für Europe PMC.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

// NewFetcher erstellt einen neuen Europe PMC Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		BaseURL: cfg.EuropePMCBaseURL,
		Client:  &http.Client{Timeout: cfg.LookupTimeout},
		Logger:  logger,
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "europepmc"
}

// LookupDOI sucht den Artikel mit genau dieser DOI.
func (f *Fetcher) LookupDOI(ctx context.Context, doi string) (*schemas.LiteratureSubmission, error) {
	query := fmt.Sprintf("DOI:%q", doi)
	searchURL := fmt.Sprintf("%s?query=%s&format=json&resultType=core&pageSize=1", f.BaseURL, url.QueryEscape(query))
	log := f.Logger.With(zap.String("doi", doi))
	log.Debug("Rufe Europe PMC API auf", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("europe pmc search failed with status: %d", resp.StatusCode)
	}

	var searchResponse SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, err
	}
	for i := range searchResponse.ResultList.Result {
		article := &searchResponse.ResultList.Result[i]
		if strings.EqualFold(article.DOI, doi) {
			log.Debug("Artikel in Europe PMC gefunden", zap.String("id", article.ID))
			return mapArticle(article), nil
		}
	}
	return nil, providers.ErrNotFound
}

// mapArticle konvertiert ein Europe PMC Article-Objekt in einen Literatur-Entwurf.
func mapArticle(article *Article) *schemas.LiteratureSubmission {
	lit := &schemas.LiteratureSubmission{
		Type:    schemas.LiteratureArticle,
		Title:   strings.TrimSuffix(strings.TrimSpace(article.Title), "."),
		Journal: article.JournalInfo.Journal.Title,
		Volume:  providers.IntPtr(article.JournalInfo.Volume),
		Issue:   providers.IntPtr(article.JournalInfo.Issue),
		DOI:     article.DOI,
	}
	if y := article.JournalInfo.YearOfPublication; y > 0 {
		lit.Year = &y
	} else {
		lit.Year = providers.IntPtr(article.PubYear)
	}
	lit.PageStart, lit.PageEnd = providers.ParsePages(article.PageInfo)

	for _, pubType := range article.PubTypeList.PubType {
		if strings.Contains(strings.ToLower(pubType), "book") {
			lit.Type = schemas.LiteratureBook
			lit.Publisher = article.BookOrReportDetails.Publisher
			lit.ISBN = article.BookOrReportDetails.ISBN13
			break
		}
	}

	for _, a := range article.AuthorList.Author {
		switch {
		case a.LastName != "":
			first := a.FirstName
			if first == "" {
				first = a.Initials
			}
			lit.Authors = append(lit.Authors, schemas.AuthorRef{FirstName: first, LastName: a.LastName})
		case a.CollectiveName != "":
			lit.Authors = append(lit.Authors, schemas.AuthorRef{LastName: a.CollectiveName})
		}
	}

	// Bevorzugt frei zugängliche Volltexte
	for _, u := range article.FullTextURLList.FullTextURL {
		if u.AvailabilityCode == "OA" && u.DocumentStyle == "html" {
			lit.URL = u.URL
			break
		}
	}
	if lit.URL == "" {
		for _, u := range article.FullTextURLList.FullTextURL {
			if u.AvailabilityCode == "OA" {
				lit.URL = u.URL
				break
			}
		}
	}
	return lit
}
