package unpaywall

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

// Response repräsentiert die JSON-Antwort der Unpaywall-API.
type Response struct {
	DOI         string `json:"doi"`
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
	JournalName string `json:"journal_name"`
	Publisher   string `json:"publisher"`
	DOIURL      string `json:"doi_url"`
	ZAuthors    []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		Name   string `json:"name"`
	} `json:"z_authors"`
	BestOALocation *struct {
		URL               string `json:"url"`
		URLForLandingPage string `json:"url_for_landing_page"`
		URLForPDF         string `json:"url_for_pdf"`
	} `json:"best_oa_location"`
}

// Fetcher kapselt die Logik für Unpaywall.
type Fetcher struct {
	Config *config.Config
	Client *http.Client
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Unpaywall-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.LookupTimeout},
		Logger: logger,
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "unpaywall"
}

// LookupDOI holt die Metadaten zur DOI aus Unpaywall.
func (f *Fetcher) LookupDOI(ctx context.Context, doi string) (*schemas.LiteratureSubmission, error) {
	if f.Config.UnpaywallEmail == "" {
		return nil, fmt.Errorf("unpaywall email ist nicht konfiguriert")
	}

	u := fmt.Sprintf("%s/%s?email=%s", f.Config.UnpaywallBaseURL, doi, url.QueryEscape(f.Config.UnpaywallEmail))
	log := f.Logger.With(zap.String("doi", doi), zap.String("url", u))
	log.Debug("Rufe Unpaywall API auf.")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Debug("DOI in Unpaywall unbekannt.")
		return nil, providers.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unpaywall request failed with status: %d", resp.StatusCode)
	}

	var ur Response
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, err
	}
	return mapResponse(&ur), nil
}

func mapResponse(ur *Response) *schemas.LiteratureSubmission {
	lit := &schemas.LiteratureSubmission{
		Type:    schemas.LiteratureArticle,
		Title:   strings.TrimSuffix(strings.TrimSpace(ur.Title), "."),
		Journal: ur.JournalName,
		DOI:     ur.DOI,
	}
	if strings.HasPrefix(ur.Genre, "book") {
		lit.Type = schemas.LiteratureBook
		lit.Journal = ""
		lit.Publisher = ur.Publisher
	}
	if ur.Year > 0 {
		y := ur.Year
		lit.Year = &y
	}
	for _, a := range ur.ZAuthors {
		switch {
		case a.Family != "":
			lit.Authors = append(lit.Authors, schemas.AuthorRef{FirstName: a.Given, LastName: a.Family})
		case a.Name != "":
			lit.Authors = append(lit.Authors, schemas.AuthorRef{LastName: a.Name})
		}
	}
	if loc := ur.BestOALocation; loc != nil {
		lit.URL = loc.URLForLandingPage
		if lit.URL == "" {
			lit.URL = loc.URL
		}
	}
	if lit.URL == "" {
		lit.URL = ur.DOIURL
	}
	return lit
}
