// Package providers löst DOIs über externe Literaturdienste in Literaturangaben auf.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tckdb/schemas"
)

// ErrNotFound meldet ein Provider, wenn er die DOI nicht kennt.
var ErrNotFound = errors.New("doi not found")

// Provider ist das Interface, das jeder Literaturdienst (z.B. Europe PMC, PubMed) implementieren muss.
type Provider interface {
	// LookupDOI liefert die Metadaten zu doi als (möglicherweise unvollständigen) Entwurf.
	LookupDOI(ctx context.Context, doi string) (*schemas.LiteratureSubmission, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "pubmed").
	Name() string
}

// Lookup ist das Ergebnis einer DOI-Auflösung. Der Entwurf wird nicht gespeichert.
type Lookup struct {
	Literature schemas.LiteratureSubmission `json:"literature"`
	Sources    []string                     `json:"sources"`
	// Violations listet, was vor dem Einreichen noch ergänzt werden muss.
	Violations []schemas.Violation `json:"violations,omitempty"`
}

// UpstreamError fasst die Fehler aller Provider zusammen, wenn keiner geantwortet hat.
type UpstreamError struct {
	Errs []error
}

func (e *UpstreamError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "all literature providers failed: " + strings.Join(msgs, "; ")
}

func (e *UpstreamError) Unwrap() []error { return e.Errs }

// Resolver fragt alle Provider parallel und füllt den Entwurf in Provider-Reihenfolge:
// der erste Treffer bestimmt die Felder, spätere ergänzen nur leere.
type Resolver struct {
	Providers []Provider
	Logger    *zap.Logger
}

func (r *Resolver) Resolve(ctx context.Context, doi string) (*Lookup, error) {
	doi = schemas.TrimDOI(doi)
	if !strings.HasPrefix(doi, "10.") {
		return nil, fmt.Errorf("invalid DOI %q: must start with 10.", doi)
	}
	log := r.Logger.With(zap.String("doi", doi))

	drafts := make([]*schemas.LiteratureSubmission, len(r.Providers))
	errs := make([]error, len(r.Providers))
	var g errgroup.Group
	for i, p := range r.Providers {
		g.Go(func() error {
			drafts[i], errs[i] = p.LookupDOI(ctx, doi)
			return nil
		})
	}
	_ = g.Wait()

	out := &Lookup{}
	var failures []error
	for i, p := range r.Providers {
		switch {
		case errs[i] == nil && drafts[i] != nil:
			merge(&out.Literature, drafts[i])
			out.Sources = append(out.Sources, p.Name())
		case errors.Is(errs[i], ErrNotFound):
			log.Debug("doi unknown to provider", zap.String("provider", p.Name()))
		case errs[i] != nil:
			log.Warn("literature provider failed", zap.String("provider", p.Name()), zap.Error(errs[i]))
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), errs[i]))
		}
	}

	if len(out.Sources) == 0 {
		if len(failures) > 0 {
			return nil, &UpstreamError{Errs: failures}
		}
		return nil, ErrNotFound
	}
	out.Literature.DOI = doi
	if out.Literature.Type == "" {
		out.Literature.Type = schemas.LiteratureArticle
	}
	if _, err := schemas.CheckLiterature(out.Literature); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			out.Violations = ve.Violations
		}
	}
	log.Info("doi resolved", zap.Strings("sources", out.Sources), zap.Int("open_violations", len(out.Violations)))
	return out, nil
}

// merge übernimmt aus src alle Felder, die in dst noch leer sind.
func merge(dst, src *schemas.LiteratureSubmission) {
	str := func(d *string, s string) {
		if *d == "" {
			*d = strings.TrimSpace(s)
		}
	}
	num := func(d **int, s *int) {
		if *d == nil && s != nil {
			v := *s
			*d = &v
		}
	}
	str(&dst.Type, src.Type)
	str(&dst.Title, src.Title)
	str(&dst.Journal, src.Journal)
	str(&dst.Publisher, src.Publisher)
	str(&dst.ISBN, src.ISBN)
	str(&dst.URL, src.URL)
	num(&dst.Year, src.Year)
	num(&dst.Volume, src.Volume)
	num(&dst.Issue, src.Issue)
	num(&dst.PageStart, src.PageStart)
	num(&dst.PageEnd, src.PageEnd)
	if len(dst.Authors) == 0 {
		dst.Authors = append([]schemas.AuthorRef(nil), src.Authors...)
	}
}

// ParsePages liest Seitenangaben wie "123-130", "e1234" oder PubMeds verkürztes "1234-45".
func ParsePages(s string) (start, end *int) {
	first, last, _ := strings.Cut(strings.ReplaceAll(s, "–", "-"), "-")
	first = strings.TrimLeft(strings.TrimSpace(first), "eE")
	last = strings.TrimSpace(last)

	start = IntPtr(first)
	if start == nil || last == "" {
		return start, nil
	}
	// "1234-45" meint 1234-1245
	if len(last) < len(first) {
		last = first[:len(first)-len(last)] + last
	}
	if end = IntPtr(last); end != nil && *end < *start {
		end = nil
	}
	return start, end
}

// IntPtr liefert einen Zeiger auf n, wenn s eine positive Ganzzahl ist; "12 Suppl" oder "" zählen nicht.
func IntPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
