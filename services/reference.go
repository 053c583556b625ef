package services

import (
	"fmt"
	"strings"

	"tckdb/models"
)

// maxListedAuthors: danach wird mit "et al." abgekürzt.
const maxListedAuthors = 6

// FormatReference rendert eine Literaturquelle als kompakte Zitierform, z.B.
// "Smith J., Doe A. (2020). Title. J. Chem. Phys. 152(4), 044101-044110. doi:10.1063/...".
// Autoren müssen nach Position sortiert geladen sein.
func FormatReference(l *models.Literature) string {
	var names []string
	for _, la := range l.Authors {
		names = append(names, authorName(la.Author))
	}
	authors := "Unknown Authors"
	switch {
	case len(names) > maxListedAuthors:
		authors = strings.Join(names[:maxListedAuthors], ", ") + " et al."
	case len(names) > 0:
		authors = strings.Join(names, ", ")
	}

	year := "n.d."
	if l.Year > 0 {
		year = fmt.Sprintf("%d", l.Year)
	}
	title := strings.TrimSuffix(strings.TrimSpace(l.Title), ".")
	if title == "" {
		title = "Untitled"
	}

	parts := []string{fmt.Sprintf("%s (%s). %s.", authors, year, title)}
	switch l.Type {
	case "book":
		book := l.Publisher
		if l.PublicationPlace != "" {
			book = l.PublicationPlace + ": " + book
		}
		if l.Edition != "" {
			book += ", " + l.Edition + " ed."
		}
		if l.ChapterTitle != "" {
			book = l.ChapterTitle + ". In: " + book
		}
		parts = append(parts, book+".")
	case "thesis":
		parts = append(parts, "Thesis, advisor "+l.Advisor+".")
	default:
		if l.Journal != "" {
			parts = append(parts, journalCitation(l)+".")
		}
	}

	var tail []string
	if l.DOI != "" {
		tail = append(tail, "doi:"+l.DOI)
	}
	if l.ISBN != "" {
		tail = append(tail, "isbn:"+l.ISBN)
	}
	if len(tail) > 0 {
		parts = append(parts, strings.Join(tail, " "))
	}
	return strings.Join(parts, " ")
}

func journalCitation(l *models.Literature) string {
	s := l.Journal
	if l.Volume != nil {
		s += fmt.Sprintf(" %d", *l.Volume)
		if l.Issue != nil {
			s += fmt.Sprintf("(%d)", *l.Issue)
		}
	}
	if l.PageStart != nil {
		s += fmt.Sprintf(", %d", *l.PageStart)
		if l.PageEnd != nil && *l.PageEnd != *l.PageStart {
			s += fmt.Sprintf("-%d", *l.PageEnd)
		}
	}
	return s
}

// authorName kürzt Vornamen auf Initialen: "John Ronald" -> "J. R.".
func authorName(a models.Author) string {
	var initials []string
	for _, part := range strings.Fields(a.FirstName) {
		for _, sub := range strings.Split(part, "-") {
			if r := []rune(sub); len(r) > 0 {
				initials = append(initials, string(r[0])+".")
			}
		}
	}
	if len(initials) == 0 {
		return a.LastName
	}
	return a.LastName + " " + strings.Join(initials, " ")
}
