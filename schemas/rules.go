package schemas

import (
	"sort"
	"strings"
	"time"
)

// currentYear ist austauschbar, damit Tests nicht vom Kalender abhängen.
var currentYear = func() int { return time.Now().Year() }

// inferIdentifierType rät den Typ, wenn identifier_type fehlt.
func inferIdentifierType(id string) string {
	if strings.HasPrefix(id, "InChI=") {
		return IdentifierInChI
	}
	if _, err := ParseFormula(id); err == nil {
		return IdentifierFormula
	}
	return IdentifierSMILES
}

func levelRules(l *LevelOfTheory, base string, batch bool, c *collector) {
	at := func(f string) string { return joinPath(base, f) }

	if !batch && l.ConnectionID != "" {
		c.add(at("connection_id"), KindConsistency, "connection_id is only allowed in batch uploads")
	}
	if strings.TrimSpace(l.Method) == "" && !c.has(at("method")) {
		c.add(at("method"), KindMissing, "field is required")
	}

	keys := make([]string, 0, len(l.Parameters))
	for k := range l.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	folded := make(map[string]string, len(keys))
	for _, k := range keys {
		switch {
		case strings.TrimSpace(k) == "":
			c.add(at("parameters"), KindFormat, "parameter names must not be empty")
			continue
		case len(k) > 100:
			c.add(joinPath(at("parameters"), k), KindLength, "parameter name must contain at most 100 characters")
			continue
		}
		// der Dedup-Key faltet Namen; "omega" und "Omega" wären sonst ein Parameter
		name := CanonicalText(k)
		if first, dup := folded[name]; dup {
			c.add(joinPath(at("parameters"), k), KindDuplicate, "parameter %q is the same as %q", k, first)
			continue
		}
		folded[name] = k
	}
}

// levelRefRules verlangt genau eine Art, das Level anzugeben; level_of_theory und
// level_id dürfen gemeinsam auftreten und werden dann beim Normalisieren abgeglichen.
func levelRefRules(inline *LevelOfTheory, id *uint, conn, base string, batch bool, c *collector) {
	at := func(f string) string { return joinPath(base, f) }

	if conn != "" && !batch {
		c.add(at("level_connection_id"), KindConsistency, "level_connection_id is only allowed in batch uploads")
		return
	}
	if inline == nil && id == nil && conn == "" {
		if !c.has(at("level_id")) {
			c.add(at("level_of_theory"), KindMissing, "one of level_of_theory, level_id or level_connection_id is required")
		}
		return
	}
	if conn != "" && (inline != nil || id != nil) {
		c.add(at("level_connection_id"), KindConsistency, "level_connection_id cannot be combined with level_of_theory or level_id")
	}
	if inline != nil {
		levelRules(inline, at("level_of_theory"), batch, c)
	}
}

func speciesRules(s *SpeciesSubmission, base string, batch bool, c *collector) *ValidatedSpecies {
	at := func(f string) string { return joinPath(base, f) }

	if !batch && s.ConnectionID != "" {
		c.add(at("connection_id"), KindConsistency, "connection_id is only allowed in batch uploads")
	}

	s.Identifier = strings.TrimSpace(s.Identifier)
	if s.Identifier == "" && !c.has(at("species")) {
		c.add(at("species"), KindMissing, "field is required")
	}
	if s.IdentifierType == "" && s.Identifier != "" {
		s.IdentifierType = inferIdentifierType(s.Identifier)
	}
	if s.ElectronicState == "" {
		s.ElectronicState = "X"
	}

	var formula Formula
	if s.Identifier != "" && !c.has(at("species")) && !c.has(at("identifier_type")) {
		var err error
		switch s.IdentifierType {
		case IdentifierFormula:
			formula, err = ParseFormula(s.Identifier)
		case IdentifierInChI:
			formula, err = FormulaFromInChI(s.Identifier)
		}
		if err != nil {
			c.add(at("species"), KindFormat, "cannot read %s: %v", s.IdentifierType, err)
			formula = nil
		}
	}

	geometry := false
	if s.Coordinates != nil && !c.within(at("coordinates")) {
		co := s.Coordinates
		if len(co.Symbols) != len(co.Coords) {
			c.add(at("coordinates"), KindConsistency, "symbols has %d entries but coords has %d", len(co.Symbols), len(co.Coords))
		} else {
			known := true
			for i, sym := range co.Symbols {
				if !IsElement(sym) {
					c.add(indexPath(at("coordinates.symbols"), i), KindFormat, "unknown element %q", sym)
					known = false
				}
			}
			if known {
				fromGeometry := FormulaFromSymbols(co.Symbols)
				switch {
				case formula == nil && !c.has(at("species")):
					formula = fromGeometry
					geometry = true
				case formula != nil && !formula.Equal(fromGeometry):
					c.add(at("coordinates"), KindConsistency, "coordinates describe %s but the species is %s", fromGeometry.Hill(), formula.Hill())
				default:
					geometry = true
				}
			}
		}
	}

	if formula != nil && s.Charge != nil && s.Multiplicity != nil && !c.has(at("charge")) && !c.has(at("multiplicity")) {
		electrons := formula.Electrons(*s.Charge)
		switch {
		case electrons < 0:
			c.add(at("charge"), KindRange, "charge %d removes more than the %d available electrons", *s.Charge, electrons+*s.Charge)
		case electrons%2 == *s.Multiplicity%2:
			c.add(at("multiplicity"), KindConsistency, "multiplicity %d is impossible with %d electrons", *s.Multiplicity, electrons)
		}
	}
	if s.Degeneracy != nil && s.Multiplicity != nil && !c.has(at("degeneracy")) && !c.has(at("multiplicity")) {
		if *s.Degeneracy%*s.Multiplicity != 0 {
			c.add(at("degeneracy"), KindConsistency, "degeneracy %d must be a multiple of multiplicity %d", *s.Degeneracy, *s.Multiplicity)
		}
	}

	atoms := formula.Atoms()
	linear := false
	switch {
	case geometry && atoms >= 2:
		linear = IsLinear(s.Coordinates.Coords)
		if s.Linear != nil && *s.Linear != linear {
			c.add(at("linear"), KindConsistency, "linear=%t contradicts the coordinates", *s.Linear)
		}
	case s.Linear != nil:
		linear = *s.Linear
	case atoms == 2:
		linear = true
	}

	if len(s.Frequencies) > 0 && !c.within(at("frequencies")) {
		imaginary := 0
		for i, f := range s.Frequencies {
			if f == 0 {
				c.add(indexPath(at("frequencies"), i), KindRange, "frequency must be non-zero")
			}
			if f < 0 {
				imaginary++
			}
		}
		switch {
		case s.IsTS && imaginary != 1:
			c.add(at("frequencies"), KindConsistency, "a transition state must have exactly one imaginary frequency, got %d", imaginary)
		case !s.IsTS && imaginary > 0:
			c.add(at("frequencies"), KindConsistency, "only transition states may have imaginary frequencies, got %d", imaginary)
		}
		if formula != nil {
			want := ExpectedFrequencies(atoms, linear)
			switch {
			case atoms == 1:
				c.add(at("frequencies"), KindConsistency, "a single atom has no vibrational frequencies")
			case len(s.Frequencies) != want:
				shape := "non-linear"
				if linear {
					shape = "linear"
				}
				c.add(at("frequencies"), KindConsistency, "expected %d frequencies for %d atoms (%s), got %d", want, atoms, shape, len(s.Frequencies))
			}
		}
	}
	if s.ZPE != nil && *s.ZPE < 0 {
		c.add(at("zpe"), KindRange, "must be >= 0")
	}

	seen := map[string]int{}
	for i := range s.BathGases {
		bg := &s.BathGases[i]
		bg.Name = strings.TrimSpace(bg.Name)
		path := joinPath(indexPath(at("bath_gases"), i), "name")
		if bg.Name == "" {
			if !c.has(path) {
				c.add(path, KindMissing, "field is required")
			}
			continue
		}
		key := CanonicalText(bg.Name)
		if first, dup := seen[key]; dup {
			c.add(path, KindDuplicate, "bath gas %q is already listed at index %d", bg.Name, first)
			continue
		}
		seen[key] = i
	}

	levelRefRules(s.LevelOfTheory, s.LevelID, s.LevelConnectionID, base, batch, c)

	if optionalRefRules("literature", s.Literature != nil, s.LiteratureID != nil, s.LiteratureConnectionID, base, batch, c) {
		literatureRules(s.Literature, at("literature"), false, c)
	}
	if optionalRefRules("ess", s.ESS != nil, s.ESSID != nil, s.ESSConnectionID, base, batch, c) {
		essRules(s.ESS, at("ess"), false, c)
	}

	return &ValidatedSpecies{
		SpeciesSubmission: *s,
		Formula:           formula,
		AtomCount:         atoms,
		IsLinear:          linear,
	}
}

func freqScaleRules(f *FreqScaleSubmission, base string, batch bool, c *collector) {
	f.Source = strings.TrimSpace(f.Source)
	if f.Source == "" && !c.has(joinPath(base, "source")) {
		c.add(joinPath(base, "source"), KindMissing, "field is required")
	}
	levelRefRules(f.LevelOfTheory, f.LevelID, f.LevelConnectionID, base, batch, c)
}

// optionalRefRules prüft einen optionalen Verweis, der inline (name), per ID (name_id)
// oder im Batch per connection_id (name_connection_id) angegeben wird. Höchstens eine Art
// ist erlaubt; true heißt, der Inline-Eintrag soll geprüft werden.
func optionalRefRules(name string, inline, byID bool, conn, base string, batch bool, c *collector) bool {
	at := func(f string) string { return joinPath(base, f) }
	connField := name + "_connection_id"

	switch {
	case conn != "" && !batch:
		c.add(at(connField), KindConsistency, "%s is only allowed in batch uploads", connField)
		return false
	case conn != "" && (inline || byID):
		c.add(at(connField), KindConsistency, "%s cannot be combined with %s or %s_id", connField, name, name)
		return false
	case inline && byID:
		c.add(at(name+"_id"), KindConsistency, "%s and %s_id cannot be combined", name, name)
		return false
	}
	return inline
}

// literatureRules prüft die typabhängigen Pflichtfelder und Formate einer Literaturquelle.
// connection_id ist nur für Literatur-Einträge eines Batches erlaubt (entry=true).
func literatureRules(l *LiteratureSubmission, base string, entry bool, c *collector) {
	at := func(f string) string { return joinPath(base, f) }

	if !entry && l.ConnectionID != "" {
		c.add(at("connection_id"), KindConsistency, "connection_id is only allowed on literature entries of a batch upload")
	}

	l.Title = strings.TrimSpace(l.Title)
	l.DOI = strings.TrimSpace(l.DOI)
	l.ISBN = strings.TrimSpace(l.ISBN)
	if l.Title == "" && !c.has(at("title")) {
		c.add(at("title"), KindMissing, "field is required")
	}

	var required []string
	switch l.Type {
	case LiteratureArticle:
		required = []string{"journal", "volume", "issue", "page_start", "page_end"}
	case LiteratureBook:
		required = []string{"publisher", "editors", "publication_place"}
	case LiteratureThesis:
		required = []string{"advisor"}
	}
	present := map[string]bool{
		"journal":           strings.TrimSpace(l.Journal) != "",
		"volume":            l.Volume != nil,
		"issue":             l.Issue != nil,
		"page_start":        l.PageStart != nil,
		"page_end":          l.PageEnd != nil,
		"publisher":         strings.TrimSpace(l.Publisher) != "",
		"editors":           strings.TrimSpace(l.Editors) != "",
		"publication_place": strings.TrimSpace(l.PublicationPlace) != "",
		"advisor":           strings.TrimSpace(l.Advisor) != "",
	}
	for _, f := range required {
		if !present[f] && !c.has(at(f)) {
			c.add(at(f), KindMissing, "required for type %s", l.Type)
		}
	}

	if l.Year != nil && !c.has(at("year")) && *l.Year > currentYear() {
		c.add(at("year"), KindRange, "year %d is in the future", *l.Year)
	}
	if l.PageStart != nil && l.PageEnd != nil && !c.has(at("page_start")) && !c.has(at("page_end")) && *l.PageEnd < *l.PageStart {
		c.add(at("page_end"), KindConsistency, "page_end %d is before page_start %d", *l.PageEnd, *l.PageStart)
	}
	if l.ISBN != "" && !c.has(at("isbn")) {
		digits := 0
		for _, r := range l.ISBN {
			switch {
			case r >= '0' && r <= '9':
				digits++
			case r == '-':
			case (r == 'X' || r == 'x') && digits == 9:
				digits++ // ISBN-10 Prüfziffer
			default:
				c.add(at("isbn"), KindFormat, "ISBN may only contain digits and hyphens")
				return
			}
		}
		if digits != 10 && digits != 13 {
			c.add(at("isbn"), KindFormat, "ISBN must have 10 or 13 digits, got %d", digits)
		}
	}

	seen := map[string]int{}
	for i := range l.Authors {
		a := &l.Authors[i]
		a.FirstName = strings.TrimSpace(a.FirstName)
		a.LastName = strings.TrimSpace(a.LastName)
		path := indexPath(at("authors"), i)
		if a.LastName == "" {
			if !c.within(path) {
				c.add(joinPath(path, "last_name"), KindMissing, "field is required")
			}
			continue
		}
		key := CanonicalText(a.FirstName) + "\x00" + CanonicalText(a.LastName)
		if first, dup := seen[key]; dup {
			c.add(path, KindDuplicate, "author %s %s is already listed at index %d", a.FirstName, a.LastName, first)
			continue
		}
		seen[key] = i
	}
}

// TrimDOI entfernt Leerraum und Resolver-Präfixe wie "https://doi.org/" oder "doi:".
func TrimDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if len(doi) >= len(prefix) && strings.EqualFold(doi[:len(prefix)], prefix) {
			return strings.TrimSpace(doi[len(prefix):])
		}
	}
	return doi
}

// essRules prüft eine Software-Angabe; connection_id nur für ESS-Einträge eines Batches.
func essRules(e *ESSSubmission, base string, entry bool, c *collector) {
	at := func(f string) string { return joinPath(base, f) }

	if !entry && e.ConnectionID != "" {
		c.add(at("connection_id"), KindConsistency, "connection_id is only allowed on ess entries of a batch upload")
	}
	e.Name = strings.TrimSpace(e.Name)
	e.Version = strings.TrimSpace(e.Version)
	e.Revision = strings.TrimSpace(e.Revision)
	e.URL = strings.TrimSpace(e.URL)
	if e.Name == "" && !c.has(at("name")) {
		c.add(at("name"), KindMissing, "field is required")
	}
}
