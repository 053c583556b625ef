package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"tckdb/schemas"
)

// significantDigits begrenzt die Genauigkeit numerischer Parameter im Dedup-Key,
// damit 0.2 und 0.20000000000000001 denselben Key ergeben.
const significantDigits = 12

// canonicalNumber formatiert v mit fester signifikanter Stellenzahl ohne überflüssige Nullen.
func canonicalNumber(v float64) string {
	if v == 0 {
		return "0" // auch -0
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', significantDigits, 64), 64)
	if err != nil {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(rounded, 'g', -1, 64)
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalLevel liefert die gespeicherte Form eines Level of Theory samt Dedup-Key.
// Die Feldreihenfolge im Key ist fest, Parameter werden nach Namen sortiert.
func CanonicalLevel(in schemas.LevelOfTheory) (fields [9]string, params map[string]float64, key string) {
	fields = [9]string{
		schemas.CanonicalText(in.Method),
		schemas.CanonicalText(in.Basis),
		schemas.CanonicalText(in.AuxiliaryBasis),
		schemas.CanonicalText(in.Dispersion),
		schemas.CanonicalText(in.Grid),
		schemas.CanonicalText(in.Solvent),
		schemas.CanonicalText(in.SolvationMethod),
		schemas.CanonicalText(in.SolvationDescription),
		schemas.CanonicalText(in.LevelArguments),
	}
	names := [9]string{"method", "basis", "auxiliary_basis", "dispersion", "grid",
		"solvent", "solvation_method", "solvation_description", "level_arguments"}

	parts := make([]string, 0, len(fields)+len(in.Parameters))
	for i, f := range fields {
		parts = append(parts, names[i]+"="+f)
	}

	params = make(map[string]float64, len(in.Parameters))
	for k, v := range in.Parameters {
		params[schemas.CanonicalText(k)] = v
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, "param:"+k+"="+canonicalNumber(params[k]))
	}
	return fields, params, digest(parts...)
}

// LevelKey ist der Dedup-Key eines Level of Theory.
func LevelKey(in schemas.LevelOfTheory) string {
	_, _, key := CanonicalLevel(in)
	return key
}

// BathGasKey ist der Dedup-Key eines Badgases; "N2", " n2 " und "Ｎ2" sind gleich.
func BathGasKey(name string) string {
	return digest("bath_gas", schemas.CanonicalText(name))
}

// SpeciesKey bildet die Identität einer Spezies aus kanonischem Identifier, Ladung und Multiplizität.
// Summenformeln werden in Hill-Notation verglichen, InChI und SMILES als getrimmter Text.
func SpeciesKey(vs *schemas.ValidatedSpecies) string {
	ident := strings.TrimSpace(vs.Identifier)
	if vs.IdentifierType == schemas.IdentifierFormula && vs.Formula != nil {
		ident = vs.Formula.Hill()
	}
	return digest("species", vs.IdentifierType, ident,
		strconv.Itoa(deref(vs.Charge)), strconv.Itoa(deref(vs.Multiplicity)))
}

// AuthorKey ist der Dedup-Key eines Autors aus Vor- und Nachname.
func AuthorKey(a schemas.AuthorRef) string {
	return digest("author", schemas.CanonicalText(a.FirstName), schemas.CanonicalText(a.LastName))
}

// ESSKey identifiziert eine Software über Name, Version und Revision; die URL gehört nicht dazu.
func ESSKey(e schemas.ESSSubmission) string {
	return digest("ess", schemas.CanonicalText(e.Name), schemas.CanonicalText(e.Version), schemas.CanonicalText(e.Revision))
}

// LiteratureKey identifiziert eine Literaturquelle: über die DOI, sonst die ISBN,
// sonst über Typ, Titel, Jahr und Nachname des Erstautors.
func LiteratureKey(l schemas.LiteratureSubmission) string {
	if doi := canonicalDOI(l.DOI); doi != "" {
		return digest("literature", "doi", doi)
	}
	if isbn := canonicalISBN(l.ISBN); isbn != "" {
		return digest("literature", "isbn", isbn)
	}
	first := ""
	if len(l.Authors) > 0 {
		first = schemas.CanonicalText(l.Authors[0].LastName)
	}
	return digest("literature", "citation", l.Type, schemas.CanonicalText(l.Title), strconv.Itoa(deref(l.Year)), first)
}

// canonicalDOI vergleicht DOIs ohne Resolver-Präfix; DOIs sind case-insensitiv.
func canonicalDOI(doi string) string {
	return schemas.CanonicalText(schemas.TrimDOI(doi))
}

func canonicalISBN(isbn string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(isbn), "-", ""))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
