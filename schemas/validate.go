package schemas

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate ist threadsafe und wird von allen Requests geteilt.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatedLevel ist ein Level of Theory, das alle Regeln erfüllt.
type ValidatedLevel struct {
	LevelOfTheory
}

// ValidatedSpecies ist eine geprüfte Spezies samt abgeleiteter Größen.
type ValidatedSpecies struct {
	SpeciesSubmission

	// Formula ist nil, wenn sie sich nicht bestimmen lässt (SMILES ohne Koordinaten).
	Formula   Formula
	AtomCount int
	IsLinear  bool
}

// ValidatedFreqScale ist ein geprüfter Skalierungsfaktor.
type ValidatedFreqScale struct {
	FreqScaleSubmission
}

// ValidatedLiterature ist eine geprüfte Literaturquelle.
type ValidatedLiterature struct {
	LiteratureSubmission
}

// ValidatedESS ist eine geprüfte Software-Angabe.
type ValidatedESS struct {
	ESSSubmission
}

// ValidatedBatch ist ein vollständig geprüfter Batch-Upload.
type ValidatedBatch struct {
	Levels     []ValidatedLevel
	Literature []ValidatedLiterature
	ESS        []ValidatedESS
	Species    []ValidatedSpecies
	FreqScales []ValidatedFreqScale
}

// ValidateLevel dekodiert und prüft ein einzelnes Level of Theory.
func ValidateLevel(raw []byte) (*ValidatedLevel, error) {
	var in LevelOfTheory
	c := newCollector()
	if err := parse(raw, &in, c); err != nil {
		return nil, err
	}
	return checkLevel(in, c)
}

// CheckLevel prüft ein bereits dekodiertes Level of Theory.
func CheckLevel(in LevelOfTheory) (*ValidatedLevel, error) {
	return checkLevel(in, newCollector())
}

func checkLevel(in LevelOfTheory, c *collector) (*ValidatedLevel, error) {
	checkStruct(&in, "", c)
	levelRules(&in, "", false, c)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ValidatedLevel{LevelOfTheory: in}, nil
}

// ValidateSpecies dekodiert und prüft eine Spezies-Einreichung.
func ValidateSpecies(raw []byte) (*ValidatedSpecies, error) {
	var in SpeciesSubmission
	c := newCollector()
	if err := parse(raw, &in, c); err != nil {
		return nil, err
	}
	return checkSpecies(in, c)
}

// CheckSpecies prüft eine bereits dekodierte Spezies-Einreichung.
func CheckSpecies(in SpeciesSubmission) (*ValidatedSpecies, error) {
	return checkSpecies(in, newCollector())
}

func checkSpecies(in SpeciesSubmission, c *collector) (*ValidatedSpecies, error) {
	checkStruct(&in, "", c)
	out := speciesRules(&in, "", false, c)
	if err := c.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateFreqScale dekodiert und prüft einen Skalierungsfaktor.
func ValidateFreqScale(raw []byte) (*ValidatedFreqScale, error) {
	var in FreqScaleSubmission
	c := newCollector()
	if err := parse(raw, &in, c); err != nil {
		return nil, err
	}
	checkStruct(&in, "", c)
	freqScaleRules(&in, "", false, c)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ValidatedFreqScale{FreqScaleSubmission: in}, nil
}

// ValidateLiterature dekodiert und prüft eine Literaturquelle.
func ValidateLiterature(raw []byte) (*ValidatedLiterature, error) {
	var in LiteratureSubmission
	c := newCollector()
	if err := parse(raw, &in, c); err != nil {
		return nil, err
	}
	checkStruct(&in, "", c)
	literatureRules(&in, "", false, c)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ValidatedLiterature{LiteratureSubmission: in}, nil
}

// CheckLiterature prüft eine bereits dekodierte Literaturquelle, z.B. aus einem DOI-Lookup.
func CheckLiterature(in LiteratureSubmission) (*ValidatedLiterature, error) {
	c := newCollector()
	checkStruct(&in, "", c)
	literatureRules(&in, "", false, c)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ValidatedLiterature{LiteratureSubmission: in}, nil
}

// ValidateESS dekodiert und prüft eine Software-Angabe.
func ValidateESS(raw []byte) (*ValidatedESS, error) {
	var in ESSSubmission
	c := newCollector()
	if err := parse(raw, &in, c); err != nil {
		return nil, err
	}
	checkStruct(&in, "", c)
	essRules(&in, "", false, c)
	if err := c.err(); err != nil {
		return nil, err
	}
	return &ValidatedESS{ESSSubmission: in}, nil
}

// ValidateBatch dekodiert und prüft einen Batch-Upload; Pfade sind z.B. "species[2].charge".
func ValidateBatch(raw []byte) (*ValidatedBatch, error) {
	var in BatchSubmission
	c := newCollector()
	if err := parse(raw, &in, c); err != nil {
		return nil, err
	}
	checkStruct(&in, "", c)

	if len(in.Levels)+len(in.Literature)+len(in.ESS)+len(in.Species)+len(in.FreqScales) == 0 {
		c.add("$", KindMissing, "batch contains no entries")
	}

	out := &ValidatedBatch{}
	connections := map[string]string{}
	claim := func(id, path string) {
		if id == "" {
			return
		}
		if first, ok := connections[id]; ok {
			c.add(path, KindDuplicate, "connection_id %q is already used by %s", id, first)
			return
		}
		connections[id] = path
	}

	// Levels, Literatur und ESS sind nur per connection_id referenzierbar
	entry := func(id, base, what string) {
		path := joinPath(base, "connection_id")
		if strings.TrimSpace(id) == "" && !c.has(path) {
			c.add(path, KindMissing, "connection_id is required for batch %s", what)
		}
		claim(id, path)
	}

	for i := range in.Levels {
		base := indexPath("levels", i)
		l := &in.Levels[i]
		entry(l.ConnectionID, base, "levels")
		levelRules(l, base, true, c)
		out.Levels = append(out.Levels, ValidatedLevel{LevelOfTheory: *l})
	}
	for i := range in.Literature {
		base := indexPath("literature", i)
		l := &in.Literature[i]
		entry(l.ConnectionID, base, "literature")
		literatureRules(l, base, true, c)
		out.Literature = append(out.Literature, ValidatedLiterature{LiteratureSubmission: *l})
	}
	for i := range in.ESS {
		base := indexPath("ess", i)
		e := &in.ESS[i]
		entry(e.ConnectionID, base, "ess")
		essRules(e, base, true, c)
		out.ESS = append(out.ESS, ValidatedESS{ESSSubmission: *e})
	}
	for i := range in.Species {
		base := indexPath("species", i)
		claim(in.Species[i].ConnectionID, joinPath(base, "connection_id"))
		out.Species = append(out.Species, *speciesRules(&in.Species[i], base, true, c))
	}
	for i := range in.FreqScales {
		base := indexPath("freq_scales", i)
		freqScaleRules(&in.FreqScales[i], base, true, c)
		out.FreqScales = append(out.FreqScales, ValidatedFreqScale{FreqScaleSubmission: in.FreqScales[i]})
	}

	if err := c.err(); err != nil {
		return nil, err
	}
	return out, nil
}

// checkStruct führt die Tag-Regeln aus und übersetzt sie in Violations.
func checkStruct(s any, base string, c *collector) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		c.add(rootOr(base), KindFormat, "%v", err)
		return
	}
	for _, fe := range ves {
		path := joinPath(base, stripRoot(fe.Namespace()))
		if c.has(path) {
			continue
		}
		kind, msg := describe(fe)
		c.add(path, kind, "%s", msg)
	}
}

func stripRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) (Kind, string) {
	p := fe.Param()
	sized := fe.Kind() == reflect.String || fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map
	unit := "characters"
	if fe.Kind() != reflect.String {
		unit = "entries"
	}
	switch fe.Tag() {
	case "required":
		return KindMissing, "field is required"
	case "required_with":
		return KindMissing, fmt.Sprintf("required when %s is set", snake(p))
	case "max":
		if sized {
			return KindLength, fmt.Sprintf("must contain at most %s %s", p, unit)
		}
		return KindRange, "must be <= " + p
	case "min":
		if sized {
			return KindLength, fmt.Sprintf("must contain at least %s %s", p, unit)
		}
		return KindRange, "must be >= " + p
	case "len":
		return KindLength, fmt.Sprintf("must contain exactly %s %s", p, unit)
	case "gt":
		return KindRange, "must be > " + p
	case "gte":
		return KindRange, "must be >= " + p
	case "lt":
		return KindRange, "must be < " + p
	case "lte":
		return KindRange, "must be <= " + p
	case "excludes":
		return KindFormat, fmt.Sprintf("must not contain %q", p)
	case "oneof":
		return KindEnum, "must be one of: " + strings.ReplaceAll(p, " ", ", ")
	case "startswith":
		return KindFormat, fmt.Sprintf("must start with %q", p)
	case "url":
		return KindFormat, "must be an absolute URL"
	}
	return KindFormat, fmt.Sprintf("failed rule %q", fe.Tag())
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
