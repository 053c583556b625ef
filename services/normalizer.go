package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"tckdb/models"
	"tckdb/schemas"
)

// Normalizer übersetzt validierte Einreichungen in einen Entity-Graph.
// Er liest nur und hält keinen Zustand zwischen Aufrufen; parallele Aufrufe sind sicher.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// builder sammelt die Knoten einer Einreichung und dedupliziert geteilte Einträge innerhalb davon.
type builder struct {
	ctx  context.Context
	view StoreView
	g    *EntityGraph

	levels      map[string]*Node
	bathGases   map[string]*Node
	literature  map[string]*Node
	authors     map[string]*Node
	ess         map[string]*Node
	connections map[string]*Node
}

func (n *Normalizer) newBuilder(ctx context.Context, view StoreView) *builder {
	return &builder{
		ctx:         ctx,
		view:        view,
		g:           NewEntityGraph(),
		levels:      map[string]*Node{},
		bathGases:   map[string]*Node{},
		literature:  map[string]*Node{},
		authors:     map[string]*Node{},
		ess:         map[string]*Node{},
		connections: map[string]*Node{},
	}
}

// NormalizeLevel löst ein einzelnes Level auf: vorhanden (reuse) oder neu (create).
func (n *Normalizer) NormalizeLevel(ctx context.Context, in *schemas.ValidatedLevel, view StoreView) (*EntityGraph, error) {
	b := n.newBuilder(ctx, view)
	node, err := b.level(in.LevelOfTheory, "$")
	if err != nil {
		return nil, err
	}
	b.g.Primary = append(b.g.Primary, node)
	return b.g, nil
}

// NormalizeSpecies baut den Graph für eine neue Spezies (Version 1).
func (n *Normalizer) NormalizeSpecies(ctx context.Context, in *schemas.ValidatedSpecies, view StoreView) (*EntityGraph, error) {
	b := n.newBuilder(ctx, view)
	node, err := b.species(in, "")
	if err != nil {
		return nil, err
	}
	b.g.Primary = append(b.g.Primary, node)
	n.logger.Debug("normalized species",
		zap.Int("nodes", len(b.g.Nodes)),
		zap.Int("levels_reused", b.g.Count(NodeLevel, ActionReuse)),
		zap.Int("bath_gases_reused", b.g.Count(NodeBathGas, ActionReuse)))
	return b.g, nil
}

// NormalizeRevision baut den Graph für eine neue Version der Spezies targetID.
// Identifier, Ladung und Multiplizität müssen gleich bleiben. Ist targetID nicht mehr
// die neueste Version, scheitert der Commit am Unique-Index (species_key, version).
func (n *Normalizer) NormalizeRevision(ctx context.Context, targetID uint, in *schemas.ValidatedSpecies, view StoreView) (*EntityGraph, error) {
	target, err := view.SpeciesByID(ctx, targetID)
	if errors.Is(err, ErrNotFound) {
		return nil, &NormalizationError{Message: fmt.Sprintf("species %d does not exist", targetID), Err: ErrNotFound}
	}
	if err != nil {
		return nil, err
	}

	b := n.newBuilder(ctx, view)
	node, err := b.species(in, "")
	if err != nil {
		return nil, err
	}
	if node.SpeciesRow.SpeciesKey != target.SpeciesKey {
		return nil, &NormalizationError{
			Path:    "species",
			Message: fmt.Sprintf("a revision must keep identifier, charge and multiplicity of species %d", targetID),
		}
	}
	node.SpeciesRow.Version = target.Version + 1
	node.SpeciesRow.SupersedesID = &target.ID
	b.g.Primary = append(b.g.Primary, node)
	return b.g, nil
}

// NormalizeFreqScale baut den Graph für einen Skalierungsfaktor.
func (n *Normalizer) NormalizeFreqScale(ctx context.Context, in *schemas.ValidatedFreqScale, view StoreView) (*EntityGraph, error) {
	b := n.newBuilder(ctx, view)
	node, err := b.freqScale(in, "")
	if err != nil {
		return nil, err
	}
	b.g.Primary = append(b.g.Primary, node)
	return b.g, nil
}

// NormalizeLiterature löst eine einzelne Literaturquelle auf: vorhanden (reuse) oder neu
// samt Autoren.
func (n *Normalizer) NormalizeLiterature(ctx context.Context, in *schemas.ValidatedLiterature, view StoreView) (*EntityGraph, error) {
	b := n.newBuilder(ctx, view)
	node, err := b.literatureNode(in.LiteratureSubmission, "")
	if err != nil {
		return nil, err
	}
	b.g.Primary = append(b.g.Primary, node)
	return b.g, nil
}

// NormalizeESS löst eine Software-Angabe auf: vorhanden (reuse) oder neu (create).
func (n *Normalizer) NormalizeESS(ctx context.Context, in *schemas.ValidatedESS, view StoreView) (*EntityGraph, error) {
	b := n.newBuilder(ctx, view)
	node, err := b.essNode(in.ESSSubmission, "$")
	if err != nil {
		return nil, err
	}
	b.g.Primary = append(b.g.Primary, node)
	return b.g, nil
}

// NormalizeBatch baut einen gemeinsamen Graph für alle Einträge eines Batch-Uploads.
// Primary enthält erst Levels, Literatur und ESS, dann Spezies, dann Skalierungsfaktoren.
func (n *Normalizer) NormalizeBatch(ctx context.Context, in *schemas.ValidatedBatch, view StoreView) (*EntityGraph, error) {
	b := n.newBuilder(ctx, view)
	for i := range in.Levels {
		path := fmt.Sprintf("levels[%d]", i)
		node, err := b.level(in.Levels[i].LevelOfTheory, path)
		if err != nil {
			return nil, err
		}
		if id := in.Levels[i].ConnectionID; id != "" {
			b.connections[id] = node
		}
		b.g.Primary = append(b.g.Primary, node)
	}
	for i := range in.Literature {
		node, err := b.literatureNode(in.Literature[i].LiteratureSubmission, fmt.Sprintf("literature[%d]", i))
		if err != nil {
			return nil, err
		}
		if id := in.Literature[i].ConnectionID; id != "" {
			b.connections[id] = node
		}
		b.g.Primary = append(b.g.Primary, node)
	}
	for i := range in.ESS {
		node, err := b.essNode(in.ESS[i].ESSSubmission, fmt.Sprintf("ess[%d]", i))
		if err != nil {
			return nil, err
		}
		if id := in.ESS[i].ConnectionID; id != "" {
			b.connections[id] = node
		}
		b.g.Primary = append(b.g.Primary, node)
	}
	for i := range in.Species {
		node, err := b.species(&in.Species[i], fmt.Sprintf("species[%d]", i))
		if err != nil {
			return nil, err
		}
		b.g.Primary = append(b.g.Primary, node)
	}
	for i := range in.FreqScales {
		node, err := b.freqScale(&in.FreqScales[i], fmt.Sprintf("freq_scales[%d]", i))
		if err != nil {
			return nil, err
		}
		b.g.Primary = append(b.g.Primary, node)
	}
	n.logger.Debug("normalized batch",
		zap.Int("nodes", len(b.g.Nodes)),
		zap.Int("primary", len(b.g.Primary)))
	return b.g, nil
}

func (b *builder) level(in schemas.LevelOfTheory, ref string) (*Node, error) {
	fields, params, key := CanonicalLevel(in)
	if node, ok := b.levels[key]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeLevel, Ref: ref, Key: key}
	existing, err := b.view.LevelByKey(b.ctx, key)
	switch {
	case err == nil:
		node.Action = ActionReuse
		node.ExistingID = existing.ID
		node.LevelRow = existing
	case errors.Is(err, ErrNotFound):
		node.Action = ActionCreate
		node.LevelRow = levelRow(fields, params, key)
	default:
		return nil, err
	}
	b.levels[key] = node
	return b.g.Add(node), nil
}

func levelRow(f [9]string, params map[string]float64, key string) *models.Level {
	row := &models.Level{
		DedupKey:             key,
		Method:               f[0],
		Basis:                f[1],
		AuxiliaryBasis:       f[2],
		Dispersion:           f[3],
		Grid:                 f[4],
		Solvent:              f[5],
		SolvationMethod:      f[6],
		SolvationDescription: f[7],
		LevelArguments:       f[8],
	}
	if len(params) > 0 {
		row.Parameters = datatypes.JSONMap{}
		for k, v := range params {
			row.Parameters[k] = v
		}
	}
	return row
}

// levelRef löst die drei Arten auf, ein Level anzugeben.
func (b *builder) levelRef(inline *schemas.LevelOfTheory, id *uint, conn, base string) (*Node, error) {
	at := func(f string) string {
		if base == "" {
			return f
		}
		return base + "." + f
	}

	if conn != "" {
		return b.connection(NodeLevel, conn, at("level_connection_id"))
	}

	if id == nil {
		if inline == nil {
			return nil, &NormalizationError{Path: at("level_of_theory"), Message: "no level of theory given"}
		}
		return b.level(*inline, at("level_of_theory"))
	}

	existing, err := b.view.LevelByID(b.ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, &NormalizationError{Path: at("level_id"), Message: fmt.Sprintf("level %d does not exist", *id)}
	}
	if err != nil {
		return nil, err
	}
	if inline != nil && LevelKey(*inline) != existing.DedupKey {
		return nil, &NormalizationError{
			Path:    at("level_of_theory"),
			Message: fmt.Sprintf("level_of_theory does not match level %d", *id),
		}
	}
	if node, ok := b.levels[existing.DedupKey]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeLevel, Action: ActionReuse, Ref: at("level_id"), Key: existing.DedupKey, ExistingID: existing.ID, LevelRow: existing}
	b.levels[existing.DedupKey] = node
	return b.g.Add(node), nil
}

func (b *builder) bathGas(name, ref string) (*Node, error) {
	key := BathGasKey(name)
	if node, ok := b.bathGases[key]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeBathGas, Ref: ref, Key: key}
	existing, err := b.view.BathGasByKey(b.ctx, key)
	switch {
	case err == nil:
		node.Action = ActionReuse
		node.ExistingID = existing.ID
		node.BathGasRow = existing
	case errors.Is(err, ErrNotFound):
		node.Action = ActionCreate
		node.BathGasRow = &models.BathGas{DedupKey: key, Name: name}
	default:
		return nil, err
	}
	b.bathGases[key] = node
	return b.g.Add(node), nil
}

func (b *builder) species(in *schemas.ValidatedSpecies, base string) (*Node, error) {
	at := func(f string) string {
		if base == "" {
			return f
		}
		return base + "." + f
	}

	level, err := b.levelRef(in.LevelOfTheory, in.LevelID, in.LevelConnectionID, base)
	if err != nil {
		return nil, err
	}

	row := &models.Species{
		SpeciesKey:       SpeciesKey(in),
		Version:          1,
		Label:            in.Label,
		Identifier:       in.Identifier,
		IdentifierType:   in.IdentifierType,
		Charge:           deref(in.Charge),
		Multiplicity:     deref(in.Multiplicity),
		ElectronicState:  in.ElectronicState,
		Degeneracy:       in.Degeneracy,
		IsTS:             in.IsTS,
		Linear:           in.Linear,
		PointGroup:       in.PointGroup,
		ExternalSymmetry: in.ExternalSymmetry,
	}
	if in.AtomCount >= 2 {
		linear := in.IsLinear
		row.Linear = &linear
	}
	if in.Coordinates != nil {
		raw, err := json.Marshal(in.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("encode coordinates: %w", err)
		}
		row.Coordinates = datatypes.JSON(raw)
	}

	lit, err := b.literatureRef(in.Literature, in.LiteratureID, in.LiteratureConnectionID, base)
	if err != nil {
		return nil, err
	}
	ess, err := b.essRef(in.ESS, in.ESSID, in.ESSConnectionID, base)
	if err != nil {
		return nil, err
	}

	node := b.g.Add(&Node{Kind: NodeSpecies, Action: ActionCreate, Ref: rootOr(base), SpeciesRow: row, Level: level, Literature: lit, ESS: ess})

	if len(in.Frequencies) > 0 || in.ElectronicEnergy != nil || in.ZPE != nil {
		rec := &models.FrequencyRecord{
			Frequencies:      datatypes.JSONSlice[float64](append([]float64(nil), in.Frequencies...)),
			ElectronicEnergy: in.ElectronicEnergy,
			ZPE:              in.ZPE,
		}
		b.g.Add(&Node{Kind: NodeRecord, Action: ActionCreate, Ref: at("frequencies"), RecordRow: rec, Species: node, Level: level})
	}

	for i, ref := range in.BathGases {
		path := fmt.Sprintf("%s[%d]", at("bath_gases"), i)
		gas, err := b.bathGas(ref.Name, path)
		if err != nil {
			return nil, err
		}
		link := &models.SpeciesBathGas{}
		if ref.EnergyTransfer != nil {
			raw, err := json.Marshal(ref.EnergyTransfer)
			if err != nil {
				return nil, fmt.Errorf("encode energy transfer: %w", err)
			}
			link.EnergyTransfer = datatypes.JSON(raw)
		}
		b.g.Add(&Node{Kind: NodeSpeciesBathGas, Action: ActionCreate, Ref: path, LinkRow: link, Species: node, BathGas: gas})
	}
	return node, nil
}

func (b *builder) freqScale(in *schemas.ValidatedFreqScale, base string) (*Node, error) {
	level, err := b.levelRef(in.LevelOfTheory, in.LevelID, in.LevelConnectionID, base)
	if err != nil {
		return nil, err
	}
	row := &models.FreqScale{Factor: deref(in.Factor), Source: in.Source}
	return b.g.Add(&Node{Kind: NodeFreqScale, Action: ActionCreate, Ref: rootOr(base), FreqScaleRow: row, Level: level}), nil
}

// connection löst eine connection_id aus demselben Batch auf; sie muss auf einen Eintrag
// der erwarteten Art zeigen.
func (b *builder) connection(kind NodeKind, id, path string) (*Node, error) {
	node, ok := b.connections[id]
	if !ok || node.Kind != kind {
		return nil, &NormalizationError{
			Path:    path,
			Message: fmt.Sprintf("no %s with connection_id %q in this upload", kind, id),
		}
	}
	return node, nil
}

// literatureRef löst die optionale Quelle einer Spezies auf; nil, wenn keine angegeben ist.
func (b *builder) literatureRef(inline *schemas.LiteratureSubmission, id *uint, conn, base string) (*Node, error) {
	if conn != "" {
		return b.connection(NodeLiterature, conn, joinRef(base, "literature_connection_id"))
	}
	if inline != nil {
		return b.literatureNode(*inline, joinRef(base, "literature"))
	}
	if id == nil {
		return nil, nil
	}
	existing, err := b.view.LiteratureByID(b.ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, &NormalizationError{Path: joinRef(base, "literature_id"), Message: fmt.Sprintf("literature %d does not exist", *id)}
	}
	if err != nil {
		return nil, err
	}
	if node, ok := b.literature[existing.DedupKey]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeLiterature, Action: ActionReuse, Ref: joinRef(base, "literature_id"), Key: existing.DedupKey, ExistingID: existing.ID, LiteratureRow: existing}
	b.literature[existing.DedupKey] = node
	return b.g.Add(node), nil
}

// literatureNode legt die Quelle an oder verwendet sie wieder. Autoren und ihre Reihenfolge
// werden nur beim Anlegen geschrieben.
func (b *builder) literatureNode(in schemas.LiteratureSubmission, base string) (*Node, error) {
	key := LiteratureKey(in)
	if node, ok := b.literature[key]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeLiterature, Ref: rootOr(base), Key: key}
	existing, err := b.view.LiteratureByKey(b.ctx, key)
	switch {
	case err == nil:
		node.Action = ActionReuse
		node.ExistingID = existing.ID
		node.LiteratureRow = existing
		b.literature[key] = node
		return b.g.Add(node), nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	node.Action = ActionCreate
	node.LiteratureRow = literatureRow(in, key)
	b.literature[key] = node
	b.g.Add(node)

	for i, a := range in.Authors {
		path := fmt.Sprintf("%s[%d]", joinRef(base, "authors"), i)
		author, err := b.author(a, path)
		if err != nil {
			return nil, err
		}
		b.g.Add(&Node{
			Kind:          NodeAuthorship,
			Action:        ActionCreate,
			Ref:           path,
			AuthorshipRow: &models.LiteratureAuthor{Position: i + 1},
			Literature:    node,
			Author:        author,
		})
	}
	return node, nil
}

func literatureRow(in schemas.LiteratureSubmission, key string) *models.Literature {
	return &models.Literature{
		DedupKey:         key,
		Type:             in.Type,
		Title:            strings.TrimSpace(in.Title),
		Year:             deref(in.Year),
		Journal:          strings.TrimSpace(in.Journal),
		Volume:           in.Volume,
		Issue:            in.Issue,
		PageStart:        in.PageStart,
		PageEnd:          in.PageEnd,
		Publisher:        strings.TrimSpace(in.Publisher),
		Editors:          strings.TrimSpace(in.Editors),
		Edition:          strings.TrimSpace(in.Edition),
		ChapterTitle:     strings.TrimSpace(in.ChapterTitle),
		PublicationPlace: strings.TrimSpace(in.PublicationPlace),
		Advisor:          strings.TrimSpace(in.Advisor),
		DOI:              canonicalDOI(in.DOI),
		ISBN:             strings.TrimSpace(in.ISBN),
		URL:              strings.TrimSpace(in.URL),
	}
}

func (b *builder) author(in schemas.AuthorRef, ref string) (*Node, error) {
	key := AuthorKey(in)
	if node, ok := b.authors[key]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeAuthor, Ref: ref, Key: key}
	existing, err := b.view.AuthorByKey(b.ctx, key)
	switch {
	case err == nil:
		node.Action = ActionReuse
		node.ExistingID = existing.ID
		node.AuthorRow = existing
	case errors.Is(err, ErrNotFound):
		node.Action = ActionCreate
		node.AuthorRow = &models.Author{DedupKey: key, FirstName: strings.TrimSpace(in.FirstName), LastName: strings.TrimSpace(in.LastName)}
	default:
		return nil, err
	}
	b.authors[key] = node
	return b.g.Add(node), nil
}

// essRef löst die optionale Software einer Spezies auf; nil, wenn keine angegeben ist.
func (b *builder) essRef(inline *schemas.ESSSubmission, id *uint, conn, base string) (*Node, error) {
	switch {
	case conn != "":
		return b.connection(NodeESS, conn, joinRef(base, "ess_connection_id"))
	case inline != nil:
		return b.essNode(*inline, joinRef(base, "ess"))
	case id == nil:
		return nil, nil
	}
	existing, err := b.view.ESSByID(b.ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, &NormalizationError{Path: joinRef(base, "ess_id"), Message: fmt.Sprintf("ess %d does not exist", *id)}
	}
	if err != nil {
		return nil, err
	}
	if node, ok := b.ess[existing.DedupKey]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeESS, Action: ActionReuse, Ref: joinRef(base, "ess_id"), Key: existing.DedupKey, ExistingID: existing.ID, ESSRow: existing}
	b.ess[existing.DedupKey] = node
	return b.g.Add(node), nil
}

func (b *builder) essNode(in schemas.ESSSubmission, ref string) (*Node, error) {
	key := ESSKey(in)
	if node, ok := b.ess[key]; ok {
		return node, nil
	}
	node := &Node{Kind: NodeESS, Ref: ref, Key: key}
	existing, err := b.view.ESSByKey(b.ctx, key)
	switch {
	case err == nil:
		node.Action = ActionReuse
		node.ExistingID = existing.ID
		node.ESSRow = existing
	case errors.Is(err, ErrNotFound):
		node.Action = ActionCreate
		node.ESSRow = &models.ESS{
			DedupKey: key,
			Name:     strings.TrimSpace(in.Name),
			Version:  strings.TrimSpace(in.Version),
			Revision: strings.TrimSpace(in.Revision),
			URL:      strings.TrimSpace(in.URL),
		}
	default:
		return nil, err
	}
	b.ess[key] = node
	return b.g.Add(node), nil
}

func joinRef(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func rootOr(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
