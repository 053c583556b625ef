package services

import (
	"fmt"

	"tckdb/models"
)

// NodeKind benennt die Art eines Eintrags im Entity-Graph.
type NodeKind string

const (
	NodeLevel          NodeKind = "level"
	NodeBathGas        NodeKind = "bath_gas"
	NodeSpecies        NodeKind = "species"
	NodeRecord         NodeKind = "frequency_record"
	NodeSpeciesBathGas NodeKind = "species_bath_gas"
	NodeFreqScale      NodeKind = "freq_scale"
	NodeAuthor         NodeKind = "author"
	NodeLiterature     NodeKind = "literature"
	NodeAuthorship     NodeKind = "literature_author"
	NodeESS            NodeKind = "ess"
)

// Action ist die (vorläufige) Entscheidung für einen Knoten.
type Action string

const (
	ActionCreate Action = "create"
	ActionReuse  Action = "reuse"
)

// Node ist ein Eintrag im Entity-Graph. Kanten zeigen vom abhängigen Knoten
// auf seine Abhängigkeiten (Level, Species, BathGas, Literature, Author, ESS).
type Node struct {
	Kind   NodeKind
	Action Action
	Ref    string // Pfad in der Einreichung, für Logs und Fehlermeldungen

	// Dedup-Key bei geteilten Einträgen (Level, Badgas, Literatur, Autor, ESS)
	Key string
	// bei ActionReuse die ID des vorhandenen Eintrags
	ExistingID uint

	LevelRow      *models.Level
	BathGasRow    *models.BathGas
	SpeciesRow    *models.Species
	RecordRow     *models.FrequencyRecord
	LinkRow       *models.SpeciesBathGas
	FreqScaleRow  *models.FreqScale
	LiteratureRow *models.Literature
	AuthorRow     *models.Author
	AuthorshipRow *models.LiteratureAuthor
	ESSRow        *models.ESS

	Level      *Node
	Species    *Node
	BathGas    *Node
	Literature *Node
	Author     *Node
	ESS        *Node
}

// Shared meldet, ob Einträge dieser Art geteilt und inhaltsadressiert sind.
func (k NodeKind) Shared() bool {
	switch k {
	case NodeLevel, NodeBathGas, NodeLiterature, NodeAuthor, NodeESS:
		return true
	}
	return false
}

// Deps liefert die Abhängigkeiten des Knotens.
func (n *Node) Deps() []*Node {
	var out []*Node
	for _, d := range []*Node{n.Level, n.Species, n.BathGas, n.Literature, n.Author, n.ESS} {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// EntityGraph ist das Ergebnis der Normalisierung und die Eingabe des Commits.
type EntityGraph struct {
	Nodes []*Node
	// Primary sind die Knoten, nach denen die Einreichung gefragt hat, in Eingabereihenfolge.
	Primary []*Node

	index map[*Node]int
}

func NewEntityGraph() *EntityGraph {
	return &EntityGraph{index: map[*Node]int{}}
}

// Add nimmt n auf; mehrfaches Hinzufügen desselben Knotens ist wirkungslos.
func (g *EntityGraph) Add(n *Node) *Node {
	if g.index == nil {
		g.index = map[*Node]int{}
	}
	if _, ok := g.index[n]; ok {
		return n
	}
	g.index[n] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return n
}

// Order sortiert die Knoten topologisch (Kahn), Abhängigkeiten zuerst.
// Bei gleichem Rang bleibt die Einfügereihenfolge erhalten.
func (g *EntityGraph) Order() ([]*Node, error) {
	pending := make(map[*Node]int, len(g.Nodes))
	dependents := make(map[*Node][]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, d := range n.Deps() {
			if _, ok := g.index[d]; !ok {
				return nil, fmt.Errorf("%s %s depends on a node outside the graph", n.Kind, n.Ref)
			}
			pending[n]++
			dependents[d] = append(dependents[d], n)
		}
	}

	queue := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if pending[n] == 0 {
			queue = append(queue, n)
		}
	}
	out := make([]*Node, 0, len(g.Nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		for _, dep := range dependents[n] {
			pending[dep]--
			if pending[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if len(out) != len(g.Nodes) {
		return nil, ErrCycle
	}
	return out, nil
}

// Count liefert die Anzahl der Knoten je Art und Aktion, z.B. für Logs.
func (g *EntityGraph) Count(kind NodeKind, action Action) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind == kind && node.Action == action {
			n++
		}
	}
	return n
}
