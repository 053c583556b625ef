package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPutsDependenciesFirst(t *testing.T) {
	g := NewEntityGraph()
	level := &Node{Kind: NodeLevel, Ref: "level"}
	gas := &Node{Kind: NodeBathGas, Ref: "gas"}
	species := &Node{Kind: NodeSpecies, Ref: "species", Level: level}
	record := &Node{Kind: NodeRecord, Ref: "record", Species: species, Level: level}
	link := &Node{Kind: NodeSpeciesBathGas, Ref: "link", Species: species, BathGas: gas}

	// absichtlich verkehrt herum eingefügt
	for _, n := range []*Node{link, record, species, gas, level} {
		g.Add(n)
	}
	g.Add(level)
	require.Len(t, g.Nodes, 5)

	order, err := g.Order()
	require.NoError(t, err)
	pos := map[*Node]int{}
	for i, n := range order {
		pos[n] = i
	}
	for _, n := range g.Nodes {
		for _, d := range n.Deps() {
			assert.Less(t, pos[d], pos[n], "%s must come after %s", n.Ref, d.Ref)
		}
	}
}

func TestOrderDetectsCycle(t *testing.T) {
	g := NewEntityGraph()
	a := &Node{Kind: NodeSpecies, Ref: "a"}
	b := &Node{Kind: NodeSpecies, Ref: "b", Species: a}
	a.Species = b
	g.Add(a)
	g.Add(b)

	_, err := g.Order()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestOrderRejectsForeignDependency(t *testing.T) {
	g := NewEntityGraph()
	g.Add(&Node{Kind: NodeSpecies, Ref: "s", Level: &Node{Kind: NodeLevel}})

	_, err := g.Order()
	assert.Error(t, err)
}
