package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDependencyProfileAdd(t *testing.T) {
	a := DependencyProfile{1, 2, 3, 4}
	b := DependencyProfile{10, 20, 30, 40}
	assert.Equal(t, DependencyProfile{11, 22, 33, 44}, a.Add(b))
}

func TestDependencyProfileAccessors(t *testing.T) {
	p := ProfileFor(ProfileOutbound)
	assert.Equal(t, 0, p.Hidden())
	assert.Equal(t, 0, p.Inbound())
	assert.Equal(t, 1, p.Outbound())
	assert.Equal(t, 0, p.Transit())
	assert.Equal(t, 1, p.Sum())
}

func TestProfileForUnknownCategoryIsZero(t *testing.T) {
	assert.Equal(t, DependencyProfile{}, ProfileFor("BOGUS"))
}

func TestNodeSemanticLabelPicksLongestEntry(t *testing.T) {
	n := &Node{Labels: []string{"Module", "Module_entrypoint"}}
	assert.Equal(t, "Module_entrypoint", n.SemanticLabel())
}

func TestNodeIsLeaf(t *testing.T) {
	leaf := &Node{}
	assert.True(t, leaf.IsLeaf())

	parent := &Node{Children: []NodeID{"m1"}}
	assert.False(t, parent.IsLeaf())
}

func TestRangeContains(t *testing.T) {
	min, max := 2, 5
	r := &Range{Min: &min, Max: &max}

	assert.False(t, r.Contains(1))
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(6))

	var unbounded *Range
	assert.True(t, unbounded.Contains(999), "a nil Range constrains nothing")
}

func TestComponentPathID(t *testing.T) {
	leafOnly := &ComponentPath{StartNode: "m1"}
	assert.Equal(t, "m1", leafOnly.PathID())

	withEdges := &ComponentPath{DependencyEdges: []*DependencyRelationship{
		{ElementID: "e1"}, {ElementID: "e2"},
	}}
	assert.Equal(t, "e1,e2", withEdges.PathID())
}

func TestReferenceNamesJoined(t *testing.T) {
	d := &DependencyRelationship{ReferenceNames: []string{"Foo", "Bar"}}
	assert.Equal(t, "Foo|Bar", d.ReferenceNamesJoined())
}
