package nodestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

func rawNode(id, label, category string) recordsource.RawNode {
	props := map[string]any{"simple_name": id, "full_name": id}
	if category != "" {
		props["dependency_profile_category"] = category
	}
	return recordsource.RawNode{ElementID: id, Labels: []string{label}, Properties: props}
}

func treePaths() []recordsource.RawPath {
	d1 := rawNode("d1", "Domain", "")
	a1 := rawNode("a1", "Application", "")
	m1 := rawNode("m1", "Module", "OUTBOUND")
	m2 := rawNode("m2", "Module", "INBOUND")
	return []recordsource.RawPath{{
		Nodes: []recordsource.RawNode{d1, a1, m1, m2},
		Relationships: []recordsource.RawRelationship{
			{Type: "CONTAINS", StartID: "d1", EndID: "a1"},
			{Type: "CONTAINS", StartID: "a1", EndID: "m1"},
			{Type: "CONTAINS", StartID: "a1", EndID: "m2"},
		},
	}}
}

func TestConstructMaterialisesEveryDistinctNode(t *testing.T) {
	s := Construct(treePaths(), nil)
	assert.Equal(t, 4, s.Len())
	require.True(t, s.Has("m1"))
	assert.Equal(t, "m1", s.Get("m1").SimpleName)
}

func TestConstructLocalNodeWinsOverContext(t *testing.T) {
	ctx := New()
	ctx.nodes["a1"] = &model.Node{ElementID: "a1", SimpleName: "stale"}

	s := Construct(treePaths(), ctx)
	assert.Equal(t, "a1", s.Get("a1").SimpleName, "local path data overrides the context copy")
}

func TestWireContainmentSetsParentAndChildren(t *testing.T) {
	paths := treePaths()
	idx := containment.Build(paths)
	s := Construct(paths, nil)
	s.WireContainment(idx)

	require.NotNil(t, s.Get("m1").Parent)
	assert.Equal(t, model.NodeID("a1"), *s.Get("m1").Parent)
	assert.ElementsMatch(t, []model.NodeID{"m1", "m2"}, s.Get("a1").Children)
	assert.Nil(t, s.Get("d1").Parent)
}

func TestMarkSelectionFlagsDescendants(t *testing.T) {
	paths := treePaths()
	idx := containment.Build(paths)
	s := Construct(paths, nil)
	s.WireContainment(idx)

	selected := model.NodeID("a1")
	s.MarkSelection(&selected)

	assert.True(t, s.Get("a1").Selected)
	assert.True(t, s.Get("a1").InSelection)
	assert.True(t, s.Get("m1").InSelection)
	assert.False(t, s.Get("m1").Selected)
	assert.False(t, s.Get("d1").InSelection)
}

func TestComputeProfilesFoldsBottomUp(t *testing.T) {
	paths := treePaths()
	idx := containment.Build(paths)
	s := Construct(paths, nil)
	s.WireContainment(idx)
	s.ComputeProfiles()

	assert.Equal(t, 1, s.Get("m1").Profile.Outbound())
	assert.Equal(t, 1, s.Get("m2").Profile.Inbound())

	appProfile := s.Get("a1").Profile
	assert.Equal(t, 1, appProfile.Outbound())
	assert.Equal(t, 1, appProfile.Inbound())
	assert.Equal(t, 2, appProfile.Sum(), "application profile sums its two leaves")

	assert.Equal(t, appProfile, s.Get("d1").Profile, "domain profile equals its single child's profile")
}
