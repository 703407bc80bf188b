package violations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/nodestore"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

func sublayerNode(id, simpleName string) recordsource.RawNode {
	return recordsource.RawNode{ElementID: id, Labels: []string{"Sublayer"}, Properties: map[string]any{"simple_name": simpleName}}
}

func violatesPath(fromID, fromName, toID, toName string) recordsource.RawPath {
	return recordsource.RawPath{
		Nodes: []recordsource.RawNode{sublayerNode(fromID, fromName), sublayerNode(toID, toName)},
		Relationships: []recordsource.RawRelationship{
			{Type: violatesType, StartID: fromID, EndID: toID},
		},
	}
}

func TestLoadCatalogueExtractsViolatesPairs(t *testing.T) {
	paths := []recordsource.RawPath{violatesPath("s1", "UI", "s2", "Data")}
	cat := LoadCatalogue(paths)
	require.Len(t, cat, 1)
	assert.Equal(t, SublayerPair{From: "UI", To: "Data"}, cat[0])
}

func TestLoadCatalogueSkipsNonViolatesRelationships(t *testing.T) {
	paths := []recordsource.RawPath{{
		Nodes:         []recordsource.RawNode{sublayerNode("s1", "UI"), sublayerNode("s2", "Data")},
		Relationships: []recordsource.RawRelationship{{Type: "CALLS", StartID: "s1", EndID: "s2"}},
	}}
	assert.Empty(t, LoadCatalogue(paths))
}

func TestLoadCatalogueSkipsMalformedEndpoints(t *testing.T) {
	paths := []recordsource.RawPath{{
		Nodes:         []recordsource.RawNode{sublayerNode("s1", "UI")},
		Relationships: []recordsource.RawRelationship{{Type: violatesType, StartID: "s1", EndID: "missing"}},
	}}
	assert.Empty(t, LoadCatalogue(paths))
}

func buildSublayerStore(t *testing.T) (*nodestore.Store, model.NodeID, model.NodeID) {
	t.Helper()
	paths := []recordsource.RawPath{{
		Nodes: []recordsource.RawNode{
			sublayerNode("s1", "UI"),
			{ElementID: "m1", Labels: []string{"Module"}, Properties: map[string]any{"simple_name": "m1"}},
			sublayerNode("s2", "Data"),
			{ElementID: "m2", Labels: []string{"Module"}, Properties: map[string]any{"simple_name": "m2"}},
		},
		Relationships: []recordsource.RawRelationship{
			{Type: "CONTAINS", StartID: "s1", EndID: "m1"},
			{Type: "CONTAINS", StartID: "s2", EndID: "m2"},
		},
	}}
	idx := containment.Build(paths)
	store := nodestore.Construct(paths, nil)
	store.WireContainment(idx)
	return store, "m1", "m2"
}

func TestDetectLayerViolationsMarksAndGroupsMatchingPairs(t *testing.T) {
	store, m1, m2 := buildSublayerStore(t)
	edge := strongEdge("e1", string(m1), string(m2))
	catalogue := []SublayerPair{{From: "UI", To: "Data"}}

	out := DetectLayerViolations([]*model.DependencyRelationship{edge}, store, catalogue)

	require.Len(t, out, 1)
	assert.True(t, edge.Violations.Sublayer)
	assert.Equal(t, m1, out[0].StartNode)
	assert.Equal(t, m2, out[0].EndNode)
	require.Len(t, out[0].ActualEdges, 1)
}

func TestDetectLayerViolationsIgnoresPairsNotInCatalogue(t *testing.T) {
	store, m1, m2 := buildSublayerStore(t)
	edge := strongEdge("e1", string(m1), string(m2))

	out := DetectLayerViolations([]*model.DependencyRelationship{edge}, store, nil)

	assert.Empty(t, out)
	assert.False(t, edge.Violations.Sublayer)
}

func TestSublayerAncestorNameWalksUpToNearestSublayer(t *testing.T) {
	store, m1, _ := buildSublayerStore(t)
	assert.Equal(t, "UI", sublayerAncestorName(store, m1))
}

func TestSublayerAncestorNameEmptyWhenNoneFound(t *testing.T) {
	store := nodestore.New()
	assert.Equal(t, "", sublayerAncestorName(store, "missing"))
}
