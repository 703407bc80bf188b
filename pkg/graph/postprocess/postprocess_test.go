package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
)

func graphWithNode(id string) *model.Graph {
	g := model.NewGraph("g")
	g.Nodes[model.NodeID(id)] = &model.Node{ElementID: model.NodeID(id)}
	return g
}

func TestMergeConcatenatesNodesAndEdgesFirstWins(t *testing.T) {
	a := graphWithNode("n1")
	a.Nodes["n1"].SimpleName = "from-a"
	b := graphWithNode("n1")
	b.Nodes["n1"].SimpleName = "from-b"
	b.Nodes["n2"] = &model.Node{ElementID: "n2"}

	merged := Merge("out", a, b)

	assert.Len(t, merged.Nodes, 2)
	assert.Equal(t, "from-a", merged.Nodes["n1"].SimpleName, "first graph wins on id collision")
}

func TestMergeSkipsNilGraphs(t *testing.T) {
	a := graphWithNode("n1")
	merged := Merge("out", a, nil)
	assert.Len(t, merged.Nodes, 1)
}

func TestValidateIntegrityPassesWhenEndpointsPresent(t *testing.T) {
	g := graphWithNode("n1")
	g.Nodes["n2"] = &model.Node{ElementID: "n2"}
	g.Edges["e1"] = &model.DependencyRelationship{ElementID: "e1", StartNode: "n1", EndNode: "n2"}

	assert.NoError(t, ValidateIntegrity(g))
}

func TestValidateIntegrityFailsOnMissingEndpoint(t *testing.T) {
	g := graphWithNode("n1")
	g.Edges["e1"] = &model.DependencyRelationship{ElementID: "e1", StartNode: "n1", EndNode: "missing"}

	err := ValidateIntegrity(g)
	require.Error(t, err)
	assert.True(t, graphcore.Is(err, graphcore.KindResultIntegrityFailure))
}

func TestCollapseContainmentSetsParentAndRemovesEdge(t *testing.T) {
	g := graphWithNode("parent")
	g.Nodes["child"] = &model.Node{ElementID: "child"}
	g.Edges["e1"] = &model.DependencyRelationship{ElementID: "e1", StartNode: "parent", EndNode: "child", Type: "CONTAINS"}
	g.Edges["e2"] = &model.DependencyRelationship{ElementID: "e2", StartNode: "parent", EndNode: "child", Type: "CALLS"}

	CollapseContainment(g)

	require.NotNil(t, g.Nodes["child"].Parent)
	assert.Equal(t, model.NodeID("parent"), *g.Nodes["child"].Parent)
	_, stillThere := g.Edges["e1"]
	assert.False(t, stillThere, "CONTAINS edges are removed once collapsed into Parent")
	_, callsSurvived := g.Edges["e2"]
	assert.True(t, callsSurvived)
}

func TestRunFailsFastOnIntegrityViolationBeforeCollapsing(t *testing.T) {
	g := graphWithNode("parent")
	g.Edges["e1"] = &model.DependencyRelationship{ElementID: "e1", StartNode: "parent", EndNode: "missing", Type: "CONTAINS"}

	_, err := Run("out", g)
	require.Error(t, err)
	assert.True(t, graphcore.Is(err, graphcore.KindResultIntegrityFailure))
}

func TestRunMergesValidatesAndCollapses(t *testing.T) {
	g := graphWithNode("parent")
	g.Nodes["child"] = &model.Node{ElementID: "child"}
	g.Edges["e1"] = &model.DependencyRelationship{ElementID: "e1", StartNode: "parent", EndNode: "child", Type: "CONTAINS"}

	out, err := Run("out", g)
	require.NoError(t, err)
	assert.Empty(t, out.Edges)
	assert.Equal(t, model.NodeID("parent"), *out.Nodes["child"].Parent)
}
