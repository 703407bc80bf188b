package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

func node(id string) recordsource.RawNode {
	return recordsource.RawNode{ElementID: id, Labels: []string{"Module"}, Properties: map[string]any{"simple_name": id, "full_name": id}}
}

func callPath(d, a, m1, m2 string) recordsource.RawPath {
	return recordsource.RawPath{
		Nodes: []recordsource.RawNode{node(d), node(a), node(m1), node(m2)},
		Relationships: []recordsource.RawRelationship{
			{ElementID: d + a, Type: "CONTAINS", StartID: d, EndID: a},
			{ElementID: a + m1, Type: "CONTAINS", StartID: a, EndID: m1},
			{ElementID: m1 + m2, Type: "CALLS", StartID: m1, EndID: m2},
			{ElementID: d + a + "2", Type: "CONTAINS", StartID: d, EndID: a},
			{ElementID: a + m2, Type: "CONTAINS", StartID: a, EndID: m2},
		},
	}
}

func TestRunParsesAndIndexesPaths(t *testing.T) {
	raw := []recordsource.RawPath{callPath("d1", "a1", "m1", "m2")}
	result, err := Run(raw, Options{})
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	assert.Equal(t, model.NodeID("m1"), result.Paths[0].StartNode)
	assert.Equal(t, 4, result.Store.Len())
}

func TestRunFatalOnDepthInvariantBreak(t *testing.T) {
	// Source side has two containment hops, target side has only one:
	// an asymmetric chunk that must never occur for well-formed leaves.
	raw := []recordsource.RawPath{{
		Nodes: []recordsource.RawNode{node("d1"), node("a1"), node("m1"), node("m2")},
		Relationships: []recordsource.RawRelationship{
			{ElementID: "r1", Type: "CONTAINS", StartID: "d1", EndID: "a1"},
			{ElementID: "r2", Type: "CONTAINS", StartID: "a1", EndID: "m1"},
			{ElementID: "r3", Type: "CALLS", StartID: "m1", EndID: "m2"},
			{ElementID: "r4", Type: "CONTAINS", StartID: "a1", EndID: "m2"},
		},
	}}
	_, err := Run(raw, Options{})
	require.Error(t, err)
	assert.True(t, graphcore.Is(err, graphcore.KindDepthInvariantBroken))
}

func TestDedupeLongestPathKeepsDeepestRecord(t *testing.T) {
	shallow := &model.ComponentPath{
		DependencyEdges: []*model.DependencyRelationship{{ElementID: "e1"}},
		TargetDepth:     1,
	}
	deep := &model.ComponentPath{
		DependencyEdges: []*model.DependencyRelationship{{ElementID: "e1"}},
		TargetDepth:     3,
	}
	out := dedupeLongestPath([]*model.ComponentPath{shallow, deep})
	require.Len(t, out, 1)
	assert.Same(t, deep, out[0])
}

func TestExcludeDomainsDropsMatchingRootFullName(t *testing.T) {
	raw := []recordsource.RawPath{callPath("d1", "a1", "m1", "m2")}
	result, err := Run(raw, Options{ExcludedRootNames: []string{"d1"}})
	require.NoError(t, err)
	assert.Empty(t, result.Paths, "every path under the excluded domain should be dropped")
}

func TestExcludeDomainsKeepsUnrelatedDomains(t *testing.T) {
	raw := []recordsource.RawPath{callPath("d1", "a1", "m1", "m2")}
	result, err := Run(raw, Options{ExcludedRootNames: []string{"other-domain"}})
	require.NoError(t, err)
	assert.Len(t, result.Paths, 1)
}
