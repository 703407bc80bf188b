package visualization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
	"github.com/orneryd/archlens/pkg/graph/resultcache"
)

func billingFixture() *recordsource.InMemory {
	node := func(id, label string) recordsource.RawNode {
		return recordsource.RawNode{ElementID: id, Labels: []string{label}, Properties: map[string]any{"simple_name": id, "full_name": id}}
	}
	neighbourhood := []recordsource.RawPath{{
		Nodes: []recordsource.RawNode{node("d1", "Domain"), node("a1", "Application")},
		Relationships: []recordsource.RawRelationship{
			{ElementID: "r1", Type: "CONTAINS", StartID: "d1", EndID: "a1"},
		},
	}}
	outgoing := []recordsource.RawPath{{
		Nodes: []recordsource.RawNode{node("d1", "Domain"), node("a1", "Application"), node("m1", "Module"), node("m2", "Module")},
		Relationships: []recordsource.RawRelationship{
			{ElementID: "r2", Type: "CONTAINS", StartID: "d1", EndID: "a1"},
			{ElementID: "r3", Type: "CONTAINS", StartID: "a1", EndID: "m1"},
			{ElementID: "r4", Type: "CALLS", StartID: "m1", EndID: "m2", Properties: map[string]any{"nr_dependencies": 2}},
			{ElementID: "r5", Type: "CONTAINS", StartID: "d1", EndID: "a1"},
			{ElementID: "r6", Type: "CONTAINS", StartID: "a1", EndID: "m2"},
		},
	}}

	opts := QueryOptions{ID: "a1", LayerDepth: 1, DependencyDepth: 1, ShowOutgoing: true, ShowStrongDependencies: true}
	return recordsource.NewInMemory().
		Register(neighbourhoodQuery(opts), neighbourhood).
		Register(outgoingQuery(opts), outgoing).
		Register(violatesCatalogueQuery, nil)
}

func TestVisualizeReturnsMergedGraphWithNeighbourhoodNodes(t *testing.T) {
	src := billingFixture()
	svc := &Service{Source: src}
	opts := QueryOptions{ID: "a1", LayerDepth: 1, DependencyDepth: 1, ShowOutgoing: true, ShowStrongDependencies: true}

	g, report, err := svc.Visualize(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Contains(t, g.Nodes, model.NodeID("a1"))
	assert.Contains(t, g.Nodes, model.NodeID("d1"), "neighbourhood ancestor survives the merge")
}

func TestVisualizeUsesCacheOnSecondCall(t *testing.T) {
	src := billingFixture()
	cache, err := resultcache.Open(resultcache.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	svc := &Service{Source: src, Cache: cache}
	opts := QueryOptions{ID: "a1", LayerDepth: 1, DependencyDepth: 1, ShowOutgoing: true, ShowStrongDependencies: true}

	first, _, err := svc.Visualize(context.Background(), opts)
	require.NoError(t, err)

	src.FailWith(assert.AnError) // any subsequent live query would now fail
	second, _, err := svc.Visualize(context.Background(), opts)
	require.NoError(t, err, "second call must be served from cache, not the now-failing source")
	assert.Equal(t, first.Name, second.Name)
}

func TestVisualizeTranslatesSourceFailureToStoreUnavailable(t *testing.T) {
	src := recordsource.NewInMemory().FailWith(assert.AnError)
	svc := &Service{Source: src}

	_, _, err := svc.Visualize(context.Background(), QueryOptions{ID: "a1"})
	require.Error(t, err)
	assert.True(t, graphcore.Is(err, graphcore.KindStoreUnavailable))
}

func TestCacheKeyDiffersOnOptionFields(t *testing.T) {
	a := QueryOptions{ID: "a1", LayerDepth: 1}
	b := QueryOptions{ID: "a1", LayerDepth: 2}
	assert.NotEqual(t, cacheKey(a), cacheKey(b))
}

func TestCacheKeyStableForEquivalentOptions(t *testing.T) {
	a := QueryOptions{ID: "a1", LayerDepth: 1, ShowOutgoing: true}
	b := QueryOptions{ID: "a1", LayerDepth: 1, ShowOutgoing: true}
	assert.Equal(t, cacheKey(a), cacheKey(b))
}
