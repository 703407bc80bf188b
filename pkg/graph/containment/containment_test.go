package containment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

func chain(ids ...string) []recordsource.RawPath {
	var rels []recordsource.RawRelationship
	for i := 0; i < len(ids)-1; i++ {
		rels = append(rels, recordsource.RawRelationship{Type: "CONTAINS", StartID: ids[i], EndID: ids[i+1]})
	}
	return []recordsource.RawPath{{Relationships: rels}}
}

func TestBuildIgnoresNonContainmentEdges(t *testing.T) {
	paths := []recordsource.RawPath{{Relationships: []recordsource.RawRelationship{
		{Type: "CALLS", StartID: "m1", EndID: "m2"},
	}}}
	idx := Build(paths)
	_, ok := idx.Parent("m2")
	assert.False(t, ok)
}

func TestBuildDeduplicatesRepeatedEdges(t *testing.T) {
	paths := append(chain("d1", "a1", "m1"), chain("d1", "a1", "m1")...)
	idx := Build(paths)
	assert.Equal(t, []string{"m1"}, idx.Children("a1"))
}

func TestAncestorsOrderedNearestFirst(t *testing.T) {
	idx := Build(chain("d1", "a1", "l1", "m1"))
	require.Equal(t, []string{"l1", "a1", "d1"}, idx.Ancestors("m1"))
}

func TestAncestorAt(t *testing.T) {
	idx := Build(chain("d1", "a1", "l1", "m1"))

	got, ok := idx.AncestorAt("m1", 0)
	require.True(t, ok)
	assert.Equal(t, "m1", got)

	got, ok = idx.AncestorAt("m1", 2)
	require.True(t, ok)
	assert.Equal(t, "a1", got)

	_, ok = idx.AncestorAt("m1", 10)
	assert.False(t, ok, "chain shallower than requested hop count")
}

func TestDepthAndRoot(t *testing.T) {
	idx := Build(chain("d1", "a1", "l1", "m1"))
	assert.Equal(t, 3, idx.Depth("m1"))
	assert.Equal(t, "d1", idx.Root("m1"))
	assert.Equal(t, "d1", idx.Root("d1"), "a node with no parent is its own root")
}

func TestParentUnknownForRoot(t *testing.T) {
	idx := Build(chain("d1", "a1"))
	_, ok := idx.Parent("d1")
	assert.False(t, ok)
}
