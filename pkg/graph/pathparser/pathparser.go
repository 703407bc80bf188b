// Package pathparser chunks one raw path record into a containment
// prefix, a dependency middle, and a containment suffix, and lifts the
// resulting ComponentPath to a requested layer depth.
package pathparser

import (
	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/nodestore"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

const containsType = "CONTAINS"

// Options tunes the chunking of a pure-containment path (one with no
// dependency relationships at all): whether the queried node is itself
// a Domain decides which side of the chunk the whole relationship run
// belongs to.
type Options struct {
	SelectedIsDomain bool
}

func parseDependencyRelationship(rel recordsource.RawRelationship) *model.DependencyRelationship {
	d := &model.DependencyRelationship{
		ElementID: model.EdgeID(rel.ElementID),
		Type:      rel.Type,
		StartNode: model.NodeID(rel.StartID),
		EndNode:   model.NodeID(rel.EndID),
	}
	if v, ok := rel.Properties["reference_type"].(string); ok {
		d.ReferenceType = v
	}
	if v, ok := rel.Properties["dependency_type"].(string); ok {
		dt := model.DependencyType(v)
		d.DependencyType = &dt
	}
	if v, ok := rel.Properties["reference_names"].([]string); ok {
		d.ReferenceNames = append([]string(nil), v...)
	}
	if v, ok := rel.Properties["nr_dependencies"].(int); ok {
		d.NrDependencies = &v
	}
	if v, ok := rel.Properties["nr_calls"].(int); ok {
		d.NrCalls = &v
	}
	if v, ok := rel.Properties["nr_module_dependencies"].(int); ok {
		d.NrModuleDependencies = v
	} else {
		d.NrModuleDependencies = 1
	}
	if v, ok := rel.Properties["nr_function_dependencies"].(int); ok {
		d.NrFunctionDependencies = v
	}
	return d
}

// Parse chunks raw into a ComponentPath. store must already hold every
// node raw touches (built by nodestore.Construct over the same path
// set) so endpoint resolution never fails except on genuine store
// corruption.
//
// source_depth and target_depth are the lengths of the source-side and
// target-side containment chunks, not containment-index depths: this
// is what makes the well-formedness invariant
// source_depth + len(dependency_edges) + target_depth == len(raw_relationships)
// hold by construction whenever the dependency middle carries no
// CONTAINS relationships. CONTAINS relationships inside the middle are
// skipped and are counted in none of the three terms.
func Parse(raw recordsource.RawPath, store *nodestore.Store, opts Options) (*model.ComponentPath, error) {
	rels := raw.Relationships
	n := len(rels)

	if n == 0 {
		if len(raw.Nodes) != 1 {
			return nil, graphcore.New(graphcore.KindMissingEndpoint, "zero-relationship path must carry exactly one node")
		}
		id := model.NodeID(raw.Nodes[0].ElementID)
		return &model.ComponentPath{StartNode: id, EndNode: id}, nil
	}

	prefixLen := 0
	for prefixLen < n && rels[prefixLen].Type == containsType {
		prefixLen++
	}

	var suffixLen int
	if prefixLen == n {
		// Pure containment chain: no dependency edges at all. Which side
		// of the chunk the whole run belongs to depends on whether the
		// queried node anchors the source or the target side of the
		// eventual traversal.
		if opts.SelectedIsDomain {
			suffixLen = 0
		} else {
			suffixLen = n
			prefixLen = 0
		}
	} else {
		for suffixLen < n-prefixLen && rels[n-1-suffixLen].Type == containsType {
			suffixLen++
		}
	}

	prefix := rels[:prefixLen]
	middle := rels[prefixLen : n-suffixLen]
	suffix := rels[n-suffixLen:]

	cp := &model.ComponentPath{
		SourceDepth:          prefixLen,
		TargetDepth:          suffixLen,
		RawRelationshipCount: n,
	}

	switch {
	case len(prefix) > 0:
		cp.StartNode = model.NodeID(prefix[len(prefix)-1].EndID)
	case len(middle) > 0:
		cp.StartNode = model.NodeID(middle[0].StartID)
	case len(suffix) > 0:
		cp.StartNode = model.NodeID(suffix[0].StartID)
	default:
		return nil, graphcore.New(graphcore.KindMissingEndpoint, "path has no relationships to derive a start node from")
	}

	switch {
	case len(suffix) > 0:
		cp.EndNode = model.NodeID(suffix[len(suffix)-1].EndID)
	case len(middle) > 0:
		cp.EndNode = model.NodeID(middle[len(middle)-1].EndID)
	case len(prefix) > 0:
		cp.EndNode = model.NodeID(prefix[0].StartID)
	default:
		return nil, graphcore.New(graphcore.KindMissingEndpoint, "path has no relationships to derive an end node from")
	}

	for _, rel := range middle {
		if rel.Type == containsType {
			continue
		}
		if !store.Has(model.NodeID(rel.StartID)) || !store.Has(model.NodeID(rel.EndID)) {
			return nil, graphcore.New(graphcore.KindMissingEndpoint,
				"dependency relationship %s references a node the store never materialised", rel.ElementID)
		}
		cp.DependencyEdges = append(cp.DependencyEdges, parseDependencyRelationship(rel))
	}

	return cp, nil
}

// Lift abstracts cp up to depth: every node deeper than depth is
// replaced by its ancestor at that depth, and every dependency edge's
// endpoints follow along. A no-op when cp.SourceDepth is already at or
// above depth. Fails with KindLiftingTooDeep when an endpoint's
// ancestor chain is shallower than the lift distance.
func Lift(cp *model.ComponentPath, idx *containment.Index, liftMap map[model.NodeID]model.NodeID, depth int) error {
	if cp.SourceDepth <= depth {
		return nil
	}
	tooDeep := cp.SourceDepth - depth

	newStart, ok := idx.AncestorAt(string(cp.StartNode), tooDeep)
	if !ok {
		return graphcore.New(graphcore.KindLiftingTooDeep, "node %s has no ancestor %d levels up", cp.StartNode, tooDeep)
	}
	newEnd, ok := idx.AncestorAt(string(cp.EndNode), tooDeep)
	if !ok {
		return graphcore.New(graphcore.KindLiftingTooDeep, "node %s has no ancestor %d levels up", cp.EndNode, tooDeep)
	}

	cp.SourceDepth -= tooDeep
	cp.TargetDepth -= tooDeep
	cp.StartNode = model.NodeID(newStart)
	cp.EndNode = model.NodeID(newEnd)

	for _, e := range cp.DependencyEdges {
		if e.OriginalStartNode == nil {
			orig := e.StartNode
			e.OriginalStartNode = &orig
		}
		if e.OriginalEndNode == nil {
			orig := e.EndNode
			e.OriginalEndNode = &orig
		}

		liftedStart, ok := idx.AncestorAt(string(*e.OriginalStartNode), tooDeep)
		if !ok {
			return graphcore.New(graphcore.KindLiftingTooDeep, "node %s has no ancestor %d levels up", *e.OriginalStartNode, tooDeep)
		}
		liftedEnd, ok := idx.AncestorAt(string(*e.OriginalEndNode), tooDeep)
		if !ok {
			return graphcore.New(graphcore.KindLiftingTooDeep, "node %s has no ancestor %d levels up", *e.OriginalEndNode, tooDeep)
		}

		e.StartNode = model.NodeID(liftedStart)
		e.EndNode = model.NodeID(liftedEnd)

		if liftMap != nil {
			liftMap[*e.OriginalStartNode] = e.StartNode
			liftMap[*e.OriginalEndNode] = e.EndNode
		}
	}

	return nil
}
