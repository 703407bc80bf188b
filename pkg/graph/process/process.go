// Package process implements edge lifting, filtering, canonical-id
// assignment and duplicate merging.
//
// Stages run in a fixed order and are exposed as separate functions
// rather than one monolith, so the caller can splice violation
// collection in between canonicalisation and merge, exactly where it
// needs the canonical ids but before they get folded into duplicates.
package process

import (
	"sort"

	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/nodestore"
	"github.com/orneryd/archlens/pkg/graph/pathparser"
)

// Options configures one Processor run.
type Options struct {
	Depth int

	SelfEdges bool

	ShowStrong bool
	ShowWeak   bool
	ShowEntity bool

	OutgoingRange *model.Range
	IncomingRange *model.Range

	SelectedID *model.NodeID
}

// Lift abstracts every path to opts.Depth, recording the original→lifted
// id mapping in liftMap for the cycle extractor.
func Lift(paths []*model.ComponentPath, idx *containment.Index, liftMap map[model.NodeID]model.NodeID, opts Options) error {
	for _, cp := range paths {
		if err := pathparser.Lift(cp, idx, liftMap, opts.Depth); err != nil {
			return err
		}
	}
	return nil
}

// CollectEdges flattens every path's dependency edges into one slice.
func CollectEdges(paths []*model.ComponentPath) []*model.DependencyRelationship {
	var out []*model.DependencyRelationship
	for _, cp := range paths {
		out = append(out, cp.DependencyEdges...)
	}
	return out
}

// FilterSelfEdges drops edges whose lifted start equals its lifted end,
// unless opts.SelfEdges keeps them.
func FilterSelfEdges(edges []*model.DependencyRelationship, opts Options) []*model.DependencyRelationship {
	if opts.SelfEdges {
		return edges
	}
	out := edges[:0:0]
	for _, e := range edges {
		if e.StartNode != e.EndNode {
			out = append(out, e)
		}
	}
	return out
}

// FilterDependencyTypes drops edges whose dependency_type is excluded
// by the show flags. An edge with no dependency_type is never dropped
// here — the filter has nothing to match against.
func FilterDependencyTypes(edges []*model.DependencyRelationship, opts Options) []*model.DependencyRelationship {
	out := edges[:0:0]
	for _, e := range edges {
		if e.DependencyType == nil {
			out = append(out, e)
			continue
		}
		switch *e.DependencyType {
		case model.DependencyStrong:
			if opts.ShowStrong {
				out = append(out, e)
			}
		case model.DependencyWeak:
			if opts.ShowWeak {
				out = append(out, e)
			}
		case model.DependencyEntity:
			if opts.ShowEntity {
				out = append(out, e)
			}
		default:
			out = append(out, e)
		}
	}
	return out
}

// FilterDegree drops edges whose in-selection endpoint's dependency
// count falls outside the requested range. Counts are computed before
// duplicate merging: merging first would undercount edges that
// collapse into the same (start,end) pair.
func FilterDegree(edges []*model.DependencyRelationship, store *nodestore.Store, opts Options) []*model.DependencyRelationship {
	if opts.OutgoingRange == nil && opts.IncomingRange == nil {
		return edges
	}

	outgoingCount := make(map[model.NodeID]int)
	incomingCount := make(map[model.NodeID]int)
	for _, e := range edges {
		if n := store.Get(e.StartNode); n != nil && n.InSelection {
			outgoingCount[e.StartNode]++
		}
		if n := store.Get(e.EndNode); n != nil && n.InSelection {
			incomingCount[e.EndNode]++
		}
	}

	out := edges[:0:0]
	for _, e := range edges {
		if opts.OutgoingRange != nil {
			if n := store.Get(e.StartNode); n != nil && n.InSelection {
				if !opts.OutgoingRange.Contains(outgoingCount[e.StartNode]) {
					continue
				}
			}
		}
		if opts.IncomingRange != nil {
			if n := store.Get(e.EndNode); n != nil && n.InSelection {
				if !opts.IncomingRange.Contains(incomingCount[e.EndNode]) {
					continue
				}
			}
		}
		out = append(out, e)
	}
	return out
}

// AssignCanonicalIDs gives every edge sharing a (start,end) pair the
// same element id — the first one encountered — so merged edges keep a
// stable id for the renderer.
func AssignCanonicalIDs(edges []*model.DependencyRelationship) {
	type pair struct {
		start, end model.NodeID
	}
	canonical := make(map[pair]model.EdgeID, len(edges))
	for _, e := range edges {
		key := pair{e.StartNode, e.EndNode}
		if id, ok := canonical[key]; ok {
			e.ElementID = id
		} else {
			canonical[key] = e.ElementID
		}
	}
}

// MergeDuplicates folds edges sharing a (start,end) pair into one,
// aggregating counters and reference names.
// Idempotent: merging an already-merged set changes nothing, since each
// (start,end) pair is represented exactly once afterward.
func MergeDuplicates(edges []*model.DependencyRelationship) []*model.DependencyRelationship {
	type pair struct {
		start, end model.NodeID
	}
	order := make([]pair, 0, len(edges))
	merged := make(map[pair]*model.DependencyRelationship, len(edges))

	for _, e := range edges {
		key := pair{e.StartNode, e.EndNode}
		existing, ok := merged[key]
		if !ok {
			cp := *e
			cp.ReferenceNames = append([]string(nil), e.ReferenceNames...)
			merged[key] = &cp
			order = append(order, key)
			continue
		}
		existing.NrModuleDependencies += e.NrModuleDependencies
		existing.NrFunctionDependencies += e.NrFunctionDependencies
		existing.ReferenceNames = dedupeStrings(append(existing.ReferenceNames, e.ReferenceNames...))
		if existing.DependencyType == nil && e.DependencyType != nil {
			existing.DependencyType = e.DependencyType
		}
		existing.Violations.Sublayer = existing.Violations.Sublayer || e.Violations.Sublayer
		existing.Violations.DependencyCycle = existing.Violations.DependencyCycle || e.Violations.DependencyCycle
	}

	out := make([]*model.DependencyRelationship, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// FilterNodes returns the ids that belong in the result graph: every
// endpoint of a surviving edge, their ancestors, and the selected
// node's full ancestor/descendant subtree.
func FilterNodes(edges []*model.DependencyRelationship, store *nodestore.Store, idx *containment.Index, opts Options) map[model.NodeID]bool {
	keep := make(map[model.NodeID]bool)
	addWithAncestors := func(id model.NodeID) {
		keep[id] = true
		for _, a := range idx.Ancestors(string(id)) {
			keep[model.NodeID(a)] = true
		}
	}
	for _, e := range edges {
		addWithAncestors(e.StartNode)
		addWithAncestors(e.EndNode)
	}

	if opts.SelectedID != nil {
		addWithAncestors(*opts.SelectedID)
		var walk func(id model.NodeID)
		walk = func(id model.NodeID) {
			keep[id] = true
			n := store.Get(id)
			if n == nil {
				return
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(*opts.SelectedID)
	}

	return keep
}

// SortedEdgeIDs returns edge ids in deterministic order, used by tests
// asserting on merge/filter output shape.
func SortedEdgeIDs(edges []*model.DependencyRelationship) []model.EdgeID {
	ids := make([]model.EdgeID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ElementID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
