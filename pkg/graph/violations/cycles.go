// Package violations implements the two violation services: cycle
// extraction and layer-violation detection.
package violations

import (
	"sort"
	"strings"

	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

func resolveLift(liftMap map[model.NodeID]model.NodeID, id model.NodeID) model.NodeID {
	if v, ok := liftMap[id]; ok {
		return v
	}
	return id
}

func originalOf(e *model.DependencyRelationship, start bool) model.NodeID {
	if start {
		if e.OriginalStartNode != nil {
			return *e.OriginalStartNode
		}
		return e.StartNode
	}
	if e.OriginalEndNode != nil {
		return *e.OriginalEndNode
	}
	return e.EndNode
}

func findMatchingEdge(edges []*model.DependencyRelationship, origStart, origEnd model.NodeID) *model.DependencyRelationship {
	for _, e := range edges {
		if originalOf(e, true) == origStart && originalOf(e, false) == origEnd {
			return e
		}
	}
	return nil
}

func buildCycleID(node model.NodeID, edges []model.ExtendedEdge) string {
	var b strings.Builder
	b.WriteString(string(node))
	b.WriteString("--")
	for i, e := range edges {
		if i > 0 {
			b.WriteString("-")
		}
		b.WriteString(string(e.ElementID))
	}
	return b.String()
}

// ExtractCycles rewrites every store-reported cycle to reference
// post-abstraction ids, drops cycles whose primary node did not survive
// filtering, and groups the remainder by their abstracted shape.
//
// edges is the post-lift, canonical-id-assigned dependency set before
// duplicate merging — cycle extraction needs both the pre-lift original
// endpoints (to match a cycle segment to the dependency it came from)
// and the post-lift endpoints (to rewrite the cycle itself), and
// merging would have already discarded the distinction between the two.
func ExtractCycles(rawCycles []recordsource.RawCycle, edges []*model.DependencyRelationship, liftMap map[model.NodeID]model.NodeID, keepNodes map[model.NodeID]bool) []model.CycleRender {
	type group struct {
		node    model.NodeID
		path    []model.ExtendedEdge
		actuals []model.DependencyCycle
	}
	groups := make(map[string]*group)

	for _, rc := range rawCycles {
		pathEdges := make([]model.ExtendedEdge, 0, len(rc.Segments))
		rawEdges := make([]model.ExtendedEdge, 0, len(rc.Segments))

		for _, seg := range rc.Segments {
			origStart := model.NodeID(seg.Start.ElementID)
			origEnd := model.NodeID(seg.End.ElementID)
			rawEdges = append(rawEdges, model.ExtendedEdge{
				ElementID: model.EdgeID(seg.Relationship.ElementID),
				StartNode: origStart,
				EndNode:   origEnd,
				Type:      seg.Relationship.Type,
			})

			var ee model.ExtendedEdge
			if matched := findMatchingEdge(edges, origStart, origEnd); matched != nil {
				matched.Violations.DependencyCycle = true
				ee = model.ExtendedEdge{ElementID: matched.ElementID, StartNode: matched.StartNode, EndNode: matched.EndNode, Type: matched.Type}
			} else {
				liftedStart := resolveLift(liftMap, origStart)
				liftedEnd := resolveLift(liftMap, origEnd)
				ee = model.ExtendedEdge{
					ElementID: model.EdgeID(string(liftedStart) + "->" + string(liftedEnd)),
					StartNode: liftedStart,
					EndNode:   liftedEnd,
					Type:      seg.Relationship.Type,
				}
			}
			pathEdges = append(pathEdges, ee)
		}

		filtered := filterCycleSelfEdges(pathEdges)
		nodeID := resolveLift(liftMap, model.NodeID(rc.Node.ElementID))
		if !keepNodes[nodeID] {
			continue
		}

		cycleID := buildCycleID(nodeID, filtered)
		g, ok := groups[cycleID]
		if !ok {
			g = &group{node: nodeID, path: filtered}
			groups[cycleID] = g
		}
		g.actuals = append(g.actuals, model.DependencyCycle{Node: model.NodeID(rc.Node.ElementID), Edges: rawEdges})
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.CycleRender, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		out = append(out, model.CycleRender{
			ID:           id,
			Node:         g.node,
			Path:         g.path,
			Length:       len(g.path),
			ActualCycles: g.actuals,
		})
	}
	return out
}

// filterCycleSelfEdges keeps exactly one self-edge when every edge in
// the cycle is a self-edge (a fully abstracted, fully contained cycle),
// otherwise drops all self-edges.
func filterCycleSelfEdges(edges []model.ExtendedEdge) []model.ExtendedEdge {
	allSelf := len(edges) > 0
	for _, e := range edges {
		if e.StartNode != e.EndNode {
			allSelf = false
			break
		}
	}
	if allSelf {
		return edges[:1]
	}
	out := edges[:0:0]
	for _, e := range edges {
		if e.StartNode != e.EndNode {
			out = append(out, e)
		}
	}
	return out
}
