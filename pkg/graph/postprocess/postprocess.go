// Package postprocess implements the final merge and integrity check:
// combine the neighbourhood tree with the dependency graph, validate
// referential integrity, and collapse containment edges into parent
// references.
package postprocess

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
)

const containsType = "CONTAINS"

// Merge concatenates one or more intermediate graphs' nodes and edges,
// first-wins on id collision.
func Merge(name string, graphs ...*model.Graph) *model.Graph {
	out := model.NewGraph(name)
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for id, n := range g.Nodes {
			if _, exists := out.Nodes[id]; !exists {
				out.Nodes[id] = n
			}
		}
		for id, e := range g.Edges {
			if _, exists := out.Edges[id]; !exists {
				out.Edges[id] = e
			}
		}
	}
	return out
}

// ValidateIntegrity asserts that every edge's endpoints appear in the
// node set, returning a *graphcore.Error listing every offending edge
// and which endpoint(s) are missing. Non-negotiable: this check has
// caught bugs in earlier pipeline stages repeatedly.
func ValidateIntegrity(g *model.Graph) error {
	var problems []string
	ids := make([]model.EdgeID, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e := g.Edges[id]
		_, startOK := g.Nodes[e.StartNode]
		_, endOK := g.Nodes[e.EndNode]
		switch {
		case !startOK && !endOK:
			problems = append(problems, fmt.Sprintf("edge %s: both start %s and end %s missing", id, e.StartNode, e.EndNode))
		case !startOK:
			problems = append(problems, fmt.Sprintf("edge %s: start %s missing", id, e.StartNode))
		case !endOK:
			problems = append(problems, fmt.Sprintf("edge %s: end %s missing", id, e.EndNode))
		}
	}

	if len(problems) > 0 {
		return graphcore.WithDetail(graphcore.KindResultIntegrityFailure, problems,
			"%d edge(s) reference missing endpoints: %s", len(problems), strings.Join(problems, "; "))
	}
	return nil
}

// CollapseContainment removes every containment-typed edge from g and
// sets its target node's Parent to the edge's source id.
func CollapseContainment(g *model.Graph) {
	for id, e := range g.Edges {
		if !strings.EqualFold(e.Type, containsType) {
			continue
		}
		if n, ok := g.Nodes[e.EndNode]; ok {
			start := e.StartNode
			n.Parent = &start
		}
		delete(g.Edges, id)
	}
}

// Run performs the full post-processing sequence: merge, validate,
// collapse. Validation runs before collapsing so a missing-endpoint
// failure always reports the pre-collapse edge set.
func Run(name string, graphs ...*model.Graph) (*model.Graph, error) {
	merged := Merge(name, graphs...)
	if err := ValidateIntegrity(merged); err != nil {
		return nil, err
	}
	CollapseContainment(merged)
	return merged, nil
}
