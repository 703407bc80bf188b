package violations

import (
	"strings"

	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/nodestore"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

const violatesType = "VIOLATES"

// SublayerPair is one entry of the static sublayer-violation catalogue:
// dependencies flowing from fromSublayer to toSublayer are forbidden.
type SublayerPair struct {
	From string
	To   string
}

// LoadCatalogue extracts the (fromSublayer, toSublayer) catalogue from
// the raw paths returned by a `(source)-[:VIOLATES]->(target)` query.
// Malformed path records are skipped rather than failing the request —
// the catalogue load is best-effort.
func LoadCatalogue(paths []recordsource.RawPath) []SublayerPair {
	var out []SublayerPair
	for _, p := range paths {
		byID := make(map[string]recordsource.RawNode, len(p.Nodes))
		for _, n := range p.Nodes {
			byID[n.ElementID] = n
		}
		for _, rel := range p.Relationships {
			if rel.Type != violatesType {
				continue
			}
			source, ok1 := byID[rel.StartID]
			target, ok2 := byID[rel.EndID]
			if !ok1 || !ok2 {
				continue
			}
			from, _ := source.Properties["simple_name"].(string)
			to, _ := target.Properties["simple_name"].(string)
			if from == "" || to == "" {
				continue
			}
			out = append(out, SublayerPair{From: from, To: to})
		}
	}
	return out
}

func containsSublayerLabel(labels []string) bool {
	for _, l := range labels {
		if strings.Contains(l, "Sublayer") {
			return true
		}
	}
	return false
}

// sublayerAncestorName walks id's ancestor chain (id included) for the
// nearest node whose label marks it as a sublayer.
func sublayerAncestorName(store *nodestore.Store, id model.NodeID) string {
	cur := store.Get(id)
	for cur != nil {
		if containsSublayerLabel(cur.Labels) {
			return cur.SimpleName
		}
		if cur.Parent == nil {
			return ""
		}
		cur = store.Get(*cur.Parent)
	}
	return ""
}

// DetectLayerViolations marks every surviving dependency whose
// source-sublayer → target-sublayer matches the catalogue and emits one
// LayerViolation per (source,target) group, with the underlying
// un-abstracted edges kept for drill-down.
//
// edges must be the pre-merge, canonical-id-assigned dependency set —
// the same set cycle extraction runs against — so ActualEdges can
// recover each contributing edge's pre-lift endpoints.
func DetectLayerViolations(edges []*model.DependencyRelationship, store *nodestore.Store, catalogue []SublayerPair) []model.LayerViolation {
	allowed := make(map[[2]string]bool, len(catalogue))
	for _, c := range catalogue {
		allowed[[2]string{c.From, c.To}] = true
	}

	type key struct {
		start, end model.NodeID
	}
	groups := make(map[key][]*model.DependencyRelationship)
	var order []key

	for _, e := range edges {
		from := sublayerAncestorName(store, e.StartNode)
		to := sublayerAncestorName(store, e.EndNode)
		if from == "" || to == "" || !allowed[[2]string{from, to}] {
			continue
		}
		e.Violations.Sublayer = true

		k := key{e.StartNode, e.EndNode}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	out := make([]model.LayerViolation, 0, len(order))
	for _, k := range order {
		es := groups[k]
		actual := make([]model.EdgeData, 0, len(es))
		for _, e := range es {
			actual = append(actual, model.EdgeData{
				ElementID: e.ElementID,
				Type:      e.Type,
				StartNode: originalOf(e, true),
				EndNode:   originalOf(e, false),
			})
		}
		out = append(out, model.LayerViolation{
			ExtendedEdge: model.ExtendedEdge{ElementID: es[0].ElementID, StartNode: k.start, EndNode: k.end, Type: es[0].Type},
			ActualEdges:  actual,
		})
	}
	return out
}
