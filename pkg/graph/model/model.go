// Package model holds the labelled-property-graph types shared by every
// stage of the dependency-explorer pipeline: nodes, dependency
// relationships, component paths, and the intermediate/final graph shapes.
//
// Nodes and relationships carry an opaque string id (the element id
// returned by the store) rather than object identity, so the containment
// forest can be traversed and serialised without ownership cycles — see
// the arena note in DESIGN.md.
package model

import "sort"

// NodeID is the opaque element-id of a graph node.
type NodeID string

// EdgeID is the opaque element-id of a dependency relationship.
type EdgeID string

// ProfileCategory classifies a leaf node's contribution to the
// dependency-profile rollup.
type ProfileCategory string

const (
	ProfileHidden   ProfileCategory = "HIDDEN"
	ProfileInbound  ProfileCategory = "INBOUND"
	ProfileOutbound ProfileCategory = "OUTBOUND"
	ProfileTransit  ProfileCategory = "TRANSIT"
)

// DependencyProfile is the [hidden, inbound, outbound, transit] quadruple
// aggregated bottom-up over the containment tree.
type DependencyProfile [4]int

const (
	profileIdxHidden = iota
	profileIdxInbound
	profileIdxOutbound
	profileIdxTransit
)

// Add returns the component-wise sum of two profiles.
func (p DependencyProfile) Add(other DependencyProfile) DependencyProfile {
	return DependencyProfile{
		p[profileIdxHidden] + other[profileIdxHidden],
		p[profileIdxInbound] + other[profileIdxInbound],
		p[profileIdxOutbound] + other[profileIdxOutbound],
		p[profileIdxTransit] + other[profileIdxTransit],
	}
}

// Sum returns the sum of all four components, used by the profile-
// conservation property check.
func (p DependencyProfile) Sum() int {
	return p[0] + p[1] + p[2] + p[3]
}

func (p DependencyProfile) Hidden() int   { return p[profileIdxHidden] }
func (p DependencyProfile) Inbound() int  { return p[profileIdxInbound] }
func (p DependencyProfile) Outbound() int { return p[profileIdxOutbound] }
func (p DependencyProfile) Transit() int  { return p[profileIdxTransit] }

// ProfileFor returns the single-leaf profile contribution for a category.
// An unrecognised or absent category contributes the zero profile.
func ProfileFor(category ProfileCategory) DependencyProfile {
	switch category {
	case ProfileHidden:
		return DependencyProfile{1, 0, 0, 0}
	case ProfileInbound:
		return DependencyProfile{0, 1, 0, 0}
	case ProfileOutbound:
		return DependencyProfile{0, 0, 1, 0}
	case ProfileTransit:
		return DependencyProfile{0, 0, 0, 1}
	default:
		return DependencyProfile{}
	}
}

// Node is one vertex of the containment/dependency graph.
//
// Labels carries the Neo4j-style label set: one semantic layer label
// (Domain, Application, Layer, Sublayer, Module) plus zero or more
// "<label>_<class>" tag labels. Parent and Children are ids, not object
// references — see DESIGN.md for why the store uses an id arena instead
// of direct pointers.
type Node struct {
	ElementID                 NodeID
	Labels                    []string
	SimpleName                string
	FullName                  string
	Color                     string
	Depth                     int
	DependencyProfileCategory ProfileCategory

	Parent   *NodeID
	Children []NodeID

	Profile DependencyProfile

	Selected    bool
	InSelection bool
}

// HasLabel reports whether label is present verbatim in Labels.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// SemanticLabel returns the longest entry in Labels — the convention this
// store uses to mark which label is the layering label as opposed to a
// "<label>_<class>" tag.
func (n *Node) SemanticLabel() string {
	best := ""
	for _, l := range n.Labels {
		if len(l) > len(best) {
			best = l
		}
	}
	return best
}

// IsLeaf reports whether the node has no children, i.e. is a Module.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// DependencyType classifies a DependencyRelationship's strength.
type DependencyType string

const (
	DependencyStrong DependencyType = "STRONG"
	DependencyWeak   DependencyType = "WEAK"
	DependencyEntity DependencyType = "ENTITY"
)

// Violations is the set of architectural rule violations attached to one
// DependencyRelationship.
type Violations struct {
	Sublayer         bool
	DependencyCycle  bool
}

// DependencyRelationship is a non-containment edge between two nodes
// (leaves pre-lift, ancestors post-lift).
type DependencyRelationship struct {
	ElementID EdgeID
	Type      string

	StartNode NodeID
	EndNode   NodeID

	// OriginalStartNode / OriginalEndNode hold the pre-lift leaf ids;
	// populated by lifting, nil beforehand.
	OriginalStartNode *NodeID
	OriginalEndNode   *NodeID

	ReferenceType    string
	DependencyType   *DependencyType
	ReferenceNames   []string
	NrDependencies   *int
	NrCalls          *int

	NrModuleDependencies   int
	NrFunctionDependencies int

	Violations Violations
}

// ReferenceNamesJoined returns the pipe-separated reference_names
// property as the store represents it on the wire.
func (d *DependencyRelationship) ReferenceNamesJoined() string {
	out := ""
	for i, n := range d.ReferenceNames {
		if i > 0 {
			out += "|"
		}
		out += n
	}
	return out
}

// ComponentPath is one path record after chunking into containment
// prefix / dependency middle / containment suffix.
type ComponentPath struct {
	StartNode NodeID
	EndNode   NodeID

	SourceDepth int
	TargetDepth int

	DependencyEdges []*DependencyRelationship

	// RawRelationshipCount is the length of the original (pre-chunking)
	// relationship list; used by the well-formedness property in
	// source_depth + len(dependency_edges) + target_depth
	// == len(raw_relationships).
	RawRelationshipCount int
}

// PathID deduplicates multi-hop paths describing the same dependency
// chain with differing containment slack.
func (p *ComponentPath) PathID() string {
	if len(p.DependencyEdges) == 0 {
		return string(p.StartNode)
	}
	out := ""
	for i, e := range p.DependencyEdges {
		if i > 0 {
			out += ","
		}
		out += string(e.ElementID)
	}
	return out
}

// Range is a partial numeric range filter: either bound may be absent.
type Range struct {
	Min *int
	Max *int
}

// Contains reports whether n falls within [Min,Max], treating an absent
// bound as unconstrained on that side.
func (r *Range) Contains(n int) bool {
	if r == nil {
		return true
	}
	if r.Min != nil && n < *r.Min {
		return false
	}
	if r.Max != nil && n > *r.Max {
		return false
	}
	return true
}

// Graph is the intermediate/final shape threaded through the pipeline.
// Nodes and Edges are maps while the graph is being assembled; callers
// that need an ordered view use NodeIDs.
type Graph struct {
	Name  string
	Nodes map[NodeID]*Node
	Edges map[EdgeID]*DependencyRelationship
}

// NewGraph returns an empty, ready-to-populate Graph.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:  name,
		Nodes: make(map[NodeID]*Node),
		Edges: make(map[EdgeID]*DependencyRelationship),
	}
}

// NodeIDs returns the graph's node ids in an arbitrary but deterministic
// (insertion-independent, sorted) order — the renderer is responsible
// for any display ordering.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EdgeData is the minimal projection of a DependencyRelationship used in
// violation drill-down payloads (actual_edges).
type EdgeData struct {
	ElementID EdgeID
	Type      string
	StartNode NodeID
	EndNode   NodeID
}

// ExtendedEdge is a DependencyRelationship rewritten to reference
// post-abstraction node/edge identifiers, used both by cycle rendering
// and layer-violation rendering.
type ExtendedEdge struct {
	ElementID EdgeID
	StartNode NodeID
	EndNode   NodeID
	Type      string
}

// DependencyCycle is one cycle as reported by the store's cycle
// detector, before rewriting to abstracted identifiers.
type DependencyCycle struct {
	Node  NodeID
	Edges []ExtendedEdge
}

// CycleRender is the abstracted, display-ready form of one or more
// DependencyCycle instances that collapsed to the same lifted cycle.
type CycleRender struct {
	ID           string
	Node         NodeID
	Path         []ExtendedEdge
	Length       int
	ActualCycles []DependencyCycle
}

// LayerViolation is a surviving dependency edge matching the static
// sublayer-violation catalogue, with the underlying un-abstracted edges
// kept for drill-down.
type LayerViolation struct {
	ExtendedEdge
	ActualEdges []EdgeData
}

// ViolationReport is the violations half of a Visualize response.
type ViolationReport struct {
	DependencyCycles []CycleRender
	Sublayers        []LayerViolation
}
