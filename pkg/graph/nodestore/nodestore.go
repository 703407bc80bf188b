// Package nodestore materialises every unique node seen across a
// request's path records into one owned collection, wires parent/child
// references from the Containment Index, marks the in-selection subtree,
// and folds dependency profiles bottom-up.
//
// Nodes are owned by id, not by object reference, so the parent↔child
// cycles inherent to a containment tree never become Go pointer cycles —
// see DESIGN.md for the arena rationale.
package nodestore

import (
	"sort"

	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

// Store owns every Node materialised for one request.
type Store struct {
	nodes map[model.NodeID]*model.Node
}

// New returns an empty Store.
func New() *Store {
	return &Store{nodes: make(map[model.NodeID]*model.Node)}
}

// Get returns the node for id, or nil if unknown.
func (s *Store) Get(id model.NodeID) *model.Node {
	return s.nodes[id]
}

// Has reports whether id has been materialised.
func (s *Store) Has(id model.NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Len returns the number of owned nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// All returns every owned node in a deterministic (id-sorted) order.
func (s *Store) All() []*model.Node {
	ids := make([]model.NodeID, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*model.Node, len(ids))
	for i, id := range ids {
		out[i] = s.nodes[id]
	}
	return out
}

func fromRaw(raw recordsource.RawNode) *model.Node {
	n := &model.Node{
		ElementID: model.NodeID(raw.ElementID),
		Labels:    append([]string(nil), raw.Labels...),
	}
	if v, ok := raw.Properties["simple_name"].(string); ok {
		n.SimpleName = v
	}
	if v, ok := raw.Properties["full_name"].(string); ok {
		n.FullName = v
	}
	if v, ok := raw.Properties["color"].(string); ok {
		n.Color = v
	}
	if v, ok := raw.Properties["depth"].(int); ok {
		n.Depth = v
	}
	if v, ok := raw.Properties["dependency_profile_category"].(string); ok {
		n.DependencyProfileCategory = model.ProfileCategory(v)
	}
	return n
}

// Construct materialises one Node per distinct element id observed as a
// path source or target, merging with an optional context store (the
// pre-computed neighbourhood tree). On key collision the local node
// wins, because the context copy may lack complete parent wiring.
func Construct(paths []recordsource.RawPath, context *Store) *Store {
	s := New()
	if context != nil {
		for id, n := range context.nodes {
			cp := *n
			s.nodes[id] = &cp
		}
	}
	for _, path := range paths {
		for _, raw := range path.Nodes {
			id := model.NodeID(raw.ElementID)
			if _, local := s.nodes[id]; local {
				if context == nil {
					continue
				}
				if _, fromContext := context.nodes[id]; !fromContext {
					continue
				}
			}
			s.nodes[id] = fromRaw(raw)
		}
	}
	return s
}

// WireContainment sets each node's Parent/Children from idx.
func (s *Store) WireContainment(idx *containment.Index) {
	for id, n := range s.nodes {
		if p, ok := idx.Parent(string(id)); ok {
			if _, known := s.nodes[model.NodeID(p)]; known {
				parent := model.NodeID(p)
				n.Parent = &parent
			}
		}
		var children []model.NodeID
		for _, c := range idx.Children(string(id)) {
			if _, known := s.nodes[model.NodeID(c)]; known {
				children = append(children, model.NodeID(c))
			}
		}
		n.Children = children
	}
}

// MarkSelection sets InSelection/Selected for every node whose ancestor
// chain contains selectedID.
func (s *Store) MarkSelection(selectedID *model.NodeID) {
	if selectedID == nil {
		return
	}
	for id, n := range s.nodes {
		n.Selected = id == *selectedID
		n.InSelection = s.isOrDescendsFrom(id, *selectedID)
	}
}

func (s *Store) isOrDescendsFrom(id, ancestor model.NodeID) bool {
	cur := id
	seen := make(map[model.NodeID]bool)
	for {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false // defensive: containment must be a forest (invariant 1)
		}
		seen[cur] = true
		n, ok := s.nodes[cur]
		if !ok || n.Parent == nil {
			return false
		}
		cur = *n.Parent
	}
}

// ComputeProfiles folds dependency profiles bottom-up from the leaves up
// through the containment tree. Nodes without children derive their
// profile from DependencyProfileCategory; every ancestor's profile is
// the component-wise sum of its children's profiles.
func (s *Store) ComputeProfiles() {
	memo := make(map[model.NodeID]model.DependencyProfile)
	var resolve func(id model.NodeID) model.DependencyProfile
	resolve = func(id model.NodeID) model.DependencyProfile {
		if p, ok := memo[id]; ok {
			return p
		}
		n := s.nodes[id]
		if n == nil {
			return model.DependencyProfile{}
		}
		if n.IsLeaf() {
			p := model.ProfileFor(n.DependencyProfileCategory)
			memo[id] = p
			return p
		}
		var p model.DependencyProfile
		for _, c := range n.Children {
			p = p.Add(resolve(c))
		}
		memo[id] = p
		return p
	}
	for id, n := range s.nodes {
		n.Profile = resolve(id)
	}
}
