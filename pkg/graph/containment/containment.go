// Package containment builds the bidirectional parent/child index over
// the raw CONTAINS relationships embedded in path records.
// Every other stage that needs ancestor or descendant lookups goes
// through this index rather than re-scanning relationships.
package containment

import "github.com/orneryd/archlens/pkg/graph/recordsource"

// containsType is the wire relationship type denoting a containment edge.
const containsType = "CONTAINS"

// Index is the bidirectional containment mapping: one parent per child,
// an ordered, deduplicated child list per parent.
type Index struct {
	childToParent map[string]string
	parentToChildren map[string][]string
	seenEdge      map[[2]string]bool
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		childToParent:    make(map[string]string),
		parentToChildren: make(map[string][]string),
		seenEdge:         make(map[[2]string]bool),
	}
}

// Build performs the single linear scan over every path's relationship
// list, indexing only CONTAINS edges. Duplicate (source,target) pairs
// across paths are inserted at most once.
func Build(paths []recordsource.RawPath) *Index {
	idx := New()
	for _, path := range paths {
		for _, rel := range path.Relationships {
			if rel.Type != containsType {
				continue
			}
			idx.insert(rel.StartID, rel.EndID)
		}
	}
	return idx
}

func (idx *Index) insert(parent, child string) {
	key := [2]string{parent, child}
	if idx.seenEdge[key] {
		return
	}
	idx.seenEdge[key] = true
	idx.childToParent[child] = parent
	idx.parentToChildren[parent] = append(idx.parentToChildren[parent], child)
}

// Parent returns the parent id of child and whether one is known.
func (idx *Index) Parent(child string) (string, bool) {
	p, ok := idx.childToParent[child]
	return p, ok
}

// Children returns the (possibly empty) ordered child list of parent.
func (idx *Index) Children(parent string) []string {
	return idx.parentToChildren[parent]
}

// Ancestors returns id's ancestor chain, nearest first, root last.
// Terminates because containment is a forest.
func (idx *Index) Ancestors(id string) []string {
	var out []string
	cur := id
	for {
		p, ok := idx.childToParent[cur]
		if !ok {
			return out
		}
		out = append(out, p)
		cur = p
	}
}

// AncestorAt returns the ancestor of id that is exactly n hops up, or
// ("", false) if the chain is shallower than n.
func (idx *Index) AncestorAt(id string, n int) (string, bool) {
	if n == 0 {
		return id, true
	}
	ancestors := idx.Ancestors(id)
	if n > len(ancestors) {
		return "", false
	}
	return ancestors[n-1], true
}

// Depth returns the number of CONTAINS hops from id up to its root.
func (idx *Index) Depth(id string) int {
	return len(idx.Ancestors(id))
}

// Root returns the top-most ancestor of id (id itself if it has none).
func (idx *Index) Root(id string) string {
	ancestors := idx.Ancestors(id)
	if len(ancestors) == 0 {
		return id
	}
	return ancestors[len(ancestors)-1]
}
