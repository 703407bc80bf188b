// Package preprocess orchestrates the Containment Index, Node Store and
// Path Parser over one request's raw paths, then deduplicates redundant
// path records.
package preprocess

import (
	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/nodestore"
	"github.com/orneryd/archlens/pkg/graph/pathparser"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
)

// Options configures one pre-processing run.
type Options struct {
	// SelectedID anchors the in-selection flag; nil if the request has
	// no single selected node.
	SelectedID *model.NodeID
	// SelectedIsDomain resolves the pure-containment chunking ambiguity
	// for this request.
	SelectedIsDomain bool
	// ExcludedRootNames drops any path whose source- or target-side
	// root ancestor's FullName matches one of these.
	ExcludedRootNames []string
	// Context seeds the Node Store with a pre-computed neighbourhood
	// tree; nil if this request builds the store from scratch.
	Context *nodestore.Store
}

// Result is everything downstream stages need: the parsed, deduplicated
// paths, the owning Node Store, and the Containment Index they were
// resolved against.
type Result struct {
	Index *containment.Index
	Store *nodestore.Store
	Paths []*model.ComponentPath
}

// Run builds the Containment Index and Node Store from raw, parses
// every raw path into a ComponentPath, then applies longest-path
// deduplication and optional domain exclusion.
func Run(raw []recordsource.RawPath, opts Options) (*Result, error) {
	idx := containment.Build(raw)
	store := nodestore.Construct(raw, opts.Context)
	store.WireContainment(idx)
	store.MarkSelection(opts.SelectedID)
	store.ComputeProfiles()

	parsed := make([]*model.ComponentPath, 0, len(raw))
	for _, p := range raw {
		cp, err := pathparser.Parse(p, store, pathparser.Options{SelectedIsDomain: opts.SelectedIsDomain})
		if err != nil {
			return nil, err
		}
		if err := checkLeafUniformity(cp); err != nil {
			return nil, err
		}
		parsed = append(parsed, cp)
	}

	parsed = dedupeLongestPath(parsed)
	parsed = excludeDomains(parsed, idx, store, opts.ExcludedRootNames)

	return &Result{Index: idx, Store: store, Paths: parsed}, nil
}

// checkLeafUniformity enforces invariant 2: every dependency
// relationship connects two nodes at the same ancestry depth. A
// violation indicates store corruption and is fatal.
func checkLeafUniformity(cp *model.ComponentPath) error {
	if cp.SourceDepth != cp.TargetDepth {
		return graphcore.WithDetail(graphcore.KindDepthInvariantBroken, cp,
			"path %s↔%s: source_depth=%d target_depth=%d", cp.StartNode, cp.EndNode, cp.SourceDepth, cp.TargetDepth)
	}
	return nil
}

// dedupeLongestPath keeps, for each distinct PathID, only the records
// with the maximum TargetDepth seen for that id.
func dedupeLongestPath(paths []*model.ComponentPath) []*model.ComponentPath {
	maxDepth := make(map[string]int)
	for _, cp := range paths {
		id := cp.PathID()
		if cp.TargetDepth > maxDepth[id] || !hasID(maxDepth, id) {
			maxDepth[id] = cp.TargetDepth
		}
	}
	out := make([]*model.ComponentPath, 0, len(paths))
	for _, cp := range paths {
		if cp.TargetDepth == maxDepth[cp.PathID()] {
			out = append(out, cp)
		}
	}
	return out
}

func hasID(m map[string]int, id string) bool {
	_, ok := m[id]
	return ok
}

// excludeDomains drops paths whose source- or target-side root
// ancestor's FullName appears in excluded.
func excludeDomains(paths []*model.ComponentPath, idx *containment.Index, store *nodestore.Store, excluded []string) []*model.ComponentPath {
	if len(excluded) == 0 {
		return paths
	}
	banned := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		banned[name] = true
	}
	rootName := func(id model.NodeID) string {
		root := store.Get(model.NodeID(idx.Root(string(id))))
		if root == nil {
			return ""
		}
		return root.FullName
	}
	out := make([]*model.ComponentPath, 0, len(paths))
	for _, cp := range paths {
		if banned[rootName(cp.StartNode)] || banned[rootName(cp.EndNode)] {
			continue
		}
		out = append(out, cp)
	}
	return out
}
