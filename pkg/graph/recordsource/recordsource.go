// Package recordsource defines the contract the pipeline uses to talk to
// the labelled property graph store. The store itself — the
// Cypher-style query language, the wire driver, the transaction/session
// plumbing — is an external collaborator. This package fixes only the
// two operations and the record shapes the pipeline depends on, plus an
// in-memory fixture implementation used by tests and the CLI demo.
package recordsource

import (
	"context"
	"sort"

	"github.com/orneryd/archlens/pkg/graph/graphcore"
)

// RawNode is the wire shape of a node as returned by the store.
type RawNode struct {
	ElementID  string
	Identity   int64
	Labels     []string
	Properties map[string]any
}

// RawRelationship is the wire shape of a relationship as returned by the
// store.
type RawRelationship struct {
	ElementID string
	Type      string
	StartID   string
	EndID     string
	Properties map[string]any
}

// RawPath is one path record: an ordered relationship list plus the
// nodes it touches, exactly as a reachability query over the store
// returns it.
type RawPath struct {
	Nodes         []RawNode
	Relationships []RawRelationship
}

// RawCycleSegment is one hop of a cycle as the store's cycle-detection
// incantation returns it.
type RawCycleSegment struct {
	Start        RawNode
	End          RawNode
	Relationship RawRelationship
}

// RawCycle is one cycle: an anchor node plus its ordered segments.
type RawCycle struct {
	Node     RawNode
	Segments []RawCycleSegment
}

// RecordSource executes read-only graph queries and cycle detection.
// Implementations must honor ctx cancellation/deadline; a deadline
// exceeded mid-query should surface as a *graphcore.Error of kind
// KindStoreTimeout.
type RecordSource interface {
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]RawPath, error)
	DetectCycles(ctx context.Context, nodeIDs []string) ([]RawCycle, error)
}

// InMemory is a fixture RecordSource backed by an explicit set of raw
// paths and cycles, registered per named query. It exists for tests and
// the CLI demo: it does not parse Cypher, it dispatches on the exact
// query string it was registered with.
type InMemory struct {
	queries map[string][]RawPath
	cycles  []RawCycle
	err     error
}

// NewInMemory returns an empty fixture RecordSource.
func NewInMemory() *InMemory {
	return &InMemory{queries: make(map[string][]RawPath)}
}

// Register associates a query string with the paths it should return.
func (m *InMemory) Register(query string, paths []RawPath) *InMemory {
	m.queries[query] = paths
	return m
}

// WithCycles sets the cycles DetectCycles returns regardless of the
// requested node id set — sufficient for a fixture double.
func (m *InMemory) WithCycles(cycles []RawCycle) *InMemory {
	m.cycles = cycles
	return m
}

// FailWith makes every subsequent call return err, for exercising the
// StoreUnavailable/StoreTimeout translation paths in tests.
func (m *InMemory) FailWith(err error) *InMemory {
	m.err = err
	return m
}

func (m *InMemory) ExecuteQuery(ctx context.Context, cypher string, _ map[string]any) ([]RawPath, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, graphcore.New(graphcore.KindStoreTimeout, "query cancelled: %v", err)
	}
	return m.queries[cypher], nil
}

func (m *InMemory) DetectCycles(ctx context.Context, _ []string) ([]RawCycle, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := ctx.Err(); err != nil {
		return nil, graphcore.New(graphcore.KindStoreTimeout, "cycle query cancelled: %v", err)
	}
	return m.cycles, nil
}

// SortedLabels returns labels sorted for deterministic test fixtures.
func SortedLabels(labels []string) []string {
	out := append([]string(nil), labels...)
	sort.Strings(out)
	return out
}
