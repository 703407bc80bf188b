// Package visualization is the thin orchestrator of one request: it
// runs the per-request sequence of fetching the neighbourhood tree and
// the outgoing/incoming dependency paths (concurrently, via
// golang.org/x/sync/errgroup), invokes the pipeline, and returns the
// visualization-ready graph plus its violations.
package visualization

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orneryd/archlens/pkg/graph/containment"
	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/nodestore"
	"github.com/orneryd/archlens/pkg/graph/postprocess"
	"github.com/orneryd/archlens/pkg/graph/preprocess"
	"github.com/orneryd/archlens/pkg/graph/process"
	"github.com/orneryd/archlens/pkg/graph/recordsource"
	"github.com/orneryd/archlens/pkg/graph/resultcache"
	"github.com/orneryd/archlens/pkg/graph/violations"
)

// readTimeout bounds every RecordSource round trip.
const readTimeout = 5 * time.Second

const violatesCatalogueQuery = "catalogue(VIOLATES)"

// QueryOptions is the request shape of `POST /graph/node`.
type QueryOptions struct {
	ID              model.NodeID
	LayerDepth      int
	DependencyDepth int

	ShowSelectedInternal bool
	ShowDomainInternal   bool
	ShowExternal         bool
	ShowOutgoing         bool
	ShowIncoming         bool

	OutgoingRange *model.Range
	IncomingRange *model.Range

	SelfEdges bool

	ShowWeakDependencies   bool
	ShowStrongDependencies bool
	ShowEntityDependencies bool

	// SelectedIsDomain resolves the pure-containment chunking ambiguity
	// (which side of a containment-only path the run belongs to); the
	// HTTP layer takes it from the request body's selected_is_domain
	// field and passes it through.
	SelectedIsDomain bool

	ExcludedRootNames []string
}

func neighbourhoodQuery(opts QueryOptions) string {
	return fmt.Sprintf("neighbourhood(id=%s, layerDepth=%d)", opts.ID, opts.LayerDepth)
}

func outgoingQuery(opts QueryOptions) string {
	return fmt.Sprintf("outgoing(id=%s, depth=%d, external=%t)", opts.ID, opts.DependencyDepth, opts.ShowExternal)
}

func incomingQuery(opts QueryOptions) string {
	return fmt.Sprintf("incoming(id=%s, depth=%d, external=%t)", opts.ID, opts.DependencyDepth, opts.ShowExternal)
}

// cacheKey hashes the fields of opts that affect the result, so two
// requests for the same node/depth/filter combination share a cache
// entry (grounded on the store's query_cache key-hashing convention).
func cacheKey(opts QueryOptions) string {
	rangeKey := func(r *model.Range) string {
		if r == nil {
			return "-"
		}
		bound := func(p *int) string {
			if p == nil {
				return "-"
			}
			return fmt.Sprint(*p)
		}
		return bound(r.Min) + ".." + bound(r.Max)
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d|%t|%t|%t|%t|%t|%s|%s|%t|%t|%t|%t|%t|%v",
		opts.ID, opts.LayerDepth, opts.DependencyDepth,
		opts.ShowSelectedInternal, opts.ShowDomainInternal, opts.ShowExternal,
		opts.ShowOutgoing, opts.ShowIncoming, rangeKey(opts.OutgoingRange), rangeKey(opts.IncomingRange),
		opts.SelfEdges, opts.ShowWeakDependencies, opts.ShowStrongDependencies, opts.ShowEntityDependencies,
		opts.SelectedIsDomain, opts.ExcludedRootNames)
	return fmt.Sprintf("%x", h.Sum64())
}

// Service wires a RecordSource and an optional result cache into the
// graph-transformation pipeline.
type Service struct {
	Source recordsource.RecordSource
	Cache  *resultcache.Cache
	Logger *log.Logger
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Visualize runs the full per-request pipeline and returns the result
// graph plus its violation report.
func (s *Service) Visualize(ctx context.Context, opts QueryOptions) (*model.Graph, *model.ViolationReport, error) {
	if s.Cache != nil {
		key := cacheKey(opts)
		if entry, ok := s.Cache.Get(key); ok {
			return entry.Graph, entry.Violations, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var neighbourhoodPaths, outgoingPaths, incomingPaths []recordsource.RawPath

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		neighbourhoodPaths, err = s.Source.ExecuteQuery(gctx, neighbourhoodQuery(opts), nil)
		return err
	})
	if opts.ShowOutgoing {
		g.Go(func() error {
			var err error
			outgoingPaths, err = s.Source.ExecuteQuery(gctx, outgoingQuery(opts), nil)
			return err
		})
	}
	if opts.ShowIncoming {
		g.Go(func() error {
			var err error
			incomingPaths, err = s.Source.ExecuteQuery(gctx, incomingQuery(opts), nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil || graphcore.Is(err, graphcore.KindStoreTimeout) {
			return nil, nil, graphcore.New(graphcore.KindStoreTimeout, "record source query exceeded %s: %v", readTimeout, err)
		}
		return nil, nil, graphcore.New(graphcore.KindStoreUnavailable, "record source query failed: %v", err)
	}

	neighbourhoodIdx := containment.Build(neighbourhoodPaths)
	neighbourhoodStore := nodestore.Construct(neighbourhoodPaths, nil)
	neighbourhoodStore.WireContainment(neighbourhoodIdx)
	neighbourhoodStore.MarkSelection(&opts.ID)
	neighbourhoodStore.ComputeProfiles()

	neighbourhoodGraph := model.NewGraph("neighbourhood")
	for _, n := range neighbourhoodStore.All() {
		neighbourhoodGraph.Nodes[n.ElementID] = n
	}

	depPaths := append(append([]recordsource.RawPath{}, outgoingPaths...), incomingPaths...)

	result, err := preprocess.Run(depPaths, preprocess.Options{
		SelectedID:        &opts.ID,
		SelectedIsDomain:  opts.SelectedIsDomain,
		ExcludedRootNames: opts.ExcludedRootNames,
		Context:           neighbourhoodStore,
	})
	if err != nil {
		return nil, nil, err
	}

	liftMap := make(map[model.NodeID]model.NodeID)
	processOpts := process.Options{
		Depth:         opts.LayerDepth,
		SelfEdges:     opts.SelfEdges,
		ShowStrong:    opts.ShowStrongDependencies,
		ShowWeak:      opts.ShowWeakDependencies,
		ShowEntity:    opts.ShowEntityDependencies,
		OutgoingRange: opts.OutgoingRange,
		IncomingRange: opts.IncomingRange,
		SelectedID:    &opts.ID,
	}

	if err := process.Lift(result.Paths, result.Index, liftMap, processOpts); err != nil {
		return nil, nil, err
	}

	edges := process.CollectEdges(result.Paths)
	edges = process.FilterSelfEdges(edges, processOpts)
	edges = process.FilterDependencyTypes(edges, processOpts)
	edges = process.FilterDegree(edges, result.Store, processOpts)
	process.AssignCanonicalIDs(edges)

	keepNodes := process.FilterNodes(edges, result.Store, result.Index, processOpts)

	report := s.collectViolations(ctx, result, edges, liftMap, keepNodes)

	merged := process.MergeDuplicates(edges)

	depGraph := model.NewGraph("dependencies")
	for id := range keepNodes {
		if n := result.Store.Get(id); n != nil {
			depGraph.Nodes[id] = n
		}
	}
	for _, e := range merged {
		depGraph.Edges[e.ElementID] = e
	}

	final, err := postprocess.Run("result", neighbourhoodGraph, depGraph)
	if err != nil {
		return nil, nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(cacheKey(opts), &resultcache.Entry{Graph: final, Violations: report}); err != nil {
			s.logf("resultcache: set failed: %v", err)
		}
	}

	return final, report, nil
}

// collectViolations runs both violation services best-effort: a failed
// catalogue load or cycle query logs a warning and yields an empty
// slice rather than failing the request.
func (s *Service) collectViolations(ctx context.Context, result *preprocess.Result, edges []*model.DependencyRelationship, liftMap map[model.NodeID]model.NodeID, keepNodes map[model.NodeID]bool) *model.ViolationReport {
	report := &model.ViolationReport{}

	ids := make([]string, 0, result.Store.Len())
	for _, n := range result.Store.All() {
		ids = append(ids, string(n.ElementID))
	}

	rawCycles, err := s.Source.DetectCycles(ctx, ids)
	if err != nil {
		s.logf("violations: cycle detection failed, continuing with no cycles: %v", err)
	} else {
		report.DependencyCycles = violations.ExtractCycles(rawCycles, edges, liftMap, keepNodes)
	}

	catalogueRaw, err := s.Source.ExecuteQuery(ctx, violatesCatalogueQuery, nil)
	if err != nil {
		s.logf("violations: catalogue load failed, continuing with no sublayer violations: %v", err)
	} else {
		catalogue := violations.LoadCatalogue(catalogueRaw)
		report.Sublayers = violations.DetectLayerViolations(edges, result.Store, catalogue)
	}

	return report
}
