// Package httpapi exposes the visualization pipeline over HTTP: the
// four routes `GET /graph/domains`, `GET /graph/layers`,
// `POST /graph/node`, and breadcrumb lookups. Auth, OpenAPI generation,
// the CSV/zip import feature and the version-info endpoint are external
// collaborators not implemented here.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/orneryd/archlens/pkg/graph/graphcore"
	"github.com/orneryd/archlens/pkg/graph/model"
	"github.com/orneryd/archlens/pkg/graph/visualization"
)

// Server serves the graph-exploration HTTP surface.
type Server struct {
	Visualizer *visualization.Service
	Logger     *log.Logger

	// Domains backs GET /graph/domains; nil yields an empty list.
	Domains DomainLister
	// Ancestors backs GET /graph/breadcrumb; nil yields an empty list.
	Ancestors AncestorLookup

	errorCount int64
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Mux builds the request router. Handlers are plain functions wrapped
// with request logging, matching the store's manual-mux convention
// rather than reaching for a router library the rest of the pack
// doesn't otherwise need.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/domains", s.withLogging(s.handleDomains))
	mux.HandleFunc("/graph/layers", s.withLogging(s.handleLayers))
	mux.HandleFunc("/graph/node", s.withLogging(s.handleNode))
	mux.HandleFunc("/graph/breadcrumb", s.withLogging(s.handleBreadcrumb))
	mux.HandleFunc("/health", s.withLogging(s.handleHealth))
	return mux
}

func (s *Server) withLogging(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler(w, r)
		s.logf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logf("httpapi: encode response failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.errorCount++
	s.writeJSON(w, status, map[string]any{"error": true, "message": message, "code": status})
}

// writePipelineError translates a pipeline error into an HTTP response:
// StoreTimeout surfaces as a user-facing 400, every other kind logs
// once and returns a generic internal-error 500.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	if graphcore.Is(err, graphcore.KindStoreTimeout) {
		s.writeError(w, http.StatusBadRequest, "query too big: store read timed out")
		return
	}
	s.logf("httpapi: internal pipeline error: %v", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// nodeQueryRequest is the wire shape of POST /graph/node's body.
type nodeQueryRequest struct {
	ID              string `json:"id"`
	LayerDepth      int    `json:"layer_depth"`
	DependencyDepth int    `json:"dependency_depth"`

	ShowSelectedInternalRelations bool `json:"show_selected_internal_relations"`
	ShowDomainInternalRelations   bool `json:"show_domain_internal_relations"`
	ShowExternalRelations         bool `json:"show_external_relations"`
	ShowOutgoing                  bool `json:"show_outgoing"`
	ShowIncoming                  bool `json:"show_incoming"`

	OutgoingRange *rangeRequest `json:"outgoing_range"`
	IncomingRange *rangeRequest `json:"incoming_range"`

	SelfEdges bool `json:"self_edges"`

	ShowWeakDependencies   bool `json:"show_weak_dependencies"`
	ShowStrongDependencies bool `json:"show_strong_dependencies"`
	ShowEntityDependencies bool `json:"show_entity_dependencies"`

	SelectedIsDomain bool `json:"selected_is_domain"`
}

type rangeRequest struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

func (r *rangeRequest) toModel() *model.Range {
	if r == nil {
		return nil
	}
	return &model.Range{Min: r.Min, Max: r.Max}
}

func (req nodeQueryRequest) toQueryOptions() visualization.QueryOptions {
	return visualization.QueryOptions{
		ID:                     model.NodeID(req.ID),
		LayerDepth:             req.LayerDepth,
		DependencyDepth:        req.DependencyDepth,
		ShowSelectedInternal:   req.ShowSelectedInternalRelations,
		ShowDomainInternal:     req.ShowDomainInternalRelations,
		ShowExternal:           req.ShowExternalRelations,
		ShowOutgoing:           req.ShowOutgoing,
		ShowIncoming:           req.ShowIncoming,
		OutgoingRange:          req.OutgoingRange.toModel(),
		IncomingRange:          req.IncomingRange.toModel(),
		SelfEdges:              req.SelfEdges,
		ShowWeakDependencies:   req.ShowWeakDependencies,
		ShowStrongDependencies: req.ShowStrongDependencies,
		ShowEntityDependencies: req.ShowEntityDependencies,
		SelectedIsDomain:       req.SelectedIsDomain,
	}
}

// graphResponse is the wire shape of a successful `POST /graph/node`
// response: `{graph, violations}`.
type graphResponse struct {
	Graph      *model.Graph           `json:"graph"`
	Violations *model.ViolationReport `json:"violations"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req nodeQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	graph, report, err := s.Visualizer.Visualize(r.Context(), req.toQueryOptions())
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, graphResponse{Graph: graph, Violations: report})
}

// domainSummary is one entry of `GET /graph/domains`:
// NodeData plus its three dependency-direction counts, derived from the
// node's dependency profile.
type domainSummary struct {
	ElementID             string `json:"element_id"`
	SimpleName            string `json:"simple_name"`
	FullName              string `json:"full_name"`
	NrOutgoingDependencies int    `json:"nr_outgoing_dependencies"`
	NrIncomingDependencies int    `json:"nr_incoming_dependencies"`
	NrInternalDependencies int    `json:"nr_internal_dependencies"`
}

// DomainLister supplies the top-level domains for `GET /graph/domains`.
// Domain enumeration has no pipeline stage of its own — it's a thin
// projection of whatever nodes the RecordSource labels `Domain` — so the
// HTTP layer takes a caller-supplied function rather than depending on
// a query template.
type DomainLister func(r *http.Request) ([]*model.Node, error)

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	if s.Domains == nil {
		s.writeJSON(w, http.StatusOK, []domainSummary{})
		return
	}
	nodes, err := s.Domains(r)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	out := make([]domainSummary, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, domainSummary{
			ElementID:              string(n.ElementID),
			SimpleName:             n.SimpleName,
			FullName:               n.FullName,
			NrOutgoingDependencies: n.Profile.Outbound(),
			NrIncomingDependencies: n.Profile.Inbound(),
			NrInternalDependencies: n.Profile.Transit(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type layerDescriptor struct {
	Label       string   `json:"label"`
	Classes     []string `json:"classes"`
	ParentLabel *string  `json:"parent_label,omitempty"`
}

// fixedLayerHierarchy is the static, top-down containment hierarchy:
// it never varies per request, so it needs no RecordSource round trip.
var fixedLayerHierarchy = []layerDescriptor{
	{Label: "Domain"},
	{Label: "Application", ParentLabel: strPtr("Domain")},
	{Label: "Layer", ParentLabel: strPtr("Application")},
	{Label: "Sublayer", ParentLabel: strPtr("Layer")},
	{Label: "Module", ParentLabel: strPtr("Sublayer")},
}

func strPtr(s string) *string { return &s }

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, fixedLayerHierarchy)
}

// breadcrumbRequest/breadcrumbEntry support a lightweight ancestor-chain
// lookup for a node, useful to the UI's breadcrumb control; not itself a
// pipeline stage, so it's implemented directly against whatever
// ancestor lookup the caller wires in.
type breadcrumbEntry struct {
	ElementID  string `json:"element_id"`
	SimpleName string `json:"simple_name"`
}

// AncestorLookup resolves a node id to its ancestor chain, nearest
// first. The HTTP layer is agnostic to how this is backed (Node Store
// from a live request, or a dedicated RecordSource query).
type AncestorLookup func(id string) ([]*model.Node, error)

func (s *Server) handleBreadcrumb(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if s.Ancestors == nil {
		s.writeJSON(w, http.StatusOK, []breadcrumbEntry{})
		return
	}
	nodes, err := s.Ancestors(id)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	out := make([]breadcrumbEntry, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, breadcrumbEntry{ElementID: string(n.ElementID), SimpleName: n.SimpleName})
	}
	s.writeJSON(w, http.StatusOK, out)
}
