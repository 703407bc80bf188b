// Package graphcore holds the error taxonomy shared by every pipeline
// stage. Every fatal condition in the pipeline produces one
// of these kinds so the request handler can apply a single, uniform
// translation policy instead of inspecting ad-hoc error strings.
package graphcore

import "fmt"

// Kind classifies a pipeline error for translation at the request
// boundary.
type Kind int

const (
	// KindStoreUnavailable means the RecordSource could not be reached.
	KindStoreUnavailable Kind = iota
	// KindStoreTimeout means a query exceeded its read-side budget.
	KindStoreTimeout
	// KindMissingEndpoint means a relationship referenced a node id the
	// Node Store never saw — store corruption.
	KindMissingEndpoint
	// KindDepthInvariantBroken means two leaves disagreed on ancestry depth.
	KindDepthInvariantBroken
	// KindLiftingTooDeep means a lift request exceeded an endpoint's
	// ancestry depth.
	KindLiftingTooDeep
	// KindResultIntegrityFailure means the Post-Processor found an edge
	// referencing a missing node.
	KindResultIntegrityFailure
)

func (k Kind) String() string {
	switch k {
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindStoreTimeout:
		return "StoreTimeout"
	case KindMissingEndpoint:
		return "MissingEndpoint"
	case KindDepthInvariantBroken:
		return "DepthInvariantBroken"
	case KindLiftingTooDeep:
		return "LiftingTooDeep"
	case KindResultIntegrityFailure:
		return "ResultIntegrityFailure"
	default:
		return "Unknown"
	}
}

// Error is the single error type every pipeline stage returns on a fatal
// condition. Detail carries whatever diagnostic payload the kind calls
// for.
type Error struct {
	Kind    Kind
	Message string
	Detail  any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an *Error with no extra detail payload.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail constructs an *Error carrying a diagnostic payload.
func WithDetail(kind Kind, detail any, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Detail: detail}
}

// Is reports whether err is a *Error of the given kind, so callers can
// use errors.Is-free kind checks without a type assertion at every call
// site.
func Is(err error, kind Kind) bool {
	ge, ok := err.(*Error)
	return ok && ge.Kind == kind
}
