// Package compiler turns user-edited node/edge graphs into versioned,
// executable GraphSpecs.
//
// The compiler is deliberately total: authoring surfaces save constantly
// and a save must never fail on a half-configured node. Missing fields
// fall back to kind-registry defaults, malformed config degrades to
// documented fallbacks, and dangling edge references pass through for an
// external validator (CheckEdges) to report.
//
// The interesting derived state is orchestration config: spawn nodes get
// deterministic idempotency keys (see StableHash), routers and judges get
// route/outcome tables expanded from their authored route_table rows.
package compiler
