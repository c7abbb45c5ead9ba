package compiler

import (
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/registry"
)

// Options configures a compile pass.
type Options struct {
	// Registry supplies kind defaults. Nil means registry.Builtin().
	Registry *registry.Registry

	// SpecVersion is the version already stored on the graph, if any.
	// Compilation may upgrade it to "2.0" but never downgrades.
	SpecVersion string
}

// Compile turns an authored node/edge graph into its persisted,
// executable spec. The pipeline order is load-bearing:
//
//  1. normalize nodes against the kind registry
//  2. derive orchestration config (idempotency keys, routes, outcomes)
//  3. mirror input mappings to the top-level field for legacy consumers
//  4. copy edges (ids pass through untouched; handle spellings are
//     reconciled at the JSON boundary)
//  5. resolve the spec version against the normalized kinds
//
// Derivation runs exactly once per save and never overwrites an already
// derived key, so re-compiling a saved graph yields byte-identical keys
// (regenerating them would break at-most-once submission downstream).
//
// Compile is pure and synchronous: it only reads its arguments and
// returns fresh values, so it is safe to call repeatedly or from multiple
// call sites without locking.
func Compile(nodes []domain.Node, edges []domain.Edge, opts Options) domain.GraphSpec {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Builtin()
	}

	compiled := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		node := NormalizeNode(n, reg)
		node = DeriveNodeConfig(node)
		if m, ok := node.Config[inputMappingsKey].(map[string]any); ok {
			node.InputMappings = m
		}
		compiled[i] = node
	}

	copied := make([]domain.Edge, len(edges))
	copy(copied, edges)

	return domain.GraphSpec{
		SpecVersion: ResolveSpecVersion(compiled, opts.SpecVersion),
		Nodes:       compiled,
		Edges:       copied,
	}
}
