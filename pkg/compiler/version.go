package compiler

import "github.com/canopyhq/canopy/pkg/domain"

// ResolveSpecVersion decides the spec version for a node set. Any node
// whose effective kind belongs to the orchestration set forces "2.0",
// regardless of the incoming version; the upgrade is one-directional.
// Otherwise the incoming version is kept, defaulting to "1.0".
func ResolveSpecVersion(nodes []domain.Node, incoming string) string {
	for _, n := range nodes {
		if domain.IsV2Kind(n.EffectiveKind()) {
			return domain.SpecVersion2
		}
	}
	if incoming != "" {
		return incoming
	}
	return domain.SpecVersion1
}
