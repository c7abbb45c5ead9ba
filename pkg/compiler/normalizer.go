package compiler

import (
	"slices"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/registry"
)

// Config key under which input mappings live canonically. The top-level
// node field is only a mirror for legacy consumers.
const inputMappingsKey = "input_mappings"

// anyType is the wildcard I/O tag applied to unknown kinds.
const anyType = "any"

// NormalizeNode fills a possibly partial node from the kind registry.
// It is total: unknown kinds fall back to wildcard I/O types and the
// category heuristic, never failing. Re-normalizing an already-normalized
// node is a no-op since explicit fields always win.
func NormalizeNode(n domain.Node, reg *registry.Registry) domain.Node {
	kind := n.EffectiveKind()
	info, known := reg.Lookup(kind)

	out := n
	out.Kind = kind

	// Base config first, explicit config over it, so previously set
	// fields survive re-normalization.
	merged := make(map[string]any, len(info.Config)+len(n.Config)+1)
	for k, v := range info.Config {
		merged[k] = v
	}
	for k, v := range n.Config {
		merged[k] = v
	}
	// Bridge the top-level mapping representation into config when the
	// config key is missing. Both representations coexist in saved graphs.
	if out.InputMappings != nil {
		if _, ok := merged[inputMappingsKey]; !ok {
			merged[inputMappingsKey] = out.InputMappings
		}
	}
	out.Config = merged

	if out.Category == "" {
		if known && info.Category != "" {
			out.Category = info.Category
		} else {
			out.Category = registry.HeuristicCategory(kind)
		}
	}

	if out.Name == "" {
		switch {
		case known && info.Name != "":
			out.Name = info.Name
		default:
			if label, ok := merged["label"].(string); ok && label != "" {
				out.Name = label
			} else {
				out.Name = kind
			}
		}
	}

	if len(out.Inputs) == 0 {
		if known && len(info.Inputs) > 0 {
			out.Inputs = slices.Clone(info.Inputs)
		} else {
			out.Inputs = []string{anyType}
		}
	}
	if len(out.Outputs) == 0 {
		if known && len(info.Outputs) > 0 {
			out.Outputs = slices.Clone(info.Outputs)
		} else {
			out.Outputs = []string{anyType}
		}
	}

	return out
}
