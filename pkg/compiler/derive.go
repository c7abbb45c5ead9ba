package compiler

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Config keys the deriver reads and writes. Everything else in a node's
// config passes through untouched.
const (
	keyIdempotency       = "idempotency_key"
	keyIdempotencyPrefix = "idempotency_key_prefix"
	keyRoutes            = "routes"
	keyOutcomes          = "outcomes"
)

// Known config shapes the deriver pattern-matches on by kind. Decoding is
// best-effort: wrong types degrade to zero values, never to a failure.

type spawnRunConfig struct {
	TargetAgentSlug string `mapstructure:"target_agent_slug"`
	TargetAgentID   string `mapstructure:"target_agent_id"`
	ScopeSubset     []any  `mapstructure:"scope_subset"`
}

type spawnTarget struct {
	AgentSlug string `mapstructure:"agent_slug"`
	AgentID   string `mapstructure:"agent_id"`
}

type spawnGroupConfig struct {
	Targets     []spawnTarget `mapstructure:"targets"`
	ScopeSubset []any         `mapstructure:"scope_subset"`
}

type routingConfig struct {
	RouteTable  []map[string]any `mapstructure:"route_table"`
	Outcomes    []any            `mapstructure:"outcomes"`
	PassOutcome string           `mapstructure:"pass_outcome"`
	FailOutcome string           `mapstructure:"fail_outcome"`
}

// DeriveNodeConfig computes orchestration-specific derived config fields.
// It acts on exactly five kinds (spawn_run, spawn_group, router, judge are
// the interesting four; everything else is identity) and never overwrites
// an explicitly set value. It is total: malformed config degrades to the
// documented fallbacks.
func DeriveNodeConfig(n domain.Node) domain.Node {
	switch n.EffectiveKind() {
	case domain.KindSpawnRun:
		return deriveSpawnRun(n)
	case domain.KindSpawnGroup:
		return deriveSpawnGroup(n)
	case domain.KindRouter:
		return deriveRouter(n)
	case domain.KindJudge:
		return deriveJudge(n)
	default:
		return n
	}
}

func deriveSpawnRun(n domain.Node) domain.Node {
	if configString(n.Config, keyIdempotency) != "" {
		return n
	}

	var cfg spawnRunConfig
	decodeConfig(n.Config, &cfg)

	target := cfg.TargetAgentSlug
	if target == "" {
		target = cfg.TargetAgentID
	}
	if target == "" {
		target = "unknown"
	}

	key := n.ID + ":" + StableHash(target+":"+scopeJSON(cfg.ScopeSubset))
	return withConfig(n, keyIdempotency, key)
}

func deriveSpawnGroup(n domain.Node) domain.Node {
	if configString(n.Config, keyIdempotencyPrefix) != "" {
		return n
	}

	var cfg spawnGroupConfig
	decodeConfig(n.Config, &cfg)

	prints := make([]string, len(cfg.Targets))
	for i, t := range cfg.Targets {
		fp := t.AgentSlug
		if fp == "" {
			fp = t.AgentID
		}
		if fp == "" {
			fp = "unknown"
		}
		prints[i] = fp
	}

	prefix := n.ID + ":" + StableHash(strings.Join(prints, "|")+":"+scopeJSON(cfg.ScopeSubset))
	return withConfig(n, keyIdempotencyPrefix, prefix)
}

func deriveRouter(n domain.Node) domain.Node {
	var cfg routingConfig
	decodeConfig(n.Config, &cfg)

	// No table: leave routes untouched, whatever they are.
	if len(cfg.RouteTable) == 0 {
		return n
	}

	routes := make([]any, 0, len(cfg.RouteTable))
	for _, row := range cfg.RouteTable {
		if route, ok := routeFromRow(row); ok {
			routes = append(routes, route)
		}
	}
	return withConfig(n, keyRoutes, routes)
}

func deriveJudge(n domain.Node) domain.Node {
	var cfg routingConfig
	decodeConfig(n.Config, &cfg)

	if len(cfg.RouteTable) > 0 {
		outcomes := make([]any, 0, len(cfg.RouteTable))
		for _, row := range cfg.RouteTable {
			if name := firstRowString(row, "outcome", "label", "destination", "to"); name != "" {
				outcomes = append(outcomes, name)
			}
		}
		if len(outcomes) > 0 {
			return withConfig(n, keyOutcomes, outcomes)
		}
		// Table present but unusable: treat it as absent.
	}
	if len(cfg.Outcomes) > 0 {
		return n
	}

	pass := strings.TrimSpace(cfg.PassOutcome)
	if pass == "" {
		pass = "pass"
	}
	fail := strings.TrimSpace(cfg.FailOutcome)
	if fail == "" {
		fail = "fail"
	}
	return withConfig(n, keyOutcomes, []any{pass, fail})
}

// routeFromRow pins the route-table row contract: a condition under
// "condition" or "when", a destination under "destination" or "to", and
// an optional "label". Rows without a destination are skipped; duplicate
// destinations are kept in authored order.
func routeFromRow(row map[string]any) (map[string]any, bool) {
	dest := firstRowString(row, "destination", "to")
	if dest == "" {
		return nil, false
	}
	route := map[string]any{
		"condition":   firstRowString(row, "condition", "when"),
		"destination": dest,
	}
	if label := firstRowString(row, "label"); label != "" {
		route["label"] = label
	}
	return route, true
}

// decodeConfig decodes a duck-typed config map into a known shape.
// Failures leave the target at its zero value; derivation then proceeds
// with the documented fallbacks instead of surfacing an error.
func decodeConfig(config map[string]any, target any) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return
	}
	_ = dec.Decode(config)
}

// scopeJSON renders a scope subset as canonical JSON, "[]" when absent
// or unencodable, so equal scopes always hash equal.
func scopeJSON(scope []any) string {
	if scope == nil {
		scope = []any{}
	}
	data, err := json.Marshal(scope)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func configString(config map[string]any, key string) string {
	s, _ := config[key].(string)
	return strings.TrimSpace(s)
}

func firstRowString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := row[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// withConfig returns the node with one derived key set, copying the
// config map so derivation stays free of caller-visible mutation.
func withConfig(n domain.Node, key string, value any) domain.Node {
	out := n
	out.Config = make(map[string]any, len(n.Config)+1)
	for k, v := range n.Config {
		out.Config[k] = v
	}
	out.Config[key] = value
	return out
}
