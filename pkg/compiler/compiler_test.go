package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy/pkg/domain"
)

func TestCompile_SpawnRunScenario(t *testing.T) {
	// Compiling a graph with one spawn_run node twice must yield the
	// identical idempotency key: at-most-once submission depends on
	// re-saves not regenerating keys.
	nodes := []domain.Node{{
		ID:   "node-1",
		Kind: domain.KindSpawnRun,
		Config: map[string]any{
			"target_agent_slug": "billing-agent",
			"scope_subset":      []any{"org:42"},
		},
	}}

	first := Compile(nodes, nil, Options{})
	second := Compile(nodes, nil, Options{})

	key1, _ := first.Nodes[0].Config["idempotency_key"].(string)
	key2, _ := second.Nodes[0].Config["idempotency_key"].(string)
	require.NotEmpty(t, key1)
	assert.Equal(t, key1, key2)
	assert.Equal(t, "node-1:"+StableHash(`billing-agent:["org:42"]`), key1)
	assert.Equal(t, domain.SpecVersion2, first.SpecVersion)
}

func TestCompile_RecompileIsIdempotent(t *testing.T) {
	nodes := []domain.Node{
		{ID: "s1", Kind: domain.KindSpawnRun, Config: map[string]any{"target_agent_slug": "a"}},
		{ID: "r1", Kind: domain.KindRouter, Config: map[string]any{
			"route_table": []any{map[string]any{"condition": "x", "destination": "s1"}},
		}},
	}

	first := Compile(nodes, nil, Options{})
	// Feed the compiled output straight back in, as a re-save would.
	second := Compile(first.Nodes, first.Edges, Options{SpecVersion: first.SpecVersion})

	assert.Equal(t, first.Nodes[0].Config["idempotency_key"], second.Nodes[0].Config["idempotency_key"])
	assert.Equal(t, first.Nodes[1].Config["routes"], second.Nodes[1].Config["routes"])
	assert.Equal(t, first.SpecVersion, second.SpecVersion)
}

func TestCompile_VersionSeesNormalizedKinds(t *testing.T) {
	// The legacy per-node type is promoted during normalization, so
	// version resolution must see it.
	spec := Compile([]domain.Node{{ID: "a", Type: "spawn_group"}}, nil, Options{SpecVersion: "1.0"})
	assert.Equal(t, domain.SpecVersion2, spec.SpecVersion)
}

func TestCompile_MirrorsInputMappings(t *testing.T) {
	mapped := map[string]any{"question": "prev.output"}
	spec := Compile([]domain.Node{{
		ID:     "n1",
		Kind:   "retriever",
		Config: map[string]any{"input_mappings": mapped},
	}}, nil, Options{})

	assert.Equal(t, mapped, spec.Nodes[0].InputMappings, "top-level mirror for legacy consumers")
}

func TestCompile_PassesDanglingEdgeRefsThrough(t *testing.T) {
	edges := []domain.Edge{{ID: "e1", Source: "ghost", Target: "also-ghost"}}

	var spec domain.GraphSpec
	assert.NotPanics(t, func() {
		spec = Compile(nil, edges, Options{})
	})
	require.Len(t, spec.Edges, 1)
	assert.Equal(t, "ghost", spec.Edges[0].Source, "ids pass through unchanged")

	// Detection is the validator's job.
	assert.Error(t, CheckEdges(nil, edges))
	assert.NoError(t, CheckEdges(
		[]domain.Node{{ID: "a"}, {ID: "b"}},
		[]domain.Edge{{ID: "e", Source: "a", Target: "b"}},
	))
}

func TestCompile_PureWithRespectToInputs(t *testing.T) {
	cfg := map[string]any{"target_agent_slug": "billing-agent"}
	nodes := []domain.Node{{ID: "s", Kind: domain.KindSpawnRun, Config: cfg}}

	Compile(nodes, nil, Options{})

	_, leaked := cfg["idempotency_key"]
	assert.False(t, leaked, "compile must not mutate caller-owned config maps")
}
