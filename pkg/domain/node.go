package domain

// Orchestration node kinds that force a "2.0" spec version.
// Any graph containing at least one of these compiles to the v2 spec.
const (
	KindSpawnRun      = "spawn_run"
	KindSpawnGroup    = "spawn_group"
	KindJoin          = "join"
	KindRouter        = "router"
	KindJudge         = "judge"
	KindReplan        = "replan"
	KindCancelSubtree = "cancel_subtree"
)

// Spec versions emitted by the compiler.
const (
	SpecVersion1 = "1.0"
	SpecVersion2 = "2.0"
)

// Node categories. Unknown kinds fall back to a prefix heuristic
// ("artifact:" kinds act, everything else carries data).
const (
	CategoryAction = "action"
	CategoryData   = "data"
)

// Node represents a single authored unit of orchestration behavior.
//
// Config is a duck-typed bag the authoring UI writes freely; the compiler
// pattern-matches known shapes by Kind and passes unknown keys through
// untouched.
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Kind string `json:"kind" yaml:"kind"`

	// Type is a legacy per-node field older graphs carry instead of Kind.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`

	// Inputs and Outputs are type tags, not wiring. "any" matches everything.
	Inputs  []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	Configured bool `json:"configured,omitempty" yaml:"configured,omitempty"`
	HasError   bool `json:"has_error,omitempty" yaml:"has_error,omitempty"`

	// InputMappings is mirrored at the top level for legacy consumers.
	// The canonical copy lives in Config under "input_mappings".
	InputMappings map[string]any `json:"-" yaml:"input_mappings,omitempty"`
}

// EffectiveKind returns the node's kind, falling back to the legacy
// per-node Type field for graphs authored before Kind existed.
func (n Node) EffectiveKind() string {
	if n.Kind != "" {
		return n.Kind
	}
	return n.Type
}

// Edge is a directed connection between two nodes, optionally qualified
// by named handles on either end.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`

	SourceHandle string `json:"-" yaml:"source_handle,omitempty"`
	TargetHandle string `json:"-" yaml:"target_handle,omitempty"`
}

// GraphSpec is the versioned, serializable compiled form of a graph,
// ready to hand to the execution backend. It is produced fresh on every
// save; this core never retains it.
type GraphSpec struct {
	SpecVersion string `json:"spec_version" yaml:"spec_version"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Edges       []Edge `json:"edges" yaml:"edges"`
}

// IsV2Kind reports whether kind belongs to the fixed set of orchestration
// kinds that require the "2.0" spec.
func IsV2Kind(kind string) bool {
	switch kind {
	case KindSpawnRun, KindSpawnGroup, KindJoin, KindRouter, KindJudge, KindReplan, KindCancelSubtree:
		return true
	}
	return false
}
