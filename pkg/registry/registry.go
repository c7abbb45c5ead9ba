package registry

import (
	"strings"
	"sync"

	"github.com/canopyhq/canopy/pkg/domain"
)

// KindInfo is the default metadata for one node kind. The normalizer
// fills missing node fields from it.
type KindInfo struct {
	Kind     string
	Category string
	Name     string
	Inputs   []string
	Outputs  []string
	// Config provides base configuration; explicit node config wins on merge.
	Config map[string]any
}

// Registry maps node kinds to their default metadata. It is passed into
// the normalizer explicitly rather than referenced as a package global,
// so alternate kind catalogs can coexist.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]KindInfo
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		kinds: make(map[string]KindInfo),
	}
}

// Register adds defaults for a kind.
// If the kind is already registered, it is overwritten.
func (r *Registry) Register(info KindInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[info.Kind] = info
}

// Lookup returns the defaults for a kind, and whether it is registered.
func (r *Registry) Lookup(kind string) (KindInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.kinds[kind]
	return info, ok
}

// HeuristicCategory guesses a category for kinds the registry does not
// know: "artifact:"-prefixed kinds act, everything else carries data.
func HeuristicCategory(kind string) string {
	if strings.HasPrefix(kind, "artifact:") {
		return domain.CategoryAction
	}
	return domain.CategoryData
}

// Builtin returns a registry preloaded with the orchestration kinds.
// Callers extend it with their own catalog before compiling.
func Builtin() *Registry {
	r := New()
	for _, info := range []KindInfo{
		{Kind: domain.KindSpawnRun, Category: domain.CategoryAction, Name: "Spawn Run"},
		{Kind: domain.KindSpawnGroup, Category: domain.CategoryAction, Name: "Spawn Group"},
		{Kind: domain.KindJoin, Category: domain.CategoryAction, Name: "Join"},
		{Kind: domain.KindRouter, Category: domain.CategoryAction, Name: "Router"},
		{Kind: domain.KindJudge, Category: domain.CategoryAction, Name: "Judge"},
		{Kind: domain.KindReplan, Category: domain.CategoryAction, Name: "Replan"},
		{Kind: domain.KindCancelSubtree, Category: domain.CategoryAction, Name: "Cancel Subtree"},
	} {
		r.Register(info)
	}
	return r
}
