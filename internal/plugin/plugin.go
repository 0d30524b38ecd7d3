// Package plugin defines the registry of pluggable parsers that
// materialize tree nodes and attributes from an artifact, and ships three
// concrete, runnable plugins (local, hash, merge) in place of the original
// Rust server's native-format parsers, which are out of scope here per
// spec.md §1 ("the implementation of individual parsers").
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// Argument is the decoded JSON argument object a plugin receives.
type Argument = json.RawMessage

// Plugin is a registered parser. Run mutates the tree rooted at `root`
// (typically by adding children with attributes) and returns an arbitrary
// JSON-able result, or an error if the invocation failed.
type Plugin interface {
	Name() string
	Category() string
	Description() string
	ConfigSchema() (json.RawMessage, error)
	Run(ctx context.Context, t *tree.Tree, vfiles *vfile.Registry, root tree.NodeId, argument Argument) (any, error)
}

// Registry is an iterable, name-addressed collection of plugins.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Plugin
	ordered []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Plugin)}
}

func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, dup := r.byName[name]; !dup {
		r.ordered = append(r.ordered, name)
	}
	r.byName[name] = p
}

func (r *Registry) Find(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// List returns every registered plugin, sorted by name for a stable
// /api/plugins response.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.ordered))
	copy(names, r.ordered)
	sort.Strings(names)
	out := make([]Plugin, 0, len(names))
	for _, n := range names {
		out = append(out, r.byName[n])
	}
	return out
}

// schema builds a trivial JSON Schema object describing a flat set of
// named arguments, each mapped to its JSON type name; real plugins would carry a richer schema,
// but the server only forwards whatever the plugin returns (spec.md §4.G).
func schema(props map[string]string) json.RawMessage {
	type prop struct {
		Type string `json:"type"`
	}
	obj := struct {
		Type       string          `json:"type"`
		Properties map[string]prop `json:"properties"`
	}{Type: "object", Properties: make(map[string]prop, len(props))}
	for k, v := range props {
		obj.Properties[k] = prop{Type: v}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		panic(fmt.Sprintf("plugin: building static schema: %v", err))
	}
	return raw
}
