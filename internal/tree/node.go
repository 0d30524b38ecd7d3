package tree

import (
	"sync"

	"github.com/tap-ir/tapir/internal/tagvalue"
)

// Attribute is a named tagged value optionally annotated with a
// human-readable description, attached to a node.
type Attribute struct {
	Name        string
	Value       tagvalue.Value
	Description string
	HasDescr    bool
}

// Node owns a name, a flat bag of named attributes, and its position in
// the tree (parent + children edges, tracked by the owning Tree rather
// than here, so a Node never needs to know about NodeId generations).
type Node struct {
	mu         sync.RWMutex
	name       string
	attributes map[string]Attribute
	order      []string // attribute insertion order, for stable dumps
}

func newNode(name string) *Node {
	return &Node{
		name:       name,
		attributes: make(map[string]Attribute),
	}
}

func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// AddAttribute sets (or overwrites) a flat attribute on the node. Dotted
// notation is deliberately not supported, per spec.
func (n *Node) AddAttribute(name string, value tagvalue.Value, description string, hasDescr bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.attributes[name]; !exists {
		n.order = append(n.order, name)
	}
	n.attributes[name] = Attribute{Name: name, Value: value, Description: description, HasDescr: hasDescr}
}

// GetValue returns the named attribute's value, if present.
func (n *Node) GetValue(name string) (tagvalue.Value, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	a, ok := n.attributes[name]
	if !ok {
		return tagvalue.Value{}, false
	}
	return a.Value, true
}

// Attributes returns a stable-ordered snapshot of the node's attributes.
func (n *Node) Attributes() []Attribute {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Attribute, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.attributes[name])
	}
	return out
}

func (n *Node) AttributeCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.attributes)
}
