package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// Merge promotes attributes from a node's children onto the node itself,
// named after and behaviorally modeled on the original server's
// tap_plugin_merge (consolidating attributes produced by several child
// parsers back onto a shared parent).
type Merge struct{}

func NewMerge() *Merge { return &Merge{} }

func (Merge) Name() string        { return "merge" }
func (Merge) Category() string    { return "analysis" }
func (Merge) Description() string { return "promote child node attributes onto their parent" }

func (Merge) ConfigSchema() (json.RawMessage, error) {
	return schema(map[string]string{"node_id": "object"}), nil
}

type mergeArgs struct {
	NodeId tree.NodeId `json:"node_id"`
}

func (Merge) Run(ctx context.Context, t *tree.Tree, vfiles *vfile.Registry, root tree.NodeId, argument Argument) (any, error) {
	var args mergeArgs
	if err := json.Unmarshal(argument, &args); err != nil {
		return nil, fmt.Errorf("merge: invalid argument: %w", err)
	}

	node := t.GetNodeFromId(args.NodeId)
	if node == nil {
		return nil, fmt.Errorf("merge: unknown node %v", args.NodeId)
	}

	merged := 0
	for _, child := range t.ChildrenIdName(args.NodeId) {
		childNode := t.GetNodeFromId(child.Id)
		if childNode == nil {
			continue
		}
		for _, attr := range childNode.Attributes() {
			if attr.Name == "data" {
				continue
			}
			node.AddAttribute(child.Name+"."+attr.Name, attr.Value, attr.Description, attr.HasDescr)
			merged++
		}
	}

	return map[string]any{"merged": merged}, nil
}
