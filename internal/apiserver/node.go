package apiserver

import (
	"github.com/tap-ir/tapir/internal/tree"
)

// realize builds the node-state projection for id according to opt. The
// caller must already know id resolves; realize returns false if it does
// not (concurrent delete between lookup and projection).
func realize(t *tree.Tree, id tree.NodeId, opt NodeOption) (nodeResponse, bool) {
	node := t.GetNodeFromId(id)
	if node == nil {
		return nodeResponse{}, false
	}

	resp := nodeResponse{ID: id, HasChildren: t.HasChildren(id)}

	if opt.Name {
		name := node.Name()
		resp.Name = &name
	}
	if opt.Path {
		if p, ok := t.NodePath(id); ok {
			resp.Path = &p
		}
	}
	if opt.Attributes {
		attrs := node.Attributes()
		dump := make([]attrDump, 0, len(attrs))
		for _, a := range attrs {
			dump = append(dump, attrDump{Name: a.Name, Value: a.Value, Description: a.Description})
		}
		resp.Attributes = &dump
	}
	if opt.Children {
		children := t.ChildrenIdName(id)
		pairs := make([][2]any, 0, len(children))
		for _, c := range children {
			pairs = append(pairs, [2]any{c.Id, c.Name})
		}
		resp.Children = &pairs
	}

	return resp, true
}
