package filter

import (
	"fmt"
	"strings"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// evalContext bundles the per-node state comparisons are evaluated
// against: the node's own name, its size (the "size" attribute, else the
// size of its "data" vfile, else 0), and its attribute bag.
type evalContext struct {
	name string
	node *tree.Node
	size int64
}

func (c compareExpr) eval(ctx *evalContext) (bool, error) {
	switch c.field {
	case fieldName:
		return compareString(ctx.name, c.op, c.strValue)
	case fieldSize:
		if !c.isNumber {
			return false, fmt.Errorf("filter: size comparisons require a numeric literal")
		}
		return compareNumber(float64(ctx.size), c.op, c.numValue)
	case fieldAttr:
		val, ok := ctx.node.GetValue(c.attrName)
		if !ok {
			return false, nil
		}
		return compareAttr(val, c.op, c)
	default:
		return false, fmt.Errorf("filter: unknown field kind %d", c.field)
	}
}

func (a andExpr) eval(ctx *evalContext) (bool, error) {
	l, err := a.left.eval(ctx)
	if err != nil || !l {
		return false, err
	}
	return a.right.eval(ctx)
}

func (o orExpr) eval(ctx *evalContext) (bool, error) {
	l, err := o.left.eval(ctx)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return o.right.eval(ctx)
}

func (n notExpr) eval(ctx *evalContext) (bool, error) {
	v, err := n.inner.eval(ctx)
	if err != nil {
		return false, err
	}
	return !v, nil
}

func compareString(actual, op, want string) (bool, error) {
	switch op {
	case "=", "==":
		return actual == want, nil
	case "!=":
		return actual != want, nil
	default:
		return false, fmt.Errorf("filter: operator %q not valid for strings", op)
	}
}

func compareNumber(actual float64, op string, want float64) (bool, error) {
	switch op {
	case "=", "==":
		return actual == want, nil
	case "!=":
		return actual != want, nil
	case "<":
		return actual < want, nil
	case "<=":
		return actual <= want, nil
	case ">":
		return actual > want, nil
	case ">=":
		return actual >= want, nil
	default:
		return false, fmt.Errorf("filter: unknown operator %q", op)
	}
}

func compareAttr(val tagvalue.Value, op string, c compareExpr) (bool, error) {
	if c.isNumber {
		var n float64
		switch val.Kind {
		case tagvalue.KindInt:
			n = float64(val.Int)
		case tagvalue.KindUint:
			n = float64(val.Uint)
		case tagvalue.KindFloat:
			n = val.Float
		default:
			return false, nil
		}
		return compareNumber(n, op, c.numValue)
	}
	if val.Kind != tagvalue.KindString {
		return false, nil
	}
	return compareString(val.Str, op, c.strValue)
}

// Path evaluates query against every node in the subtree rooted at the
// node named by rootPath (e.g. "/root" or "/root/disk.img"), returning the
// ids of matching nodes. This is the Filter::path collaborator named in
// spec.md §6.
func Path(t *tree.Tree, vfiles *vfile.Registry, query, rootPath string) ([]tree.NodeId, error) {
	e, err := Parse(query)
	if err != nil {
		return nil, fmt.Errorf("filter: parse query: %w", err)
	}

	root, ok := resolveRoot(t, rootPath)
	if !ok {
		return nil, fmt.Errorf("filter: root path %q not found", rootPath)
	}

	var matches []tree.NodeId
	var walk func(id tree.NodeId) error
	walk = func(id tree.NodeId) error {
		node := t.GetNodeFromId(id)
		if node == nil {
			return nil
		}
		ctx := &evalContext{name: node.Name(), node: node, size: sizeOf(node, vfiles)}
		ok, err := e.eval(ctx)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, id)
		}
		for _, child := range t.ChildrenIdName(id) {
			if err := walk(child.Id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return matches, nil
}

func resolveRoot(t *tree.Tree, rootPath string) (tree.NodeId, bool) {
	trimmed := strings.TrimSpace(rootPath)
	if trimmed == "" || trimmed == "/" {
		return t.RootID, true
	}
	return t.GetNodeId(trimmed)
}

func sizeOf(node *tree.Node, vfiles *vfile.Registry) int64 {
	val, ok := node.GetValue("size")
	if ok {
		switch val.Kind {
		case tagvalue.KindUint:
			return int64(val.Uint)
		case tagvalue.KindInt:
			return val.Int
		}
	}
	data, ok := node.GetValue("data")
	if !ok || data.Kind != tagvalue.KindVFile {
		return 0
	}
	builder, ok := vfiles.Get(data.VFileKey)
	if !ok {
		return 0
	}
	sz, err := builder.Size()
	if err != nil {
		return 0
	}
	return sz
}
