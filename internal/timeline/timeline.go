// Package timeline walks the node tree collecting every time-valued
// attribute into a single sorted list, backing POST /api/timeline. Grounded
// on perkeep's pkg/search/describe.go attribute-walk pattern.
package timeline

import (
	"sort"
	"time"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
)

// Info is one time-valued attribute found somewhere in the tree.
type Info struct {
	ID            tree.NodeId
	AttributeName string
	Time          time.Time
}

// Collect walks the whole tree rooted at root, gathering every attribute of
// kind tagvalue.KindTime whose value falls in [after, before), sorted
// ascending by time. A zero after/before leaves that bound open.
func Collect(t *tree.Tree, root tree.NodeId, after, before time.Time) []Info {
	var out []Info
	var walk func(id tree.NodeId)
	walk = func(id tree.NodeId) {
		node := t.GetNodeFromId(id)
		if node == nil {
			return
		}
		for _, attr := range node.Attributes() {
			if attr.Value.Kind != tagvalue.KindTime {
				continue
			}
			ts := attr.Value.Time
			if !after.IsZero() && ts.Before(after) {
				continue
			}
			if !before.IsZero() && !ts.Before(before) {
				continue
			}
			out = append(out, Info{ID: id, AttributeName: attr.Name, Time: ts})
		}
		for _, child := range t.ChildrenIdName(id) {
			walk(child.Id)
		}
	}
	walk(root)

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
