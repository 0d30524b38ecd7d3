package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/filter"
	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

func buildSampleTree() (*tree.Tree, *vfile.Registry, tree.NodeId) {
	tr := tree.New()
	vfiles := vfile.NewRegistry()

	a, _ := tr.AddChild(tr.RootID, "a.bin")
	tr.GetNodeFromId(a).AddAttribute("size", tagvalue.Uint(100), "", false)
	tr.GetNodeFromId(a).AddAttribute("sha1", tagvalue.String("deadbeef"), "", false)

	b, _ := tr.AddChild(tr.RootID, "b.bin")
	tr.GetNodeFromId(b).AddAttribute("size", tagvalue.Uint(5000), "", false)

	return tr, vfiles, a
}

func TestQueryByName(t *testing.T) {
	tr, vfiles, a := buildSampleTree()
	ids, err := filter.Path(tr, vfiles, `name = "a.bin"`, "/root")
	require.NoError(t, err)
	require.Equal(t, []tree.NodeId{a}, ids)
}

func TestQueryBySizeRange(t *testing.T) {
	tr, vfiles, _ := buildSampleTree()
	ids, err := filter.Path(tr, vfiles, `size > 1000`, "/root")
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestQueryAndOrNot(t *testing.T) {
	tr, vfiles, a := buildSampleTree()
	ids, err := filter.Path(tr, vfiles, `attr.sha1 = "deadbeef" and not (size > 1000)`, "/root")
	require.NoError(t, err)
	require.Equal(t, []tree.NodeId{a}, ids)
}

func TestQueryParseError(t *testing.T) {
	tr, vfiles, _ := buildSampleTree()
	_, err := filter.Path(tr, vfiles, `name = `, "/root")
	require.Error(t, err)
}
