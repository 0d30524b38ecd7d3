package tree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
)

func TestAddChildAndResolve(t *testing.T) {
	tr := tree.New()
	childID, ok := tr.AddChild(tr.RootID, "a.bin")
	require.True(t, ok)

	node := tr.GetNodeFromId(childID)
	require.NotNil(t, node)
	require.Equal(t, "a.bin", node.Name())
	require.Equal(t, 2, tr.Count())
}

func TestNodePathAndGetNodeId(t *testing.T) {
	tr := tree.New()
	childID, _ := tr.AddChild(tr.RootID, "disk.img")
	grandID, _ := tr.AddChild(childID, "part1")

	path, ok := tr.NodePath(grandID)
	require.True(t, ok)
	require.Equal(t, "/root/disk.img/part1", path)

	resolved, ok := tr.GetNodeId(path)
	require.True(t, ok)
	require.Equal(t, grandID, resolved)
}

func TestRemoveBumpsStamp(t *testing.T) {
	tr := tree.New()
	childID, _ := tr.AddChild(tr.RootID, "victim")
	grandID, _ := tr.AddChild(childID, "inner")

	require.NoError(t, tr.Remove(childID))

	require.Nil(t, tr.GetNodeFromId(childID))
	require.Nil(t, tr.GetNodeFromId(grandID))
	require.False(t, tr.HasChildren(tr.RootID))

	// A new child gets a fresh slot index; should it ever share the old
	// index, the stamp must differ so the old id never resolves to it.
	newID, ok := tr.AddChild(tr.RootID, "newcomer")
	require.True(t, ok)
	if newID.Index == childID.Index {
		require.NotEqual(t, newID.Stamp, childID.Stamp)
	}
}

func TestAttributesRoundTrip(t *testing.T) {
	tr := tree.New()
	node := tr.GetNodeFromId(tr.RootID)
	node.AddAttribute("size", tagvalue.Uint(42), "", false)

	v, ok := node.GetValue("size")
	require.True(t, ok)
	require.Equal(t, uint64(42), v.Uint)
	require.Equal(t, uint64(1), tr.AttributeCount())
}

func TestRemoveRootRejected(t *testing.T) {
	tr := tree.New()
	err := tr.Remove(tr.RootID)
	require.Error(t, err)
}
