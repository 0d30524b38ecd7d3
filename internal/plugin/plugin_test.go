package plugin_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/plugin"
	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

func TestLocalIngestsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	tr := tree.New()
	vfiles := vfile.NewRegistry()
	p := plugin.NewLocal()

	argument, err := json.Marshal(map[string]any{"files": []string{path}})
	require.NoError(t, err)

	result, err := p.Run(context.Background(), tr, vfiles, tr.RootID, argument)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, 2, tr.Count())
}

func TestHashComputesDigests(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	tr := tree.New()
	vfiles := vfile.NewRegistry()

	local := plugin.NewLocal()
	argument, _ := json.Marshal(map[string]any{"files": []string{path}})
	result, err := local.Run(context.Background(), tr, vfiles, tr.RootID, argument)
	require.NoError(t, err)

	created := result.(map[string]any)["created"].([]tree.NodeId)
	require.Len(t, created, 1)

	hashPlugin := plugin.NewHash()
	hashArg, _ := json.Marshal(map[string]any{"node_id": created[0]})
	digests, err := hashPlugin.Run(context.Background(), tr, vfiles, tr.RootID, hashArg)
	require.NoError(t, err)

	node := tr.GetNodeFromId(created[0])
	sha1Val, ok := node.GetValue("sha1")
	require.True(t, ok)
	require.Equal(t, digests.(map[string]string)["sha1"], sha1Val.Str)
}

func TestMergePromotesChildAttributes(t *testing.T) {
	tr := tree.New()
	vfiles := vfile.NewRegistry()

	parentID, _ := tr.AddChild(tr.RootID, "archive")
	childID, _ := tr.AddChild(parentID, "entry.txt")
	tr.GetNodeFromId(childID).AddAttribute("mime", tagvalue.String("text/plain"), "", false)

	mergePlugin := plugin.NewMerge()
	argument, _ := json.Marshal(map[string]any{"node_id": parentID})
	result, err := mergePlugin.Run(context.Background(), tr, vfiles, tr.RootID, argument)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"merged": 1}, result)

	parentNode := tr.GetNodeFromId(parentID)
	_, ok := parentNode.GetValue("entry.txt.mime")
	require.True(t, ok)
}
