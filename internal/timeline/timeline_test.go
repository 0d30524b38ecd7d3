package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/timeline"
	"github.com/tap-ir/tapir/internal/tree"
)

func TestCollectSortsAndFilters(t *testing.T) {
	tr := tree.New()

	a, _ := tr.AddChild(tr.RootID, "a")
	tr.GetNodeFromId(a).AddAttribute("mtime", tagvalue.Time(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), "", false)

	b, _ := tr.AddChild(tr.RootID, "b")
	tr.GetNodeFromId(b).AddAttribute("ctime", tagvalue.Time(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)), "", false)
	tr.GetNodeFromId(b).AddAttribute("atime", tagvalue.Time(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)), "", false)

	infos := timeline.Collect(tr, tr.RootID, time.Time{}, time.Time{})
	require.Len(t, infos, 3)
	require.Equal(t, "mtime", infos[0].AttributeName)
	require.Equal(t, "atime", infos[1].AttributeName)
	require.Equal(t, "ctime", infos[2].AttributeName)
}

func TestCollectRespectsRange(t *testing.T) {
	tr := tree.New()
	a, _ := tr.AddChild(tr.RootID, "a")
	tr.GetNodeFromId(a).AddAttribute("mtime", tagvalue.Time(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), "", false)
	b, _ := tr.AddChild(tr.RootID, "b")
	tr.GetNodeFromId(b).AddAttribute("mtime", tagvalue.Time(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), "", false)

	after := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	infos := timeline.Collect(tr, tr.RootID, after, time.Time{})
	require.Len(t, infos, 1)
	require.Equal(t, b, infos[0].ID)
}
