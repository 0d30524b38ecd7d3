package scheduler_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tap-ir/tapir/internal/scheduler"
)

func echoRunner(ctx context.Context, pluginName string, argument json.RawMessage) (any, error) {
	return map[string]string{"plugin": pluginName}, nil
}

func TestScheduleAndJoin(t *testing.T) {
	s := scheduler.New(2, echoRunner, nil)

	id, err := s.Schedule("hash", json.RawMessage(`{}`), false)
	require.NoError(t, err)

	s.Join()

	snap, ok := s.Task(id)
	require.True(t, ok)
	require.Equal(t, scheduler.Finished, snap.State)
	require.NoError(t, snap.Err)
	require.Equal(t, 1, s.TaskCount())
}

func TestTasksSkipsUnknownIDs(t *testing.T) {
	s := scheduler.New(1, echoRunner, nil)

	id1, _ := s.Schedule("hash", json.RawMessage(`{}`), false)
	id2, _ := s.Schedule("hash", json.RawMessage(`{}`), false)
	s.Join()

	snaps := s.Tasks([]uint32{id1, id2, 999})
	require.Len(t, snaps, 2)
	require.Equal(t, scheduler.Finished, snaps[0].State)
	require.Equal(t, scheduler.Finished, snaps[1].State)
}

func TestScheduleRequiresPluginName(t *testing.T) {
	s := scheduler.New(1, echoRunner, nil)
	_, err := s.Schedule("", nil, false)
	require.Error(t, err)
}
