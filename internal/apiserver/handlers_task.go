package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tap-ir/tapir/internal/apierror"
	"github.com/tap-ir/tapir/internal/scheduler"
)

// POST /api/run. Synchronous: blocks until the plugin finishes. Failure is
// not an HTTP error — it is a 200 response carrying {"error": ...}
// (spec.md §7 "TaskFailure").
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req PluginArgs
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.session.Run(r.Context(), req.Name, json.RawMessage(req.Arguments))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// POST /api/schedule
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req PluginArgs
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := s.session.Schedule(req.Name, json.RawMessage(req.Arguments), req.Relaunch)
	if err != nil {
		writeError(w, apierror.Wrap(apierror.BadInput, err))
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// POST /api/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	s.session.Join()
	w.WriteHeader(http.StatusOK)
}

// POST /api/task_count
func (s *Server) handleTaskCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.TaskCount())
}

func taskStateJSON(snap scheduler.Snapshot) taskStateResponse {
	resp := taskStateResponse{
		State:    snap.State.String(),
		ID:       snap.Task.ID,
		Plugin:   snap.Task.PluginName,
		Argument: snap.Task.Argument,
	}
	if snap.State != scheduler.Finished {
		return resp
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
		return resp
	}
	if raw, err := json.Marshal(snap.Result); err == nil {
		resp.Result = raw
	}
	return resp
}

// POST /api/task?task_id=<u32>
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("task_id"), 10, 32)
	if err != nil {
		writeError(w, apierror.BadInputf("invalid task_id: %v", err))
		return
	}
	snap, ok := s.session.Task(uint32(id))
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, taskStateJSON(snap))
}

// POST /api/tasks
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	var req TasksParameters
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snaps := s.session.Tasks(req.IDs)
	out := make([]taskStateResponse, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, taskStateJSON(snap))
	}
	writeJSON(w, http.StatusOK, out)
}
