package apiserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tap-ir/tapir/internal/apierror"
	"github.com/tap-ir/tapir/internal/filter"
	"github.com/tap-ir/tapir/internal/timeline"
)

// POST /api/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryInfo
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ids, err := filter.Path(s.session.Tree, s.session.VFiles, req.Query, req.Root)
	if err != nil {
		writeError(w, apierror.Wrap(apierror.BadInput, err))
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// POST /api/timeline. Streams the matching entries element-by-element,
// same rationale as /nodes (spec.md §4.G "Search & time").
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	var req TimeRange
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var after, before time.Time
	var err error
	if req.After != "" {
		if after, err = time.Parse(time.RFC3339, req.After); err != nil {
			writeError(w, apierror.BadInputf("invalid after timestamp: %v", err))
			return
		}
	}
	if req.Before != "" {
		if before, err = time.Parse(time.RFC3339, req.Before); err != nil {
			writeError(w, apierror.BadInputf("invalid before timestamp: %v", err))
			return
		}
	}

	entries := timeline.Collect(s.session.Tree, s.session.Tree.RootID, after, before)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)

	w.Write([]byte("["))
	for i, e := range entries {
		te := timelineEntry{ID: e.ID, AttributeName: e.AttributeName, Time: e.Time.UTC().Format(time.RFC3339Nano)}
		if req.Option != nil {
			if node, ok := realize(s.session.Tree, e.ID, *req.Option); ok {
				te.Node = &node
			}
		}
		if i > 0 {
			w.Write([]byte(","))
		}
		enc.Encode(te)
	}
	w.Write([]byte("]"))
}
