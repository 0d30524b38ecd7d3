package apiserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tap-ir/tapir/internal/apierror"
	"github.com/tap-ir/tapir/internal/tree"
)

var fullOption = NodeOption{Name: true, Path: true, Attributes: true, Children: true}

// GET /api/root
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	resp, ok := realize(s.session.Tree, s.session.Tree.RootID, fullOption)
	if !ok {
		writeError(w, apierror.BadInputf("root node unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/root/{path:.*}. Backslashes are normalized to forward slashes
// before lookup (spec.md §4.G, §8 property 10).
func (s *Server) handleRootPath(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["path"]
	normalized := strings.ReplaceAll(raw, "\\", "/")
	full := "/root/" + strings.TrimPrefix(normalized, "/")

	id, ok := s.session.Tree.GetNodeId(full)
	if !ok {
		writeError(w, apierror.BadInputf("no node at path %q", full))
		return
	}
	resp, ok := realize(s.session.Tree, id, fullOption)
	if !ok {
		writeError(w, apierror.BadInputf("no node at path %q", full))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/node
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	var req NodeIdOption
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, ok := realize(s.session.Tree, req.NodeId, req.Option)
	if !ok {
		writeError(w, apierror.BadInputf("unknown node %v", req.NodeId))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/nodes. Streams the JSON array element-by-element so a large
// result set is never fully buffered (spec.md §4.G, §8 property 9).
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	var req NodesIdOption
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)

	w.Write([]byte("["))
	wrote := false
	for _, id := range req.NodesId {
		resp, ok := realize(s.session.Tree, id, req.Option)
		if !ok {
			continue
		}
		if wrote {
			w.Write([]byte(","))
		}
		enc.Encode(resp)
		wrote = true
	}
	w.Write([]byte("]"))
}

// POST /api/path
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	var id tree.NodeId
	if err := decodeJSON(r, &id); err != nil {
		writeError(w, err)
		return
	}
	path, ok := s.session.Tree.NodePath(id)
	if !ok {
		writeError(w, apierror.BadInputf("unknown node %v", id))
		return
	}
	writeJSON(w, http.StatusOK, path)
}

// POST /api/parent_id
func (s *Server) handleParentID(w http.ResponseWriter, r *http.Request) {
	var id tree.NodeId
	if err := decodeJSON(r, &id); err != nil {
		writeError(w, err)
		return
	}
	parent, ok := s.session.Tree.ParentId(id)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

// GET /api/node_count
func (s *Server) handleNodeCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Tree.Count())
}

// GET /api/attribute_count
func (s *Server) handleAttributeCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Tree.AttributeCount())
}

// POST /api/delete
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var id tree.NodeId
	if err := decodeJSON(r, &id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Tree.Remove(id); err != nil {
		writeError(w, apierror.Wrap(apierror.BadInput, err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// POST /api/attribute
func (s *Server) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	var req AttributeInfo
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	node := s.session.Tree.GetNodeFromId(req.NodeId)
	if node == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	node.AddAttribute(req.Name, req.Value, req.Description, req.Description != "")
	w.WriteHeader(http.StatusOK)
}
