package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/tap-ir/tapir/internal/apierror"
	"github.com/tap-ir/tapir/internal/tree"
)

// POST /api/save
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveFile
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Save(req.FileName); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// POST /api/load
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req SaveFile
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Load(r.Context(), req.FileName); err != nil {
		writeError(w, apierror.Wrap(apierror.BadInput, err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// scanResult mirrors the original's scan() return shape, a (node, plugin)
// pair recording which plugin ran against which already-ingested node.
type scanResult struct {
	NodeId tree.NodeId `json:"node_id"`
	Plugin string      `json:"plugin"`
}

// POST /api/scan. Deprecated legacy autodetection sweep, retained for
// compatibility (spec.md §4.G "Legacy", §9). The original's scan() walks
// the tree, detects each node's datatype, and runs the plugins registered
// for that datatype (datatypes()/plugins_datatype() in server.rs). This
// module has no magic-byte datatype registry, so the equivalent sweep here
// walks every node carrying a "data" attribute and runs each registered
// "analysis"-category plugin (currently hash, merge) against it with
// {"node_id": id}, the argument shape those plugins actually accept.
// "ingest"-category plugins such as local need file paths the tree
// doesn't hold, so they can never be invoked against existing nodes.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var analysisPlugins []string
	for _, p := range s.session.Plugins.List() {
		if p.Category() == "analysis" {
			analysisPlugins = append(analysisPlugins, p.Name())
		}
	}

	var ran []scanResult
	var walk func(id tree.NodeId)
	walk = func(id tree.NodeId) {
		node := s.session.Tree.GetNodeFromId(id)
		if node == nil {
			return
		}
		if _, hasData := node.GetValue("data"); hasData {
			arg, _ := json.Marshal(map[string]any{"node_id": id})
			for _, name := range analysisPlugins {
				if _, err := s.session.Run(r.Context(), name, arg); err == nil {
					ran = append(ran, scanResult{NodeId: id, Plugin: name})
				}
			}
		}
		for _, child := range s.session.Tree.ChildrenIdName(id) {
			walk(child.Id)
		}
	}
	walk(s.session.Tree.RootID)

	writeJSON(w, http.StatusOK, ran)
}
