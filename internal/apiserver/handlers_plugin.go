package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func toPluginInfo(p interface {
	Name() string
	Category() string
	Description() string
	ConfigSchema() (json.RawMessage, error)
}) (pluginInfo, error) {
	cfg, err := p.ConfigSchema()
	if err != nil {
		return pluginInfo{}, err
	}
	return pluginInfo{Name: p.Name(), Category: p.Category(), Description: p.Description(), Config: cfg}, nil
}

// GET /api/plugins
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	plugins := s.session.Plugins.List()
	out := make([]pluginInfo, 0, len(plugins))
	for _, p := range plugins {
		info, err := toPluginInfo(p)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/plugin/{name}
func (s *Server) handlePlugin(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, ok := s.session.Plugins.Find(name)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	info, err := toPluginInfo(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
