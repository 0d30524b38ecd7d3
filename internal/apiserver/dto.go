package apiserver

import (
	"encoding/json"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
)

// NodeOption selects which projections of a node a caller wants realized
// in the response (spec.md §4.F).
type NodeOption struct {
	Name       bool `json:"name"`
	Path       bool `json:"path"`
	Attributes bool `json:"attributes"`
	Children   bool `json:"children"`
}

// NodeIdOption is the body of POST /api/node.
type NodeIdOption struct {
	NodeId tree.NodeId `json:"node_id"`
	Option NodeOption  `json:"option"`
}

// NodesIdOption is the body of POST /api/nodes.
type NodesIdOption struct {
	NodesId []tree.NodeId `json:"nodes_id"`
	Option  NodeOption    `json:"option"`
}

// PluginArgs is the body of POST /api/run and POST /api/schedule.
type PluginArgs struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Relaunch  bool   `json:"relaunch"`
}

// TasksParameters is the body of POST /api/tasks.
type TasksParameters struct {
	IDs []uint32 `json:"ids"`
}

// AttributeInfo is the body of POST /api/attribute.
type AttributeInfo struct {
	NodeId      tree.NodeId    `json:"node_id"`
	Name        string         `json:"name"`
	Value       tagvalue.Value `json:"value"`
	Description string         `json:"description,omitempty"`
}

// QueryInfo is the body of POST /api/query.
type QueryInfo struct {
	Query string `json:"query"`
	Root  string `json:"root"`
}

// ReadInfo is the body of POST /api/read.
type ReadInfo struct {
	NodeId tree.NodeId `json:"node_id"`
	Offset uint64      `json:"offset"`
	Size   uint64      `json:"size"`
}

// TimeRange is the body of POST /api/timeline.
type TimeRange struct {
	After  string      `json:"after"`
	Before string      `json:"before"`
	Option *NodeOption `json:"option,omitempty"`
}

// SaveFile is the body of POST /api/save and POST /api/load.
type SaveFile struct {
	FileName string `json:"file_name"`
}

// pluginInfo is the response element of GET /api/plugins and GET /api/plugin/<name>.
type pluginInfo struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
}

// nodeResponse is the node-state response shape (spec.md §6 "Node-state
// response shape"). Pointer fields are omitted unless the corresponding
// NodeOption flag was set.
type nodeResponse struct {
	ID          tree.NodeId  `json:"id"`
	Name        *string      `json:"name,omitempty"`
	Path        *string      `json:"path,omitempty"`
	Attributes  *[]attrDump  `json:"attributes,omitempty"`
	Children    *[][2]any    `json:"children,omitempty"`
	HasChildren bool         `json:"has_children"`
}

type attrDump struct {
	Name        string         `json:"name"`
	Value       tagvalue.Value `json:"value"`
	Description string         `json:"description,omitempty"`
}

// taskStateResponse is the task-state response shape (spec.md §6).
type taskStateResponse struct {
	State    string          `json:"state"`
	ID       uint32          `json:"id"`
	Plugin   string          `json:"plugin"`
	Argument json.RawMessage `json:"argument"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// timelineEntry is one element of the POST /api/timeline streamed array.
type timelineEntry struct {
	ID            tree.NodeId   `json:"id"`
	AttributeName string        `json:"attribute_name"`
	Time          string        `json:"time"`
	Node          *nodeResponse `json:"node,omitempty"`
}
