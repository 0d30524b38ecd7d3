package tree

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// NodeId identifies a node by a dense slot index plus a generational stamp.
// Deleting a node increments its slot's stamp, so a NodeId captured before
// the delete no longer resolves. Freed slots are not reused: every new node
// gets a fresh index.
type NodeId struct {
	Index uint64
	Stamp uint64
}

// wireNodeId is the {"index1":...,"stamp":...} JSON shape used both in
// request/response bodies and the query-string form for GET /download_id.
type wireNodeId struct {
	Index1 uint64 `json:"index1"`
	Stamp  uint64 `json:"stamp"`
}

func (id NodeId) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNodeId{Index1: id.Index, Stamp: id.Stamp})
}

func (id *NodeId) UnmarshalJSON(data []byte) error {
	var w wireNodeId
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("tree: invalid node id: %w", err)
	}
	id.Index = w.Index1
	id.Stamp = w.Stamp
	return nil
}

func (id NodeId) String() string {
	return fmt.Sprintf("{index1:%d,stamp:%d}", id.Index, id.Stamp)
}

// NodeIdFromQuery decodes a NodeId from the "index1"/"stamp" query
// parameters used by GET /api/download_id (a hyperlink-friendly variant of
// the JSON-body decoding above).
func NodeIdFromQuery(q url.Values) (NodeId, error) {
	idx, err := strconv.ParseUint(q.Get("index1"), 10, 64)
	if err != nil {
		return NodeId{}, fmt.Errorf("tree: invalid index1: %w", err)
	}
	stamp, err := strconv.ParseUint(q.Get("stamp"), 10, 64)
	if err != nil {
		return NodeId{}, fmt.Errorf("tree: invalid stamp: %w", err)
	}
	return NodeId{Index: idx, Stamp: stamp}, nil
}
