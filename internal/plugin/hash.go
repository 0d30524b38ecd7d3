package plugin

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// Hash computes digest attributes for a node's "data" attribute. Modeled
// on the sha1.New() digest computation pkg/blobserver/handlers/upload.go
// runs over an uploaded blob in perkeep.
type Hash struct{}

func NewHash() *Hash { return &Hash{} }

func (Hash) Name() string        { return "hash" }
func (Hash) Category() string    { return "analysis" }
func (Hash) Description() string { return "compute md5/sha1/sha256 digests of a node's data" }

func (Hash) ConfigSchema() (json.RawMessage, error) {
	return schema(map[string]string{"node_id": "object"}), nil
}

type hashArgs struct {
	NodeId tree.NodeId `json:"node_id"`
}

func (Hash) Run(ctx context.Context, t *tree.Tree, vfiles *vfile.Registry, root tree.NodeId, argument Argument) (any, error) {
	var args hashArgs
	if err := json.Unmarshal(argument, &args); err != nil {
		return nil, fmt.Errorf("hash: invalid argument: %w", err)
	}

	node := t.GetNodeFromId(args.NodeId)
	if node == nil {
		return nil, fmt.Errorf("hash: unknown node %v", args.NodeId)
	}
	val, ok := node.GetValue("data")
	if !ok || val.Kind != tagvalue.KindVFile {
		return nil, fmt.Errorf("hash: node %v has no data attribute", args.NodeId)
	}
	builder, ok := vfiles.Get(val.VFileKey)
	if !ok {
		return nil, fmt.Errorf("hash: no vfile registered for %v", args.NodeId)
	}

	r, err := builder.Open()
	if err != nil {
		return nil, fmt.Errorf("hash: open: %w", err)
	}
	defer r.Close()

	md5h, sha1h, sha256h := md5.New(), sha1.New(), sha256.New()
	if _, err := io.Copy(io.MultiWriter(md5h, sha1h, sha256h), r); err != nil {
		return nil, fmt.Errorf("hash: read: %w", err)
	}

	digests := map[string]string{
		"md5":    hex.EncodeToString(md5h.Sum(nil)),
		"sha1":   hex.EncodeToString(sha1h.Sum(nil)),
		"sha256": hex.EncodeToString(sha256h.Sum(nil)),
	}
	for name, digest := range digests {
		node.AddAttribute(name, tagvalue.String(digest), "", false)
	}

	return digests, nil
}
