package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// Local ingests files already present on disk into the tree. Ported from
// the original's tap_plugin_local, whose doc comment in src/bin/tapir.rs
// warns it is "dangerous if not sandboxed" since it lets a client read any
// path the server process can see; that warning is preserved here.
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (Local) Name() string        { return "local" }
func (Local) Category() string    { return "ingest" }
func (Local) Description() string { return "ingest files already present on the local filesystem" }

func (Local) ConfigSchema() (json.RawMessage, error) {
	return schema(map[string]string{"files": "array"}), nil
}

type localArgs struct {
	Files  []string      `json:"files"`
	Parent *tree.NodeId  `json:"parent,omitempty"`
}

// Run adds one child node per requested file under argument.Parent (or
// root if unset), each carrying a "data" attribute resolving to the file's
// bytes and a "size" attribute.
func (l Local) Run(ctx context.Context, t *tree.Tree, vfiles *vfile.Registry, root tree.NodeId, argument Argument) (any, error) {
	var args localArgs
	if err := json.Unmarshal(argument, &args); err != nil {
		return nil, fmt.Errorf("local: invalid argument: %w", err)
	}
	if len(args.Files) == 0 {
		return nil, fmt.Errorf("local: no files given")
	}

	parent := root
	if args.Parent != nil {
		parent = *args.Parent
	}

	created := make([]tree.NodeId, 0, len(args.Files))
	for _, path := range args.Files {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("local: stat %s: %w", path, err)
		}

		childID, ok := t.AddChild(parent, filepath.Base(path))
		if !ok {
			return nil, fmt.Errorf("local: unknown parent node %v", parent)
		}
		node := t.GetNodeFromId(childID)

		key := uuid.NewString()
		vfiles.Put(key, vfile.Disk(path))
		node.AddAttribute("data", tagvalue.VFile(key), "", false)
		node.AddAttribute("size", tagvalue.Uint(uint64(info.Size())), "", false)
		node.AddAttribute("source_path", tagvalue.String(path), "", false)

		created = append(created, childID)
	}

	return map[string]any{"created": created}, nil
}
