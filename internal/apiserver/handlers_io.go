package apiserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tap-ir/tapir/internal/apierror"
	"github.com/tap-ir/tapir/internal/tagvalue"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// POST /api/upload?name=<string>. Streams the raw body to
// <upload_dir>/<name> via a uuid-named staging file, renamed into place on
// success so a failed upload never leaves a partial file under its final
// name (spec.md §4.G "Byte I/O", §9 "reject name traversal").
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		writeError(w, apierror.BadInputf("invalid upload name %q", name))
		return
	}

	staging := filepath.Join(s.cfg.UploadDir, "."+uuid.NewString())
	f, err := os.Create(staging)
	if err != nil {
		writeError(w, err)
		return
	}

	written, copyErr := io.Copy(f, r.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(staging)
		writeError(w, apierror.BadInputf("incomplete upload: %v", firstNonNil(copyErr, closeErr)))
		return
	}

	dest := filepath.Join(s.cfg.UploadDir, name)
	if err := os.Rename(staging, dest); err != nil {
		os.Remove(staging)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]uint64{"written": uint64(written)})
}

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// dataReader resolves a node's "data" attribute to an opened vfile reader
// plus its size. Returns apierror.BadInput if the node or its data
// attribute is missing (spec.md §4.G "400 if node or data attribute is
// absent").
func (s *Server) dataReader(id tree.NodeId) (vfile.ReadSeekCloser, string, int64, error) {
	node := s.session.Tree.GetNodeFromId(id)
	if node == nil {
		return nil, "", 0, apierror.BadInputf("unknown node %v", id)
	}
	val, ok := node.GetValue("data")
	if !ok || val.Kind != tagvalue.KindVFile {
		return nil, "", 0, apierror.BadInputf("node %v has no data attribute", id)
	}
	builder, ok := s.session.VFiles.Get(val.VFileKey)
	if !ok {
		return nil, "", 0, apierror.BadInputf("no vfile registered for node %v", id)
	}
	size, err := builder.Size()
	if err != nil {
		return nil, "", 0, err
	}
	r, err := builder.Open()
	if err != nil {
		return nil, "", 0, err
	}
	return r, node.Name(), size, nil
}

func (s *Server) serveDownload(w http.ResponseWriter, id tree.NodeId) {
	r, name, size, err := s.dataReader(id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer r.Close()
	if err := streamFile(w, r, name, size, true); err != nil {
		s.log.Info("download.stream_error", "node", id, "error", err)
	}
}

// POST /api/download
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var id tree.NodeId
	if err := decodeJSON(r, &id); err != nil {
		writeError(w, err)
		return
	}
	s.serveDownload(w, id)
}

// GET /api/download_id?apikey=...&index1=...&stamp=...
func (s *Server) handleDownloadID(w http.ResponseWriter, r *http.Request) {
	id, err := tree.NodeIdFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, apierror.Wrap(apierror.BadInput, err))
		return
	}
	s.serveDownload(w, id)
}

// POST /api/read. Streams at most size bytes starting at offset; no
// filename/length headers since the body length is bounded only by size
// (spec.md §4.G "Byte I/O").
func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	var req ReadInfo
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	reader, _, size, err := s.dataReader(req.NodeId)
	if err != nil {
		writeError(w, err)
		return
	}
	defer reader.Close()

	if req.Offset > uint64(size) {
		writeError(w, apierror.BadInputf("offset %d beyond size %d", req.Offset, size))
		return
	}
	if req.Offset != 0 {
		if _, err := reader.Seek(int64(req.Offset), io.SeekStart); err != nil {
			writeError(w, err)
			return
		}
	}

	limited := &limitedReadSeekCloser{ReadSeekCloser: reader, remaining: int64(req.Size)}
	if err := streamFile(w, limited, "", 0, false); err != nil {
		s.log.Info("read.stream_error", "node", req.NodeId, "error", err)
	}
}
