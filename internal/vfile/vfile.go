// Package vfile provides the virtual-file builder abstraction: an opener
// for a node's "data" attribute that yields a seekable blocking reader and
// the stream's total size, without reading the bytes until Open is called.
//
// Modeled on perkeep's pkg/schema.FileReader: lazily opened, seekable, and
// sized up front from metadata rather than by reading the whole stream.
package vfile

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ReadSeekCloser is the reader handed back by a Builder: blocking,
// seekable, and closeable. The HTTP layer never seeks it directly except
// to satisfy a ranged /read request; see internal/apiserver.
type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Builder opens a node's underlying byte stream on demand.
type Builder interface {
	Open() (ReadSeekCloser, error)
	Size() (int64, error)
}

// DiskBuilder opens a file already materialized on disk (an uploaded
// artifact, or a plugin's extracted output).
type DiskBuilder struct {
	Path string
}

func Disk(path string) *DiskBuilder { return &DiskBuilder{Path: path} }

func (d *DiskBuilder) Open() (ReadSeekCloser, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("vfile: open %s: %w", d.Path, err)
	}
	return f, nil
}

func (d *DiskBuilder) Size() (int64, error) {
	fi, err := os.Stat(d.Path)
	if err != nil {
		return 0, fmt.Errorf("vfile: stat %s: %w", d.Path, err)
	}
	return fi.Size(), nil
}

// MemBuilder serves synthetic or plugin-derived bytes that never touched
// disk (e.g. a decoded sub-stream a parser computed in memory).
type MemBuilder struct {
	Bytes []byte
}

func Mem(b []byte) *MemBuilder { return &MemBuilder{Bytes: b} }

func (m *MemBuilder) Open() (ReadSeekCloser, error) {
	return &memReader{data: m.Bytes}, nil
}

func (m *MemBuilder) Size() (int64, error) {
	return int64(len(m.Bytes)), nil
}

type memReader struct {
	data []byte
	pos  int64
}

func (m *memReader) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memReader) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.data))
	default:
		return 0, fmt.Errorf("vfile: invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, fmt.Errorf("vfile: negative seek position")
	}
	m.pos = next
	return m.pos, nil
}

func (m *memReader) Close() error { return nil }

// Registry maps an opaque key (stored in a tagvalue.Value of kind VFile) to
// the Builder that can open it. A node's "data" attribute only carries the
// key; the registry is consulted at download/read time.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Put registers b under key, replacing any builder already stored there.
func (r *Registry) Put(key string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[key] = b
}

func (r *Registry) Get(key string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[key]
	return b, ok
}
