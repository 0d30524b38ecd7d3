package apiserver

import (
	"fmt"
	"io"
	"net/http"

	"github.com/tap-ir/tapir/internal/vfile"
)

// streamFile writes r as the entire response body. When name and size are
// both known, it sets Content-Type/Content-Disposition/Content-Length;
// otherwise it streams chunked with only Content-Type set (spec.md §4.A
// "Responder contract"). Seeking, if needed, is the caller's job before
// calling streamFile — the adapter itself never seeks.
func streamFile(w http.ResponseWriter, r io.Reader, name string, size int64, known bool) error {
	w.Header().Set("Content-Type", "application/octet-stream")
	if known {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}
	w.WriteHeader(http.StatusOK)
	_, err := io.Copy(w, r)
	return err
}

// limitedReadSeekCloser caps Read at n remaining bytes, for the bounded
// /api/read endpoint (spec.md §4.G "Byte I/O").
type limitedReadSeekCloser struct {
	vfile.ReadSeekCloser
	remaining int64
}

func (l *limitedReadSeekCloser) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.ReadSeekCloser.Read(p)
	l.remaining -= int64(n)
	return n, err
}
