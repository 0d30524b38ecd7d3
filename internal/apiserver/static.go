package apiserver

import "net/http"

// staticResponder serves an embedded front-end asset tree with index
// fallback (spec.md §4.B). Empty path resolves to index.html; a miss falls
// through to the transport's default 404 rather than forwarding to another
// route, since this is always mounted last.
func staticResponder(fs http.FileSystem) http.Handler {
	return http.FileServer(fs)
}
