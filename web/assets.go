// Package web embeds the static front-end bundle served under "/" by the
// static asset responder (spec.md §4.B, §4.H "static asset responder ...
// depending on build-time selection").
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var embedded embed.FS

// FS returns the embedded static assets rooted at "static", ready to back
// an http.FileServer.
func FS() http.FileSystem {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic("web: static assets missing from build: " + err.Error())
	}
	return http.FS(sub)
}
