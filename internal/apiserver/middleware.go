package apiserver

import (
	"net/http"
)

// corsMiddleware attaches the uniform cross-origin headers to every
// response and short-circuits unmatched OPTIONS preflights with a bare 204
// (spec.md §4.D).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, PATCH, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// securityHeaders attaches the baseline headers the original server's
// Shield fairing adds alongside its custom CORS fairing.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		next.ServeHTTP(w, r)
	})
}

// requireAPIKey is the primary auth gate: header x-api-key must equal key
// (spec.md §4.C "Header mode").
func requireAPIKey(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("x-api-key")
		if got == "" {
			http.Error(w, "missing x-api-key", http.StatusUnauthorized)
			return
		}
		if got != key {
			http.Error(w, "invalid x-api-key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAPIKeyQuery is the secondary auth gate used only by GET
// /download_id, which authenticates via an "apikey" query parameter so it
// can be used as a plain hyperlink (spec.md §4.C "Query-parameter mode").
func requireAPIKeyQuery(key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != key {
			http.Error(w, "invalid apikey", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
