// Package apiserver is the server core (spec.md §2): the concurrent
// dispatch layer binding the shared session to its REST surface, streaming
// node byte ranges, and bridging session work onto a blocking worker pool.
// Grounded on perkeep's pkg/webserver.Server (config + verbose request
// logging + optional TLS + graceful listener), generalized from a bare
// http.ServeMux to gorilla/mux so /root/<path..> and /download_id can carry
// path/query parameters cleanly.
package apiserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/tap-ir/tapir/internal/session"
)

// Config is the bootstrap configuration for a Server (spec.md §4.H).
type Config struct {
	Address     string // bind host:port
	APIKey      string
	UploadDir   string
	TLSCertFile string // empty disables TLS
	TLSKeyFile  string
	OpenBrowser bool
	StaticFS    http.FileSystem // embedded front-end assets; nil disables the static responder
}

// Server wires the session to the HTTP surface. It is safe to call
// ServeHTTP concurrently; all session mutation happens inside handlers that
// dispatch through the session's own synchronization.
type Server struct {
	cfg     Config
	session *session.Session
	log     *slog.Logger
	router  *mux.Router
}

// New builds a Server and mounts every route (spec.md §4.G, §4.H).
func New(cfg Config, sess *session.Session, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{cfg: cfg, session: sess, log: log, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	// download_id must authenticate via its own query-key check only (spec.md
	// §4.C, §4.G "require the auth gate except download_id"), so it is
	// registered on a separate, unwrapped subrouter sharing the "/api"
	// prefix rather than under the header-auth subrouter's blanket Use().
	public := s.router.PathPrefix("/api").Subrouter()
	public.Handle("/download_id", requireAPIKeyQuery(s.cfg.APIKey, http.HandlerFunc(s.handleDownloadID))).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler { return requireAPIKey(s.cfg.APIKey, next) })

	api.HandleFunc("/plugins", s.handlePlugins).Methods(http.MethodGet)
	api.HandleFunc("/plugin/{name}", s.handlePlugin).Methods(http.MethodGet)

	api.HandleFunc("/root", s.handleRoot).Methods(http.MethodGet)
	api.HandleFunc("/root/{path:.*}", s.handleRootPath).Methods(http.MethodGet)
	api.HandleFunc("/node", s.handleNode).Methods(http.MethodPost)
	api.HandleFunc("/nodes", s.handleNodes).Methods(http.MethodPost)
	api.HandleFunc("/path", s.handlePath).Methods(http.MethodPost)
	api.HandleFunc("/parent_id", s.handleParentID).Methods(http.MethodPost)
	api.HandleFunc("/node_count", s.handleNodeCount).Methods(http.MethodGet)
	api.HandleFunc("/attribute_count", s.handleAttributeCount).Methods(http.MethodGet)

	api.HandleFunc("/delete", s.handleDelete).Methods(http.MethodPost)
	api.HandleFunc("/attribute", s.handleSetAttribute).Methods(http.MethodPost)

	api.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
	api.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodPost)
	api.HandleFunc("/join", s.handleJoin).Methods(http.MethodPost)
	api.HandleFunc("/task_count", s.handleTaskCount).Methods(http.MethodPost)
	api.HandleFunc("/task", s.handleTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.handleTasks).Methods(http.MethodPost)

	api.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/download", s.handleDownload).Methods(http.MethodPost)
	api.HandleFunc("/read", s.handleRead).Methods(http.MethodPost)

	api.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/timeline", s.handleTimeline).Methods(http.MethodPost)

	api.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/load", s.handleLoad).Methods(http.MethodPost)

	api.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)

	if s.cfg.StaticFS != nil {
		s.router.PathPrefix("/").Handler(staticResponder(s.cfg.StaticFS))
	}
}

// Handler returns the fully-wired http.Handler, with CORS and baseline
// security headers attached to every response (spec.md §4.D, §4.H).
func (s *Server) Handler() http.Handler {
	return securityHeaders(corsMiddleware(s.router))
}

// ListenAndServe binds cfg.Address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.Handler(),
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("apiserver: listen on %s: %w", s.cfg.Address, err)
	}

	useTLS := s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != ""
	if useTLS {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("apiserver: load TLS keypair: %w", err)
		}
		ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}})
	}

	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	s.log.Info("server.listening", "address", ln.Addr().String(), "scheme", scheme)

	if s.cfg.OpenBrowser {
		go openBrowser(fmt.Sprintf("%s://%s", scheme, ln.Addr().String()))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// openBrowser launches the platform's default opener, best effort. Ported
// from the original's webbrowser.open() call in serve() (spec.md
// "SUPPLEMENTED FEATURES"); no ecosystem browser-launcher package appears
// anywhere in the retrieval pack, so this uses os/exec directly.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
