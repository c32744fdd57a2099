// Package server exposes script execution over HTTP and WebSocket.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"declang/pkg/config"
	"declang/pkg/notify"
)

//go:embed static
var assets embed.FS

type Server struct {
	cfg      *config.Config
	notifier notify.Notifier
	logger   *log.Logger
	mux      *http.ServeMux
	routes   []string
}

func New(cfg *config.Config, notifier notify.Notifier, logger *log.Logger) *Server {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
	s.routes = append(s.routes, pattern)
}

func (s *Server) registerRoutes() {
	s.handle("/api/run", onlyMethod(http.MethodPost, s.requireAuth(http.HandlerFunc(s.handleRun))))
	s.handle("/api/ws", onlyMethod(http.MethodGet, s.requireAuth(http.HandlerFunc(s.handleWebSocket))))
	if s.cfg.AuthEnabled() {
		s.handle("/api/token", onlyMethod(http.MethodPost, http.HandlerFunc(s.handleToken)))
	}
	s.handle("/", onlyMethod(http.MethodGet, s.staticHandler()))
}

func onlyMethod(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) staticHandler() http.Handler {
	if s.cfg.StaticDir != "" {
		return http.FileServer(http.Dir(s.cfg.StaticDir))
	}
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// the embedded tree is fixed at build time
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Handler returns the request-logging root handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Printf("Server listening on %s", s.cfg.Addr)
	s.logger.Printf("Routes registered:")
	for _, r := range s.routes {
		s.logger.Printf("  %s", r)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func remoteAddr(r *http.Request) string {
	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return ip
}

// report hands a failed run to the notifier without blocking the request.
func (s *Server) report(r *http.Request, source string, err error, kind string) {
	rep := notify.Report{
		Source: source,
		Error:  err.Error(),
		Kind:   kind,
		Remote: remoteAddr(r),
		Time:   time.Now(),
	}
	go func() {
		if err := s.notifier.Notify(rep); err != nil {
			s.logger.Printf("report failed: %v", err)
		}
	}()
}
