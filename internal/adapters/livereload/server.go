package livereload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/core/ports"
	"go.trai.ch/zerr"
)

const shutdownTimeout = 2 * time.Second

// Server serves the build root and the live-reload sideband.
type Server struct {
	root   string
	addr   string
	hub    *Hub
	logger ports.Logger
}

// NewServer creates a server for the files below root.
func NewServer(cfg domain.ServerConfig, root string, hub *Hub, logger ports.Logger) *Server {
	return &Server{
		root:   root,
		addr:   cfg.Addr(),
		hub:    hub,
		logger: logger,
	}
}

// Run listens and serves until ctx is cancelled. ready, when non-nil, receives
// the bound address once the listener is open.
func (s *Server) Run(ctx context.Context, ready func(addr string)) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", s.addr)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	bound := ln.Addr().String()
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("serving %s at http://%s", s.root, bound))
	}
	if ready != nil {
		ready(bound)
	}

	select {
	case err := <-errCh:
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	return nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+domain.EventsPath, s.serveEvents)
	mux.HandleFunc("GET "+ClientPath, serveClient)
	mux.Handle("/", s.serveFiles())
	return mux
}

func serveClient(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(clientScript))
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, events, cancel := s.hub.Subscribe()
	defer cancel()
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("browser connected (%d client(s))", s.hub.Clients()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	_, _ = fmt.Fprintf(w, "retry: 1000\nevent: hello\ndata: %q\n\n", id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// serveFiles serves the build root. HTML documents get the client script.
func (s *Server) serveFiles() http.Handler {
	files := http.FileServer(http.Dir(s.root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")

		name, ok := s.htmlDocument(r.URL.Path)
		if !ok {
			files.ServeHTTP(w, r)
			return
		}

		data, err := os.ReadFile(name) //nolint:gosec // path is cleaned and rooted
		if err != nil {
			files.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(InjectScript(data))
	})
}

// htmlDocument maps a request path onto an HTML file below the root.
func (s *Server) htmlDocument(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	name := filepath.Join(s.root, filepath.FromSlash(clean))

	if strings.HasSuffix(urlPath, "/") {
		name = filepath.Join(name, "index.html")
	} else if info, err := os.Stat(name); err == nil && info.IsDir() {
		return "", false
	}

	ext := strings.ToLower(filepath.Ext(name))
	return name, ext == ".html" || ext == ".htm"
}
