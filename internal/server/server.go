// Package server exposes the file viewer over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/browse"
	"github.com/Cyclone1070/fileview/internal/config"
	"github.com/Cyclone1070/fileview/internal/fileop"
	"github.com/Cyclone1070/fileview/internal/fsutil"
	"github.com/Cyclone1070/fileview/internal/imageinfo"
	"github.com/Cyclone1070/fileview/internal/render"
)

const shutdownGrace = 10 * time.Second

// settings is the reloadable part of the server state. The configuration and
// the policy built from it are published together.
type settings struct {
	cfg     *config.Config
	policy  *access.Policy
	ignores *browse.IgnoreCache
}

// livePolicy serves the policy of the settings snapshot in force.
type livePolicy struct {
	state *atomic.Pointer[settings]
}

func (l livePolicy) Current() *access.Policy {
	return l.state.Load().policy
}

// Server serves the viewer API. Configuration and the access policy can be
// swapped at runtime with Reload; in-flight requests keep the snapshot they
// started with.
type Server struct {
	state     atomic.Pointer[settings]
	validator *access.Validator
	fs        *fsutil.OSFileSystem
	renderer  *render.Renderer
	images    *imageinfo.Reader
	checksums *fsutil.ChecksumCache
	logger    *slog.Logger
}

// New creates a server for cfg and the policy built from it.
func New(cfg *config.Config, policy *access.Policy, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	fs := fsutil.NewOSFileSystem()
	s := &Server{
		fs:        fs,
		renderer:  render.NewRenderer(render.DefaultStyle),
		images:    imageinfo.NewReader(fs),
		checksums: fsutil.NewChecksumCache(),
		logger:    logger,
	}
	s.validator = access.NewValidator(livePolicy{state: &s.state}, fs)
	s.state.Store(s.settingsFor(cfg, policy))
	return s
}

func (s *Server) settingsFor(cfg *config.Config, policy *access.Policy) *settings {
	return &settings{cfg: cfg, policy: policy, ignores: browse.NewIgnoreCache(s.fs, cfg.IgnoreFile)}
}

// Reload publishes a new configuration and policy snapshot in one store.
func (s *Server) Reload(cfg *config.Config, policy *access.Policy) {
	s.state.Store(s.settingsFor(cfg, policy))
	s.checksums.Clear()
	s.logger.Info("configuration reloaded", "allowed_paths", policy.Roots(), "file_operations", policy.MutationsEnabled())
}

func (s *Server) config() *config.Config {
	return s.state.Load().cfg
}

func (s *Server) policy() *access.Policy {
	return s.state.Load().policy
}

func (s *Server) lister() *browse.Lister {
	st := s.state.Load()
	opts := browse.Options{
		DefaultLimit: st.cfg.Limits.DefaultBrowseLimit,
		MaxLimit:     st.cfg.Limits.MaxBrowseLimit,
	}
	return browse.NewLister(s.fs, s.validator, st.ignores, opts, s.logger)
}

func (s *Server) executor() *fileop.Executor {
	cfg := s.config()
	limits := fileop.Limits{
		MaxCopyBytes:   cfg.Limits.MaxCopyBytes,
		MaxCopyEntries: cfg.Limits.MaxCopyEntries,
	}
	return fileop.NewExecutor(s.fs, s.validator, limits, s.logger)
}

// Router returns the API routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "No such endpoint", "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	api.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/raw", s.handleRaw).Methods(http.MethodGet)
	api.HandleFunc("/browse", s.handleBrowse).Methods(http.MethodGet)
	api.HandleFunc("/check-path", s.handleCheckPath).Methods(http.MethodGet)
	api.HandleFunc("/image", s.handleImage).Methods(http.MethodGet)
	api.HandleFunc("/image/info", s.handleImageInfo).Methods(http.MethodGet)
	api.HandleFunc("/highlight.css", s.handleHighlightCSS).Methods(http.MethodGet)

	files := api.PathPrefix("/files").Subrouter()
	files.Use(s.requireMutations)
	files.HandleFunc("/copy", s.handleTransfer(access.OpCopy)).Methods(http.MethodPost)
	files.HandleFunc("/move", s.handleTransfer(access.OpMove)).Methods(http.MethodPost)
	files.HandleFunc("/rename", s.handleRename).Methods(http.MethodPost)
	files.HandleFunc("/delete", s.handleDelete).Methods(http.MethodDelete)
	files.HandleFunc("/new-file", s.handleCreate(access.OpCreate)).Methods(http.MethodPost)
	files.HandleFunc("/new-folder", s.handleCreate(access.OpMkdir)).Methods(http.MethodPost)
	return r
}

// Handler returns the full HTTP handler: routes wrapped with CORS, panic
// recovery and request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = cors(s.config().CORSOrigins)(h)
	h = recovery(s.logger)(h)
	h = requestLogger(s.logger)(h)
	return h
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config().Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr, "allowed_paths", s.policy().Roots())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
