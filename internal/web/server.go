package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"ycmflags/internal/compdb"
	"ycmflags/internal/config"
	"ycmflags/internal/flags"
	"ycmflags/internal/model"
)

//go:embed static/*
var staticFS embed.FS

//go:embed help.md
var helpMD string

// Server answers flag requests over HTTP.
type Server struct {
	resolver *flags.CachingResolver
	logger   *log.Logger
}

func NewServer(resolver *flags.CachingResolver, logger *log.Logger) *Server {
	return &Server{resolver: resolver, logger: logger}
}

// Handler returns the routed handler wrapped in recovery and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	subFS, _ := fs.Sub(staticFS, "static")
	mux.Handle("/", http.FileServer(http.FS(subFS)))

	// API Endpoints
	mux.HandleFunc("GET /api/flags", s.handleFlags)
	mux.HandleFunc("GET /api/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/ls", s.handleLs)
	mux.HandleFunc("GET /api/help", handleHelp)

	h := handlers.CustomLoggingHandler(io.Discard, mux, s.logRequest)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)(h)
}

// StartServer serves on cfg.Server.Port until ctx is cancelled. In database
// mode it also watches compile_commands.json and reloads it on change.
func StartServer(ctx context.Context, cfg *config.Config, resolver *flags.CachingResolver, logger *log.Logger) error {
	s := NewServer(resolver, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("Starting ycmflags web server at http://localhost:%d\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.HasDatabase() {
		g.Go(func() error {
			return compdb.Watch(ctx, cfg.DatabaseDir, logger, func() {
				s.reload(ctx, cfg)
			})
		})
	}
	return g.Wait()
}

// reload rebuilds the resolver from cfg and swaps it in. On failure the
// previous resolver stays in place.
func (s *Server) reload(ctx context.Context, cfg *config.Config) {
	r, err := flags.Open(ctx, cfg, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reload compilation database, keeping previous")
		return
	}
	s.resolver.Swap(r)
	s.logger.Info().Msg("compilation database reloaded")
}

func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.resolver.ResolveFlags(file))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}

	analysis := flags.Analyze(s.resolver.Resolve(file))
	response := struct {
		model.Analysis
		Report        string `json:"Report"`
		VerboseReport string `json:"VerboseReport"`
		Version       string `json:"Version"`
	}{
		Analysis:      analysis,
		Report:        flags.GenerateReport(analysis, false),
		VerboseReport: flags.GenerateReport(analysis, true),
		Version:       model.Version,
	}
	writeJSON(w, response)
}

type configResponse struct {
	Path        string              `json:"path"`
	Dir         string              `json:"dir"`
	Mode        model.Source        `json:"mode"`
	DatabaseDir string              `json:"database_dir,omitempty"`
	Flags       []string            `json:"flags"`
	UseSets     []string            `json:"use_sets"`
	Sets        map[string][]string `json:"sets"`
	RemoveFlags []string            `json:"remove_flags"`
	CachedFiles int                 `json:"cached_files"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	res := s.resolver.Resolver()
	cfg := res.Config()

	mode := model.SourceStatic
	if res.HasDatabase() {
		mode = model.SourceDatabase
	}
	sets := make(map[string][]string, len(cfg.Sets))
	for _, name := range cfg.SetNames() {
		sets[name] = cfg.Sets[name].Flags
	}
	writeJSON(w, configResponse{
		Path:        cfg.Path,
		Dir:         cfg.Dir,
		Mode:        mode,
		DatabaseDir: cfg.DatabaseDir,
		Flags:       cfg.Flags,
		UseSets:     cfg.UseSets,
		Sets:        sets,
		RemoveFlags: cfg.RemoveFlags,
		CachedFiles: s.resolver.Len(),
	})
}

type LsEntry struct {
	Name    string `json:"Name"`
	IsDir   bool   `json:"IsDir"`
	Size    int64  `json:"Size"`
	Mode    string `json:"Mode"`
	ModTime string `json:"ModTime"`
}

// handleLs lists an include directory so the page can show what it offers.
func (s *Server) handleLs(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	path = model.ExpandTilde(path)

	files, err := os.ReadDir(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	entries := []LsEntry{}
	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, LsEntry{
			Name:    f.Name(),
			IsDir:   f.IsDir(),
			Size:    info.Size(),
			Mode:    info.Mode().String(),
			ModTime: info.ModTime().Format("Jan 02 15:04"),
		})
	}
	writeJSON(w, entries)
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)

	w.Header().Set("Content-Type", "text/markdown")
	w.Write([]byte(text))
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info().
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Dur("elapsed", time.Since(p.TimeStamp)).
		Msg("request")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type recoveryLogger struct{ logger *log.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprint(v...))
}
