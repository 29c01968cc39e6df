// Package flags turns a source file path into the compiler flags a
// completion engine should use for it.
package flags

import (
	"context"
	"slices"

	"github.com/phuslu/log"

	"ycmflags/internal/compdb"
	"ycmflags/internal/config"
	"ycmflags/internal/driver"
	"ycmflags/internal/logging"
	"ycmflags/internal/model"
)

// Resolver produces flags for files. It is immutable after New and safe for
// concurrent use.
type Resolver struct {
	cfg         *config.Config
	db          compdb.Database
	static      []string
	systemFlags []string
	remove      map[string]bool
	logger      *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDatabase enables database mode.
func WithDatabase(db compdb.Database) Option {
	return func(r *Resolver) { r.db = db }
}

// WithSystemIncludes appends -isystem pairs for dirs to the static flags.
func WithSystemIncludes(dirs []string) Option {
	return func(r *Resolver) { r.systemFlags = driver.IncludeFlags(dirs) }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New builds a Resolver from cfg. The static flag list is computed once here.
func New(cfg *config.Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:    cfg,
		static: cfg.StaticFlags(),
		remove: make(map[string]bool, len(cfg.RemoveFlags)),
		logger: logging.Discard(),
	}
	for _, f := range cfg.RemoveFlags {
		r.remove[f] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open builds a Resolver, loading the compilation database and querying the
// compiler driver when cfg asks for them. A failed driver query is logged
// and skipped; a database that cannot be loaded is an error.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Resolver, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	opts := []Option{WithLogger(logger)}

	if cfg.HasDatabase() {
		db, err := compdb.Load(cfg.DatabaseDir)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", db.Path()).Int("entries", db.Len()).Msg("loaded compilation database")
		opts = append(opts, WithDatabase(db))
	}

	if cfg.QueryDriver != "" {
		dirs, err := driver.Query(ctx, cfg.QueryDriver, "c++")
		if err != nil {
			logger.Warn().Err(err).Str("driver", cfg.QueryDriver).Msg("system include discovery failed")
		} else {
			logger.Debug().Strs("dirs", dirs).Msg("discovered system include directories")
			opts = append(opts, WithSystemIncludes(dirs))
		}
	}
	return New(cfg, opts...), nil
}

// Config returns the configuration the resolver was built from.
func (r *Resolver) Config() *config.Config { return r.cfg }

// HasDatabase reports whether the resolver runs in database mode.
func (r *Resolver) HasDatabase() bool { return r.db != nil }

// ResolveFlags returns the host-contract result for file.
func (r *Resolver) ResolveFlags(file string) model.Result {
	return r.Resolve(file).Result
}

// Resolve returns the flags for file along with how they were produced.
// A file missing from the database falls back to the static flags.
func (r *Resolver) Resolve(file string) model.Resolution {
	res := model.Resolution{File: file}

	if r.db != nil {
		if info, ok := r.db.CompilationInfo(file); ok {
			res.Source = model.SourceDatabase
			res.Original = slices.Clone(info.Flags)
			res.WorkingDir = info.WorkingDir
		} else {
			r.logger.Debug().Str("file", file).Msg("no database entry, using static flags")
		}
	}
	if res.Source == "" {
		res.Source = model.SourceStatic
		res.Original = r.staticFor(file)
		res.WorkingDir = r.cfg.Dir
	}

	rewritten := RewriteRelativePaths(res.Original, res.WorkingDir)
	final := make([]string, 0, len(rewritten))
	for _, f := range rewritten {
		if r.remove[f] {
			res.Removed = append(res.Removed, f)
			continue
		}
		final = append(final, f)
	}
	res.Flags = final
	res.DoCache = true
	return res
}

func (r *Resolver) staticFor(file string) []string {
	out := slices.Clone(r.static)
	out = append(out, r.cfg.RuleFlags(file)...)
	return append(out, r.systemFlags...)
}
