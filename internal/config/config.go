package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"ycmflags/internal/model"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "ycmflags.toml"

//go:embed default.toml
var defaultTOML []byte

// Config is the resolver configuration. It is built once by Load and never
// modified afterwards; accessors return copies.
type Config struct {
	Path string `toml:"-"` // File the config was read from, empty for the embedded default
	Dir  string `toml:"-"` // Directory relative paths in static flags resolve against

	DatabaseDir string             `toml:"compilation_database_folder"`
	Flags       []string           `toml:"flags"`
	UseSets     []string           `toml:"use_sets"`
	RemoveFlags []string           `toml:"remove_flags"`
	QueryDriver string             `toml:"query_driver"`
	Sets        map[string]FlagSet `toml:"sets"`
	Rules       []Rule             `toml:"rules"`
	Server      ServerConfig       `toml:"server"`
	Logging     LoggingConfig      `toml:"logging"`
}

// FlagSet is a named list of flags for one library or toolchain.
type FlagSet struct {
	Flags []string `toml:"flags"`
}

// Rule adds sets to files whose path, relative to Config.Dir, matches Pattern.
type Rule struct {
	Pattern string   `toml:"pattern"`
	Sets    []string `toml:"sets"`
}

type ServerConfig struct {
	Port      int `toml:"port"`
	CacheSize int `toml:"cache_size"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Overrides are command-line settings. Non-empty fields win over the file and
// the environment.
type Overrides struct {
	DatabaseDir string // relative to the process working directory
	LogLevel    string
}

// Load reads the configuration. path wins over $YCMFLAGS_CONFIG, which wins
// over ycmflags.toml in the working directory. With none of them present the
// embedded default is used and Dir is the working directory. ov is applied
// after the environment and before validation.
func Load(path string, ov Overrides) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("YCMFLAGS_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}

	var cfg *Config
	var err error
	if path == "" {
		cwd, werr := os.Getwd()
		if werr != nil {
			return nil, fmt.Errorf("get working directory: %w", werr)
		}
		cfg, err = Parse(defaultTOML, cwd)
	} else {
		cfg, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if ov.DatabaseDir != "" {
		cfg.DatabaseDir = model.AbsPath(ov.DatabaseDir)
	}
	if ov.LogLevel != "" {
		cfg.Logging.Level = ov.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses a config file without consulting the environment.
func LoadFile(path string) (*Config, error) {
	path = model.AbsPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML data into a Config rooted at dir. Sets missing from
// data are taken from the embedded default.
func Parse(data []byte, dir string) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir

	var builtin Config
	if err := toml.Unmarshal(defaultTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parse embedded config: %w", err)
	}
	if cfg.Sets == nil {
		cfg.Sets = make(map[string]FlagSet)
	}
	for name, set := range builtin.Sets {
		if _, ok := cfg.Sets[name]; !ok {
			cfg.Sets[name] = set
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CacheSize == 0 {
		cfg.Server.CacheSize = 1024
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.DatabaseDir = cfg.resolveDir(cfg.DatabaseDir)
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("YCMFLAGS_DATABASE_DIR")); v != "" {
		c.DatabaseDir = c.resolveDir(v)
	}
	if v := strings.TrimSpace(os.Getenv("YCMFLAGS_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("YCMFLAGS_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("YCMFLAGS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) resolveDir(dir string) string {
	if dir == "" {
		return ""
	}
	dir = model.ExpandTilde(dir)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Dir, dir)
	}
	return filepath.Clean(dir)
}

// Validate checks set references, glob patterns and server settings.
func (c *Config) Validate() error {
	var errs []error
	for _, name := range c.UseSets {
		if _, ok := c.Sets[name]; !ok {
			errs = append(errs, fmt.Errorf("use_sets: unknown set %q", name))
		}
	}
	for i, r := range c.Rules {
		if r.Pattern == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: empty pattern", i))
		} else if _, err := doublestar.Match(r.Pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("rules[%d]: pattern %q: %w", i, r.Pattern, err))
		}
		for _, name := range r.Sets {
			if _, ok := c.Sets[name]; !ok {
				errs = append(errs, fmt.Errorf("rules[%d]: unknown set %q", i, name))
			}
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Server.CacheSize < 0 {
		errs = append(errs, errors.New("server.cache_size: must not be negative"))
	}
	return errors.Join(errs...)
}

// HasDatabase reports whether database mode is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseDir != ""
}

// StaticFlags returns the base flags followed by every set in UseSets.
func (c *Config) StaticFlags() []string {
	out := slices.Clone(c.Flags)
	for _, name := range c.UseSets {
		out = append(out, c.Sets[name].Flags...)
	}
	return out
}

// RuleFlags returns the flags of every set whose rule matches file. Sets
// already listed in UseSets or added by an earlier rule are skipped.
func (c *Config) RuleFlags(file string) []string {
	if len(c.Rules) == 0 {
		return nil
	}
	rel := file
	if filepath.IsAbs(file) {
		r, err := filepath.Rel(c.Dir, file)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return nil
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)

	seen := make(map[string]bool, len(c.UseSets))
	for _, name := range c.UseSets {
		seen[name] = true
	}
	var out []string
	for _, r := range c.Rules {
		ok, err := doublestar.Match(r.Pattern, rel)
		if err != nil || !ok {
			continue
		}
		for _, name := range r.Sets {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, c.Sets[name].Flags...)
		}
	}
	return out
}

// SetNames returns the configured set names in sorted order.
func (c *Config) SetNames() []string {
	names := make([]string, 0, len(c.Sets))
	for name := range c.Sets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
