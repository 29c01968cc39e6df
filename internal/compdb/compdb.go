// Package compdb loads a JSON compilation database (compile_commands.json)
// and looks up the compiler invocation recorded for a source file.
package compdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/shlex"
)

// FileName is the database file looked up inside the configured folder.
const FileName = "compile_commands.json"

// Info is the compilation info recorded for one file.
type Info struct {
	Flags      []string // compiler flags, without the compiler and the source file
	WorkingDir string   // directory the compiler ran in
	File       string   // absolute path of the entry's source file
}

// Database looks up compilation info by file path.
type Database interface {
	CompilationInfo(file string) (Info, bool)
}

// Command is one entry of compile_commands.json.
type Command struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// JSONDatabase is an in-memory index of a compile_commands.json file. It is
// read-only after Load and safe for concurrent lookups.
type JSONDatabase struct {
	path    string
	entries map[string]Info
	byStem  map[string][]string // dir/stem -> source files, for header lookup
}

var (
	headerExts = []string{".h", ".hh", ".hpp", ".hxx", ".h++"}
	sourceExts = []string{".cpp", ".cxx", ".cc", ".c", ".m", ".mm"}
)

// Load reads dir/compile_commands.json.
func Load(dir string) (*JSONDatabase, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compilation database: %w", err)
	}
	var cmds []Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	db, err := New(cmds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	db.path = path
	return db, nil
}

// New indexes the given commands. Later entries for the same file replace
// earlier ones.
func New(cmds []Command) (*JSONDatabase, error) {
	db := &JSONDatabase{
		entries: make(map[string]Info, len(cmds)),
		byStem:  make(map[string][]string),
	}
	var errs []error
	for i, c := range cmds {
		info, err := c.info()
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i, c.File, err))
			continue
		}
		if _, seen := db.entries[info.File]; !seen {
			stem := strings.TrimSuffix(info.File, filepath.Ext(info.File))
			db.byStem[stem] = append(db.byStem[stem], info.File)
		}
		db.entries[info.File] = info
	}
	if len(db.entries) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return db, nil
}

// Path is the file the database was loaded from.
func (db *JSONDatabase) Path() string { return db.path }

// Len is the number of indexed files.
func (db *JSONDatabase) Len() int { return len(db.entries) }

// CompilationInfo returns the entry for file. A header without its own entry
// borrows the entry of a source file with the same stem in the same
// directory.
func (db *JSONDatabase) CompilationInfo(file string) (Info, bool) {
	file = cleanAbs(file, "")
	if info, ok := db.entries[file]; ok {
		return info, true
	}

	ext := strings.ToLower(filepath.Ext(file))
	if !slices.Contains(headerExts, ext) {
		return Info{}, false
	}
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	for _, srcExt := range sourceExts {
		for _, src := range db.byStem[stem] {
			if strings.ToLower(filepath.Ext(src)) == srcExt {
				return db.entries[src], true
			}
		}
	}
	return Info{}, false
}

func (c Command) info() (Info, error) {
	if c.File == "" {
		return Info{}, errors.New("missing file")
	}
	args := c.Arguments
	if len(args) == 0 {
		if c.Command == "" {
			return Info{}, errors.New("neither arguments nor command set")
		}
		var err error
		args, err = shlex.Split(c.Command)
		if err != nil {
			return Info{}, fmt.Errorf("split command: %w", err)
		}
	}
	file := cleanAbs(c.File, c.Directory)
	return Info{
		Flags:      compilerFlags(args, c.File, file, c.Output),
		WorkingDir: c.Directory,
		File:       file,
	}, nil
}

// compilerFlags drops the compiler, the input file and the output options,
// which make no sense for a completion engine. An attached -o<path> is only
// dropped when it names the entry's output, so flags like -objcmt-* survive.
func compilerFlags(args []string, rawFile, absFile, output string) []string {
	if len(args) > 0 {
		args = args[1:]
	}
	out := make([]string, 0, len(args))
	skipNext := false
	for _, a := range args {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case a == "-c":
			continue
		case a == "-o":
			skipNext = true
			continue
		case output != "" && a == "-o"+output:
			continue
		case a == rawFile || a == absFile:
			continue
		}
		out = append(out, a)
	}
	return out
}

func cleanAbs(file, dir string) string {
	if !filepath.IsAbs(file) {
		if dir == "" {
			if abs, err := filepath.Abs(file); err == nil {
				return abs
			}
		}
		file = filepath.Join(dir, file)
	}
	return filepath.Clean(file)
}
