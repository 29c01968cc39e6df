// Package driver asks a compiler for its built-in system include
// directories so they can be passed to the completion engine.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single compiler query.
const DefaultTimeout = 10 * time.Second

// Query runs `<compiler> -E -x <lang> -v -` with empty stdin and returns the
// system include directories the compiler reports, in search order.
func Query(ctx context.Context, compiler, lang string) ([]string, error) {
	if lang == "" {
		lang = "c++"
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, compiler, "-E", "-x", lang, "-v", "-")
	cmd.Stdin = strings.NewReader("")
	// A fixed locale keeps the search-list markers in English.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w", compiler, err)
	}

	dirs, err := ParseSearchList(&stderr)
	if err != nil {
		return nil, fmt.Errorf("parse %s output: %w", compiler, err)
	}
	return dirs, nil
}

// IncludeFlags turns directories into -isystem pairs.
func IncludeFlags(dirs []string) []string {
	out := make([]string, 0, 2*len(dirs))
	for _, d := range dirs {
		out = append(out, "-isystem", d)
	}
	return out
}
