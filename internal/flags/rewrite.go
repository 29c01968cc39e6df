package flags

import (
	"path/filepath"
	"strings"
)

// PathMarkers are the flags that introduce a filesystem path, in the order
// they are matched. Only the first match per flag is acted on.
var PathMarkers = []string{"-isystem", "-I", "-iquote", "--sysroot="}

// scanState is the one-token lookahead used while rewriting.
type scanState int

const (
	stateIdle       scanState = iota
	stateExpectPath           // previous token was a bare marker
)

// MatchMarker returns the first path marker that flag starts with and the
// text attached after it. ok is false if no marker matches.
func MatchMarker(flag string) (marker, attached string, ok bool) {
	for _, m := range PathMarkers {
		if strings.HasPrefix(flag, m) {
			return m, flag[len(m):], true
		}
	}
	return "", "", false
}

// RewriteRelativePaths makes the path argument of every path flag absolute
// by joining it with workingDir. An empty workingDir returns a copy of the
// input. Order and count are preserved.
func RewriteRelativePaths(in []string, workingDir string) []string {
	out := make([]string, 0, len(in))
	if workingDir == "" {
		return append(out, in...)
	}

	state := stateIdle
	for _, flag := range in {
		if state == stateExpectPath {
			state = stateIdle
			out = append(out, absolutize(flag, workingDir))
			continue
		}

		marker, attached, ok := MatchMarker(flag)
		switch {
		case !ok:
			out = append(out, flag)
		case attached == "":
			state = stateExpectPath
			out = append(out, flag)
		default:
			out = append(out, marker+absolutize(attached, workingDir))
		}
	}
	return out
}

func absolutize(path, workingDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workingDir, path)
}
