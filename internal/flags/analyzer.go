package flags

import (
	"fmt"
	"strings"

	"ycmflags/internal/model"
)

// Analyze classifies every flag of res and reports duplicate and missing
// include directories and the paths that were made absolute.
func Analyze(res model.Resolution) model.Analysis {
	rewritten := RewriteRelativePaths(res.Original, res.WorkingDir)

	removed := make(map[string]int, len(res.Removed))
	for _, f := range res.Removed {
		removed[f]++
	}

	var entries []model.FlagEntry
	state := stateIdle
	markerIdx := -1 // entry index of a bare marker awaiting its path
	for i, orig := range res.Original {
		val := orig
		if i < len(rewritten) {
			val = rewritten[i]
		}
		e := model.FlagEntry{Value: val, Original: orig, Rewritten: val != orig}

		expectPath := false
		if state == stateExpectPath {
			state = stateIdle
			e.Kind = model.KindPathArg
			e.Path = val
			if markerIdx >= 0 {
				entries[markerIdx].Path = val
				entries[markerIdx].Rewritten = e.Rewritten
			}
		} else if marker, attached, ok := MatchMarker(val); ok {
			e.Kind = markerKind(marker)
			e.Path = attached
			if attached == "" {
				state = stateExpectPath
				expectPath = true
			}
		} else {
			e.Kind = classify(val)
		}
		markerIdx = -1

		if removed[val] > 0 {
			removed[val]--
			continue
		}
		entries = append(entries, e)
		if expectPath {
			markerIdx = len(entries) - 1
		}
	}

	a := model.Analysis{
		File:       res.File,
		Source:     res.Source,
		WorkingDir: res.WorkingDir,
		Entries:    entries,
	}
	markPaths(&a)
	return a
}

// markPaths flags duplicate and missing include directories. Separate path
// tokens are skipped; the marker entry carries the path.
func markPaths(a *model.Analysis) {
	seen := make(map[string]int)
	missing, dups, rewritten := 0, 0, 0
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.Path == "" || e.Kind == model.KindPathArg {
			continue
		}
		if e.Rewritten {
			rewritten++
		}
		if !model.DirExists(e.Path) {
			e.Missing = true
			e.Diagnostics = append(e.Diagnostics, fmt.Sprintf("%s does not exist", e.Path))
			missing++
		}
		if e.Kind == model.KindSysroot {
			continue
		}
		if first, ok := seen[e.Path]; ok {
			e.IsDuplicate = true
			e.DuplicateOf = first
			e.Diagnostics = append(e.Diagnostics,
				fmt.Sprintf("Duplicate of flag %d (%s); the later entry has no effect.", first+1, a.Entries[first].Value))
			dups++
		} else {
			seen[e.Path] = i
		}
	}

	if missing > 0 {
		a.Diagnostics = append(a.Diagnostics, fmt.Sprintf("%d include path(s) do not exist", missing))
	}
	if dups > 0 {
		a.Diagnostics = append(a.Diagnostics, fmt.Sprintf("%d duplicate include path(s)", dups))
	}
	if rewritten > 0 {
		a.Diagnostics = append(a.Diagnostics, fmt.Sprintf("%d relative path(s) made absolute against %s", rewritten, a.WorkingDir))
	}
}

func markerKind(marker string) model.FlagKind {
	switch marker {
	case "-isystem":
		return model.KindSystemInclude
	case "-iquote":
		return model.KindQuoteInclude
	case "--sysroot=":
		return model.KindSysroot
	}
	return model.KindInclude
}

func classify(flag string) model.FlagKind {
	switch {
	case strings.HasPrefix(flag, "-D"), strings.HasPrefix(flag, "-U"):
		return model.KindDefine
	case strings.HasPrefix(flag, "-W"):
		return model.KindWarning
	case strings.HasPrefix(flag, "-std="):
		return model.KindStandard
	}
	return model.KindOther
}
