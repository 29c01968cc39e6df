package driver

import (
	"bufio"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

const (
	quoteStart      = `#include "..." search starts here:`
	angleStart      = "#include <...> search starts here:"
	searchEnd       = "End of search list."
	frameworkSuffix = " (framework directory)"
)

// ErrNoSearchList is returned when the output has no include search list.
var ErrNoSearchList = errors.New("no include search list in compiler output")

// ParseSearchList extracts the directories between the "#include <...>"
// marker and "End of search list." from verbose compiler output.
func ParseSearchList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var dirs []string
	inList, found := false, false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, angleStart):
			inList, found = true, true
		case strings.HasPrefix(line, quoteStart):
			inList = false
		case strings.HasPrefix(line, searchEnd):
			inList = false
		case inList:
			dir := strings.TrimSpace(line)
			dir = strings.TrimSuffix(dir, frameworkSuffix)
			if dir != "" {
				dirs = append(dirs, filepath.Clean(dir))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSearchList
	}
	return dirs, nil
}
