package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"n3proof/internal/watch"
)

// expandPaths replaces each directory argument with the proof files in it.
func expandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		var found []string
		for _, ext := range watch.Extensions {
			matches, err := filepath.Glob(filepath.Join(p, "*"+ext))
			if err != nil {
				return nil, err
			}
			found = append(found, matches...)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
