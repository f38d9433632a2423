package tool

import (
	"os"
	"path/filepath"
	"strings"
)

// CountVolumes counts the regular files in dir whose extension
// (without the dot) is in exts. The match is case-sensitive, so dcm
// and DCM are distinct entries. Subdirectories are not descended
// into.
func CountVolumes(dir string, exts []string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[e] = struct{}{}
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		if _, ok := allowed[ext]; ok {
			count++
		}
	}
	return count, nil
}
