package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanupPartial deletes path and every sibling partial-transfer artifact
// (".part", ".ytdl", ".temp", fragment files) sharing its base name. It
// returns the removed paths. A missing path is not an error.
func CleanupPartial(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	var removed []string
	var errs []error

	if err := os.Remove(path); err == nil {
		removed = append(removed, path)
	} else if !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	dir := filepath.Dir(path)
	base := partialBaseName(filepath.Base(path))
	if base == "" {
		return removed, errors.Join(errs...)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return removed, errors.Join(errs...)
		}
		errs = append(errs, fmt.Errorf("failed to read directory %s: %w", dir, err))
		return removed, errors.Join(errs...)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base+".") || !IsPartialArtifact(name) {
			continue
		}
		target := filepath.Join(dir, name)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, target)
	}

	return removed, errors.Join(errs...)
}

// partialBaseName strips partial markers and the media extension:
// "Title.f137.mp4.part" and "Title.mp4" both yield "Title".
func partialBaseName(name string) string {
	for _, marker := range PartialMarkers {
		if idx := strings.LastIndex(name, marker); idx > 0 {
			name = name[:idx]
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	// format-specific streams carry an extra ".fNNN" suffix
	if ext := filepath.Ext(name); strings.HasPrefix(ext, ".f") && isDigits(ext[2:]) {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
