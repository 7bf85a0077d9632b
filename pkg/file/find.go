package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FindByExtensions walks dir and returns the files whose extension matches
// one of exts (case-insensitive, with or without the leading dot), sorted by
// path for a stable corpus order.
func FindByExtensions(dir string, exts ...string) ([]string, error) {
	want := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		want[ext] = struct{}{}
	}

	var matched []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}
		if _, ok := want[strings.ToLower(filepath.Ext(path))]; ok {
			matched = append(matched, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matched)
	return matched, nil
}

// FindRecentAfter returns the files under dir modified after startTime.
func FindRecentAfter(dir string, startTime time.Time) ([]string, error) {
	var recentFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.ModTime().After(startTime) {
			recentFiles = append(recentFiles, path)
		}
		return nil
	})

	return recentFiles, err
}
