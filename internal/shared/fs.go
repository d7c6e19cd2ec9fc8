package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir and any missing parents. An existing directory is not an error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ReplaceExt renames path so that its extension becomes ext (with or without a leading dot)
// and returns the new path. Files already carrying ext are left alone.
func ReplaceExt(path, ext string) (string, error) {
	ext = "." + strings.TrimPrefix(ext, ".")
	current := filepath.Ext(path)
	if strings.EqualFold(current, ext) {
		return path, nil
	}

	target := strings.TrimSuffix(path, current) + ext
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return target, nil
}

// Snapshot lists the regular files directly inside dir. A missing dir yields an empty set.
func Snapshot(dir string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return seen, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.Type().IsRegular() {
			seen[filepath.Join(dir, e.Name())] = struct{}{}
		}
	}
	return seen, nil
}

// NewFiles returns the files in dir that are absent from before, skipping partial downloads.
func NewFiles(dir string, before map[string]struct{}) ([]string, error) {
	after, err := Snapshot(dir)
	if err != nil {
		return nil, err
	}

	var added []string
	for path := range after {
		if _, ok := before[path]; ok {
			continue
		}
		if isPartial(path) {
			continue
		}
		added = append(added, path)
	}
	return added, nil
}

func isPartial(path string) bool {
	switch filepath.Ext(path) {
	case ".part", ".ytdl", ".temp", ".tmp":
		return true
	}
	return false
}

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
