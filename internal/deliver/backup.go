// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deliver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// timeNow stamps backup filenames. Tests override it for deterministic names.
var timeNow = time.Now

// backupMeta is the sidecar written next to each backup file.
type backupMeta struct {
	Title   string    `yaml:"title"`
	SavedAt time.Time `yaml:"saved_at"`
	Bytes   int       `yaml:"bytes"`
}

// WriteBackup persists the original markdown to dir, named from the page
// title and a timestamp so repeated failures never overwrite each other.
// The file is written to a temp path and renamed into place, and a YAML
// sidecar records what was saved. Returns the backup file path.
func WriteBackup(dir, title, source string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory %s: %w", dir, err)
	}

	now := timeNow()
	base := fmt.Sprintf("%s-%s", safeTitle(title), now.Format("20060102-150405"))
	path := filepath.Join(dir, base+".md")

	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.WriteString(source)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing backup: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	meta := backupMeta{Title: title, SavedAt: now.UTC(), Bytes: len(source)}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshaling backup metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, base+".yaml"), data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup metadata: %w", err)
	}

	return path, nil
}

// safeTitle reduces a page title to filesystem-safe characters.
func safeTitle(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return '_'
		}
	}, title)
	if mapped == "" {
		return "untitled"
	}
	return mapped
}
